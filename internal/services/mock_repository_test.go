package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
)

// mockRepository is an in-memory Repository used across the service tests.
// Every store keeps value copies keyed by ID so tests can assert against the
// persisted state independently of the pointers a service holds.
type mockRepository struct {
	mu     sync.Mutex
	nextID uint

	schools       map[uint]models.DrivingSchool
	users         map[uint]models.User
	students      map[uint]models.Student
	instructors   map[uint]models.Instructor
	payments      map[uint]models.Payment
	exams         map[uint]models.ExamResult
	schedules     map[uint]models.Schedule
	progress      map[uint]models.StudentProgress
	rollups       map[uint]models.ProgressDailyRollup
	courses       map[uint]models.Course
	contents      map[uint]models.CourseContent
	quizzes       map[uint]models.Quiz
	questions     map[uint]models.QuizQuestion
	options       map[uint]models.QuizOption
	notifications map[uint]models.Notification
	templates     map[uint]models.NotificationTemplate
	rules         map[uint]models.NotificationRule
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		schools:       make(map[uint]models.DrivingSchool),
		users:         make(map[uint]models.User),
		students:      make(map[uint]models.Student),
		instructors:   make(map[uint]models.Instructor),
		payments:      make(map[uint]models.Payment),
		exams:         make(map[uint]models.ExamResult),
		schedules:     make(map[uint]models.Schedule),
		progress:      make(map[uint]models.StudentProgress),
		rollups:       make(map[uint]models.ProgressDailyRollup),
		courses:       make(map[uint]models.Course),
		contents:      make(map[uint]models.CourseContent),
		quizzes:       make(map[uint]models.Quiz),
		questions:     make(map[uint]models.QuizQuestion),
		options:       make(map[uint]models.QuizOption),
		notifications: make(map[uint]models.Notification),
		templates:     make(map[uint]models.NotificationTemplate),
		rules:         make(map[uint]models.NotificationRule),
	}
}

func (m *mockRepository) id() uint {
	m.nextID++
	return m.nextID
}

// Fixture helpers.

func (m *mockRepository) addStudent(student models.Student) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	if student.ID == 0 {
		student.ID = m.id()
	}
	m.students[student.ID] = student
	stored := student
	return &stored
}

func (m *mockRepository) addInstructor(instructor models.Instructor) *models.Instructor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if instructor.ID == 0 {
		instructor.ID = m.id()
	}
	m.instructors[instructor.ID] = instructor
	stored := instructor
	return &stored
}

func (m *mockRepository) addContent(content models.CourseContent) *models.CourseContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if content.ID == 0 {
		content.ID = m.id()
	}
	m.contents[content.ID] = content
	stored := content
	return &stored
}

func (m *mockRepository) storedStudent(id uint) models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.students[id]
}

func (m *mockRepository) storedSchedule(id uint) models.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedules[id]
}

func (m *mockRepository) storedNotification(id uint) models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[id]
}

// Repository implementation.

func (m *mockRepository) School() repositories.SchoolRepository           { return (*mockSchoolRepo)(m) }
func (m *mockRepository) User() repositories.UserRepository               { return (*mockUserRepo)(m) }
func (m *mockRepository) Student() repositories.StudentRepository         { return (*mockStudentRepo)(m) }
func (m *mockRepository) Instructor() repositories.InstructorRepository   { return (*mockInstructorRepo)(m) }
func (m *mockRepository) Payment() repositories.PaymentRepository         { return (*mockPaymentRepo)(m) }
func (m *mockRepository) Exam() repositories.ExamRepository               { return (*mockExamRepo)(m) }
func (m *mockRepository) Schedule() repositories.ScheduleRepository       { return (*mockScheduleRepo)(m) }
func (m *mockRepository) Progress() repositories.ProgressRepository       { return (*mockProgressRepo)(m) }
func (m *mockRepository) Course() repositories.CourseRepository           { return (*mockCourseRepo)(m) }
func (m *mockRepository) Quiz() repositories.QuizRepository               { return (*mockQuizRepo)(m) }
func (m *mockRepository) Notification() repositories.NotificationRepository {
	return (*mockNotificationRepo)(m)
}
func (m *mockRepository) Dashboard() repositories.DashboardRepository { return (*mockDashboardRepo)(m) }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== SCHOOL =====

type mockSchoolRepo mockRepository

func (r *mockSchoolRepo) Create(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	school.ID = (*mockRepository)(r).id()
	r.schools[school.ID] = *school
	return nil
}

func (r *mockSchoolRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DrivingSchool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	school, ok := r.schools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &school, nil
}

func (r *mockSchoolRepo) Update(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schools[school.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.schools[school.ID] = *school
	return nil
}

// ===== USER =====

type mockUserRepo mockRepository

func (r *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = (*mockRepository)(r).id()
	r.users[user.ID] = *user
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) GetByTCNumber(ctx context.Context, tx *gorm.DB, tcNumber string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.TCNumber == tcNumber {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *mockUserRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, user := range r.users {
		if user.SchoolID != schoolID {
			continue
		}
		u := user
		out = append(out, &u)
	}
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, tx, email)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *mockUserRepo) ExistsByTCNumber(ctx context.Context, tx *gorm.DB, tcNumber string) (bool, error) {
	_, err := r.GetByTCNumber(ctx, tx, tcNumber)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

// ===== STUDENT =====

type mockStudentRepo mockRepository

func (r *mockStudentRepo) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student.ID = (*mockRepository)(r).id()
	r.students[student.ID] = *student
	return nil
}

func (r *mockStudentRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &student, nil
}

func (r *mockStudentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, schoolID, userID uint) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, student := range r.students {
		if student.SchoolID == schoolID && student.UserID == userID {
			s := student
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockStudentRepo) Update(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[student.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.students[student.ID] = *student
	return nil
}

func (r *mockStudentRepo) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *mockStudentRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Student
	for _, student := range r.students {
		if student.SchoolID != schoolID {
			continue
		}
		if filters.Stage != nil && student.Stage != *filters.Stage {
			continue
		}
		if filters.HasDebt != nil {
			if *filters.HasDebt != (student.RemainingDebt > 0) {
				continue
			}
		}
		if filters.Search != "" {
			name := strings.ToLower(student.User.FullName)
			email := strings.ToLower(student.User.Email)
			q := strings.ToLower(filters.Search)
			if !strings.Contains(name, q) && !strings.Contains(email, q) {
				continue
			}
		}
		s := student
		out = append(out, &s)
	}
	total := int64(len(out))
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *mockStudentRepo) CountByStage(ctx context.Context, tx *gorm.DB, schoolID uint) (repositories.StageCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(repositories.StageCounts, len(models.Stages))
	for _, stage := range models.Stages {
		counts[stage] = 0
	}
	for _, student := range r.students {
		if student.SchoolID == schoolID {
			counts[student.Stage]++
		}
	}
	return counts, nil
}

func (r *mockStudentRepo) UpdateStage(ctx context.Context, tx *gorm.DB, schoolID, id uint, stage models.StudentStage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	student.Stage = stage
	r.students[id] = student
	return nil
}

func (r *mockStudentRepo) UpdateBilling(ctx context.Context, tx *gorm.DB, schoolID, id uint, paidAmount, remainingDebt float64, status string, nextPayment *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	student.PaidAmount = paidAmount
	student.RemainingDebt = remainingDebt
	student.PaymentStatus = status
	student.NextPaymentDate = nextPayment
	r.students[id] = student
	return nil
}

func (r *mockStudentRepo) IncrementLessonCounter(ctx context.Context, tx *gorm.DB, schoolID, id uint, lessonType models.LessonType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	if lessonType == models.LessonTheory {
		student.TheoryLessonsCompleted++
	} else {
		student.PracticeLessonsCompleted++
	}
	r.students[id] = student
	return nil
}

func (r *mockStudentRepo) TouchActivity(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok || student.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	student.LastActivityAt = &now
	r.students[id] = student
	return nil
}

// ===== INSTRUCTOR =====

type mockInstructorRepo mockRepository

func (r *mockInstructorRepo) Create(ctx context.Context, tx *gorm.DB, instructor *models.Instructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	instructor.ID = (*mockRepository)(r).id()
	r.instructors[instructor.ID] = *instructor
	return nil
}

func (r *mockInstructorRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Instructor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	instructor, ok := r.instructors[id]
	if !ok || instructor.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &instructor, nil
}

func (r *mockInstructorRepo) GetByUserID(ctx context.Context, tx *gorm.DB, schoolID, userID uint) (*models.Instructor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, instructor := range r.instructors {
		if instructor.SchoolID == schoolID && instructor.UserID == userID {
			i := instructor
			return &i, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockInstructorRepo) Update(ctx context.Context, tx *gorm.DB, instructor *models.Instructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instructors[instructor.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.instructors[instructor.ID] = *instructor
	return nil
}

func (r *mockInstructorRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, activeOnly bool) ([]*models.Instructor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Instructor
	for _, instructor := range r.instructors {
		if instructor.SchoolID != schoolID {
			continue
		}
		if activeOnly && !instructor.IsActive {
			continue
		}
		i := instructor
		out = append(out, &i)
	}
	return out, nil
}

// ===== PAYMENT =====

type mockPaymentRepo mockRepository

func (r *mockPaymentRepo) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.ID = (*mockRepository)(r).id()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *mockPaymentRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok || payment.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (r *mockPaymentRepo) Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *mockPaymentRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.PaymentFilters) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.SchoolID != schoolID {
			continue
		}
		if filters.StudentID != nil && payment.StudentID != *filters.StudentID {
			continue
		}
		if filters.Status != nil && payment.Status != *filters.Status {
			continue
		}
		p := payment
		out = append(out, &p)
	}
	total := int64(len(out))
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *mockPaymentRepo) SumCompletedByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, payment := range r.payments {
		if payment.SchoolID == schoolID && payment.StudentID == studentID && payment.Status == models.PaymentCompleted {
			sum += payment.Amount
		}
	}
	return sum, nil
}

func (r *mockPaymentRepo) GetRevenueSummary(ctx context.Context, tx *gorm.DB, schoolID uint) (*repositories.RevenueSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &repositories.RevenueSummary{}
	for _, payment := range r.payments {
		if payment.SchoolID != schoolID {
			continue
		}
		switch payment.Status {
		case models.PaymentCompleted:
			summary.TotalCollected += payment.Amount
		case models.PaymentPending:
			summary.TotalOutstanding += payment.Amount
			summary.PendingCount++
		case models.PaymentOverdue:
			summary.TotalOutstanding += payment.Amount
			summary.OverdueCount++
		}
	}
	return summary, nil
}

// ===== EXAM =====

type mockExamRepo mockRepository

func (r *mockExamRepo) Create(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	result.ID = (*mockRepository)(r).id()
	r.exams[result.ID] = *result
	return nil
}

func (r *mockExamRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.exams[id]
	if !ok || result.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &result, nil
}

func (r *mockExamRepo) Update(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exams[result.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.exams[result.ID] = *result
	return nil
}

func (r *mockExamRepo) GetByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint) ([]*models.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ExamResult
	for _, result := range r.exams {
		if result.SchoolID == schoolID && result.StudentID == studentID {
			e := result
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *mockExamRepo) GetLatestByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, examType models.ExamType) (*models.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.ExamResult
	for _, result := range r.exams {
		if result.SchoolID != schoolID || result.StudentID != studentID || result.Type != examType {
			continue
		}
		e := result
		if latest == nil || e.ID > latest.ID {
			latest = &e
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

// ===== SCHEDULE =====

type mockScheduleRepo mockRepository

func (r *mockScheduleRepo) Create(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule.ID = (*mockRepository)(r).id()
	r.schedules[schedule.ID] = *schedule
	return nil
}

func (r *mockScheduleRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule, ok := r.schedules[id]
	if !ok || schedule.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &schedule, nil
}

func (r *mockScheduleRepo) Update(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[schedule.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.schedules[schedule.ID] = *schedule
	return nil
}

func (r *mockScheduleRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.ScheduleFilters) ([]*models.Schedule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Schedule
	for _, schedule := range r.schedules {
		if schedule.SchoolID != schoolID {
			continue
		}
		if filters.StudentID != nil && schedule.StudentID != *filters.StudentID {
			continue
		}
		if filters.InstructorID != nil && schedule.InstructorID != *filters.InstructorID {
			continue
		}
		if filters.Status != nil && schedule.Status != *filters.Status {
			continue
		}
		s := schedule
		out = append(out, &s)
	}
	total := int64(len(out))
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *mockScheduleRepo) FindOverlapping(ctx context.Context, tx *gorm.DB, schoolID, studentID, instructorID uint, start, end time.Time) ([]*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Schedule
	for _, schedule := range r.schedules {
		if schedule.SchoolID != schoolID || schedule.Status == models.ScheduleCancelled {
			continue
		}
		if schedule.StudentID != studentID && schedule.InstructorID != instructorID {
			continue
		}
		s := schedule
		if s.Overlaps(start, end) {
			out = append(out, &s)
		}
	}
	return out, nil
}

func (r *mockScheduleRepo) GetByInstructorAndDay(ctx context.Context, tx *gorm.DB, schoolID, instructorID uint, day time.Time) ([]*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Schedule
	for _, schedule := range r.schedules {
		if schedule.SchoolID != schoolID || schedule.InstructorID != instructorID {
			continue
		}
		if schedule.Status == models.ScheduleCancelled {
			continue
		}
		y1, m1, d1 := schedule.ScheduledDate.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			s := schedule
			out = append(out, &s)
		}
	}
	return out, nil
}

func (r *mockScheduleRepo) GetByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, filters repositories.ScheduleFilters) ([]*models.Schedule, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, schoolID, filters)
}

// ===== PROGRESS =====

type mockProgressRepo mockRepository

func (r *mockProgressRepo) GetByStudentAndContent(ctx context.Context, tx *gorm.DB, schoolID, studentID, contentID uint) (*models.StudentProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, progress := range r.progress {
		if progress.SchoolID == schoolID && progress.StudentID == studentID && progress.ContentID == contentID {
			p := progress
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *models.StudentProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	progress.ID = (*mockRepository)(r).id()
	r.progress[progress.ID] = *progress
	return nil
}

func (r *mockProgressRepo) Update(ctx context.Context, tx *gorm.DB, progress *models.StudentProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.progress[progress.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.progress[progress.ID] = *progress
	return nil
}

func (r *mockProgressRepo) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, schoolID, studentID, courseID uint) ([]*models.StudentProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.StudentProgress
	for _, progress := range r.progress {
		if progress.SchoolID == schoolID && progress.StudentID == studentID && progress.CourseID == courseID {
			p := progress
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *mockProgressRepo) UpsertDailyRollup(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, day time.Time, lessonsDelta, quizzesDelta, secondsDelta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	y, m, d := day.Date()
	key := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for id, rollup := range r.rollups {
		if rollup.SchoolID == schoolID && rollup.StudentID == studentID && rollup.Day.Equal(key) {
			rollup.LessonsCompleted += lessonsDelta
			rollup.QuizzesCompleted += quizzesDelta
			rollup.TimeSpentSeconds += secondsDelta
			r.rollups[id] = rollup
			return nil
		}
	}
	rollup := models.ProgressDailyRollup{
		ID:               (*mockRepository)(r).id(),
		SchoolID:         schoolID,
		StudentID:        studentID,
		Day:              key,
		LessonsCompleted: lessonsDelta,
		QuizzesCompleted: quizzesDelta,
		TimeSpentSeconds: secondsDelta,
	}
	r.rollups[rollup.ID] = rollup
	return nil
}

func (r *mockProgressRepo) GetDailyRollups(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, from, to time.Time) ([]*models.ProgressDailyRollup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProgressDailyRollup
	for _, rollup := range r.rollups {
		if rollup.SchoolID != schoolID || rollup.StudentID != studentID {
			continue
		}
		if rollup.Day.Before(from) || rollup.Day.After(to) {
			continue
		}
		rl := rollup
		out = append(out, &rl)
	}
	return out, nil
}

// ===== COURSE =====

type mockCourseRepo mockRepository

func (r *mockCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	course.ID = (*mockRepository)(r).id()
	r.courses[course.ID] = *course
	return nil
}

func (r *mockCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[id]
	if !ok || course.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &course, nil
}

func (r *mockCourseRepo) GetByIDWithContents(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Course, error) {
	course, err := r.GetByID(ctx, tx, schoolID, id)
	if err != nil {
		return nil, err
	}
	contents, _ := r.GetContents(ctx, tx, schoolID, id)
	for _, c := range contents {
		course.Contents = append(course.Contents, *c)
	}
	return course, nil
}

func (r *mockCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.courses[course.ID] = *course
	return nil
}

func (r *mockCourseRepo) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[id]
	if !ok || course.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *mockCourseRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Course
	for _, course := range r.courses {
		if course.SchoolID != schoolID {
			continue
		}
		if filters.Type != nil && course.Type != *filters.Type {
			continue
		}
		c := course
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (r *mockCourseRepo) CreateContent(ctx context.Context, tx *gorm.DB, content *models.CourseContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	content.ID = (*mockRepository)(r).id()
	r.contents[content.ID] = *content
	return nil
}

func (r *mockCourseRepo) GetContent(ctx context.Context, tx *gorm.DB, schoolID, contentID uint) (*models.CourseContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.contents[contentID]
	if !ok || content.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &content, nil
}

func (r *mockCourseRepo) UpdateContent(ctx context.Context, tx *gorm.DB, content *models.CourseContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[content.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.contents[content.ID] = *content
	return nil
}

func (r *mockCourseRepo) DeleteContent(ctx context.Context, tx *gorm.DB, schoolID, contentID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.contents[contentID]
	if !ok || content.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.contents, contentID)
	return nil
}

func (r *mockCourseRepo) GetContents(ctx context.Context, tx *gorm.DB, schoolID, courseID uint) ([]*models.CourseContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CourseContent
	for _, content := range r.contents {
		if content.SchoolID == schoolID && content.CourseID == courseID {
			c := content
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *mockCourseRepo) CountContents(ctx context.Context, tx *gorm.DB, schoolID, courseID uint) (int64, error) {
	contents, err := r.GetContents(ctx, tx, schoolID, courseID)
	return int64(len(contents)), err
}

// ===== QUIZ =====

type mockQuizRepo mockRepository

func (r *mockQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz.ID = (*mockRepository)(r).id()
	r.quizzes[quiz.ID] = *quiz
	return nil
}

func (r *mockQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok || quiz.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &quiz, nil
}

func (r *mockQuizRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Quiz, error) {
	quiz, err := r.GetByID(ctx, tx, schoolID, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, question := range r.questions {
		if question.QuizID != id {
			continue
		}
		q := question
		for _, option := range r.options {
			if option.QuestionID == q.ID {
				q.Options = append(q.Options, option)
			}
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz, nil
}

func (r *mockQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quiz.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.quizzes[quiz.ID] = *quiz
	return nil
}

func (r *mockQuizRepo) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok || quiz.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.quizzes, id)
	return nil
}

func (r *mockQuizRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, limit, offset int) ([]*models.Quiz, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Quiz
	for _, quiz := range r.quizzes {
		if quiz.SchoolID != schoolID {
			continue
		}
		q := quiz
		out = append(out, &q)
	}
	total := int64(len(out))
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *mockQuizRepo) CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	question.ID = (*mockRepository)(r).id()
	r.questions[question.ID] = *question
	return nil
}

func (r *mockQuizRepo) UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[question.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.questions[question.ID] = *question
	return nil
}

func (r *mockQuizRepo) DeleteQuestion(ctx context.Context, tx *gorm.DB, questionID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[questionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.questions, questionID)
	return nil
}

func (r *mockQuizRepo) GetQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.QuizQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question, ok := r.questions[questionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &question, nil
}

func (r *mockQuizRepo) CreateOption(ctx context.Context, tx *gorm.DB, option *models.QuizOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	option.ID = (*mockRepository)(r).id()
	r.options[option.ID] = *option
	return nil
}

func (r *mockQuizRepo) UpdateOption(ctx context.Context, tx *gorm.DB, option *models.QuizOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.options[option.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.options[option.ID] = *option
	return nil
}

func (r *mockQuizRepo) DeleteOption(ctx context.Context, tx *gorm.DB, optionID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.options[optionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.options, optionID)
	return nil
}

// ===== NOTIFICATION =====

type mockNotificationRepo mockRepository

func (r *mockNotificationRepo) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = (*mockRepository)(r).id()
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *mockNotificationRepo) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok || notification.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &notification, nil
}

func (r *mockNotificationRepo) Update(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[notification.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *mockNotificationRepo) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok || notification.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *mockNotificationRepo) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, notification := range r.notifications {
		if notification.SchoolID != schoolID {
			continue
		}
		if filters.Status != nil && notification.Status != *filters.Status {
			continue
		}
		n := notification
		out = append(out, &n)
	}
	total := int64(len(out))
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

func (r *mockNotificationRepo) IncrementOpened(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok || notification.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	notification.OpenedCount++
	r.notifications[id] = notification
	return nil
}

func (r *mockNotificationRepo) IncrementClicked(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok || notification.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	notification.ClickedCount++
	r.notifications[id] = notification
	return nil
}

func (r *mockNotificationRepo) MarkSent(ctx context.Context, tx *gorm.DB, schoolID, id uint, totalRecipients, sentCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok || notification.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	notification.Status = models.NotificationSent
	notification.TotalRecipients = totalRecipients
	notification.SentCount = sentCount
	notification.OpenedCount = 0
	notification.ClickedCount = 0
	r.notifications[id] = notification
	return nil
}

func (r *mockNotificationRepo) GetAnalytics(ctx context.Context, tx *gorm.DB, schoolID uint) (*repositories.NotificationAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analytics := &repositories.NotificationAnalytics{}
	var openRateSum, clickRateSum float64
	var sent int64
	for _, notification := range r.notifications {
		if notification.SchoolID != schoolID {
			continue
		}
		analytics.TotalNotifications++
		if notification.Status != models.NotificationSent {
			continue
		}
		sent++
		analytics.TotalSent += int64(notification.SentCount)
		analytics.TotalOpened += int64(notification.OpenedCount)
		analytics.TotalClicked += int64(notification.ClickedCount)
		openRateSum += models.EngagementRate(notification.OpenedCount, notification.TotalRecipients)
		clickRateSum += models.EngagementRate(notification.ClickedCount, notification.TotalRecipients)
	}
	if sent > 0 {
		analytics.AverageOpenRate = openRateSum / float64(sent)
		analytics.AverageClickRate = clickRateSum / float64(sent)
	}
	return analytics, nil
}

func (r *mockNotificationRepo) CreateTemplate(ctx context.Context, tx *gorm.DB, template *models.NotificationTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template.ID = (*mockRepository)(r).id()
	r.templates[template.ID] = *template
	return nil
}

func (r *mockNotificationRepo) GetTemplate(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.NotificationTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok || template.SchoolID != schoolID {
		return nil, gorm.ErrRecordNotFound
	}
	return &template, nil
}

func (r *mockNotificationRepo) UpdateTemplate(ctx context.Context, tx *gorm.DB, template *models.NotificationTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[template.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.templates[template.ID] = *template
	return nil
}

func (r *mockNotificationRepo) DeleteTemplate(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok || template.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *mockNotificationRepo) ListTemplates(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.NotificationTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.NotificationTemplate
	for _, template := range r.templates {
		if template.SchoolID == schoolID {
			t := template
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r *mockNotificationRepo) CreateRule(ctx context.Context, tx *gorm.DB, rule *models.NotificationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = (*mockRepository)(r).id()
	r.rules[rule.ID] = *rule
	return nil
}

func (r *mockNotificationRepo) UpdateRule(ctx context.Context, tx *gorm.DB, rule *models.NotificationRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.rules[rule.ID] = *rule
	return nil
}

func (r *mockNotificationRepo) DeleteRule(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || rule.SchoolID != schoolID {
		return gorm.ErrRecordNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *mockNotificationRepo) ListRules(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.NotificationRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.NotificationRule
	for _, rule := range r.rules {
		if rule.SchoolID == schoolID {
			rl := rule
			out = append(out, &rl)
		}
	}
	return out, nil
}

// ===== DASHBOARD =====

type mockDashboardRepo mockRepository

func (r *mockDashboardRepo) GetTotalStudents(ctx context.Context, tx *gorm.DB, schoolID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, student := range r.students {
		if student.SchoolID == schoolID {
			total++
		}
	}
	return total, nil
}

func (r *mockDashboardRepo) GetTotalInstructors(ctx context.Context, tx *gorm.DB, schoolID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, instructor := range r.instructors {
		if instructor.SchoolID == schoolID {
			total++
		}
	}
	return total, nil
}

func (r *mockDashboardRepo) GetActiveStudents(ctx context.Context, tx *gorm.DB, schoolID uint, days int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -days)
	var total int64
	for _, student := range r.students {
		if student.SchoolID == schoolID && student.LastActivityAt != nil && student.LastActivityAt.After(cutoff) {
			total++
		}
	}
	return total, nil
}

func (r *mockDashboardRepo) GetUpcomingLessons(ctx context.Context, tx *gorm.DB, schoolID uint, days int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	horizon := now.AddDate(0, 0, days)
	var total int64
	for _, schedule := range r.schedules {
		if schedule.SchoolID != schoolID || schedule.Status != models.ScheduleScheduled {
			continue
		}
		if schedule.ScheduledDate.After(now) && schedule.ScheduledDate.Before(horizon) {
			total++
		}
	}
	return total, nil
}

func (r *mockDashboardRepo) GetPaymentsDueSoon(ctx context.Context, tx *gorm.DB, schoolID uint, days int) ([]repositories.ReminderData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	horizon := now.AddDate(0, 0, days)
	var out []repositories.ReminderData
	for _, payment := range r.payments {
		if payment.SchoolID != schoolID || payment.Status != models.PaymentPending || payment.DueDate == nil {
			continue
		}
		if payment.DueDate.After(now) && payment.DueDate.Before(horizon) {
			amount := payment.Amount
			out = append(out, repositories.ReminderData{
				StudentID: payment.StudentID,
				DueDate:   *payment.DueDate,
				Amount:    &amount,
			})
		}
	}
	return out, nil
}

func (r *mockDashboardRepo) GetExamsSoon(ctx context.Context, tx *gorm.DB, schoolID uint, days int) ([]repositories.ReminderData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	horizon := now.AddDate(0, 0, days)
	var out []repositories.ReminderData
	for _, student := range r.students {
		if student.SchoolID != schoolID || student.ExamDate == nil {
			continue
		}
		if student.ExamDate.After(now) && student.ExamDate.Before(horizon) {
			out = append(out, repositories.ReminderData{
				StudentID:   student.ID,
				StudentName: student.User.FullName,
				DueDate:     *student.ExamDate,
			})
		}
	}
	return out, nil
}

func (r *mockDashboardRepo) GetRecentActivities(ctx context.Context, tx *gorm.DB, schoolID uint, limit int) ([]repositories.RecentActivityData, error) {
	return nil, nil
}
