package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/cache"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

// Automatic pipeline tags, computed on read and never persisted. The debtor
// tag keeps the Turkish label the roster UI renders.
const (
	TagDebtor         = "Borçlu"
	TagPaymentDueSoon = "payment-due-soon"
	TagExamSoon       = "exam-soon"
	TagGoodProgress   = "good-progress"
)

type studentService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	cacheManager *cache.CacheManager
}

func NewStudentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager) StudentService {
	return &studentService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		cacheManager: cacheManager,
	}
}

// Create enrolls a new student: user account plus roster row, atomically.
func (s *studentService) Create(ctx context.Context, schoolID uint, req *CreateStudentRequest) (*StudentResponse, error) {
	s.logger.Info("Creating student", "school_id", schoolID, "email", req.Email)

	if errs := s.validator.GetBusinessValidator().ValidateStudentCreate(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	if taken, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if req.TCNumber != "" {
		if taken, err := s.repo.User().ExistsByTCNumber(ctx, nil, req.TCNumber); err != nil {
			return nil, fmt.Errorf("failed to check tc number: %w", err)
		} else if taken {
			return nil, ErrTCNumberTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var student *models.Student
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		user := &models.User{
			SchoolID:     schoolID,
			FullName:     req.FullName,
			Email:        req.Email,
			TCNumber:     req.TCNumber,
			Phone:        req.Phone,
			PasswordHash: string(hash),
			Role:         models.RoleStudent,
		}
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		student = &models.Student{
			SchoolID:             schoolID,
			UserID:               user.ID,
			Stage:                models.StageRegistered,
			TotalFee:             req.TotalFee,
			PaidAmount:           req.PaidAmount,
			RemainingDebt:        req.TotalFee - req.PaidAmount,
			TheoryLessonsTotal:   req.TheoryLessonsTotal,
			PracticeLessonsTotal: req.PracticeLessonsTotal,
		}
		if err := txRepo.Student().Create(ctx, nil, student); err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}
		student.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buildStudentResponse(student), nil
}

func (s *studentService) GetByID(ctx context.Context, schoolID, id uint) (*StudentResponse, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return buildStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, schoolID, id uint, req *UpdateStudentRequest) (*StudentResponse, error) {
	s.logger.Info("Updating student", "school_id", schoolID, "student_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	if req.TotalFee != nil {
		student.TotalFee = *req.TotalFee
		student.RemainingDebt = student.TotalFee - student.PaidAmount
	}
	if req.NextPaymentDate != nil {
		student.NextPaymentDate = req.NextPaymentDate
	}
	if req.ExamDate != nil {
		student.ExamDate = req.ExamDate
	}
	if req.ExamStatus != nil {
		student.ExamStatus = *req.ExamStatus
	}
	if req.TheoryLessonsTotal != nil {
		student.TheoryLessonsTotal = *req.TheoryLessonsTotal
	}
	if req.PracticeLessonsTotal != nil {
		student.PracticeLessonsTotal = *req.PracticeLessonsTotal
	}

	if err := s.repo.Student().Update(ctx, nil, student); err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	if req.Phone != nil {
		student.User.Phone = *req.Phone
		if err := s.repo.User().Update(ctx, nil, &student.User); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	s.invalidate(ctx, schoolID, id)
	return buildStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, schoolID, id uint) error {
	s.logger.Info("Deleting student", "school_id", schoolID, "student_id", id)

	if err := s.repo.Student().Delete(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}

	s.invalidate(ctx, schoolID, id)
	return nil
}

func (s *studentService) List(ctx context.Context, schoolID uint, filters PipelineFilters) (*StudentListResponse, error) {
	page, size := normalizePage(filters.Page, filters.Size)

	repoFilters := repositories.StudentFilters{
		Stage:   filters.Stage,
		Search:  filters.Search,
		HasDebt: filters.HasDebt,
		Limit:   size,
		Offset:  (page - 1) * size,
	}

	students, total, err := s.repo.Student().List(ctx, nil, schoolID, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	responses := make([]*StudentResponse, len(students))
	for i, st := range students {
		responses[i] = buildStudentResponse(st)
	}

	return &StudentListResponse{
		Students: responses,
		Total:    total,
		Page:     page,
		Size:     size,
	}, nil
}

// ===== INSTRUCTORS =====

func (s *studentService) CreateInstructor(ctx context.Context, schoolID uint, req *CreateInstructorRequest) (*InstructorResponse, error) {
	s.logger.Info("Creating instructor", "school_id", schoolID, "email", req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if taken, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var instructor *models.Instructor
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		user := &models.User{
			SchoolID:     schoolID,
			FullName:     req.FullName,
			Email:        req.Email,
			TCNumber:     req.TCNumber,
			Phone:        req.Phone,
			PasswordHash: string(hash),
			Role:         models.RoleInstructor,
		}
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		instructor = &models.Instructor{
			SchoolID:     schoolID,
			UserID:       user.ID,
			LicenseClass: req.LicenseClass,
			IsActive:     true,
		}
		if err := txRepo.Instructor().Create(ctx, nil, instructor); err != nil {
			return fmt.Errorf("failed to create instructor: %w", err)
		}
		instructor.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buildInstructorResponse(instructor), nil
}

func (s *studentService) UpdateInstructor(ctx context.Context, schoolID, id uint, req *UpdateInstructorRequest) (*InstructorResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	instructor, err := s.repo.Instructor().GetByID(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		return nil, fmt.Errorf("failed to get instructor: %w", err)
	}

	if req.LicenseClass != nil {
		instructor.LicenseClass = *req.LicenseClass
	}
	if req.IsActive != nil {
		instructor.IsActive = *req.IsActive
	}

	if err := s.repo.Instructor().Update(ctx, nil, instructor); err != nil {
		return nil, fmt.Errorf("failed to update instructor: %w", err)
	}

	return buildInstructorResponse(instructor), nil
}

func (s *studentService) ListInstructors(ctx context.Context, schoolID uint, activeOnly bool) ([]*InstructorResponse, error) {
	instructors, err := s.repo.Instructor().List(ctx, nil, schoolID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}

	responses := make([]*InstructorResponse, len(instructors))
	for i, ins := range instructors {
		responses[i] = buildInstructorResponse(ins)
	}
	return responses, nil
}

func (s *studentService) invalidate(ctx context.Context, schoolID, studentID uint) {
	if s.cacheManager != nil {
		cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, studentID)
	}
}

// ===== SHARED HELPERS =====

// buildStudentResponse flattens the user relation and attaches the computed
// tag set.
func buildStudentResponse(student *models.Student) *StudentResponse {
	return &StudentResponse{
		Student:         student,
		FullName:        student.User.FullName,
		Email:           student.User.Email,
		Phone:           student.User.Phone,
		ProgressPercent: student.ProgressPercent(),
		ComputedTags:    computeTags(student, time.Now()),
	}
}

func buildInstructorResponse(instructor *models.Instructor) *InstructorResponse {
	return &InstructorResponse{
		Instructor: instructor,
		FullName:   instructor.User.FullName,
		Email:      instructor.User.Email,
		Phone:      instructor.User.Phone,
	}
}

// computeTags derives the automatic pipeline tags and merges the manual ones.
func computeTags(student *models.Student, now time.Time) []string {
	var tags []string

	if student.RemainingDebt > 0 {
		tags = append(tags, TagDebtor)
	}
	if student.NextPaymentDate != nil {
		due := *student.NextPaymentDate
		if !due.Before(now) && due.Before(now.Add(7*24*time.Hour)) {
			tags = append(tags, TagPaymentDueSoon)
		}
	}
	if student.ExamDate != nil {
		exam := *student.ExamDate
		if !exam.Before(now) && exam.Before(now.Add(14*24*time.Hour)) {
			tags = append(tags, TagExamSoon)
		}
	}
	if student.ProgressPercent() >= 80 {
		tags = append(tags, TagGoodProgress)
	}

	return append(tags, student.ManualTags()...)
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
