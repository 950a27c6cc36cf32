package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

// ===== REQUEST DTOs (typed in the validator package) =====

type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type LoginTCRequest = validator.LoginTCRequest

type CreateStudentRequest = validator.StudentCreateRequest
type UpdateStudentRequest = validator.StudentUpdateRequest
type UpdateStageRequest = validator.StageUpdateRequest
type TagRequest = validator.TagRequest

type CreateInstructorRequest = validator.InstructorCreateRequest
type UpdateInstructorRequest = validator.InstructorUpdateRequest

type BookLessonRequest = validator.BookLessonRequest

type CreatePaymentRequest = validator.PaymentCreateRequest
type UpdatePaymentRequest = validator.PaymentUpdateRequest
type ExamResultRequest = validator.ExamResultRequest

type UpdateProgressRequest = validator.ProgressUpdateRequest

type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateContentRequest = validator.ContentCreateRequest
type UpdateContentRequest = validator.ContentUpdateRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type QuizQuestionRequest = validator.QuizQuestionRequest
type QuizOptionRequest = validator.QuizOptionRequest

type CreateNotificationRequest = validator.NotificationCreateRequest
type UpdateNotificationRequest = validator.NotificationUpdateRequest
type TemplateRequest = validator.TemplateRequest
type RuleRequest = validator.RuleRequest

// ===== AUTH DTOs =====

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ===== STUDENT DTOs =====

type StudentResponse struct {
	*models.Student
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ProgressPercent float64  `json:"progress_percent"`
	ComputedTags    []string `json:"computed_tags"`
}

type StudentListResponse struct {
	Students []*StudentResponse `json:"students"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

type InstructorResponse struct {
	*models.Instructor
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// ===== LIFECYCLE / DASHBOARD DTOs =====

type OverviewResponse struct {
	TotalStudents    int64                          `json:"total_students"`
	TotalInstructors int64                          `json:"total_instructors"`
	ActiveStudents   int64                          `json:"active_students"`
	UpcomingLessons  int64                          `json:"upcoming_lessons"`
	StageCounts      map[models.StudentStage]int64  `json:"stage_counts"`
	Revenue          *repositories.RevenueSummary   `json:"revenue"`
	PaymentsDueSoon  []repositories.ReminderData    `json:"payments_due_soon"`
	ExamsSoon        []repositories.ReminderData    `json:"exams_soon"`
	RecentActivities []RecentActivityResponse       `json:"recent_activities"`
}

type RecentActivityResponse struct {
	StudentID   uint   `json:"student_id"`
	StudentName string `json:"student_name"`
	Action      string `json:"action"`
	TimeAgo     string `json:"time_ago"`
}

type PipelineFilters struct {
	Stage   *models.StudentStage `json:"stage"`
	Search  string               `json:"search"`
	HasDebt *bool                `json:"has_debt"`
	Page    int                  `json:"page"`
	Size    int                  `json:"size"`
}

type PipelineResponse struct {
	Students []*StudentResponse `json:"students"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

// ===== PROGRESS DTOs =====

type ProgressSummaryResponse struct {
	StudentID uint `json:"student_id"`
	CourseID  uint `json:"course_id"`
	repositories.ProgressSummary
	OverallPercent float64 `json:"overall_percent"`
}

// ===== SCHEDULE DTOs =====

type ScheduleResponse struct {
	*models.Schedule
	StudentName    string `json:"student_name,omitempty"`
	InstructorName string `json:"instructor_name,omitempty"`
}

type ScheduleListResponse struct {
	Schedules []*ScheduleResponse `json:"schedules"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

type AvailableSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// ===== BILLING / EXAM DTOs =====

type PaymentResponse struct {
	*models.Payment
	StudentRemainingDebt float64 `json:"student_remaining_debt"`
}

type PaymentListResponse struct {
	Payments []*models.Payment `json:"payments"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

// ===== CATALOG DTOs =====

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

type QuizListResponse struct {
	Quizzes []*models.Quiz `json:"quizzes"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Size    int            `json:"size"`
}

// ===== NOTIFICATION DTOs =====

type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
}

type NotificationAnalyticsResponse struct {
	*repositories.NotificationAnalytics
	Notifications []*models.Notification `json:"notifications"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	LoginTC(ctx context.Context, req *LoginTCRequest) (*AuthResponse, error)
}

type StudentService interface {
	Create(ctx context.Context, schoolID uint, req *CreateStudentRequest) (*StudentResponse, error)
	GetByID(ctx context.Context, schoolID, id uint) (*StudentResponse, error)
	Update(ctx context.Context, schoolID, id uint, req *UpdateStudentRequest) (*StudentResponse, error)
	Delete(ctx context.Context, schoolID, id uint) error
	List(ctx context.Context, schoolID uint, filters PipelineFilters) (*StudentListResponse, error)

	CreateInstructor(ctx context.Context, schoolID uint, req *CreateInstructorRequest) (*InstructorResponse, error)
	UpdateInstructor(ctx context.Context, schoolID, id uint, req *UpdateInstructorRequest) (*InstructorResponse, error)
	ListInstructors(ctx context.Context, schoolID uint, activeOnly bool) ([]*InstructorResponse, error)
}

// LifecycleService aggregates the CRM pipeline view.
type LifecycleService interface {
	GetOverview(ctx context.Context, schoolID uint) (*OverviewResponse, error)
	GetPipeline(ctx context.Context, schoolID uint, filters PipelineFilters) (*PipelineResponse, error)
	UpdateStage(ctx context.Context, schoolID, studentID uint, stage models.StudentStage, changedBy uint) error
	AddTag(ctx context.Context, schoolID, studentID uint, tag string) error
	RemoveTag(ctx context.Context, schoolID, studentID uint, tag string) error
}

type ProgressService interface {
	GetSummary(ctx context.Context, schoolID, studentID, courseID uint) (*ProgressSummaryResponse, error)
	UpdateProgress(ctx context.Context, schoolID, studentID uint, req *UpdateProgressRequest) (*models.StudentProgress, error)
	CompleteContent(ctx context.Context, schoolID, studentID, contentID uint) (*models.StudentProgress, error)
	GetDailyRollups(ctx context.Context, schoolID, studentID uint, from, to time.Time) ([]*models.ProgressDailyRollup, error)
}

type ScheduleService interface {
	BookLesson(ctx context.Context, schoolID uint, req *BookLessonRequest) (*ScheduleResponse, error)
	CancelSchedule(ctx context.Context, schoolID, scheduleID uint) error
	CompleteLesson(ctx context.Context, schoolID, scheduleID uint) error
	GetAvailableSlots(ctx context.Context, schoolID, instructorID uint, date time.Time) ([]AvailableSlot, error)
	GetMySchedules(ctx context.Context, schoolID, studentID uint, page, size int) (*ScheduleListResponse, error)
	List(ctx context.Context, schoolID uint, filters repositories.ScheduleFilters, page, size int) (*ScheduleListResponse, error)
}

// TrackingService covers the roster view plus billing and exam mutations.
type TrackingService interface {
	RecordPayment(ctx context.Context, schoolID uint, req *CreatePaymentRequest) (*PaymentResponse, error)
	UpdatePayment(ctx context.Context, schoolID, paymentID uint, req *UpdatePaymentRequest) (*PaymentResponse, error)
	ListPayments(ctx context.Context, schoolID uint, filters repositories.PaymentFilters, page, size int) (*PaymentListResponse, error)

	RecordExamResult(ctx context.Context, schoolID uint, req *ExamResultRequest) (*models.ExamResult, error)
	GetExamResults(ctx context.Context, schoolID, studentID uint) ([]*models.ExamResult, error)

	UploadPhoto(ctx context.Context, schoolID, studentID uint, file *multipart.FileHeader) (string, error)
}

type CourseService interface {
	Create(ctx context.Context, schoolID uint, req *CreateCourseRequest) (*models.Course, error)
	GetByID(ctx context.Context, schoolID, id uint) (*models.Course, error)
	Update(ctx context.Context, schoolID, id uint, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, schoolID, id uint) error
	List(ctx context.Context, schoolID uint, filters repositories.CourseFilters, page, size int) (*CourseListResponse, error)

	AddContent(ctx context.Context, schoolID, courseID uint, req *CreateContentRequest) (*models.CourseContent, error)
	UpdateContent(ctx context.Context, schoolID, contentID uint, req *UpdateContentRequest) (*models.CourseContent, error)
	DeleteContent(ctx context.Context, schoolID, contentID uint) error
	GetContents(ctx context.Context, schoolID, courseID uint) ([]*models.CourseContent, error)
}

type QuizService interface {
	Create(ctx context.Context, schoolID uint, req *CreateQuizRequest) (*models.Quiz, error)
	GetByID(ctx context.Context, schoolID, id uint) (*models.Quiz, error)
	Update(ctx context.Context, schoolID, id uint, req *UpdateQuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, schoolID, id uint) error
	List(ctx context.Context, schoolID uint, page, size int) (*QuizListResponse, error)

	AddQuestion(ctx context.Context, schoolID, quizID uint, req *QuizQuestionRequest) (*models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, schoolID, quizID, questionID uint, req *QuizQuestionRequest) (*models.QuizQuestion, error)
	DeleteQuestion(ctx context.Context, schoolID, quizID, questionID uint) error
}

type NotificationService interface {
	Create(ctx context.Context, schoolID uint, req *CreateNotificationRequest) (*models.Notification, error)
	GetByID(ctx context.Context, schoolID, id uint) (*models.Notification, error)
	Update(ctx context.Context, schoolID, id uint, req *UpdateNotificationRequest) (*models.Notification, error)
	Delete(ctx context.Context, schoolID, id uint) error
	List(ctx context.Context, schoolID uint, filters repositories.NotificationFilters, page, size int) (*NotificationListResponse, error)

	Send(ctx context.Context, schoolID, id uint) (*models.Notification, error)
	Resend(ctx context.Context, schoolID, id uint) (*models.Notification, error)
	Cancel(ctx context.Context, schoolID, id uint) error
	MarkRead(ctx context.Context, schoolID, id uint) error
	MarkClicked(ctx context.Context, schoolID, id uint) error
	GetAnalytics(ctx context.Context, schoolID uint) (*NotificationAnalyticsResponse, error)

	CreateTemplate(ctx context.Context, schoolID uint, req *TemplateRequest) (*models.NotificationTemplate, error)
	UpdateTemplate(ctx context.Context, schoolID, id uint, req *TemplateRequest) (*models.NotificationTemplate, error)
	DeleteTemplate(ctx context.Context, schoolID, id uint) error
	ListTemplates(ctx context.Context, schoolID uint) ([]*models.NotificationTemplate, error)

	CreateRule(ctx context.Context, schoolID uint, req *RuleRequest) (*models.NotificationRule, error)
	UpdateRule(ctx context.Context, schoolID, id uint, req *RuleRequest) (*models.NotificationRule, error)
	DeleteRule(ctx context.Context, schoolID, id uint) error
	ListRules(ctx context.Context, schoolID uint) ([]*models.NotificationRule, error)
}

// ExportService produces XLSX exports of the tenant's roster and ledger.
type ExportService interface {
	ExportStudents(ctx context.Context, schoolID uint) ([]byte, string, error)
	ExportPayments(ctx context.Context, schoolID uint) ([]byte, string, error)
}

// ServiceManager provides access to all services.
type ServiceManager interface {
	Auth() AuthService
	Student() StudentService
	Lifecycle() LifecycleService
	Progress() ProgressService
	Schedule() ScheduleService
	Tracking() TrackingService
	Course() CourseService
	Quiz() QuizService
	Notification() NotificationService
	Export() ExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
