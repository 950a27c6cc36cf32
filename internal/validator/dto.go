package validator

import (
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
)

// ===== AUTH =====

type RegisterRequest struct {
	SchoolName string `json:"school_name" validate:"required,min=1,max=200"`
	FullName   string `json:"full_name" validate:"required,min=1,max=100"`
	Email      string `json:"email" validate:"required,email"`
	TCNumber   string `json:"tc_number" validate:"omitempty,tc_number"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginTCRequest struct {
	TCNumber string `json:"tc_number" validate:"required,tc_number"`
	Password string `json:"password" validate:"required"`
}

// ===== STUDENTS =====

type StudentCreateRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	TCNumber string `json:"tc_number" validate:"omitempty,tc_number"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`

	TotalFee             float64 `json:"total_fee" validate:"min=0"`
	PaidAmount           float64 `json:"paid_amount" validate:"min=0"`
	TheoryLessonsTotal   int     `json:"theory_lessons_total" validate:"min=0"`
	PracticeLessonsTotal int     `json:"practice_lessons_total" validate:"min=0"`
}

type StudentUpdateRequest struct {
	Phone                *string    `json:"phone" validate:"omitempty,max=20"`
	TotalFee             *float64   `json:"total_fee" validate:"omitempty,min=0"`
	NextPaymentDate      *time.Time `json:"next_payment_date"`
	ExamDate             *time.Time `json:"exam_date"`
	ExamStatus           *string    `json:"exam_status" validate:"omitempty,max=30"`
	TheoryLessonsTotal   *int       `json:"theory_lessons_total" validate:"omitempty,min=0"`
	PracticeLessonsTotal *int       `json:"practice_lessons_total" validate:"omitempty,min=0"`
}

type StageUpdateRequest struct {
	Stage models.StudentStage `json:"stage" validate:"required,oneof=Registered Theory Practice Exam Completed Failed"`
}

type TagRequest struct {
	Tag string `json:"tag" validate:"required,min=1,max=50"`
}

// ===== INSTRUCTORS =====

type InstructorCreateRequest struct {
	FullName     string `json:"full_name" validate:"required,min=1,max=100"`
	Email        string `json:"email" validate:"required,email"`
	TCNumber     string `json:"tc_number" validate:"omitempty,tc_number"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	LicenseClass string `json:"license_class" validate:"omitempty,max=10"`
}

type InstructorUpdateRequest struct {
	LicenseClass *string `json:"license_class" validate:"omitempty,max=10"`
	IsActive     *bool   `json:"is_active"`
}

// ===== SCHEDULING =====

type BookLessonRequest struct {
	StudentID       uint              `json:"student_id" validate:"required"`
	InstructorID    uint              `json:"instructor_id" validate:"required"`
	ScheduledDate   time.Time         `json:"scheduled_date" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,lesson_duration"`
	LessonType      models.LessonType `json:"lesson_type" validate:"required,oneof=theory practice"`
	Notes           *string           `json:"notes" validate:"omitempty,max=500"`
}

// ===== BILLING =====

type PaymentCreateRequest struct {
	StudentID   uint                 `json:"student_id" validate:"required"`
	Amount      float64              `json:"amount" validate:"required,payment_amount"`
	Type        models.PaymentType   `json:"type" validate:"required,oneof=enrollment installment exam_fee other"`
	Method      models.PaymentMethod `json:"method" validate:"required,oneof=cash card bank_transfer"`
	PaymentDate *time.Time           `json:"payment_date"`
	DueDate     *time.Time           `json:"due_date"`
	Notes       *string              `json:"notes" validate:"omitempty,max=500"`
}

type PaymentUpdateRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required,oneof=Pending Completed Overdue Cancelled"`
	Notes  *string              `json:"notes" validate:"omitempty,max=500"`
}

// ===== EXAMS =====

type ExamResultRequest struct {
	StudentID     uint              `json:"student_id" validate:"required"`
	Type          models.ExamType   `json:"type" validate:"required,oneof=theory practice"`
	Status        models.ExamStatus `json:"status" validate:"required,oneof=Scheduled Passed Failed Missed"`
	ScheduledDate *time.Time        `json:"scheduled_date"`
	CompletedDate *time.Time        `json:"completed_date"`
	Score         *float64          `json:"score" validate:"omitempty,exam_score"`
}

// ===== PROGRESS =====

type ProgressUpdateRequest struct {
	ContentID        uint    `json:"content_id" validate:"required"`
	ProgressPercent  float64 `json:"progress_percent" validate:"min=0,max=100"`
	TimeSpentSeconds int     `json:"time_spent_seconds" validate:"min=0"`
}

// ===== CATALOG =====

type CourseCreateRequest struct {
	Title       string            `json:"title" validate:"required,min=1,max=200"`
	Description *string           `json:"description" validate:"omitempty,max=1000"`
	Type        models.LessonType `json:"type" validate:"required,oneof=theory practice"`
}

type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type ContentCreateRequest struct {
	Title           string             `json:"title" validate:"required,min=1,max=200"`
	Kind            models.ContentKind `json:"kind" validate:"required,oneof=video document quiz"`
	Body            *string            `json:"body"`
	URL             *string            `json:"url" validate:"omitempty,url"`
	DurationMinutes int                `json:"duration_minutes" validate:"min=0,max=600"`
	SortOrder       int                `json:"sort_order" validate:"min=0"`
	QuizID          *uint              `json:"quiz_id"`
}

type ContentUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Body            *string `json:"body"`
	URL             *string `json:"url" validate:"omitempty,url"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=0,max=600"`
	SortOrder       *int    `json:"sort_order" validate:"omitempty,min=0"`
}

type QuizCreateRequest struct {
	CourseID     *uint   `json:"course_id"`
	Title        string  `json:"title" validate:"required,min=1,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	PassingScore int     `json:"passing_score" validate:"min=0,max=100"`
	TimeLimit    int     `json:"time_limit" validate:"min=0,max=600"`
}

type QuizUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	PassingScore *int    `json:"passing_score" validate:"omitempty,min=0,max=100"`
	TimeLimit    *int    `json:"time_limit" validate:"omitempty,min=0,max=600"`
}

type QuizQuestionRequest struct {
	Text      string              `json:"text" validate:"required,min=1,max=2000"`
	Points    int                 `json:"points" validate:"min=1,max=100"`
	SortOrder int                 `json:"sort_order" validate:"min=0"`
	Options   []QuizOptionRequest `json:"options" validate:"omitempty,dive"`
}

type QuizOptionRequest struct {
	Text      string `json:"text" validate:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
	SortOrder int    `json:"sort_order" validate:"min=0"`
}

// ===== NOTIFICATIONS =====

type NotificationCreateRequest struct {
	Title         string               `json:"title" validate:"required,min=1,max=200"`
	Message       string               `json:"message" validate:"required,min=1,max=2000"`
	RecipientType models.RecipientType `json:"recipient_type" validate:"required"`
	ScheduleKind  models.ScheduleKind  `json:"schedule_kind" validate:"omitempty,oneof=immediate scheduled recurring"`
	ScheduledAt   *time.Time           `json:"scheduled_at"`
}

type NotificationUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Message     *string    `json:"message" validate:"omitempty,min=1,max=2000"`
	ScheduledAt *time.Time `json:"scheduled_at" validate:"omitempty,future_date"`
}

type TemplateRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	TitleTemplate   string `json:"title_template" validate:"required,max=200"`
	MessageTemplate string `json:"message_template" validate:"required,max=2000"`
	Variables       string `json:"variables" validate:"omitempty,json"`
}

type RuleRequest struct {
	Trigger    models.RuleTrigger `json:"trigger" validate:"required,oneof=payment_due exam_soon lesson_reminder"`
	DaysBefore int                `json:"days_before" validate:"min=0,max=60"`
	TemplateID uint               `json:"template_id" validate:"required"`
	Enabled    *bool              `json:"enabled"`
}
