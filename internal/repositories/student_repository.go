package repositories

import (
	"context"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"gorm.io/gorm"
)

// StudentRepository covers roster CRUD plus the counter updates the tracking
// and scheduling services perform. Every operation is tenant-scoped.
type StudentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Student, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, schoolID, userID uint) (*models.Student, error)
	Update(ctx context.Context, tx *gorm.DB, student *models.Student) error
	Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error // soft delete

	// Query operations
	List(ctx context.Context, tx *gorm.DB, schoolID uint, filters StudentFilters) ([]*models.Student, int64, error)
	CountByStage(ctx context.Context, tx *gorm.DB, schoolID uint) (StageCounts, error)

	// Field mutations
	UpdateStage(ctx context.Context, tx *gorm.DB, schoolID, id uint, stage models.StudentStage) error
	UpdateBilling(ctx context.Context, tx *gorm.DB, schoolID, id uint, paidAmount, remainingDebt float64, status string, nextPayment *time.Time) error
	IncrementLessonCounter(ctx context.Context, tx *gorm.DB, schoolID, id uint, lessonType models.LessonType) error
	TouchActivity(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
}

// PaymentRepository handles the payment ledger.
type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Payment, error)
	Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, filters PaymentFilters) ([]*models.Payment, int64, error)
	SumCompletedByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint) (float64, error)
	GetRevenueSummary(ctx context.Context, tx *gorm.DB, schoolID uint) (*RevenueSummary, error)
}

// ExamRepository handles exam bookings and results.
type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.ExamResult, error)
	Update(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error
	GetByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint) ([]*models.ExamResult, error)
	GetLatestByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, examType models.ExamType) (*models.ExamResult, error)
}
