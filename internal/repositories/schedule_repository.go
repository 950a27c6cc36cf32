package repositories

import (
	"context"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"gorm.io/gorm"
)

// ScheduleRepository handles lesson bookings. FindOverlapping is the conflict
// primitive: it returns non-cancelled schedules for the instructor OR the
// student intersecting [start, end).
type ScheduleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Schedule, error)
	Update(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, filters ScheduleFilters) ([]*models.Schedule, int64, error)

	FindOverlapping(ctx context.Context, tx *gorm.DB, schoolID, studentID, instructorID uint, start, end time.Time) ([]*models.Schedule, error)
	GetByInstructorAndDay(ctx context.Context, tx *gorm.DB, schoolID, instructorID uint, day time.Time) ([]*models.Schedule, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, filters ScheduleFilters) ([]*models.Schedule, int64, error)
}

// ProgressRepository handles per-content progress records and daily rollups.
type ProgressRepository interface {
	GetByStudentAndContent(ctx context.Context, tx *gorm.DB, schoolID, studentID, contentID uint) (*models.StudentProgress, error)
	Create(ctx context.Context, tx *gorm.DB, progress *models.StudentProgress) error
	Update(ctx context.Context, tx *gorm.DB, progress *models.StudentProgress) error
	GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, schoolID, studentID, courseID uint) ([]*models.StudentProgress, error)

	UpsertDailyRollup(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, day time.Time, lessonsDelta, quizzesDelta, secondsDelta int) error
	GetDailyRollups(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, from, to time.Time) ([]*models.ProgressDailyRollup, error)
}
