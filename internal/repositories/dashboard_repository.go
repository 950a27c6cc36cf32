package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository interface for CRM dashboard aggregation queries. All
// queries are tenant-scoped.
type DashboardRepository interface {
	// Overview counts
	GetTotalStudents(ctx context.Context, tx *gorm.DB, schoolID uint) (int64, error)
	GetTotalInstructors(ctx context.Context, tx *gorm.DB, schoolID uint) (int64, error)
	GetActiveStudents(ctx context.Context, tx *gorm.DB, schoolID uint, days int) (int64, error)
	GetUpcomingLessons(ctx context.Context, tx *gorm.DB, schoolID uint, days int) (int64, error)

	// Reminder feeds for the dashboard sidebars
	GetPaymentsDueSoon(ctx context.Context, tx *gorm.DB, schoolID uint, days int) ([]ReminderData, error)
	GetExamsSoon(ctx context.Context, tx *gorm.DB, schoolID uint, days int) ([]ReminderData, error)

	// Recent activity feed
	GetRecentActivities(ctx context.Context, tx *gorm.DB, schoolID uint, limit int) ([]RecentActivityData, error)
}

// Data structures for dashboard responses

type ReminderData struct {
	StudentID   uint      `json:"student_id"`
	StudentName string    `json:"student_name"`
	DueDate     time.Time `json:"due_date"`
	Amount      *float64  `json:"amount,omitempty"`
}

type RecentActivityData struct {
	StudentID   uint      `json:"student_id"`
	StudentName string    `json:"student_name"`
	Action      string    `json:"action"`
	CreatedAt   time.Time `json:"created_at"`
}
