package repositories

import (
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type StudentFilters struct {
	Stage         *models.StudentStage `json:"stage"`
	Search        string               `json:"search"` // name or email substring
	HasDebt       *bool                `json:"has_debt"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
	SortBy        string               `json:"sort_by"`    // "created_at", "name", "remaining_debt"
	SortOrder     string               `json:"sort_order"` // "asc", "desc"
	ActivitySince *time.Time           `json:"activity_since"`
}

type PaymentFilters struct {
	StudentID *uint                 `json:"student_id"`
	Status    *models.PaymentStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type ScheduleFilters struct {
	StudentID    *uint                  `json:"student_id"`
	InstructorID *uint                  `json:"instructor_id"`
	Status       *models.ScheduleStatus `json:"status"`
	DateFrom     *time.Time             `json:"date_from"`
	DateTo       *time.Time             `json:"date_to"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

type NotificationFilters struct {
	Status *models.NotificationStatus `json:"status"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

type CourseFilters struct {
	Type   *models.LessonType `json:"type"`
	Search string             `json:"search"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// StageCounts maps every pipeline stage to its student count. Buckets with no
// students are present with a zero value.
type StageCounts map[models.StudentStage]int64

type RevenueSummary struct {
	TotalCollected   float64 `json:"total_collected"`
	TotalOutstanding float64 `json:"total_outstanding"`
	OverdueCount     int64   `json:"overdue_count"`
	PendingCount     int64   `json:"pending_count"`
}

type ProgressSummary struct {
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
	TotalQuizzes     int     `json:"total_quizzes"`
	CompletedQuizzes int     `json:"completed_quizzes"`
	// Mean of the recorded percent across attempted quiz contents.
	AverageQuizScore float64 `json:"average_quiz_score"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
}

type NotificationAnalytics struct {
	TotalNotifications int64   `json:"total_notifications"`
	TotalSent          int64   `json:"total_sent"`
	TotalOpened        int64   `json:"total_opened"`
	TotalClicked       int64   `json:"total_clicked"`
	AverageOpenRate    float64 `json:"average_open_rate"`
	AverageClickRate   float64 `json:"average_click_rate"`
}
