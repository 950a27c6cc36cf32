package models

import (
	"time"
)

// StudentProgress tracks one student's completion of one course content.
// CompletedAt is write-once: a record reaches completed exactly once and the
// timestamp never regresses on later updates. Attempts increments on every
// update call.
type StudentProgress struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SchoolID  uint `json:"school_id" gorm:"not null;index"`
	StudentID uint `json:"student_id" gorm:"not null;index:idx_progress_student_content,unique"`
	CourseID  uint `json:"course_id" gorm:"not null;index"`
	ContentID uint `json:"content_id" gorm:"not null;index:idx_progress_student_content,unique"`

	ProgressPercent  float64    `json:"progress_percent" gorm:"not null;default:0" validate:"min=0,max=100"`
	TimeSpentSeconds int        `json:"time_spent_seconds" gorm:"not null;default:0" validate:"min=0"`
	IsCompleted      bool       `json:"is_completed" gorm:"not null;default:false"`
	CompletedAt      *time.Time `json:"completed_at"`
	Attempts         int        `json:"attempts" gorm:"not null;default:0"`
	LastAccessedAt   *time.Time `json:"last_accessed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressDailyRollup aggregates a student's activity per calendar day.
// Upserted by progress updates, keyed by (student, date).
type ProgressDailyRollup struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SchoolID  uint      `json:"school_id" gorm:"not null;index"`
	StudentID uint      `json:"student_id" gorm:"not null;index:idx_rollup_student_day,unique"`
	Day       time.Time `json:"day" gorm:"not null;type:date;index:idx_rollup_student_day,unique"`

	LessonsCompleted int `json:"lessons_completed" gorm:"not null;default:0"`
	QuizzesCompleted int `json:"quizzes_completed" gorm:"not null;default:0"`
	TimeSpentSeconds int `json:"time_spent_seconds" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentProgress) TableName() string {
	return "student_progress"
}

func (ProgressDailyRollup) TableName() string {
	return "progress_daily_rollups"
}
