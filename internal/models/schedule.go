package models

import (
	"time"
)

type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "Scheduled"
	ScheduleCompleted ScheduleStatus = "Completed"
	ScheduleCancelled ScheduleStatus = "Cancelled"
	ScheduleNoShow    ScheduleStatus = "NoShow"
)

// Schedule links a student and an instructor for one lesson. Invariant: no
// two non-cancelled schedules for the same instructor or the same student may
// overlap in [ScheduledDate, ScheduledDate+Duration). The service check is
// backed by a btree_gist exclusion constraint created at migration.
type Schedule struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	SchoolID     uint `json:"school_id" gorm:"not null;index"`
	StudentID    uint `json:"student_id" gorm:"not null;index"`
	InstructorID uint `json:"instructor_id" gorm:"not null;index"`

	ScheduledDate   time.Time      `json:"scheduled_date" gorm:"not null;index" validate:"required"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null" validate:"required,min=30,max=240"`
	LessonType      LessonType     `json:"lesson_type" gorm:"not null;size:10" validate:"required,oneof=theory practice"`
	Status          ScheduleStatus `json:"status" gorm:"not null;size:20;default:Scheduled;index" validate:"omitempty,oneof=Scheduled Completed Cancelled NoShow"`
	Notes           *string        `json:"notes" gorm:"type:text" validate:"omitempty,max=500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Schedule) TableName() string {
	return "schedules"
}

// End returns the exclusive end of the lesson interval.
func (s *Schedule) End() time.Time {
	return s.ScheduledDate.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the half-open interval [start, end) intersects
// this schedule's interval.
func (s *Schedule) Overlaps(start, end time.Time) bool {
	return start.Before(s.End()) && s.ScheduledDate.Before(end)
}
