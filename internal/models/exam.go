package models

import (
	"time"
)

type ExamType string

const (
	ExamTheory   ExamType = "theory"
	ExamPractice ExamType = "practice"
)

type ExamStatus string

const (
	ExamScheduled ExamStatus = "Scheduled"
	ExamPassed    ExamStatus = "Passed"
	ExamFailed    ExamStatus = "Failed"
	ExamMissed    ExamStatus = "Missed"
)

// ExamResult is created on booking and updated on completion. Certificate
// fields are stamped on the final practice pass.
type ExamResult struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SchoolID  uint `json:"school_id" gorm:"not null;index"`
	StudentID uint `json:"student_id" gorm:"not null;index"`

	Type   ExamType   `json:"type" gorm:"not null;size:10" validate:"required,oneof=theory practice"`
	Status ExamStatus `json:"status" gorm:"not null;size:20;default:Scheduled" validate:"omitempty,oneof=Scheduled Passed Failed Missed"`

	ScheduledDate *time.Time `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date"`
	Score         *float64   `json:"score" validate:"omitempty,min=0,max=100"`

	CertificateNumber *string    `json:"certificate_number" gorm:"size:36"`
	CertificateDate   *time.Time `json:"certificate_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}
