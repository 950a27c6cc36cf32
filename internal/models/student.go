package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type StudentStage string

const (
	StageRegistered StudentStage = "Registered"
	StageTheory     StudentStage = "Theory"
	StagePractice   StudentStage = "Practice"
	StageExam       StudentStage = "Exam"
	StageCompleted  StudentStage = "Completed"
	StageFailed     StudentStage = "Failed"
)

// Stages lists the pipeline buckets in progression order. Dashboard counts
// are reported across exactly this set.
var Stages = []StudentStage{
	StageRegistered,
	StageTheory,
	StagePractice,
	StageExam,
	StageCompleted,
	StageFailed,
}

type Student struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex"`

	Stage StudentStage `json:"stage" gorm:"not null;size:20;default:Registered;index" validate:"omitempty,oneof=Registered Theory Practice Exam Completed Failed"`

	// Billing. RemainingDebt is derived (TotalFee - PaidAmount) and recomputed
	// on every payment mutation; it is stored for cheap roster queries.
	TotalFee        float64    `json:"total_fee" gorm:"not null;default:0" validate:"min=0"`
	PaidAmount      float64    `json:"paid_amount" gorm:"not null;default:0" validate:"min=0"`
	RemainingDebt   float64    `json:"remaining_debt" gorm:"not null;default:0"`
	NextPaymentDate *time.Time `json:"next_payment_date"`
	PaymentStatus   string     `json:"payment_status" gorm:"size:30"`

	ExamDate   *time.Time `json:"exam_date"`
	ExamStatus string     `json:"exam_status" gorm:"size:30"`

	// Lesson counters maintained by the scheduling service.
	TheoryLessonsCompleted   int `json:"theory_lessons_completed" gorm:"default:0"`
	TheoryLessonsTotal       int `json:"theory_lessons_total" gorm:"default:0"`
	PracticeLessonsCompleted int `json:"practice_lessons_completed" gorm:"default:0"`
	PracticeLessonsTotal     int `json:"practice_lessons_total" gorm:"default:0"`

	// Manual free-text tags, comma-joined. Automatic pipeline tags are
	// computed on read and never persisted here.
	Tags string `json:"tags" gorm:"type:text"`

	PhotoPath      *string    `json:"photo_path" gorm:"size:500"`
	LastActivityAt *time.Time `json:"last_activity_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Student) TableName() string {
	return "students"
}

// ManualTags splits the comma-joined tag column, dropping empties.
func (s *Student) ManualTags() []string {
	if s.Tags == "" {
		return nil
	}
	parts := strings.Split(s.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// SetManualTags joins tags back into the stored comma-joined form.
func (s *Student) SetManualTags(tags []string) {
	s.Tags = strings.Join(tags, ",")
}

// ProgressPercent averages theory and practice completion. Lesson types with
// a zero total are skipped rather than counted as 0%, so a student with only
// one component scheduled reports that component's ratio alone; when both
// totals are zero the result is 0, never NaN.
func (s *Student) ProgressPercent() float64 {
	var sum float64
	var n int
	if s.TheoryLessonsTotal > 0 {
		sum += float64(s.TheoryLessonsCompleted) / float64(s.TheoryLessonsTotal) * 100
		n++
	}
	if s.PracticeLessonsTotal > 0 {
		sum += float64(s.PracticeLessonsCompleted) / float64(s.PracticeLessonsTotal) * 100
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
