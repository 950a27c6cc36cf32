package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationStatus string

const (
	NotificationDraft     NotificationStatus = "Draft"
	NotificationScheduled NotificationStatus = "Scheduled"
	NotificationSent      NotificationStatus = "Sent"
	NotificationCancelled NotificationStatus = "Cancelled"
)

type ScheduleKind string

const (
	ScheduleImmediate ScheduleKind = "immediate"
	ScheduleDelayed   ScheduleKind = "scheduled"
	ScheduleRecurring ScheduleKind = "recurring"
)

type RecipientType string

const (
	RecipientAll         RecipientType = "all"
	RecipientStudents    RecipientType = "students"
	RecipientInstructors RecipientType = "instructors"
	RecipientStage       RecipientType = "stage"
	RecipientStudent     RecipientType = "student"
)

// Notification is tenant-scoped. Delivery transport is external; this record
// tracks targeting, scheduling metadata and engagement counters. Rates are
// derived: counter / total recipients, 0 when total recipients is 0.
type Notification struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`

	Title   string `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Message string `json:"message" gorm:"not null;type:text" validate:"required,min=1,max=2000"`

	RecipientType RecipientType  `json:"recipient_type" gorm:"not null;size:20" validate:"required,oneof=all students instructors stage student"`
	Targeting     datatypes.JSON `json:"targeting,omitempty"` // stage name or student id depending on recipient type

	ScheduleKind ScheduleKind       `json:"schedule_kind" gorm:"not null;size:20;default:immediate" validate:"omitempty,oneof=immediate scheduled recurring"`
	ScheduledAt  *time.Time         `json:"scheduled_at"`
	Status       NotificationStatus `json:"status" gorm:"not null;size:20;default:Draft;index" validate:"omitempty,oneof=Draft Scheduled Sent Cancelled"`

	TotalRecipients int `json:"total_recipients" gorm:"not null;default:0"`
	SentCount       int `json:"sent_count" gorm:"not null;default:0"`
	OpenedCount     int `json:"opened_count" gorm:"not null;default:0"`
	ClickedCount    int `json:"clicked_count" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed, not stored
	OpenRate  float64 `json:"open_rate" gorm:"-"`
	ClickRate float64 `json:"click_rate" gorm:"-"`
}

// EngagementRate divides count by total, returning 0 for an empty audience.
func EngagementRate(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// ComputeRates fills the derived rate fields.
func (n *Notification) ComputeRates() {
	n.OpenRate = EngagementRate(n.OpenedCount, n.TotalRecipients)
	n.ClickRate = EngagementRate(n.ClickedCount, n.TotalRecipients)
}

type NotificationTemplate struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`

	Name            string         `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	TitleTemplate   string         `json:"title_template" gorm:"not null;size:200" validate:"required,max=200"`
	MessageTemplate string         `json:"message_template" gorm:"not null;type:text" validate:"required,max=2000"`
	Variables       datatypes.JSON `json:"variables,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RuleTrigger string

const (
	TriggerPaymentDue     RuleTrigger = "payment_due"
	TriggerExamSoon       RuleTrigger = "exam_soon"
	TriggerLessonReminder RuleTrigger = "lesson_reminder"
)

type NotificationRule struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`

	Trigger    RuleTrigger `json:"trigger" gorm:"not null;size:30" validate:"required,oneof=payment_due exam_soon lesson_reminder"`
	DaysBefore int         `json:"days_before" gorm:"not null;default:1" validate:"min=0,max=60"`
	TemplateID uint        `json:"template_id" gorm:"not null" validate:"required"`
	Enabled    bool        `json:"enabled" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (NotificationTemplate) TableName() string {
	return "notification_templates"
}

func (NotificationRule) TableName() string {
	return "notification_rules"
}
