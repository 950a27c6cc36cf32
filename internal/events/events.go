package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "drivingschool-service"
	eventVersion = "1.0"
)

// Event types carried on the bus. Topic routing uses the prefix before the
// first dot.
const (
	EventStudentStageChanged = "student.stage_changed"
	EventScheduleBooked      = "schedule.booked"
	EventScheduleCancelled   = "schedule.cancelled"
	EventLessonCompleted     = "schedule.lesson_completed"
	EventPaymentRecorded     = "payment.recorded"
	EventExamResultRecorded  = "exam.result_recorded"
	EventNotificationSent    = "notification.sent"
	EventBulkNotification    = "notification.bulk"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh ID and the service identity filled
// in.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher abstracts the outbound event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// StageChangedEvent is emitted when a student moves through the pipeline.
type StageChangedEvent struct {
	SchoolID  uint   `json:"school_id"`
	StudentID uint   `json:"student_id"`
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	ChangedBy uint   `json:"changed_by"`
}

// ScheduleEvent is emitted for booking, cancellation and completion.
type ScheduleEvent struct {
	SchoolID      uint      `json:"school_id"`
	ScheduleID    uint      `json:"schedule_id"`
	StudentID     uint      `json:"student_id"`
	InstructorID  uint      `json:"instructor_id"`
	LessonType    string    `json:"lesson_type"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// PaymentRecordedEvent is emitted after a payment mutation has been committed
// and the student's billing figures recomputed.
type PaymentRecordedEvent struct {
	SchoolID      uint    `json:"school_id"`
	StudentID     uint    `json:"student_id"`
	PaymentID     uint    `json:"payment_id"`
	Amount        float64 `json:"amount"`
	RemainingDebt float64 `json:"remaining_debt"`
}

// ExamResultEvent is emitted when an exam result is recorded.
type ExamResultEvent struct {
	SchoolID  uint    `json:"school_id"`
	StudentID uint    `json:"student_id"`
	ExamType  string  `json:"exam_type"`
	Status    string  `json:"status"`
	Score     float64 `json:"score"`
}

// NotificationSentEvent is emitted when a campaign is dispatched.
type NotificationSentEvent struct {
	SchoolID        uint   `json:"school_id"`
	NotificationID  uint   `json:"notification_id"`
	RecipientType   string `json:"recipient_type"`
	TotalRecipients int    `json:"total_recipients"`
	Channel         string `json:"channel"`
}
