package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned at the service boundary. Handlers map these to
// HTTP status codes with errors.Is.
var (
	// Generic
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")

	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTCNumberTaken      = errors.New("tc number already registered")

	// People
	ErrStudentNotFound    = errors.New("student not found")
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSchoolNotFound     = errors.New("school not found")

	// Lifecycle
	ErrInvalidStageTransition = errors.New("invalid stage transition")

	// Scheduling
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrScheduleConflict      = errors.New("schedule conflicts with an existing booking")
	ErrCancellationTooLate   = errors.New("cancellation window has closed")
	ErrScheduleNotCancelable = errors.New("schedule is not in a cancelable state")

	// Billing and exams
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrExamResultNotFound = errors.New("exam result not found")

	// Catalog
	ErrCourseNotFound  = errors.New("course not found")
	ErrContentNotFound = errors.New("course content not found")
	ErrQuizNotFound    = errors.New("quiz not found")

	// Progress
	ErrProgressNotFound = errors.New("progress record not found")

	// Notifications
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTemplateNotFound     = errors.New("notification template not found")
	ErrRuleNotFound         = errors.New("notification rule not found")
	ErrNotificationNotDraft = errors.New("notification is not in a sendable state")
)

// NewValidationError wraps field-level detail under ErrValidationFailed so
// handlers can both match the sentinel and surface the detail.
func NewValidationError(detail error) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, detail.Error())
}
