package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/DSM-2025/drivingschool-service/internal/models"
)

// BusinessValidator handles domain rule validation beyond struct tags.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// stageTransitions defines the allowed pipeline moves. Failed students may
// re-enter at Practice or go straight back to Exam after remedial lessons.
var stageTransitions = map[models.StudentStage][]models.StudentStage{
	models.StageRegistered: {models.StageTheory},
	models.StageTheory:     {models.StagePractice, models.StageFailed},
	models.StagePractice:   {models.StageExam, models.StageFailed},
	models.StageExam:       {models.StageCompleted, models.StageFailed},
	models.StageFailed:     {models.StagePractice, models.StageExam},
	models.StageCompleted:  {},
}

// ValidateStageTransition validates a student pipeline move.
func (bv *BusinessValidator) ValidateStageTransition(current, next models.StudentStage) ValidationErrors {
	if current == next {
		return nil
	}

	for _, allowed := range stageTransitions[current] {
		if next == allowed {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "stage",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "stage_transition",
	}}
}

// ValidateStudentCreate validates student creation business rules.
func (bv *BusinessValidator) ValidateStudentCreate(req *StudentCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.PaidAmount > req.TotalFee {
		errors = append(errors, ValidationError{
			Field:   "paid_amount",
			Message: "cannot exceed total fee",
			Value:   req.PaidAmount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateBooking validates a lesson booking request before the conflict
// check runs.
func (bv *BusinessValidator) ValidateBooking(req *BookLessonRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if !req.ScheduledDate.IsZero() && req.ScheduledDate.Before(time.Now()) {
		errors = append(errors, ValidationError{
			Field:   "scheduled_date",
			Message: "must be in the future",
			Value:   req.ScheduledDate,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidatePaymentCreate validates payment recording business rules.
func (bv *BusinessValidator) ValidatePaymentCreate(req *PaymentCreateRequest, student *models.Student) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if student != nil && req.Amount > student.RemainingDebt && student.RemainingDebt >= 0 && req.Amount-student.RemainingDebt > 0.01 {
		errors = append(errors, ValidationError{
			Field:   "amount",
			Message: "exceeds the student's remaining debt",
			Value:   req.Amount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateNotificationCreate validates notification campaign rules.
func (bv *BusinessValidator) ValidateNotificationCreate(req *NotificationCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.ScheduleKind == models.ScheduleDelayed || req.ScheduleKind == models.ScheduleRecurring {
		if req.ScheduledAt == nil {
			errors = append(errors, ValidationError{
				Field:   "scheduled_at",
				Message: "is required for scheduled notifications",
				Rule:    "business_logic",
			})
		} else if req.ScheduledAt.Before(time.Now()) {
			errors = append(errors, ValidationError{
				Field:   "scheduled_at",
				Message: "must be in the future",
				Value:   req.ScheduledAt,
				Rule:    "business_logic",
			})
		}
	}

	if !validRecipientType(req.RecipientType) {
		errors = append(errors, ValidationError{
			Field:   "recipient_type",
			Message: "must be all, students, instructors, stage:<stage> or student:<id>",
			Value:   req.RecipientType,
			Rule:    "recipient_type",
		})
	}

	return errors
}

func validRecipientType(rt models.RecipientType) bool {
	switch rt {
	case models.RecipientAll, models.RecipientStudents, models.RecipientInstructors:
		return true
	}
	s := string(rt)
	if stage, ok := strings.CutPrefix(s, "stage:"); ok {
		for _, st := range models.Stages {
			if string(st) == stage {
				return true
			}
		}
		return false
	}
	if id, ok := strings.CutPrefix(s, "student:"); ok {
		return id != "" && strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }) == -1
	}
	return false
}

// registerBusinessRules registers custom field validators.
func (bv *BusinessValidator) registerBusinessRules() {
	// Turkish national identity number: 11 digits, first digit nonzero.
	bv.validate.RegisterValidation("tc_number", func(fl validator.FieldLevel) bool {
		tc := fl.Field().String()
		if tc == "" {
			return true
		}
		if len(tc) != 11 || tc[0] == '0' {
			return false
		}
		for _, r := range tc {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	// Lesson duration: 30-240 minutes in 30-minute steps.
	bv.validate.RegisterValidation("lesson_duration", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 30 && d <= 240 && d%30 == 0
	})

	// Payment amount: positive, capped against fat-finger entries.
	bv.validate.RegisterValidation("payment_amount", func(fl validator.FieldLevel) bool {
		amount := fl.Field().Float()
		return amount > 0 && amount <= 1_000_000
	})

	// Optional future date, accepts time.Time and *time.Time.
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true
		}
		var t time.Time
		if field.Kind() == reflect.Ptr {
			t = field.Elem().Interface().(time.Time)
		} else {
			t = field.Interface().(time.Time)
		}
		return t.After(time.Now())
	})

	// Exam score 0-100.
	bv.validate.RegisterValidation("exam_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Float()
		return score >= 0 && score <= 100
	})
}
