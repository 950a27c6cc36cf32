package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/cache"
	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

const (
	workdayStartHour = 9
	workdayEndHour   = 18
	slotMinutes      = 60

	// Cancellations are rejected inside this window before the lesson start.
	cancellationCutoff = 24 * time.Hour
)

type scheduleService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
}

func NewScheduleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, eventPublisher events.EventPublisher) ScheduleService {
	return &scheduleService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		cacheManager:   cacheManager,
		eventPublisher: eventPublisher,
	}
}

// BookLesson creates a booking after checking for overlaps inside a
// transaction. The overlap query takes row locks, and the btree_gist
// exclusion constraint catches any race the application check misses.
func (s *scheduleService) BookLesson(ctx context.Context, schoolID uint, req *BookLessonRequest) (*ScheduleResponse, error) {
	s.logger.Info("Booking lesson",
		"school_id", schoolID,
		"student_id", req.StudentID,
		"instructor_id", req.InstructorID,
		"scheduled_date", req.ScheduledDate,
	)

	if errs := s.validator.GetBusinessValidator().ValidateBooking(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	if _, err := s.repo.Student().GetByID(ctx, nil, schoolID, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if _, err := s.repo.Instructor().GetByID(ctx, nil, schoolID, req.InstructorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		return nil, fmt.Errorf("failed to get instructor: %w", err)
	}

	start := req.ScheduledDate
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	var schedule *models.Schedule
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		overlapping, err := txRepo.Schedule().FindOverlapping(ctx, nil, schoolID, req.StudentID, req.InstructorID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check for overlaps: %w", err)
		}
		if len(overlapping) > 0 {
			return ErrScheduleConflict
		}

		schedule = &models.Schedule{
			SchoolID:        schoolID,
			StudentID:       req.StudentID,
			InstructorID:    req.InstructorID,
			ScheduledDate:   start,
			DurationMinutes: req.DurationMinutes,
			LessonType:      req.LessonType,
			Status:          models.ScheduleScheduled,
			Notes:           req.Notes,
		}
		if err := txRepo.Schedule().Create(ctx, nil, schedule); err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, schoolID)
	s.publish(ctx, events.NewEvent(events.EventScheduleBooked, events.ScheduleEvent{
		SchoolID:      schoolID,
		ScheduleID:    schedule.ID,
		StudentID:     schedule.StudentID,
		InstructorID:  schedule.InstructorID,
		LessonType:    string(schedule.LessonType),
		ScheduledDate: schedule.ScheduledDate,
	}))

	return &ScheduleResponse{Schedule: schedule}, nil
}

// CancelSchedule rejects cancellations inside the 24-hour window.
func (s *scheduleService) CancelSchedule(ctx context.Context, schoolID, scheduleID uint) error {
	s.logger.Info("Cancelling schedule", "school_id", schoolID, "schedule_id", scheduleID)

	schedule, err := s.repo.Schedule().GetByID(ctx, nil, schoolID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("failed to get schedule: %w", err)
	}

	if schedule.Status != models.ScheduleScheduled {
		return ErrScheduleNotCancelable
	}
	if time.Now().After(schedule.ScheduledDate.Add(-cancellationCutoff)) {
		return ErrCancellationTooLate
	}

	schedule.Status = models.ScheduleCancelled
	if err := s.repo.Schedule().Update(ctx, nil, schedule); err != nil {
		return fmt.Errorf("failed to cancel schedule: %w", err)
	}

	s.invalidate(ctx, schoolID)
	s.publish(ctx, events.NewEvent(events.EventScheduleCancelled, events.ScheduleEvent{
		SchoolID:      schoolID,
		ScheduleID:    schedule.ID,
		StudentID:     schedule.StudentID,
		InstructorID:  schedule.InstructorID,
		LessonType:    string(schedule.LessonType),
		ScheduledDate: schedule.ScheduledDate,
	}))

	return nil
}

// CompleteLesson marks the lesson done and bumps the student's completed
// counter for the lesson type.
func (s *scheduleService) CompleteLesson(ctx context.Context, schoolID, scheduleID uint) error {
	s.logger.Info("Completing lesson", "school_id", schoolID, "schedule_id", scheduleID)

	schedule, err := s.repo.Schedule().GetByID(ctx, nil, schoolID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("failed to get schedule: %w", err)
	}

	if schedule.Status == models.ScheduleCompleted {
		return nil
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		schedule.Status = models.ScheduleCompleted
		if err := txRepo.Schedule().Update(ctx, nil, schedule); err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		if err := txRepo.Student().IncrementLessonCounter(ctx, nil, schoolID, schedule.StudentID, schedule.LessonType); err != nil {
			return fmt.Errorf("failed to increment lesson counter: %w", err)
		}
		if err := txRepo.Student().TouchActivity(ctx, nil, schoolID, schedule.StudentID); err != nil {
			return fmt.Errorf("failed to touch activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, schoolID)
	if s.cacheManager != nil {
		cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, schedule.StudentID)
	}
	s.publish(ctx, events.NewEvent(events.EventLessonCompleted, events.ScheduleEvent{
		SchoolID:      schoolID,
		ScheduleID:    schedule.ID,
		StudentID:     schedule.StudentID,
		InstructorID:  schedule.InstructorID,
		LessonType:    string(schedule.LessonType),
		ScheduledDate: schedule.ScheduledDate,
	}))

	return nil
}

// GetAvailableSlots discretizes the 09:00-18:00 workday into hourly slots and
// marks those intersecting a non-cancelled booking as taken.
func (s *scheduleService) GetAvailableSlots(ctx context.Context, schoolID, instructorID uint, date time.Time) ([]AvailableSlot, error) {
	if _, err := s.repo.Instructor().GetByID(ctx, nil, schoolID, instructorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		return nil, fmt.Errorf("failed to get instructor: %w", err)
	}

	existing, err := s.repo.Schedule().GetByInstructorAndDay(ctx, nil, schoolID, instructorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day schedule: %w", err)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), workdayStartHour, 0, 0, 0, date.Location())
	slots := make([]AvailableSlot, 0, workdayEndHour-workdayStartHour)

	for hour := workdayStartHour; hour < workdayEndHour; hour++ {
		start := dayStart.Add(time.Duration(hour-workdayStartHour) * time.Hour)
		end := start.Add(slotMinutes * time.Minute)

		available := true
		for _, booked := range existing {
			if booked.Overlaps(start, end) {
				available = false
				break
			}
		}
		slots = append(slots, AvailableSlot{Start: start, End: end, Available: available})
	}

	return slots, nil
}

func (s *scheduleService) GetMySchedules(ctx context.Context, schoolID, studentID uint, page, size int) (*ScheduleListResponse, error) {
	page, size = normalizePage(page, size)

	filters := repositories.ScheduleFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	schedules, total, err := s.repo.Schedule().GetByStudent(ctx, nil, schoolID, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get student schedules: %w", err)
	}

	return buildScheduleList(schedules, total, page, size), nil
}

func (s *scheduleService) List(ctx context.Context, schoolID uint, filters repositories.ScheduleFilters, page, size int) (*ScheduleListResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	schedules, total, err := s.repo.Schedule().List(ctx, nil, schoolID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	return buildScheduleList(schedules, total, page, size), nil
}

func buildScheduleList(schedules []*models.Schedule, total int64, page, size int) *ScheduleListResponse {
	responses := make([]*ScheduleResponse, len(schedules))
	for i, sc := range schedules {
		responses[i] = &ScheduleResponse{Schedule: sc}
	}
	return &ScheduleListResponse{
		Schedules: responses,
		Total:     total,
		Page:      page,
		Size:      size,
	}
}

func (s *scheduleService) invalidate(ctx context.Context, schoolID uint) {
	if s.cacheManager != nil {
		cache.InvalidateScheduleCache(ctx, s.cacheManager, schoolID)
	}
}

func (s *scheduleService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
