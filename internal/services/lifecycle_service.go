package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/cache"
	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

const overviewCacheTTL = 5 * time.Minute

type lifecycleService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
}

func NewLifecycleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, eventPublisher events.EventPublisher) LifecycleService {
	return &lifecycleService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		cacheManager:   cacheManager,
		eventPublisher: eventPublisher,
	}
}

// GetOverview assembles the CRM dashboard. The whole response is cached per
// tenant; student and payment mutations invalidate it.
func (s *lifecycleService) GetOverview(ctx context.Context, schoolID uint) (*OverviewResponse, error) {
	s.logger.Info("Getting lifecycle overview", "school_id", schoolID)

	if schoolID == 0 {
		return nil, ErrUnauthorized
	}

	if s.cacheManager != nil {
		var cached OverviewResponse
		key := fmt.Sprintf("school:%d:overview", schoolID)
		err := s.cacheManager.Dashboard.CacheOrExecute(ctx, key, &cached, overviewCacheTTL, func() (interface{}, error) {
			return s.buildOverview(ctx, schoolID)
		})
		if err == nil {
			return &cached, nil
		}
		s.logger.Warn("Overview cache path failed, falling back to direct read", "error", err)
	}

	return s.buildOverview(ctx, schoolID)
}

func (s *lifecycleService) buildOverview(ctx context.Context, schoolID uint) (*OverviewResponse, error) {
	dash := s.repo.Dashboard()

	totalStudents, err := dash.GetTotalStudents(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	totalInstructors, err := dash.GetTotalInstructors(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to count instructors: %w", err)
	}
	activeStudents, err := dash.GetActiveStudents(ctx, nil, schoolID, 30)
	if err != nil {
		return nil, fmt.Errorf("failed to count active students: %w", err)
	}
	upcomingLessons, err := dash.GetUpcomingLessons(ctx, nil, schoolID, 7)
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming lessons: %w", err)
	}

	stageCounts, err := s.repo.Student().CountByStage(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to count stages: %w", err)
	}

	revenue, err := s.repo.Payment().GetRevenueSummary(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to build revenue summary: %w", err)
	}

	paymentsDue, err := dash.GetPaymentsDueSoon(ctx, nil, schoolID, 7)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments due soon: %w", err)
	}
	examsSoon, err := dash.GetExamsSoon(ctx, nil, schoolID, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to get exams soon: %w", err)
	}

	activities, err := dash.GetRecentActivities(ctx, nil, schoolID, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}

	recent := make([]RecentActivityResponse, len(activities))
	now := time.Now()
	for i, a := range activities {
		recent[i] = RecentActivityResponse{
			StudentID:   a.StudentID,
			StudentName: a.StudentName,
			Action:      a.Action,
			TimeAgo:     formatTimeAgo(a.CreatedAt, now),
		}
	}

	return &OverviewResponse{
		TotalStudents:    totalStudents,
		TotalInstructors: totalInstructors,
		ActiveStudents:   activeStudents,
		UpcomingLessons:  upcomingLessons,
		StageCounts:      stageCounts,
		Revenue:          revenue,
		PaymentsDueSoon:  paymentsDue,
		ExamsSoon:        examsSoon,
		RecentActivities: recent,
	}, nil
}

// GetPipeline returns the per-student roster rows with computed tags.
func (s *lifecycleService) GetPipeline(ctx context.Context, schoolID uint, filters PipelineFilters) (*PipelineResponse, error) {
	s.logger.Info("Getting pipeline", "school_id", schoolID)

	if schoolID == 0 {
		return nil, ErrUnauthorized
	}

	page, size := normalizePage(filters.Page, filters.Size)

	repoFilters := repositories.StudentFilters{
		Stage:   filters.Stage,
		Search:  filters.Search,
		HasDebt: filters.HasDebt,
		Limit:   size,
		Offset:  (page - 1) * size,
	}

	students, total, err := s.repo.Student().List(ctx, nil, schoolID, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline students: %w", err)
	}

	rows := make([]*StudentResponse, len(students))
	for i, st := range students {
		rows[i] = buildStudentResponse(st)
	}

	return &PipelineResponse{
		Students: rows,
		Total:    total,
		Page:     page,
		Size:     size,
	}, nil
}

// UpdateStage moves a student through the pipeline after validating the
// transition, and publishes a stage-changed event.
func (s *lifecycleService) UpdateStage(ctx context.Context, schoolID, studentID uint, stage models.StudentStage, changedBy uint) error {
	s.logger.Info("Updating student stage", "school_id", schoolID, "student_id", studentID, "stage", stage)

	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to get student: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateStageTransition(student.Stage, stage); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidStageTransition, errs.Error())
	}
	if student.Stage == stage {
		return nil
	}

	if err := s.repo.Student().UpdateStage(ctx, nil, schoolID, studentID, stage); err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}

	s.invalidate(ctx, schoolID, studentID)
	s.publish(ctx, events.NewEvent(events.EventStudentStageChanged, events.StageChangedEvent{
		SchoolID:  schoolID,
		StudentID: studentID,
		FromStage: string(student.Stage),
		ToStage:   string(stage),
		ChangedBy: changedBy,
	}))

	return nil
}

// AddTag appends a manual tag if not already present.
func (s *lifecycleService) AddTag(ctx context.Context, schoolID, studentID uint, tag string) error {
	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to get student: %w", err)
	}

	tags := student.ManualTags()
	for _, t := range tags {
		if t == tag {
			return nil
		}
	}
	student.SetManualTags(append(tags, tag))

	if err := s.repo.Student().Update(ctx, nil, student); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	s.invalidate(ctx, schoolID, studentID)
	return nil
}

func (s *lifecycleService) RemoveTag(ctx context.Context, schoolID, studentID uint, tag string) error {
	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to get student: %w", err)
	}

	tags := student.ManualTags()
	kept := tags[:0]
	for _, t := range tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	student.SetManualTags(kept)

	if err := s.repo.Student().Update(ctx, nil, student); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	s.invalidate(ctx, schoolID, studentID)
	return nil
}

func (s *lifecycleService) invalidate(ctx context.Context, schoolID, studentID uint) {
	if s.cacheManager != nil {
		cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, studentID)
	}
}

func (s *lifecycleService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// ===== HELPERS =====

func roundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func formatTimeAgo(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
}
