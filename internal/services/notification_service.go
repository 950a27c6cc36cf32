package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

type notificationService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewNotificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) NotificationService {
	return &notificationService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// Create stores the campaign as a draft, or as scheduled when a future
// dispatch time is supplied. Composite recipient types like "stage:Theory"
// are split into the base type plus a targeting payload.
func (s *notificationService) Create(ctx context.Context, schoolID uint, req *CreateNotificationRequest) (*models.Notification, error) {
	s.logger.Info("Creating notification", "school_id", schoolID, "title", req.Title, "recipient_type", req.RecipientType)

	if errs := s.validator.GetBusinessValidator().ValidateNotificationCreate(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	baseType, targeting, err := splitRecipientType(req.RecipientType)
	if err != nil {
		return nil, NewValidationError(err)
	}

	kind := req.ScheduleKind
	if kind == "" {
		kind = models.ScheduleImmediate
	}
	status := models.NotificationDraft
	if kind != models.ScheduleImmediate {
		status = models.NotificationScheduled
	}

	notification := &models.Notification{
		SchoolID:      schoolID,
		Title:         req.Title,
		Message:       req.Message,
		RecipientType: baseType,
		Targeting:     targeting,
		ScheduleKind:  kind,
		ScheduledAt:   req.ScheduledAt,
		Status:        status,
	}
	if err := s.repo.Notification().Create(ctx, nil, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	notification.ComputeRates()
	return notification, nil
}

func (s *notificationService) GetByID(ctx context.Context, schoolID, id uint) (*models.Notification, error) {
	notification, err := s.getNotification(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	notification.ComputeRates()
	return notification, nil
}

func (s *notificationService) Update(ctx context.Context, schoolID, id uint, req *UpdateNotificationRequest) (*models.Notification, error) {
	s.logger.Info("Updating notification", "school_id", schoolID, "notification_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	notification, err := s.getNotification(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if notification.Status != models.NotificationDraft && notification.Status != models.NotificationScheduled {
		return nil, ErrNotificationNotDraft
	}

	if req.Title != nil {
		notification.Title = *req.Title
	}
	if req.Message != nil {
		notification.Message = *req.Message
	}
	if req.ScheduledAt != nil {
		notification.ScheduledAt = req.ScheduledAt
	}

	if err := s.repo.Notification().Update(ctx, nil, notification); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	notification.ComputeRates()
	return notification, nil
}

func (s *notificationService) Delete(ctx context.Context, schoolID, id uint) error {
	s.logger.Info("Deleting notification", "school_id", schoolID, "notification_id", id)

	if err := s.repo.Notification().Delete(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, schoolID uint, filters repositories.NotificationFilters, page, size int) (*NotificationListResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	notifications, total, err := s.repo.Notification().List(ctx, nil, schoolID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	for _, n := range notifications {
		n.ComputeRates()
	}

	return &NotificationListResponse{
		Notifications: notifications,
		Total:         total,
		Page:          page,
		Size:          size,
	}, nil
}

// Send resolves the audience, stamps the recipient counters and marks the
// campaign sent. Only draft and scheduled campaigns can be dispatched.
func (s *notificationService) Send(ctx context.Context, schoolID, id uint) (*models.Notification, error) {
	s.logger.Info("Sending notification", "school_id", schoolID, "notification_id", id)

	notification, err := s.getNotification(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if notification.Status != models.NotificationDraft && notification.Status != models.NotificationScheduled {
		return nil, ErrNotificationNotDraft
	}
	return s.dispatch(ctx, schoolID, notification)
}

// Resend re-dispatches a sent campaign against the current audience,
// resetting the engagement counters.
func (s *notificationService) Resend(ctx context.Context, schoolID, id uint) (*models.Notification, error) {
	s.logger.Info("Resending notification", "school_id", schoolID, "notification_id", id)

	notification, err := s.getNotification(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if notification.Status != models.NotificationSent {
		return nil, ErrNotificationNotDraft
	}
	return s.dispatch(ctx, schoolID, notification)
}

func (s *notificationService) Cancel(ctx context.Context, schoolID, id uint) error {
	s.logger.Info("Cancelling notification", "school_id", schoolID, "notification_id", id)

	notification, err := s.getNotification(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if notification.Status != models.NotificationDraft && notification.Status != models.NotificationScheduled {
		return ErrNotificationNotDraft
	}

	notification.Status = models.NotificationCancelled
	if err := s.repo.Notification().Update(ctx, nil, notification); err != nil {
		return fmt.Errorf("failed to cancel notification: %w", err)
	}
	return nil
}

func (s *notificationService) MarkRead(ctx context.Context, schoolID, id uint) error {
	if err := s.repo.Notification().IncrementOpened(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkClicked(ctx context.Context, schoolID, id uint) error {
	if err := s.repo.Notification().IncrementClicked(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark clicked: %w", err)
	}
	return nil
}

func (s *notificationService) GetAnalytics(ctx context.Context, schoolID uint) (*NotificationAnalyticsResponse, error) {
	analytics, err := s.repo.Notification().GetAnalytics(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}

	sent := models.NotificationSent
	notifications, _, err := s.repo.Notification().List(ctx, nil, schoolID, repositories.NotificationFilters{
		Status: &sent,
		Limit:  20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sent notifications: %w", err)
	}
	for _, n := range notifications {
		n.ComputeRates()
	}

	return &NotificationAnalyticsResponse{
		NotificationAnalytics: analytics,
		Notifications:         notifications,
	}, nil
}

// ===== TEMPLATES =====

func (s *notificationService) CreateTemplate(ctx context.Context, schoolID uint, req *TemplateRequest) (*models.NotificationTemplate, error) {
	s.logger.Info("Creating notification template", "school_id", schoolID, "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	template := &models.NotificationTemplate{
		SchoolID:        schoolID,
		Name:            req.Name,
		TitleTemplate:   req.TitleTemplate,
		MessageTemplate: req.MessageTemplate,
	}
	if req.Variables != "" {
		template.Variables = datatypes.JSON(req.Variables)
	}
	if err := s.repo.Notification().CreateTemplate(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

func (s *notificationService) UpdateTemplate(ctx context.Context, schoolID, id uint, req *TemplateRequest) (*models.NotificationTemplate, error) {
	s.logger.Info("Updating notification template", "school_id", schoolID, "template_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	template, err := s.repo.Notification().GetTemplate(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	template.Name = req.Name
	template.TitleTemplate = req.TitleTemplate
	template.MessageTemplate = req.MessageTemplate
	if req.Variables != "" {
		template.Variables = datatypes.JSON(req.Variables)
	}

	if err := s.repo.Notification().UpdateTemplate(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

func (s *notificationService) DeleteTemplate(ctx context.Context, schoolID, id uint) error {
	if err := s.repo.Notification().DeleteTemplate(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *notificationService) ListTemplates(ctx context.Context, schoolID uint) ([]*models.NotificationTemplate, error) {
	templates, err := s.repo.Notification().ListTemplates(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// ===== RULES =====

func (s *notificationService) CreateRule(ctx context.Context, schoolID uint, req *RuleRequest) (*models.NotificationRule, error) {
	s.logger.Info("Creating notification rule", "school_id", schoolID, "trigger", req.Trigger)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if _, err := s.repo.Notification().GetTemplate(ctx, nil, schoolID, req.TemplateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	rule := &models.NotificationRule{
		SchoolID:   schoolID,
		Trigger:    req.Trigger,
		DaysBefore: req.DaysBefore,
		TemplateID: req.TemplateID,
		Enabled:    true,
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if err := s.repo.Notification().CreateRule(ctx, nil, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return rule, nil
}

func (s *notificationService) UpdateRule(ctx context.Context, schoolID, id uint, req *RuleRequest) (*models.NotificationRule, error) {
	s.logger.Info("Updating notification rule", "school_id", schoolID, "rule_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	rules, err := s.repo.Notification().ListRules(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	var rule *models.NotificationRule
	for _, r := range rules {
		if r.ID == id {
			rule = r
			break
		}
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	rule.Trigger = req.Trigger
	rule.DaysBefore = req.DaysBefore
	rule.TemplateID = req.TemplateID
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := s.repo.Notification().UpdateRule(ctx, nil, rule); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	return rule, nil
}

func (s *notificationService) DeleteRule(ctx context.Context, schoolID, id uint) error {
	if err := s.repo.Notification().DeleteRule(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil
}

func (s *notificationService) ListRules(ctx context.Context, schoolID uint) ([]*models.NotificationRule, error) {
	rules, err := s.repo.Notification().ListRules(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// ===== HELPERS =====

func (s *notificationService) getNotification(ctx context.Context, schoolID, id uint) (*models.Notification, error) {
	notification, err := s.repo.Notification().GetByID(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return notification, nil
}

func (s *notificationService) dispatch(ctx context.Context, schoolID uint, notification *models.Notification) (*models.Notification, error) {
	total, err := s.resolveAudience(ctx, schoolID, notification)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Notification().MarkSent(ctx, nil, schoolID, notification.ID, total, total); err != nil {
		return nil, fmt.Errorf("failed to mark sent: %w", err)
	}
	notification.Status = models.NotificationSent
	notification.TotalRecipients = total
	notification.SentCount = total
	notification.OpenedCount = 0
	notification.ClickedCount = 0
	notification.ComputeRates()

	s.publish(ctx, events.NewEvent(events.EventNotificationSent, events.NotificationSentEvent{
		SchoolID:        schoolID,
		NotificationID:  notification.ID,
		RecipientType:   string(notification.RecipientType),
		TotalRecipients: total,
		Channel:         "in_app",
	}))

	return notification, nil
}

// resolveAudience counts the recipients the campaign targets. An empty
// audience is allowed; engagement rates stay at zero.
func (s *notificationService) resolveAudience(ctx context.Context, schoolID uint, notification *models.Notification) (int, error) {
	switch notification.RecipientType {
	case models.RecipientAll:
		students, err := s.repo.Dashboard().GetTotalStudents(ctx, nil, schoolID)
		if err != nil {
			return 0, fmt.Errorf("failed to count students: %w", err)
		}
		instructors, err := s.repo.Dashboard().GetTotalInstructors(ctx, nil, schoolID)
		if err != nil {
			return 0, fmt.Errorf("failed to count instructors: %w", err)
		}
		return int(students + instructors), nil

	case models.RecipientStudents:
		total, err := s.repo.Dashboard().GetTotalStudents(ctx, nil, schoolID)
		if err != nil {
			return 0, fmt.Errorf("failed to count students: %w", err)
		}
		return int(total), nil

	case models.RecipientInstructors:
		total, err := s.repo.Dashboard().GetTotalInstructors(ctx, nil, schoolID)
		if err != nil {
			return 0, fmt.Errorf("failed to count instructors: %w", err)
		}
		return int(total), nil

	case models.RecipientStage:
		var target struct {
			Stage models.StudentStage `json:"stage"`
		}
		if err := json.Unmarshal(notification.Targeting, &target); err != nil {
			return 0, fmt.Errorf("failed to decode targeting: %w", err)
		}
		counts, err := s.repo.Student().CountByStage(ctx, nil, schoolID)
		if err != nil {
			return 0, fmt.Errorf("failed to count by stage: %w", err)
		}
		return int(counts[target.Stage]), nil

	case models.RecipientStudent:
		var target struct {
			StudentID uint `json:"student_id"`
		}
		if err := json.Unmarshal(notification.Targeting, &target); err != nil {
			return 0, fmt.Errorf("failed to decode targeting: %w", err)
		}
		if _, err := s.repo.Student().GetByID(ctx, nil, schoolID, target.StudentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrStudentNotFound
			}
			return 0, fmt.Errorf("failed to get student: %w", err)
		}
		return 1, nil
	}
	return 0, fmt.Errorf("unknown recipient type %q", notification.RecipientType)
}

// splitRecipientType turns composites like "stage:Theory" and "student:42"
// into a base recipient type plus the targeting payload.
func splitRecipientType(rt models.RecipientType) (models.RecipientType, datatypes.JSON, error) {
	s := string(rt)
	if stage, ok := strings.CutPrefix(s, "stage:"); ok {
		payload, _ := json.Marshal(map[string]string{"stage": stage})
		return models.RecipientStage, datatypes.JSON(payload), nil
	}
	if idStr, ok := strings.CutPrefix(s, "student:"); ok {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("invalid student id %q", idStr)
		}
		payload, _ := json.Marshal(map[string]uint{"student_id": uint(id)})
		return models.RecipientStudent, datatypes.JSON(payload), nil
	}
	return rt, nil, nil
}

func (s *notificationService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
