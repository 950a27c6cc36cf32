package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"gorm.io/gorm"
)

type NotificationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (n *NotificationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return n.db
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if err := n.getDB(tx).WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Notification, error) {
	var notification models.Notification
	err := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&notification, id).Error
	if err != nil {
		return nil, err
	}

	notification.ComputeRates()
	return &notification, nil
}

func (n *NotificationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if err := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND school_id = ?", notification.ID, notification.SchoolID).
		Updates(map[string]interface{}{
			"title":          notification.Title,
			"message":        notification.Message,
			"recipient_type": notification.RecipientType,
			"targeting":      notification.Targeting,
			"schedule_kind":  notification.ScheduleKind,
			"scheduled_at":   notification.ScheduledAt,
			"status":         notification.Status,
		}).Error; err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.Notification{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (n *NotificationPostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	query := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("school_id = ?", schoolID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = n.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var notifications []*models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	for _, notification := range notifications {
		notification.ComputeRates()
	}

	return notifications, total, nil
}

// IncrementOpened bumps the opened counter in one statement so concurrent
// marks never lose updates.
func (n *NotificationPostgreSQL) IncrementOpened(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		UpdateColumn("opened_count", gorm.Expr("opened_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment opened count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementClicked bumps the clicked counter in one statement
func (n *NotificationPostgreSQL) IncrementClicked(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		UpdateColumn("clicked_count", gorm.Expr("clicked_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment clicked count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkSent transitions the notification to sent with its audience size.
// Engagement counters restart with each dispatch so a resend is measured
// against its own audience.
func (n *NotificationPostgreSQL) MarkSent(ctx context.Context, tx *gorm.DB, schoolID, id uint, totalRecipients, sentCount int) error {
	result := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		Updates(map[string]interface{}{
			"status":           models.NotificationSent,
			"total_recipients": totalRecipients,
			"sent_count":       sentCount,
			"opened_count":     0,
			"clicked_count":    0,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification sent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetAnalytics aggregates engagement across the tenant's sent notifications
func (n *NotificationPostgreSQL) GetAnalytics(ctx context.Context, tx *gorm.DB, schoolID uint) (*repositories.NotificationAnalytics, error) {
	type totalsRow struct {
		Total        int64
		SentSum      int64
		OpenedSum    int64
		ClickedSum   int64
		RecipientSum int64
	}

	var totals totalsRow
	err := n.getDB(tx).WithContext(ctx).
		Model(&models.Notification{}).
		Select(`COUNT(*) as total,
			COALESCE(SUM(sent_count), 0) as sent_sum,
			COALESCE(SUM(opened_count), 0) as opened_sum,
			COALESCE(SUM(clicked_count), 0) as clicked_sum,
			COALESCE(SUM(total_recipients), 0) as recipient_sum`).
		Where("school_id = ? AND status = ?", schoolID, models.NotificationSent).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification analytics: %w", err)
	}

	analytics := &repositories.NotificationAnalytics{
		TotalNotifications: totals.Total,
		TotalSent:          totals.SentSum,
		TotalOpened:        totals.OpenedSum,
		TotalClicked:       totals.ClickedSum,
	}
	analytics.AverageOpenRate = models.EngagementRate(int(totals.OpenedSum), int(totals.RecipientSum))
	analytics.AverageClickRate = models.EngagementRate(int(totals.ClickedSum), int(totals.RecipientSum))

	return analytics, nil
}

func (n *NotificationPostgreSQL) CreateTemplate(ctx context.Context, tx *gorm.DB, template *models.NotificationTemplate) error {
	if err := n.getDB(tx).WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("failed to create notification template: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) GetTemplate(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.NotificationTemplate, error) {
	var template models.NotificationTemplate
	err := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (n *NotificationPostgreSQL) UpdateTemplate(ctx context.Context, tx *gorm.DB, template *models.NotificationTemplate) error {
	if err := n.getDB(tx).WithContext(ctx).
		Model(&models.NotificationTemplate{}).
		Where("id = ? AND school_id = ?", template.ID, template.SchoolID).
		Updates(map[string]interface{}{
			"name":             template.Name,
			"title_template":   template.TitleTemplate,
			"message_template": template.MessageTemplate,
			"variables":        template.Variables,
		}).Error; err != nil {
		return fmt.Errorf("failed to update notification template: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) DeleteTemplate(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.NotificationTemplate{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (n *NotificationPostgreSQL) ListTemplates(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.NotificationTemplate, error) {
	var templates []*models.NotificationTemplate
	err := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("name ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (n *NotificationPostgreSQL) CreateRule(ctx context.Context, tx *gorm.DB, rule *models.NotificationRule) error {
	if err := n.getDB(tx).WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create notification rule: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) UpdateRule(ctx context.Context, tx *gorm.DB, rule *models.NotificationRule) error {
	if err := n.getDB(tx).WithContext(ctx).
		Model(&models.NotificationRule{}).
		Where("id = ? AND school_id = ?", rule.ID, rule.SchoolID).
		Updates(map[string]interface{}{
			"trigger":     rule.Trigger,
			"days_before": rule.DaysBefore,
			"template_id": rule.TemplateID,
			"enabled":     rule.Enabled,
		}).Error; err != nil {
		return fmt.Errorf("failed to update notification rule: %w", err)
	}
	return nil
}

func (n *NotificationPostgreSQL) DeleteRule(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.NotificationRule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (n *NotificationPostgreSQL) ListRules(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.NotificationRule, error) {
	var rules []*models.NotificationRule
	err := n.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
