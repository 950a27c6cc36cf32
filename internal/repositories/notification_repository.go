package repositories

import (
	"context"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Notification, error)
	Update(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, filters NotificationFilters) ([]*models.Notification, int64, error)

	// Counter mutations are single-statement increments so concurrent marks
	// do not lose updates.
	IncrementOpened(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	IncrementClicked(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	MarkSent(ctx context.Context, tx *gorm.DB, schoolID, id uint, totalRecipients, sentCount int) error

	GetAnalytics(ctx context.Context, tx *gorm.DB, schoolID uint) (*NotificationAnalytics, error)

	// Templates
	CreateTemplate(ctx context.Context, tx *gorm.DB, template *models.NotificationTemplate) error
	GetTemplate(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.NotificationTemplate, error)
	UpdateTemplate(ctx context.Context, tx *gorm.DB, template *models.NotificationTemplate) error
	DeleteTemplate(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	ListTemplates(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.NotificationTemplate, error)

	// Rules
	CreateRule(ctx context.Context, tx *gorm.DB, rule *models.NotificationRule) error
	UpdateRule(ctx context.Context, tx *gorm.DB, rule *models.NotificationRule) error
	DeleteRule(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	ListRules(ctx context.Context, tx *gorm.DB, schoolID uint) ([]*models.NotificationRule, error)
}
