package postgres

import (
	"context"
	"fmt"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"gorm.io/gorm"
)

type PaymentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewPaymentPostgreSQL(db *gorm.DB) repositories.PaymentRepository {
	return &PaymentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *PaymentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *PaymentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	if err := p.getDB(tx).WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (p *PaymentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := p.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (p *PaymentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	if err := p.getDB(tx).WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND school_id = ?", payment.ID, payment.SchoolID).
		Updates(map[string]interface{}{
			"status":       payment.Status,
			"payment_date": payment.PaymentDate,
			"due_date":     payment.DueDate,
			"notes":        payment.Notes,
		}).Error; err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (p *PaymentPostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.PaymentFilters) ([]*models.Payment, int64, error) {
	query := p.getDB(tx).WithContext(ctx).
		Model(&models.Payment{}).
		Where("school_id = ?", schoolID)

	query = p.helpers.ApplyPaymentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = p.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var payments []*models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// SumCompletedByStudent totals a student's completed payments
func (p *PaymentPostgreSQL) SumCompletedByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint) (float64, error) {
	var sum float64
	err := p.getDB(tx).WithContext(ctx).
		Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("school_id = ? AND student_id = ? AND status = ?", schoolID, studentID, models.PaymentCompleted).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return sum, nil
}

// GetRevenueSummary aggregates the tenant's ledger for the dashboard
func (p *PaymentPostgreSQL) GetRevenueSummary(ctx context.Context, tx *gorm.DB, schoolID uint) (*repositories.RevenueSummary, error) {
	summary := &repositories.RevenueSummary{}
	db := p.getDB(tx).WithContext(ctx)

	err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("school_id = ? AND status = ?", schoolID, models.PaymentCompleted).
		Scan(&summary.TotalCollected).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum collected revenue: %w", err)
	}

	// Outstanding balance lives on the student roster, not the ledger
	err = db.Model(&models.Student{}).
		Select("COALESCE(SUM(remaining_debt), 0)").
		Where("school_id = ? AND remaining_debt > 0", schoolID).
		Scan(&summary.TotalOutstanding).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding debt: %w", err)
	}

	err = db.Model(&models.Payment{}).
		Where("school_id = ? AND status = ?", schoolID, models.PaymentOverdue).
		Count(&summary.OverdueCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Payment{}).
		Where("school_id = ? AND status = ?", schoolID, models.PaymentPending).
		Count(&summary.PendingCount).Error
	if err != nil {
		return nil, err
	}

	return summary, nil
}

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	if err := e.getDB(tx).WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create exam result: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.ExamResult, error) {
	var result models.ExamResult
	err := e.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&result, id).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	if err := e.getDB(tx).WithContext(ctx).
		Model(&models.ExamResult{}).
		Where("id = ? AND school_id = ?", result.ID, result.SchoolID).
		Updates(map[string]interface{}{
			"status":             result.Status,
			"scheduled_date":     result.ScheduledDate,
			"completed_date":     result.CompletedDate,
			"score":              result.Score,
			"certificate_number": result.CertificateNumber,
			"certificate_date":   result.CertificateDate,
		}).Error; err != nil {
		return fmt.Errorf("failed to update exam result: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint) ([]*models.ExamResult, error) {
	var results []*models.ExamResult
	err := e.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (e *ExamPostgreSQL) GetLatestByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, examType models.ExamType) (*models.ExamResult, error) {
	var result models.ExamResult
	err := e.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND student_id = ? AND type = ?", schoolID, studentID, examType).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}
