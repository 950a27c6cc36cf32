package postgres

import (
	"context"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// GetStudentBasicInfo gets the columns the billing and scheduling paths need
func (h *SharedHelpers) GetStudentBasicInfo(ctx context.Context, schoolID, studentID uint) (*models.Student, error) {
	var student models.Student
	err := h.db.WithContext(ctx).
		Select("id, school_id, stage, total_fee, paid_amount, remaining_debt").
		Where("school_id = ?", schoolID).
		First(&student, studentID).Error
	return &student, err
}

// CountSchedulesByStatus counts a student's schedules in one status
func (h *SharedHelpers) CountSchedulesByStatus(ctx context.Context, schoolID, studentID uint, status models.ScheduleStatus) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("school_id = ? AND student_id = ? AND status = ?", schoolID, studentID, status).
		Count(&count).Error
	return count, err
}

// ApplyStudentFilters applies common filters to student roster queries
func (h *SharedHelpers) ApplyStudentFilters(query *gorm.DB, filters repositories.StudentFilters) *gorm.DB {
	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}
	if filters.HasDebt != nil {
		if *filters.HasDebt {
			query = query.Where("remaining_debt > 0")
		} else {
			query = query.Where("remaining_debt <= 0")
		}
	}
	if filters.ActivitySince != nil {
		query = query.Where("last_activity_at >= ?", *filters.ActivitySince)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Joins("JOIN users ON users.id = students.user_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}
	return query
}

// ApplyPaymentFilters applies common filters to payment queries
func (h *SharedHelpers) ApplyPaymentFilters(query *gorm.DB, filters repositories.PaymentFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyScheduleFilters applies common filters to schedule queries
func (h *SharedHelpers) ApplyScheduleFilters(query *gorm.DB, filters repositories.ScheduleFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("scheduled_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("scheduled_date <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":     true,
		"updated_at":     true,
		"id":             true,
		"stage":          true,
		"remaining_debt": true,
		"scheduled_date": true,
		"status":         true,
		"title":          true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// BulkUpdateScheduleStatus updates status for multiple schedules
func (h *SharedHelpers) BulkUpdateScheduleStatus(ctx context.Context, ids []uint, status models.ScheduleStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return h.db.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}
