package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/cache"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type StudentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewStudentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.StudentRepository {
	return &StudentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create creates a new student and invalidates roster caches
func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	if err := s.getDB(tx).WithContext(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, s.cacheManager.Student, fmt.Sprintf("list:%d:*", student.SchoolID))
	cache.SafeInvalidatePattern(ctx, s.cacheManager.Dashboard, fmt.Sprintf("school:%d:*", student.SchoolID))

	return nil
}

// GetByID retrieves a student by ID with caching
func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Student, error) {
	cacheKey := fmt.Sprintf("id:%d:%d", schoolID, id)
	var student models.Student

	err := s.cacheManager.Student.CacheOrExecute(ctx, cacheKey, &student, cache.StudentCacheConfig.TTL, func() (interface{}, error) {
		var dbStudent models.Student
		err := s.getDB(tx).WithContext(ctx).
			Preload("User").
			Where("school_id = ?", schoolID).
			First(&dbStudent, id).Error
		if err != nil {
			return nil, err
		}
		return &dbStudent, nil
	})

	if err != nil {
		return nil, err
	}

	return &student, nil
}

// GetByUserID retrieves a student by their user account
func (s *StudentPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, schoolID, userID uint) (*models.Student, error) {
	var student models.Student
	err := s.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("school_id = ? AND user_id = ?", schoolID, userID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Update updates a student row and invalidates cache
func (s *StudentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	if err := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND school_id = ?", student.ID, student.SchoolID).
		Updates(map[string]interface{}{
			"stage":                      student.Stage,
			"total_fee":                  student.TotalFee,
			"paid_amount":                student.PaidAmount,
			"remaining_debt":             student.RemainingDebt,
			"next_payment_date":          student.NextPaymentDate,
			"payment_status":             student.PaymentStatus,
			"exam_date":                  student.ExamDate,
			"exam_status":                student.ExamStatus,
			"theory_lessons_completed":   student.TheoryLessonsCompleted,
			"theory_lessons_total":       student.TheoryLessonsTotal,
			"practice_lessons_completed": student.PracticeLessonsCompleted,
			"practice_lessons_total":     student.PracticeLessonsTotal,
			"tags":                       student.Tags,
			"photo_path":                 student.PhotoPath,
			"last_activity_at":           student.LastActivityAt,
			"updated_at":                 time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager, student.SchoolID, student.ID)

	return nil
}

// Delete soft deletes a student
func (s *StudentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := s.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.Student{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete student: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, id)

	return nil
}

// List retrieves students with filters and pagination
func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("students.school_id = ?", schoolID)

	// Apply filters
	query = s.helpers.ApplyStudentFilters(query, filters)

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination and ordering
	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	// Execute query
	var students []*models.Student
	err := query.Preload("User").Find(&students).Error
	if err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// CountByStage returns per-stage student counts. Every stage bucket is
// present, empty ones with a zero value.
func (s *StudentPostgreSQL) CountByStage(ctx context.Context, tx *gorm.DB, schoolID uint) (repositories.StageCounts, error) {
	type stageRow struct {
		Stage models.StudentStage
		Count int64
	}

	var rows []stageRow
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Select("stage, COUNT(*) as count").
		Where("school_id = ?", schoolID).
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count students by stage: %w", err)
	}

	counts := make(repositories.StageCounts, len(models.Stages))
	for _, stage := range models.Stages {
		counts[stage] = 0
	}
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}

	return counts, nil
}

// UpdateStage moves a student to a new pipeline stage
func (s *StudentPostgreSQL) UpdateStage(ctx context.Context, tx *gorm.DB, schoolID, id uint, stage models.StudentStage) error {
	result := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		Updates(map[string]interface{}{
			"stage":            stage,
			"last_activity_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update student stage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, id)

	return nil
}

// UpdateBilling writes the billing snapshot after a payment mutation
func (s *StudentPostgreSQL) UpdateBilling(ctx context.Context, tx *gorm.DB, schoolID, id uint, paidAmount, remainingDebt float64, status string, nextPayment *time.Time) error {
	result := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		Updates(map[string]interface{}{
			"paid_amount":       paidAmount,
			"remaining_debt":    remainingDebt,
			"payment_status":    status,
			"next_payment_date": nextPayment,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update student billing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, id)

	return nil
}

// IncrementLessonCounter bumps the completed-lesson counter for one lesson
// type in a single statement.
func (s *StudentPostgreSQL) IncrementLessonCounter(ctx context.Context, tx *gorm.DB, schoolID, id uint, lessonType models.LessonType) error {
	column := "theory_lessons_completed"
	if lessonType == models.LessonPractice {
		column = "practice_lessons_completed"
	}

	result := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment lesson counter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, id)

	return nil
}

// TouchActivity stamps the student's last activity time
func (s *StudentPostgreSQL) TouchActivity(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	return s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND school_id = ?", id, schoolID).
		UpdateColumn("last_activity_at", time.Now()).Error
}
