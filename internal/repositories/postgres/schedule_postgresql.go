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
	"gorm.io/gorm/clause"
)

type SchedulePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSchedulePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ScheduleRepository {
	return &SchedulePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SchedulePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SchedulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error {
	if err := s.getDB(tx).WithContext(ctx).Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	cache.InvalidateScheduleCache(ctx, s.cacheManager, schedule.SchoolID)

	return nil
}

func (s *SchedulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&schedule, id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (s *SchedulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, schedule *models.Schedule) error {
	if err := s.getDB(tx).WithContext(ctx).
		Model(&models.Schedule{}).
		Where("id = ? AND school_id = ?", schedule.ID, schedule.SchoolID).
		Updates(map[string]interface{}{
			"scheduled_date":   schedule.ScheduledDate,
			"duration_minutes": schedule.DurationMinutes,
			"status":           schedule.Status,
			"notes":            schedule.Notes,
		}).Error; err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	cache.InvalidateScheduleCache(ctx, s.cacheManager, schedule.SchoolID)

	return nil
}

func (s *SchedulePostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.ScheduleFilters) ([]*models.Schedule, int64, error) {
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.Schedule{}).
		Where("school_id = ?", schoolID)

	query = s.helpers.ApplyScheduleFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, "scheduled_date", "asc", filters.Limit, filters.Offset)

	var schedules []*models.Schedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, 0, err
	}

	return schedules, total, nil
}

// FindOverlapping returns non-cancelled schedules for the instructor or the
// student whose interval intersects [start, end). Rows are locked so a
// concurrent booking inside the same transaction serializes on them.
func (s *SchedulePostgreSQL) FindOverlapping(ctx context.Context, tx *gorm.DB, schoolID, studentID, instructorID uint, start, end time.Time) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	err := s.getDB(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ?", schoolID).
		Where("status <> ?", models.ScheduleCancelled).
		Where("instructor_id = ? OR student_id = ?", instructorID, studentID).
		Where("scheduled_date < ? AND scheduled_date + (duration_minutes * INTERVAL '1 minute') > ?", end, start).
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping schedules: %w", err)
	}
	return schedules, nil
}

// GetByInstructorAndDay returns the instructor's non-cancelled schedules for
// one calendar day, used to compute free slots.
func (s *SchedulePostgreSQL) GetByInstructorAndDay(ctx context.Context, tx *gorm.DB, schoolID, instructorID uint, day time.Time) ([]*models.Schedule, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var schedules []*models.Schedule
	err := s.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND instructor_id = ?", schoolID, instructorID).
		Where("status <> ?", models.ScheduleCancelled).
		Where("scheduled_date >= ? AND scheduled_date < ?", dayStart, dayEnd).
		Order("scheduled_date ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *SchedulePostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, filters repositories.ScheduleFilters) ([]*models.Schedule, int64, error) {
	filters.StudentID = &studentID
	return s.List(ctx, tx, schoolID, filters)
}

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProgressPostgreSQL) GetByStudentAndContent(ctx context.Context, tx *gorm.DB, schoolID, studentID, contentID uint) (*models.StudentProgress, error) {
	var progress models.StudentProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND student_id = ? AND content_id = ?", schoolID, studentID, contentID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.StudentProgress) error {
	if err := p.getDB(tx).WithContext(ctx).Create(progress).Error; err != nil {
		return fmt.Errorf("failed to create progress record: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.StudentProgress) error {
	if err := p.getDB(tx).WithContext(ctx).
		Model(&models.StudentProgress{}).
		Where("id = ?", progress.ID).
		Updates(map[string]interface{}{
			"progress_percent":   progress.ProgressPercent,
			"time_spent_seconds": progress.TimeSpentSeconds,
			"is_completed":       progress.IsCompleted,
			"completed_at":       progress.CompletedAt,
			"attempts":           progress.Attempts,
			"last_accessed_at":   progress.LastAccessedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update progress record: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, schoolID, studentID, courseID uint) ([]*models.StudentProgress, error) {
	var records []*models.StudentProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND student_id = ? AND course_id = ?", schoolID, studentID, courseID).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertDailyRollup adds the deltas to the student's rollup row for the day,
// creating it when missing. Conflict target matches the unique index on
// (student_id, day).
func (p *ProgressPostgreSQL) UpsertDailyRollup(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, day time.Time, lessonsDelta, quizzesDelta, secondsDelta int) error {
	rollup := models.ProgressDailyRollup{
		SchoolID:         schoolID,
		StudentID:        studentID,
		Day:              time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		LessonsCompleted: lessonsDelta,
		QuizzesCompleted: quizzesDelta,
		TimeSpentSeconds: secondsDelta,
	}

	err := p.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"lessons_completed":  gorm.Expr("progress_daily_rollups.lessons_completed + ?", lessonsDelta),
				"quizzes_completed":  gorm.Expr("progress_daily_rollups.quizzes_completed + ?", quizzesDelta),
				"time_spent_seconds": gorm.Expr("progress_daily_rollups.time_spent_seconds + ?", secondsDelta),
				"updated_at":         time.Now(),
			}),
		}).
		Create(&rollup).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily rollup: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) GetDailyRollups(ctx context.Context, tx *gorm.DB, schoolID, studentID uint, from, to time.Time) ([]*models.ProgressDailyRollup, error) {
	var rollups []*models.ProgressDailyRollup
	err := p.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Where("day >= ? AND day <= ?", from, to).
		Order("day ASC").
		Find(&rollups).Error
	if err != nil {
		return nil, err
	}
	return rollups, nil
}
