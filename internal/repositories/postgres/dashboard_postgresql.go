package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== DASHBOARD STATS =====

func (r *dashboardRepository) GetTotalStudents(ctx context.Context, tx *gorm.DB, schoolID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Student{}).
		Where("school_id = ?", schoolID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total students: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetTotalInstructors(ctx context.Context, tx *gorm.DB, schoolID uint) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Instructor{}).
		Where("school_id = ? AND is_active = ?", schoolID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total instructors: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetActiveStudents(ctx context.Context, tx *gorm.DB, schoolID uint, days int) (int64, error) {
	db := r.getDB(tx)
	var count int64

	startDate := time.Now().AddDate(0, 0, -days)

	if err := db.WithContext(ctx).
		Model(&models.Student{}).
		Where("school_id = ? AND last_activity_at >= ?", schoolID, startDate).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get active students: %w", err)
	}

	return count, nil
}

func (r *dashboardRepository) GetUpcomingLessons(ctx context.Context, tx *gorm.DB, schoolID uint, days int) (int64, error) {
	db := r.getDB(tx)
	var count int64

	now := time.Now()
	endDate := now.AddDate(0, 0, days)

	if err := db.WithContext(ctx).
		Model(&models.Schedule{}).
		Where("school_id = ? AND status = ?", schoolID, models.ScheduleScheduled).
		Where("scheduled_date >= ? AND scheduled_date < ?", now, endDate).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get upcoming lessons: %w", err)
	}

	return count, nil
}

// ===== REMINDER FEEDS =====

func (r *dashboardRepository) GetPaymentsDueSoon(ctx context.Context, tx *gorm.DB, schoolID uint, days int) ([]repositories.ReminderData, error) {
	db := r.getDB(tx)

	now := time.Now()
	endDate := now.AddDate(0, 0, days)

	var rows []struct {
		StudentID   uint
		StudentName string
		DueDate     time.Time
		Amount      float64
	}

	if err := db.WithContext(ctx).
		Table("students").
		Select("students.id as student_id, users.full_name as student_name, "+
			"students.next_payment_date as due_date, students.remaining_debt as amount").
		Joins("JOIN users ON students.user_id = users.id").
		Where("students.school_id = ? AND students.deleted_at IS NULL", schoolID).
		Where("students.remaining_debt > 0").
		Where("students.next_payment_date IS NOT NULL").
		Where("students.next_payment_date >= ? AND students.next_payment_date < ?", now, endDate).
		Order("students.next_payment_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments due soon: %w", err)
	}

	reminders := make([]repositories.ReminderData, 0, len(rows))
	for _, row := range rows {
		amount := row.Amount
		reminders = append(reminders, repositories.ReminderData{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			DueDate:     row.DueDate,
			Amount:      &amount,
		})
	}

	return reminders, nil
}

func (r *dashboardRepository) GetExamsSoon(ctx context.Context, tx *gorm.DB, schoolID uint, days int) ([]repositories.ReminderData, error) {
	db := r.getDB(tx)

	now := time.Now()
	endDate := now.AddDate(0, 0, days)

	var rows []struct {
		StudentID   uint
		StudentName string
		DueDate     time.Time
	}

	if err := db.WithContext(ctx).
		Table("exam_results").
		Select("exam_results.student_id, users.full_name as student_name, "+
			"exam_results.scheduled_date as due_date").
		Joins("JOIN students ON exam_results.student_id = students.id").
		Joins("JOIN users ON students.user_id = users.id").
		Where("exam_results.school_id = ?", schoolID).
		Where("exam_results.status = ?", models.ExamScheduled).
		Where("exam_results.scheduled_date >= ? AND exam_results.scheduled_date < ?", now, endDate).
		Order("exam_results.scheduled_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get upcoming exams: %w", err)
	}

	reminders := make([]repositories.ReminderData, 0, len(rows))
	for _, row := range rows {
		reminders = append(reminders, repositories.ReminderData{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			DueDate:     row.DueDate,
		})
	}

	return reminders, nil
}

// ===== RECENT ACTIVITIES =====

func (r *dashboardRepository) GetRecentActivities(ctx context.Context, tx *gorm.DB, schoolID uint, limit int) ([]repositories.RecentActivityData, error) {
	db := r.getDB(tx)

	var activities []repositories.RecentActivityData

	// Recent completed lessons
	var lessons []struct {
		StudentID   uint
		StudentName string
		LessonType  string
		CreatedAt   time.Time
	}

	if err := db.WithContext(ctx).
		Table("schedules").
		Select("schedules.student_id, users.full_name as student_name, "+
			"schedules.lesson_type, schedules.updated_at as created_at").
		Joins("JOIN students ON schedules.student_id = students.id").
		Joins("JOIN users ON students.user_id = users.id").
		Where("schedules.school_id = ?", schoolID).
		Where("schedules.status = ?", models.ScheduleCompleted).
		Order("schedules.updated_at DESC").
		Limit(limit).
		Scan(&lessons).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent lesson activities: %w", err)
	}

	for _, lesson := range lessons {
		activities = append(activities, repositories.RecentActivityData{
			StudentID:   lesson.StudentID,
			StudentName: lesson.StudentName,
			Action:      "completed_" + lesson.LessonType + "_lesson",
			CreatedAt:   lesson.CreatedAt,
		})
	}

	// Recent completed payments
	var payments []struct {
		StudentID   uint
		StudentName string
		CreatedAt   time.Time
	}

	if err := db.WithContext(ctx).
		Table("payments").
		Select("payments.student_id, users.full_name as student_name, "+
			"payments.updated_at as created_at").
		Joins("JOIN students ON payments.student_id = students.id").
		Joins("JOIN users ON students.user_id = users.id").
		Where("payments.school_id = ?", schoolID).
		Where("payments.status = ?", models.PaymentCompleted).
		Order("payments.updated_at DESC").
		Limit(limit).
		Scan(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent payment activities: %w", err)
	}

	for _, payment := range payments {
		activities = append(activities, repositories.RecentActivityData{
			StudentID:   payment.StudentID,
			StudentName: payment.StudentName,
			Action:      "payment_received",
			CreatedAt:   payment.CreatedAt,
		})
	}

	// Merge both feeds newest-first and trim to the requested size
	for i := 1; i < len(activities); i++ {
		for j := i; j > 0 && activities[j].CreatedAt.After(activities[j-1].CreatedAt); j-- {
			activities[j], activities[j-1] = activities[j-1], activities[j]
		}
	}
	if limit > 0 && len(activities) > limit {
		activities = activities[:limit]
	}

	return activities, nil
}
