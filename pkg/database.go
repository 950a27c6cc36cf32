package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DSM-2025/drivingschool-service/internal/config"
	"github.com/DSM-2025/drivingschool-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection, runs migrations and installs
// the scheduling exclusion constraints.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.Environment == "development" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.DrivingSchool{},
		&models.User{},
		&models.Student{},
		&models.Instructor{},
		&models.Schedule{},
		&models.Payment{},
		&models.ExamResult{},
		&models.Course{},
		&models.CourseContent{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizOption{},
		&models.StudentProgress{},
		&models.ProgressDailyRollup{},
		&models.Notification{},
		&models.NotificationTemplate{},
		&models.NotificationRule{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return installScheduleConstraints(db)
}

// installScheduleConstraints backs the overlap check in the scheduling service
// with database-level exclusion constraints. Two non-cancelled lessons for the
// same instructor, or the same student, must never overlap in time even if two
// transactions race past the application-level check.
func installScheduleConstraints(db *gorm.DB) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`ALTER TABLE schedules DROP CONSTRAINT IF EXISTS schedules_no_instructor_overlap`,
		`ALTER TABLE schedules ADD CONSTRAINT schedules_no_instructor_overlap
			EXCLUDE USING gist (
				instructor_id WITH =,
				tsrange(scheduled_date, scheduled_date + (duration_minutes * INTERVAL '1 minute')) WITH &&
			) WHERE (status <> 'Cancelled')`,
		`ALTER TABLE schedules DROP CONSTRAINT IF EXISTS schedules_no_student_overlap`,
		`ALTER TABLE schedules ADD CONSTRAINT schedules_no_student_overlap
			EXCLUDE USING gist (
				student_id WITH =,
				tsrange(scheduled_date, scheduled_date + (duration_minutes * INTERVAL '1 minute')) WITH &&
			) WHERE (status <> 'Cancelled')`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install schedule constraints: %w", err)
		}
	}
	return nil
}
