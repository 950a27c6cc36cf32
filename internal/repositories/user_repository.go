package repositories

import (
	"context"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"gorm.io/gorm"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string // Search query for name or email
	Role   *models.UserRole
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByTCNumber(ctx context.Context, tx *gorm.DB, tcNumber string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, filters UserFilters) ([]*models.User, int64, error)

	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	ExistsByTCNumber(ctx context.Context, tx *gorm.DB, tcNumber string) (bool, error)
}

type SchoolRepository interface {
	Create(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DrivingSchool, error)
	Update(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error
}

type InstructorRepository interface {
	Create(ctx context.Context, tx *gorm.DB, instructor *models.Instructor) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Instructor, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, schoolID, userID uint) (*models.Instructor, error)
	Update(ctx context.Context, tx *gorm.DB, instructor *models.Instructor) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, activeOnly bool) ([]*models.Instructor, error)
}
