package postgres

import (
	"context"
	"fmt"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := u.getDB(tx).WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByTCNumber(ctx context.Context, tx *gorm.DB, tcNumber string) (*models.User, error) {
	var user models.User
	err := u.getDB(tx).WithContext(ctx).
		Where("tc_number = ?", tcNumber).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"full_name":     user.FullName,
			"phone":         user.Phone,
			"password_hash": user.PasswordHash,
			"avatar_url":    user.AvatarURL,
		}).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("school_id = ?", schoolID)

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = u.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (u *UserPostgreSQL) ExistsByTCNumber(ctx context.Context, tx *gorm.DB, tcNumber string) (bool, error) {
	var count int64
	err := u.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("tc_number = ?", tcNumber).
		Count(&count).Error
	return count > 0, err
}

type SchoolPostgreSQL struct {
	db *gorm.DB
}

func NewSchoolPostgreSQL(db *gorm.DB) repositories.SchoolRepository {
	return &SchoolPostgreSQL{db: db}
}

func (s *SchoolPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SchoolPostgreSQL) Create(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	if err := s.getDB(tx).WithContext(ctx).Create(school).Error; err != nil {
		return fmt.Errorf("failed to create driving school: %w", err)
	}
	return nil
}

func (s *SchoolPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DrivingSchool, error) {
	var school models.DrivingSchool
	err := s.getDB(tx).WithContext(ctx).First(&school, id).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (s *SchoolPostgreSQL) Update(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	if err := s.getDB(tx).WithContext(ctx).
		Model(&models.DrivingSchool{}).
		Where("id = ?", school.ID).
		Updates(map[string]interface{}{
			"name":      school.Name,
			"city":      school.City,
			"phone":     school.Phone,
			"email":     school.Email,
			"address":   school.Address,
			"is_active": school.IsActive,
		}).Error; err != nil {
		return fmt.Errorf("failed to update driving school: %w", err)
	}
	return nil
}

type InstructorPostgreSQL struct {
	db *gorm.DB
}

func NewInstructorPostgreSQL(db *gorm.DB) repositories.InstructorRepository {
	return &InstructorPostgreSQL{db: db}
}

func (i *InstructorPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return i.db
}

func (i *InstructorPostgreSQL) Create(ctx context.Context, tx *gorm.DB, instructor *models.Instructor) error {
	if err := i.getDB(tx).WithContext(ctx).Create(instructor).Error; err != nil {
		return fmt.Errorf("failed to create instructor: %w", err)
	}
	return nil
}

func (i *InstructorPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Instructor, error) {
	var instructor models.Instructor
	err := i.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("school_id = ?", schoolID).
		First(&instructor, id).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (i *InstructorPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, schoolID, userID uint) (*models.Instructor, error) {
	var instructor models.Instructor
	err := i.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("school_id = ? AND user_id = ?", schoolID, userID).
		First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (i *InstructorPostgreSQL) Update(ctx context.Context, tx *gorm.DB, instructor *models.Instructor) error {
	if err := i.getDB(tx).WithContext(ctx).
		Model(&models.Instructor{}).
		Where("id = ? AND school_id = ?", instructor.ID, instructor.SchoolID).
		Updates(map[string]interface{}{
			"license_class": instructor.LicenseClass,
			"is_active":     instructor.IsActive,
		}).Error; err != nil {
		return fmt.Errorf("failed to update instructor: %w", err)
	}
	return nil
}

func (i *InstructorPostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, activeOnly bool) ([]*models.Instructor, error) {
	query := i.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("school_id = ?", schoolID)

	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var instructors []*models.Instructor
	if err := query.Order("id ASC").Find(&instructors).Error; err != nil {
		return nil, err
	}
	return instructors, nil
}
