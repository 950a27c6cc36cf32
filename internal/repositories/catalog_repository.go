package repositories

import (
	"context"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"gorm.io/gorm"
)

// CourseRepository handles courses and their nested contents.
type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Course, error)
	GetByIDWithContents(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, filters CourseFilters) ([]*models.Course, int64, error)

	CreateContent(ctx context.Context, tx *gorm.DB, content *models.CourseContent) error
	GetContent(ctx context.Context, tx *gorm.DB, schoolID, contentID uint) (*models.CourseContent, error)
	UpdateContent(ctx context.Context, tx *gorm.DB, content *models.CourseContent) error
	DeleteContent(ctx context.Context, tx *gorm.DB, schoolID, contentID uint) error
	GetContents(ctx context.Context, tx *gorm.DB, schoolID, courseID uint) ([]*models.CourseContent, error)
	CountContents(ctx context.Context, tx *gorm.DB, schoolID, courseID uint) (int64, error)
}

// QuizRepository handles quizzes with nested questions and options.
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error
	List(ctx context.Context, tx *gorm.DB, schoolID uint, limit, offset int) ([]*models.Quiz, int64, error)

	CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error
	UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error
	DeleteQuestion(ctx context.Context, tx *gorm.DB, questionID uint) error
	GetQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.QuizQuestion, error)

	CreateOption(ctx context.Context, tx *gorm.DB, option *models.QuizOption) error
	UpdateOption(ctx context.Context, tx *gorm.DB, option *models.QuizOption) error
	DeleteOption(ctx context.Context, tx *gorm.DB, optionID uint) error
}
