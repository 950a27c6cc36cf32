package postgres

import (
	"context"
	"fmt"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Course, error) {
	var course models.Course
	err := c.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByIDWithContents(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Course, error) {
	var course models.Course
	err := c.getDB(tx).WithContext(ctx).
		Preload("Contents", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_contents.sort_order ASC")
		}).
		Where("school_id = ?", schoolID).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	course.ContentCount = len(course.Contents)
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND school_id = ?", course.ID, course.SchoolID).
		Updates(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"type":        course.Type,
		}).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := c.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("school_id = ?", schoolID)

	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, "title", "asc", filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	// Fill content counts in one grouped query
	if len(courses) > 0 {
		ids := make([]uint, len(courses))
		for i, course := range courses {
			ids[i] = course.ID
		}

		type countRow struct {
			CourseID uint
			Count    int
		}
		var rows []countRow
		err := c.getDB(tx).WithContext(ctx).
			Model(&models.CourseContent{}).
			Select("course_id, COUNT(*) as count").
			Where("course_id IN ?", ids).
			Group("course_id").
			Scan(&rows).Error
		if err != nil {
			return nil, 0, err
		}

		counts := make(map[uint]int, len(rows))
		for _, row := range rows {
			counts[row.CourseID] = row.Count
		}
		for _, course := range courses {
			course.ContentCount = counts[course.ID]
		}
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) CreateContent(ctx context.Context, tx *gorm.DB, content *models.CourseContent) error {
	if err := c.getDB(tx).WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("failed to create course content: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetContent(ctx context.Context, tx *gorm.DB, schoolID, contentID uint) (*models.CourseContent, error) {
	var content models.CourseContent
	err := c.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&content, contentID).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (c *CoursePostgreSQL) UpdateContent(ctx context.Context, tx *gorm.DB, content *models.CourseContent) error {
	if err := c.getDB(tx).WithContext(ctx).
		Model(&models.CourseContent{}).
		Where("id = ? AND school_id = ?", content.ID, content.SchoolID).
		Updates(map[string]interface{}{
			"title":            content.Title,
			"kind":             content.Kind,
			"body":             content.Body,
			"url":              content.URL,
			"duration_minutes": content.DurationMinutes,
			"sort_order":       content.SortOrder,
			"quiz_id":          content.QuizID,
		}).Error; err != nil {
		return fmt.Errorf("failed to update course content: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) DeleteContent(ctx context.Context, tx *gorm.DB, schoolID, contentID uint) error {
	result := c.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.CourseContent{}, contentID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course content: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *CoursePostgreSQL) GetContents(ctx context.Context, tx *gorm.DB, schoolID, courseID uint) ([]*models.CourseContent, error) {
	var contents []*models.CourseContent
	err := c.getDB(tx).WithContext(ctx).
		Where("school_id = ? AND course_id = ?", schoolID, courseID).
		Order("sort_order ASC").
		Find(&contents).Error
	if err != nil {
		return nil, err
	}
	return contents, nil
}

func (c *CoursePostgreSQL) CountContents(ctx context.Context, tx *gorm.DB, schoolID, courseID uint) (int64, error) {
	var count int64
	err := c.getDB(tx).WithContext(ctx).
		Model(&models.CourseContent{}).
		Where("school_id = ? AND course_id = ?", schoolID, courseID).
		Count(&count).Error
	return count, err
}

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, schoolID, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.sort_order ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_options.sort_order ASC")
		}).
		Where("school_id = ?", schoolID).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}

	q.calculateComputedFields(&quiz)
	return &quiz, nil
}

func (q *QuizPostgreSQL) calculateComputedFields(quiz *models.Quiz) {
	quiz.QuestionCount = len(quiz.Questions)
	total := 0
	for _, question := range quiz.Questions {
		total += question.Points
	}
	quiz.TotalPoints = total
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND school_id = ?", quiz.ID, quiz.SchoolID).
		Updates(map[string]interface{}{
			"title":         quiz.Title,
			"description":   quiz.Description,
			"passing_score": quiz.PassingScore,
			"time_limit":    quiz.TimeLimit,
			"course_id":     quiz.CourseID,
		}).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, schoolID, id uint) error {
	result := q.getDB(tx).WithContext(ctx).
		Where("school_id = ?", schoolID).
		Delete(&models.Quiz{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete quiz: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, schoolID uint, limit, offset int) ([]*models.Quiz, int64, error) {
	query := q.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("school_id = ?", schoolID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, "created_at", "desc", limit, offset)

	var quizzes []*models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create quiz question: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) UpdateQuestion(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error {
	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"text":       question.Text,
			"points":     question.Points,
			"sort_order": question.SortOrder,
		}).Error; err != nil {
		return fmt.Errorf("failed to update quiz question: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) DeleteQuestion(ctx context.Context, tx *gorm.DB, questionID uint) error {
	db := q.getDB(tx).WithContext(ctx)

	// Options have no cascade, remove them explicitly
	if err := db.Where("question_id = ?", questionID).Delete(&models.QuizOption{}).Error; err != nil {
		return fmt.Errorf("failed to delete quiz options: %w", err)
	}
	result := db.Delete(&models.QuizQuestion{}, questionID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete quiz question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) GetQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := q.getDB(tx).WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_options.sort_order ASC")
		}).
		First(&question, questionID).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuizPostgreSQL) CreateOption(ctx context.Context, tx *gorm.DB, option *models.QuizOption) error {
	if err := q.getDB(tx).WithContext(ctx).Create(option).Error; err != nil {
		return fmt.Errorf("failed to create quiz option: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) UpdateOption(ctx context.Context, tx *gorm.DB, option *models.QuizOption) error {
	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.QuizOption{}).
		Where("id = ?", option.ID).
		Updates(map[string]interface{}{
			"text":       option.Text,
			"is_correct": option.IsCorrect,
			"sort_order": option.SortOrder,
		}).Error; err != nil {
		return fmt.Errorf("failed to update quiz option: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) DeleteOption(ctx context.Context, tx *gorm.DB, optionID uint) error {
	result := q.getDB(tx).WithContext(ctx).Delete(&models.QuizOption{}, optionID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete quiz option: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
