package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseService) Create(ctx context.Context, schoolID uint, req *CreateCourseRequest) (*models.Course, error) {
	s.logger.Info("Creating course", "school_id", schoolID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	course := &models.Course{
		SchoolID:    schoolID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
	}
	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, schoolID, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithContents(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	course.ContentCount = len(course.Contents)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, schoolID, id uint, req *UpdateCourseRequest) (*models.Course, error) {
	s.logger.Info("Updating course", "school_id", schoolID, "course_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	course, err := s.repo.Course().GetByID(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, schoolID, id uint) error {
	s.logger.Info("Deleting course", "school_id", schoolID, "course_id", id)

	if err := s.repo.Course().Delete(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

func (s *courseService) List(ctx context.Context, schoolID uint, filters repositories.CourseFilters, page, size int) (*CourseListResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	courses, total, err := s.repo.Course().List(ctx, nil, schoolID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	for _, course := range courses {
		count, err := s.repo.Course().CountContents(ctx, nil, schoolID, course.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count contents: %w", err)
		}
		course.ContentCount = int(count)
	}

	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Page:    page,
		Size:    size,
	}, nil
}

func (s *courseService) AddContent(ctx context.Context, schoolID, courseID uint, req *CreateContentRequest) (*models.CourseContent, error) {
	s.logger.Info("Adding course content", "school_id", schoolID, "course_id", courseID, "kind", req.Kind)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, schoolID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if req.Kind == models.ContentQuiz && req.QuizID != nil {
		if _, err := s.repo.Quiz().GetByID(ctx, nil, schoolID, *req.QuizID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrQuizNotFound
			}
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
	}

	content := &models.CourseContent{
		SchoolID:        schoolID,
		CourseID:        courseID,
		Title:           req.Title,
		Kind:            req.Kind,
		Body:            req.Body,
		URL:             req.URL,
		DurationMinutes: req.DurationMinutes,
		SortOrder:       req.SortOrder,
		QuizID:          req.QuizID,
	}
	if err := s.repo.Course().CreateContent(ctx, nil, content); err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}
	return content, nil
}

func (s *courseService) UpdateContent(ctx context.Context, schoolID, contentID uint, req *UpdateContentRequest) (*models.CourseContent, error) {
	s.logger.Info("Updating course content", "school_id", schoolID, "content_id", contentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	content, err := s.repo.Course().GetContent(ctx, nil, schoolID, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	if req.Title != nil {
		content.Title = *req.Title
	}
	if req.Body != nil {
		content.Body = req.Body
	}
	if req.URL != nil {
		content.URL = req.URL
	}
	if req.DurationMinutes != nil {
		content.DurationMinutes = *req.DurationMinutes
	}
	if req.SortOrder != nil {
		content.SortOrder = *req.SortOrder
	}

	if err := s.repo.Course().UpdateContent(ctx, nil, content); err != nil {
		return nil, fmt.Errorf("failed to update content: %w", err)
	}
	return content, nil
}

func (s *courseService) DeleteContent(ctx context.Context, schoolID, contentID uint) error {
	s.logger.Info("Deleting course content", "school_id", schoolID, "content_id", contentID)

	if err := s.repo.Course().DeleteContent(ctx, nil, schoolID, contentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

func (s *courseService) GetContents(ctx context.Context, schoolID, courseID uint) ([]*models.CourseContent, error) {
	if _, err := s.repo.Course().GetByID(ctx, nil, schoolID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	contents, err := s.repo.Course().GetContents(ctx, nil, schoolID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents: %w", err)
	}
	return contents, nil
}
