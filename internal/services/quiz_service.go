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

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *quizService) Create(ctx context.Context, schoolID uint, req *CreateQuizRequest) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "school_id", schoolID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if req.CourseID != nil {
		if _, err := s.repo.Course().GetByID(ctx, nil, schoolID, *req.CourseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
	}

	quiz := &models.Quiz{
		SchoolID:     schoolID,
		CourseID:     req.CourseID,
		Title:        req.Title,
		Description:  req.Description,
		PassingScore: req.PassingScore,
		TimeLimit:    req.TimeLimit,
	}
	if quiz.PassingScore == 0 {
		quiz.PassingScore = 70
	}
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, schoolID, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	fillQuizTotals(quiz)
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, schoolID, id uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	s.logger.Info("Updating quiz", "school_id", schoolID, "quiz_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = *req.TimeLimit
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, schoolID, id uint) error {
	s.logger.Info("Deleting quiz", "school_id", schoolID, "quiz_id", id)

	if err := s.repo.Quiz().Delete(ctx, nil, schoolID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

func (s *quizService) List(ctx context.Context, schoolID uint, page, size int) (*QuizListResponse, error) {
	page, size = normalizePage(page, size)

	quizzes, total, err := s.repo.Quiz().List(ctx, nil, schoolID, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	return &QuizListResponse{
		Quizzes: quizzes,
		Total:   total,
		Page:    page,
		Size:    size,
	}, nil
}

// AddQuestion creates the question and its options in one transaction.
func (s *quizService) AddQuestion(ctx context.Context, schoolID, quizID uint, req *QuizQuestionRequest) (*models.QuizQuestion, error) {
	s.logger.Info("Adding quiz question", "school_id", schoolID, "quiz_id", quizID)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if _, err := s.repo.Quiz().GetByID(ctx, nil, schoolID, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	question := &models.QuizQuestion{
		QuizID:    quizID,
		Text:      req.Text,
		Points:    req.Points,
		SortOrder: req.SortOrder,
	}
	if question.Points == 0 {
		question.Points = 1
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Quiz().CreateQuestion(ctx, nil, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		for _, opt := range req.Options {
			option := &models.QuizOption{
				QuestionID: question.ID,
				Text:       opt.Text,
				IsCorrect:  opt.IsCorrect,
				SortOrder:  opt.SortOrder,
			}
			if err := txRepo.Quiz().CreateOption(ctx, nil, option); err != nil {
				return fmt.Errorf("failed to create option: %w", err)
			}
			question.Options = append(question.Options, *option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion replaces the question text and, when options are supplied,
// the whole option set.
func (s *quizService) UpdateQuestion(ctx context.Context, schoolID, quizID, questionID uint, req *QuizQuestionRequest) (*models.QuizQuestion, error) {
	s.logger.Info("Updating quiz question", "school_id", schoolID, "quiz_id", quizID, "question_id", questionID)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if _, err := s.repo.Quiz().GetByID(ctx, nil, schoolID, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	question, err := s.repo.Quiz().GetQuestion(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return nil, ErrQuizNotFound
	}

	question.Text = req.Text
	question.Points = req.Points
	question.SortOrder = req.SortOrder

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Quiz().UpdateQuestion(ctx, nil, question); err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}
		if len(req.Options) == 0 {
			return nil
		}
		for _, old := range question.Options {
			if err := txRepo.Quiz().DeleteOption(ctx, nil, old.ID); err != nil {
				return fmt.Errorf("failed to delete option: %w", err)
			}
		}
		question.Options = question.Options[:0]
		for _, opt := range req.Options {
			option := &models.QuizOption{
				QuestionID: question.ID,
				Text:       opt.Text,
				IsCorrect:  opt.IsCorrect,
				SortOrder:  opt.SortOrder,
			}
			if err := txRepo.Quiz().CreateOption(ctx, nil, option); err != nil {
				return fmt.Errorf("failed to create option: %w", err)
			}
			question.Options = append(question.Options, *option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, schoolID, quizID, questionID uint) error {
	s.logger.Info("Deleting quiz question", "school_id", schoolID, "quiz_id", quizID, "question_id", questionID)

	if _, err := s.repo.Quiz().GetByID(ctx, nil, schoolID, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	question, err := s.repo.Quiz().GetQuestion(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return ErrQuizNotFound
	}

	if err := s.repo.Quiz().DeleteQuestion(ctx, nil, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func fillQuizTotals(quiz *models.Quiz) {
	quiz.QuestionCount = len(quiz.Questions)
	quiz.TotalPoints = 0
	for _, q := range quiz.Questions {
		quiz.TotalPoints += q.Points
	}
}
