package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

type progressService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ProgressService {
	return &progressService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// GetSummary aggregates per-content progress for one course. The overall
// percent combines the student's theory and practice counters the same way
// the roster does: average of the two ratios, 0 when both totals are 0.
// AverageQuizScore is the mean recorded percent across attempted quiz
// contents; the quiz player reports its result through ProgressPercent, so
// this is the latest score per quiz, not a per-question breakdown.
func (s *progressService) GetSummary(ctx context.Context, schoolID, studentID, courseID uint) (*ProgressSummaryResponse, error) {
	s.logger.Info("Getting progress summary", "school_id", schoolID, "student_id", studentID, "course_id", courseID)

	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	contents, err := s.repo.Course().GetContents(ctx, nil, schoolID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course contents: %w", err)
	}

	records, err := s.repo.Progress().GetByStudentAndCourse(ctx, nil, schoolID, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress records: %w", err)
	}

	byContent := make(map[uint]*models.StudentProgress, len(records))
	for _, r := range records {
		byContent[r.ContentID] = r
	}

	summary := repositories.ProgressSummary{}
	var quizScoreSum float64
	var quizScoreCount int

	for _, c := range contents {
		isQuiz := c.Kind == models.ContentQuiz
		if isQuiz {
			summary.TotalQuizzes++
		} else {
			summary.TotalLessons++
		}

		r, ok := byContent[c.ID]
		if !ok {
			continue
		}
		summary.TimeSpentSeconds += r.TimeSpentSeconds
		if r.IsCompleted {
			if isQuiz {
				summary.CompletedQuizzes++
			} else {
				summary.CompletedLessons++
			}
		}
		if isQuiz && r.Attempts > 0 {
			quizScoreSum += r.ProgressPercent
			quizScoreCount++
		}
	}

	if quizScoreCount > 0 {
		summary.AverageQuizScore = roundFloat(quizScoreSum/float64(quizScoreCount), 2)
	}

	return &ProgressSummaryResponse{
		StudentID:       studentID,
		CourseID:        courseID,
		ProgressSummary: summary,
		OverallPercent:  roundFloat(student.ProgressPercent(), 2),
	}, nil
}

// UpdateProgress upserts the per-content record. Invariants: attempts
// increments on every call, time spent accumulates, percent overwrites, and
// CompletedAt is stamped exactly once when percent first reaches 100.
func (s *progressService) UpdateProgress(ctx context.Context, schoolID, studentID uint, req *UpdateProgressRequest) (*models.StudentProgress, error) {
	s.logger.Info("Updating progress", "school_id", schoolID, "student_id", studentID, "content_id", req.ContentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	content, err := s.repo.Course().GetContent(ctx, nil, schoolID, req.ContentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	var result *models.StudentProgress
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		now := time.Now()
		newlyCompleted := false

		progress, err := txRepo.Progress().GetByStudentAndContent(ctx, nil, schoolID, studentID, req.ContentID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to get progress: %w", err)
			}
			progress = &models.StudentProgress{
				SchoolID:  schoolID,
				StudentID: studentID,
				CourseID:  content.CourseID,
				ContentID: req.ContentID,
			}
			applyProgressUpdate(progress, req, now, &newlyCompleted)
			if err := txRepo.Progress().Create(ctx, nil, progress); err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}
		} else {
			applyProgressUpdate(progress, req, now, &newlyCompleted)
			if err := txRepo.Progress().Update(ctx, nil, progress); err != nil {
				return fmt.Errorf("failed to update progress: %w", err)
			}
		}

		if err := txRepo.Student().TouchActivity(ctx, nil, schoolID, studentID); err != nil {
			return fmt.Errorf("failed to touch activity: %w", err)
		}

		lessonsDelta, quizzesDelta := 0, 0
		if newlyCompleted {
			if content.Kind == models.ContentQuiz {
				quizzesDelta = 1
			} else {
				lessonsDelta = 1
			}
		}
		if err := txRepo.Progress().UpsertDailyRollup(ctx, nil, schoolID, studentID, now, lessonsDelta, quizzesDelta, req.TimeSpentSeconds); err != nil {
			return fmt.Errorf("failed to upsert daily rollup: %w", err)
		}

		result = progress
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CompleteContent is UpdateProgress with percent forced to 100.
func (s *progressService) CompleteContent(ctx context.Context, schoolID, studentID, contentID uint) (*models.StudentProgress, error) {
	return s.UpdateProgress(ctx, schoolID, studentID, &UpdateProgressRequest{
		ContentID:       contentID,
		ProgressPercent: 100,
	})
}

func (s *progressService) GetDailyRollups(ctx context.Context, schoolID, studentID uint, from, to time.Time) ([]*models.ProgressDailyRollup, error) {
	rollups, err := s.repo.Progress().GetDailyRollups(ctx, nil, schoolID, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily rollups: %w", err)
	}
	return rollups, nil
}

// applyProgressUpdate mutates the record in place. CompletedAt is write-once:
// repeated completions keep the first timestamp.
func applyProgressUpdate(progress *models.StudentProgress, req *UpdateProgressRequest, now time.Time, newlyCompleted *bool) {
	progress.ProgressPercent = req.ProgressPercent
	progress.TimeSpentSeconds += req.TimeSpentSeconds
	progress.Attempts++
	progress.LastAccessedAt = &now

	if req.ProgressPercent >= 100 && !progress.IsCompleted {
		progress.IsCompleted = true
		completedAt := now
		progress.CompletedAt = &completedAt
		*newlyCompleted = true
	}
}
