package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/cache"
	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

const (
	paymentStatusDebtor = TagDebtor
	paymentStatusPaid   = "Ödendi"
)

type trackingService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	uploadDir      string
}

func NewTrackingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, eventPublisher events.EventPublisher, uploadDir string) TrackingService {
	return &trackingService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		cacheManager:   cacheManager,
		eventPublisher: eventPublisher,
		uploadDir:      uploadDir,
	}
}

// RecordPayment writes a ledger entry and recomputes the student's billing
// figures in the same transaction, keeping RemainingDebt equal to
// TotalFee minus the sum of completed payments.
func (s *trackingService) RecordPayment(ctx context.Context, schoolID uint, req *CreatePaymentRequest) (*PaymentResponse, error) {
	s.logger.Info("Recording payment", "school_id", schoolID, "student_id", req.StudentID, "amount", req.Amount)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if errs := s.validator.GetBusinessValidator().ValidatePaymentCreate(req, student); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	payment := &models.Payment{
		SchoolID:    schoolID,
		StudentID:   req.StudentID,
		Amount:      req.Amount,
		Type:        req.Type,
		Method:      req.Method,
		Status:      models.PaymentPending,
		Reference:   uuid.NewString(),
		PaymentDate: req.PaymentDate,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}
	if req.PaymentDate != nil {
		payment.Status = models.PaymentCompleted
	}

	var remaining float64
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Payment().Create(ctx, nil, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		remaining, err = s.recomputeBilling(ctx, txRepo, schoolID, student)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, schoolID, student.ID)
	s.publish(ctx, events.NewEvent(events.EventPaymentRecorded, events.PaymentRecordedEvent{
		SchoolID:      schoolID,
		StudentID:     student.ID,
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		RemainingDebt: remaining,
	}))

	return &PaymentResponse{Payment: payment, StudentRemainingDebt: remaining}, nil
}

// UpdatePayment changes the payment status and rolls the student's billing
// forward. Completed payments keep their original amount.
func (s *trackingService) UpdatePayment(ctx context.Context, schoolID, paymentID uint, req *UpdatePaymentRequest) (*PaymentResponse, error) {
	s.logger.Info("Updating payment", "school_id", schoolID, "payment_id", paymentID, "status", req.Status)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	payment, err := s.repo.Payment().GetByID(ctx, nil, schoolID, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, payment.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	payment.Status = req.Status
	if req.Notes != nil {
		payment.Notes = req.Notes
	}
	if req.Status == models.PaymentCompleted && payment.PaymentDate == nil {
		now := time.Now()
		payment.PaymentDate = &now
	}

	var remaining float64
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Payment().Update(ctx, nil, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		remaining, err = s.recomputeBilling(ctx, txRepo, schoolID, student)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, schoolID, student.ID)
	return &PaymentResponse{Payment: payment, StudentRemainingDebt: remaining}, nil
}

func (s *trackingService) ListPayments(ctx context.Context, schoolID uint, filters repositories.PaymentFilters, page, size int) (*PaymentListResponse, error) {
	page, size = normalizePage(page, size)
	filters.Limit = size
	filters.Offset = (page - 1) * size

	payments, total, err := s.repo.Payment().List(ctx, nil, schoolID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &PaymentListResponse{
		Payments: payments,
		Total:    total,
		Page:     page,
		Size:     size,
	}, nil
}

// RecordExamResult upserts the latest exam slot of the given type, moves the
// student along the pipeline on pass or fail, and stamps certificate fields
// on the practice pass that ends the program.
func (s *trackingService) RecordExamResult(ctx context.Context, schoolID uint, req *ExamResultRequest) (*models.ExamResult, error) {
	s.logger.Info("Recording exam result",
		"school_id", schoolID,
		"student_id", req.StudentID,
		"exam_type", req.Type,
		"status", req.Status,
	)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	result, err := s.repo.Exam().GetLatestByStudent(ctx, nil, schoolID, req.StudentID, req.Type)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load exam result: %w", err)
	}
	creating := result == nil || result.Status != models.ExamScheduled
	if creating {
		result = &models.ExamResult{
			SchoolID:  schoolID,
			StudentID: req.StudentID,
			Type:      req.Type,
		}
	}

	result.Status = req.Status
	if req.ScheduledDate != nil {
		result.ScheduledDate = req.ScheduledDate
	}
	if req.CompletedDate != nil {
		result.CompletedDate = req.CompletedDate
	} else if req.Status == models.ExamPassed || req.Status == models.ExamFailed {
		now := time.Now()
		result.CompletedDate = &now
	}
	if req.Score != nil {
		result.Score = req.Score
	}

	if req.Type == models.ExamPractice && req.Status == models.ExamPassed && result.CertificateNumber == nil {
		number := uuid.NewString()
		issued := time.Now()
		result.CertificateNumber = &number
		result.CertificateDate = &issued
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if creating {
			if err := txRepo.Exam().Create(ctx, nil, result); err != nil {
				return fmt.Errorf("failed to create exam result: %w", err)
			}
		} else {
			if err := txRepo.Exam().Update(ctx, nil, result); err != nil {
				return fmt.Errorf("failed to update exam result: %w", err)
			}
		}

		student.ExamStatus = string(req.Status)
		if result.ScheduledDate != nil {
			student.ExamDate = result.ScheduledDate
		}
		if stage, ok := s.stageAfterExam(student.Stage, req.Type, req.Status); ok {
			student.Stage = stage
		}
		if err := txRepo.Student().Update(ctx, nil, student); err != nil {
			return fmt.Errorf("failed to update student: %w", err)
		}
		return txRepo.Student().TouchActivity(ctx, nil, schoolID, student.ID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, schoolID, student.ID)

	var score float64
	if result.Score != nil {
		score = *result.Score
	}
	s.publish(ctx, events.NewEvent(events.EventExamResultRecorded, events.ExamResultEvent{
		SchoolID:  schoolID,
		StudentID: student.ID,
		ExamType:  string(result.Type),
		Status:    string(result.Status),
		Score:     score,
	}))

	return result, nil
}

func (s *trackingService) GetExamResults(ctx context.Context, schoolID, studentID uint) ([]*models.ExamResult, error) {
	if _, err := s.repo.Student().GetByID(ctx, nil, schoolID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	results, err := s.repo.Exam().GetByStudent(ctx, nil, schoolID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam results: %w", err)
	}
	return results, nil
}

// UploadPhoto stores the file under the upload dir and records the relative
// path on the student row.
func (s *trackingService) UploadPhoto(ctx context.Context, schoolID, studentID uint, file *multipart.FileHeader) (string, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, schoolID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStudentNotFound
		}
		return "", fmt.Errorf("failed to get student: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", NewValidationError(fmt.Errorf("unsupported photo format %q", ext))
	}

	dir := filepath.Join(s.uploadDir, fmt.Sprintf("school_%d", schoolID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("student_%d_%s%s", studentID, uuid.NewString(), ext)
	dst := filepath.Join(dir, name)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	relPath := filepath.ToSlash(filepath.Join(fmt.Sprintf("school_%d", schoolID), name))
	student.PhotoPath = &relPath
	if err := s.repo.Student().Update(ctx, nil, student); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to store photo path: %w", err)
	}

	s.invalidate(ctx, schoolID, studentID)
	return relPath, nil
}

// recomputeBilling derives PaidAmount from the completed ledger entries and
// refreshes the stored debt, payment status and next due date.
func (s *trackingService) recomputeBilling(ctx context.Context, txRepo repositories.Repository, schoolID uint, student *models.Student) (float64, error) {
	paid, err := txRepo.Payment().SumCompletedByStudent(ctx, nil, schoolID, student.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}

	remaining := student.TotalFee - paid
	status := paymentStatusPaid
	if remaining > 0 {
		status = paymentStatusDebtor
	}

	nextDue, err := s.nextDueDate(ctx, txRepo, schoolID, student.ID)
	if err != nil {
		return 0, err
	}

	if err := txRepo.Student().UpdateBilling(ctx, nil, schoolID, student.ID, paid, remaining, status, nextDue); err != nil {
		return 0, fmt.Errorf("failed to update billing: %w", err)
	}

	student.PaidAmount = paid
	student.RemainingDebt = remaining
	student.PaymentStatus = status
	student.NextPaymentDate = nextDue
	return remaining, nil
}

func (s *trackingService) nextDueDate(ctx context.Context, txRepo repositories.Repository, schoolID, studentID uint) (*time.Time, error) {
	pending := models.PaymentPending
	payments, _, err := txRepo.Payment().List(ctx, nil, schoolID, repositories.PaymentFilters{
		StudentID: &studentID,
		Status:    &pending,
		Limit:     200,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	var next *time.Time
	for _, p := range payments {
		if p.DueDate == nil {
			continue
		}
		if next == nil || p.DueDate.Before(*next) {
			next = p.DueDate
		}
	}
	return next, nil
}

// stageAfterExam maps an exam outcome to the next pipeline stage. Moves that
// the transition rules forbid for the current stage are skipped.
func (s *trackingService) stageAfterExam(current models.StudentStage, examType models.ExamType, status models.ExamStatus) (models.StudentStage, bool) {
	var target models.StudentStage
	switch status {
	case models.ExamPassed:
		if examType == models.ExamTheory {
			target = models.StagePractice
		} else {
			target = models.StageCompleted
		}
	case models.ExamFailed:
		target = models.StageFailed
	default:
		return "", false
	}

	if errs := s.validator.GetBusinessValidator().ValidateStageTransition(current, target); len(errs) > 0 {
		return "", false
	}
	return target, current != target
}

func (s *trackingService) invalidate(ctx context.Context, schoolID, studentID uint) {
	if s.cacheManager != nil {
		cache.InvalidateStudentCache(ctx, s.cacheManager, schoolID, studentID)
	}
}

func (s *trackingService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
