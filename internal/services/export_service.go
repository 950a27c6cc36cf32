package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/DSM-2025/drivingschool-service/internal/repositories"
)

const exportBatchSize = 500

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportStudents writes the tenant's full roster to a single-sheet workbook.
func (s *exportService) ExportStudents(ctx context.Context, schoolID uint) ([]byte, string, error) {
	s.logger.Info("Exporting student roster", "school_id", schoolID)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Students"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []interface{}{
		"ID", "Name", "Email", "Phone", "Stage",
		"Total Fee", "Paid Amount", "Remaining Debt", "Payment Status",
		"Theory Lessons", "Practice Lessons", "Progress %", "Tags", "Registered At",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, "", fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	for offset := 0; ; offset += exportBatchSize {
		students, _, err := s.repo.Student().List(ctx, nil, schoolID, repositories.StudentFilters{
			Limit:     exportBatchSize,
			Offset:    offset,
			SortBy:    "created_at",
			SortOrder: "asc",
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to list students: %w", err)
		}
		for _, st := range students {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				st.ID,
				st.User.FullName,
				st.User.Email,
				st.User.Phone,
				string(st.Stage),
				st.TotalFee,
				st.PaidAmount,
				st.RemainingDebt,
				st.PaymentStatus,
				fmt.Sprintf("%d/%d", st.TheoryLessonsCompleted, st.TheoryLessonsTotal),
				fmt.Sprintf("%d/%d", st.PracticeLessonsCompleted, st.PracticeLessonsTotal),
				roundFloat(st.ProgressPercent(), 1),
				st.Tags,
				st.CreatedAt.Format("2006-01-02"),
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, "", fmt.Errorf("failed to write student row: %w", err)
			}
			row++
		}
		if len(students) < exportBatchSize {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("students_%d_%s.xlsx", schoolID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// ExportPayments writes the payment ledger with a closing revenue summary.
func (s *exportService) ExportPayments(ctx context.Context, schoolID uint) ([]byte, string, error) {
	s.logger.Info("Exporting payment ledger", "school_id", schoolID)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Payments"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []interface{}{
		"ID", "Student ID", "Amount", "Type", "Method",
		"Status", "Reference", "Payment Date", "Due Date", "Notes",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, "", fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	for offset := 0; ; offset += exportBatchSize {
		payments, _, err := s.repo.Payment().List(ctx, nil, schoolID, repositories.PaymentFilters{
			Limit:  exportBatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to list payments: %w", err)
		}
		for _, p := range payments {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				p.ID,
				p.StudentID,
				p.Amount,
				string(p.Type),
				string(p.Method),
				string(p.Status),
				p.Reference,
				formatDate(p.PaymentDate),
				formatDate(p.DueDate),
				derefString(p.Notes),
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, "", fmt.Errorf("failed to write payment row: %w", err)
			}
			row++
		}
		if len(payments) < exportBatchSize {
			break
		}
	}

	summary, err := s.repo.Payment().GetRevenueSummary(ctx, nil, schoolID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get revenue summary: %w", err)
	}
	row++
	for _, line := range [][]interface{}{
		{"Total Collected", summary.TotalCollected},
		{"Total Outstanding", summary.TotalOutstanding},
		{"Overdue Payments", summary.OverdueCount},
		{"Pending Payments", summary.PendingCount},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return nil, "", fmt.Errorf("failed to write summary row: %w", err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("payments_%d_%s.xlsx", schoolID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
