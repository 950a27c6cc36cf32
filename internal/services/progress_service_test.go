package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/models"
)

func newProgressFixture(t *testing.T) (*mockRepository, ProgressService, *models.Student, *models.CourseContent, *models.CourseContent) {
	t.Helper()
	repo := newMockRepository()
	svc := NewProgressService(repo, nil, testLogger(), testValidator())

	student := repo.addStudent(models.Student{
		SchoolID:             1,
		UserID:               10,
		Stage:                models.StageTheory,
		TheoryLessonsTotal:   10,
		PracticeLessonsTotal: 0,
	})
	lesson := repo.addContent(models.CourseContent{
		SchoolID: 1,
		CourseID: 50,
		Title:    "Trafik işaretleri",
		Kind:     models.ContentVideo,
	})
	quiz := repo.addContent(models.CourseContent{
		SchoolID: 1,
		CourseID: 50,
		Title:    "İşaretler sınavı",
		Kind:     models.ContentQuiz,
	})
	return repo, svc, student, lesson, quiz
}

func TestUpdateProgressCreatesRecord(t *testing.T) {
	_, svc, student, lesson, _ := newProgressFixture(t)
	ctx := context.Background()

	progress, err := svc.UpdateProgress(ctx, 1, student.ID, &UpdateProgressRequest{
		ContentID:        lesson.ID,
		ProgressPercent:  40,
		TimeSpentSeconds: 300,
	})
	if err != nil {
		t.Fatalf("update progress failed: %v", err)
	}
	if progress.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", progress.Attempts)
	}
	if progress.IsCompleted || progress.CompletedAt != nil {
		t.Fatal("40 percent must not mark the content completed")
	}
	if progress.LastAccessedAt == nil {
		t.Fatal("expected last accessed timestamp")
	}
}

func TestUpdateProgressAccumulates(t *testing.T) {
	_, svc, student, lesson, _ := newProgressFixture(t)
	ctx := context.Background()

	for _, percent := range []float64{30, 60} {
		if _, err := svc.UpdateProgress(ctx, 1, student.ID, &UpdateProgressRequest{
			ContentID:        lesson.ID,
			ProgressPercent:  percent,
			TimeSpentSeconds: 100,
		}); err != nil {
			t.Fatalf("update progress failed: %v", err)
		}
	}

	progress, err := svc.UpdateProgress(ctx, 1, student.ID, &UpdateProgressRequest{
		ContentID:        lesson.ID,
		ProgressPercent:  90,
		TimeSpentSeconds: 100,
	})
	if err != nil {
		t.Fatalf("update progress failed: %v", err)
	}
	if progress.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", progress.Attempts)
	}
	if progress.TimeSpentSeconds != 300 {
		t.Fatalf("expected accumulated 300 seconds, got %d", progress.TimeSpentSeconds)
	}
	if progress.ProgressPercent != 90 {
		t.Fatalf("expected percent overwritten to 90, got %.0f", progress.ProgressPercent)
	}
}

func TestUpdateProgressCompletedAtWriteOnce(t *testing.T) {
	_, svc, student, lesson, _ := newProgressFixture(t)
	ctx := context.Background()

	first, err := svc.UpdateProgress(ctx, 1, student.ID, &UpdateProgressRequest{
		ContentID:       lesson.ID,
		ProgressPercent: 100,
	})
	if err != nil {
		t.Fatalf("update progress failed: %v", err)
	}
	if !first.IsCompleted || first.CompletedAt == nil {
		t.Fatal("expected completion on reaching 100 percent")
	}
	completedAt := *first.CompletedAt

	time.Sleep(10 * time.Millisecond)
	second, err := svc.UpdateProgress(ctx, 1, student.ID, &UpdateProgressRequest{
		ContentID:       lesson.ID,
		ProgressPercent: 100,
	})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if !second.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed timestamp moved from %v to %v", completedAt, second.CompletedAt)
	}
	if second.Attempts != 2 {
		t.Fatalf("expected attempts to keep counting, got %d", second.Attempts)
	}
}

func TestUpdateProgressUnknownContent(t *testing.T) {
	_, svc, student, _, _ := newProgressFixture(t)

	_, err := svc.UpdateProgress(context.Background(), 1, student.ID, &UpdateProgressRequest{
		ContentID:       9999,
		ProgressPercent: 50,
	})
	if !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
}

func TestCompleteContentUpdatesRollup(t *testing.T) {
	repo, svc, student, lesson, quizContent := newProgressFixture(t)
	ctx := context.Background()

	if _, err := svc.CompleteContent(ctx, 1, student.ID, lesson.ID); err != nil {
		t.Fatalf("complete lesson failed: %v", err)
	}
	if _, err := svc.CompleteContent(ctx, 1, student.ID, quizContent.ID); err != nil {
		t.Fatalf("complete quiz failed: %v", err)
	}
	// A repeated completion must not double-count in the rollup.
	if _, err := svc.CompleteContent(ctx, 1, student.ID, lesson.ID); err != nil {
		t.Fatalf("repeat completion failed: %v", err)
	}

	from := time.Now().AddDate(0, 0, -1)
	to := time.Now().AddDate(0, 0, 1)
	rollups, err := svc.GetDailyRollups(ctx, 1, student.ID, from, to)
	if err != nil {
		t.Fatalf("get rollups failed: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("expected a single daily rollup, got %d", len(rollups))
	}
	if rollups[0].LessonsCompleted != 1 || rollups[0].QuizzesCompleted != 1 {
		t.Fatalf("unexpected rollup counts: %+v", rollups[0])
	}

	stored := repo.storedStudent(student.ID)
	if stored.LastActivityAt == nil {
		t.Fatal("expected activity touched by progress updates")
	}
}

func TestGetSummary(t *testing.T) {
	_, svc, student, lesson, quizContent := newProgressFixture(t)
	ctx := context.Background()

	if _, err := svc.CompleteContent(ctx, 1, student.ID, lesson.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateProgress(ctx, 1, student.ID, &UpdateProgressRequest{
		ContentID:        quizContent.ID,
		ProgressPercent:  80,
		TimeSpentSeconds: 120,
	}); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.GetSummary(ctx, 1, student.ID, 50)
	if err != nil {
		t.Fatalf("get summary failed: %v", err)
	}
	if summary.TotalLessons != 1 || summary.CompletedLessons != 1 {
		t.Fatalf("unexpected lesson counts: %+v", summary.ProgressSummary)
	}
	if summary.TotalQuizzes != 1 || summary.CompletedQuizzes != 0 {
		t.Fatalf("unexpected quiz counts: %+v", summary.ProgressSummary)
	}
	if summary.AverageQuizScore != 80 {
		t.Fatalf("expected average quiz score 80, got %.2f", summary.AverageQuizScore)
	}
}

func TestGetSummaryZeroTotals(t *testing.T) {
	repo := newMockRepository()
	svc := NewProgressService(repo, nil, testLogger(), testValidator())
	student := repo.addStudent(models.Student{SchoolID: 1, UserID: 10})

	summary, err := svc.GetSummary(context.Background(), 1, student.ID, 50)
	if err != nil {
		t.Fatalf("get summary failed: %v", err)
	}
	if summary.OverallPercent != 0 {
		t.Fatalf("expected 0 percent with zero lesson totals, got %.2f", summary.OverallPercent)
	}
}
