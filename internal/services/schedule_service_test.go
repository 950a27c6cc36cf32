package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
)

func newScheduleFixture(t *testing.T) (*mockRepository, *events.MockEventPublisher, ScheduleService, *models.Student, *models.Instructor) {
	t.Helper()
	repo := newMockRepository()
	pub := testPublisher()
	svc := NewScheduleService(repo, nil, testLogger(), testValidator(), nil, pub)
	student := seedStudent(repo, 1)
	instructor := seedInstructor(repo, 1)
	return repo, pub, svc, student, instructor
}

func TestBookLessonRejectsOverlap(t *testing.T) {
	_, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	first := &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(10),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
	}
	if _, err := svc.BookLesson(ctx, 1, first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	second := &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(10).Add(30 * time.Minute),
		DurationMinutes: 30,
		LessonType:      models.LessonPractice,
	}
	if _, err := svc.BookLesson(ctx, 1, second); !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("expected ErrScheduleConflict, got %v", err)
	}

	disjoint := &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(11),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
	}
	if _, err := svc.BookLesson(ctx, 1, disjoint); err != nil {
		t.Fatalf("disjoint booking failed: %v", err)
	}
}

func TestBookLessonInstructorConflictAcrossStudents(t *testing.T) {
	repo, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()
	other := seedStudent(repo, 1)

	first := &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(14),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
	}
	if _, err := svc.BookLesson(ctx, 1, first); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	second := &BookLessonRequest{
		StudentID:       other.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(14).Add(30 * time.Minute),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
	}
	if _, err := svc.BookLesson(ctx, 1, second); !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("expected instructor conflict, got %v", err)
	}
}

func TestBookLessonValidation(t *testing.T) {
	_, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	past := &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   time.Now().Add(-2 * time.Hour),
		DurationMinutes: 60,
		LessonType:      models.LessonTheory,
	}
	if _, err := svc.BookLesson(ctx, 1, past); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error for past date, got %v", err)
	}

	oddDuration := &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(10),
		DurationMinutes: 45,
		LessonType:      models.LessonTheory,
	}
	if _, err := svc.BookLesson(ctx, 1, oddDuration); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error for 45 minute lesson, got %v", err)
	}
}

func TestBookLessonUnknownParticipants(t *testing.T) {
	_, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	req := &BookLessonRequest{
		StudentID:       9999,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(10),
		DurationMinutes: 60,
		LessonType:      models.LessonTheory,
	}
	if _, err := svc.BookLesson(ctx, 1, req); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}

	req.StudentID = student.ID
	req.InstructorID = 9999
	if _, err := svc.BookLesson(ctx, 1, req); !errors.Is(err, ErrInstructorNotFound) {
		t.Fatalf("expected ErrInstructorNotFound, got %v", err)
	}
}

func TestBookLessonPublishesEvent(t *testing.T) {
	_, pub, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	resp, err := svc.BookLesson(ctx, 1, &BookLessonRequest{
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(9),
		DurationMinutes: 90,
		LessonType:      models.LessonTheory,
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if resp.Schedule.Status != models.ScheduleScheduled {
		t.Fatalf("expected Scheduled status, got %s", resp.Schedule.Status)
	}

	event, ok := lastEventOfType(pub, events.EventScheduleBooked)
	if !ok {
		t.Fatal("expected a schedule.booked event")
	}
	if event.Source != "drivingschool-service" || event.Version != "1.0" {
		t.Fatalf("unexpected event envelope: source=%s version=%s", event.Source, event.Version)
	}
	data, ok := event.Data.(events.ScheduleEvent)
	if !ok {
		t.Fatalf("unexpected event payload type %T", event.Data)
	}
	if data.ScheduleID != resp.Schedule.ID || data.LessonType != "theory" {
		t.Fatalf("unexpected event payload: %+v", data)
	}
}

func TestCancelScheduleInsideCutoff(t *testing.T) {
	repo, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	schedule := &models.Schedule{
		SchoolID:        1,
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   time.Now().Add(2 * time.Hour),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
		Status:          models.ScheduleScheduled,
	}
	if err := repo.Schedule().Create(ctx, nil, schedule); err != nil {
		t.Fatal(err)
	}

	if err := svc.CancelSchedule(ctx, 1, schedule.ID); !errors.Is(err, ErrCancellationTooLate) {
		t.Fatalf("expected ErrCancellationTooLate, got %v", err)
	}
	if got := repo.storedSchedule(schedule.ID).Status; got != models.ScheduleScheduled {
		t.Fatalf("schedule status changed to %s", got)
	}
}

func TestCancelScheduleOutsideCutoff(t *testing.T) {
	repo, pub, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	schedule := &models.Schedule{
		SchoolID:        1,
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   time.Now().Add(48 * time.Hour),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
		Status:          models.ScheduleScheduled,
	}
	if err := repo.Schedule().Create(ctx, nil, schedule); err != nil {
		t.Fatal(err)
	}

	if err := svc.CancelSchedule(ctx, 1, schedule.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := repo.storedSchedule(schedule.ID).Status; got != models.ScheduleCancelled {
		t.Fatalf("expected Cancelled, got %s", got)
	}
	if _, ok := lastEventOfType(pub, events.EventScheduleCancelled); !ok {
		t.Fatal("expected a schedule.cancelled event")
	}
}

func TestCancelScheduleWrongState(t *testing.T) {
	repo, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	schedule := &models.Schedule{
		SchoolID:        1,
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   time.Now().Add(72 * time.Hour),
		DurationMinutes: 60,
		LessonType:      models.LessonTheory,
		Status:          models.ScheduleCompleted,
	}
	if err := repo.Schedule().Create(ctx, nil, schedule); err != nil {
		t.Fatal(err)
	}

	if err := svc.CancelSchedule(ctx, 1, schedule.ID); !errors.Is(err, ErrScheduleNotCancelable) {
		t.Fatalf("expected ErrScheduleNotCancelable, got %v", err)
	}
}

func TestCompleteLessonBumpsCounters(t *testing.T) {
	repo, pub, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	schedule := &models.Schedule{
		SchoolID:        1,
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   time.Now().Add(-time.Hour),
		DurationMinutes: 60,
		LessonType:      models.LessonTheory,
		Status:          models.ScheduleScheduled,
	}
	if err := repo.Schedule().Create(ctx, nil, schedule); err != nil {
		t.Fatal(err)
	}

	if err := svc.CompleteLesson(ctx, 1, schedule.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	stored := repo.storedStudent(student.ID)
	if stored.TheoryLessonsCompleted != 1 {
		t.Fatalf("expected 1 completed theory lesson, got %d", stored.TheoryLessonsCompleted)
	}
	if stored.LastActivityAt == nil {
		t.Fatal("expected activity timestamp to be touched")
	}
	if got := repo.storedSchedule(schedule.ID).Status; got != models.ScheduleCompleted {
		t.Fatalf("expected Completed, got %s", got)
	}
	if _, ok := lastEventOfType(pub, events.EventLessonCompleted); !ok {
		t.Fatal("expected a lesson completed event")
	}

	// Completing again is a no-op.
	pub.ClearEvents()
	if err := svc.CompleteLesson(ctx, 1, schedule.ID); err != nil {
		t.Fatalf("second complete failed: %v", err)
	}
	if repo.storedStudent(student.ID).TheoryLessonsCompleted != 1 {
		t.Fatal("counter bumped twice for the same lesson")
	}
	if len(pub.GetPublishedEvents()) != 0 {
		t.Fatal("idempotent completion published an event")
	}
}

func TestGetAvailableSlots(t *testing.T) {
	repo, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()
	day := tomorrowAt(0)

	booked := &models.Schedule{
		SchoolID:        1,
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(10),
		DurationMinutes: 90,
		LessonType:      models.LessonPractice,
		Status:          models.ScheduleScheduled,
	}
	if err := repo.Schedule().Create(ctx, nil, booked); err != nil {
		t.Fatal(err)
	}

	slots, err := svc.GetAvailableSlots(ctx, 1, instructor.ID, day)
	if err != nil {
		t.Fatalf("available slots failed: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("expected 9 hourly slots, got %d", len(slots))
	}
	for _, slot := range slots {
		wantAvailable := true
		switch slot.Start.Hour() {
		case 10, 11:
			// 10:00 lesson runs 90 minutes into the 11:00 slot.
			wantAvailable = false
		}
		if slot.Available != wantAvailable {
			t.Fatalf("slot %s availability = %v, want %v", slot.Start.Format("15:04"), slot.Available, wantAvailable)
		}
	}
}

func TestGetAvailableSlotsIgnoresCancelled(t *testing.T) {
	repo, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	cancelled := &models.Schedule{
		SchoolID:        1,
		StudentID:       student.ID,
		InstructorID:    instructor.ID,
		ScheduledDate:   tomorrowAt(10),
		DurationMinutes: 60,
		LessonType:      models.LessonPractice,
		Status:          models.ScheduleCancelled,
	}
	if err := repo.Schedule().Create(ctx, nil, cancelled); err != nil {
		t.Fatal(err)
	}

	slots, err := svc.GetAvailableSlots(ctx, 1, instructor.ID, tomorrowAt(0))
	if err != nil {
		t.Fatalf("available slots failed: %v", err)
	}
	for _, slot := range slots {
		if !slot.Available {
			t.Fatalf("slot %s blocked by a cancelled booking", slot.Start.Format("15:04"))
		}
	}
}

func TestGetMySchedules(t *testing.T) {
	repo, _, svc, student, instructor := newScheduleFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		schedule := &models.Schedule{
			SchoolID:        1,
			StudentID:       student.ID,
			InstructorID:    instructor.ID,
			ScheduledDate:   tomorrowAt(9 + i),
			DurationMinutes: 60,
			LessonType:      models.LessonTheory,
			Status:          models.ScheduleScheduled,
		}
		if err := repo.Schedule().Create(ctx, nil, schedule); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := svc.GetMySchedules(ctx, 1, student.ID, 1, 20)
	if err != nil {
		t.Fatalf("GetMySchedules failed: %v", err)
	}
	if resp.Total != 3 || len(resp.Schedules) != 3 {
		t.Fatalf("expected 3 schedules, got total=%d len=%d", resp.Total, len(resp.Schedules))
	}
}
