package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
)

func newNotificationFixture(t *testing.T) (*mockRepository, *events.MockEventPublisher, NotificationService) {
	t.Helper()
	repo := newMockRepository()
	pub := testPublisher()
	svc := NewNotificationService(repo, nil, testLogger(), testValidator(), pub)
	return repo, pub, svc
}

func TestCreateNotificationDefaults(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	notification, err := svc.Create(context.Background(), 1, &CreateNotificationRequest{
		Title:         "Hoş geldiniz",
		Message:       "Kurs programınız hazır.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if notification.Status != models.NotificationDraft {
		t.Fatalf("expected Draft, got %s", notification.Status)
	}
	if notification.ScheduleKind != models.ScheduleImmediate {
		t.Fatalf("expected immediate kind, got %s", notification.ScheduleKind)
	}
	if notification.OpenRate != 0 || notification.ClickRate != 0 {
		t.Fatal("expected zero rates on a fresh campaign")
	}
}

func TestCreateNotificationScheduledNeedsTime(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	_, err := svc.Create(context.Background(), 1, &CreateNotificationRequest{
		Title:         "Hatırlatma",
		Message:       "Sınav yaklaşıyor.",
		RecipientType: models.RecipientAll,
		ScheduleKind:  models.ScheduleDelayed,
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error without scheduled_at, got %v", err)
	}

	at := time.Now().Add(24 * time.Hour)
	notification, err := svc.Create(context.Background(), 1, &CreateNotificationRequest{
		Title:         "Hatırlatma",
		Message:       "Sınav yaklaşıyor.",
		RecipientType: models.RecipientAll,
		ScheduleKind:  models.ScheduleDelayed,
		ScheduledAt:   &at,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if notification.Status != models.NotificationScheduled {
		t.Fatalf("expected Scheduled, got %s", notification.Status)
	}
}

func TestCreateNotificationSplitsCompositeRecipient(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	notification, err := svc.Create(context.Background(), 1, &CreateNotificationRequest{
		Title:         "Teori grubu",
		Message:       "Ders salonu değişti.",
		RecipientType: models.RecipientType("stage:Theory"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if notification.RecipientType != models.RecipientStage {
		t.Fatalf("expected base recipient type stage, got %s", notification.RecipientType)
	}
	if string(notification.Targeting) != `{"stage":"Theory"}` {
		t.Fatalf("unexpected targeting payload: %s", notification.Targeting)
	}

	_, err = svc.Create(context.Background(), 1, &CreateNotificationRequest{
		Title:         "Geçersiz",
		Message:       "Geçersiz hedef.",
		RecipientType: models.RecipientType("stage:Unknown"),
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation error for unknown stage, got %v", err)
	}
}

func TestSendNotificationResolvesAudience(t *testing.T) {
	repo, pub, svc := newNotificationFixture(t)
	ctx := context.Background()

	seedStudent(repo, 1)
	seedStudent(repo, 1)
	seedInstructor(repo, 1)

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Duyuru",
		Message:       "Tüm kursiyerlere duyurulur.",
		RecipientType: models.RecipientAll,
	})
	if err != nil {
		t.Fatal(err)
	}

	sent, err := svc.Send(ctx, 1, notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sent.Status != models.NotificationSent {
		t.Fatalf("expected Sent, got %s", sent.Status)
	}
	if sent.TotalRecipients != 3 || sent.SentCount != 3 {
		t.Fatalf("expected 3 recipients, got total=%d sent=%d", sent.TotalRecipients, sent.SentCount)
	}

	event, ok := lastEventOfType(pub, events.EventNotificationSent)
	if !ok {
		t.Fatal("expected a notification.sent event")
	}
	data := event.Data.(events.NotificationSentEvent)
	if data.TotalRecipients != 3 || data.Channel != "in_app" {
		t.Fatalf("unexpected event payload: %+v", data)
	}
}

func TestSendNotificationEmptyAudience(t *testing.T) {
	_, _, svc := newNotificationFixture(t)
	ctx := context.Background()

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Boş",
		Message:       "Kimse yok.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatal(err)
	}

	sent, err := svc.Send(ctx, 1, notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sent.TotalRecipients != 0 {
		t.Fatalf("expected empty audience, got %d", sent.TotalRecipients)
	}
	if sent.OpenRate != 0 || sent.ClickRate != 0 {
		t.Fatalf("rates must stay 0 for an empty audience, got open=%.2f click=%.2f", sent.OpenRate, sent.ClickRate)
	}
}

func TestSendNotificationStageAudience(t *testing.T) {
	repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()

	repo.addStudent(models.Student{SchoolID: 1, UserID: 11, Stage: models.StageTheory})
	repo.addStudent(models.Student{SchoolID: 1, UserID: 12, Stage: models.StageTheory})
	repo.addStudent(models.Student{SchoolID: 1, UserID: 13, Stage: models.StagePractice})

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Teori",
		Message:       "Teori dersine gelenler.",
		RecipientType: models.RecipientType("stage:Theory"),
	})
	if err != nil {
		t.Fatal(err)
	}

	sent, err := svc.Send(ctx, 1, notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sent.TotalRecipients != 2 {
		t.Fatalf("expected 2 theory students, got %d", sent.TotalRecipients)
	}
}

func TestSendNotificationSingleStudent(t *testing.T) {
	repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()
	student := seedStudent(repo, 1)

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Kişisel",
		Message:       "Ödemeniz gecikti.",
		RecipientType: models.RecipientType("student:" + uintString(student.ID)),
	})
	if err != nil {
		t.Fatal(err)
	}

	sent, err := svc.Send(ctx, 1, notification.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sent.TotalRecipients != 1 {
		t.Fatalf("expected single recipient, got %d", sent.TotalRecipients)
	}
}

func TestSendNotificationTwiceFails(t *testing.T) {
	_, _, svc := newNotificationFixture(t)
	ctx := context.Background()

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Tek sefer",
		Message:       "Bir kez gönderilir.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, 1, notification.ID); !errors.Is(err, ErrNotificationNotDraft) {
		t.Fatalf("expected ErrNotificationNotDraft on second send, got %v", err)
	}

	// Resend is the explicit path for an already-sent campaign.
	if _, err := svc.Resend(ctx, 1, notification.ID); err != nil {
		t.Fatalf("resend failed: %v", err)
	}
}

func TestMarkReadAndClicked(t *testing.T) {
	repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()
	seedStudent(repo, 1)

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Okundu testi",
		Message:       "Mesaj.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.MarkRead(ctx, 1, notification.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if err := svc.MarkClicked(ctx, 1, notification.ID); err != nil {
		t.Fatalf("mark clicked failed: %v", err)
	}

	stored := repo.storedNotification(notification.ID)
	if stored.OpenedCount != 1 || stored.ClickedCount != 1 {
		t.Fatalf("unexpected counters: opened=%d clicked=%d", stored.OpenedCount, stored.ClickedCount)
	}
	stored.ComputeRates()
	if stored.OpenRate != 100 {
		t.Fatalf("expected 100 percent open rate, got %.2f", stored.OpenRate)
	}
}

func TestResendResetsEngagementCounters(t *testing.T) {
	repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()
	seedStudent(repo, 1)

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Tekrar gönderim",
		Message:       "Mesaj.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkRead(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkClicked(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}

	resent, err := svc.Resend(ctx, 1, notification.ID)
	if err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if resent.OpenedCount != 0 || resent.ClickedCount != 0 {
		t.Fatalf("resend kept stale counters: opened=%d clicked=%d", resent.OpenedCount, resent.ClickedCount)
	}

	stored := repo.storedNotification(notification.ID)
	if stored.OpenedCount != 0 || stored.ClickedCount != 0 {
		t.Fatalf("persisted counters survived resend: opened=%d clicked=%d", stored.OpenedCount, stored.ClickedCount)
	}
	stored.ComputeRates()
	if stored.OpenRate != 0 || stored.ClickRate != 0 {
		t.Fatalf("rates should restart with the new dispatch, got open=%.2f click=%.2f", stored.OpenRate, stored.ClickRate)
	}
}

func TestCancelNotification(t *testing.T) {
	repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "İptal",
		Message:       "İptal edilecek.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Cancel(ctx, 1, notification.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := repo.storedNotification(notification.ID).Status; got != models.NotificationCancelled {
		t.Fatalf("expected Cancelled, got %s", got)
	}
	if err := svc.Cancel(ctx, 1, notification.ID); !errors.Is(err, ErrNotificationNotDraft) {
		t.Fatalf("expected ErrNotificationNotDraft on second cancel, got %v", err)
	}
}

func TestTemplateAndRuleLifecycle(t *testing.T) {
	_, _, svc := newNotificationFixture(t)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, 1, &RuleRequest{
		Trigger:    models.TriggerPaymentDue,
		DaysBefore: 3,
		TemplateID: 999,
	})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	template, err := svc.CreateTemplate(ctx, 1, &TemplateRequest{
		Name:            "payment-due",
		TitleTemplate:   "Ödeme hatırlatması",
		MessageTemplate: "Sayın {{name}}, {{amount}} TL ödemeniz {{due_date}} tarihinde.",
		Variables:       `["name","amount","due_date"]`,
	})
	if err != nil {
		t.Fatalf("create template failed: %v", err)
	}

	rule, err := svc.CreateRule(ctx, 1, &RuleRequest{
		Trigger:    models.TriggerPaymentDue,
		DaysBefore: 3,
		TemplateID: template.ID,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if !rule.Enabled {
		t.Fatal("rules default to enabled")
	}

	disabled := false
	updated, err := svc.UpdateRule(ctx, 1, rule.ID, &RuleRequest{
		Trigger:    models.TriggerPaymentDue,
		DaysBefore: 5,
		TemplateID: template.ID,
		Enabled:    &disabled,
	})
	if err != nil {
		t.Fatalf("update rule failed: %v", err)
	}
	if updated.Enabled || updated.DaysBefore != 5 {
		t.Fatalf("unexpected rule after update: %+v", updated)
	}

	rules, err := svc.ListRules(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected one rule, got %d", len(rules))
	}
}

func TestGetAnalytics(t *testing.T) {
	repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()
	seedStudent(repo, 1)

	notification, err := svc.Create(ctx, 1, &CreateNotificationRequest{
		Title:         "Analitik",
		Message:       "Mesaj.",
		RecipientType: models.RecipientStudents,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkRead(ctx, 1, notification.ID); err != nil {
		t.Fatal(err)
	}

	analytics, err := svc.GetAnalytics(ctx, 1)
	if err != nil {
		t.Fatalf("get analytics failed: %v", err)
	}
	if analytics.TotalNotifications != 1 || analytics.TotalOpened != 1 {
		t.Fatalf("unexpected analytics: %+v", analytics.NotificationAnalytics)
	}
	if len(analytics.Notifications) != 1 {
		t.Fatalf("expected the sent campaign listed, got %d", len(analytics.Notifications))
	}
	if analytics.Notifications[0].OpenRate != 100 {
		t.Fatalf("expected 100 percent open rate, got %.2f", analytics.Notifications[0].OpenRate)
	}
}
