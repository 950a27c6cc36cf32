package services

import (
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/DSM-2025/drivingschool-service/internal/events"
	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *validator.Validator {
	return validator.New()
}

func testPublisher() *events.MockEventPublisher {
	return events.NewMockEventPublisher(testLogger())
}

// tomorrowAt returns tomorrow at the given hour, truncated to the hour, so
// booking fixtures always pass the future-date rule.
func tomorrowAt(hour int) time.Time {
	now := time.Now().AddDate(0, 0, 1)
	return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.Local)
}

func seedStudent(repo *mockRepository, schoolID uint) *models.Student {
	return repo.addStudent(models.Student{
		SchoolID: schoolID,
		UserID:   schoolID*100 + 1,
		Stage:    models.StageRegistered,
		User: models.User{
			FullName: "Ayşe Yılmaz",
			Email:    "ayse@example.com",
		},
	})
}

func seedInstructor(repo *mockRepository, schoolID uint) *models.Instructor {
	return repo.addInstructor(models.Instructor{
		SchoolID:     schoolID,
		UserID:       schoolID*100 + 2,
		LicenseClass: "B",
		IsActive:     true,
	})
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func lastEventOfType(pub *events.MockEventPublisher, eventType string) (events.Event, bool) {
	published := pub.GetPublishedEvents()
	for i := len(published) - 1; i >= 0; i-- {
		if published[i].Type == eventType {
			return published[i], true
		}
	}
	return events.Event{}, false
}
