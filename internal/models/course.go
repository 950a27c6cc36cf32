package models

import (
	"time"

	"gorm.io/gorm"
)

type LessonType string

const (
	LessonTheory   LessonType = "theory"
	LessonPractice LessonType = "practice"
)

type ContentKind string

const (
	ContentVideo    ContentKind = "video"
	ContentDocument ContentKind = "document"
	ContentQuiz     ContentKind = "quiz"
)

type Course struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`

	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Type        LessonType `json:"type" gorm:"not null;size:10" validate:"required,oneof=theory practice"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Contents []CourseContent `json:"contents,omitempty" gorm:"foreignKey:CourseID"`

	// Computed, not stored
	ContentCount int `json:"content_count" gorm:"-"`
}

type CourseContent struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`
	CourseID uint `json:"course_id" gorm:"not null;index"`

	Title           string      `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Kind            ContentKind `json:"kind" gorm:"not null;size:10" validate:"required,oneof=video document quiz"`
	Body            *string     `json:"body" gorm:"type:text"`
	URL             *string     `json:"url" gorm:"size:500" validate:"omitempty,url"`
	DurationMinutes int         `json:"duration_minutes" gorm:"default:0" validate:"min=0,max=600"`
	SortOrder       int         `json:"sort_order" gorm:"default:0"`

	// Set when Kind is quiz.
	QuizID *uint `json:"quiz_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (CourseContent) TableName() string {
	return "course_contents"
}
