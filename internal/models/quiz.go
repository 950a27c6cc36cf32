package models

import (
	"time"

	"gorm.io/gorm"
)

type Quiz struct {
	ID       uint  `json:"id" gorm:"primaryKey"`
	SchoolID uint  `json:"school_id" gorm:"not null;index"`
	CourseID *uint `json:"course_id" gorm:"index"`

	Title        string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description  *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	PassingScore int     `json:"passing_score" gorm:"default:70" validate:"min=0,max=100"`
	TimeLimit    int     `json:"time_limit" gorm:"default:0"` // minutes, 0 = unlimited

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID"`

	// Computed, not stored
	QuestionCount int `json:"question_count" gorm:"-"`
	TotalPoints   int `json:"total_points" gorm:"-"`
}

type QuizQuestion struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	QuizID uint `json:"quiz_id" gorm:"not null;index"`

	Text      string `json:"text" gorm:"not null;type:text" validate:"required,min=1,max=2000"`
	Points    int    `json:"points" gorm:"default:1" validate:"min=1,max=100"`
	SortOrder int    `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []QuizOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

type QuizOption struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	Text      string `json:"text" gorm:"not null;size:500" validate:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct" gorm:"default:false"`
	SortOrder int    `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

func (QuizOption) TableName() string {
	return "quiz_options"
}
