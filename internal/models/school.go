package models

import (
	"time"

	"gorm.io/gorm"
)

// DrivingSchool is the tenant boundary. Every domain row carries its id and
// every repository query filters by it.
type DrivingSchool struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	City    string `json:"city" gorm:"size:100"`
	Phone   string `json:"phone" gorm:"size:20"`
	Email   string `json:"email" gorm:"size:255"`
	Address string `json:"address" gorm:"size:500"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (DrivingSchool) TableName() string {
	return "driving_schools"
}
