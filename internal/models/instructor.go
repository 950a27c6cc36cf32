package models

import (
	"time"

	"gorm.io/gorm"
)

type Instructor struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	SchoolID uint `json:"school_id" gorm:"not null;index"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex"`

	LicenseClass string `json:"license_class" gorm:"size:10" validate:"omitempty,max=10"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Instructor) TableName() string {
	return "instructors"
}
