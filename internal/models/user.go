package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleInstructor UserRole = "instructor"
	RoleStudent    UserRole = "student"
)

type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	SchoolID uint   `json:"school_id" gorm:"not null;index"`
	FullName string `json:"full_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`

	// Turkish national identity number, unique per deployment. Used as an
	// alternative login credential.
	TCNumber string `json:"tc_number" gorm:"column:tc_number;uniqueIndex;size:11" validate:"omitempty,len=11,numeric"`

	Phone        string   `json:"phone" gorm:"size:20"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:20;index" validate:"required,oneof=admin instructor student"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
