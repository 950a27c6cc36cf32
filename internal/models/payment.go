package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentOverdue   PaymentStatus = "Overdue"
	PaymentCancelled PaymentStatus = "Cancelled"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentType string

const (
	PaymentEnrollment  PaymentType = "enrollment"
	PaymentInstallment PaymentType = "installment"
	PaymentExamFee     PaymentType = "exam_fee"
	PaymentOther       PaymentType = "other"
)

// Payment belongs to one student and one tenant. Completed payments are
// immutable except for status and notes.
type Payment struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SchoolID  uint `json:"school_id" gorm:"not null;index"`
	StudentID uint `json:"student_id" gorm:"not null;index"`

	Amount float64       `json:"amount" gorm:"not null" validate:"required,gt=0"`
	Type   PaymentType   `json:"type" gorm:"not null;size:20" validate:"required,oneof=enrollment installment exam_fee other"`
	Method PaymentMethod `json:"method" gorm:"not null;size:20" validate:"required,oneof=cash card bank_transfer"`
	Status PaymentStatus `json:"status" gorm:"not null;size:20;default:Pending;index" validate:"omitempty,oneof=Pending Completed Overdue Cancelled"`

	// Gateway/receipt correlation id.
	Reference string `json:"reference" gorm:"size:36;uniqueIndex"`

	PaymentDate *time.Time `json:"payment_date"`
	DueDate     *time.Time `json:"due_date"`
	Notes       *string    `json:"notes" gorm:"type:text" validate:"omitempty,max=500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
