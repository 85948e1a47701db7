package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment lifecycle states.
const (
	AssignmentStatusPending = "PENDING"
	AssignmentStatusGraded  = "GRADED"
	AssignmentStatusOverdue = "OVERDUE"
)

// Assignment represents a unit of submitted handwriting work tracked through
// PENDING/GRADED/OVERDUE states. Assignments are created on first grading
// submission when no existing identifier is supplied and are never deleted by
// the grading workflow.
type Assignment struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Subject     string          `gorm:"size:128" json:"subject"`
	Description string          `gorm:"type:text" json:"description"`
	DueDate     time.Time       `gorm:"not null" json:"due_date"`
	Status      string          `gorm:"size:16;not null;default:PENDING" json:"status"`
	OwnerID     string          `gorm:"size:36;not null;index" json:"owner_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Results     []GradingResult `gorm:"foreignKey:AssignmentID" json:"results,omitempty"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (a *Assignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsGraded reports whether at least one grading result has been stored.
func (a Assignment) IsGraded() bool {
	return a.Status == AssignmentStatusGraded
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
