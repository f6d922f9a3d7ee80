package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Todo represents a task owned by exactly one user. OwnerID is set at
// creation and never reassigned; every query against todos is scoped by it.
type Todo struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Text        string    `json:"text" gorm:"size:1024;not null"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	CompletedAt *int64    `json:"completed_at" gorm:"default:null"` // unix milliseconds, null while not completed
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
