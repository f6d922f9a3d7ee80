package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurposeAuth is the only purpose currently issued.
const TokenPurposeAuth = "auth"

// UserToken is one entry in a user's set of currently valid bearer tokens.
// Each row is inserted on login and deleted on logout, so the set is mutated
// with single-row statements and never read-modify-written as a whole.
type UserToken struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"-" gorm:"type:char(36);not null;index"`
	Purpose   string    `json:"-" gorm:"size:20;not null;default:'auth'"`
	Token     string    `json:"-" gorm:"size:512;not null;index:idx_user_tokens_token,length:255"`
	CreatedAt time.Time `json:"-"`
}
