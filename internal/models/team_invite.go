package models

import (
	"time"
)

// TeamInvite is the single invite code a team hands out. Regenerating
// replaces the code in place; TeamID is unique so there is exactly one row
// per team.
type TeamInvite struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	TeamID    uint64     `gorm:"uniqueIndex;not null" json:"team_id"`
	Code      string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"-"`
}
