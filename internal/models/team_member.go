package models

import "time"

// TeamMember assigns a user to a team. UserID carries a unique index so the
// database enforces "one team per user at a time".
type TeamMember struct {
	ID       uint64    `gorm:"primarykey" json:"id"`
	TeamID   uint64    `gorm:"index;not null" json:"team_id"`
	UserID   uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
