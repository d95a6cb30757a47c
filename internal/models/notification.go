package models

import "time"

type NotificationType string

const (
	NotificationMemberCompleted NotificationType = "member_completed"
	NotificationDailyReady      NotificationType = "daily_ready"
	NotificationTeamRankUp      NotificationType = "team_rank_up"
	NotificationSystem          NotificationType = "system"
)

// Notification is an append-only team-visible event. ActorID is set for
// events caused by a specific member (completions) and nil for system-level
// events (rank up, daily set ready).
type Notification struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	TeamID    uint64           `gorm:"not null;index:idx_notifications_team_time" json:"team_id"`
	Type      NotificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	ActorID   *uint64          `json:"actor_id,omitempty"`
	CreatedAt time.Time        `gorm:"index:idx_notifications_team_time" json:"created_at"`

	// Relations
	Team  Team  `gorm:"foreignKey:TeamID" json:"-"`
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
