package models

import "time"

// QuestCompletion is a user's record of finishing one daily slot. The
// unique (daily_item, user) index is what makes double-completion impossible
// under concurrent requests.
type QuestCompletion struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	DailyItemID uint64    `gorm:"not null;uniqueIndex:uq_completion_item_user" json:"daily_item_id"`
	UserID      uint64    `gorm:"not null;uniqueIndex:uq_completion_item_user;index:idx_completion_user_time" json:"user_id"`
	CompletedAt time.Time `gorm:"index:idx_completion_user_time" json:"completed_at"`

	// Relations
	DailyItem DailyQuestItem `gorm:"foreignKey:DailyItemID" json:"-"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
