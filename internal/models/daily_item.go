package models

import "time"

// DailyQuestItem is one of the four quest slots inside a DailyQuestSet.
// Both (set, sort_order) and (set, quest) are unique: slots keep a stable
// order and a quest appears at most once per day.
type DailyQuestItem struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	DailySetID uint64    `gorm:"not null;uniqueIndex:uq_daily_item_set_sort;uniqueIndex:uq_daily_item_set_quest" json:"daily_set_id"`
	QuestID    uint64    `gorm:"not null;uniqueIndex:uq_daily_item_set_quest" json:"quest_id"`
	SortOrder  int       `gorm:"not null;default:0;uniqueIndex:uq_daily_item_set_sort" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	DailySet    DailyQuestSet     `gorm:"foreignKey:DailySetID" json:"-"`
	Quest       Quest             `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
	Completions []QuestCompletion `gorm:"foreignKey:DailyItemID" json:"-"`
}
