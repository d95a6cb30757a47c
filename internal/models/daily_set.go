package models

import "time"

// GeneratedBy records whether the day's message came from the AI
// collaborator or the built-in template.
const (
	GeneratedByLogic = "logic"
	GeneratedByAI    = "ai"
)

// DailyQuestSet pins the quests shown to one team on one calendar date.
// Date is stored as "2006-01-02"; the unique (team, date) index is the
// arbiter when two requests race to create the same day.
type DailyQuestSet struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	TeamID      uint64          `gorm:"not null;uniqueIndex:uq_daily_set_team_date" json:"team_id"`
	Date        string          `gorm:"type:varchar(10);not null;uniqueIndex:uq_daily_set_team_date;index" json:"date"`
	Difficulty  QuestDifficulty `gorm:"type:varchar(10);not null" json:"difficulty"`
	GeneratedBy string          `gorm:"type:varchar(10);not null;default:'logic'" json:"generated_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Team  Team             `gorm:"foreignKey:TeamID" json:"-"`
	Items []DailyQuestItem `gorm:"foreignKey:DailySetID" json:"items,omitempty"`
}
