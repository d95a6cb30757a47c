package models

import (
	"fmt"
	"time"
)

type QuestDifficulty string

const (
	DifficultyEasy   QuestDifficulty = "easy"
	DifficultyNormal QuestDifficulty = "normal"
	DifficultyHard   QuestDifficulty = "hard"
)

type QuestCategory string

const (
	CategoryStretch QuestCategory = "stretch"
	CategoryMuscle  QuestCategory = "muscle"
)

// PointsByDifficulty is the fixed catalog rule: quest points are a function
// of difficulty, never set freely per quest.
var PointsByDifficulty = map[QuestDifficulty]int{
	DifficultyEasy:   10,
	DifficultyNormal: 40,
	DifficultyHard:   100,
}

// Quest is a fixed catalog exercise, seeded once and read-only at runtime.
type Quest struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Difficulty  QuestDifficulty `gorm:"type:varchar(10);not null;index:idx_quests_pick" json:"difficulty"`
	Category    QuestCategory   `gorm:"type:varchar(10);not null;index:idx_quests_pick" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Points      int             `gorm:"not null" json:"points"`
	IsActive    bool            `gorm:"not null;default:true;index:idx_quests_pick" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the difficulty/points consistency rule before a quest row
// is written. Keeps seed data and admin edits from drifting.
func (q *Quest) Validate() error {
	expected, ok := PointsByDifficulty[q.Difficulty]
	if !ok {
		return fmt.Errorf("unknown quest difficulty %q", q.Difficulty)
	}
	if q.Points != expected {
		return fmt.Errorf("quest points must be %d when difficulty is %q, got %d", expected, q.Difficulty, q.Points)
	}
	if q.Category != CategoryStretch && q.Category != CategoryMuscle {
		return fmt.Errorf("unknown quest category %q", q.Category)
	}
	return nil
}
