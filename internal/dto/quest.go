package dto

import (
	"time"

	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/services"
)

// QuestDTO represents a catalog quest in API responses
type QuestDTO struct {
	ID          uint64                 `json:"id"`
	Name        string                 `json:"name"`
	Difficulty  models.QuestDifficulty `json:"difficulty"`
	Category    models.QuestCategory   `json:"category"`
	Description string                 `json:"description"`
	Points      int                    `json:"points"`
}

// DailyItemDTO represents one quest slot in API responses
type DailyItemDTO struct {
	ID        uint64   `json:"id"`
	SortOrder int      `json:"sort_order"`
	Quest     QuestDTO `json:"quest"`
}

// DailySetDTO represents a team's daily quest set in API responses
type DailySetDTO struct {
	ID          uint64                 `json:"id"`
	Date        string                 `json:"date"`
	Difficulty  models.QuestDifficulty `json:"difficulty"`
	GeneratedBy string                 `json:"generated_by"`
	Items       []DailyItemDTO         `json:"items"`
}

// CompleteResultDTO represents the outcome of completing a slot
type CompleteResultDTO struct {
	DailyItemID  uint64          `json:"daily_item_id"`
	GainedPoints int             `json:"gained_points"`
	TotalPoints  int             `json:"total_points"`
	RankBefore   models.TeamRank `json:"rank_before"`
	RankAfter    models.TeamRank `json:"rank_after"`
	RankUp       bool            `json:"rank_up"`
}

// ProgressItemDTO represents one slot's team-wide completion state
type ProgressItemDTO struct {
	DailyItemDTO
	CompletedCount int  `json:"completed_count"`
	MemberCount    int  `json:"member_count"`
	CompletedByMe  bool `json:"completed_by_me"`
}

// ProgressDTO represents today's progress across the set
type ProgressDTO struct {
	Set     DailySetDTO       `json:"set"`
	Items   []ProgressItemDTO `json:"items"`
	Comment string            `json:"comment"`
}

// MVPDTO represents today's top scorer
type MVPDTO struct {
	User             *UserDTO   `json:"user"`
	TotalPoints      int        `json:"total_points"`
	FirstCompletedAt *time.Time `json:"first_completed_at,omitempty"`
}

// ToQuestDTO converts a quest to its API shape
func ToQuestDTO(quest models.Quest) QuestDTO {
	return QuestDTO{
		ID:          quest.ID,
		Name:        quest.Name,
		Difficulty:  quest.Difficulty,
		Category:    quest.Category,
		Description: quest.Description,
		Points:      quest.Points,
	}
}

// ToDailyItemDTO converts a slot to its API shape
func ToDailyItemDTO(item models.DailyQuestItem) DailyItemDTO {
	return DailyItemDTO{
		ID:        item.ID,
		SortOrder: item.SortOrder,
		Quest:     ToQuestDTO(item.Quest),
	}
}

// ToDailySetDTO converts a set and its slots to the API shape
func ToDailySetDTO(set models.DailyQuestSet, items []models.DailyQuestItem) DailySetDTO {
	itemDTOs := make([]DailyItemDTO, len(items))
	for i, item := range items {
		itemDTOs[i] = ToDailyItemDTO(item)
	}
	return DailySetDTO{
		ID:          set.ID,
		Date:        set.Date,
		Difficulty:  set.Difficulty,
		GeneratedBy: set.GeneratedBy,
		Items:       itemDTOs,
	}
}

// ToCompleteResultDTO converts a completion outcome to the API shape
func ToCompleteResultDTO(result services.CompleteResult) CompleteResultDTO {
	return CompleteResultDTO{
		DailyItemID:  result.Completion.DailyItemID,
		GainedPoints: result.GainedPoints,
		TotalPoints:  result.TotalPoints,
		RankBefore:   result.RankBefore,
		RankAfter:    result.RankAfter,
		RankUp:       result.RankBefore != result.RankAfter,
	}
}

// ToProgressDTO converts today's progress to the API shape
func ToProgressDTO(progress services.ProgressResult) ProgressDTO {
	items := make([]ProgressItemDTO, len(progress.Items))
	for i, p := range progress.Items {
		items[i] = ProgressItemDTO{
			DailyItemDTO:   ToDailyItemDTO(p.Item),
			CompletedCount: p.CompletedCount,
			MemberCount:    p.MemberCount,
			CompletedByMe:  p.CompletedByMe,
		}
	}

	setItems := make([]models.DailyQuestItem, len(progress.Items))
	for i, p := range progress.Items {
		setItems[i] = p.Item
	}
	return ProgressDTO{
		Set:     ToDailySetDTO(*progress.Set, setItems),
		Items:   items,
		Comment: progress.Comment,
	}
}

// ToMVPDTO converts today's MVP to the API shape
func ToMVPDTO(mvp services.MVPResult) MVPDTO {
	d := MVPDTO{
		TotalPoints:      mvp.TotalPoints,
		FirstCompletedAt: mvp.FirstCompletedAt,
	}
	if mvp.User != nil {
		user := ToUserDTO(*mvp.User, false)
		d.User = &user
	}
	return d
}
