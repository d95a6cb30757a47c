package repository

import (
	"github.com/team17/gbase-api/internal/models"
	"gorm.io/gorm"
)

// GormQuestRepository is a GORM implementation of QuestRepository
type GormQuestRepository struct {
	db *gorm.DB
}

// NewQuestRepository creates a new QuestRepository
func NewQuestRepository(db *gorm.DB) QuestRepository {
	return &GormQuestRepository{db: db}
}

// CreateQuest inserts a catalog quest
func (r *GormQuestRepository) CreateQuest(quest *models.Quest) error {
	return r.db.Create(quest).Error
}

// CountQuests counts all catalog rows
func (r *GormQuestRepository) CountQuests() (int64, error) {
	var count int64
	err := r.db.Model(&models.Quest{}).Count(&count).Error
	return count, err
}

// ListActiveByDifficulty lists active catalog quests of one tier
func (r *GormQuestRepository) ListActiveByDifficulty(difficulty models.QuestDifficulty) ([]models.Quest, error) {
	var quests []models.Quest
	if err := r.db.Where("difficulty = ? AND is_active = ?", difficulty, true).
		Order("id ASC").
		Find(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

// FindDailySet finds a team's set for a date
func (r *GormQuestRepository) FindDailySet(teamID uint64, date string) (*models.DailyQuestSet, error) {
	var set models.DailyQuestSet
	if err := r.db.Where("team_id = ? AND date = ?", teamID, date).
		First(&set).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

// CreateDailySet inserts a set and its items in one transaction. A
// duplicate-key error on the (team, date) index propagates to the caller,
// which treats it as "someone else won, re-read".
func (r *GormQuestRepository) CreateDailySet(set *models.DailyQuestSet, items []models.DailyQuestItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(set).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].DailySetID = set.ID
		}
		return tx.Create(&items).Error
	})
}

// ListItems lists a set's items in slot order with quests preloaded
func (r *GormQuestRepository) ListItems(dailySetID uint64) ([]models.DailyQuestItem, error) {
	var items []models.DailyQuestItem
	if err := r.db.Preload("Quest").
		Where("daily_set_id = ?", dailySetID).
		Order("sort_order ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindItemByID finds an item with its quest, set and team preloaded
func (r *GormQuestRepository) FindItemByID(id uint64) (*models.DailyQuestItem, error) {
	var item models.DailyQuestItem
	if err := r.db.Preload("Quest").
		Preload("DailySet").
		Preload("DailySet.Team").
		First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCompletion inserts a completion row
func (r *GormQuestRepository) CreateCompletion(completion *models.QuestCompletion) error {
	return r.db.Create(completion).Error
}

// FindCompletion finds a completion by (item, user)
func (r *GormQuestRepository) FindCompletion(dailyItemID, userID uint64) (*models.QuestCompletion, error) {
	var completion models.QuestCompletion
	if err := r.db.Where("daily_item_id = ? AND user_id = ?", dailyItemID, userID).
		First(&completion).Error; err != nil {
		return nil, err
	}
	return &completion, nil
}

// CompletionCountsByItem returns per-item completion counts for a set
func (r *GormQuestRepository) CompletionCountsByItem(dailySetID uint64) (map[uint64]int, error) {
	type row struct {
		DailyItemID uint64
		C           int
	}
	var rows []row
	err := r.db.Model(&models.QuestCompletion{}).
		Select("quest_completions.daily_item_id, COUNT(*) AS c").
		Joins("JOIN daily_quest_items ON daily_quest_items.id = quest_completions.daily_item_id").
		Where("daily_quest_items.daily_set_id = ?", dailySetID).
		Group("quest_completions.daily_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint64]int, len(rows))
	for _, r := range rows {
		counts[r.DailyItemID] = r.C
	}
	return counts, nil
}

// CompletionCountsByUser returns per-user completion counts for a set
func (r *GormQuestRepository) CompletionCountsByUser(dailySetID uint64) (map[uint64]int, error) {
	type row struct {
		UserID uint64
		C      int
	}
	var rows []row
	err := r.db.Model(&models.QuestCompletion{}).
		Select("quest_completions.user_id, COUNT(*) AS c").
		Joins("JOIN daily_quest_items ON daily_quest_items.id = quest_completions.daily_item_id").
		Where("daily_quest_items.daily_set_id = ?", dailySetID).
		Group("quest_completions.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint64]int, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.C
	}
	return counts, nil
}

// UserCompletedItemIDs returns which items of a set the user completed
func (r *GormQuestRepository) UserCompletedItemIDs(dailySetID, userID uint64) (map[uint64]bool, error) {
	var ids []uint64
	err := r.db.Model(&models.QuestCompletion{}).
		Joins("JOIN daily_quest_items ON daily_quest_items.id = quest_completions.daily_item_id").
		Where("daily_quest_items.daily_set_id = ? AND quest_completions.user_id = ?", dailySetID, userID).
		Pluck("quest_completions.daily_item_id", &ids).Error
	if err != nil {
		return nil, err
	}

	done := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

// TotalPointsForTeam recomputes a team's cumulative points from its
// completion rows.
func (r *GormQuestRepository) TotalPointsForTeam(teamID uint64) (int64, error) {
	var total *int64
	err := r.db.Model(&models.QuestCompletion{}).
		Select("SUM(quests.points)").
		Joins("JOIN daily_quest_items ON daily_quest_items.id = quest_completions.daily_item_id").
		Joins("JOIN daily_quest_sets ON daily_quest_sets.id = daily_quest_items.daily_set_id").
		Joins("JOIN quests ON quests.id = daily_quest_items.quest_id").
		Where("daily_quest_sets.team_id = ?", teamID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// TopScorerForSet returns the user with the most points for a set, ties
// broken by earliest completion. A daily set holds at most 4 items and a
// team at most 5 members, so folding the rows in Go is cheaper than fighting
// driver differences in MIN(datetime) scanning.
func (r *GormQuestRepository) TopScorerForSet(dailySetID uint64) (*MVPRow, error) {
	var completions []models.QuestCompletion
	err := r.db.Preload("DailyItem.Quest").
		Joins("JOIN daily_quest_items ON daily_quest_items.id = quest_completions.daily_item_id").
		Where("daily_quest_items.daily_set_id = ?", dailySetID).
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	if len(completions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	byUser := make(map[uint64]*MVPRow)
	for _, c := range completions {
		row, ok := byUser[c.UserID]
		if !ok {
			row = &MVPRow{UserID: c.UserID, FirstCompletedAt: c.CompletedAt}
			byUser[c.UserID] = row
		}
		row.TotalPoints += c.DailyItem.Quest.Points
		if c.CompletedAt.Before(row.FirstCompletedAt) {
			row.FirstCompletedAt = c.CompletedAt
		}
	}

	var top *MVPRow
	for _, row := range byUser {
		if top == nil ||
			row.TotalPoints > top.TotalPoints ||
			(row.TotalPoints == top.TotalPoints && row.FirstCompletedAt.Before(top.FirstCompletedAt)) {
			top = row
		}
	}
	return top, nil
}
