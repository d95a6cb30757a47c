package services

import (
	"fmt"
	"log"

	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/repository"
)

// DefaultCatalog returns the fixed quest catalog. Points follow the
// difficulty rule (easy=10, normal=40, hard=100) and are validated again at
// insert time.
func DefaultCatalog() []models.Quest {
	type entry struct {
		name       string
		difficulty models.QuestDifficulty
		category   models.QuestCategory
		desc       string
	}
	entries := []entry{
		{"首まわしストレッチ", models.DifficultyEasy, models.CategoryStretch, "左右10回ずつ、ゆっくり"},
		{"肩甲骨ほぐし", models.DifficultyEasy, models.CategoryStretch, "腕を大きく後ろに10回まわす"},
		{"前屈ストレッチ", models.DifficultyEasy, models.CategoryStretch, "30秒キープ、反動をつけない"},
		{"壁腕立て", models.DifficultyEasy, models.CategoryMuscle, "壁に手をついて10回"},
		{"かかと上げ", models.DifficultyEasy, models.CategoryMuscle, "立ったまま20回"},
		{"椅子スクワット", models.DifficultyEasy, models.CategoryMuscle, "椅子に触れたら立ち上がる、10回"},
		{"開脚ストレッチ", models.DifficultyNormal, models.CategoryStretch, "左右各30秒"},
		{"体側伸ばし", models.DifficultyNormal, models.CategoryStretch, "左右各20秒、2セット"},
		{"股関節ストレッチ", models.DifficultyNormal, models.CategoryStretch, "あぐらで前傾30秒、2セット"},
		{"腕立て伏せ", models.DifficultyNormal, models.CategoryMuscle, "膝つきOK、15回"},
		{"スクワット", models.DifficultyNormal, models.CategoryMuscle, "20回、膝はつま先より前に出さない"},
		{"プランク", models.DifficultyNormal, models.CategoryMuscle, "45秒キープ"},
		{"ブリッジ", models.DifficultyHard, models.CategoryStretch, "30秒キープ、2セット"},
		{"前後開脚チャレンジ", models.DifficultyHard, models.CategoryStretch, "左右各45秒"},
		{"肩入れストレッチ", models.DifficultyHard, models.CategoryStretch, "四股の姿勢で左右各30秒、2セット"},
		{"バーピー", models.DifficultyHard, models.CategoryMuscle, "15回、フォーム優先"},
		{"ジャンプスクワット", models.DifficultyHard, models.CategoryMuscle, "20回"},
		{"パイクプッシュアップ", models.DifficultyHard, models.CategoryMuscle, "12回、2セット"},
	}

	quests := make([]models.Quest, len(entries))
	for i, e := range entries {
		quests[i] = models.Quest{
			Name:        e.name,
			Difficulty:  e.difficulty,
			Category:    e.category,
			Description: e.desc,
			Points:      models.PointsByDifficulty[e.difficulty],
			IsActive:    true,
		}
	}
	return quests
}

// SeedCatalog inserts the default catalog when the quests table is empty.
// Returns the number of quests inserted.
func (s *QuestService) SeedCatalog() (int, error) {
	questRepo := repository.NewQuestRepository(s.db)

	count, err := questRepo.CountQuests()
	if err != nil {
		return 0, fmt.Errorf("failed to count quests: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	for _, q := range DefaultCatalog() {
		quest := q
		if err := quest.Validate(); err != nil {
			return inserted, fmt.Errorf("invalid seed quest %q: %w", quest.Name, err)
		}
		if err := questRepo.CreateQuest(&quest); err != nil {
			return inserted, fmt.Errorf("failed to seed quest %q: %w", quest.Name, err)
		}
		inserted++
	}

	log.Printf("Seeded quest catalog with %d quests", inserted)
	return inserted, nil
}
