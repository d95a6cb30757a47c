package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Quest picking for daily set generation
		{"quests", "idx_quests_difficulty_active", "difficulty, is_active"},

		// Membership lookups (team roster, "my team")
		{"team_members", "idx_team_members_team_id", "team_id"},

		// Daily set lookups by date (scheduler sweep)
		{"daily_quest_sets", "idx_daily_quest_sets_date", "date"},

		// Notification feed per team, newest first
		{"notifications", "idx_notifications_team_created", "team_id, created_at"},

		// Unread scan per user
		{"notification_reads", "idx_notification_reads_user_id", "user_id"},

		// Invite code resolution on join
		{"team_invites", "idx_team_invites_code", "code"},
	}

	for _, idx := range indexes {
		// Check if index already exists
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			fmt.Printf("Index %s already exists, skipping\n", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		fmt.Printf("Created index %s on %s(%s)\n", idx.name, idx.table, idx.columns)
	}

	return nil
}
