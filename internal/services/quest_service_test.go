package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/models"
)

func newTestQuestService(db *gorm.DB) (*QuestService, *TeamService) {
	notifications := NewNotificationService(db)
	teams := NewTeamService(db, notifications)
	quests := NewQuestService(db, teams, notifications, nil, time.UTC)
	return quests, teams
}

// createTestTeamWithMembers creates a team with the given extra members
// joined and returns the reloaded team row.
func createTestTeamWithMembers(t *testing.T, db *gorm.DB, teams *TeamService, owner *models.User, others ...*models.User) *models.Team {
	t.Helper()

	team, err := teams.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)
	for _, u := range others {
		_, err := teams.JoinTeam(u.ID, team.Invite.Code)
		require.NoError(t, err)
	}

	var reloaded models.Team
	require.NoError(t, db.First(&reloaded, team.ID).Error)
	return &reloaded
}

func TestQuestService_SeedCatalog(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestQuestService(db)

	inserted, err := svc.SeedCatalog()
	require.NoError(t, err)
	require.Equal(t, len(DefaultCatalog()), inserted)

	// Seeding again is a no-op.
	inserted, err = svc.SeedCatalog()
	require.NoError(t, err)
	require.Equal(t, 0, inserted)

	var count int64
	require.NoError(t, db.Model(&models.Quest{}).Count(&count).Error)
	require.EqualValues(t, len(DefaultCatalog()), count)
}

func TestQuestService_EnsureDailySet(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	team := createTestTeamWithMembers(t, db, teams, owner, joiner)

	set, items, err := svc.EnsureDailySet(team, "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, "2026-08-31", set.Date)
	require.Equal(t, models.DifficultyEasy, set.Difficulty)
	require.Equal(t, models.GeneratedByLogic, set.GeneratedBy)
	require.Len(t, items, constants.DailySetSize)

	seen := map[uint64]bool{}
	for i, item := range items {
		require.Equal(t, i, item.SortOrder)
		require.False(t, seen[item.QuestID], "quest %d appears twice", item.QuestID)
		seen[item.QuestID] = true
		require.Equal(t, models.DifficultyEasy, item.Quest.Difficulty)
	}

	// Second call returns the stored set, not a new draw.
	again, againItems, err := svc.EnsureDailySet(team, "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, set.ID, again.ID)
	require.Len(t, againItems, constants.DailySetSize)
	for i := range items {
		require.Equal(t, items[i].ID, againItems[i].ID)
	}

	// Exactly one daily_ready announcement in the feed.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("team_id = ? AND type = ?", team.ID, models.NotificationDailyReady).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestQuestService_EnsureDailySet_NotEligible(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "solo")
	team := createTestTeamWithMembers(t, db, teams, owner)

	_, _, err = svc.EnsureDailySet(team, "2026-08-31")
	require.ErrorIs(t, err, ErrTeamNotEligible)
}

func TestQuestService_EnsureDailySet_InsufficientCatalog(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	// Only 3 easy quests; a set needs 4.
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&models.Quest{
			Name:       name,
			Difficulty: models.DifficultyEasy,
			Category:   models.CategoryStretch,
			Points:     10,
			IsActive:   true,
		}).Error)
	}

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	team := createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, _, err := svc.EnsureDailySet(team, "2026-08-31")
	require.ErrorIs(t, err, ErrInsufficientCatalog)
}

func TestQuestService_EnsureDailySet_DifficultyFollowsRank(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	team := createTestTeamWithMembers(t, db, teams, owner, joiner)

	require.NoError(t, db.Model(&models.Team{}).Where("id = ?", team.ID).
		Updates(map[string]interface{}{"total_points": 700, "rank": models.RankC}).Error)
	require.NoError(t, db.First(team, team.ID).Error)

	set, items, err := svc.EnsureDailySet(team, "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, models.DifficultyNormal, set.Difficulty)
	for _, item := range items {
		require.Equal(t, models.DifficultyNormal, item.Quest.Difficulty)
	}
}

func TestDifficultyForRank(t *testing.T) {
	cases := []struct {
		rank models.TeamRank
		want models.QuestDifficulty
	}{
		{models.RankF, models.DifficultyEasy},
		{models.RankE, models.DifficultyEasy},
		{models.RankD, models.DifficultyNormal},
		{models.RankC, models.DifficultyNormal},
		{models.RankB, models.DifficultyHard},
		{models.RankA, models.DifficultyHard},
		{models.RankS, models.DifficultyHard},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DifficultyForRank(tc.rank), "rank=%s", tc.rank)
	}
}

func TestPickQuests_Deterministic(t *testing.T) {
	candidates := make([]models.Quest, 10)
	for i := range candidates {
		candidates[i] = models.Quest{ID: uint64(i + 1)}
	}

	seed := dailySeed(42, "2026-08-31")
	first := pickQuests(candidates, 4, seed)
	second := pickQuests(candidates, 4, seed)
	require.Equal(t, first, second)

	otherDay := pickQuests(candidates, 4, dailySeed(42, "2026-09-01"))
	require.Len(t, otherDay, 4)
	require.NotEqual(t, dailySeed(42, "2026-08-31"), dailySeed(42, "2026-09-01"))
}

func TestQuestService_CompleteItem(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	outsider := createTestUser(t, db, "outsider")
	team := createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, items, err := svc.EnsureDailySet(team, svc.Today())
	require.NoError(t, err)

	_, err = svc.CompleteItem(outsider.ID, items[0].ID)
	require.ErrorIs(t, err, ErrNotATeamMember)

	result, err := svc.CompleteItem(owner.ID, items[0].ID)
	require.NoError(t, err)
	require.Equal(t, 10, result.GainedPoints)
	require.Equal(t, 10, result.TotalPoints)
	require.Equal(t, models.RankF, result.RankAfter)

	// Same slot again by the same user must not accrue twice.
	_, err = svc.CompleteItem(owner.ID, items[0].ID)
	require.ErrorIs(t, err, ErrAlreadyCompleted)

	var reloaded models.Team
	require.NoError(t, db.First(&reloaded, team.ID).Error)
	require.Equal(t, 10, reloaded.TotalPoints)

	// A teammate completing the same slot is fine.
	result, err = svc.CompleteItem(joiner.ID, items[0].ID)
	require.NoError(t, err)
	require.Equal(t, 20, result.TotalPoints)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("team_id = ? AND type = ?", team.ID, models.NotificationMemberCompleted).
		Count(&count).Error)
	require.EqualValues(t, 2, count)

	_, err = svc.CompleteItem(owner.ID, 99999)
	require.ErrorIs(t, err, ErrDailyItemNotFound)
}

func TestQuestService_CompleteItem_RankUpNotification(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	team := createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, items, err := svc.EnsureDailySet(team, svc.Today())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Team{}).Where("id = ?", team.ID).
		Update("total_points", 95).Error)

	result, err := svc.CompleteItem(owner.ID, items[0].ID)
	require.NoError(t, err)
	require.Equal(t, 105, result.TotalPoints)
	require.Equal(t, models.RankF, result.RankBefore)
	require.Equal(t, models.RankE, result.RankAfter)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("team_id = ? AND type = ?", team.ID, models.NotificationTeamRankUp).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestQuestService_CompleteItem_StaleSet(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	team := createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, items, err := svc.EnsureDailySet(team, "2000-01-01")
	require.NoError(t, err)

	_, err = svc.CompleteItem(owner.ID, items[0].ID)
	require.ErrorIs(t, err, ErrStaleDailySet)
}

func TestQuestService_TodayProgress(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, items, err := svc.TodaySet(owner.ID)
	require.NoError(t, err)

	_, err = svc.CompleteItem(owner.ID, items[0].ID)
	require.NoError(t, err)

	progress, err := svc.TodayProgress(owner.ID)
	require.NoError(t, err)
	require.Len(t, progress.Items, constants.DailySetSize)

	first := progress.Items[0]
	require.Equal(t, 1, first.CompletedCount)
	require.Equal(t, 2, first.MemberCount)
	require.True(t, first.CompletedByMe)

	// The teammate sees the count but not the personal flag.
	theirView, err := svc.TodayProgress(joiner.ID)
	require.NoError(t, err)
	require.Equal(t, 1, theirView.Items[0].CompletedCount)
	require.False(t, theirView.Items[0].CompletedByMe)

	require.Equal(t, 0, progress.Items[1].CompletedCount)
	require.False(t, progress.Items[1].CompletedByMe)
}

func TestTeamMoodComment(t *testing.T) {
	tests := []struct {
		name       string
		achieved   int
		members    int
		difficulty models.QuestDifficulty
		want       string
	}{
		{"no members", 0, 0, models.DifficultyEasy, "今日も少しずつ積み上げよう"},
		{"quiet day", 0, 3, models.DifficultyEasy, "今日はちょっと静かだね。軽めのストレッチからいこう"},
		{"first mover", 1, 4, models.DifficultyNormal, "1人目えらい。次いこう、空気作ろう。"},
		{"one short", 2, 3, models.DifficultyHard, "あと1人で全員達成！誰か忘れてない？"},
		{"everyone done", 3, 3, models.DifficultyEasy, "全員達成！今日のチームは完璧。"},
		{"mid pack hard", 2, 5, models.DifficultyHard, "今日は上級。無理せず、でも一歩だけ前へ。"},
		{"mid pack normal", 2, 5, models.DifficultyNormal, "中級いける日。フォーム意識していこう。"},
		{"mid pack easy", 2, 5, models.DifficultyEasy, "初級でもOK。続けた人が勝つ。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TeamMoodComment(tt.achieved, tt.members, tt.difficulty))
		})
	}
}

func TestQuestService_TodayProgress_MoodComment(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, items, err := svc.TodaySet(owner.ID)
	require.NoError(t, err)

	progress, err := svc.TodayProgress(owner.ID)
	require.NoError(t, err)
	require.Equal(t, "今日はちょっと静かだね。軽めのストレッチからいこう", progress.Comment)

	// One member finishing every slot puts a two-member team one away
	// from full achievement.
	for _, item := range items {
		_, err = svc.CompleteItem(owner.ID, item.ID)
		require.NoError(t, err)
	}

	progress, err = svc.TodayProgress(owner.ID)
	require.NoError(t, err)
	require.Equal(t, "あと1人で全員達成！誰か忘れてない？", progress.Comment)

	for _, item := range items {
		_, err = svc.CompleteItem(joiner.ID, item.ID)
		require.NoError(t, err)
	}

	progress, err = svc.TodayProgress(joiner.ID)
	require.NoError(t, err)
	require.Equal(t, "全員達成！今日のチームは完璧。", progress.Comment)
}

func TestQuestService_TodayMVP(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	createTestTeamWithMembers(t, db, teams, owner, joiner)

	// Nobody has completed anything yet.
	mvp, err := svc.TodayMVP(owner.ID)
	require.NoError(t, err)
	require.Nil(t, mvp.User)
	require.Equal(t, 0, mvp.TotalPoints)

	_, items, err := svc.TodaySet(owner.ID)
	require.NoError(t, err)

	_, err = svc.CompleteItem(joiner.ID, items[0].ID)
	require.NoError(t, err)
	_, err = svc.CompleteItem(joiner.ID, items[1].ID)
	require.NoError(t, err)
	_, err = svc.CompleteItem(owner.ID, items[0].ID)
	require.NoError(t, err)

	mvp, err = svc.TodayMVP(owner.ID)
	require.NoError(t, err)
	require.NotNil(t, mvp.User)
	require.Equal(t, joiner.ID, mvp.User.ID)
	require.Equal(t, 20, mvp.TotalPoints)
	require.NotNil(t, mvp.FirstCompletedAt)
}

func TestQuestService_TodayMVP_TieBrokenByEarliestCompletion(t *testing.T) {
	db := setupTestDB(t)
	svc, teams := newTestQuestService(db)

	_, err := svc.SeedCatalog()
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")
	createTestTeamWithMembers(t, db, teams, owner, joiner)

	_, items, err := svc.TodaySet(owner.ID)
	require.NoError(t, err)

	// Both members at 20 points; the joiner started 5 minutes earlier.
	now := time.Now()
	earlier := now.Add(-5 * time.Minute)
	for i, c := range []struct {
		userID uint64
		at     time.Time
	}{
		{joiner.ID, earlier},
		{joiner.ID, now},
		{owner.ID, now},
		{owner.ID, now},
	} {
		require.NoError(t, db.Create(&models.QuestCompletion{
			DailyItemID: items[i%2].ID,
			UserID:      c.userID,
			CompletedAt: c.at,
		}).Error)
	}

	mvp, err := svc.TodayMVP(owner.ID)
	require.NoError(t, err)
	require.NotNil(t, mvp.User)
	require.Equal(t, joiner.ID, mvp.User.ID)
	require.Equal(t, 20, mvp.TotalPoints)
	require.NotNil(t, mvp.FirstCompletedAt)
	require.WithinDuration(t, earlier, *mvp.FirstCompletedAt, time.Second)
}
