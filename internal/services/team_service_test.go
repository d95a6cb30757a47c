package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/team17/gbase-api/internal/database"
	"github.com/team17/gbase-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamInvite{},
		&models.TeamMember{},
		&models.Quest{},
		&models.DailyQuestSet{},
		&models.DailyQuestItem{},
		&models.QuestCompletion{},
		&models.Notification{},
		&models.NotificationRead{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", name),
		DisplayName:  name,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestTeamService(db *gorm.DB) *TeamService {
	return NewTeamService(db, NewNotificationService(db))
}

func TestTeamService_CreateTeam(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")

	team, err := svc.CreateTeam(owner.ID, "Morning Crew", 5)
	require.NoError(t, err)
	require.Equal(t, owner.ID, team.OwnerID)
	require.Equal(t, 1, team.MemberCount)
	require.Equal(t, 0, team.TotalPoints)
	require.Equal(t, models.RankF, team.Rank)
	require.True(t, team.IsActive)
	require.NotNil(t, team.Invite)
	require.Len(t, team.Invite.Code, 8)
	require.True(t, team.Invite.IsActive)

	var member models.TeamMember
	require.NoError(t, db.Where("team_id = ? AND user_id = ?", team.ID, owner.ID).First(&member).Error)
}

func TestTeamService_CreateTeam_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")

	_, err := svc.CreateTeam(owner.ID, "   ", 5)
	require.ErrorIs(t, err, ErrInvalidTeamName)

	_, err = svc.CreateTeam(owner.ID, "Crew", 1)
	require.ErrorIs(t, err, ErrInvalidMaxMembers)

	_, err = svc.CreateTeam(owner.ID, "Crew", 6)
	require.ErrorIs(t, err, ErrInvalidMaxMembers)
}

func TestTeamService_CreateTeam_AlreadyMember(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")

	_, err := svc.CreateTeam(owner.ID, "First", 5)
	require.NoError(t, err)

	_, err = svc.CreateTeam(owner.ID, "Second", 5)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestTeamService_JoinTeam(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)

	joined, err := svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.NoError(t, err)
	require.Equal(t, team.ID, joined.ID)
	require.Equal(t, 2, joined.MemberCount)

	// A join shows up in the team feed.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("team_id = ? AND type = ?", team.ID, models.NotificationSystem).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestTeamService_JoinTeam_InvalidCode(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	joiner := createTestUser(t, db, "joiner")

	_, err := svc.JoinTeam(joiner.ID, "NOPE1234")
	require.ErrorIs(t, err, ErrInvalidInvite)

	_, err = svc.JoinTeam(joiner.ID, "")
	require.ErrorIs(t, err, ErrInvalidInvite)
}

func TestTeamService_JoinTeam_DeactivatedInvite(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateInvite(team.ID, owner.ID))

	_, err = svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.ErrorIs(t, err, ErrInvalidInvite)
}

func TestTeamService_JoinTeam_AlreadyMember(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)

	_, err = svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.NoError(t, err)

	_, err = svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.ErrorIs(t, err, ErrAlreadyMember)

	// The owner is a member too.
	_, err = svc.JoinTeam(owner.ID, team.Invite.Code)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestTeamService_JoinTeam_TeamFull(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	second := createTestUser(t, db, "second")
	third := createTestUser(t, db, "third")

	team, err := svc.CreateTeam(owner.ID, "Duo", 2)
	require.NoError(t, err)

	_, err = svc.JoinTeam(second.ID, team.Invite.Code)
	require.NoError(t, err)

	_, err = svc.JoinTeam(third.ID, team.Invite.Code)
	require.ErrorIs(t, err, ErrTeamFull)
}

func TestTeamService_LeaveTeam(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)
	_, err = svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.NoError(t, err)

	require.ErrorIs(t, svc.LeaveTeam(owner.ID), ErrOwnerMustDissolve)

	require.NoError(t, svc.LeaveTeam(joiner.ID))

	updated, _, err := svc.GetTeamWithMembers(team.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.MemberCount)

	require.ErrorIs(t, svc.LeaveTeam(joiner.ID), ErrNotATeamMember)
}

func TestTeamService_DissolveTeam(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)
	_, err = svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.NoError(t, err)

	require.ErrorIs(t, svc.DissolveTeam(team.ID, joiner.ID), ErrNotTeamOwner)

	require.NoError(t, svc.DissolveTeam(team.ID, owner.ID))

	var reloaded models.Team
	require.NoError(t, db.First(&reloaded, team.ID).Error)
	require.False(t, reloaded.IsActive)
	require.NotNil(t, reloaded.DissolvedAt)
	require.Equal(t, 0, reloaded.MemberCount)

	var memberCount int64
	require.NoError(t, db.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&memberCount).Error)
	require.EqualValues(t, 0, memberCount)

	var invite models.TeamInvite
	require.NoError(t, db.Where("team_id = ?", team.ID).First(&invite).Error)
	require.False(t, invite.IsActive)

	// Former members are free to start over.
	_, err = svc.CreateTeam(owner.ID, "Next Crew", 5)
	require.NoError(t, err)
}

func TestTeamService_RegenerateInviteCode(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)
	oldCode := team.Invite.Code

	_, err = svc.RegenerateInviteCode(team.ID, 9999)
	require.ErrorIs(t, err, ErrNotTeamOwner)

	invite, err := svc.RegenerateInviteCode(team.ID, owner.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldCode, invite.Code)
	require.True(t, invite.IsActive)

	// The old code is dead, the new one works.
	_, err = svc.JoinTeam(joiner.ID, oldCode)
	require.ErrorIs(t, err, ErrInvalidInvite)
	_, err = svc.JoinTeam(joiner.ID, invite.Code)
	require.NoError(t, err)
}

func TestTeamService_AccruePoints_RankUp(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Team{}).Where("id = ?", team.ID).
		Update("total_points", 95).Error)

	result, err := svc.AccruePointsTx(db, team.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 105, result.TotalPoints)
	require.Equal(t, models.RankF, result.RankBefore)
	require.Equal(t, models.RankE, result.RankAfter)
	require.True(t, result.RankChanged())

	result, err = svc.AccruePointsTx(db, team.ID, 10)
	require.NoError(t, err)
	require.False(t, result.RankChanged())
}

func TestRankForPoints(t *testing.T) {
	cases := []struct {
		points int
		want   models.TeamRank
	}{
		{0, models.RankF},
		{99, models.RankF},
		{100, models.RankE},
		{299, models.RankE},
		{300, models.RankD},
		{599, models.RankD},
		{600, models.RankC},
		{1099, models.RankC},
		{1100, models.RankB},
		{1599, models.RankB},
		{1600, models.RankA},
		{2099, models.RankA},
		{2100, models.RankS},
		{99999, models.RankS},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, models.RankForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestTeamService_ReconcileAggregates(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTeamService(db)

	owner := createTestUser(t, db, "owner")
	joiner := createTestUser(t, db, "joiner")

	team, err := svc.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)
	_, err = svc.JoinTeam(joiner.ID, team.Invite.Code)
	require.NoError(t, err)

	// No drift yet.
	repaired, err := svc.ReconcileAggregates()
	require.NoError(t, err)
	require.Equal(t, 0, repaired)

	// Corrupt the cached aggregates directly.
	require.NoError(t, db.Model(&models.Team{}).Where("id = ?", team.ID).
		Updates(map[string]interface{}{
			"member_count": 4,
			"total_points": 500,
			"rank":         models.RankD,
		}).Error)

	repaired, err = svc.ReconcileAggregates()
	require.NoError(t, err)
	require.Equal(t, 1, repaired)

	var reloaded models.Team
	require.NoError(t, db.First(&reloaded, team.ID).Error)
	require.Equal(t, 2, reloaded.MemberCount)
	require.Equal(t, 0, reloaded.TotalPoints)
	require.Equal(t, models.RankF, reloaded.Rank)
}
