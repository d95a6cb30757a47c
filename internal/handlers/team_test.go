package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/database"
	"github.com/team17/gbase-api/internal/dto"
	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/services"
)

type teamTestEnv struct {
	db          *gorm.DB
	handler     *TeamHandler
	teamService *services.TeamService
}

func setupTeamTestEnv(t *testing.T) teamTestEnv {
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

	teamService := services.NewTeamService(db, services.NewNotificationService(db))
	handler := NewTeamHandler(teamService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return teamTestEnv{
		db:          db,
		handler:     handler,
		teamService: teamService,
	}
}

func teamTestContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func createTestTeamUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", name),
		DisplayName:  name,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestTeamHandler_CreateTeam(t *testing.T) {
	env := setupTeamTestEnv(t)

	user := createTestTeamUser(t, env.db, "owner")

	payload := map[string]interface{}{"name": "Morning Crew", "max_members": 4}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := teamTestContext(http.MethodPost, "/api/teams", body, user.ID)

	env.handler.CreateTeam(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.TeamDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Morning Crew", response.Name)
	require.Equal(t, 4, response.MaxMembers)
	require.Equal(t, models.RankF, response.Rank)
	require.NotEmpty(t, response.InviteCode)
}

func TestTeamHandler_CreateTeam_SecondTeamConflicts(t *testing.T) {
	env := setupTeamTestEnv(t)

	user := createTestTeamUser(t, env.db, "owner")

	_, err := env.teamService.CreateTeam(user.ID, "First", 5)
	require.NoError(t, err)

	payload := map[string]interface{}{"name": "Second"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := teamTestContext(http.MethodPost, "/api/teams", body, user.ID)

	env.handler.CreateTeam(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestTeamHandler_JoinTeam(t *testing.T) {
	env := setupTeamTestEnv(t)

	owner := createTestTeamUser(t, env.db, "owner")
	joiner := createTestTeamUser(t, env.db, "joiner")

	team, err := env.teamService.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)

	payload := map[string]string{"invite_code": team.Invite.Code}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := teamTestContext(http.MethodPost, "/api/teams/join", body, joiner.ID)

	env.handler.JoinTeam(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TeamDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, team.ID, response.ID)
	require.Equal(t, 2, response.MemberCount)
}

func TestTeamHandler_JoinTeam_InvalidCode(t *testing.T) {
	env := setupTeamTestEnv(t)

	joiner := createTestTeamUser(t, env.db, "joiner")

	payload := map[string]string{"invite_code": "DOESNOT1"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	c, w := teamTestContext(http.MethodPost, "/api/teams/join", body, joiner.ID)

	env.handler.JoinTeam(c)

	require.Equal(t, http.StatusConflict, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "INVALID_INVITE", response["code"])
}

func TestTeamHandler_GetMyTeam_NoTeam(t *testing.T) {
	env := setupTeamTestEnv(t)

	user := createTestTeamUser(t, env.db, "loner")

	c, w := teamTestContext(http.MethodGet, "/api/teams/me", nil, user.ID)

	env.handler.GetMyTeam(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeamHandler_GetTeam(t *testing.T) {
	env := setupTeamTestEnv(t)

	owner := createTestTeamUser(t, env.db, "owner")
	joiner := createTestTeamUser(t, env.db, "joiner")

	team, err := env.teamService.CreateTeam(owner.ID, "Crew", 5)
	require.NoError(t, err)
	_, err = env.teamService.JoinTeam(joiner.ID, team.Invite.Code)
	require.NoError(t, err)

	c, w := teamTestContext(http.MethodGet, fmt.Sprintf("/api/teams/%d", team.ID), nil, owner.ID)
	c.Set("team", *team)

	env.handler.GetTeam(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TeamDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, team.ID, response.ID)
	require.Len(t, response.Members, 2)
	require.NotNil(t, response.NextRankAt)
	require.Equal(t, 100, *response.NextRankAt)
}
