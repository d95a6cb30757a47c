package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/team17/gbase-api/internal/dto"
	apierrors "github.com/team17/gbase-api/internal/errors"
	"github.com/team17/gbase-api/internal/middleware"
	"github.com/team17/gbase-api/internal/services"
)

// QuestHandler coordinates daily quest HTTP handlers.
type QuestHandler struct {
	questService *services.QuestService
}

// NewQuestHandler creates a new QuestHandler.
func NewQuestHandler(questService *services.QuestService) *QuestHandler {
	return &QuestHandler{
		questService: questService,
	}
}

// GetTodaySet returns today's quest set for the caller's team, generating it
// on first access.
func (h *QuestHandler) GetTodaySet(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	set, items, err := h.questService.TodaySet(userID)
	if err != nil {
		respondQuestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDailySetDTO(*set, items))
}

// CompleteItem records that the caller finished one of today's quests.
func (h *QuestHandler) CompleteItem(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid quest item ID")
		return
	}

	result, err := h.questService.CompleteItem(userID, itemID)
	if err != nil {
		respondQuestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompleteResultDTO(*result))
}

// GetTodayProgress returns per-quest completion counts for today's set.
func (h *QuestHandler) GetTodayProgress(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	progress, err := h.questService.TodayProgress(userID)
	if err != nil {
		respondQuestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProgressDTO(*progress))
}

// GetTodayMVP returns today's top scorer for the caller's team.
func (h *QuestHandler) GetTodayMVP(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	mvp, err := h.questService.TodayMVP(userID)
	if err != nil {
		respondQuestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMVPDTO(*mvp))
}

func respondQuestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotATeamMember):
		apierrors.NotFound(c, "You do not belong to a team")
	case errors.Is(err, services.ErrTeamNotEligible):
		apierrors.UnprocessableEntity(c, apierrors.ErrCodeTeamNotEligible, err.Error())
	case errors.Is(err, services.ErrInsufficientCatalog):
		apierrors.UnprocessableEntity(c, apierrors.ErrCodeInsufficientCatalog, err.Error())
	case errors.Is(err, services.ErrDailyItemNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrStaleDailySet):
		apierrors.Conflict(c, "", err.Error())
	case errors.Is(err, services.ErrAlreadyCompleted):
		apierrors.Conflict(c, apierrors.ErrCodeAlreadyCompleted, err.Error())
	case errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
