package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/dto"
	apierrors "github.com/team17/gbase-api/internal/errors"
	"github.com/team17/gbase-api/internal/middleware"
	"github.com/team17/gbase-api/internal/services"
	"github.com/team17/gbase-api/internal/utils"
)

// NotificationHandler coordinates team feed HTTP handlers.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetFeed returns the team's notifications, newest first, with the caller's
// read flags.
func (h *NotificationHandler) GetFeed(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	limit := constants.DefaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= constants.MaxFeedLimit {
			limit = parsed
		}
	}

	items, err := h.notificationService.Feed(team.ID, userID, limit)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	feed := make([]dto.NotificationDTO, len(items))
	for i, item := range items {
		feed[i] = dto.ToFeedItemDTO(item)
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": feed,
	})
}

// GetUnread returns the caller's unread team notifications, oldest first.
func (h *NotificationHandler) GetUnread(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.UnreadFor(team.ID, userID, params)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	unread := make([]dto.NotificationDTO, len(notifications))
	for i, n := range notifications {
		unread[i] = dto.ToNotificationDTO(n)
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": unread,
		"total":         total,
		"offset":        params.Offset,
		"limit":         params.Limit,
	})
}

// MarkRead marks a single notification as read for the caller. Repeating
// the call is a no-op.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("notification_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	if err := h.notificationService.MarkRead(userID, notificationID); err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Marked as read",
	})
}

// MarkAllRead marks every unread team notification as read for the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	marked, err := h.notificationService.MarkAllRead(userID, team.ID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"marked": marked,
	})
}

func respondNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotATeamMember):
		apierrors.NotFound(c, "Team not found")
	case errors.Is(err, services.ErrNotificationNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
