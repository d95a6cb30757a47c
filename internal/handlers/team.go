package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/dto"
	apierrors "github.com/team17/gbase-api/internal/errors"
	"github.com/team17/gbase-api/internal/middleware"
	"github.com/team17/gbase-api/internal/services"
)

// TeamHandler coordinates team-related HTTP handlers.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a team with the caller as owner.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTeamRequest struct {
		Name       string `json:"name" binding:"required,min=1,max=30"`
		MaxMembers *int   `json:"max_members"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	maxMembers := constants.MaxTeamMembers
	if req.MaxMembers != nil {
		maxMembers = *req.MaxMembers
	}

	team, err := h.teamService.CreateTeam(userID, req.Name, maxMembers)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team, true))
}

// JoinTeam adds the caller to a team via invite code.
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.JoinTeam(userID, req.InviteCode)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, false))
}

// GetMyTeam returns the caller's team, if any.
func (h *TeamHandler) GetMyTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	team, _, err := h.teamService.GetTeamForUser(userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team, false))
}

// GetTeam returns team details with the roster. Team access is checked by
// middleware.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	loaded, members, err := h.teamService.GetTeamWithMembers(team.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*loaded, members))
}

// LeaveTeam removes the caller from their team.
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.teamService.LeaveTeam(userID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left the team",
	})
}

// DissolveTeam deactivates the team. Owner only (checked by middleware).
func (h *TeamHandler) DissolveTeam(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	if err := h.teamService.DissolveTeam(team.ID, userID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team dissolved",
	})
}

// GetInvite returns the team's invite code. Members only.
func (h *TeamHandler) GetInvite(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	invite, err := h.teamService.GetInvite(team.ID, userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite_code": invite.Code,
		"is_active":   invite.IsActive,
	})
}

// RegenerateInviteCode issues a fresh invite code. Owner only.
func (h *TeamHandler) RegenerateInviteCode(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	invite, err := h.teamService.RegenerateInviteCode(team.ID, userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite_code": invite.Code,
		"is_active":   invite.IsActive,
	})
}

// DeactivateInvite turns the invite code off. Owner only.
func (h *TeamHandler) DeactivateInvite(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	if err := h.teamService.DeactivateInvite(team.ID, userID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invite deactivated",
	})
}

func respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTeamName),
		errors.Is(err, services.ErrInvalidMaxMembers):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidInvite):
		apierrors.Conflict(c, apierrors.ErrCodeInvalidInvite, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, apierrors.ErrCodeAlreadyMember, err.Error())
	case errors.Is(err, services.ErrTeamFull):
		apierrors.Conflict(c, apierrors.ErrCodeTeamFull, err.Error())
	case errors.Is(err, services.ErrOwnerMustDissolve):
		apierrors.Conflict(c, "", err.Error())
	case errors.Is(err, services.ErrNotTeamOwner):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotATeamMember):
		apierrors.NotFound(c, "You do not belong to a team")
	case errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInviteCodeGenerationFailed):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
