package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/team17/gbase-api/internal/database"
	apierrors "github.com/team17/gbase-api/internal/errors"
	"github.com/team17/gbase-api/internal/models"
)

// RequireTeamAccess checks that the user is a member of the team in the URL
func RequireTeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamIDStr := c.Param("id")
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var team models.Team
		if err := database.GetDB().First(&team, teamID).Error; err != nil {
			apierrors.NotFound(c, "Team not found")
			c.Abort()
			return
		}

		var member models.TeamMember
		err = database.GetDB().Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking team existence
			apierrors.NotFound(c, "Team not found")
			c.Abort()
			return
		}

		c.Set("team", team)
		c.Set("team_member", member)
		c.Next()
	}
}

// RequireTeamOwner checks that the user owns the team loaded by RequireTeamAccess
func RequireTeamOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamInterface, exists := c.Get("team")
		if !exists {
			apierrors.Forbidden(c, "Team access required")
			c.Abort()
			return
		}

		team, ok := teamInterface.(models.Team)
		if !ok {
			apierrors.InternalError(c, "Invalid team data")
			c.Abort()
			return
		}

		userID, _ := GetUserID(c)
		if team.OwnerID != userID {
			apierrors.Forbidden(c, "Only the team owner can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetTeam retrieves the team loaded by RequireTeamAccess
func GetTeam(c *gin.Context) (models.Team, bool) {
	teamInterface, exists := c.Get("team")
	if !exists {
		return models.Team{}, false
	}
	team, ok := teamInterface.(models.Team)
	return team, ok
}
