package dto

import (
	"time"

	"github.com/team17/gbase-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	OwnerID     uint64          `json:"owner_id"`
	MaxMembers  int             `json:"max_members"`
	MemberCount int             `json:"member_count"`
	TotalPoints int             `json:"total_points"`
	Rank        models.TeamRank `json:"rank"`
	InviteCode  string          `json:"invite_code,omitempty"`
	IsActive    bool            `json:"is_active"`
}

// TeamMemberDTO represents a roster entry in API responses
type TeamMemberDTO struct {
	User     UserDTO   `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamDetailDTO represents a team with its roster and progression info
type TeamDetailDTO struct {
	TeamDTO
	Members []TeamMemberDTO `json:"members"`
	// NextRankAt is the point total of the next rank, nil at the top rank.
	NextRankAt *int `json:"next_rank_at,omitempty"`
}

// ToTeamDTO converts a team to its API shape
func ToTeamDTO(team models.Team, includeInvite bool) TeamDTO {
	d := TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		OwnerID:     team.OwnerID,
		MaxMembers:  team.MaxMembers,
		MemberCount: team.MemberCount,
		TotalPoints: team.TotalPoints,
		Rank:        team.Rank,
		IsActive:    team.IsActive,
	}
	if includeInvite && team.Invite != nil && team.Invite.IsActive {
		d.InviteCode = team.Invite.Code
	}
	return d
}

// ToTeamMemberDTO converts a membership row to its API shape
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		User:     ToUserDTO(member.User, false),
		JoinedAt: member.JoinedAt,
	}
}

// ToTeamDetailDTO converts a team and roster to the detail response
func ToTeamDetailDTO(team models.Team, members []models.TeamMember) TeamDetailDTO {
	memberDTOs := make([]TeamMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = ToTeamMemberDTO(m)
	}

	detail := TeamDetailDTO{
		TeamDTO: ToTeamDTO(team, false),
		Members: memberDTOs,
	}
	for _, rt := range models.RankThresholds {
		if rt.Threshold > team.TotalPoints {
			threshold := rt.Threshold
			detail.NextRankAt = &threshold
			break
		}
	}
	return detail
}
