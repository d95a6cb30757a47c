package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/repository"
	"github.com/team17/gbase-api/internal/utils"
)

var (
	ErrTeamNotFound               = errors.New("team not found")
	ErrInvalidTeamName            = errors.New("team name cannot be empty")
	ErrInvalidMaxMembers          = errors.New("max members must be between 2 and 5")
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInvite              = errors.New("invite code is invalid or inactive")
	ErrAlreadyMember              = errors.New("user already belongs to a team")
	ErrTeamFull                   = errors.New("team is full")
	ErrNotTeamOwner               = errors.New("only the team owner can do this")
	ErrOwnerMustDissolve          = errors.New("the owner cannot leave; dissolve the team instead")
	ErrNotATeamMember             = errors.New("user is not a member of this team")
)

// AccrualResult reports the outcome of a point accrual on the team ledger.
type AccrualResult struct {
	TotalPoints int
	RankBefore  models.TeamRank
	RankAfter   models.TeamRank
}

// RankChanged reports whether the accrual crossed a rank threshold.
func (r AccrualResult) RankChanged() bool {
	return r.RankBefore != r.RankAfter
}

// TeamService owns teams, memberships and invites, and the cached
// aggregates on the team row. All writes to those aggregates happen here,
// in the same transaction as the membership or completion event that causes
// them.
type TeamService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewTeamService creates a new TeamService.
func NewTeamService(db *gorm.DB, notifications *NotificationService) *TeamService {
	return &TeamService{
		db:            db,
		notifications: notifications,
	}
}

// CreateTeam creates a team with the owner auto-joined and an invite code
// issued, all in one transaction.
func (s *TeamService) CreateTeam(ownerID uint64, name string, maxMembers int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}
	if maxMembers < constants.MinTeamMembers || maxMembers > constants.MaxTeamMembers {
		return nil, ErrInvalidMaxMembers
	}

	teamRepo := repository.NewTeamRepository(s.db)

	// The unique index on team_members.user_id is the real guard; this
	// check just produces a friendlier error before we touch anything.
	if _, err := teamRepo.FindMemberByUserID(ownerID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	code, err := s.uniqueInviteCode(teamRepo)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:        name,
		OwnerID:     ownerID,
		MaxMembers:  maxMembers,
		MemberCount: 1,
		TotalPoints: 0,
		Rank:        models.RankF,
		IsActive:    true,
	}
	member := &models.TeamMember{
		UserID:   ownerID,
		JoinedAt: time.Now(),
	}
	invite := &models.TeamInvite{
		Code:     code,
		IsActive: true,
	}

	if err := teamRepo.CreateWithOwner(team, member, invite); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	team.Invite = invite
	return team, nil
}

// JoinTeam adds a user to a team via invite code. The team row is locked so
// concurrent joins cannot push member_count past max_members.
func (s *TeamService) JoinTeam(userID uint64, code string) (*models.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidInvite
	}

	invite, err := repository.NewTeamRepository(s.db).FindInviteByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInvite
		}
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}
	if !invite.IsActive {
		return nil, ErrInvalidInvite
	}
	if invite.ExpiresAt != nil && invite.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidInvite
	}

	var joined *models.Team
	err = s.db.Transaction(func(tx *gorm.DB) error {
		teamRepo := repository.NewTeamRepository(tx)

		team, err := teamRepo.FindByIDForUpdate(invite.TeamID)
		if err != nil {
			return fmt.Errorf("failed to lock team: %w", err)
		}
		if !team.IsActive {
			return ErrInvalidInvite
		}

		if _, err := teamRepo.FindMemberByUserID(userID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		// Cap check against live rows, not the cached counter.
		count, err := teamRepo.CountMembers(team.ID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if count >= int64(team.MaxMembers) {
			return ErrTeamFull
		}

		member := &models.TeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			JoinedAt: time.Now(),
		}
		if err := teamRepo.AddMember(member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to add member: %w", err)
		}

		team.MemberCount = int(count) + 1
		if err := teamRepo.Update(team); err != nil {
			return fmt.Errorf("failed to update member count: %w", err)
		}

		joined = team
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.notifications.Publish(joined.ID, models.NotificationSystem, "新しいメンバーが参加しました！", &userID); err != nil {
		log.Printf("join notification failed for team %d: %v", joined.ID, err)
	}

	return joined, nil
}

// LeaveTeam removes the user's membership. The owner cannot leave; a team
// without its owner is dissolved instead.
func (s *TeamService) LeaveTeam(userID uint64) error {
	membership, err := repository.NewTeamRepository(s.db).FindMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotATeamMember
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		teamRepo := repository.NewTeamRepository(tx)

		team, err := teamRepo.FindByIDForUpdate(membership.TeamID)
		if err != nil {
			return fmt.Errorf("failed to lock team: %w", err)
		}
		if team.OwnerID == userID {
			return ErrOwnerMustDissolve
		}

		if err := teamRepo.RemoveMember(team.ID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		count, err := teamRepo.CountMembers(team.ID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		team.MemberCount = int(count)
		return teamRepo.Update(team)
	})
}

// DissolveTeam deactivates the team, removes all memberships and
// invalidates the invite. Owner only.
func (s *TeamService) DissolveTeam(teamID, actorID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		teamRepo := repository.NewTeamRepository(tx)

		team, err := teamRepo.FindByIDForUpdate(teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to lock team: %w", err)
		}
		if team.OwnerID != actorID {
			return ErrNotTeamOwner
		}

		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
			return fmt.Errorf("failed to remove members: %w", err)
		}

		if invite, err := teamRepo.FindInviteByTeamID(teamID); err == nil {
			invite.IsActive = false
			if err := teamRepo.UpdateInvite(invite); err != nil {
				return fmt.Errorf("failed to deactivate invite: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to find invite: %w", err)
		}

		now := time.Now()
		team.IsActive = false
		team.DissolvedAt = &now
		team.MemberCount = 0
		return teamRepo.Update(team)
	})
}

// RegenerateInviteCode replaces the team's invite code and reactivates the
// invite. Owner only.
func (s *TeamService) RegenerateInviteCode(teamID, actorID uint64) (*models.TeamInvite, error) {
	teamRepo := repository.NewTeamRepository(s.db)

	team, err := teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	if team.OwnerID != actorID {
		return nil, ErrNotTeamOwner
	}

	invite, err := teamRepo.FindInviteByTeamID(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	code, err := s.uniqueInviteCode(teamRepo)
	if err != nil {
		return nil, err
	}

	invite.Code = code
	invite.IsActive = true
	if err := teamRepo.UpdateInvite(invite); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}
	return invite, nil
}

// DeactivateInvite turns the team's invite code off without replacing it.
// Owner only.
func (s *TeamService) DeactivateInvite(teamID, actorID uint64) error {
	teamRepo := repository.NewTeamRepository(s.db)

	team, err := teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}
	if team.OwnerID != actorID {
		return ErrNotTeamOwner
	}

	invite, err := teamRepo.FindInviteByTeamID(teamID)
	if err != nil {
		return fmt.Errorf("failed to find invite: %w", err)
	}

	invite.IsActive = false
	return teamRepo.UpdateInvite(invite)
}

// GetTeamForUser returns the user's team and membership, if any.
func (s *TeamService) GetTeamForUser(userID uint64) (*models.Team, *models.TeamMember, error) {
	membership, err := repository.NewTeamRepository(s.db).FindMemberByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotATeamMember
		}
		return nil, nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return &membership.Team, membership, nil
}

// GetTeamWithMembers returns a team and its roster.
func (s *TeamService) GetTeamWithMembers(teamID uint64) (*models.Team, []models.TeamMember, error) {
	teamRepo := repository.NewTeamRepository(s.db)

	team, err := teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, fmt.Errorf("failed to find team: %w", err)
	}

	members, err := teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}
	return team, members, nil
}

// GetInvite returns the team's invite row; members only.
func (s *TeamService) GetInvite(teamID, userID uint64) (*models.TeamInvite, error) {
	teamRepo := repository.NewTeamRepository(s.db)

	if _, err := teamRepo.FindMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotATeamMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	invite, err := teamRepo.FindInviteByTeamID(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return invite, nil
}

// AccruePointsTx adds delta to the team's cumulative points inside the
// caller's transaction, holding a row lock, and recomputes the rank as the
// highest threshold at or below the new total. Rank movement is upward only
// in this domain; points never decrease.
func (s *TeamService) AccruePointsTx(tx *gorm.DB, teamID uint64, delta int) (*AccrualResult, error) {
	teamRepo := repository.NewTeamRepository(tx)

	team, err := teamRepo.FindByIDForUpdate(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to lock team: %w", err)
	}

	result := &AccrualResult{RankBefore: team.Rank}

	team.TotalPoints += delta
	team.Rank = models.RankForPoints(team.TotalPoints)

	result.TotalPoints = team.TotalPoints
	result.RankAfter = team.Rank

	if err := teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update team points: %w", err)
	}
	return result, nil
}

// ReconcileAggregates recomputes member_count, total_points and rank for
// every active team from the source rows and repairs any drift. Meant for
// an offline pass; the hot path never recomputes these lazily.
func (s *TeamService) ReconcileAggregates() (int, error) {
	teams, err := repository.NewTeamRepository(s.db).ListActiveTeams()
	if err != nil {
		return 0, fmt.Errorf("failed to list teams: %w", err)
	}

	repaired := 0
	for _, t := range teams {
		fixed, err := s.reconcileTeam(t.ID)
		if err != nil {
			return repaired, err
		}
		if fixed {
			repaired++
		}
	}
	return repaired, nil
}

func (s *TeamService) reconcileTeam(teamID uint64) (bool, error) {
	fixed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		teamRepo := repository.NewTeamRepository(tx)

		team, err := teamRepo.FindByIDForUpdate(teamID)
		if err != nil {
			return fmt.Errorf("failed to lock team %d: %w", teamID, err)
		}

		memberCount, err := teamRepo.CountMembers(teamID)
		if err != nil {
			return fmt.Errorf("failed to count members of team %d: %w", teamID, err)
		}
		totalPoints, err := repository.NewQuestRepository(tx).TotalPointsForTeam(teamID)
		if err != nil {
			return fmt.Errorf("failed to sum points of team %d: %w", teamID, err)
		}
		rank := models.RankForPoints(int(totalPoints))

		if team.MemberCount == int(memberCount) && team.TotalPoints == int(totalPoints) && team.Rank == rank {
			return nil
		}

		log.Printf("aggregate drift on team %d: member_count %d->%d, total_points %d->%d, rank %s->%s",
			teamID, team.MemberCount, memberCount, team.TotalPoints, totalPoints, team.Rank, rank)

		team.MemberCount = int(memberCount)
		team.TotalPoints = int(totalPoints)
		team.Rank = rank
		if err := teamRepo.Update(team); err != nil {
			return fmt.Errorf("failed to repair team %d: %w", teamID, err)
		}
		fixed = true
		return nil
	})
	return fixed, err
}

func (s *TeamService) uniqueInviteCode(teamRepo repository.TeamRepository) (string, error) {
	const maxRetry = 5
	for i := 0; i < maxRetry; i++ {
		code, err := utils.GenerateInviteCode()
		if err != nil {
			return "", ErrInviteCodeGenerationFailed
		}
		if _, err := teamRepo.FindInviteByCode(code); errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
	}
	return "", ErrInviteCodeGenerationFailed
}
