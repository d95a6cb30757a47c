package repository

import (
	"github.com/team17/gbase-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithOwner creates a team, the owner membership and the invite atomically.
func (r *GormTeamRepository) CreateWithOwner(team *models.Team, member *models.TeamMember, invite *models.TeamInvite) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}

		member.TeamID = team.ID
		if err := tx.Create(member).Error; err != nil {
			return err
		}

		invite.TeamID = team.ID
		return tx.Create(invite).Error
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByIDForUpdate finds a team by ID holding a row lock. Only meaningful
// when the repository is bound to a transaction handle.
func (r *GormTeamRepository) FindByIDForUpdate(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Update persists team fields
func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Save(team).Error
}

// FindInviteByCode finds an invite by code with its team preloaded
func (r *GormTeamRepository) FindInviteByCode(code string) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	if err := r.db.Preload("Team").Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindInviteByTeamID finds a team's invite row
func (r *GormTeamRepository) FindInviteByTeamID(teamID uint64) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	if err := r.db.Where("team_id = ?", teamID).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// UpdateInvite persists invite fields
func (r *GormTeamRepository) UpdateInvite(invite *models.TeamInvite) error {
	return r.db.Save(invite).Error
}

// AddMember adds a membership row
func (r *GormTeamRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

// RemoveMember deletes a membership row
func (r *GormTeamRepository) RemoveMember(teamID, userID uint64) error {
	return r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error
}

// FindMember finds a specific membership
func (r *GormTeamRepository) FindMember(teamID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindMemberByUserID finds the membership of a user, if any
func (r *GormTeamRepository) FindMemberByUserID(userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Preload("Team").Where("user_id = ?", userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// CountMembers counts live membership rows for a team. The cap check on
// join uses this, not the cached member_count, so drift can never admit a
// sixth member.
func (r *GormTeamRepository) CountMembers(teamID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, err
}

// ListMembers lists a team's members with users preloaded
func (r *GormTeamRepository) ListMembers(teamID uint64) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := r.db.Preload("User").
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListEligibleTeams lists active teams with enough members for quests
func (r *GormTeamRepository) ListEligibleTeams() ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.Where("is_active = ? AND member_count >= ?", true, 2).
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ListActiveTeams lists all active teams
func (r *GormTeamRepository) ListActiveTeams() ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.Where("is_active = ?", true).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}
