package repository

import (
	"time"

	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(email string) (*models.User, error)
}

// TeamRepository defines the interface for team, membership and invite data
// access. Implementations bound to a transaction handle participate in that
// transaction.
type TeamRepository interface {
	// CreateWithOwner creates a team, its owner membership and its invite
	// within a single transaction.
	CreateWithOwner(team *models.Team, member *models.TeamMember, invite *models.TeamInvite) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// FindByIDForUpdate finds a team by ID holding a row lock
	FindByIDForUpdate(id uint64) (*models.Team, error)

	// Update persists team fields
	Update(team *models.Team) error

	// FindInviteByCode finds an invite by code, with its team
	FindInviteByCode(code string) (*models.TeamInvite, error)

	// FindInviteByTeamID finds a team's invite row
	FindInviteByTeamID(teamID uint64) (*models.TeamInvite, error)

	// UpdateInvite persists invite fields
	UpdateInvite(invite *models.TeamInvite) error

	// AddMember adds a membership row
	AddMember(member *models.TeamMember) error

	// RemoveMember deletes a membership row
	RemoveMember(teamID, userID uint64) error

	// FindMember finds a specific membership
	FindMember(teamID, userID uint64) (*models.TeamMember, error)

	// FindMemberByUserID finds the membership of a user, if any
	FindMemberByUserID(userID uint64) (*models.TeamMember, error)

	// CountMembers counts live membership rows for a team
	CountMembers(teamID uint64) (int64, error)

	// ListMembers lists a team's members with users preloaded
	ListMembers(teamID uint64) ([]models.TeamMember, error)

	// ListEligibleTeams lists active teams with enough members for quests
	ListEligibleTeams() ([]models.Team, error)

	// ListActiveTeams lists all active teams
	ListActiveTeams() ([]models.Team, error)
}

// QuestRepository defines the interface for catalog, daily set and
// completion data access.
type QuestRepository interface {
	// CreateQuest inserts a catalog quest
	CreateQuest(quest *models.Quest) error

	// CountQuests counts all catalog rows
	CountQuests() (int64, error)

	// ListActiveByDifficulty lists active catalog quests of one tier
	ListActiveByDifficulty(difficulty models.QuestDifficulty) ([]models.Quest, error)

	// FindDailySet finds a team's set for a date, or gorm.ErrRecordNotFound
	FindDailySet(teamID uint64, date string) (*models.DailyQuestSet, error)

	// CreateDailySet inserts a set and its items in one transaction
	CreateDailySet(set *models.DailyQuestSet, items []models.DailyQuestItem) error

	// ListItems lists a set's items in slot order with quests preloaded
	ListItems(dailySetID uint64) ([]models.DailyQuestItem, error)

	// FindItemByID finds an item with its quest, set and team preloaded
	FindItemByID(id uint64) (*models.DailyQuestItem, error)

	// CreateCompletion inserts a completion row
	CreateCompletion(completion *models.QuestCompletion) error

	// FindCompletion finds a completion by (item, user)
	FindCompletion(dailyItemID, userID uint64) (*models.QuestCompletion, error)

	// CompletionCountsByItem returns per-item completion counts for a set
	CompletionCountsByItem(dailySetID uint64) (map[uint64]int, error)

	// UserCompletedItemIDs returns which items of a set the user completed
	UserCompletedItemIDs(dailySetID, userID uint64) (map[uint64]bool, error)

	// CompletionCountsByUser returns per-user completion counts for a set
	CompletionCountsByUser(dailySetID uint64) (map[uint64]int, error)

	// TotalPointsForTeam recomputes a team's cumulative points from its
	// completion rows; used by the offline reconciliation pass only
	TotalPointsForTeam(teamID uint64) (int64, error)

	// TopScorerForSet returns the user with the most points for a set,
	// ties broken by earliest completion. gorm.ErrRecordNotFound when the
	// set has no completions.
	TopScorerForSet(dailySetID uint64) (*MVPRow, error)
}

// MVPRow is the aggregation result for a daily set's top scorer.
type MVPRow struct {
	UserID           uint64
	TotalPoints      int
	FirstCompletedAt time.Time
}

// NotificationRepository defines the interface for the notification log.
type NotificationRepository interface {
	// Create appends a notification
	Create(n *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(id uint64) (*models.Notification, error)

	// ListByTeam lists a team's notifications, newest first
	ListByTeam(teamID uint64, limit int) ([]models.Notification, error)

	// ListUnread lists the team notifications the user has not read,
	// oldest first, paginated for restartable iteration
	ListUnread(teamID, userID uint64, params utils.PaginationParams) ([]models.Notification, error)

	// CountUnread counts the team notifications the user has not read
	CountUnread(teamID, userID uint64) (int64, error)

	// MarkRead inserts a read marker; inserting twice is a no-op
	MarkRead(notificationID, userID uint64) error

	// MarkAllRead inserts read markers for every team notification the
	// user has not read and reports how many were created
	MarkAllRead(teamID, userID uint64) (int64, error)

	// ReadIDs reports which of the given notifications the user has read
	ReadIDs(userID uint64, notificationIDs []uint64) (map[uint64]bool, error)
}
