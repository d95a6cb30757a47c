package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/repository"
	"github.com/team17/gbase-api/internal/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

// FeedItem pairs a notification with the viewing user's read state.
type FeedItem struct {
	Notification models.Notification
	IsRead       bool
}

// NotificationService owns the append-only team event log and the per-user
// read markers.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Publish appends a team-visible event.
func (s *NotificationService) Publish(teamID uint64, nType models.NotificationType, message string, actorID *uint64) (*models.Notification, error) {
	return s.PublishTx(s.db, teamID, nType, message, actorID)
}

// PublishTx appends a team-visible event inside the caller's transaction,
// so domain events and their notifications commit or roll back together.
func (s *NotificationService) PublishTx(tx *gorm.DB, teamID uint64, nType models.NotificationType, message string, actorID *uint64) (*models.Notification, error) {
	n := &models.Notification{
		TeamID:  teamID,
		Type:    nType,
		Message: message,
		ActorID: actorID,
	}
	if err := repository.NewNotificationRepository(tx).Create(n); err != nil {
		return nil, fmt.Errorf("failed to publish notification: %w", err)
	}
	return n, nil
}

// Feed returns the team's notifications, newest first, with the viewer's
// read flags. Members only.
func (s *NotificationService) Feed(teamID, userID uint64, limit int) ([]FeedItem, error) {
	if err := s.assertMember(teamID, userID); err != nil {
		return nil, err
	}

	repo := repository.NewNotificationRepository(s.db)
	notifications, err := repo.ListByTeam(teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if len(notifications) == 0 {
		return []FeedItem{}, nil
	}

	ids := make([]uint64, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ID
	}
	read, err := repo.ReadIDs(userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load read markers: %w", err)
	}

	items := make([]FeedItem, len(notifications))
	for i, n := range notifications {
		items[i] = FeedItem{Notification: n, IsRead: read[n.ID]}
	}
	return items, nil
}

// UnreadFor returns the team notifications the user has not read, oldest
// first. The offset/limit pair makes the sequence finite and restartable
// from any point.
func (s *NotificationService) UnreadFor(teamID, userID uint64, params utils.PaginationParams) ([]models.Notification, int64, error) {
	if err := s.assertMember(teamID, userID); err != nil {
		return nil, 0, err
	}

	repo := repository.NewNotificationRepository(s.db)
	total, err := repo.CountUnread(teamID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread: %w", err)
	}

	notifications, err := repo.ListUnread(teamID, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list unread: %w", err)
	}
	return notifications, total, nil
}

// MarkRead records that the user has seen one notification. Calling it
// again for the same pair is a no-op, not an error.
func (s *NotificationService) MarkRead(userID, notificationID uint64) error {
	repo := repository.NewNotificationRepository(s.db)

	n, err := repo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}

	if err := s.assertMember(n.TeamID, userID); err != nil {
		return err
	}

	if err := repo.MarkRead(notificationID, userID); err != nil {
		// The unique pair makes a lost race equivalent to "already read".
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread team notification as read for the user
// and reports how many markers were created.
func (s *NotificationService) MarkAllRead(userID, teamID uint64) (int64, error) {
	if err := s.assertMember(teamID, userID); err != nil {
		return 0, err
	}

	created, err := repository.NewNotificationRepository(s.db).MarkAllRead(teamID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}
	return created, nil
}

func (s *NotificationService) assertMember(teamID, userID uint64) error {
	if _, err := repository.NewTeamRepository(s.db).FindMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotATeamMember
		}
		return fmt.Errorf("failed to check membership: %w", err)
	}
	return nil
}
