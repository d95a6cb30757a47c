package repository

import (
	"time"

	"github.com/team17/gbase-api/internal/database"
	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create appends a notification
func (r *GormNotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(id uint64) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByTeam lists a team's notifications, newest first
func (r *GormNotificationRepository) ListByTeam(teamID uint64, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.Preload("Actor").
		Where("team_id = ?", teamID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListUnread lists the team notifications the user has not read, oldest
// first. Pagination makes the sequence restartable from any point.
func (r *GormNotificationRepository) ListUnread(teamID, userID uint64, params utils.PaginationParams) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.unreadQuery(teamID, userID).
		Order("notifications.created_at ASC, notifications.id ASC").
		Scopes(database.Paginate(params)).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread counts the team notifications the user has not read
func (r *GormNotificationRepository) CountUnread(teamID, userID uint64) (int64, error) {
	var count int64
	err := r.unreadQuery(teamID, userID).Count(&count).Error
	return count, err
}

func (r *GormNotificationRepository) unreadQuery(teamID, userID uint64) *gorm.DB {
	readSubQuery := r.db.Model(&models.NotificationRead{}).
		Select("1").
		Where("notification_reads.notification_id = notifications.id").
		Where("notification_reads.user_id = ?", userID)

	return r.db.Model(&models.Notification{}).
		Where("notifications.team_id = ?", teamID).
		Where("NOT EXISTS (?)", readSubQuery)
}

// MarkRead inserts a read marker; a second insert for the same pair is a
// no-op rather than an error.
func (r *GormNotificationRepository) MarkRead(notificationID, userID uint64) error {
	read := models.NotificationRead{
		NotificationID: notificationID,
		UserID:         userID,
		ReadAt:         time.Now(),
	}
	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&read).Error
}

// MarkAllRead inserts read markers for every team notification the user has
// not read and reports how many were created.
func (r *GormNotificationRepository) MarkAllRead(teamID, userID uint64) (int64, error) {
	var ids []uint64
	if err := r.unreadQuery(teamID, userID).Pluck("notifications.id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	now := time.Now()
	reads := make([]models.NotificationRead, len(ids))
	for i, id := range ids {
		reads[i] = models.NotificationRead{
			NotificationID: id,
			UserID:         userID,
			ReadAt:         now,
		}
	}

	result := r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&reads)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReadIDs reports which of the given notifications the user has read
func (r *GormNotificationRepository) ReadIDs(userID uint64, notificationIDs []uint64) (map[uint64]bool, error) {
	read := make(map[uint64]bool, len(notificationIDs))
	if len(notificationIDs) == 0 {
		return read, nil
	}

	var ids []uint64
	err := r.db.Model(&models.NotificationRead{}).
		Where("user_id = ? AND notification_id IN ?", userID, notificationIDs).
		Pluck("notification_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		read[id] = true
	}
	return read, nil
}
