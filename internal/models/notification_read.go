package models

import "time"

// NotificationRead marks one notification as read by one user. Created on
// first view and immutable afterwards; the unique pair makes re-marking a
// no-op at the database level.
type NotificationRead struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	NotificationID uint64    `gorm:"not null;uniqueIndex:uq_notification_read" json:"notification_id"`
	UserID         uint64    `gorm:"not null;uniqueIndex:uq_notification_read;index" json:"user_id"`
	ReadAt         time.Time `json:"read_at"`

	// Relations
	Notification Notification `gorm:"foreignKey:NotificationID" json:"-"`
	User         User         `gorm:"foreignKey:UserID" json:"-"`
}
