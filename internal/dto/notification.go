package dto

import (
	"time"

	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/services"
)

// NotificationDTO represents a feed event in API responses
type NotificationDTO struct {
	ID        uint64                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	Actor     *UserDTO                `json:"actor,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	IsRead    *bool                   `json:"is_read,omitempty"`
}

// ToNotificationDTO converts a notification to its API shape
func ToNotificationDTO(n models.Notification) NotificationDTO {
	d := NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
	if n.Actor != nil && n.Actor.ID != 0 {
		actor := ToUserDTO(*n.Actor, false)
		d.Actor = &actor
	}
	return d
}

// ToFeedItemDTO converts a feed entry, carrying the viewer's read flag
func ToFeedItemDTO(item services.FeedItem) NotificationDTO {
	d := ToNotificationDTO(item.Notification)
	isRead := item.IsRead
	d.IsRead = &isRead
	return d
}
