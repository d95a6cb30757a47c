package dto

import (
	"github.com/team17/gbase-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
}

// ToUserDTO converts a user to its API shape. Email is only included for
// the user's own profile responses.
func ToUserDTO(user models.User, includeEmail bool) UserDTO {
	d := UserDTO{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}
	if includeEmail {
		d.Email = user.Email
	}
	return d
}
