package dto

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// AccountDTO is the authenticated user's own profile
type AccountDTO struct {
	UserDTO
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
	}
}

// toOptionalUserDTO returns nil unless the relation was preloaded
func toOptionalUserDTO(user *models.User) *UserDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	dto := ToUserDTO(*user)
	return &dto
}

// ToAccountDTO converts a User model to AccountDTO
func ToAccountDTO(user models.User) AccountDTO {
	return AccountDTO{
		UserDTO:       ToUserDTO(user),
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}
