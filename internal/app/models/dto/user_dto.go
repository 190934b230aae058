package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
)

// UpdateUserRequest is the onboarding / profile edit payload
type UpdateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30,username" example:"jane_doe"`
	Name     string `json:"name" binding:"required,min=3,max=30" example:"Jane Doe"`
	Bio      string `json:"bio" binding:"max=1000" example:"Organiser of Sunday picnics"`
	Image    string `json:"image" binding:"omitempty,url" example:"https://cdn.bojio.app/u/jane.png"`
	RevalidateRequest
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	ExternalID  string      `json:"externalId" example:"user_2abc"`
	Username    string      `json:"username" example:"jane_doe"`
	Name        string      `json:"name" example:"Jane Doe"`
	Bio         string      `json:"bio"`
	Image       string      `json:"image"`
	Onboarded   bool        `json:"onboarded"`
	Posts       []uuid.UUID `json:"posts"`
	Communities []uuid.UUID `json:"communities"`
	Events      []uuid.UUID `json:"events"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// FromUser converts a models.User to a UserResponse
func FromUser(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		Username:    u.Username,
		Name:        u.Name,
		Bio:         u.Bio,
		Image:       u.Image,
		Onboarded:   u.Onboarded,
		Posts:       u.Posts,
		Communities: u.Communities,
		Events:      u.Events,
		CreatedAt:   u.CreatedAt,
	}
}

// FromUsers converts a slice of users
func FromUsers(users []models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = *FromUser(&users[i])
	}
	return out
}

// MeResponse describes the caller. User is nil until onboarding completes.
type MeResponse struct {
	ExternalID      string        `json:"externalId" example:"user_2abc"`
	NeedsOnboarding bool          `json:"needsOnboarding"`
	User            *UserResponse `json:"user,omitempty"`
}
