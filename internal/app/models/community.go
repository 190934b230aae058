package models

import (
	"time"

	"github.com/google/uuid"
)

// Community groups users, posts and events. Members is the authoritative
// membership list; User.Communities mirrors it.
type Community struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	ExternalID string      `json:"externalId" db:"external_id"`
	Username   string      `json:"username" db:"username"`
	Name       string      `json:"name" db:"name"`
	Image      string      `json:"image" db:"image"`
	Bio        string      `json:"bio" db:"bio"`
	CreatedBy  *uuid.UUID  `json:"createdBy,omitempty" db:"created_by"`
	Posts      []uuid.UUID `json:"posts" db:"posts"`
	Members    []uuid.UUID `json:"members" db:"members"`
	Events     []uuid.UUID `json:"events" db:"events"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}

// CommunitySummary is the subset of a community attached to posts and events
type CommunitySummary struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Image      string    `json:"image"`
}

// Summary returns the compact view of c
func (c *Community) Summary() CommunitySummary {
	return CommunitySummary{ID: c.ID, ExternalID: c.ExternalID, Name: c.Name, Image: c.Image}
}

// CommunityFields carries the editable content of a community.
type CommunityFields struct {
	Username string
	Name     string
	Image    string
	Bio      string
}

// CommunityDetail is a community with its creator and members resolved.
type CommunityDetail struct {
	Community
	Creator *AuthorSummary  `json:"creator,omitempty"`
	Roster  []AuthorSummary `json:"roster"`
}
