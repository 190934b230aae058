package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a member of the platform, keyed internally by ID and externally by
// the identity provider's ExternalID.
type User struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	ExternalID  string      `json:"externalId" db:"external_id"`
	Username    string      `json:"username" db:"username"`
	Name        string      `json:"name" db:"name"`
	Bio         string      `json:"bio" db:"bio"`
	Image       string      `json:"image" db:"image"`
	Onboarded   bool        `json:"onboarded" db:"onboarded"`
	Posts       []uuid.UUID `json:"posts" db:"posts"`
	Communities []uuid.UUID `json:"communities" db:"communities"`
	Events      []uuid.UUID `json:"events" db:"events"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}

// AuthorSummary is the subset of a user attached to replies and thread nodes.
type AuthorSummary struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Image      string    `json:"image"`
}

// Summary returns the author view of u
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{ID: u.ID, ExternalID: u.ExternalID, Name: u.Name, Image: u.Image}
}

// UserProfile is the upsert payload coming from onboarding/profile edits.
type UserProfile struct {
	ExternalID string
	Username   string
	Name       string
	Bio        string
	Image      string
}

// ListField names a reference list column on users and communities.
type ListField string

const (
	FieldPosts       ListField = "posts"
	FieldEvents      ListField = "events"
	FieldCommunities ListField = "communities"
	FieldMembers     ListField = "members"
)

// OwnedField returns the user/community list that holds documents of kind k.
func OwnedField(k EntityKind) ListField {
	if k == KindEvent {
		return FieldEvents
	}
	return FieldPosts
}
