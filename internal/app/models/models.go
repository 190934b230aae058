package models

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityKind names a document collection that can appear in a thread.
type EntityKind string

const (
	KindPost  EntityKind = "post"
	KindEvent EntityKind = "event"
	KindPoll  EntityKind = "poll"
)

// Valid reports whether k is a known kind
func (k EntityKind) Valid() bool {
	switch k {
	case KindPost, KindEvent, KindPoll:
		return true
	}
	return false
}

// ActivityTag is the discriminator attached to activity feed items.
func (k EntityKind) ActivityTag() string {
	switch k {
	case KindPost:
		return "comment"
	case KindEvent:
		return "event"
	default:
		return string(k)
	}
}

// Ref is a tagged reference to another document. Event children mix events
// and polls, so resolution code dispatches on Kind instead of guessing the collection.
type Ref struct {
	Kind EntityKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// NewRef builds a Ref
func NewRef(kind EntityKind, id uuid.UUID) Ref {
	return Ref{Kind: kind, ID: id}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// RefIDs returns the ids of the refs with the given kind, preserving order
func RefIDs(refs []Ref, kind EntityKind) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, r := range refs {
		if r.Kind == kind {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// RefsOf wraps plain ids as refs of one kind
func RefsOf(kind EntityKind, ids []uuid.UUID) []Ref {
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Ref{Kind: kind, ID: id}
	}
	return refs
}
