package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreadNode is the kind-independent view of a post or event used by the
// reference engine, the thread resolver and the activity aggregator.
type ThreadNode struct {
	ID           uuid.UUID
	Kind         EntityKind
	Body         string
	Author       uuid.UUID
	Community    *uuid.UUID
	ParentID     *uuid.UUID
	Children     []Ref
	Participants []uuid.UUID
	CreatedAt    time.Time
}

// IsRoot reports whether the node has no parent
func (n *ThreadNode) IsRoot() bool {
	return n.ParentID == nil
}

// Reply is a thread node with its author resolved.
type Reply struct {
	ID        uuid.UUID     `json:"id"`
	Kind      EntityKind    `json:"kind"`
	Body      string        `json:"body"`
	ParentID  *uuid.UUID    `json:"parentId,omitempty"`
	Author    AuthorSummary `json:"author"`
	Children  []Ref         `json:"children"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ActivityItem is one entry of a user's activity feed: somebody else's reply
// to the user's content, tagged "comment" or "event".
type ActivityItem struct {
	Reply  Reply         `json:"reply"`
	Author AuthorSummary `json:"authorSummary"`
	Type   string        `json:"type"`
}
