package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a planned happening. Comments on events are events themselves with
// ParentID set; polls attach to an event through its Children list.
type Event struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Title        string      `json:"title" db:"title"`
	Description  string      `json:"description" db:"description"`
	Date         *time.Time  `json:"date,omitempty" db:"date"`
	Location     string      `json:"location" db:"location"`
	Image        string      `json:"image" db:"image"`
	Author       uuid.UUID   `json:"author" db:"author"`
	Community    *uuid.UUID  `json:"community,omitempty" db:"community"`
	ParentID     *uuid.UUID  `json:"parentId,omitempty" db:"parent_id"`
	Children     []Ref       `json:"children" db:"children"`
	Participants []uuid.UUID `json:"participants" db:"participants"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
}

// Node returns the thread view of e
func (e *Event) Node() ThreadNode {
	return ThreadNode{
		ID:           e.ID,
		Kind:         KindEvent,
		Body:         e.Title,
		Author:       e.Author,
		Community:    e.Community,
		ParentID:     e.ParentID,
		Children:     e.Children,
		Participants: e.Participants,
		CreatedAt:    e.CreatedAt,
	}
}

// EventFields carries the editable content of an event.
type EventFields struct {
	Title       string
	Description string
	Date        *time.Time
	Location    string
	Image       string
}

// EventDetail is an event with author, community, replies and polls resolved.
type EventDetail struct {
	Event
	AuthorSummary AuthorSummary     `json:"authorSummary"`
	Community     *CommunitySummary `json:"communityInfo,omitempty"`
	Replies       []Reply           `json:"replies"`
	Polls         []Poll            `json:"polls"`
}
