package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a root post or, when ParentID is set, a comment on another post.
type Post struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Text      string      `json:"text" db:"text"`
	Author    uuid.UUID   `json:"author" db:"author"`
	Community *uuid.UUID  `json:"community,omitempty" db:"community"`
	ParentID  *uuid.UUID  `json:"parentId,omitempty" db:"parent_id"`
	Children  []uuid.UUID `json:"children" db:"children"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// Node returns the thread view of p
func (p *Post) Node() ThreadNode {
	return ThreadNode{
		ID:        p.ID,
		Kind:      KindPost,
		Body:      p.Text,
		Author:    p.Author,
		Community: p.Community,
		ParentID:  p.ParentID,
		Children:  RefsOf(KindPost, p.Children),
		CreatedAt: p.CreatedAt,
	}
}

// PostWithAuthor is a post with its author and its direct replies resolved.
type PostWithAuthor struct {
	Post
	AuthorSummary AuthorSummary     `json:"authorSummary"`
	Community     *CommunitySummary `json:"communityInfo,omitempty"`
	Replies       []Reply           `json:"replies,omitempty"`
}
