package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
)

// ThreadNodeResponse is one document of a comment thread
type ThreadNodeResponse struct {
	ID        uuid.UUID         `json:"id"`
	Kind      models.EntityKind `json:"kind" example:"post"`
	Body      string            `json:"body"`
	Author    uuid.UUID         `json:"author"`
	ParentID  *uuid.UUID        `json:"parentId,omitempty"`
	Children  []models.Ref      `json:"children"`
	CreatedAt time.Time         `json:"createdAt"`
}

// FromThreadNodes converts thread nodes, keeping their order
func FromThreadNodes(nodes []models.ThreadNode) []ThreadNodeResponse {
	out := make([]ThreadNodeResponse, len(nodes))
	for i, n := range nodes {
		out[i] = ThreadNodeResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Body:      n.Body,
			Author:    n.Author,
			ParentID:  n.ParentID,
			Children:  n.Children,
			CreatedAt: n.CreatedAt,
		}
	}
	return out
}

// ReplyFromNode attaches the author to a freshly created comment
func ReplyFromNode(n *models.ThreadNode, author models.AuthorSummary) models.Reply {
	children := n.Children
	if children == nil {
		children = []models.Ref{}
	}
	return models.Reply{
		ID:        n.ID,
		Kind:      n.Kind,
		Body:      n.Body,
		ParentID:  n.ParentID,
		Author:    author,
		Children:  children,
		CreatedAt: n.CreatedAt,
	}
}
