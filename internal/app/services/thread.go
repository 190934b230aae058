package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
	"github.com/yigit/bojio/internal/pkg/apperrors"
)

// MaxThreadDepth bounds how deep a reply chain may be walked
const MaxThreadDepth = 64

// VisitFunc is called for every descendant with its depth below the root (1 = direct reply)
type VisitFunc func(node models.ThreadNode, depth int) error

// WalkDescendants visits the descendants of rootID in pre-order, root
// excluded. Each document is visited at most once, so a parent_id cycle ends
// the walk instead of looping. Walking deeper than MaxThreadDepth fails with
// ErrThreadTooDeep.
func WalkDescendants(ctx context.Context, store repositories.ThreadStore, rootID uuid.UUID, visit VisitFunc) error {
	visited := map[uuid.UUID]bool{rootID: true}
	return walk(ctx, store, rootID, 1, visited, visit)
}

func walk(ctx context.Context, store repositories.ThreadStore, parentID uuid.UUID, depth int, visited map[uuid.UUID]bool, visit VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	children, err := store.FindChildren(ctx, parentID)
	if err != nil {
		return fmt.Errorf("find children of %s: %w", parentID, err)
	}
	if len(children) > 0 && depth > MaxThreadDepth {
		return fmt.Errorf("%w: %s below %s", apperrors.ErrThreadTooDeep, store.Kind(), parentID)
	}

	for _, child := range children {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true

		if err := visit(child, depth); err != nil {
			return err
		}
		if err := walk(ctx, store, child.ID, depth+1, visited, visit); err != nil {
			return err
		}
	}
	return nil
}

// CollectDescendants returns the whole subtree below rootID in pre-order
func CollectDescendants(ctx context.Context, store repositories.ThreadStore, rootID uuid.UUID) ([]models.ThreadNode, error) {
	nodes := []models.ThreadNode{}
	err := WalkDescendants(ctx, store, rootID, func(n models.ThreadNode, _ int) error {
		nodes = append(nodes, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}
