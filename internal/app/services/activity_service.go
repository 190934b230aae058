package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
	"golang.org/x/sync/errgroup"
)

// ActivityService computes the replies other users made to a user's content
type ActivityService interface {
	GetReplyActivity(ctx context.Context, userID uuid.UUID, kind models.EntityKind) ([]models.ActivityItem, error)
	GetActivityFeed(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error)
}

// activityServiceImpl implements ActivityService
type activityServiceImpl struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(store repositories.Store, logger zerolog.Logger) ActivityService {
	return &activityServiceImpl{store: store, logger: logger}
}

// GetReplyActivity collects every document of kind authored by userID, roots
// and replies alike, and returns their children written by someone else,
// tagged with the kind's activity type.
func (s *activityServiceImpl) GetReplyActivity(ctx context.Context, userID uuid.UUID, kind models.EntityKind) ([]models.ActivityItem, error) {
	if err := threadKind(kind); err != nil {
		return nil, err
	}
	threads := s.store.Threads(kind)

	owned, err := threads.FindByAuthor(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Str("kind", string(kind)).Msg("Failed to load authored documents")
		return nil, fmt.Errorf("load %s by author: %w", kind, err)
	}

	var childIDs []uuid.UUID
	for _, n := range owned {
		childIDs = append(childIDs, models.RefIDs(n.Children, kind)...)
	}
	if len(childIDs) == 0 {
		return []models.ActivityItem{}, nil
	}

	replies, err := threads.FindReplies(ctx, childIDs, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Str("kind", string(kind)).Msg("Failed to load replies")
		return nil, fmt.Errorf("load %s replies: %w", kind, err)
	}

	tag := kind.ActivityTag()
	items := make([]models.ActivityItem, 0, len(replies))
	for _, r := range replies {
		if r.Author.ID == userID {
			continue
		}
		items = append(items, models.ActivityItem{Reply: r, Author: r.Author, Type: tag})
	}
	return items, nil
}

// GetActivityFeed merges post and event activity, newest first
func (s *activityServiceImpl) GetActivityFeed(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error) {
	var comments, events []models.ActivityItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comments, err = s.GetReplyActivity(gctx, userID, models.KindPost)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.GetReplyActivity(gctx, userID, models.KindEvent)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed := make([]models.ActivityItem, 0, len(comments)+len(events))
	feed = append(feed, comments...)
	feed = append(feed, events...)
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Reply.CreatedAt.After(feed[j].Reply.CreatedAt)
	})
	return feed, nil
}
