package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
)

// summaries loads the authors and communities referenced by a batch of
// documents so they can be attached without one query per document.
type summaries struct {
	authors     map[uuid.UUID]models.AuthorSummary
	communities map[uuid.UUID]models.CommunitySummary
}

func loadSummaries(ctx context.Context, store repositories.Store, authorIDs []uuid.UUID, communityIDs []uuid.UUID) (*summaries, error) {
	s := &summaries{
		authors:     map[uuid.UUID]models.AuthorSummary{},
		communities: map[uuid.UUID]models.CommunitySummary{},
	}

	if len(authorIDs) > 0 {
		users, err := store.Users().FindByIDs(ctx, authorIDs)
		if err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
		for i := range users {
			s.authors[users[i].ID] = users[i].Summary()
		}
	}

	if len(communityIDs) > 0 {
		communities, err := store.Communities().FindByIDs(ctx, communityIDs)
		if err != nil {
			return nil, fmt.Errorf("load communities: %w", err)
		}
		for i := range communities {
			s.communities[communities[i].ID] = communities[i].Summary()
		}
	}
	return s, nil
}

func (s *summaries) community(id *uuid.UUID) *models.CommunitySummary {
	if id == nil {
		return nil
	}
	if c, ok := s.communities[*id]; ok {
		return &c
	}
	return nil
}

// resolvePosts attaches authors, communities and direct replies
func resolvePosts(ctx context.Context, store repositories.Store, posts []models.Post) ([]models.PostWithAuthor, error) {
	authors, communities := newIDSet(), newIDSet()
	for _, p := range posts {
		authors.add(p.Author)
		if p.Community != nil {
			communities.add(*p.Community)
		}
	}

	sum, err := loadSummaries(ctx, store, authors.list(), communities.list())
	if err != nil {
		return nil, err
	}

	out := make([]models.PostWithAuthor, len(posts))
	for i, p := range posts {
		replies, err := store.Posts().FindReplies(ctx, p.Children, uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("load replies of %s: %w", p.ID, err)
		}
		out[i] = models.PostWithAuthor{
			Post:          p,
			AuthorSummary: sum.authors[p.Author],
			Community:     sum.community(p.Community),
			Replies:       replies,
		}
	}
	return out, nil
}

// resolveEvents attaches authors, communities, event replies and, when
// withPolls is set, the polls referenced from the children list.
func resolveEvents(ctx context.Context, store repositories.Store, events []models.Event, withPolls bool) ([]models.EventDetail, error) {
	authors, communities := newIDSet(), newIDSet()
	for _, e := range events {
		authors.add(e.Author)
		if e.Community != nil {
			communities.add(*e.Community)
		}
	}

	sum, err := loadSummaries(ctx, store, authors.list(), communities.list())
	if err != nil {
		return nil, err
	}

	out := make([]models.EventDetail, len(events))
	for i, e := range events {
		replies, err := store.Events().FindReplies(ctx, models.RefIDs(e.Children, models.KindEvent), uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("load replies of %s: %w", e.ID, err)
		}

		polls := []models.Poll{}
		if withPolls {
			for _, id := range models.RefIDs(e.Children, models.KindPoll) {
				poll, err := store.Polls().FindByID(ctx, id)
				if err != nil {
					return nil, fmt.Errorf("load poll %s: %w", id, err)
				}
				if poll != nil {
					polls = append(polls, *poll)
				}
			}
		}

		out[i] = models.EventDetail{
			Event:         e,
			AuthorSummary: sum.authors[e.Author],
			Community:     sum.community(e.Community),
			Replies:       replies,
			Polls:         polls,
		}
	}
	return out, nil
}

func rootPosts(posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.ParentID == nil {
			out = append(out, p)
		}
	}
	return out
}

func rootEvents(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.ParentID == nil {
			out = append(out, e)
		}
	}
	return out
}
