package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/metrics"
	"github.com/yigit/bojio/internal/pkg/revalidate"
)

// InsertFunc persists a new root document that references the resolved
// author and optional community, and returns its id.
type InsertFunc func(ctx context.Context, tx repositories.Store, author uuid.UUID, community *uuid.UUID) (uuid.UUID, error)

// RootInput describes a root post or event to create
type RootInput struct {
	Kind                models.EntityKind
	AuthorExternalID    string
	CommunityExternalID string
	Path                string
	Insert              InsertFunc
}

// ReferenceEngine keeps the denormalized reference lists consistent when
// posts and events are created, commented on and deleted.
type ReferenceEngine struct {
	store  repositories.Store
	signal signal
	logger zerolog.Logger
}

// NewReferenceEngine creates a new ReferenceEngine
func NewReferenceEngine(store repositories.Store, notifier revalidate.Notifier, logger zerolog.Logger) *ReferenceEngine {
	return &ReferenceEngine{
		store:  store,
		signal: signal{notifier: notifier, logger: logger},
		logger: logger,
	}
}

func notFoundKind(kind models.EntityKind) string {
	if kind == models.KindEvent {
		return apperrors.KindEvent
	}
	return apperrors.KindPost
}

func threadKind(kind models.EntityKind) error {
	if kind != models.KindPost && kind != models.KindEvent {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported thread kind %q", kind))
	}
	return nil
}

// CreateRoot resolves the author and, when given, the community by external
// id, inserts the document and appends it to both owners' lists. Everything
// happens in one transaction: a failed append leaves no document behind.
func (e *ReferenceEngine) CreateRoot(ctx context.Context, in RootInput) (uuid.UUID, error) {
	if err := threadKind(in.Kind); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	field := models.OwnedField(in.Kind)
	f := newFanOut("create " + string(in.Kind))

	err := e.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		author, err := tx.Users().FindByExternalID(ctx, in.AuthorExternalID)
		if err != nil {
			return fmt.Errorf("resolve author: %w", err)
		}
		if author == nil {
			return apperrors.NotFound(apperrors.KindAuthor, in.AuthorExternalID)
		}

		var communityID *uuid.UUID
		if in.CommunityExternalID != "" {
			community, err := tx.Communities().FindByExternalID(ctx, in.CommunityExternalID)
			if err != nil {
				return fmt.Errorf("resolve community: %w", err)
			}
			if community == nil {
				return apperrors.NotFound(apperrors.KindCommunity, in.CommunityExternalID)
			}
			communityID = &community.ID
		}

		if err := f.step("insert document", func() error {
			id, err = in.Insert(ctx, tx, author.ID, communityID)
			return err
		}); err != nil {
			return err
		}

		if err := f.step("append to author", func() error {
			return tx.Users().AddRef(ctx, author.ID, field, id)
		}); err != nil {
			return err
		}

		if communityID != nil {
			if err := f.step("append to community", func() error {
				return tx.Communities().AddRef(ctx, *communityID, field, id)
			}); err != nil {
				return err
			}
		}
		return f.done()
	})
	if err = f.result(err, e.logger); err != nil {
		e.logger.Debug().Err(err).
			Str("kind", string(in.Kind)).
			Str("author", in.AuthorExternalID).
			Str("community", in.CommunityExternalID).
			Msg("Failed to create root document")
		return uuid.Nil, err
	}

	e.logger.Info().Str("kind", string(in.Kind)).Str("id", id.String()).Msg("Root document created")
	e.signal.send(ctx, in.Path)
	return id, nil
}

// DeleteSubtree removes rootID and every descendant, the polls owned by
// deleted events, and every reference to the deleted ids. It returns the
// number of documents removed.
func (e *ReferenceEngine) DeleteSubtree(ctx context.Context, kind models.EntityKind, rootID uuid.UUID, path string) (int, error) {
	if err := threadKind(kind); err != nil {
		return 0, err
	}

	var removed int
	f := newFanOut("delete " + string(kind))

	err := e.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		n, err := e.deleteSubtreeTx(ctx, tx, f, kind, rootID)
		if err != nil {
			return err
		}
		removed = n
		return f.done()
	})
	if err = f.result(err, e.logger); err != nil {
		e.logger.Debug().Err(err).Str("kind", string(kind)).Str("root", rootID.String()).Msg("Failed to delete subtree")
		return 0, err
	}

	metrics.CascadeSize.Observe(float64(removed))
	e.logger.Info().Str("kind", string(kind)).Str("root", rootID.String()).Int("removed", removed).Msg("Subtree deleted")
	e.signal.send(ctx, path)
	return removed, nil
}

func (e *ReferenceEngine) deleteSubtreeTx(ctx context.Context, tx repositories.Store, f *fanOut, kind models.EntityKind, rootID uuid.UUID) (int, error) {
	threads := tx.Threads(kind)

	root, err := threads.FindNode(ctx, rootID)
	if err != nil {
		return 0, fmt.Errorf("load root: %w", err)
	}
	if root == nil {
		return 0, apperrors.NotFound(notFoundKind(kind), rootID.String())
	}

	descendants, err := CollectDescendants(ctx, threads, rootID)
	if err != nil {
		return 0, err
	}

	nodes := append([]models.ThreadNode{*root}, descendants...)
	ids := make([]uuid.UUID, 0, len(nodes))
	users := newIDSet()
	communities := newIDSet()
	for _, n := range nodes {
		ids = append(ids, n.ID)
		users.add(n.Author)
		if n.Community != nil {
			communities.add(*n.Community)
		}
		// participants list the event under their events field too
		for _, p := range n.Participants {
			users.add(p)
		}
	}
	field := models.OwnedField(kind)

	if kind == models.KindEvent {
		if err := f.step("delete polls", func() error {
			_, err := tx.Polls().DeleteByEvents(ctx, ids)
			return err
		}); err != nil {
			return 0, err
		}
	}

	if err := f.step("delete documents", func() error {
		_, err := threads.DeleteMany(ctx, ids)
		return err
	}); err != nil {
		return 0, err
	}

	if err := f.step("pull user refs", func() error {
		return tx.Users().PullRefs(ctx, users.list(), field, ids)
	}); err != nil {
		return 0, err
	}

	if err := f.step("pull community refs", func() error {
		return tx.Communities().PullRefs(ctx, communities.list(), field, ids)
	}); err != nil {
		return 0, err
	}

	if !root.IsRoot() {
		if err := f.step("pull parent children", func() error {
			return threads.PullChildren(ctx, ids)
		}); err != nil {
			return 0, err
		}
	}

	return len(ids), nil
}

// AddChild creates a reply to parentID authored by authorID. The reply has
// the parent's kind and community; it is appended to the parent's children
// and to the author's owned list.
func (e *ReferenceEngine) AddChild(ctx context.Context, kind models.EntityKind, parentID uuid.UUID, body string, authorID uuid.UUID, path string) (*models.ThreadNode, error) {
	if err := threadKind(kind); err != nil {
		return nil, err
	}

	var node models.ThreadNode
	f := newFanOut("comment on " + string(kind))

	err := e.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		threads := tx.Threads(kind)

		parent, err := threads.FindNode(ctx, parentID)
		if err != nil {
			return fmt.Errorf("load parent: %w", err)
		}
		if parent == nil {
			return apperrors.NotFound(apperrors.KindParent, parentID.String())
		}

		author, err := tx.Users().FindByID(ctx, authorID)
		if err != nil {
			return fmt.Errorf("resolve author: %w", err)
		}
		if author == nil {
			return apperrors.NotFound(apperrors.KindAuthor, authorID.String())
		}

		node = models.ThreadNode{
			Kind:      kind,
			Body:      body,
			Author:    author.ID,
			Community: parent.Community,
			ParentID:  &parent.ID,
		}

		if err := f.step("insert comment", func() error {
			return threads.InsertComment(ctx, &node)
		}); err != nil {
			return err
		}

		if err := f.step("append to parent", func() error {
			return threads.AppendChild(ctx, parent.ID, models.NewRef(kind, node.ID))
		}); err != nil {
			return err
		}

		if err := f.step("append to author", func() error {
			return tx.Users().AddRef(ctx, author.ID, models.OwnedField(kind), node.ID)
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, e.logger); err != nil {
		e.logger.Debug().Err(err).Str("kind", string(kind)).Str("parent", parentID.String()).Msg("Failed to add comment")
		return nil, err
	}

	e.signal.send(ctx, path)
	return &node, nil
}

// idSet is an insertion-ordered set of ids
type idSet struct {
	seen map[uuid.UUID]bool
	ids  []uuid.UUID
}

func newIDSet() *idSet {
	return &idSet{seen: map[uuid.UUID]bool{}}
}

func (s *idSet) add(id uuid.UUID) {
	if id == uuid.Nil || s.seen[id] {
		return
	}
	s.seen[id] = true
	s.ids = append(s.ids, id)
}

func (s *idSet) list() []uuid.UUID {
	return s.ids
}
