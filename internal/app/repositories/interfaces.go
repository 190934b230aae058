package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

// Lookups return (nil, nil) when the document does not exist; callers decide
// whether absence is an error.

// SortDirection orders a listing by creation time
type SortDirection string

const (
	SortNewest SortDirection = "desc"
	SortOldest SortDirection = "asc"
)

// ParseSortDirection accepts "asc" or "desc", anything else is newest first
func ParseSortDirection(s string) SortDirection {
	if SortDirection(s) == SortOldest {
		return SortOldest
	}
	return SortNewest
}

// ListQuery is the filter shared by the paginated listings
type ListQuery struct {
	Search    string
	ExcludeID *uuid.UUID
	Author    *uuid.UUID
	Community *uuid.UUID
	RootOnly  bool
	Sort      SortDirection
	Page      int
	Size      int
}

// orderBy sorts by created_at with id breaking ties so offset pages never
// overlap for rows inserted in the same transaction.
func (q ListQuery) orderBy() string {
	if q.Sort == SortOldest {
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id DESC"
}

// IUserRepository defines the user collection operations
type IUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	Upsert(ctx context.Context, profile models.UserProfile) (*models.User, error)
	List(ctx context.Context, q ListQuery) (helpers.Page[models.User], error)

	// AddRef appends ref to a list field unless already present
	AddRef(ctx context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error
	// PullRefs removes refs from a list field of every user in ids
	PullRefs(ctx context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error
}

// ICommunityRepository defines the community collection operations
type ICommunityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Community, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Community, error)
	Create(ctx context.Context, community *models.Community) error
	Update(ctx context.Context, id uuid.UUID, fields models.CommunityFields) (*models.Community, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListQuery) (helpers.Page[models.Community], error)
	IsMember(ctx context.Context, id, userID uuid.UUID) (bool, error)

	AddRef(ctx context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error
	PullRefs(ctx context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error
}

// ThreadStore is the kind-independent view over posts or events used by the
// reference engine, the thread resolver and the activity aggregator.
type ThreadStore interface {
	Kind() models.EntityKind
	FindNode(ctx context.Context, id uuid.UUID) (*models.ThreadNode, error)
	// FindChildren returns the direct replies of parentID, oldest first
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]models.ThreadNode, error)
	FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.ThreadNode, error)
	// FindReplies returns the documents in ids not authored by excludeAuthor
	FindReplies(ctx context.Context, ids []uuid.UUID, excludeAuthor uuid.UUID) ([]models.Reply, error)
	InsertComment(ctx context.Context, node *models.ThreadNode) error
	AppendChild(ctx context.Context, parentID uuid.UUID, ref models.Ref) error
	// PullChildren removes childIDs from the children list of every document
	PullChildren(ctx context.Context, childIDs []uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// IPostRepository defines the post collection operations
type IPostRepository interface {
	ThreadStore
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error)
	List(ctx context.Context, q ListQuery) (helpers.Page[models.Post], error)
}

// IEventRepository defines the event collection operations
type IEventRepository interface {
	ThreadStore
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Event, error)
	Update(ctx context.Context, id uuid.UUID, fields models.EventFields, community *uuid.UUID) (*models.Event, error)
	List(ctx context.Context, q ListQuery) (helpers.Page[models.Event], error)
	// AddParticipant reports whether userID was newly added
	AddParticipant(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

// IPollRepository defines the poll collection operations
type IPollRepository interface {
	Create(ctx context.Context, poll *models.Poll) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Poll, error)
	FindIDForEvent(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, error)
	// ApplyVote records the vote only if userID has not voted and option
	// exists; it reports whether a row changed.
	ApplyVote(ctx context.Context, pollID uuid.UUID, option string, userID uuid.UUID) (bool, error)
	// DeleteByEvents removes the polls owned by eventIDs and returns their ids
	DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]uuid.UUID, error)
}

// Store groups the collections. Atomic runs fn against a Store bound to one
// transaction; a nested Atomic joins the outer transaction.
type Store interface {
	Users() IUserRepository
	Communities() ICommunityRepository
	Posts() IPostRepository
	Events() IEventRepository
	Polls() IPollRepository
	Threads(kind models.EntityKind) ThreadStore
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
