package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/db"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

var eventColumns = []string{
	"id", "title", "description", "date", "location", "image", "author",
	"community", "parent_id", "children", "participants", "created_at",
}

// pullEventChildrenSQL drops the refs whose id is in $1 from a jsonb children
// list, keeping the order of the rest.
const pullEventChildrenSQL = `
UPDATE events
   SET children = COALESCE((
           SELECT jsonb_agg(c ORDER BY ord)
             FROM jsonb_array_elements(children) WITH ORDINALITY AS t(c, ord)
            WHERE NOT ((c->>'id')::uuid = ANY($1::uuid[]))
       ), '[]'::jsonb)
 WHERE EXISTS (
           SELECT 1 FROM jsonb_array_elements(children) AS c
            WHERE (c->>'id')::uuid = ANY($1::uuid[])
       )`

// EventRepository handles database operations for events and event comments
type EventRepository struct {
	db db.Querier
}

var _ IEventRepository = (*EventRepository)(nil)

// NewEventRepository creates a new EventRepository
func NewEventRepository(q db.Querier) *EventRepository {
	return &EventRepository{db: q}
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Image, &e.Author,
		&e.Community, &e.ParentID, &e.Children, &e.Participants, &e.CreatedAt,
	)
	if e.Children == nil {
		e.Children = []models.Ref{}
	}
	return e, err
}

func scanEventRows(rows pgx.Rows) (models.Event, error) {
	return scanEvent(rows)
}

func scanEventNode(rows pgx.Rows) (models.ThreadNode, error) {
	e, err := scanEvent(rows)
	if err != nil {
		return models.ThreadNode{}, err
	}
	return e.Node(), nil
}

func (r *EventRepository) nodes(ctx context.Context, b squirrel.SelectBuilder) ([]models.ThreadNode, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collect(rows, scanEventNode)
}

// Kind implements ThreadStore
func (r *EventRepository) Kind() models.EntityKind {
	return models.KindEvent
}

// Create inserts an event. ID and CreatedAt are filled in.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	sql, args, err := psql.Insert("events").
		Columns("id", "title", "description", "date", "location", "image", "author", "community", "parent_id").
		Values(e.ID, e.Title, e.Description, e.Date, e.Location, e.Image, e.Author, e.Community, e.ParentID).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.Children, e.Participants = []models.Ref{}, []uuid.UUID{}
	return nil
}

// FindByID retrieves an event
func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	sql, args, err := psql.Select(eventColumns...).From("events").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	e, err := scanEvent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &e, nil
}

// FindByIDs retrieves the events in ids, oldest first
func (r *EventRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	sql, args, err := psql.Select(eventColumns...).From("events").
		Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	return collect(rows, scanEventRows)
}

// Update replaces the editable fields and the community of an event
func (r *EventRepository) Update(ctx context.Context, id uuid.UUID, f models.EventFields, community *uuid.UUID) (*models.Event, error) {
	sql, args, err := psql.Update("events").
		SetMap(map[string]interface{}{
			"title":       f.Title,
			"description": f.Description,
			"date":        f.Date,
			"location":    f.Location,
			"image":       f.Image,
			"community":   community,
		}).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(eventColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	e, err := scanEvent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &e, nil
}

// List returns a page of events, newest first
func (r *EventRepository) List(ctx context.Context, q ListQuery) (helpers.Page[models.Event], error) {
	filter := commonFilter(q)
	if q.Search != "" {
		filter = append(filter, searchFilter(q.Search, "title", "location"))
	}

	base := psql.Select(eventColumns...).From("events")
	return listPage(ctx, r.db, base, "events", filter, q.orderBy(), q.Page, q.Size, scanEventRows)
}

// AddParticipant adds userID to the participant set
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	sql, args, err := psql.Update("events").
		Set("participants", squirrel.Expr("array_append(participants, ?)", userID)).
		Where(squirrel.Eq{"id": eventID}).
		Where(squirrel.Expr("NOT (? = ANY(participants))", userID)).
		ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("add participant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindNode implements ThreadStore
func (r *EventRepository) FindNode(ctx context.Context, id uuid.UUID) (*models.ThreadNode, error) {
	e, err := r.FindByID(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	n := e.Node()
	return &n, nil
}

// FindChildren implements ThreadStore
func (r *EventRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]models.ThreadNode, error) {
	return r.nodes(ctx, psql.Select(eventColumns...).From("events").
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("created_at ASC", "id ASC"))
}

// FindByAuthor implements ThreadStore
func (r *EventRepository) FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.ThreadNode, error) {
	return r.nodes(ctx, psql.Select(eventColumns...).From("events").
		Where(squirrel.Eq{"author": authorID}).
		OrderBy("created_at DESC", "id DESC"))
}

// FindReplies implements ThreadStore
func (r *EventRepository) FindReplies(ctx context.Context, ids []uuid.UUID, excludeAuthor uuid.UUID) ([]models.Reply, error) {
	if len(ids) == 0 {
		return []models.Reply{}, nil
	}

	sql, args, err := psql.Select(
		"e.id", "e.title", "e.parent_id", "e.children", "e.created_at",
		"u.id", "u.external_id", "u.name", "u.image",
	).From("events e").
		Join("users u ON u.id = e.author").
		Where(squirrel.Expr("e.id = ANY(?::uuid[])", ids)).
		Where(squirrel.NotEq{"e.author": excludeAuthor}).
		OrderBy("e.created_at DESC", "e.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find event replies: %w", err)
	}
	return collect(rows, func(rows pgx.Rows) (models.Reply, error) {
		reply := models.Reply{Kind: models.KindEvent}
		err := rows.Scan(
			&reply.ID, &reply.Body, &reply.ParentID, &reply.Children, &reply.CreatedAt,
			&reply.Author.ID, &reply.Author.ExternalID, &reply.Author.Name, &reply.Author.Image,
		)
		return reply, err
	})
}

// InsertComment implements ThreadStore. The comment text becomes the title.
func (r *EventRepository) InsertComment(ctx context.Context, n *models.ThreadNode) error {
	e := models.Event{ID: n.ID, Title: n.Body, Author: n.Author, Community: n.Community, ParentID: n.ParentID}
	if err := r.Create(ctx, &e); err != nil {
		return err
	}
	n.ID, n.CreatedAt, n.Kind = e.ID, e.CreatedAt, models.KindEvent
	return nil
}

// AppendChild implements ThreadStore
func (r *EventRepository) AppendChild(ctx context.Context, parentID uuid.UUID, ref models.Ref) error {
	if ref.Kind != models.KindEvent && ref.Kind != models.KindPoll {
		return fmt.Errorf("event children must be events or polls, got %s", ref.Kind)
	}
	sql, args, err := psql.Update("events").
		Set("children", squirrel.Expr("children || ?::jsonb", []models.Ref{ref})).
		Where(squirrel.Eq{"id": parentID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append event child: %w", err)
	}
	return nil
}

// PullChildren implements ThreadStore. Matching is by id so it also removes
// poll refs.
func (r *EventRepository) PullChildren(ctx context.Context, childIDs []uuid.UUID) error {
	if len(childIDs) == 0 {
		return nil
	}
	if _, err := r.db.Exec(ctx, pullEventChildrenSQL, childIDs); err != nil {
		return fmt.Errorf("pull event children: %w", err)
	}
	return nil
}

// DeleteMany implements ThreadStore
func (r *EventRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sql, args, err := psql.Delete("events").Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}
