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
)

var pollColumns = []string{"id", "question", "options", "voters", "event_id", "created_at"}

// applyVoteSQL adds $2 to voters and increments the option named $3 in one
// statement. The WHERE clause is re-checked after a concurrent update commits,
// so two votes by the same user cannot both apply.
const applyVoteSQL = `
UPDATE polls
   SET voters = array_append(voters, $2::uuid),
       options = (
           SELECT jsonb_agg(
                      CASE WHEN o->>'optionText' = $3::text
                           THEN jsonb_set(o, '{votes}', to_jsonb((o->>'votes')::int + 1))
                           ELSE o
                      END
                      ORDER BY ord)
             FROM jsonb_array_elements(options) WITH ORDINALITY AS t(o, ord)
       )
 WHERE id = $1
   AND NOT ($2::uuid = ANY(voters))
   AND EXISTS (
           SELECT 1 FROM jsonb_array_elements(options) AS o
            WHERE o->>'optionText' = $3::text
       )`

// PollRepository handles database operations for polls
type PollRepository struct {
	db db.Querier
}

var _ IPollRepository = (*PollRepository)(nil)

// NewPollRepository creates a new PollRepository
func NewPollRepository(q db.Querier) *PollRepository {
	return &PollRepository{db: q}
}

func scanPoll(row pgx.Row) (models.Poll, error) {
	var p models.Poll
	err := row.Scan(&p.ID, &p.Question, &p.Options, &p.Voters, &p.EventID, &p.CreatedAt)
	return p, err
}

func scanPollRows(rows pgx.Rows) (models.Poll, error) {
	return scanPoll(rows)
}

// Create inserts a poll. ID and CreatedAt are filled in.
func (r *PollRepository) Create(ctx context.Context, p *models.Poll) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	sql, args, err := psql.Insert("polls").
		Columns("id", "question", "options", "event_id").
		Values(p.ID, p.Question, squirrel.Expr("?::jsonb", p.Options), p.EventID).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}
	p.Voters = []uuid.UUID{}
	return nil
}

// FindByID retrieves a poll
func (r *PollRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	sql, args, err := psql.Select(pollColumns...).From("polls").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanPoll(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find poll: %w", err)
	}
	return &p, nil
}

// FindByEvent returns the polls of an event, oldest first
func (r *PollRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Poll, error) {
	sql, args, err := psql.Select(pollColumns...).From("polls").
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find polls: %w", err)
	}
	return collect(rows, scanPollRows)
}

// FindIDForEvent returns the first poll of an event, or nil
func (r *PollRepository) FindIDForEvent(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, error) {
	sql, args, err := psql.Select("id").From("polls").
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find poll id: %w", err)
	}
	return &id, nil
}

// ApplyVote implements IPollRepository
func (r *PollRepository) ApplyVote(ctx context.Context, pollID uuid.UUID, option string, userID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, applyVoteSQL, pollID, userID, option)
	if err != nil {
		return false, fmt.Errorf("apply vote: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteByEvents implements IPollRepository
func (r *PollRepository) DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(eventIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	sql, args, err := psql.Delete("polls").
		Where(squirrel.Expr("event_id = ANY(?::uuid[])", eventIDs)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("delete polls: %w", err)
	}
	return collect(rows, func(rows pgx.Rows) (uuid.UUID, error) {
		var id uuid.UUID
		err := rows.Scan(&id)
		return id, err
	})
}
