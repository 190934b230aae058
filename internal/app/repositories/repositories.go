package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/db"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances and implements Store
type Repositories struct {
	pool *pgxpool.Pool
	inTx bool

	UserRepository      *UserRepository
	CommunityRepository *CommunityRepository
	PostRepository      *PostRepository
	EventRepository     *EventRepository
	PollRepository      *PollRepository
}

var _ Store = (*Repositories)(nil)

// NewRepositories initializes all repositories on the shared pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return newRepositories(pool, pool, false)
}

func newRepositories(pool *pgxpool.Pool, q db.Querier, inTx bool) *Repositories {
	return &Repositories{
		pool:                pool,
		inTx:                inTx,
		UserRepository:      NewUserRepository(q),
		CommunityRepository: NewCommunityRepository(q),
		PostRepository:      NewPostRepository(q),
		EventRepository:     NewEventRepository(q),
		PollRepository:      NewPollRepository(q),
	}
}

func (r *Repositories) Users() IUserRepository           { return r.UserRepository }
func (r *Repositories) Communities() ICommunityRepository { return r.CommunityRepository }
func (r *Repositories) Posts() IPostRepository           { return r.PostRepository }
func (r *Repositories) Events() IEventRepository         { return r.EventRepository }
func (r *Repositories) Polls() IPollRepository           { return r.PollRepository }

// Threads returns the thread view of the collection holding kind
func (r *Repositories) Threads(kind models.EntityKind) ThreadStore {
	if kind == models.KindEvent {
		return r.EventRepository
	}
	return r.PostRepository
}

// Atomic runs fn inside one database transaction
func (r *Repositories) Atomic(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return db.WithTransaction(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, newRepositories(r.pool, tx, true))
	})
}

// listPage runs the filtered, sorted, offset/limited query and an independent
// count under the same filter.
func listPage[T any](
	ctx context.Context,
	q db.Querier,
	base squirrel.SelectBuilder,
	table string,
	filter squirrel.And,
	orderBy string,
	page, size int,
	scan func(pgx.Rows) (T, error),
) (helpers.Page[T], error) {
	countSQL, countArgs, err := psql.Select("COUNT(*)").From(table).Where(filter).ToSql()
	if err != nil {
		return helpers.Page[T]{}, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return helpers.Page[T]{}, fmt.Errorf("count %s: %w", table, err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	if total == 0 || offset >= uint64(total) {
		return helpers.NewPage[T](nil, total, page, size), nil
	}

	sql, args, err := base.Where(filter).OrderBy(orderBy).Offset(offset).Limit(uint64(limit)).ToSql()
	if err != nil {
		return helpers.Page[T]{}, fmt.Errorf("build list query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return helpers.Page[T]{}, fmt.Errorf("list %s: %w", table, err)
	}
	items, err := collect(rows, scan)
	if err != nil {
		return helpers.Page[T]{}, fmt.Errorf("scan %s: %w", table, err)
	}

	return helpers.NewPage(items, total, page, size), nil
}

// collect drains rows through scan
func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// searchFilter matches term case-insensitively against any of columns
func searchFilter(term string, columns ...string) squirrel.Sqlizer {
	pattern := "%" + helpers.EscapeLike(term) + "%"
	or := squirrel.Or{}
	for _, c := range columns {
		or = append(or, squirrel.ILike{c: pattern})
	}
	return or
}

// commonFilter translates the shared parts of a ListQuery
func commonFilter(q ListQuery) squirrel.And {
	filter := squirrel.And{}
	if q.ExcludeID != nil {
		filter = append(filter, squirrel.NotEq{"id": *q.ExcludeID})
	}
	if q.Author != nil {
		filter = append(filter, squirrel.Eq{"author": *q.Author})
	}
	if q.Community != nil {
		filter = append(filter, squirrel.Eq{"community": *q.Community})
	}
	if q.RootOnly {
		filter = append(filter, squirrel.Eq{"parent_id": nil})
	}
	return filter
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
