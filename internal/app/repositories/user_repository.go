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

var userColumns = []string{
	"id", "external_id", "username", "name", "bio", "image", "onboarded",
	"posts", "communities", "events", "created_at",
}

// UserRepository handles database operations for users
type UserRepository struct {
	db   db.Querier
	refs refLists
}

var _ IUserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(q db.Querier) *UserRepository {
	return &UserRepository{
		db: q,
		refs: refLists{db: q, table: "users", fields: map[models.ListField]bool{
			models.FieldPosts:       true,
			models.FieldCommunities: true,
			models.FieldEvents:      true,
		}},
	}
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.ExternalID, &u.Username, &u.Name, &u.Bio, &u.Image, &u.Onboarded,
		&u.Posts, &u.Communities, &u.Events, &u.CreatedAt,
	)
	return u, err
}

func scanUserRows(rows pgx.Rows) (models.User, error) {
	return scanUser(rows)
}

func (r *UserRepository) findOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// FindByID retrieves a user by internal id
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByExternalID retrieves a user by identity-provider id
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.findOne(ctx, squirrel.Eq{"external_id": externalID})
}

// FindByIDs retrieves the users in ids, oldest first
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	sql, args, err := psql.Select(userColumns...).From("users").
		Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return collect(rows, scanUserRows)
}

// Upsert creates or updates the user keyed by external id and marks it onboarded
func (r *UserRepository) Upsert(ctx context.Context, p models.UserProfile) (*models.User, error) {
	sql, args, err := psql.Insert("users").
		Columns("id", "external_id", "username", "name", "bio", "image", "onboarded").
		Values(uuid.New(), p.ExternalID, helpers.NormalizeUsername(p.Username), p.Name, p.Bio, p.Image, true).
		Suffix(`ON CONFLICT (external_id) DO UPDATE SET
			username = EXCLUDED.username,
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			image = EXCLUDED.image,
			onboarded = true`).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

// List searches users by username or name, newest first
func (r *UserRepository) List(ctx context.Context, q ListQuery) (helpers.Page[models.User], error) {
	filter := squirrel.And{}
	if q.ExcludeID != nil {
		filter = append(filter, squirrel.NotEq{"id": *q.ExcludeID})
	}
	if q.Search != "" {
		filter = append(filter, searchFilter(q.Search, "username", "name"))
	}

	base := psql.Select(userColumns...).From("users")
	return listPage(ctx, r.db, base, "users", filter, q.orderBy(), q.Page, q.Size, scanUserRows)
}

// AddRef appends ref to one of the user's list fields
func (r *UserRepository) AddRef(ctx context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error {
	return r.refs.add(ctx, id, field, ref)
}

// PullRefs removes refs from one list field of every user in ids
func (r *UserRepository) PullRefs(ctx context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error {
	return r.refs.pull(ctx, ids, field, refs)
}
