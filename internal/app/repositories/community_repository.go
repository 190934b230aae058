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

var communityColumns = []string{
	"id", "external_id", "username", "name", "image", "bio", "created_by",
	"posts", "members", "events", "created_at",
}

// CommunityRepository handles database operations for communities
type CommunityRepository struct {
	db   db.Querier
	refs refLists
}

var _ ICommunityRepository = (*CommunityRepository)(nil)

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository(q db.Querier) *CommunityRepository {
	return &CommunityRepository{
		db: q,
		refs: refLists{db: q, table: "communities", fields: map[models.ListField]bool{
			models.FieldPosts:   true,
			models.FieldMembers: true,
			models.FieldEvents:  true,
		}},
	}
}

func scanCommunity(row pgx.Row) (models.Community, error) {
	var c models.Community
	err := row.Scan(
		&c.ID, &c.ExternalID, &c.Username, &c.Name, &c.Image, &c.Bio, &c.CreatedBy,
		&c.Posts, &c.Members, &c.Events, &c.CreatedAt,
	)
	return c, err
}

func scanCommunityRows(rows pgx.Rows) (models.Community, error) {
	return scanCommunity(rows)
}

func (r *CommunityRepository) findOne(ctx context.Context, where squirrel.Sqlizer) (*models.Community, error) {
	sql, args, err := psql.Select(communityColumns...).From("communities").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCommunity(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find community: %w", err)
	}
	return &c, nil
}

// FindByID retrieves a community by internal id
func (r *CommunityRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByExternalID retrieves a community by its caller-issued id
func (r *CommunityRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	return r.findOne(ctx, squirrel.Eq{"external_id": externalID})
}

// FindByIDs retrieves the communities in ids
func (r *CommunityRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Community, error) {
	if len(ids) == 0 {
		return []models.Community{}, nil
	}

	sql, args, err := psql.Select(communityColumns...).From("communities").
		Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find communities: %w", err)
	}
	return collect(rows, scanCommunityRows)
}

// Create inserts a community. ID and CreatedAt are filled in.
func (r *CommunityRepository) Create(ctx context.Context, c *models.Community) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Members == nil {
		c.Members = []uuid.UUID{}
	}

	sql, args, err := psql.Insert("communities").
		Columns("id", "external_id", "username", "name", "image", "bio", "created_by", "members").
		Values(c.ID, c.ExternalID, c.Username, c.Name, c.Image, c.Bio, c.CreatedBy, c.Members).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("insert community: %w", err)
	}
	c.Posts, c.Events = []uuid.UUID{}, []uuid.UUID{}
	return nil
}

// Update replaces the editable fields of a community
func (r *CommunityRepository) Update(ctx context.Context, id uuid.UUID, f models.CommunityFields) (*models.Community, error) {
	sql, args, err := psql.Update("communities").
		SetMap(map[string]interface{}{
			"username": f.Username,
			"name":     f.Name,
			"image":    f.Image,
			"bio":      f.Bio,
		}).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(communityColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCommunity(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update community: %w", err)
	}
	return &c, nil
}

// Delete removes the community document
func (r *CommunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("communities").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete community: %w", err)
	}
	return nil
}

// List searches communities by username or name, newest first
func (r *CommunityRepository) List(ctx context.Context, q ListQuery) (helpers.Page[models.Community], error) {
	filter := squirrel.And{}
	if q.Search != "" {
		filter = append(filter, searchFilter(q.Search, "username", "name"))
	}

	base := psql.Select(communityColumns...).From("communities")
	return listPage(ctx, r.db, base, "communities", filter, q.orderBy(), q.Page, q.Size, scanCommunityRows)
}

// IsMember reports whether userID is in the community's members
func (r *CommunityRepository) IsMember(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	sql, args, err := psql.Select("1").From("communities").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("? = ANY(members)", userID)).
		Prefix("SELECT EXISTS (").Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var ok bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}

// AddRef appends ref to one of the community's list fields
func (r *CommunityRepository) AddRef(ctx context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error {
	return r.refs.add(ctx, id, field, ref)
}

// PullRefs removes refs from one list field of every community in ids
func (r *CommunityRepository) PullRefs(ctx context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error {
	return r.refs.pull(ctx, ids, field, refs)
}
