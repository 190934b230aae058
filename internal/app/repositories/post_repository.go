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

var postColumns = []string{"id", "text", "author", "community", "parent_id", "children", "created_at"}

// PostRepository handles database operations for posts and post comments
type PostRepository struct {
	db db.Querier
}

var _ IPostRepository = (*PostRepository)(nil)

// NewPostRepository creates a new PostRepository
func NewPostRepository(q db.Querier) *PostRepository {
	return &PostRepository{db: q}
}

func scanPost(row pgx.Row) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Text, &p.Author, &p.Community, &p.ParentID, &p.Children, &p.CreatedAt)
	return p, err
}

func scanPostRows(rows pgx.Rows) (models.Post, error) {
	return scanPost(rows)
}

func scanPostNode(rows pgx.Rows) (models.ThreadNode, error) {
	p, err := scanPost(rows)
	if err != nil {
		return models.ThreadNode{}, err
	}
	return p.Node(), nil
}

func (r *PostRepository) query(ctx context.Context, b squirrel.SelectBuilder) ([]models.Post, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return collect(rows, scanPostRows)
}

// Kind implements ThreadStore
func (r *PostRepository) Kind() models.EntityKind {
	return models.KindPost
}

// Create inserts a post. ID and CreatedAt are filled in.
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	sql, args, err := psql.Insert("posts").
		Columns("id", "text", "author", "community", "parent_id").
		Values(p.ID, p.Text, p.Author, p.Community, p.ParentID).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.Children = []uuid.UUID{}
	return nil
}

// FindByID retrieves a post
func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	sql, args, err := psql.Select(postColumns...).From("posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanPost(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &p, nil
}

// FindByIDs retrieves the posts in ids, oldest first
func (r *PostRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return r.query(ctx, psql.Select(postColumns...).From("posts").
		Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).
		OrderBy("created_at ASC", "id ASC"))
}

// List returns a page of posts, newest first
func (r *PostRepository) List(ctx context.Context, q ListQuery) (helpers.Page[models.Post], error) {
	filter := commonFilter(q)
	if q.Search != "" {
		filter = append(filter, searchFilter(q.Search, "text"))
	}

	base := psql.Select(postColumns...).From("posts")
	return listPage(ctx, r.db, base, "posts", filter, q.orderBy(), q.Page, q.Size, scanPostRows)
}

// FindNode implements ThreadStore
func (r *PostRepository) FindNode(ctx context.Context, id uuid.UUID) (*models.ThreadNode, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	n := p.Node()
	return &n, nil
}

// FindChildren implements ThreadStore
func (r *PostRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]models.ThreadNode, error) {
	sql, args, err := psql.Select(postColumns...).From("posts").
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find post children: %w", err)
	}
	return collect(rows, scanPostNode)
}

// FindByAuthor implements ThreadStore
func (r *PostRepository) FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.ThreadNode, error) {
	sql, args, err := psql.Select(postColumns...).From("posts").
		Where(squirrel.Eq{"author": authorID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find posts by author: %w", err)
	}
	return collect(rows, scanPostNode)
}

// FindReplies implements ThreadStore
func (r *PostRepository) FindReplies(ctx context.Context, ids []uuid.UUID, excludeAuthor uuid.UUID) ([]models.Reply, error) {
	if len(ids) == 0 {
		return []models.Reply{}, nil
	}

	sql, args, err := psql.Select(
		"p.id", "p.text", "p.parent_id", "p.children", "p.created_at",
		"u.id", "u.external_id", "u.name", "u.image",
	).From("posts p").
		Join("users u ON u.id = p.author").
		Where(squirrel.Expr("p.id = ANY(?::uuid[])", ids)).
		Where(squirrel.NotEq{"p.author": excludeAuthor}).
		OrderBy("p.created_at DESC", "p.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find post replies: %w", err)
	}
	return collect(rows, func(rows pgx.Rows) (models.Reply, error) {
		reply := models.Reply{Kind: models.KindPost}
		var children []uuid.UUID
		err := rows.Scan(
			&reply.ID, &reply.Body, &reply.ParentID, &children, &reply.CreatedAt,
			&reply.Author.ID, &reply.Author.ExternalID, &reply.Author.Name, &reply.Author.Image,
		)
		reply.Children = models.RefsOf(models.KindPost, children)
		return reply, err
	})
}

// InsertComment implements ThreadStore
func (r *PostRepository) InsertComment(ctx context.Context, n *models.ThreadNode) error {
	p := models.Post{ID: n.ID, Text: n.Body, Author: n.Author, Community: n.Community, ParentID: n.ParentID}
	if err := r.Create(ctx, &p); err != nil {
		return err
	}
	n.ID, n.CreatedAt, n.Kind = p.ID, p.CreatedAt, models.KindPost
	return nil
}

// AppendChild implements ThreadStore
func (r *PostRepository) AppendChild(ctx context.Context, parentID uuid.UUID, ref models.Ref) error {
	if ref.Kind != models.KindPost {
		return fmt.Errorf("post children must be posts, got %s", ref.Kind)
	}
	sql, args, err := psql.Update("posts").
		Set("children", squirrel.Expr("array_append(children, ?)", ref.ID)).
		Where(squirrel.Eq{"id": parentID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append post child: %w", err)
	}
	return nil
}

// PullChildren implements ThreadStore
func (r *PostRepository) PullChildren(ctx context.Context, childIDs []uuid.UUID) error {
	if len(childIDs) == 0 {
		return nil
	}
	sql, args, err := psql.Update("posts").
		Set("children", squirrel.Expr("ARRAY(SELECT c FROM unnest(children) AS c WHERE NOT (c = ANY(?::uuid[])))", childIDs)).
		Where(squirrel.Expr("children && ?::uuid[]", childIDs)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("pull post children: %w", err)
	}
	return nil
}

// DeleteMany implements ThreadStore
func (r *PostRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sql, args, err := psql.Delete("posts").Where(squirrel.Expr("id = ANY(?::uuid[])", ids)).ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	return tag.RowsAffected(), nil
}
