package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

// PostService defines the interface for post operations
type PostService interface {
	CreatePost(ctx context.Context, authorExternalID, text, communityExternalID, path string) (*models.Post, error)
	DeletePost(ctx context.Context, postID, callerID uuid.UUID, path string) error
	AddCommentToPost(ctx context.Context, postID uuid.UUID, text string, authorID uuid.UUID, path string) (*models.ThreadNode, error)
	FetchPosts(ctx context.Context, page, size int) (helpers.Page[models.PostWithAuthor], error)
	FetchPostByID(ctx context.Context, postID uuid.UUID) (*models.PostWithAuthor, error)
	FetchDescendants(ctx context.Context, postID uuid.UUID) ([]models.ThreadNode, error)
}

// postServiceImpl implements PostService
type postServiceImpl struct {
	store  repositories.Store
	engine *ReferenceEngine
	logger zerolog.Logger
}

// NewPostService creates a new PostService
func NewPostService(store repositories.Store, engine *ReferenceEngine, logger zerolog.Logger) PostService {
	return &postServiceImpl{store: store, engine: engine, logger: logger}
}

// CreatePost creates a root post for the author, optionally in a community
func (s *postServiceImpl) CreatePost(ctx context.Context, authorExternalID, text, communityExternalID, path string) (*models.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("post text is required")
	}

	post := &models.Post{Text: text}
	_, err := s.engine.CreateRoot(ctx, RootInput{
		Kind:                models.KindPost,
		AuthorExternalID:    authorExternalID,
		CommunityExternalID: communityExternalID,
		Path:                path,
		Insert: func(ctx context.Context, tx repositories.Store, author uuid.UUID, community *uuid.UUID) (uuid.UUID, error) {
			post.Author, post.Community = author, community
			if err := tx.Posts().Create(ctx, post); err != nil {
				return uuid.Nil, err
			}
			return post.ID, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post thread. Only the author may delete it.
func (s *postServiceImpl) DeletePost(ctx context.Context, postID, callerID uuid.UUID, path string) error {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("error finding post: %w", err)
	}
	if post == nil {
		return apperrors.NotFound(apperrors.KindPost, postID.String())
	}
	if post.Author != callerID {
		return apperrors.NewForbiddenError("only the author can delete this post")
	}

	_, err = s.engine.DeleteSubtree(ctx, models.KindPost, postID, path)
	return err
}

// AddCommentToPost replies to a post or to another comment
func (s *postServiceImpl) AddCommentToPost(ctx context.Context, postID uuid.UUID, text string, authorID uuid.UUID, path string) (*models.ThreadNode, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required")
	}
	return s.engine.AddChild(ctx, models.KindPost, postID, text, authorID, path)
}

// FetchPosts lists root posts, newest first
func (s *postServiceImpl) FetchPosts(ctx context.Context, page, size int) (helpers.Page[models.PostWithAuthor], error) {
	posts, err := s.store.Posts().List(ctx, repositories.ListQuery{RootOnly: true, Page: page, Size: size})
	if err != nil {
		s.logger.Error().Err(err).Int("page", page).Msg("Failed to list posts")
		return helpers.Page[models.PostWithAuthor]{}, fmt.Errorf("error listing posts: %w", err)
	}

	resolved, err := resolvePosts(ctx, s.store, posts.Items)
	if err != nil {
		return helpers.Page[models.PostWithAuthor]{}, err
	}
	return helpers.MapPage(posts, resolved), nil
}

// FetchPostByID returns a post with author, community and replies
func (s *postServiceImpl) FetchPostByID(ctx context.Context, postID uuid.UUID) (*models.PostWithAuthor, error) {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error finding post: %w", err)
	}
	if post == nil {
		return nil, apperrors.NotFound(apperrors.KindPost, postID.String())
	}

	resolved, err := resolvePosts(ctx, s.store, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

// FetchDescendants returns the whole reply tree under a post in pre-order
func (s *postServiceImpl) FetchDescendants(ctx context.Context, postID uuid.UUID) ([]models.ThreadNode, error) {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error finding post: %w", err)
	}
	if post == nil {
		return nil, apperrors.NotFound(apperrors.KindPost, postID.String())
	}
	return CollectDescendants(ctx, s.store.Posts(), postID)
}
