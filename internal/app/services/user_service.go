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
	"github.com/yigit/bojio/internal/pkg/dberrors"
	"github.com/yigit/bojio/internal/pkg/helpers"
	"github.com/yigit/bojio/internal/pkg/revalidate"
)

// UserService defines the interface for user operations
type UserService interface {
	FetchUser(ctx context.Context, externalID string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, profile models.UserProfile, path string) (*models.User, error)
	FetchUsers(ctx context.Context, excludeID *uuid.UUID, search, sort string, page, size int) (helpers.Page[models.User], error)
	FetchUserPosts(ctx context.Context, userID uuid.UUID, page, size int) (helpers.Page[models.PostWithAuthor], error)
	FetchUserEvents(ctx context.Context, userID uuid.UUID, page, size int) (helpers.Page[models.EventDetail], error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	store  repositories.Store
	signal signal
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(store repositories.Store, notifier revalidate.Notifier, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		store:  store,
		signal: signal{notifier: notifier, logger: logger},
		logger: logger,
	}
}

// FetchUser looks a user up by identity-provider id. A nil user means the
// caller still has to onboard.
func (s *userServiceImpl) FetchUser(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, nil
	}
	user, err := s.store.Users().FindByExternalID(ctx, externalID)
	if err != nil {
		s.logger.Error().Err(err).Str("externalId", externalID).Msg("Failed to fetch user")
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by internal id
func (s *userServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound(apperrors.KindUser, id.String())
	}
	return user, nil
}

// UpdateUser creates or updates the profile keyed by external id and marks
// the user onboarded
func (s *userServiceImpl) UpdateUser(ctx context.Context, profile models.UserProfile, path string) (*models.User, error) {
	if profile.ExternalID == "" {
		return nil, apperrors.NewValidationError("external id is required")
	}
	profile.Username = helpers.NormalizeUsername(profile.Username)
	if profile.Username == "" {
		return nil, apperrors.NewValidationError("username is required")
	}
	profile.Name = strings.TrimSpace(profile.Name)

	user, err := s.store.Users().Upsert(ctx, profile)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.UsersUsernameKey) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("username %q is already taken", profile.Username))
		}
		s.logger.Error().Err(err).Str("externalId", profile.ExternalID).Msg("Failed to update user")
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.logger.Info().Str("userId", user.ID.String()).Msg("User profile updated")
	s.signal.send(ctx, path)
	return user, nil
}

// FetchUsers searches users by username or name, excluding the caller.
// sort is "asc" for oldest first, newest first otherwise.
func (s *userServiceImpl) FetchUsers(ctx context.Context, excludeID *uuid.UUID, search, sort string, page, size int) (helpers.Page[models.User], error) {
	result, err := s.store.Users().List(ctx, repositories.ListQuery{
		Search:    strings.TrimSpace(search),
		ExcludeID: excludeID,
		Sort:      repositories.ParseSortDirection(sort),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("search", search).Msg("Failed to list users")
		return result, fmt.Errorf("error listing users: %w", err)
	}
	return result, nil
}

// FetchUserPosts returns the user's root posts with replies resolved
func (s *userServiceImpl) FetchUserPosts(ctx context.Context, userID uuid.UUID, page, size int) (helpers.Page[models.PostWithAuthor], error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return helpers.Page[models.PostWithAuthor]{}, err
	}

	posts, err := s.store.Posts().List(ctx, repositories.ListQuery{Author: &userID, RootOnly: true, Page: page, Size: size})
	if err != nil {
		return helpers.Page[models.PostWithAuthor]{}, fmt.Errorf("error listing posts: %w", err)
	}

	resolved, err := resolvePosts(ctx, s.store, posts.Items)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Msg("Failed to resolve user posts")
		return helpers.Page[models.PostWithAuthor]{}, err
	}
	return helpers.MapPage(posts, resolved), nil
}

// FetchUserEvents returns the user's root events with replies resolved
func (s *userServiceImpl) FetchUserEvents(ctx context.Context, userID uuid.UUID, page, size int) (helpers.Page[models.EventDetail], error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return helpers.Page[models.EventDetail]{}, err
	}

	events, err := s.store.Events().List(ctx, repositories.ListQuery{Author: &userID, RootOnly: true, Page: page, Size: size})
	if err != nil {
		return helpers.Page[models.EventDetail]{}, fmt.Errorf("error listing events: %w", err)
	}

	resolved, err := resolveEvents(ctx, s.store, events.Items, false)
	if err != nil {
		s.logger.Error().Err(err).Str("userId", userID.String()).Msg("Failed to resolve user events")
		return helpers.Page[models.EventDetail]{}, err
	}
	return helpers.MapPage(events, resolved), nil
}
