package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/dberrors"
	"github.com/yigit/bojio/internal/pkg/helpers"
	"github.com/yigit/bojio/internal/pkg/metrics"
)

// CommunityService defines the interface for community operations.
// Community.Members is authoritative; every membership change rewrites the
// member's User.Communities in the same transaction.
type CommunityService interface {
	CreateCommunity(ctx context.Context, creatorID uuid.UUID, externalID string, fields models.CommunityFields, path string) (*models.Community, error)
	JoinCommunity(ctx context.Context, communityID, userID uuid.UUID, path string) error
	LeaveCommunity(ctx context.Context, communityID, userID uuid.UUID, path string) error
	DeleteCommunity(ctx context.Context, communityID, callerID uuid.UUID, path string) (int, error)
	UpdateCommunityInfo(ctx context.Context, communityID, callerID uuid.UUID, fields models.CommunityFields, path string) (*models.Community, error)
	FetchCommunityDetails(ctx context.Context, communityID uuid.UUID) (*models.CommunityDetail, error)
	FetchCommunities(ctx context.Context, search string, page, size int) (helpers.Page[models.Community], error)
	FetchCommunityPosts(ctx context.Context, communityID uuid.UUID, page, size int) (helpers.Page[models.PostWithAuthor], error)
	FetchCommunityEvents(ctx context.Context, communityID uuid.UUID, page, size int) (helpers.Page[models.EventDetail], error)
	IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
}

// communityServiceImpl implements CommunityService
type communityServiceImpl struct {
	store  repositories.Store
	engine *ReferenceEngine
	logger zerolog.Logger
}

// NewCommunityService creates a new CommunityService
func NewCommunityService(store repositories.Store, engine *ReferenceEngine, logger zerolog.Logger) CommunityService {
	return &communityServiceImpl{store: store, engine: engine, logger: logger}
}

func normalizeCommunityFields(f models.CommunityFields) (models.CommunityFields, error) {
	f.Username = helpers.NormalizeUsername(f.Username)
	f.Name = strings.TrimSpace(f.Name)
	if f.Username == "" {
		return f, apperrors.NewValidationError("community username is required")
	}
	if f.Name == "" {
		return f, apperrors.NewValidationError("community name is required")
	}
	return f, nil
}

func communityConflict(err error) error {
	switch constraint, ok := dberrors.DuplicateConstraint(err); {
	case !ok:
		return err
	case constraint == dberrors.CommunitiesExternalKey:
		return apperrors.NewConflictError("community already registered")
	default:
		return apperrors.NewConflictError("community username is already taken")
	}
}

func (s *communityServiceImpl) loadCommunity(ctx context.Context, tx repositories.Store, id uuid.UUID) (*models.Community, error) {
	community, err := tx.Communities().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load community: %w", err)
	}
	if community == nil {
		return nil, apperrors.NotFound(apperrors.KindCommunity, id.String())
	}
	return community, nil
}

func (s *communityServiceImpl) loadUser(ctx context.Context, tx repositories.Store, id uuid.UUID) (*models.User, error) {
	user, err := tx.Users().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound(apperrors.KindUser, id.String())
	}
	return user, nil
}

// CreateCommunity registers a community; the creator becomes its first member
func (s *communityServiceImpl) CreateCommunity(ctx context.Context, creatorID uuid.UUID, externalID string, fields models.CommunityFields, path string) (*models.Community, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperrors.NewValidationError("community id is required")
	}
	fields, err := normalizeCommunityFields(fields)
	if err != nil {
		return nil, err
	}

	community := &models.Community{
		ExternalID: externalID,
		Username:   fields.Username,
		Name:       fields.Name,
		Image:      fields.Image,
		Bio:        fields.Bio,
		CreatedBy:  &creatorID,
		Members:    []uuid.UUID{creatorID},
	}
	f := newFanOut("create community")

	err = s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		if _, err := s.loadUser(ctx, tx, creatorID); err != nil {
			return err
		}

		if err := f.step("insert community", func() error {
			return communityConflict(tx.Communities().Create(ctx, community))
		}); err != nil {
			return err
		}

		if err := f.step("append to creator", func() error {
			return tx.Users().AddRef(ctx, creatorID, models.FieldCommunities, community.ID)
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("externalId", externalID).Msg("Failed to create community")
		return nil, err
	}

	s.logger.Info().Str("communityId", community.ID.String()).Msg("Community created")
	s.engine.signal.send(ctx, path)
	return community, nil
}

// JoinCommunity adds userID to the members and the community to the user
func (s *communityServiceImpl) JoinCommunity(ctx context.Context, communityID, userID uuid.UUID, path string) error {
	f := newFanOut("join community")

	err := s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		if _, err := s.loadCommunity(ctx, tx, communityID); err != nil {
			return err
		}
		if _, err := s.loadUser(ctx, tx, userID); err != nil {
			return err
		}

		if err := f.step("add member", func() error {
			return tx.Communities().AddRef(ctx, communityID, models.FieldMembers, userID)
		}); err != nil {
			return err
		}
		if err := f.step("append to user", func() error {
			return tx.Users().AddRef(ctx, userID, models.FieldCommunities, communityID)
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("communityId", communityID.String()).Str("userId", userID.String()).Msg("Failed to join community")
		return err
	}

	s.engine.signal.send(ctx, path)
	return nil
}

// LeaveCommunity removes userID from the members and the community from the user
func (s *communityServiceImpl) LeaveCommunity(ctx context.Context, communityID, userID uuid.UUID, path string) error {
	f := newFanOut("leave community")

	err := s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		if _, err := s.loadCommunity(ctx, tx, communityID); err != nil {
			return err
		}

		if err := f.step("remove member", func() error {
			return tx.Communities().PullRefs(ctx, []uuid.UUID{communityID}, models.FieldMembers, []uuid.UUID{userID})
		}); err != nil {
			return err
		}
		if err := f.step("pull from user", func() error {
			return tx.Users().PullRefs(ctx, []uuid.UUID{userID}, models.FieldCommunities, []uuid.UUID{communityID})
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("communityId", communityID.String()).Str("userId", userID.String()).Msg("Failed to leave community")
		return err
	}

	s.engine.signal.send(ctx, path)
	return nil
}

// DeleteCommunity deletes every root post and event of the community with
// their threads, retracts the membership and removes the community. Only the
// creator may do this. It returns the number of threaded documents removed.
func (s *communityServiceImpl) DeleteCommunity(ctx context.Context, communityID, callerID uuid.UUID, path string) (int, error) {
	var removed int
	f := newFanOut("delete community")

	err := s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		community, err := s.loadCommunity(ctx, tx, communityID)
		if err != nil {
			return err
		}
		if community.CreatedBy == nil || *community.CreatedBy != callerID {
			return apperrors.NewForbiddenError("only the creator can delete this community")
		}

		posts, err := tx.Posts().FindByIDs(ctx, community.Posts)
		if err != nil {
			return fmt.Errorf("load community posts: %w", err)
		}
		for _, p := range rootPosts(posts) {
			n, err := s.engine.deleteSubtreeTx(ctx, tx, f, models.KindPost, p.ID)
			if err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
				return err
			}
			removed += n
		}

		events, err := tx.Events().FindByIDs(ctx, community.Events)
		if err != nil {
			return fmt.Errorf("load community events: %w", err)
		}
		for _, e := range rootEvents(events) {
			n, err := s.engine.deleteSubtreeTx(ctx, tx, f, models.KindEvent, e.ID)
			if err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
				return err
			}
			removed += n
		}

		if err := f.step("pull memberships", func() error {
			return tx.Users().PullRefs(ctx, community.Members, models.FieldCommunities, []uuid.UUID{communityID})
		}); err != nil {
			return err
		}
		if err := f.step("delete community", func() error {
			return tx.Communities().Delete(ctx, communityID)
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("communityId", communityID.String()).Msg("Failed to delete community")
		return 0, err
	}

	metrics.CascadeSize.Observe(float64(removed))
	s.logger.Info().Str("communityId", communityID.String()).Int("removed", removed).Msg("Community deleted")
	s.engine.signal.send(ctx, path)
	return removed, nil
}

// UpdateCommunityInfo edits the community profile. Only the creator may do this.
func (s *communityServiceImpl) UpdateCommunityInfo(ctx context.Context, communityID, callerID uuid.UUID, fields models.CommunityFields, path string) (*models.Community, error) {
	fields, err := normalizeCommunityFields(fields)
	if err != nil {
		return nil, err
	}

	community, err := s.loadCommunity(ctx, s.store, communityID)
	if err != nil {
		return nil, err
	}
	if community.CreatedBy == nil || *community.CreatedBy != callerID {
		return nil, apperrors.NewForbiddenError("only the creator can edit this community")
	}

	updated, err := s.store.Communities().Update(ctx, communityID, fields)
	if err != nil {
		if cerr := communityConflict(err); cerr != err {
			return nil, cerr
		}
		s.logger.Error().Err(err).Str("communityId", communityID.String()).Msg("Failed to update community")
		return nil, fmt.Errorf("error updating community: %w", err)
	}
	if updated == nil {
		return nil, apperrors.NotFound(apperrors.KindCommunity, communityID.String())
	}

	s.engine.signal.send(ctx, path)
	return updated, nil
}

// FetchCommunityDetails returns a community with its creator and members
func (s *communityServiceImpl) FetchCommunityDetails(ctx context.Context, communityID uuid.UUID) (*models.CommunityDetail, error) {
	community, err := s.loadCommunity(ctx, s.store, communityID)
	if err != nil {
		return nil, err
	}

	ids := newIDSet()
	for _, m := range community.Members {
		ids.add(m)
	}
	if community.CreatedBy != nil {
		ids.add(*community.CreatedBy)
	}

	users, err := s.store.Users().FindByIDs(ctx, ids.list())
	if err != nil {
		return nil, fmt.Errorf("error loading members: %w", err)
	}
	byID := make(map[uuid.UUID]models.AuthorSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	detail := &models.CommunityDetail{Community: *community, Roster: []models.AuthorSummary{}}
	if community.CreatedBy != nil {
		if creator, ok := byID[*community.CreatedBy]; ok {
			detail.Creator = &creator
		}
	}
	for _, m := range community.Members {
		if member, ok := byID[m]; ok {
			detail.Roster = append(detail.Roster, member)
		}
	}
	return detail, nil
}

// FetchCommunities searches communities by username or name
func (s *communityServiceImpl) FetchCommunities(ctx context.Context, search string, page, size int) (helpers.Page[models.Community], error) {
	result, err := s.store.Communities().List(ctx, repositories.ListQuery{
		Search: strings.TrimSpace(search),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("search", search).Msg("Failed to list communities")
		return result, fmt.Errorf("error listing communities: %w", err)
	}
	return result, nil
}

// FetchCommunityPosts lists the community's root posts, newest first
func (s *communityServiceImpl) FetchCommunityPosts(ctx context.Context, communityID uuid.UUID, page, size int) (helpers.Page[models.PostWithAuthor], error) {
	if _, err := s.loadCommunity(ctx, s.store, communityID); err != nil {
		return helpers.Page[models.PostWithAuthor]{}, err
	}

	posts, err := s.store.Posts().List(ctx, repositories.ListQuery{Community: &communityID, RootOnly: true, Page: page, Size: size})
	if err != nil {
		return helpers.Page[models.PostWithAuthor]{}, fmt.Errorf("error listing posts: %w", err)
	}

	resolved, err := resolvePosts(ctx, s.store, posts.Items)
	if err != nil {
		return helpers.Page[models.PostWithAuthor]{}, err
	}
	return helpers.MapPage(posts, resolved), nil
}

// FetchCommunityEvents lists the community's root events, newest first
func (s *communityServiceImpl) FetchCommunityEvents(ctx context.Context, communityID uuid.UUID, page, size int) (helpers.Page[models.EventDetail], error) {
	if _, err := s.loadCommunity(ctx, s.store, communityID); err != nil {
		return helpers.Page[models.EventDetail]{}, err
	}

	events, err := s.store.Events().List(ctx, repositories.ListQuery{Community: &communityID, RootOnly: true, Page: page, Size: size})
	if err != nil {
		return helpers.Page[models.EventDetail]{}, fmt.Errorf("error listing events: %w", err)
	}

	resolved, err := resolveEvents(ctx, s.store, events.Items, false)
	if err != nil {
		return helpers.Page[models.EventDetail]{}, err
	}
	return helpers.MapPage(events, resolved), nil
}

// IsMember reports membership. Empty ids are not members.
func (s *communityServiceImpl) IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	if communityID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	return s.store.Communities().IsMember(ctx, communityID, userID)
}
