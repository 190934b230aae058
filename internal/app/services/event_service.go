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

// EventService defines the interface for event operations
type EventService interface {
	CreateEvent(ctx context.Context, authorExternalID string, fields models.EventFields, communityExternalID, path string) (*models.Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID uuid.UUID, fields models.EventFields, communityExternalID, path string) (*models.Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID uuid.UUID, path string) error
	AddCommentToEvent(ctx context.Context, eventID uuid.UUID, title string, authorID uuid.UUID, path string) (*models.ThreadNode, error)
	AddParticipant(ctx context.Context, eventID, userID uuid.UUID, path string) (bool, error)
	FetchParticipants(ctx context.Context, eventID uuid.UUID) ([]models.AuthorSummary, error)
	FetchEvents(ctx context.Context, page, size int) (helpers.Page[models.EventDetail], error)
	FetchEventByID(ctx context.Context, eventID uuid.UUID) (*models.EventDetail, error)
}

// eventServiceImpl implements EventService
type eventServiceImpl struct {
	store  repositories.Store
	engine *ReferenceEngine
	logger zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(store repositories.Store, engine *ReferenceEngine, logger zerolog.Logger) EventService {
	return &eventServiceImpl{store: store, engine: engine, logger: logger}
}

func normalizeEventFields(f models.EventFields) (models.EventFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Location = strings.TrimSpace(f.Location)
	if f.Title == "" {
		return f, apperrors.NewValidationError("event title is required")
	}
	return f, nil
}

// CreateEvent creates a root event for the author, optionally in a community
func (s *eventServiceImpl) CreateEvent(ctx context.Context, authorExternalID string, fields models.EventFields, communityExternalID, path string) (*models.Event, error) {
	fields, err := normalizeEventFields(fields)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       fields.Title,
		Description: fields.Description,
		Date:        fields.Date,
		Location:    fields.Location,
		Image:       fields.Image,
	}
	_, err = s.engine.CreateRoot(ctx, RootInput{
		Kind:                models.KindEvent,
		AuthorExternalID:    authorExternalID,
		CommunityExternalID: communityExternalID,
		Path:                path,
		Insert: func(ctx context.Context, tx repositories.Store, author uuid.UUID, community *uuid.UUID) (uuid.UUID, error) {
			event.Author, event.Community = author, community
			if err := tx.Events().Create(ctx, event); err != nil {
				return uuid.Nil, err
			}
			return event.ID, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent edits an event owned by callerID. A community change moves the
// event from the old community's list to the new one.
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, eventID, callerID uuid.UUID, fields models.EventFields, communityExternalID, path string) (*models.Event, error) {
	fields, err := normalizeEventFields(fields)
	if err != nil {
		return nil, err
	}

	var updated *models.Event
	f := newFanOut("update event")

	err = s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		event, err := tx.Events().FindByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		if event == nil {
			return apperrors.NotFound(apperrors.KindEvent, eventID.String())
		}
		if event.Author != callerID {
			return apperrors.NewForbiddenError("only the author can edit this event")
		}

		var community *uuid.UUID
		if communityExternalID != "" {
			c, err := tx.Communities().FindByExternalID(ctx, communityExternalID)
			if err != nil {
				return fmt.Errorf("resolve community: %w", err)
			}
			if c == nil {
				return apperrors.NotFound(apperrors.KindCommunity, communityExternalID)
			}
			community = &c.ID
		}

		// replies follow their thread's community
		if event.ParentID != nil {
			if community != nil && !sameCommunity(event.Community, community) {
				return apperrors.NewValidationError("a reply cannot be moved to another community")
			}
			community = event.Community
		}

		if err := f.step("update document", func() error {
			updated, err = tx.Events().Update(ctx, eventID, fields, community)
			return err
		}); err != nil {
			return err
		}

		if sameCommunity(event.Community, community) {
			return f.done()
		}

		if event.Community != nil {
			if err := f.step("pull from old community", func() error {
				return tx.Communities().PullRefs(ctx, []uuid.UUID{*event.Community}, models.FieldEvents, []uuid.UUID{eventID})
			}); err != nil {
				return err
			}
		}
		if community != nil {
			if err := f.step("append to new community", func() error {
				return tx.Communities().AddRef(ctx, *community, models.FieldEvents, eventID)
			}); err != nil {
				return err
			}
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("eventId", eventID.String()).Msg("Failed to update event")
		return nil, err
	}

	s.engine.signal.send(ctx, path)
	return updated, nil
}

func sameCommunity(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteEvent removes an event thread with its polls. Only the author may
// delete it.
func (s *eventServiceImpl) DeleteEvent(ctx context.Context, eventID, callerID uuid.UUID, path string) error {
	event, err := s.store.Events().FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("error finding event: %w", err)
	}
	if event == nil {
		return apperrors.NotFound(apperrors.KindEvent, eventID.String())
	}
	if event.Author != callerID {
		return apperrors.NewForbiddenError("only the author can delete this event")
	}

	_, err = s.engine.DeleteSubtree(ctx, models.KindEvent, eventID, path)
	return err
}

// AddCommentToEvent replies to an event; the reply text is stored as the title
func (s *eventServiceImpl) AddCommentToEvent(ctx context.Context, eventID uuid.UUID, title string, authorID uuid.UUID, path string) (*models.ThreadNode, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("comment text is required")
	}
	return s.engine.AddChild(ctx, models.KindEvent, eventID, title, authorID, path)
}

// AddParticipant registers userID for the event. It reports false when the
// user was already a participant.
func (s *eventServiceImpl) AddParticipant(ctx context.Context, eventID, userID uuid.UUID, path string) (bool, error) {
	var added bool
	f := newFanOut("join event")

	err := s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		event, err := tx.Events().FindByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		if event == nil {
			return apperrors.NotFound(apperrors.KindEvent, eventID.String())
		}

		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return apperrors.NotFound(apperrors.KindUser, userID.String())
		}

		if err := f.step("add participant", func() error {
			added, err = tx.Events().AddParticipant(ctx, eventID, userID)
			return err
		}); err != nil {
			return err
		}
		if !added {
			return f.done()
		}

		if err := f.step("append to user", func() error {
			return tx.Users().AddRef(ctx, userID, models.FieldEvents, eventID)
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("eventId", eventID.String()).Str("userId", userID.String()).Msg("Failed to add participant")
		return false, err
	}

	if added {
		s.engine.signal.send(ctx, path)
	}
	return added, nil
}

// FetchParticipants returns the participants of an event
func (s *eventServiceImpl) FetchParticipants(ctx context.Context, eventID uuid.UUID) ([]models.AuthorSummary, error) {
	event, err := s.store.Events().FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound(apperrors.KindEvent, eventID.String())
	}

	users, err := s.store.Users().FindByIDs(ctx, event.Participants)
	if err != nil {
		return nil, fmt.Errorf("error loading participants: %w", err)
	}

	out := make([]models.AuthorSummary, len(users))
	for i := range users {
		out[i] = users[i].Summary()
	}
	return out, nil
}

// FetchEvents lists root events, newest first
func (s *eventServiceImpl) FetchEvents(ctx context.Context, page, size int) (helpers.Page[models.EventDetail], error) {
	events, err := s.store.Events().List(ctx, repositories.ListQuery{RootOnly: true, Page: page, Size: size})
	if err != nil {
		s.logger.Error().Err(err).Int("page", page).Msg("Failed to list events")
		return helpers.Page[models.EventDetail]{}, fmt.Errorf("error listing events: %w", err)
	}

	resolved, err := resolveEvents(ctx, s.store, events.Items, false)
	if err != nil {
		return helpers.Page[models.EventDetail]{}, err
	}
	return helpers.MapPage(events, resolved), nil
}

// FetchEventByID returns an event with its replies and polls. Children are
// resolved by their kind tag.
func (s *eventServiceImpl) FetchEventByID(ctx context.Context, eventID uuid.UUID) (*models.EventDetail, error) {
	event, err := s.store.Events().FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound(apperrors.KindEvent, eventID.String())
	}

	resolved, err := resolveEvents(ctx, s.store, []models.Event{*event}, true)
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}
