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
	"github.com/yigit/bojio/internal/pkg/metrics"
	"github.com/yigit/bojio/internal/pkg/revalidate"
)

// PollService defines the interface for poll operations
type PollService interface {
	CreatePoll(ctx context.Context, eventID uuid.UUID, question string, options []string, path string) (*models.Poll, error)
	Vote(ctx context.Context, pollID uuid.UUID, optionText string, userID uuid.UUID, path string) (*models.Tally, error)
	Tally(ctx context.Context, pollID uuid.UUID) (*models.Tally, error)
	HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error)
	GetPollIDForEvent(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, error)
	GetPoll(ctx context.Context, pollID uuid.UUID) (*models.Poll, error)
}

// pollServiceImpl implements PollService
type pollServiceImpl struct {
	store  repositories.Store
	signal signal
	logger zerolog.Logger
}

// NewPollService creates a new PollService
func NewPollService(store repositories.Store, notifier revalidate.Notifier, logger zerolog.Logger) PollService {
	return &pollServiceImpl{
		store:  store,
		signal: signal{notifier: notifier, logger: logger},
		logger: logger,
	}
}

// validatePollOptions trims the options and rejects empty or repeated texts.
// Matching is exact, so "Red" and "red" are different options.
func validatePollOptions(question string, options []string) ([]models.PollOption, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.NewValidationError("poll question is required")
	}
	if len(options) < 2 {
		return nil, apperrors.NewValidationError("a poll needs at least two options")
	}

	seen := make(map[string]bool, len(options))
	out := make([]models.PollOption, 0, len(options))
	for _, o := range options {
		text := strings.TrimSpace(o)
		if text == "" {
			return nil, apperrors.NewValidationError("poll options cannot be empty")
		}
		if seen[text] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("duplicate poll option %q", text))
		}
		seen[text] = true
		out = append(out, models.PollOption{OptionText: text})
	}
	return out, nil
}

// CreatePoll attaches a new poll with zero votes to an event
func (s *pollServiceImpl) CreatePoll(ctx context.Context, eventID uuid.UUID, question string, options []string, path string) (*models.Poll, error) {
	opts, err := validatePollOptions(question, options)
	if err != nil {
		return nil, err
	}

	poll := &models.Poll{Question: strings.TrimSpace(question), Options: opts, EventID: eventID}
	f := newFanOut("create poll")

	err = s.store.Atomic(ctx, func(ctx context.Context, tx repositories.Store) error {
		event, err := tx.Events().FindByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		if event == nil {
			return apperrors.NotFound(apperrors.KindEvent, eventID.String())
		}

		if err := f.step("insert poll", func() error {
			return tx.Polls().Create(ctx, poll)
		}); err != nil {
			return err
		}

		if err := f.step("append to event", func() error {
			return tx.Events().AppendChild(ctx, eventID, models.NewRef(models.KindPoll, poll.ID))
		}); err != nil {
			return err
		}
		return f.done()
	})
	if err = f.result(err, s.logger); err != nil {
		s.logger.Debug().Err(err).Str("eventId", eventID.String()).Msg("Failed to create poll")
		return nil, err
	}

	s.logger.Info().Str("pollId", poll.ID.String()).Str("eventId", eventID.String()).Msg("Poll created")
	s.signal.send(ctx, path)
	return poll, nil
}

// Vote records userID's single vote for optionText. The check and the
// increment are one conditional update; when it changes nothing the poll is
// re-read to report why.
func (s *pollServiceImpl) Vote(ctx context.Context, pollID uuid.UUID, optionText string, userID uuid.UUID, path string) (*models.Tally, error) {
	poll, err := s.store.Polls().FindByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("load poll: %w", err)
	}
	if poll == nil {
		return nil, apperrors.NotFound(apperrors.KindPoll, pollID.String())
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load voter: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound(apperrors.KindUser, userID.String())
	}

	applied, err := s.store.Polls().ApplyVote(ctx, pollID, optionText, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("pollId", pollID.String()).Str("userId", userID.String()).Msg("Failed to apply vote")
		return nil, err
	}

	if !applied {
		err := s.classifyRejectedVote(ctx, pollID, optionText, userID)
		switch {
		case errors.Is(err, apperrors.ErrAlreadyVoted):
			metrics.Votes.WithLabelValues(metrics.VoteAlreadyVoted).Inc()
		case errors.Is(err, apperrors.ErrOptionNotFound):
			metrics.Votes.WithLabelValues(metrics.VoteOptionNotFound).Inc()
		}
		s.logger.Debug().Err(err).Str("pollId", pollID.String()).Str("userId", userID.String()).Msg("Vote rejected")
		return nil, err
	}

	metrics.Votes.WithLabelValues(metrics.VoteApplied).Inc()
	s.signal.send(ctx, path)
	return s.Tally(ctx, pollID)
}

func (s *pollServiceImpl) classifyRejectedVote(ctx context.Context, pollID uuid.UUID, optionText string, userID uuid.UUID) error {
	poll, err := s.store.Polls().FindByID(ctx, pollID)
	if err != nil {
		return fmt.Errorf("reload poll: %w", err)
	}
	switch {
	case poll == nil:
		return apperrors.NotFound(apperrors.KindPoll, pollID.String())
	case poll.HasVoter(userID):
		return apperrors.ErrAlreadyVoted
	case !poll.HasOption(optionText):
		return apperrors.NotFound(apperrors.KindOption, optionText)
	default:
		return apperrors.NewConflictError("vote was not applied, please retry")
	}
}

// Tally returns the poll's counts and percentages
func (s *pollServiceImpl) Tally(ctx context.Context, pollID uuid.UUID) (*models.Tally, error) {
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	tally := models.NewTally(poll)
	return &tally, nil
}

// HasVoted reports whether userID voted. Empty ids and missing polls are false.
func (s *pollServiceImpl) HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error) {
	if pollID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}

	poll, err := s.store.Polls().FindByID(ctx, pollID)
	if err != nil {
		return false, fmt.Errorf("load poll: %w", err)
	}
	if poll == nil {
		return false, nil
	}
	return poll.HasVoter(userID), nil
}

// GetPollIDForEvent returns the event's poll id, or nil when it has none
func (s *pollServiceImpl) GetPollIDForEvent(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, error) {
	if eventID == uuid.Nil {
		return nil, nil
	}
	return s.store.Polls().FindIDForEvent(ctx, eventID)
}

// GetPoll retrieves a poll
func (s *pollServiceImpl) GetPoll(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	poll, err := s.store.Polls().FindByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("load poll: %w", err)
	}
	if poll == nil {
		return nil, apperrors.NotFound(apperrors.KindPoll, pollID.String())
	}
	return poll, nil
}
