package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/repositories"
	"github.com/yigit/bojio/internal/pkg/revalidate"
)

// Services bundles the application services built on one store
type Services struct {
	Engine    *ReferenceEngine
	User      UserService
	Post      PostService
	Event     EventService
	Poll      PollService
	Community CommunityService
	Activity  ActivityService
}

// NewServices wires every service to store, notifier and logger
func NewServices(store repositories.Store, notifier revalidate.Notifier, logger zerolog.Logger) *Services {
	engine := NewReferenceEngine(store, notifier, logger.With().Str("service", "references").Logger())

	return &Services{
		Engine:    engine,
		User:      NewUserService(store, notifier, logger.With().Str("service", "users").Logger()),
		Post:      NewPostService(store, engine, logger.With().Str("service", "posts").Logger()),
		Event:     NewEventService(store, engine, logger.With().Str("service", "events").Logger()),
		Poll:      NewPollService(store, notifier, logger.With().Str("service", "polls").Logger()),
		Community: NewCommunityService(store, engine, logger.With().Str("service", "communities").Logger()),
		Activity:  NewActivityService(store, logger.With().Str("service", "activity").Logger()),
	}
}

// signal forwards a revalidation path once a mutation has succeeded. An empty
// path is skipped; sink failures are logged, never returned.
type signal struct {
	notifier revalidate.Notifier
	logger   zerolog.Logger
}

func (s signal) send(ctx context.Context, path string) {
	if path == "" || s.notifier == nil {
		return
	}
	if err := s.notifier.PathStale(ctx, path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to signal revalidation")
	}
}
