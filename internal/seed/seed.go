package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/pkg/apperrors"
)

// Identifiers of the default data. They are stable so reseeding is a no-op.
const (
	TeamExternalID      = "bojio_team"
	CommunityExternalID = "bojio_lobby"
)

// CreateDefaultData makes sure a team account and a lobby community with a
// welcome post exist. Existing data is left untouched.
func CreateDefaultData(ctx context.Context, svcs *services.Services, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (team account, lobby community)...")

	team, err := svcs.User.UpdateUser(ctx, models.UserProfile{
		ExternalID: TeamExternalID,
		Username:   "bojio",
		Name:       "Bojio Team",
		Bio:        "Announcements from the people running Bojio",
	}, "")
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating team account")
		return err
	}

	_, err = svcs.Community.CreateCommunity(ctx, team.ID, CommunityExternalID, models.CommunityFields{
		Username: "lobby",
		Name:     "Bojio Lobby",
		Bio:      "Say hi and find something to do this weekend",
	}, "")
	if errors.Is(err, apperrors.ErrConflict) {
		lgr.Info().Msg("Default data already present")
		return nil
	}
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating lobby community")
		return err
	}

	if _, err := svcs.Post.CreatePost(ctx, TeamExternalID, "Welcome to Bojio! Introduce yourself below.", CommunityExternalID, ""); err != nil {
		lgr.Error().Err(err).Msg("Error creating welcome post")
		return err
	}

	lgr.Info().Msg("Default data created")
	return nil
}
