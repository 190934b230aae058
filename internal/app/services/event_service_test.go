package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/pkg/apperrors"
)

func TestAddParticipantIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "ext-alice", "alice")
	bob := f.seedUser(t, "ext-bob", "bob")
	event, err := f.svc.Event.CreateEvent(ctx, "ext-alice", models.EventFields{Title: "E"}, "", "")
	require.NoError(t, err)

	added, err := f.svc.Event.AddParticipant(ctx, event.ID, bob.ID, "/e")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.svc.Event.AddParticipant(ctx, event.ID, bob.ID, "/e")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, []uuid.UUID{event.ID}, f.user(t, bob.ID).Events)
	assert.Equal(t, []string{"/e"}, f.notifier.Paths())

	participants, err := f.svc.Event.FetchParticipants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, bob.ID, participants[0].ID)
}

func TestUpdateEventMovesCommunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "ext-alice", "alice")
	bob := f.seedUser(t, "ext-bob", "bob")
	one := f.seedCommunity(t, "org_one", "one", alice)
	two := f.seedCommunity(t, "org_two", "two", alice)

	event, err := f.svc.Event.CreateEvent(ctx, "ext-alice", models.EventFields{Title: "E"}, "org_one", "")
	require.NoError(t, err)

	_, err = f.svc.Event.UpdateEvent(ctx, event.ID, bob.ID, models.EventFields{Title: "Mine now"}, "", "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	updated, err := f.svc.Event.UpdateEvent(ctx, event.ID, alice.ID, models.EventFields{Title: " Moved ", Location: "Hall"}, "org_two", "/e")
	require.NoError(t, err)

	assert.Equal(t, "Moved", updated.Title)
	require.NotNil(t, updated.Community)
	assert.Equal(t, two.ID, *updated.Community)
	assert.Empty(t, f.community(t, one.ID).Events)
	assert.Equal(t, []uuid.UUID{event.ID}, f.community(t, two.ID).Events)
}

func TestUpdateEventReplyKeepsThreadCommunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "ext-alice", "alice")
	one := f.seedCommunity(t, "org_one", "one", alice)
	two := f.seedCommunity(t, "org_two", "two", alice)

	root, err := f.svc.Event.CreateEvent(ctx, "ext-alice", models.EventFields{Title: "Root"}, "org_one", "")
	require.NoError(t, err)
	reply, err := f.svc.Event.AddCommentToEvent(ctx, root.ID, "Reply", alice.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Event.UpdateEvent(ctx, reply.ID, alice.ID, models.EventFields{Title: "Moved"}, "org_two", "/e")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, f.community(t, two.ID).Events)

	updated, err := f.svc.Event.UpdateEvent(ctx, reply.ID, alice.ID, models.EventFields{Title: "Edited"}, "", "/e")
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	require.NotNil(t, updated.Community)
	assert.Equal(t, one.ID, *updated.Community)
	assert.Equal(t, []uuid.UUID{root.ID}, f.community(t, one.ID).Events)

	removed, err := f.svc.Community.DeleteCommunity(ctx, one.ID, alice.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	gone, err := f.store.Events().FindByID(ctx, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Equal(t, []string{"/e"}, f.notifier.Paths())
}

func TestUpdateEventRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "ext-alice", "alice")
	one := f.seedCommunity(t, "org_one", "one", alice)
	f.seedCommunity(t, "org_two", "two", alice)
	event, err := f.svc.Event.CreateEvent(ctx, "ext-alice", models.EventFields{Title: "E"}, "org_one", "")
	require.NoError(t, err)
	f.db.failAt("communities.AddRef")

	_, err = f.svc.Event.UpdateEvent(ctx, event.ID, alice.ID, models.EventFields{Title: "Moved"}, "org_two", "")
	assert.ErrorIs(t, err, apperrors.ErrPartialCascade)

	stored, err := f.store.Events().FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "E", stored.Title)
	assert.Equal(t, []uuid.UUID{event.ID}, f.community(t, one.ID).Events)
}

func TestCreateEventRequiresTitle(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ext-alice", "alice")

	_, err := f.svc.Event.CreateEvent(context.Background(), "ext-alice", models.EventFields{Title: " "}, "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestFetchEventByIDResolvesReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "ext-alice", "alice")
	bob := f.seedUser(t, "ext-bob", "bob")
	event, err := f.svc.Event.CreateEvent(ctx, "ext-alice", models.EventFields{Title: "E"}, "", "")
	require.NoError(t, err)
	reply, err := f.svc.Event.AddCommentToEvent(ctx, event.ID, "me too", bob.ID, "")
	require.NoError(t, err)

	detail, err := f.svc.Event.FetchEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, detail.Replies, 1)
	assert.Equal(t, reply.ID, detail.Replies[0].ID)
	assert.Equal(t, "me too", detail.Replies[0].Body)
	assert.Nil(t, detail.Community)

	_, err = f.svc.Event.FetchEventByID(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFoundKind(err, apperrors.KindEvent))
}
