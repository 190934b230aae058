package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

func TestFetchUserUnknownIsNil(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.User.FetchUser(context.Background(), "ext-nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = f.svc.User.FetchUser(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateUserOnboards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.User.UpdateUser(ctx, models.UserProfile{
		ExternalID: "ext-alice",
		Username:   "  Alice ",
		Name:       " Alice A ",
	}, "/profile")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice A", user.Name)
	assert.True(t, user.Onboarded)
	assert.Equal(t, []string{"/profile"}, f.notifier.Paths())

	again, err := f.svc.User.UpdateUser(ctx, models.UserProfile{ExternalID: "ext-alice", Username: "alice", Bio: "hi"}, "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "hi", again.Bio)
}

func TestUpdateUserErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "ext-alice", "alice")

	_, err := f.svc.User.UpdateUser(ctx, models.UserProfile{ExternalID: "ext-bob", Username: "ALICE"}, "/")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.User.UpdateUser(ctx, models.UserProfile{ExternalID: "ext-bob", Username: " "}, "/")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.User.UpdateUser(ctx, models.UserProfile{Username: "bob"}, "/")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Empty(t, f.notifier.Paths())
}

func TestFetchUsersExcludesCaller(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "ext-alice", "alice")
	f.seedUser(t, "ext-bob", "bob")
	f.seedUser(t, "ext-bobby", "bobby")

	page, err := f.svc.User.FetchUsers(context.Background(), &alice.ID, "", "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)

	page, err = f.svc.User.FetchUsers(context.Background(), nil, "BOB", "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "bobby", page.Items[0].Username)
}

func TestFetchUsersSortOrder(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ext-first", "first")
	f.seedUser(t, "ext-second", "second")
	f.seedUser(t, "ext-third", "third")

	usernames := func(p helpers.Page[models.User]) []string {
		out := []string{}
		for _, u := range p.Items {
			out = append(out, u.Username)
		}
		return out
	}

	page, err := f.svc.User.FetchUsers(context.Background(), nil, "", "asc", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, usernames(page))

	page, err = f.svc.User.FetchUsers(context.Background(), nil, "", "bogus", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, usernames(page))
}

func TestFetchPostsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "ext-alice", "alice")
	for i := 0; i < 45; i++ {
		_, err := f.svc.Post.CreatePost(ctx, "ext-alice", fmt.Sprintf("post %d", i), "", "")
		require.NoError(t, err)
	}

	first, err := f.svc.Post.FetchPosts(ctx, 1, 20)
	require.NoError(t, err)
	assert.Len(t, first.Items, 20)
	assert.True(t, first.HasNext)
	assert.Equal(t, "post 44", first.Items[0].Text)
	assert.Equal(t, alice.ID, first.Items[0].AuthorSummary.ID)

	third, err := f.svc.Post.FetchPosts(ctx, 3, 20)
	require.NoError(t, err)
	assert.Len(t, third.Items, 5)
	assert.False(t, third.HasNext)

	mine, err := f.svc.User.FetchUserPosts(ctx, alice.ID, 2, 20)
	require.NoError(t, err)
	assert.Len(t, mine.Items, 20)
	assert.True(t, mine.HasNext)

	_, err = f.svc.User.FetchUserPosts(ctx, uuid.New(), 1, 20)
	assert.True(t, apperrors.IsNotFoundKind(err, apperrors.KindUser))
}
