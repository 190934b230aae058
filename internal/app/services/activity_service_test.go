package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/bojio/internal/app/models"
)

func TestReplyActivityExcludesOwnReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "ext-alice", "alice")
	bob := f.seedUser(t, "ext-bob", "bob")

	post, err := f.svc.Post.CreatePost(ctx, "ext-alice", "P", "", "")
	require.NoError(t, err)
	r1, err := f.svc.Post.AddCommentToPost(ctx, post.ID, "R1", bob.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Post.AddCommentToPost(ctx, post.ID, "R2", alice.ID, "")
	require.NoError(t, err)

	items, err := f.svc.Activity.GetReplyActivity(ctx, alice.ID, models.KindPost)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, r1.ID, items[0].Reply.ID)
	assert.Equal(t, bob.ID, items[0].Author.ID)
	assert.Equal(t, "comment", items[0].Type)
}

func TestReplyActivityIncludesRepliesToReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "ext-alice", "alice")
	bob := f.seedUser(t, "ext-bob", "bob")
	carol := f.seedUser(t, "ext-carol", "carol")

	post, err := f.svc.Post.CreatePost(ctx, "ext-alice", "P", "", "")
	require.NoError(t, err)
	bobReply, err := f.svc.Post.AddCommentToPost(ctx, post.ID, "R1", bob.ID, "")
	require.NoError(t, err)
	carolReply, err := f.svc.Post.AddCommentToPost(ctx, bobReply.ID, "R2", carol.ID, "")
	require.NoError(t, err)

	items, err := f.svc.Activity.GetReplyActivity(ctx, bob.ID, models.KindPost)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, carolReply.ID, items[0].Reply.ID)
}

func TestReplyActivityEmpty(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "ext-alice", "alice")

	items, err := f.svc.Activity.GetReplyActivity(context.Background(), alice.ID, models.KindEvent)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestActivityFeedMergesKindsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "ext-alice", "alice")
	bob := f.seedUser(t, "ext-bob", "bob")

	post, err := f.svc.Post.CreatePost(ctx, "ext-alice", "P", "", "")
	require.NoError(t, err)
	event, err := f.svc.Event.CreateEvent(ctx, "ext-alice", models.EventFields{Title: "E"}, "", "")
	require.NoError(t, err)
	_, err = f.svc.Poll.CreatePoll(ctx, event.ID, "q", []string{"a", "b"}, "")
	require.NoError(t, err)

	first, err := f.svc.Post.AddCommentToPost(ctx, post.ID, "first", bob.ID, "")
	require.NoError(t, err)
	second, err := f.svc.Event.AddCommentToEvent(ctx, event.ID, "second", bob.ID, "")
	require.NoError(t, err)

	feed, err := f.svc.Activity.GetActivityFeed(ctx, alice.ID)
	require.NoError(t, err)

	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].Reply.ID)
	assert.Equal(t, "event", feed[0].Type)
	assert.Equal(t, first.ID, feed[1].Reply.ID)
	assert.Equal(t, "comment", feed[1].Type)
}
