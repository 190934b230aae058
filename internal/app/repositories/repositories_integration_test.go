package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/bojio/internal/app/migrations"
	"github.com/yigit/bojio/internal/app/models"
)

// newTestRepositories connects to TEST_DATABASE_URL, applies the migrations
// and empties every collection.
func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	m := migrations.NewMigrator(pool, zerolog.Nop())
	require.NoError(t, m.MigrateFromDirectory(ctx, filepath.Join("..", "..", "..", "migrations")))

	_, err = pool.Exec(ctx, "TRUNCATE users, communities, posts, events, polls")
	require.NoError(t, err)

	return NewRepositories(pool)
}

func seedUser(t *testing.T, r *Repositories, name string) *models.User {
	t.Helper()
	u, err := r.Users().Upsert(context.Background(), models.UserProfile{
		ExternalID: "ext_" + name,
		Username:   name,
		Name:       name,
	})
	require.NoError(t, err)
	return u
}

func TestUserUpsertLowercasesAndOnboards(t *testing.T) {
	r := newTestRepositories(t)
	ctx := context.Background()

	u, err := r.Users().Upsert(ctx, models.UserProfile{ExternalID: "ext_1", Username: "Alice", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.Onboarded)

	again, err := r.Users().Upsert(ctx, models.UserProfile{ExternalID: "ext_1", Username: "alice2", Name: "Alice B"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Alice B", again.Name)
}

func TestApplyVoteConcurrentSameUser(t *testing.T) {
	r := newTestRepositories(t)
	ctx := context.Background()
	voter := seedUser(t, r, "voter")

	poll := &models.Poll{
		Question: "Colour?",
		Options:  []models.PollOption{{OptionText: "Red"}, {OptionText: "Blue"}},
		EventID:  uuid.New(),
	}
	require.NoError(t, r.Polls().Create(ctx, poll))

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.Polls().ApplyVote(ctx, poll.ID, "Red", voter.ID)
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	applied := 0
	for ok := range results {
		if ok {
			applied++
		}
	}
	assert.Equal(t, 1, applied)

	stored, err := r.Polls().FindByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{voter.ID}, stored.Voters)
	assert.Equal(t, 1, stored.Options[0].Votes)
	assert.Equal(t, 0, stored.Options[1].Votes)

	ok, err := r.Polls().ApplyVote(ctx, poll.ID, "red", seedUser(t, r, "other").ID)
	require.NoError(t, err)
	assert.False(t, ok, "option match is case-sensitive")
}

func TestEventChildrenKeepTags(t *testing.T) {
	r := newTestRepositories(t)
	ctx := context.Background()
	author := seedUser(t, r, "host")

	root := &models.Event{Title: "Picnic", Author: author.ID}
	require.NoError(t, r.Events().Create(ctx, root))

	reply := models.ThreadNode{Body: "count me in", Author: author.ID, ParentID: &root.ID}
	require.NoError(t, r.Events().InsertComment(ctx, &reply))
	pollID := uuid.New()

	require.NoError(t, r.Events().AppendChild(ctx, root.ID, models.NewRef(models.KindEvent, reply.ID)))
	require.NoError(t, r.Events().AppendChild(ctx, root.ID, models.NewRef(models.KindPoll, pollID)))

	got, err := r.Events().FindByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Ref{
		models.NewRef(models.KindEvent, reply.ID),
		models.NewRef(models.KindPoll, pollID),
	}, got.Children)

	require.NoError(t, r.Events().PullChildren(ctx, []uuid.UUID{reply.ID}))
	got, err = r.Events().FindByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Ref{models.NewRef(models.KindPoll, pollID)}, got.Children)
}

func TestPostListPagination(t *testing.T) {
	r := newTestRepositories(t)
	ctx := context.Background()
	author := seedUser(t, r, "writer")

	for i := 0; i < 45; i++ {
		require.NoError(t, r.Posts().Create(ctx, &models.Post{Text: fmt.Sprintf("post %d", i), Author: author.ID}))
	}
	root := uuid.New()
	require.NoError(t, r.Posts().Create(ctx, &models.Post{Text: "a reply", Author: author.ID, ParentID: &root}))

	for page, want := range map[int]struct {
		n    int
		next bool
	}{1: {20, true}, 2: {20, true}, 3: {5, false}} {
		p, err := r.Posts().List(ctx, ListQuery{RootOnly: true, Page: page, Size: 20})
		require.NoError(t, err)
		assert.Len(t, p.Items, want.n, "page %d", page)
		assert.Equal(t, want.next, p.HasNext, "page %d", page)
		assert.Equal(t, int64(45), p.Total)
	}
}

func TestPostListPagesDoNotOverlapOnTiedTimestamps(t *testing.T) {
	r := newTestRepositories(t)
	ctx := context.Background()
	author := seedUser(t, r, "batch")

	// now() is fixed for the whole transaction, so every row shares created_at
	require.NoError(t, r.Atomic(ctx, func(ctx context.Context, tx Store) error {
		for i := 0; i < 7; i++ {
			if err := tx.Posts().Create(ctx, &models.Post{Text: fmt.Sprintf("batch %d", i), Author: author.ID}); err != nil {
				return err
			}
		}
		return nil
	}))

	for _, dir := range []SortDirection{SortNewest, SortOldest} {
		seen := map[uuid.UUID]bool{}
		for page := 1; page <= 4; page++ {
			p, err := r.Posts().List(ctx, ListQuery{Author: &author.ID, Sort: dir, Page: page, Size: 2})
			require.NoError(t, err)
			for _, post := range p.Items {
				assert.False(t, seen[post.ID], "post %s repeated on page %d (%s)", post.ID, page, dir)
				seen[post.ID] = true
			}
		}
		assert.Len(t, seen, 7, dir)
	}
}

func TestAtomicRollsBack(t *testing.T) {
	r := newTestRepositories(t)
	ctx := context.Background()
	author := seedUser(t, r, "rollback")

	err := r.Atomic(ctx, func(ctx context.Context, tx Store) error {
		post := &models.Post{Text: "doomed", Author: author.ID}
		if err := tx.Posts().Create(ctx, post); err != nil {
			return err
		}
		if err := tx.Users().AddRef(ctx, author.ID, models.FieldPosts, post.ID); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	u, err := r.Users().FindByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Posts)

	page, err := r.Posts().List(ctx, ListQuery{Author: &author.ID})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
