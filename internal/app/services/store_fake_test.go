package services

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/repositories"
	"github.com/yigit/bojio/internal/pkg/dberrors"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

// memDB is an in-memory Store used by the service tests. Atomic serializes
// transactions and restores a snapshot when the callback fails.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users       map[uuid.UUID]*models.User
	communities map[uuid.UUID]*models.Community
	posts       map[uuid.UUID]*models.Post
	events      map[uuid.UUID]*models.Event
	polls       map[uuid.UUID]*models.Poll

	clock  time.Time
	failOn map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[uuid.UUID]*models.User{},
		communities: map[uuid.UUID]*models.Community{},
		posts:       map[uuid.UUID]*models.Post{},
		events:      map[uuid.UUID]*models.Event{},
		polls:       map[uuid.UUID]*models.Poll{},
		clock:       time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		failOn:      map[string]error{},
	}
}

var errInjected = errors.New("injected store failure")

// failAt makes the named operation fail until cleared
func (m *memDB) failAt(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[op] = errInjected
}

// callers hold mu
func (m *memDB) fail(op string) error {
	return m.failOn[op]
}

// callers hold mu
func (m *memDB) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type snapshot struct {
	users       map[uuid.UUID]*models.User
	communities map[uuid.UUID]*models.Community
	posts       map[uuid.UUID]*models.Post
	events      map[uuid.UUID]*models.Event
	polls       map[uuid.UUID]*models.Poll
}

func (m *memDB) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := snapshot{
		users:       map[uuid.UUID]*models.User{},
		communities: map[uuid.UUID]*models.Community{},
		posts:       map[uuid.UUID]*models.Post{},
		events:      map[uuid.UUID]*models.Event{},
		polls:       map[uuid.UUID]*models.Poll{},
	}
	for k, v := range m.users {
		c := cloneUser(*v)
		s.users[k] = &c
	}
	for k, v := range m.communities {
		c := cloneCommunity(*v)
		s.communities[k] = &c
	}
	for k, v := range m.posts {
		c := clonePost(*v)
		s.posts[k] = &c
	}
	for k, v := range m.events {
		c := cloneEvent(*v)
		s.events[k] = &c
	}
	for k, v := range m.polls {
		c := clonePoll(*v)
		s.polls[k] = &c
	}
	return s
}

func (m *memDB) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.communities, m.posts, m.events, m.polls = s.users, s.communities, s.posts, s.events, s.polls
}

func cloneUser(u models.User) models.User {
	u.Posts, u.Communities, u.Events = slices.Clone(u.Posts), slices.Clone(u.Communities), slices.Clone(u.Events)
	return u
}

func cloneCommunity(c models.Community) models.Community {
	c.Posts, c.Members, c.Events = slices.Clone(c.Posts), slices.Clone(c.Members), slices.Clone(c.Events)
	return c
}

func clonePost(p models.Post) models.Post {
	p.Children = slices.Clone(p.Children)
	return p
}

func cloneEvent(e models.Event) models.Event {
	e.Children, e.Participants = slices.Clone(e.Children), slices.Clone(e.Participants)
	return e
}

func clonePoll(p models.Poll) models.Poll {
	p.Options, p.Voters = slices.Clone(p.Options), slices.Clone(p.Voters)
	return p
}

func addUnique(list []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}

func without(list []uuid.UUID, remove []uuid.UUID) []uuid.UUID {
	out := []uuid.UUID{}
	for _, id := range list {
		if !slices.Contains(remove, id) {
			out = append(out, id)
		}
	}
	return out
}

func pageOf[T any](items []T, q repositories.ListQuery) helpers.Page[T] {
	offset, limit := helpers.CalculateOffsetLimit(q.Page, q.Size)
	var out []T
	if int(offset) < len(items) {
		end := min(int(offset)+limit, len(items))
		out = items[offset:end]
	}
	return helpers.NewPage(out, int64(len(items)), q.Page, q.Size)
}

func matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func duplicate(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// fakeStore implements repositories.Store on a memDB
type fakeStore struct {
	db   *memDB
	inTx bool
}

var _ repositories.Store = (*fakeStore)(nil)

func (s *fakeStore) Users() repositories.IUserRepository           { return fakeUsers{s.db} }
func (s *fakeStore) Communities() repositories.ICommunityRepository { return fakeCommunities{s.db} }
func (s *fakeStore) Posts() repositories.IPostRepository           { return fakePosts{s.db} }
func (s *fakeStore) Events() repositories.IEventRepository         { return fakeEvents{s.db} }
func (s *fakeStore) Polls() repositories.IPollRepository           { return fakePolls{s.db} }

func (s *fakeStore) Threads(kind models.EntityKind) repositories.ThreadStore {
	if kind == models.KindEvent {
		return fakeEvents{s.db}
	}
	return fakePosts{s.db}
}

func (s *fakeStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	snap := s.db.snapshot()
	if err := fn(ctx, &fakeStore{db: s.db, inTx: true}); err != nil {
		s.db.restore(snap)
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.fail("commit")
}

// users

type fakeUsers struct{ db *memDB }

func (r fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		c := cloneUser(*u)
		return &c, nil
	}
	return nil, nil
}

func (r fakeUsers) FindByExternalID(_ context.Context, externalID string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.ExternalID == externalID {
			c := cloneUser(*u)
			return &c, nil
		}
	}
	return nil, nil
}

func (r fakeUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.User{}
	for _, u := range r.db.users {
		if slices.Contains(ids, u.ID) {
			out = append(out, cloneUser(*u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakeUsers) Upsert(_ context.Context, p models.UserProfile) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("users.Upsert"); err != nil {
		return nil, err
	}

	username := helpers.NormalizeUsername(p.Username)
	var existing *models.User
	for _, u := range r.db.users {
		if u.ExternalID == p.ExternalID {
			existing = u
		}
	}
	for _, u := range r.db.users {
		if u.Username == username && u != existing {
			return nil, duplicate(dberrors.UsersUsernameKey)
		}
	}

	if existing == nil {
		existing = &models.User{
			ID:          uuid.New(),
			ExternalID:  p.ExternalID,
			Posts:       []uuid.UUID{},
			Communities: []uuid.UUID{},
			Events:      []uuid.UUID{},
			CreatedAt:   r.db.now(),
		}
		r.db.users[existing.ID] = existing
	}
	existing.Username, existing.Name, existing.Bio, existing.Image = username, p.Name, p.Bio, p.Image
	existing.Onboarded = true

	c := cloneUser(*existing)
	return &c, nil
}

func (r fakeUsers) List(_ context.Context, q repositories.ListQuery) (helpers.Page[models.User], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := []models.User{}
	for _, u := range r.db.users {
		if q.ExcludeID != nil && u.ID == *q.ExcludeID {
			continue
		}
		if !matches(q.Search, u.Username, u.Name) {
			continue
		}
		items = append(items, cloneUser(*u))
	}
	sort.Slice(items, func(i, j int) bool {
		if q.Sort == repositories.SortOldest {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return pageOf(items, q), nil
}

func (r fakeUsers) AddRef(_ context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("users.AddRef"); err != nil {
		return err
	}
	u, ok := r.db.users[id]
	if !ok {
		return nil
	}
	switch field {
	case models.FieldPosts:
		u.Posts = addUnique(u.Posts, ref)
	case models.FieldEvents:
		u.Events = addUnique(u.Events, ref)
	case models.FieldCommunities:
		u.Communities = addUnique(u.Communities, ref)
	}
	return nil
}

func (r fakeUsers) PullRefs(_ context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("users.PullRefs"); err != nil {
		return err
	}
	for _, id := range ids {
		u, ok := r.db.users[id]
		if !ok {
			continue
		}
		switch field {
		case models.FieldPosts:
			u.Posts = without(u.Posts, refs)
		case models.FieldEvents:
			u.Events = without(u.Events, refs)
		case models.FieldCommunities:
			u.Communities = without(u.Communities, refs)
		}
	}
	return nil
}

// communities

type fakeCommunities struct{ db *memDB }

func (r fakeCommunities) FindByID(_ context.Context, id uuid.UUID) (*models.Community, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c, ok := r.db.communities[id]; ok {
		cc := cloneCommunity(*c)
		return &cc, nil
	}
	return nil, nil
}

func (r fakeCommunities) FindByExternalID(_ context.Context, externalID string) (*models.Community, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.communities {
		if c.ExternalID == externalID {
			cc := cloneCommunity(*c)
			return &cc, nil
		}
	}
	return nil, nil
}

func (r fakeCommunities) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Community, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Community{}
	for _, c := range r.db.communities {
		if slices.Contains(ids, c.ID) {
			out = append(out, cloneCommunity(*c))
		}
	}
	return out, nil
}

func (r fakeCommunities) Create(_ context.Context, c *models.Community) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("communities.Create"); err != nil {
		return err
	}
	for _, existing := range r.db.communities {
		if existing.ExternalID == c.ExternalID {
			return duplicate(dberrors.CommunitiesExternalKey)
		}
		if existing.Username == c.Username {
			return duplicate(dberrors.CommunitiesUsernameKey)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Members == nil {
		c.Members = []uuid.UUID{}
	}
	c.Posts, c.Events, c.CreatedAt = []uuid.UUID{}, []uuid.UUID{}, r.db.now()
	stored := cloneCommunity(*c)
	r.db.communities[c.ID] = &stored
	return nil
}

func (r fakeCommunities) Update(_ context.Context, id uuid.UUID, f models.CommunityFields) (*models.Community, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.communities[id]
	if !ok {
		return nil, nil
	}
	for _, other := range r.db.communities {
		if other.ID != id && other.Username == f.Username {
			return nil, duplicate(dberrors.CommunitiesUsernameKey)
		}
	}
	c.Username, c.Name, c.Image, c.Bio = f.Username, f.Name, f.Image, f.Bio
	cc := cloneCommunity(*c)
	return &cc, nil
}

func (r fakeCommunities) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("communities.Delete"); err != nil {
		return err
	}
	delete(r.db.communities, id)
	return nil
}

func (r fakeCommunities) List(_ context.Context, q repositories.ListQuery) (helpers.Page[models.Community], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := []models.Community{}
	for _, c := range r.db.communities {
		if matches(q.Search, c.Username, c.Name) {
			items = append(items, cloneCommunity(*c))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return pageOf(items, q), nil
}

func (r fakeCommunities) IsMember(_ context.Context, id, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.communities[id]
	return ok && slices.Contains(c.Members, userID), nil
}

func (r fakeCommunities) AddRef(_ context.Context, id uuid.UUID, field models.ListField, ref uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("communities.AddRef"); err != nil {
		return err
	}
	c, ok := r.db.communities[id]
	if !ok {
		return nil
	}
	switch field {
	case models.FieldPosts:
		c.Posts = addUnique(c.Posts, ref)
	case models.FieldEvents:
		c.Events = addUnique(c.Events, ref)
	case models.FieldMembers:
		c.Members = addUnique(c.Members, ref)
	}
	return nil
}

func (r fakeCommunities) PullRefs(_ context.Context, ids []uuid.UUID, field models.ListField, refs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("communities.PullRefs"); err != nil {
		return err
	}
	for _, id := range ids {
		c, ok := r.db.communities[id]
		if !ok {
			continue
		}
		switch field {
		case models.FieldPosts:
			c.Posts = without(c.Posts, refs)
		case models.FieldEvents:
			c.Events = without(c.Events, refs)
		case models.FieldMembers:
			c.Members = without(c.Members, refs)
		}
	}
	return nil
}

// posts

type fakePosts struct{ db *memDB }

func (r fakePosts) Kind() models.EntityKind { return models.KindPost }

func (r fakePosts) Create(_ context.Context, p *models.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("posts.Create"); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Children, p.CreatedAt = []uuid.UUID{}, r.db.now()
	stored := clonePost(*p)
	r.db.posts[p.ID] = &stored
	return nil
}

func (r fakePosts) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.posts[id]; ok {
		c := clonePost(*p)
		return &c, nil
	}
	return nil, nil
}

func (r fakePosts) sorted(keep func(*models.Post) bool, newestFirst bool) []models.Post {
	out := []models.Post{}
	for _, p := range r.db.posts {
		if keep(p) {
			out = append(out, clonePost(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r fakePosts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.sorted(func(p *models.Post) bool { return slices.Contains(ids, p.ID) }, false), nil
}

func (r fakePosts) List(_ context.Context, q repositories.ListQuery) (helpers.Page[models.Post], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := r.sorted(func(p *models.Post) bool {
		switch {
		case q.RootOnly && p.ParentID != nil:
			return false
		case q.Author != nil && p.Author != *q.Author:
			return false
		case q.Community != nil && (p.Community == nil || *p.Community != *q.Community):
			return false
		}
		return matches(q.Search, p.Text)
	}, true)
	return pageOf(items, q), nil
}

func (r fakePosts) FindNode(ctx context.Context, id uuid.UUID) (*models.ThreadNode, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	n := p.Node()
	return &n, nil
}

func (r fakePosts) FindChildren(_ context.Context, parentID uuid.UUID) ([]models.ThreadNode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("posts.FindChildren"); err != nil {
		return nil, err
	}
	posts := r.sorted(func(p *models.Post) bool { return p.ParentID != nil && *p.ParentID == parentID }, false)
	out := make([]models.ThreadNode, len(posts))
	for i := range posts {
		out[i] = posts[i].Node()
	}
	return out, nil
}

func (r fakePosts) FindByAuthor(_ context.Context, authorID uuid.UUID) ([]models.ThreadNode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	posts := r.sorted(func(p *models.Post) bool { return p.Author == authorID }, true)
	out := make([]models.ThreadNode, len(posts))
	for i := range posts {
		out[i] = posts[i].Node()
	}
	return out, nil
}

func (r fakePosts) FindReplies(_ context.Context, ids []uuid.UUID, excludeAuthor uuid.UUID) ([]models.Reply, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	posts := r.sorted(func(p *models.Post) bool { return slices.Contains(ids, p.ID) && p.Author != excludeAuthor }, true)
	out := []models.Reply{}
	for _, p := range posts {
		u, ok := r.db.users[p.Author]
		if !ok {
			continue
		}
		out = append(out, models.Reply{
			ID:        p.ID,
			Kind:      models.KindPost,
			Body:      p.Text,
			ParentID:  p.ParentID,
			Author:    u.Summary(),
			Children:  models.RefsOf(models.KindPost, p.Children),
			CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}

func (r fakePosts) InsertComment(ctx context.Context, n *models.ThreadNode) error {
	p := models.Post{ID: n.ID, Text: n.Body, Author: n.Author, Community: n.Community, ParentID: n.ParentID}
	if err := r.Create(ctx, &p); err != nil {
		return err
	}
	n.ID, n.CreatedAt, n.Kind = p.ID, p.CreatedAt, models.KindPost
	return nil
}

func (r fakePosts) AppendChild(_ context.Context, parentID uuid.UUID, ref models.Ref) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("posts.AppendChild"); err != nil {
		return err
	}
	if p, ok := r.db.posts[parentID]; ok {
		p.Children = append(p.Children, ref.ID)
	}
	return nil
}

func (r fakePosts) PullChildren(_ context.Context, childIDs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("posts.PullChildren"); err != nil {
		return err
	}
	for _, p := range r.db.posts {
		p.Children = without(p.Children, childIDs)
	}
	return nil
}

func (r fakePosts) DeleteMany(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("posts.DeleteMany"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.db.posts[id]; ok {
			delete(r.db.posts, id)
			n++
		}
	}
	return n, nil
}

// events

type fakeEvents struct{ db *memDB }

func (r fakeEvents) Kind() models.EntityKind { return models.KindEvent }

func (r fakeEvents) Create(_ context.Context, e *models.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("events.Create"); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Children, e.Participants, e.CreatedAt = []models.Ref{}, []uuid.UUID{}, r.db.now()
	stored := cloneEvent(*e)
	r.db.events[e.ID] = &stored
	return nil
}

func (r fakeEvents) FindByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if e, ok := r.db.events[id]; ok {
		c := cloneEvent(*e)
		return &c, nil
	}
	return nil, nil
}

func (r fakeEvents) sorted(keep func(*models.Event) bool, newestFirst bool) []models.Event {
	out := []models.Event{}
	for _, e := range r.db.events {
		if keep(e) {
			out = append(out, cloneEvent(*e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r fakeEvents) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.sorted(func(e *models.Event) bool { return slices.Contains(ids, e.ID) }, false), nil
}

func (r fakeEvents) Update(_ context.Context, id uuid.UUID, f models.EventFields, community *uuid.UUID) (*models.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("events.Update"); err != nil {
		return nil, err
	}
	e, ok := r.db.events[id]
	if !ok {
		return nil, nil
	}
	e.Title, e.Description, e.Date, e.Location, e.Image = f.Title, f.Description, f.Date, f.Location, f.Image
	e.Community = community
	c := cloneEvent(*e)
	return &c, nil
}

func (r fakeEvents) List(_ context.Context, q repositories.ListQuery) (helpers.Page[models.Event], error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := r.sorted(func(e *models.Event) bool {
		switch {
		case q.RootOnly && e.ParentID != nil:
			return false
		case q.Author != nil && e.Author != *q.Author:
			return false
		case q.Community != nil && (e.Community == nil || *e.Community != *q.Community):
			return false
		}
		return matches(q.Search, e.Title, e.Location)
	}, true)
	return pageOf(items, q), nil
}

func (r fakeEvents) AddParticipant(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.events[eventID]
	if !ok || slices.Contains(e.Participants, userID) {
		return false, nil
	}
	e.Participants = append(e.Participants, userID)
	return true, nil
}

func (r fakeEvents) FindNode(ctx context.Context, id uuid.UUID) (*models.ThreadNode, error) {
	e, err := r.FindByID(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	n := e.Node()
	return &n, nil
}

func (r fakeEvents) FindChildren(_ context.Context, parentID uuid.UUID) ([]models.ThreadNode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	events := r.sorted(func(e *models.Event) bool { return e.ParentID != nil && *e.ParentID == parentID }, false)
	out := make([]models.ThreadNode, len(events))
	for i := range events {
		out[i] = events[i].Node()
	}
	return out, nil
}

func (r fakeEvents) FindByAuthor(_ context.Context, authorID uuid.UUID) ([]models.ThreadNode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	events := r.sorted(func(e *models.Event) bool { return e.Author == authorID }, true)
	out := make([]models.ThreadNode, len(events))
	for i := range events {
		out[i] = events[i].Node()
	}
	return out, nil
}

func (r fakeEvents) FindReplies(_ context.Context, ids []uuid.UUID, excludeAuthor uuid.UUID) ([]models.Reply, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	events := r.sorted(func(e *models.Event) bool { return slices.Contains(ids, e.ID) && e.Author != excludeAuthor }, true)
	out := []models.Reply{}
	for _, e := range events {
		u, ok := r.db.users[e.Author]
		if !ok {
			continue
		}
		out = append(out, models.Reply{
			ID:        e.ID,
			Kind:      models.KindEvent,
			Body:      e.Title,
			ParentID:  e.ParentID,
			Author:    u.Summary(),
			Children:  slices.Clone(e.Children),
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

func (r fakeEvents) InsertComment(ctx context.Context, n *models.ThreadNode) error {
	e := models.Event{ID: n.ID, Title: n.Body, Author: n.Author, Community: n.Community, ParentID: n.ParentID}
	if err := r.Create(ctx, &e); err != nil {
		return err
	}
	n.ID, n.CreatedAt, n.Kind = e.ID, e.CreatedAt, models.KindEvent
	return nil
}

func (r fakeEvents) AppendChild(_ context.Context, parentID uuid.UUID, ref models.Ref) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("events.AppendChild"); err != nil {
		return err
	}
	if e, ok := r.db.events[parentID]; ok {
		e.Children = append(e.Children, ref)
	}
	return nil
}

func (r fakeEvents) PullChildren(_ context.Context, childIDs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.events {
		kept := []models.Ref{}
		for _, ref := range e.Children {
			if !slices.Contains(childIDs, ref.ID) {
				kept = append(kept, ref)
			}
		}
		e.Children = kept
	}
	return nil
}

func (r fakeEvents) DeleteMany(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("events.DeleteMany"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.db.events[id]; ok {
			delete(r.db.events, id)
			n++
		}
	}
	return n, nil
}

// polls

type fakePolls struct{ db *memDB }

func (r fakePolls) Create(_ context.Context, p *models.Poll) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("polls.Create"); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Voters, p.CreatedAt = []uuid.UUID{}, r.db.now()
	stored := clonePoll(*p)
	r.db.polls[p.ID] = &stored
	return nil
}

func (r fakePolls) FindByID(_ context.Context, id uuid.UUID) (*models.Poll, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.polls[id]; ok {
		c := clonePoll(*p)
		return &c, nil
	}
	return nil, nil
}

func (r fakePolls) FindByEvent(_ context.Context, eventID uuid.UUID) ([]models.Poll, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Poll{}
	for _, p := range r.db.polls {
		if p.EventID == eventID {
			out = append(out, clonePoll(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakePolls) FindIDForEvent(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, error) {
	polls, err := r.FindByEvent(ctx, eventID)
	if err != nil || len(polls) == 0 {
		return nil, err
	}
	return &polls[0].ID, nil
}

// ApplyVote mirrors the conditional update: both checks and both writes
// happen under one lock.
func (r fakePolls) ApplyVote(_ context.Context, pollID uuid.UUID, option string, userID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.polls[pollID]
	if !ok || p.HasVoter(userID) || !p.HasOption(option) {
		return false, nil
	}
	for i := range p.Options {
		if p.Options[i].OptionText == option {
			p.Options[i].Votes++
		}
	}
	p.Voters = append(p.Voters, userID)
	return true, nil
}

func (r fakePolls) DeleteByEvents(_ context.Context, eventIDs []uuid.UUID) ([]uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail("polls.DeleteByEvents"); err != nil {
		return nil, err
	}
	deleted := []uuid.UUID{}
	for id, p := range r.db.polls {
		if slices.Contains(eventIDs, p.EventID) {
			delete(r.db.polls, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

// recorder collects revalidation signals
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) PathStale(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths)
}

type fixture struct {
	db       *memDB
	store    *fakeStore
	notifier *recorder
	svc      *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	store := &fakeStore{db: db}
	notifier := &recorder{}
	return &fixture{
		db:       db,
		store:    store,
		notifier: notifier,
		svc:      NewServices(store, notifier, zerolog.Nop()),
	}
}

// seedUser inserts an onboarded user and returns it
func (f *fixture) seedUser(t *testing.T, externalID, username string) *models.User {
	t.Helper()
	u, err := f.store.Users().Upsert(context.Background(), models.UserProfile{
		ExternalID: externalID,
		Username:   username,
		Name:       strings.ToUpper(username[:1]) + username[1:],
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedCommunity inserts a community created by creator
func (f *fixture) seedCommunity(t *testing.T, externalID, username string, creator *models.User) *models.Community {
	t.Helper()
	c, err := f.svc.Community.CreateCommunity(context.Background(), creator.ID, externalID, models.CommunityFields{
		Username: username,
		Name:     username,
	}, "")
	if err != nil {
		t.Fatalf("seed community: %v", err)
	}
	return c
}

func (f *fixture) user(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	u, err := f.store.Users().FindByID(context.Background(), id)
	if err != nil || u == nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func (f *fixture) community(t *testing.T, id uuid.UUID) *models.Community {
	t.Helper()
	c, err := f.store.Communities().FindByID(context.Background(), id)
	if err != nil || c == nil {
		t.Fatalf("load community %s: %v", id, err)
	}
	return c
}
