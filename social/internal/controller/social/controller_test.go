package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	gen "github.com/abhishek622/filmsocial/gen/mock/social/repository"
	"github.com/abhishek622/filmsocial/social/internal/discovery"
	"github.com/abhishek622/filmsocial/social/internal/friendship"
	"github.com/abhishek622/filmsocial/social/internal/repository/memory"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type mocks struct {
	graph    *gen.MockgraphRepository
	feed     *gen.MockfeedRepository
	identity *gen.MockidentityStore
	scope    tally.TestScope
}

func newMockController(t *testing.T) (*Controller, mocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mocks{
		graph:    gen.NewMockgraphRepository(ctrl),
		feed:     gen.NewMockfeedRepository(ctrl),
		identity: gen.NewMockidentityStore(ctrl),
		scope:    tally.NewTestScope("", nil),
	}
	engine := discovery.New(memory.New(), memory.New(), memory.New())
	c := New(m.graph, m.feed, m.identity, engine, zap.NewNop(), m.scope, WithClock(func() time.Time { return fixedNow }))
	return c, m
}

func counter(scope tally.TestScope, name string, tags map[string]string) int64 {
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == name && sameTags(c.Tags(), tags) {
			return c.Value()
		}
	}
	return 0
}

func sameTags(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func applyTo(current *model.Friendship) func(context.Context, model.UserID, model.UserID, func(*model.Friendship) (*model.Friendship, error)) error {
	return func(_ context.Context, _, _ model.UserID, fn func(*model.Friendship) (*model.Friendship, error)) error {
		_, err := fn(current)
		return err
	}
}

func TestAddLike(t *testing.T) {
	c, m := newMockController(t)
	ctx := context.Background()
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(1)).Return(true, nil)
	m.identity.EXPECT().FilmExists(gomock.Any(), model.FilmID(10)).Return(true, nil)
	m.graph.EXPECT().AddLike(gomock.Any(), model.UserID(1), model.FilmID(10)).Return(nil)
	m.feed.EXPECT().Append(gomock.Any(), &model.Event{
		UserID:    1,
		Timestamp: fixedNow.UnixMilli(),
		EventType: model.EventTypeLike,
		Operation: model.OperationAdd,
		EntityID:  10,
	}).Return(nil)

	require.NoError(t, c.AddLike(ctx, 1, 10))
	assert.Equal(t, int64(1), counter(m.scope, "requests", map[string]string{"operation": "add_like", "result": "ok"}))
}

func TestAddLikeUnknownFilm(t *testing.T) {
	c, m := newMockController(t)
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(1)).Return(true, nil)
	m.identity.EXPECT().FilmExists(gomock.Any(), model.FilmID(10)).Return(false, nil)

	err := c.AddLike(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), counter(m.scope, "requests", map[string]string{"operation": "add_like", "result": "not_found"}))
}

func TestAddLikeKeepsMutationWhenFeedFails(t *testing.T) {
	c, m := newMockController(t)
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(1)).Return(true, nil)
	m.identity.EXPECT().FilmExists(gomock.Any(), model.FilmID(10)).Return(true, nil)
	m.graph.EXPECT().AddLike(gomock.Any(), model.UserID(1), model.FilmID(10)).Return(nil)
	m.feed.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	require.NoError(t, c.AddLike(context.Background(), 1, 10))
	assert.Equal(t, int64(1), counter(m.scope, "feed_errors", map[string]string{}))
}

func TestRemoveLikeStorageError(t *testing.T) {
	c, m := newMockController(t)
	boom := errors.New("boom")
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(1)).Return(true, nil)
	m.identity.EXPECT().FilmExists(gomock.Any(), model.FilmID(10)).Return(true, nil)
	m.graph.EXPECT().RemoveLike(gomock.Any(), model.UserID(1), model.FilmID(10)).Return(boom)

	err := c.RemoveLike(context.Background(), 1, 10)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), counter(m.scope, "requests", map[string]string{"operation": "remove_like", "result": "error"}))
}

func TestRequestFriend(t *testing.T) {
	tests := []struct {
		name      string
		current   *model.Friendship
		want      *model.Friendship
		wantErr   error
		wantEvent bool
	}{
		{
			name:      "new request",
			want:      &model.Friendship{Requester: 1, Target: 2, State: model.FriendStatePending},
			wantEvent: true,
		},
		{
			name:      "reply confirms",
			current:   &model.Friendship{Requester: 2, Target: 1, State: model.FriendStatePending},
			want:      &model.Friendship{Requester: 1, Target: 2, State: model.FriendStateConfirmed},
			wantEvent: true,
		},
		{
			name:    "duplicate",
			current: &model.Friendship{Requester: 1, Target: 2, State: model.FriendStatePending},
			wantErr: friendship.ErrDuplicateRequest,
		},
		{
			name:    "already friends",
			current: &model.Friendship{Requester: 1, Target: 2, State: model.FriendStateConfirmed},
			wantErr: friendship.ErrAlreadyFriends,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m := newMockController(t)
			m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(1)).Return(true, nil)
			m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(2)).Return(true, nil)
			m.graph.EXPECT().UpdateFriendship(gomock.Any(), model.UserID(1), model.UserID(2), gomock.Any()).DoAndReturn(applyTo(tt.current))
			if tt.wantEvent {
				m.feed.EXPECT().Append(gomock.Any(), &model.Event{
					UserID:    1,
					Timestamp: fixedNow.UnixMilli(),
					EventType: model.EventTypeFriend,
					Operation: model.OperationAdd,
					EntityID:  2,
				}).Return(nil)
			}

			got, err := c.RequestFriend(context.Background(), 1, 2)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Equal(t, int64(1), counter(m.scope, "requests", map[string]string{"operation": "request_friend", "result": "rejected"}))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestFriendSelf(t *testing.T) {
	c, m := newMockController(t)

	_, err := c.RequestFriend(context.Background(), 5, 5)
	assert.ErrorIs(t, err, friendship.ErrSelfFriend)
	assert.Equal(t, int64(1), counter(m.scope, "requests", map[string]string{"operation": "request_friend", "result": "rejected"}))
}

func TestRemoveFriendWithoutEdge(t *testing.T) {
	c, m := newMockController(t)
	m.identity.EXPECT().UserExists(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
	m.graph.EXPECT().UpdateFriendship(gomock.Any(), model.UserID(1), model.UserID(2), gomock.Any()).DoAndReturn(applyTo(nil))

	err := c.RemoveFriend(context.Background(), 1, 2)
	assert.ErrorIs(t, err, friendship.ErrNotFriends)
}

func TestRequestFriendUnknownUser(t *testing.T) {
	c, m := newMockController(t)
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(1)).Return(true, nil)
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(2)).Return(false, nil)

	_, err := c.RequestFriend(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordReview(t *testing.T) {
	c, m := newMockController(t)
	m.identity.EXPECT().UserExists(gomock.Any(), model.UserID(3)).Return(true, nil)
	m.feed.EXPECT().Append(gomock.Any(), &model.Event{
		UserID:    3,
		Timestamp: fixedNow.UnixMilli(),
		EventType: model.EventTypeReview,
		Operation: model.OperationUpdate,
		EntityID:  77,
	}).Return(nil)

	require.NoError(t, c.RecordReview(context.Background(), 3, model.OperationUpdate, 77))
	assert.ErrorIs(t, c.RecordReview(context.Background(), 3, model.Operation("PATCH"), 77), ErrInvalidOperation)
}

func TestApplyUnknownKind(t *testing.T) {
	c, _ := newMockController(t)
	err := c.Apply(context.Background(), model.GraphEvent{UserID: 1, TargetID: 2, Kind: "poke"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestStartIngestion(t *testing.T) {
	ctx := context.Background()
	c, repo, scope := newMemoryController(t)
	require.NoError(t, repo.PutUser(ctx, 1))
	require.NoError(t, repo.PutUser(ctx, 2))
	require.NoError(t, repo.PutFilm(ctx, model.Film{ID: 10}))

	ch := make(chan model.GraphEvent, 4)
	ch <- model.GraphEvent{UserID: 1, TargetID: 10, Kind: model.GraphEventKindLike, ProviderID: "test"}
	ch <- model.GraphEvent{UserID: 1, TargetID: 11, Kind: model.GraphEventKindLike, ProviderID: "test"}
	ch <- model.GraphEvent{UserID: 1, TargetID: 2, Kind: model.GraphEventKindFriendRequest, ProviderID: "test"}
	ch <- model.GraphEvent{UserID: 2, TargetID: 1, Kind: model.GraphEventKindFriendRequest, ProviderID: "test"}
	close(ch)

	ingester := gen.NewMockgraphIngester(gomock.NewController(t))
	ingester.EXPECT().Ingest(gomock.Any()).Return(ch, nil)

	require.NoError(t, c.StartIngestion(ctx, ingester))
	assert.Equal(t, int64(3), counter(scope, "ingest_applied", map[string]string{}))
	assert.Equal(t, int64(1), counter(scope, "ingest_rejected", map[string]string{}))

	friends, err := c.Friends(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.UserID{1}, friends)
	films, err := repo.FilmsLikedBy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.FilmID{10}, films)
}

func TestStartIngestionError(t *testing.T) {
	c, _ := newMockController(t)
	ingester := gen.NewMockgraphIngester(gomock.NewController(t))
	boom := errors.New("no broker")
	ingester.EXPECT().Ingest(gomock.Any()).Return(nil, boom)

	assert.ErrorIs(t, c.StartIngestion(context.Background(), ingester), boom)
}
