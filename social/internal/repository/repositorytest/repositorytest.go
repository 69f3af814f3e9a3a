// Package repositorytest holds the behaviour every social repository must
// share, run by each store's own tests.
package repositorytest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/internal/friendship"
	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

// GraphStore is the like graph, friend graph and catalogue surface of a store.
type GraphStore interface {
	PutUser(ctx context.Context, id model.UserID) error
	UserExists(ctx context.Context, id model.UserID) (bool, error)
	PutFilm(ctx context.Context, film model.Film) error
	FilmExists(ctx context.Context, id model.FilmID) (bool, error)
	ListFilms(ctx context.Context, filter model.FilmFilter) ([]model.Film, error)
	AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error
	RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error
	FilmsLikedBy(ctx context.Context, userID model.UserID) ([]model.FilmID, error)
	UsersWhoLiked(ctx context.Context, filmID model.FilmID) ([]model.UserID, error)
	LikeCounts(ctx context.Context) (map[model.FilmID]int, error)
	UpdateFriendship(ctx context.Context, a, b model.UserID, fn repository.FriendshipUpdate) error
	ListFriendships(ctx context.Context, userID model.UserID) ([]model.Friendship, error)
}

// EventLog is the activity feed surface of a store.
type EventLog interface {
	Append(ctx context.Context, event *model.Event) error
	ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error)
}

// RunGraphStore runs the graph store behaviour against stores built by newStore.
// newStore must return an empty store.
func RunGraphStore(t *testing.T, newStore func(t *testing.T) GraphStore) {
	t.Run("likes are idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.AddLike(ctx, 1, 10))
		require.NoError(t, s.AddLike(ctx, 1, 10))
		require.NoError(t, s.AddLike(ctx, 2, 10))
		require.NoError(t, s.AddLike(ctx, 1, 11))

		films, err := s.FilmsLikedBy(ctx, 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.FilmID{10, 11}, films)

		users, err := s.UsersWhoLiked(ctx, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.UserID{1, 2}, users)

		counts, err := s.LikeCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[model.FilmID]int{10: 2, 11: 1}, counts)

		require.NoError(t, s.RemoveLike(ctx, 1, 10))
		require.NoError(t, s.RemoveLike(ctx, 1, 10))
		require.NoError(t, s.RemoveLike(ctx, 9, 99))

		films, err = s.FilmsLikedBy(ctx, 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.FilmID{11}, films)
	})

	t.Run("empty like sets", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		films, err := s.FilmsLikedBy(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, films)
		users, err := s.UsersWhoLiked(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("catalogue filters", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		comedy, drama := model.GenreID(1), model.GenreID(2)
		require.NoError(t, s.PutFilm(ctx, model.Film{ID: 1, Name: "A", ReleaseYear: 1999, Genres: []model.GenreID{comedy}}))
		require.NoError(t, s.PutFilm(ctx, model.Film{ID: 2, Name: "B", ReleaseYear: 2001, Genres: []model.GenreID{drama}, Directors: []model.DirectorID{7}}))
		require.NoError(t, s.PutFilm(ctx, model.Film{ID: 3, Name: "C", ReleaseYear: 2001, Genres: []model.GenreID{comedy, drama}}))

		ok, err := s.FilmExists(ctx, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.FilmExists(ctx, 4)
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.ListFilms(ctx, model.FilmFilter{})
		require.NoError(t, err)
		assert.Equal(t, []model.FilmID{1, 2, 3}, filmIDs(all))
		assert.Equal(t, []model.DirectorID{7}, all[1].Directors)

		got, err := s.ListFilms(ctx, model.FilmFilter{GenreID: &comedy})
		require.NoError(t, err)
		assert.Equal(t, []model.FilmID{1, 3}, filmIDs(got))

		year := 2001
		got, err = s.ListFilms(ctx, model.FilmFilter{Year: &year})
		require.NoError(t, err)
		assert.Equal(t, []model.FilmID{2, 3}, filmIDs(got))

		got, err = s.ListFilms(ctx, model.FilmFilter{Year: &year, GenreID: &comedy})
		require.NoError(t, err)
		assert.Equal(t, []model.FilmID{3}, filmIDs(got))

		got, err = s.ListFilms(ctx, model.FilmFilter{IDs: []model.FilmID{3, 1, 42}})
		require.NoError(t, err)
		assert.Equal(t, []model.FilmID{1, 3}, filmIDs(got))
	})

	t.Run("users", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.PutUser(ctx, 5))
		ok, err := s.UserExists(ctx, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.UserExists(ctx, 6)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("friendship lifecycle", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		request := func(from, to model.UserID) error {
			return s.UpdateFriendship(ctx, from, to, func(cur *model.Friendship) (*model.Friendship, error) {
				return friendship.Request(cur, from, to)
			})
		}

		require.NoError(t, request(1, 2))
		edges, err := s.ListFriendships(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []model.Friendship{{Requester: 1, Target: 2, State: model.FriendStatePending}}, edges)

		assert.ErrorIs(t, request(1, 2), friendship.ErrDuplicateRequest)
		require.NoError(t, request(2, 1))
		assert.ErrorIs(t, request(1, 2), friendship.ErrAlreadyFriends)

		edges, err = s.ListFriendships(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []model.Friendship{{Requester: 1, Target: 2, State: model.FriendStateConfirmed}}, edges)

		require.NoError(t, s.UpdateFriendship(ctx, 2, 1, func(cur *model.Friendship) (*model.Friendship, error) {
			return friendship.Remove(cur, 2, 1)
		}))
		edges, err = s.ListFriendships(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		boom := errors.New("boom")
		err := s.UpdateFriendship(ctx, 3, 4, func(cur *model.Friendship) (*model.Friendship, error) {
			return &model.Friendship{Requester: 3, Target: 4, State: model.FriendStatePending}, boom
		})
		assert.ErrorIs(t, err, boom)
		edges, err := s.ListFriendships(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("concurrent opposite requests keep one edge", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			failures  []error
		)
		for i := 0; i < workers; i++ {
			from, to := model.UserID(1), model.UserID(2)
			if i%2 == 1 {
				from, to = to, from
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.UpdateFriendship(ctx, from, to, func(cur *model.Friendship) (*model.Friendship, error) {
					return friendship.Request(cur, from, to)
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
					return
				}
				failures = append(failures, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 2, successes)
		for _, err := range failures {
			if !errors.Is(err, friendship.ErrDuplicateRequest) && !errors.Is(err, friendship.ErrAlreadyFriends) {
				t.Errorf("unexpected error: %v", err)
			}
		}
		edges, err := s.ListFriendships(ctx, 1)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.True(t, edges[0].Confirmed())
	})
}

// RunEventLog runs the activity feed behaviour against logs built by newLog.
func RunEventLog(t *testing.T, newLog func(t *testing.T) EventLog) {
	t.Run("newest first with insertion tie-break", func(t *testing.T) {
		ctx := context.Background()
		l := newLog(t)
		events := []*model.Event{
			{UserID: 1, Timestamp: 100, EventType: model.EventTypeLike, Operation: model.OperationAdd, EntityID: 10},
			{UserID: 1, Timestamp: 300, EventType: model.EventTypeFriend, Operation: model.OperationAdd, EntityID: 2},
			{UserID: 2, Timestamp: 200, EventType: model.EventTypeLike, Operation: model.OperationAdd, EntityID: 10},
			{UserID: 1, Timestamp: 300, EventType: model.EventTypeReview, Operation: model.OperationUpdate, EntityID: 5},
		}
		var lastID int64
		for _, e := range events {
			require.NoError(t, l.Append(ctx, e))
			assert.Greater(t, e.ID, lastID)
			lastID = e.ID
		}

		got, err := l.ListByUser(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, model.EventTypeReview, got[0].EventType)
		assert.Equal(t, model.EventTypeFriend, got[1].EventType)
		assert.Equal(t, model.EventTypeLike, got[2].EventType)
		assert.Equal(t, *events[3], got[0])
	})

	t.Run("unknown user has no events", func(t *testing.T) {
		got, err := newLog(t).ListByUser(context.Background(), 42)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func filmIDs(films []model.Film) []model.FilmID {
	res := make([]model.FilmID, 0, len(films))
	for _, f := range films {
		res = append(res, f.ID)
	}
	return res
}
