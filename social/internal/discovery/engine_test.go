package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/internal/friendship"
	"github.com/abhishek622/filmsocial/social/internal/repository/memory"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

const (
	comedy = model.GenreID(1)
	drama  = model.GenreID(2)
)

func newEngine(t *testing.T) (*Engine, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	return New(repo, repo, repo), repo
}

func like(t *testing.T, repo *memory.Repository, userID model.UserID, films ...model.FilmID) {
	t.Helper()
	for _, f := range films {
		require.NoError(t, repo.AddLike(context.Background(), userID, f))
	}
}

func request(t *testing.T, repo *memory.Repository, from, to model.UserID) error {
	t.Helper()
	return repo.UpdateFriendship(context.Background(), from, to, func(cur *model.Friendship) (*model.Friendship, error) {
		return friendship.Request(cur, from, to)
	})
}

func ids(films []model.Film) []model.FilmID {
	res := make([]model.FilmID, 0, len(films))
	for _, f := range films {
		res = append(res, f.ID)
	}
	return res
}

func TestPopularFilmsFiltersBeforeRanking(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t)
	require.NoError(t, repo.PutFilm(ctx, model.Film{ID: 1, Name: "F1", ReleaseYear: 2000, Genres: []model.GenreID{comedy}}))
	require.NoError(t, repo.PutFilm(ctx, model.Film{ID: 2, Name: "F2", ReleaseYear: 2000, Genres: []model.GenreID{drama}}))
	require.NoError(t, repo.PutFilm(ctx, model.Film{ID: 3, Name: "F3", ReleaseYear: 2010, Genres: []model.GenreID{comedy}}))
	for u := model.UserID(1); u <= 5; u++ {
		like(t, repo, u, 2)
	}
	for u := model.UserID(1); u <= 3; u++ {
		like(t, repo, u, 1)
	}
	like(t, repo, 1, 3)

	genre := comedy
	got, err := e.PopularFilms(ctx, 2, model.FilmFilter{GenreID: &genre})
	require.NoError(t, err)
	assert.Equal(t, []model.FilmID{1, 3}, ids(got))

	got, err = e.PopularFilms(ctx, 10, model.FilmFilter{})
	require.NoError(t, err)
	assert.Equal(t, []model.FilmID{2, 1, 3}, ids(got))

	year := 2010
	got, err = e.PopularFilms(ctx, 10, model.FilmFilter{GenreID: &genre, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, []model.FilmID{3}, ids(got))
}

func TestPopularFilmsTieBreakAndUnliked(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t)
	for id := model.FilmID(1); id <= 4; id++ {
		require.NoError(t, repo.PutFilm(ctx, model.Film{ID: id}))
	}
	like(t, repo, 1, 4, 2)

	got, err := e.PopularFilms(ctx, 10, model.FilmFilter{})
	require.NoError(t, err)
	assert.Equal(t, []model.FilmID{2, 4, 1, 3}, ids(got))

	again, err := e.PopularFilms(ctx, 10, model.FilmFilter{})
	require.NoError(t, err)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("PopularFilms is not deterministic (-first +second):\n%s", diff)
	}

	got, err = e.PopularFilms(ctx, 0, model.FilmFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCommonFilms(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t)
	for id := model.FilmID(1); id <= 4; id++ {
		require.NoError(t, repo.PutFilm(ctx, model.Film{ID: id}))
	}
	like(t, repo, 1, 4, 1, 2)
	like(t, repo, 2, 2, 4, 3)

	got, err := e.CommonFilms(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.FilmID{2, 4}, ids(got))

	got, err = e.CommonFilms(ctx, 1, 9)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name  string
		likes map[model.UserID][]model.FilmID
		user  model.UserID
		want  []model.FilmID
	}{
		{
			name: "neighbour with most shared likes has nothing new",
			likes: map[model.UserID][]model.FilmID{
				1: {1, 2},
				2: {1, 2},
				3: {1},
			},
			user: 1,
			want: []model.FilmID{},
		},
		{
			name: "tie goes to smallest neighbour id",
			likes: map[model.UserID][]model.FilmID{
				1: {1},
				2: {1, 2},
				3: {1, 3},
			},
			user: 1,
			want: []model.FilmID{2},
		},
		{
			name: "shared count beats id",
			likes: map[model.UserID][]model.FilmID{
				1: {1, 2},
				2: {1, 5},
				3: {1, 2, 3, 4},
			},
			user: 1,
			want: []model.FilmID{3, 4},
		},
		{
			name: "candidates ranked by global likes",
			likes: map[model.UserID][]model.FilmID{
				1: {1},
				2: {1, 3, 4, 5},
				3: {5},
				4: {5, 4},
			},
			user: 1,
			want: []model.FilmID{5, 4, 3},
		},
		{
			name: "no shared likes",
			likes: map[model.UserID][]model.FilmID{
				1: {1},
				2: {2},
			},
			user: 1,
			want: []model.FilmID{},
		},
		{
			name:  "no likes at all",
			likes: map[model.UserID][]model.FilmID{},
			user:  1,
			want:  []model.FilmID{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e, repo := newEngine(t)
			for id := model.FilmID(1); id <= 5; id++ {
				require.NoError(t, repo.PutFilm(ctx, model.Film{ID: id}))
			}
			for u, films := range tt.likes {
				like(t, repo, u, films...)
			}
			got, err := e.Recommend(ctx, tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestNeighbourExcludesSelf(t *testing.T) {
	e, repo := newEngine(t)
	like(t, repo, 1, 1, 2, 3)

	_, ok, err := e.Neighbour(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommonFriends(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t)
	require.NoError(t, request(t, repo, 1, 2))
	require.NoError(t, request(t, repo, 2, 1))
	require.NoError(t, request(t, repo, 1, 3))
	require.NoError(t, request(t, repo, 3, 1))

	friends, err := e.FriendsOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.UserID{2, 3}, friends)
	friends, err = e.FriendsOf(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.UserID{1}, friends)

	common, err := e.CommonFriends(ctx, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, common)

	common, err = e.CommonFriends(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []model.UserID{1}, common)
}

func TestCommonFriendsSeesOutgoingRequests(t *testing.T) {
	ctx := context.Background()
	e, repo := newEngine(t)
	require.NoError(t, request(t, repo, 1, 4))
	require.NoError(t, request(t, repo, 2, 4))
	require.NoError(t, request(t, repo, 4, 3))

	common, err := e.CommonFriends(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.UserID{4}, common)

	common, err = e.CommonFriends(ctx, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, common)
}

func TestSelfRequestCreatesNoEdge(t *testing.T) {
	e, repo := newEngine(t)
	assert.ErrorIs(t, request(t, repo, 5, 5), friendship.ErrSelfFriend)

	friends, err := e.FriendsOf(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

type failingLikes struct{ likeGraph }

func (failingLikes) LikeCounts(context.Context) (map[model.FilmID]int, error) {
	return nil, errors.New("storage down")
}

func TestPopularFilmsWrapsStorageErrors(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.PutFilm(ctx, model.Film{ID: 1}))
	e := New(failingLikes{repo}, repo, repo)

	_, err := e.PopularFilms(ctx, 1, model.FilmFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "like counts")
}
