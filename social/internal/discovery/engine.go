// Package discovery answers the read queries over the like and friend
// graphs: popularity, common interests and single-neighbour
// recommendations.
package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/abhishek622/filmsocial/social/internal/friendship"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

type likeGraph interface {
	FilmsLikedBy(ctx context.Context, userID model.UserID) ([]model.FilmID, error)
	UsersWhoLiked(ctx context.Context, filmID model.FilmID) ([]model.UserID, error)
	LikeCounts(ctx context.Context) (map[model.FilmID]int, error)
}

type friendGraph interface {
	ListFriendships(ctx context.Context, userID model.UserID) ([]model.Friendship, error)
}

type filmCatalog interface {
	ListFilms(ctx context.Context, filter model.FilmFilter) ([]model.Film, error)
}

// Engine runs discovery queries. It holds no state of its own.
type Engine struct {
	likes   likeGraph
	friends friendGraph
	films   filmCatalog
}

// New creates a discovery engine.
func New(likes likeGraph, friends friendGraph, films filmCatalog) *Engine {
	return &Engine{likes, friends, films}
}

// PopularFilms returns up to limit catalogue films matching filter, most
// liked first. Films nobody likes are ranked last by id.
func (e *Engine) PopularFilms(ctx context.Context, limit int, filter model.FilmFilter) ([]model.Film, error) {
	if limit <= 0 {
		return []model.Film{}, nil
	}
	films, err := e.films.ListFilms(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	if err := e.rank(ctx, films); err != nil {
		return nil, err
	}
	if len(films) > limit {
		films = films[:limit]
	}
	return films, nil
}

// CommonFilms returns the films both users like, ordered by id.
func (e *Engine) CommonFilms(ctx context.Context, a, b model.UserID) ([]model.Film, error) {
	likedByA, err := e.likes.FilmsLikedBy(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("films liked by %d: %w", a, err)
	}
	likedByB, err := e.likes.FilmsLikedBy(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("films liked by %d: %w", b, err)
	}
	inB := toSet(likedByB)
	common := make([]model.FilmID, 0, len(likedByA))
	for _, id := range likedByA {
		if _, ok := inB[id]; ok {
			common = append(common, id)
		}
	}
	if len(common) == 0 {
		return []model.Film{}, nil
	}
	films, err := e.films.ListFilms(ctx, model.FilmFilter{IDs: common})
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	sort.Slice(films, func(i, j int) bool { return films[i].ID < films[j].ID })
	return films, nil
}

// Recommend returns the films liked by the user's closest neighbour and not
// yet liked by the user, ranked like PopularFilms. The neighbour is the
// user sharing the most likes, ties going to the smallest id. A user with no
// neighbour gets an empty list.
func (e *Engine) Recommend(ctx context.Context, userID model.UserID) ([]model.Film, error) {
	neighbour, ok, err := e.Neighbour(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Film{}, nil
	}

	mine, err := e.likes.FilmsLikedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("films liked by %d: %w", userID, err)
	}
	theirs, err := e.likes.FilmsLikedBy(ctx, neighbour)
	if err != nil {
		return nil, fmt.Errorf("films liked by %d: %w", neighbour, err)
	}
	liked := toSet(mine)
	candidates := make([]model.FilmID, 0, len(theirs))
	for _, id := range theirs {
		if _, ok := liked[id]; !ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return []model.Film{}, nil
	}

	films, err := e.films.ListFilms(ctx, model.FilmFilter{IDs: candidates})
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	if err := e.rank(ctx, films); err != nil {
		return nil, err
	}
	return films, nil
}

// Neighbour returns the user sharing the most liked films with userID.
// ok is false when nobody shares a like.
func (e *Engine) Neighbour(ctx context.Context, userID model.UserID) (model.UserID, bool, error) {
	mine, err := e.likes.FilmsLikedBy(ctx, userID)
	if err != nil {
		return 0, false, fmt.Errorf("films liked by %d: %w", userID, err)
	}
	shared := map[model.UserID]int{}
	for _, filmID := range mine {
		users, err := e.likes.UsersWhoLiked(ctx, filmID)
		if err != nil {
			return 0, false, fmt.Errorf("users who liked %d: %w", filmID, err)
		}
		for _, u := range users {
			if u != userID {
				shared[u]++
			}
		}
	}

	var (
		best      model.UserID
		bestCount int
	)
	for u, n := range shared {
		if n > bestCount || (n == bestCount && u < best) {
			best, bestCount = u, n
		}
	}
	return best, bestCount > 0, nil
}

// FriendsOf returns the user's friend list, ascending.
func (e *Engine) FriendsOf(ctx context.Context, userID model.UserID) ([]model.UserID, error) {
	edges, err := e.friends.ListFriendships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("friendships of %d: %w", userID, err)
	}
	return friendship.FriendsOf(edges, userID), nil
}

// CommonFriends returns the ids present in both users' friend lists,
// ascending.
func (e *Engine) CommonFriends(ctx context.Context, a, b model.UserID) ([]model.UserID, error) {
	friendsOfA, err := e.FriendsOf(ctx, a)
	if err != nil {
		return nil, err
	}
	friendsOfB, err := e.FriendsOf(ctx, b)
	if err != nil {
		return nil, err
	}
	return friendship.Intersect(friendsOfA, friendsOfB), nil
}

// rank orders films by like count descending, then id ascending.
func (e *Engine) rank(ctx context.Context, films []model.Film) error {
	counts, err := e.likes.LikeCounts(ctx)
	if err != nil {
		return fmt.Errorf("like counts: %w", err)
	}
	sort.Slice(films, func(i, j int) bool {
		ci, cj := counts[films[i].ID], counts[films[j].ID]
		if ci != cj {
			return ci > cj
		}
		return films[i].ID < films[j].ID
	})
	return nil
}

func toSet(ids []model.FilmID) map[model.FilmID]struct{} {
	res := make(map[model.FilmID]struct{}, len(ids))
	for _, id := range ids {
		res[id] = struct{}{}
	}
	return res
}
