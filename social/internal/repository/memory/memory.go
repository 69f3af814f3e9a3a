package memory

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

const tracerID = "social-repository-memory"

// Repository defines an in-memory social graph repository.
type Repository struct {
	sync.RWMutex
	users       map[model.UserID]struct{}
	films       map[model.FilmID]model.Film
	likesByUser map[model.UserID]map[model.FilmID]struct{}
	likesByFilm map[model.FilmID]map[model.UserID]struct{}
	friendships map[model.Pair]model.Friendship
	events      []model.Event
	lastEventID int64
}

// New creates a new memory repository.
func New() *Repository {
	return &Repository{
		users:       map[model.UserID]struct{}{},
		films:       map[model.FilmID]model.Film{},
		likesByUser: map[model.UserID]map[model.FilmID]struct{}{},
		likesByFilm: map[model.FilmID]map[model.UserID]struct{}{},
		friendships: map[model.Pair]model.Friendship{},
	}
}

// PutUser registers a user id.
func (r *Repository) PutUser(ctx context.Context, id model.UserID) error {
	r.Lock()
	defer r.Unlock()
	r.users[id] = struct{}{}
	return nil
}

// UserExists reports whether the user id is registered.
func (r *Repository) UserExists(ctx context.Context, id model.UserID) (bool, error) {
	r.RLock()
	defer r.RUnlock()
	_, ok := r.users[id]
	return ok, nil
}

// PutFilm adds or replaces a film in the catalogue.
func (r *Repository) PutFilm(ctx context.Context, film model.Film) error {
	r.Lock()
	defer r.Unlock()
	r.films[film.ID] = film
	return nil
}

// FilmExists reports whether the film is in the catalogue.
func (r *Repository) FilmExists(ctx context.Context, id model.FilmID) (bool, error) {
	r.RLock()
	defer r.RUnlock()
	_, ok := r.films[id]
	return ok, nil
}

// ListFilms returns catalogue films matching the filter, ordered by id.
func (r *Repository) ListFilms(ctx context.Context, filter model.FilmFilter) ([]model.Film, error) {
	r.RLock()
	defer r.RUnlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/ListFilms")
	defer span.End()

	res := []model.Film{}
	if filter.IDs != nil {
		for _, id := range filter.IDs {
			if f, ok := r.films[id]; ok && filter.Matches(f) {
				res = append(res, f)
			}
		}
	} else {
		for _, f := range r.films {
			if filter.Matches(f) {
				res = append(res, f)
			}
		}
	}
	repository.SortFilms(res)
	return res, nil
}

// AddLike stores a like. Adding an existing like is a no-op.
func (r *Repository) AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddLike")
	defer span.End()

	if _, ok := r.likesByUser[userID]; !ok {
		r.likesByUser[userID] = map[model.FilmID]struct{}{}
	}
	if _, ok := r.likesByFilm[filmID]; !ok {
		r.likesByFilm[filmID] = map[model.UserID]struct{}{}
	}
	r.likesByUser[userID][filmID] = struct{}{}
	r.likesByFilm[filmID][userID] = struct{}{}
	return nil
}

// RemoveLike deletes a like if present.
func (r *Repository) RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/RemoveLike")
	defer span.End()

	delete(r.likesByUser[userID], filmID)
	if len(r.likesByUser[userID]) == 0 {
		delete(r.likesByUser, userID)
	}
	delete(r.likesByFilm[filmID], userID)
	if len(r.likesByFilm[filmID]) == 0 {
		delete(r.likesByFilm, filmID)
	}
	return nil
}

// FilmsLikedBy returns the films the user likes.
func (r *Repository) FilmsLikedBy(ctx context.Context, userID model.UserID) ([]model.FilmID, error) {
	r.RLock()
	defer r.RUnlock()

	res := make([]model.FilmID, 0, len(r.likesByUser[userID]))
	for id := range r.likesByUser[userID] {
		res = append(res, id)
	}
	return res, nil
}

// UsersWhoLiked returns the users who like the film.
func (r *Repository) UsersWhoLiked(ctx context.Context, filmID model.FilmID) ([]model.UserID, error) {
	r.RLock()
	defer r.RUnlock()

	res := make([]model.UserID, 0, len(r.likesByFilm[filmID]))
	for id := range r.likesByFilm[filmID] {
		res = append(res, id)
	}
	return res, nil
}

// LikeCounts returns the number of likes of every liked film.
func (r *Repository) LikeCounts(ctx context.Context) (map[model.FilmID]int, error) {
	r.RLock()
	defer r.RUnlock()

	res := make(map[model.FilmID]int, len(r.likesByFilm))
	for id, users := range r.likesByFilm {
		res[id] = len(users)
	}
	return res, nil
}

// UpdateFriendship applies fn to the edge between a and b. The repository
// lock is held for the whole read-modify-write.
func (r *Repository) UpdateFriendship(ctx context.Context, a, b model.UserID, fn repository.FriendshipUpdate) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/UpdateFriendship")
	defer span.End()

	key := model.NewPair(a, b)
	var current *model.Friendship
	if f, ok := r.friendships[key]; ok {
		current = &f
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		delete(r.friendships, key)
		return nil
	}
	r.friendships[key] = *next
	return nil
}

// ListFriendships returns every edge touching the user.
func (r *Repository) ListFriendships(ctx context.Context, userID model.UserID) ([]model.Friendship, error) {
	r.RLock()
	defer r.RUnlock()

	res := []model.Friendship{}
	for key, f := range r.friendships {
		if key.Low == userID || key.High == userID {
			res = append(res, f)
		}
	}
	return res, nil
}

// Append adds an event to the feed and assigns its id.
func (r *Repository) Append(ctx context.Context, event *model.Event) error {
	r.Lock()
	defer r.Unlock()

	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Append")
	defer span.End()

	r.lastEventID++
	event.ID = r.lastEventID
	r.events = append(r.events, *event)
	return nil
}

// ListByUser returns the user's events, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error) {
	r.RLock()
	defer r.RUnlock()

	res := []model.Event{}
	for _, e := range r.events {
		if e.UserID == userID {
			res = append(res, e)
		}
	}
	repository.SortEvents(res)
	return res, nil
}
