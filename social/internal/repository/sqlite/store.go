// Package sqlite provides a SQLite-backed social graph store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/internal/repository/sqlite/migrations"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

// Store persists likes, friendships, the catalogue and the activity feed in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutUser registers a user id.
func (s *Store) PutUser(ctx context.Context, id model.UserID) error {
	if _, err := s.sqlDB.ExecContext(ctx, `INSERT OR IGNORE INTO users (user_id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("put user %d: %w", id, err)
	}
	return nil
}

// UserExists reports whether the user id is registered.
func (s *Store) UserExists(ctx context.Context, id model.UserID) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE user_id = ?`, id)
}

// FilmExists reports whether the film is in the catalogue.
func (s *Store) FilmExists(ctx context.Context, id model.FilmID) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM films WHERE film_id = ?`, id)
}

func (s *Store) exists(ctx context.Context, query string, id any) (bool, error) {
	var found int
	err := s.sqlDB.QueryRowContext(ctx, query, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PutFilm adds or replaces a film together with its genres and directors.
func (s *Store) PutFilm(ctx context.Context, film model.Film) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put film: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO films (film_id, name, release_year) VALUES (?, ?, ?)
		 ON CONFLICT (film_id) DO UPDATE SET name = excluded.name, release_year = excluded.release_year`,
		film.ID, film.Name, film.ReleaseYear,
	); err != nil {
		return fmt.Errorf("put film %d: %w", film.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM film_genres WHERE film_id = ?`, film.ID); err != nil {
		return fmt.Errorf("clear film genres: %w", err)
	}
	for _, g := range film.Genres {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO film_genres (film_id, genre_id) VALUES (?, ?)`, film.ID, g); err != nil {
			return fmt.Errorf("put film genre: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM film_directors WHERE film_id = ?`, film.ID); err != nil {
		return fmt.Errorf("clear film directors: %w", err)
	}
	for _, d := range film.Directors {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO film_directors (film_id, director_id) VALUES (?, ?)`, film.ID, d); err != nil {
			return fmt.Errorf("put film director: %w", err)
		}
	}
	return tx.Commit()
}

// ListFilms returns catalogue films matching the filter, ordered by id.
func (s *Store) ListFilms(ctx context.Context, filter model.FilmFilter) ([]model.Film, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []model.Film{}, nil
	}
	query := `SELECT film_id, name, release_year FROM films WHERE 1 = 1`
	var args []any
	if filter.Year != nil {
		query += ` AND release_year = ?`
		args = append(args, *filter.Year)
	}
	if filter.GenreID != nil {
		query += ` AND film_id IN (SELECT film_id FROM film_genres WHERE genre_id = ?)`
		args = append(args, *filter.GenreID)
	}
	if filter.IDs != nil {
		query += ` AND film_id IN (` + placeholders(len(filter.IDs)) + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY film_id`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	defer rows.Close()

	films := []model.Film{}
	index := map[model.FilmID]int{}
	for rows.Next() {
		var f model.Film
		if err := rows.Scan(&f.ID, &f.Name, &f.ReleaseYear); err != nil {
			return nil, fmt.Errorf("scan film: %w", err)
		}
		index[f.ID] = len(films)
		films = append(films, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate films: %w", err)
	}
	if len(films) == 0 {
		return films, nil
	}

	genres, err := s.filmRelations(ctx, `SELECT film_id, genre_id FROM film_genres WHERE film_id IN (%s) ORDER BY film_id, genre_id`, films)
	if err != nil {
		return nil, fmt.Errorf("list film genres: %w", err)
	}
	for id, gs := range genres {
		for _, g := range gs {
			films[index[id]].Genres = append(films[index[id]].Genres, model.GenreID(g))
		}
	}
	directors, err := s.filmRelations(ctx, `SELECT film_id, director_id FROM film_directors WHERE film_id IN (%s) ORDER BY film_id, director_id`, films)
	if err != nil {
		return nil, fmt.Errorf("list film directors: %w", err)
	}
	for id, ds := range directors {
		for _, d := range ds {
			films[index[id]].Directors = append(films[index[id]].Directors, model.DirectorID(d))
		}
	}
	return films, nil
}

// filmRelations maps each film id to the related ids selected by query.
func (s *Store) filmRelations(ctx context.Context, query string, films []model.Film) (map[model.FilmID][]int64, error) {
	args := make([]any, 0, len(films))
	for _, f := range films {
		args = append(args, f.ID)
	}
	rows, err := s.sqlDB.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(films))), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[model.FilmID][]int64{}
	for rows.Next() {
		var (
			filmID model.FilmID
			relID  int64
		)
		if err := rows.Scan(&filmID, &relID); err != nil {
			return nil, err
		}
		res[filmID] = append(res[filmID], relID)
	}
	return res, rows.Err()
}

// AddLike stores a like. Adding an existing like is a no-op.
func (s *Store) AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	if _, err := s.sqlDB.ExecContext(ctx, `INSERT OR IGNORE INTO likes (user_id, film_id) VALUES (?, ?)`, userID, filmID); err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

// RemoveLike deletes a like if present.
func (s *Store) RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM likes WHERE user_id = ? AND film_id = ?`, userID, filmID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}

// FilmsLikedBy returns the films the user likes.
func (s *Store) FilmsLikedBy(ctx context.Context, userID model.UserID) ([]model.FilmID, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT film_id FROM likes WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("films liked by %d: %w", userID, err)
	}
	defer rows.Close()

	res := []model.FilmID{}
	for rows.Next() {
		var id model.FilmID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// UsersWhoLiked returns the users who like the film.
func (s *Store) UsersWhoLiked(ctx context.Context, filmID model.FilmID) ([]model.UserID, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT user_id FROM likes WHERE film_id = ?`, filmID)
	if err != nil {
		return nil, fmt.Errorf("users who liked %d: %w", filmID, err)
	}
	defer rows.Close()

	res := []model.UserID{}
	for rows.Next() {
		var id model.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// LikeCounts returns the number of likes of every liked film.
func (s *Store) LikeCounts(ctx context.Context) (map[model.FilmID]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT film_id, COUNT(*) FROM likes GROUP BY film_id`)
	if err != nil {
		return nil, fmt.Errorf("like counts: %w", err)
	}
	defer rows.Close()

	res := map[model.FilmID]int{}
	for rows.Next() {
		var (
			id    model.FilmID
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan like count: %w", err)
		}
		res[id] = count
	}
	return res, rows.Err()
}

// UpdateFriendship applies fn to the edge between a and b inside one
// transaction. The transaction starts by writing the pair's lock row, so
// concurrent updates of the same pair run one after another.
func (s *Store) UpdateFriendship(ctx context.Context, a, b model.UserID, fn repository.FriendshipUpdate) error {
	key := model.NewPair(a, b)
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin friendship update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO friendship_locks (user_low, user_high, version) VALUES (?, ?, 1)
		 ON CONFLICT (user_low, user_high) DO UPDATE SET version = version + 1`,
		key.Low, key.High,
	); err != nil {
		return fmt.Errorf("lock friendship: %w", err)
	}

	var current *model.Friendship
	var (
		requester model.UserID
		confirmed bool
	)
	err = tx.QueryRowContext(ctx,
		`SELECT requester_id, confirmed FROM friendships WHERE user_low = ? AND user_high = ?`,
		key.Low, key.High,
	).Scan(&requester, &confirmed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read friendship: %w", err)
	default:
		f := repository.FriendshipFromPair(key, requester, confirmed)
		current = &f
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM friendships WHERE user_low = ? AND user_high = ?`, key.Low, key.High); err != nil {
			return fmt.Errorf("delete friendship: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx,
		`INSERT INTO friendships (user_low, user_high, requester_id, confirmed) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_low, user_high) DO UPDATE SET requester_id = excluded.requester_id, confirmed = excluded.confirmed`,
		key.Low, key.High, next.Requester, next.Confirmed(),
	); err != nil {
		return fmt.Errorf("write friendship: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit friendship update: %w", err)
	}
	return nil
}

// ListFriendships returns every edge touching the user.
func (s *Store) ListFriendships(ctx context.Context, userID model.UserID) ([]model.Friendship, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_low, user_high, requester_id, confirmed FROM friendships
		 WHERE user_low = ? OR user_high = ? ORDER BY user_low, user_high`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	res := []model.Friendship{}
	for rows.Next() {
		var (
			key       model.Pair
			requester model.UserID
			confirmed bool
		)
		if err := rows.Scan(&key.Low, &key.High, &requester, &confirmed); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		res = append(res, repository.FriendshipFromPair(key, requester, confirmed))
	}
	return res, rows.Err()
}

// Append adds an event to the feed and assigns its id.
func (s *Store) Append(ctx context.Context, event *model.Event) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO user_events (user_id, created_at, event_type, operation, entity_id) VALUES (?, ?, ?, ?, ?)`,
		event.UserID, event.Timestamp, string(event.EventType), string(event.Operation), event.EntityID,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	event.ID = id
	return nil
}

// ListByUser returns the user's events, newest first.
func (s *Store) ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT event_id, user_id, created_at, event_type, operation, entity_id FROM user_events
		 WHERE user_id = ? ORDER BY created_at DESC, event_id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	res := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.EventType, &e.Operation, &e.EntityID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
