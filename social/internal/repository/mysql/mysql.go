package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

const (
	errDeadlock           = 1213
	errLockWaitTimeout    = 1205
	maxFriendshipAttempts = 3
)

// Config holds MySQL connection settings.
type Config struct {
	User     string
	Password string
	Addr     string
	Database string
}

// DSN returns the driver data source name for the config.
func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Addr
	cfg.DBName = c.Database
	cfg.Timeout = 5 * time.Second
	return cfg.FormatDSN()
}

// Repository defines a MySQL-based social graph repository.
type Repository struct {
	db *sql.DB
}

// New creates a new MySQL-based repository. The schema in schema/schema.sql
// must already be applied.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return &Repository{db}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// PutUser registers a user id.
func (r *Repository) PutUser(ctx context.Context, id model.UserID) error {
	_, err := r.db.ExecContext(ctx, "INSERT IGNORE INTO users (user_id) VALUES (?)", id)
	return err
}

// UserExists reports whether the user id is registered.
func (r *Repository) UserExists(ctx context.Context, id model.UserID) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE user_id = ?", id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// FilmExists reports whether the film is in the catalogue.
func (r *Repository) FilmExists(ctx context.Context, id model.FilmID) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM films WHERE film_id = ?", id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutFilm adds or replaces a film together with its genres and directors.
func (r *Repository) PutFilm(ctx context.Context, film model.Film) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO films (film_id, name, release_year) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE name = VALUES(name), release_year = VALUES(release_year)",
		film.ID, film.Name, film.ReleaseYear,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM film_genres WHERE film_id = ?", film.ID); err != nil {
		return err
	}
	for _, g := range film.Genres {
		if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO film_genres (film_id, genre_id) VALUES (?, ?)", film.ID, g); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM film_directors WHERE film_id = ?", film.ID); err != nil {
		return err
	}
	for _, d := range film.Directors {
		if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO film_directors (film_id, director_id) VALUES (?, ?)", film.ID, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListFilms returns catalogue films matching the filter, ordered by id.
// Genres and directors come back as id maps keyed by film rather than
// aggregated strings.
func (r *Repository) ListFilms(ctx context.Context, filter model.FilmFilter) ([]model.Film, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []model.Film{}, nil
	}
	var (
		where []string
		args  []any
	)
	if filter.Year != nil {
		where = append(where, "f.release_year = ?")
		args = append(args, *filter.Year)
	}
	if filter.GenreID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM film_genres g WHERE g.film_id = f.film_id AND g.genre_id = ?)")
		args = append(args, *filter.GenreID)
	}
	if filter.IDs != nil {
		where = append(where, "f.film_id IN ("+inClause(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	query := "SELECT f.film_id, f.name, f.release_year FROM films f"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY f.film_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	films := []model.Film{}
	for rows.Next() {
		var f model.Film
		if err := rows.Scan(&f.ID, &f.Name, &f.ReleaseYear); err != nil {
			return nil, err
		}
		films = append(films, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(films) == 0 {
		return films, nil
	}

	ids := make([]any, 0, len(films))
	for _, f := range films {
		ids = append(ids, f.ID)
	}
	genres, err := r.relations(ctx, "SELECT film_id, genre_id FROM film_genres WHERE film_id IN ("+inClause(len(ids))+") ORDER BY film_id, genre_id", ids)
	if err != nil {
		return nil, err
	}
	directors, err := r.relations(ctx, "SELECT film_id, director_id FROM film_directors WHERE film_id IN ("+inClause(len(ids))+") ORDER BY film_id, director_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range films {
		for _, g := range genres[films[i].ID] {
			films[i].Genres = append(films[i].Genres, model.GenreID(g))
		}
		for _, d := range directors[films[i].ID] {
			films[i].Directors = append(films[i].Directors, model.DirectorID(d))
		}
	}
	return films, nil
}

func (r *Repository) relations(ctx context.Context, query string, args []any) (map[model.FilmID][]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[model.FilmID][]int64{}
	for rows.Next() {
		var (
			filmID model.FilmID
			id     int64
		)
		if err := rows.Scan(&filmID, &id); err != nil {
			return nil, err
		}
		res[filmID] = append(res[filmID], id)
	}
	return res, rows.Err()
}

// AddLike stores a like. Adding an existing like is a no-op.
func (r *Repository) AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	_, err := r.db.ExecContext(ctx, "INSERT IGNORE INTO likes (user_id, film_id) VALUES (?, ?)", userID, filmID)
	return err
}

// RemoveLike deletes a like if present.
func (r *Repository) RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM likes WHERE user_id = ? AND film_id = ?", userID, filmID)
	return err
}

// FilmsLikedBy returns the films the user likes.
func (r *Repository) FilmsLikedBy(ctx context.Context, userID model.UserID) ([]model.FilmID, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT film_id FROM likes WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.FilmID{}
	for rows.Next() {
		var id model.FilmID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// UsersWhoLiked returns the users who like the film.
func (r *Repository) UsersWhoLiked(ctx context.Context, filmID model.FilmID) ([]model.UserID, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id FROM likes WHERE film_id = ?", filmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.UserID{}
	for rows.Next() {
		var id model.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

// LikeCounts returns the number of likes of every liked film.
func (r *Repository) LikeCounts(ctx context.Context) (map[model.FilmID]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT film_id, COUNT(*) FROM likes GROUP BY film_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[model.FilmID]int{}
	for rows.Next() {
		var (
			id model.FilmID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		res[id] = n
	}
	return res, rows.Err()
}

// UpdateFriendship applies fn to the edge between a and b. The pair's lock
// row is written first and held until commit; deadlock victims are retried.
func (r *Repository) UpdateFriendship(ctx context.Context, a, b model.UserID, fn repository.FriendshipUpdate) error {
	var err error
	for attempt := 0; attempt < maxFriendshipAttempts; attempt++ {
		err = r.updateFriendship(ctx, model.NewPair(a, b), fn)
		if !retryable(err) {
			return err
		}
	}
	return err
}

func (r *Repository) updateFriendship(ctx context.Context, key model.Pair, fn repository.FriendshipUpdate) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO friendship_locks (user_low, user_high, version) VALUES (?, ?, 1) ON DUPLICATE KEY UPDATE version = version + 1",
		key.Low, key.High,
	); err != nil {
		return fmt.Errorf("lock friendship: %w", err)
	}

	var (
		current   *model.Friendship
		requester model.UserID
		confirmed bool
	)
	err = tx.QueryRowContext(ctx,
		"SELECT requester_id, confirmed FROM friendships WHERE user_low = ? AND user_high = ? FOR UPDATE",
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
		_, err = tx.ExecContext(ctx, "DELETE FROM friendships WHERE user_low = ? AND user_high = ?", key.Low, key.High)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO friendships (user_low, user_high, requester_id, confirmed) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE requester_id = VALUES(requester_id), confirmed = VALUES(confirmed)",
			key.Low, key.High, next.Requester, next.Confirmed(),
		)
	}
	if err != nil {
		return fmt.Errorf("write friendship: %w", err)
	}
	return tx.Commit()
}

func retryable(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
}

// ListFriendships returns every edge touching the user.
func (r *Repository) ListFriendships(ctx context.Context, userID model.UserID) ([]model.Friendship, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_low, user_high, requester_id, confirmed FROM friendships WHERE user_low = ? OR user_high = ?",
		userID, userID,
	)
	if err != nil {
		return nil, err
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
			return nil, err
		}
		res = append(res, repository.FriendshipFromPair(key, requester, confirmed))
	}
	return res, rows.Err()
}

// Append adds an event to the feed and assigns its id.
func (r *Repository) Append(ctx context.Context, event *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO user_events (user_id, created_at, event_type, operation, entity_id) VALUES (?, ?, ?, ?, ?)",
		event.UserID, event.Timestamp, string(event.EventType), string(event.Operation), event.EntityID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = id
	return nil
}

// ListByUser returns the user's events, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT event_id, user_id, created_at, event_type, operation, entity_id FROM user_events WHERE user_id = ? ORDER BY created_at DESC, event_id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.EventType, &e.Operation, &e.EntityID); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func inClause(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
