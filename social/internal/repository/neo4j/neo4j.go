package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

const tracerID = "social-repository-neo4j"

var constraints = []string{
	"CREATE CONSTRAINT social_user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT social_film_id IF NOT EXISTS FOR (f:Film) REQUIRE f.id IS UNIQUE",
}

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	User     string
	Password string
}

// Repository stores the like and friendship graphs in Neo4j.
//
// (:User)-[:LIKES]->(:Film) holds likes. A friendship is a single
// (:User)-[:FRIENDS {requester, confirmed}]->(:User) relationship pointing
// from the lower user id to the higher one. Nodes created implicitly by a
// like or a friend request are not registered: UserExists and ListFilms
// only see nodes written by PutUser and PutFilm.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New connects to Neo4j and ensures the uniqueness constraints exist.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	r := &Repository{driver: driver, logger: logger}
	for _, query := range constraints {
		if _, err := r.run(ctx, neo4j.AccessModeWrite, query, nil); err != nil {
			_ = driver.Close(ctx)
			return nil, fmt.Errorf("ensure constraint: %w", err)
		}
	}
	return r, nil
}

// Close closes the Neo4j driver connection.
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// PutUser registers a user id.
func (r *Repository) PutUser(ctx context.Context, id model.UserID) error {
	_, err := r.run(ctx, neo4j.AccessModeWrite,
		"MERGE (u:User {id: $id}) SET u.registered = true",
		map[string]any{"id": int64(id)},
	)
	return err
}

// UserExists reports whether the user id is registered.
func (r *Repository) UserExists(ctx context.Context, id model.UserID) (bool, error) {
	records, err := r.run(ctx, neo4j.AccessModeRead,
		"MATCH (u:User {id: $id}) WHERE u.registered = true RETURN count(u) AS n",
		map[string]any{"id": int64(id)},
	)
	if err != nil {
		return false, err
	}
	return len(records) > 0 && int64Value(records[0], "n") > 0, nil
}

// PutFilm adds or replaces a film in the catalogue.
func (r *Repository) PutFilm(ctx context.Context, film model.Film) error {
	genres := make([]int64, 0, len(film.Genres))
	for _, g := range film.Genres {
		genres = append(genres, int64(g))
	}
	directors := make([]int64, 0, len(film.Directors))
	for _, d := range film.Directors {
		directors = append(directors, int64(d))
	}
	_, err := r.run(ctx, neo4j.AccessModeWrite, `
		MERGE (f:Film {id: $id})
		SET f.catalogued = true,
			f.name = $name,
			f.release_year = $year,
			f.genres = $genres,
			f.directors = $directors
	`, map[string]any{
		"id":        int64(film.ID),
		"name":      film.Name,
		"year":      int64(film.ReleaseYear),
		"genres":    genres,
		"directors": directors,
	})
	return err
}

// FilmExists reports whether the film is in the catalogue.
func (r *Repository) FilmExists(ctx context.Context, id model.FilmID) (bool, error) {
	records, err := r.run(ctx, neo4j.AccessModeRead,
		"MATCH (f:Film {id: $id}) WHERE f.catalogued = true RETURN count(f) AS n",
		map[string]any{"id": int64(id)},
	)
	if err != nil {
		return false, err
	}
	return len(records) > 0 && int64Value(records[0], "n") > 0, nil
}

// ListFilms returns catalogue films matching the filter, ordered by id.
func (r *Repository) ListFilms(ctx context.Context, filter model.FilmFilter) ([]model.Film, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/ListFilms")
	defer span.End()

	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []model.Film{}, nil
	}
	params := map[string]any{"year": nil, "genre": nil, "ids": nil}
	if filter.Year != nil {
		params["year"] = int64(*filter.Year)
	}
	if filter.GenreID != nil {
		params["genre"] = int64(*filter.GenreID)
	}
	if filter.IDs != nil {
		ids := make([]int64, 0, len(filter.IDs))
		for _, id := range filter.IDs {
			ids = append(ids, int64(id))
		}
		params["ids"] = ids
	}
	records, err := r.run(ctx, neo4j.AccessModeRead, `
		MATCH (f:Film)
		WHERE f.catalogued = true
			AND ($year IS NULL OR f.release_year = $year)
			AND ($genre IS NULL OR $genre IN f.genres)
			AND ($ids IS NULL OR f.id IN $ids)
		RETURN f.id AS id, f.name AS name, f.release_year AS year,
			f.genres AS genres, f.directors AS directors
		ORDER BY f.id
	`, params)
	if err != nil {
		return nil, err
	}

	films := make([]model.Film, 0, len(records))
	for _, record := range records {
		film := model.Film{
			ID:          model.FilmID(int64Value(record, "id")),
			Name:        stringValue(record, "name"),
			ReleaseYear: int(int64Value(record, "year")),
		}
		for _, g := range int64Slice(record, "genres") {
			film.Genres = append(film.Genres, model.GenreID(g))
		}
		for _, d := range int64Slice(record, "directors") {
			film.Directors = append(film.Directors, model.DirectorID(d))
		}
		films = append(films, film)
	}
	return films, nil
}

// AddLike stores a like. Adding an existing like is a no-op.
func (r *Repository) AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	_, err := r.run(ctx, neo4j.AccessModeWrite, `
		MERGE (u:User {id: $user})
		MERGE (f:Film {id: $film})
		MERGE (u)-[:LIKES]->(f)
	`, map[string]any{"user": int64(userID), "film": int64(filmID)})
	return err
}

// RemoveLike deletes a like if present.
func (r *Repository) RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error {
	_, err := r.run(ctx, neo4j.AccessModeWrite,
		"MATCH (:User {id: $user})-[l:LIKES]->(:Film {id: $film}) DELETE l",
		map[string]any{"user": int64(userID), "film": int64(filmID)},
	)
	return err
}

// FilmsLikedBy returns the films the user likes.
func (r *Repository) FilmsLikedBy(ctx context.Context, userID model.UserID) ([]model.FilmID, error) {
	records, err := r.run(ctx, neo4j.AccessModeRead,
		"MATCH (:User {id: $user})-[:LIKES]->(f:Film) RETURN DISTINCT f.id AS id",
		map[string]any{"user": int64(userID)},
	)
	if err != nil {
		return nil, err
	}
	res := make([]model.FilmID, 0, len(records))
	for _, record := range records {
		res = append(res, model.FilmID(int64Value(record, "id")))
	}
	return res, nil
}

// UsersWhoLiked returns the users who like the film.
func (r *Repository) UsersWhoLiked(ctx context.Context, filmID model.FilmID) ([]model.UserID, error) {
	records, err := r.run(ctx, neo4j.AccessModeRead,
		"MATCH (u:User)-[:LIKES]->(:Film {id: $film}) RETURN DISTINCT u.id AS id",
		map[string]any{"film": int64(filmID)},
	)
	if err != nil {
		return nil, err
	}
	res := make([]model.UserID, 0, len(records))
	for _, record := range records {
		res = append(res, model.UserID(int64Value(record, "id")))
	}
	return res, nil
}

// LikeCounts returns the number of likes of every liked film.
func (r *Repository) LikeCounts(ctx context.Context) (map[model.FilmID]int, error) {
	records, err := r.run(ctx, neo4j.AccessModeRead,
		"MATCH (u:User)-[:LIKES]->(f:Film) RETURN f.id AS id, count(DISTINCT u) AS n",
		nil,
	)
	if err != nil {
		return nil, err
	}
	res := make(map[model.FilmID]int, len(records))
	for _, record := range records {
		res[model.FilmID(int64Value(record, "id"))] = int(int64Value(record, "n"))
	}
	return res, nil
}

// UpdateFriendship applies fn to the edge between a and b inside one write
// transaction. The lower user node is written before the edge is read, so
// concurrent updates of the same pair queue on its lock.
func (r *Repository) UpdateFriendship(ctx context.Context, a, b model.UserID, fn repository.FriendshipUpdate) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/UpdateFriendship")
	defer span.End()

	key := model.NewPair(a, b)
	params := map[string]any{"low": int64(key.Low), "high": int64(key.High)}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := collect(ctx, tx, `
			MERGE (lo:User {id: $low})
			MERGE (hi:User {id: $high})
			SET lo.friendship_lock = coalesce(lo.friendship_lock, 0) + 1
		`, params); err != nil {
			return nil, fmt.Errorf("lock friendship: %w", err)
		}

		records, err := collect(ctx, tx,
			"MATCH (:User {id: $low})-[r:FRIENDS]->(:User {id: $high}) RETURN r.requester AS requester, r.confirmed AS confirmed",
			params,
		)
		if err != nil {
			return nil, fmt.Errorf("read friendship: %w", err)
		}
		var current *model.Friendship
		if len(records) > 0 {
			f := repository.FriendshipFromPair(key, model.UserID(int64Value(records[0], "requester")), boolValue(records[0], "confirmed"))
			current = &f
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			_, err = collect(ctx, tx, "MATCH (:User {id: $low})-[r:FRIENDS]->(:User {id: $high}) DELETE r", params)
		} else {
			_, err = collect(ctx, tx, `
				MATCH (lo:User {id: $low}), (hi:User {id: $high})
				MERGE (lo)-[r:FRIENDS]->(hi)
				SET r.requester = $requester, r.confirmed = $confirmed
			`, map[string]any{
				"low":       int64(key.Low),
				"high":      int64(key.High),
				"requester": int64(next.Requester),
				"confirmed": next.Confirmed(),
			})
		}
		if err != nil {
			return nil, fmt.Errorf("write friendship: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		r.logger.Debug("Friendship update rejected", zap.Int64("low", int64(key.Low)), zap.Int64("high", int64(key.High)), zap.Error(err))
	}
	return err
}

// ListFriendships returns every edge touching the user.
func (r *Repository) ListFriendships(ctx context.Context, userID model.UserID) ([]model.Friendship, error) {
	records, err := r.run(ctx, neo4j.AccessModeRead, `
		MATCH (lo:User)-[r:FRIENDS]->(hi:User)
		WHERE lo.id = $user OR hi.id = $user
		RETURN lo.id AS low, hi.id AS high, r.requester AS requester, r.confirmed AS confirmed
	`, map[string]any{"user": int64(userID)})
	if err != nil {
		return nil, err
	}
	res := make([]model.Friendship, 0, len(records))
	for _, record := range records {
		key := model.Pair{Low: model.UserID(int64Value(record, "low")), High: model.UserID(int64Value(record, "high"))}
		res = append(res, repository.FriendshipFromPair(key, model.UserID(int64Value(record, "requester")), boolValue(record, "confirmed")))
	}
	return res, nil
}

func (r *Repository) run(ctx context.Context, mode neo4j.AccessMode, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	return records, nil
}

func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}
