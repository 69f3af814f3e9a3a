package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/internal/repository/badger"
	"github.com/abhishek622/filmsocial/social/internal/repository/memory"
	"github.com/abhishek622/filmsocial/social/internal/repository/mysql"
	"github.com/abhishek622/filmsocial/social/internal/repository/neo4j"
	"github.com/abhishek622/filmsocial/social/internal/repository/sqlite"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

type graphStore interface {
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

type eventLog interface {
	Append(ctx context.Context, event *model.Event) error
	ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error)
}

type stores struct {
	graph   graphStore
	feed    eventLog
	closers []io.Closer
}

func (s *stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openStores opens the graph store named by cfg.Driver and the feed store
// that goes with it.
func openStores(ctx context.Context, cfg storageConfig, logger *zap.Logger) (*stores, error) {
	s := &stores{}
	switch cfg.Driver {
	case "memory":
		repo := memory.New()
		s.graph, s.feed = repo, repo
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s.graph, s.feed = store, store
		s.closers = append(s.closers, store)
	case "mysql":
		repo, err := mysql.New(ctx, mysql.Config{
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Addr:     cfg.MySQL.Addr,
			Database: cfg.MySQL.Database,
		})
		if err != nil {
			return nil, err
		}
		s.graph, s.feed = repo, repo
		s.closers = append(s.closers, repo)
	case "neo4j":
		repo, err := neo4j.New(ctx, neo4j.Config{
			URI:      cfg.Neo4j.URI,
			User:     cfg.Neo4j.User,
			Password: cfg.Neo4j.Password,
		}, logger)
		if err != nil {
			return nil, err
		}
		s.graph = repo
		s.closers = append(s.closers, repo)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	if cfg.Feed == "badger" {
		log, err := badger.Open(cfg.BadgerDir)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.feed = log
		s.closers = append(s.closers, log)
	}
	if s.feed == nil {
		_ = s.Close()
		return nil, fmt.Errorf("storage driver %q needs a feed store", cfg.Driver)
	}
	logger.Info("Opened storage", zap.String("driver", cfg.Driver), zap.String("feed", cfg.Feed))
	return s, nil
}
