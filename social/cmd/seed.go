package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

type seedData struct {
	Users []model.UserID `json:"users"`
	Films []model.Film   `json:"films"`
}

type identitySeeder interface {
	PutUser(ctx context.Context, id model.UserID) error
	PutFilm(ctx context.Context, film model.Film) error
}

// loadSeed registers the users and films listed in the JSON file at path.
func loadSeed(ctx context.Context, path string, s identitySeeder) (seedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedData{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return seedData{}, fmt.Errorf("parse seed file: %w", err)
	}
	for _, id := range seed.Users {
		if err := s.PutUser(ctx, id); err != nil {
			return seedData{}, fmt.Errorf("put user %d: %w", id, err)
		}
	}
	for _, film := range seed.Films {
		if err := s.PutFilm(ctx, film); err != nil {
			return seedData{}, fmt.Errorf("put film %d: %w", film.ID, err)
		}
	}
	return seed, nil
}
