package model

// UserID identifies a user owned by the identity store.
type UserID int64

// FilmID identifies a film owned by the identity store.
type FilmID int64

type GenreID int64
type DirectorID int64

// Film is the catalogue view of a film needed by discovery queries.
type Film struct {
	ID          FilmID       `json:"id"`
	Name        string       `json:"name"`
	ReleaseYear int          `json:"releaseYear"`
	Genres      []GenreID    `json:"genres"`
	Directors   []DirectorID `json:"directors"`
}

// HasGenre reports whether the film is tagged with the genre.
func (f Film) HasGenre(id GenreID) bool {
	for _, g := range f.Genres {
		if g == id {
			return true
		}
	}
	return false
}

// FilmFilter restricts a catalogue listing. Nil fields do not restrict;
// set fields are combined with AND.
type FilmFilter struct {
	GenreID *GenreID
	Year    *int
	IDs     []FilmID
}

// Matches reports whether the film passes the genre and year restrictions.
// IDs are matched by the store.
func (f FilmFilter) Matches(film Film) bool {
	if f.GenreID != nil && !film.HasGenre(*f.GenreID) {
		return false
	}
	if f.Year != nil && film.ReleaseYear != *f.Year {
		return false
	}
	return true
}

// Like is a user's positive association with a film.
type Like struct {
	UserID UserID `json:"userId"`
	FilmID FilmID `json:"filmId"`
}
