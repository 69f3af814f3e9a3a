package repository

import (
	"errors"
	"sort"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

// ErrNotFound is returned when a requested record is not found.
var ErrNotFound = errors.New("not found")

// FriendshipUpdate computes the next edge of a pair from the current one.
// current is nil when the pair has no edge. Returning a nil edge deletes
// the stored one; returning an error aborts without writing.
type FriendshipUpdate = func(current *model.Friendship) (*model.Friendship, error)

// SortEvents orders events newest first. Equal timestamps put the later
// insertion first.
func SortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp > events[j].Timestamp
		}
		return events[i].ID > events[j].ID
	})
}

// SortFilms orders films by id.
func SortFilms(films []model.Film) {
	sort.Slice(films, func(i, j int) bool { return films[i].ID < films[j].ID })
}

// FriendshipFromPair rebuilds an edge from its storage row.
func FriendshipFromPair(key model.Pair, requester model.UserID, confirmed bool) model.Friendship {
	if confirmed {
		return model.Friendship{Requester: key.Low, Target: key.High, State: model.FriendStateConfirmed}
	}
	target := key.High
	if requester == key.High {
		target = key.Low
	}
	return model.Friendship{Requester: requester, Target: target, State: model.FriendStatePending}
}
