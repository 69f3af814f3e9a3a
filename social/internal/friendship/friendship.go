// Package friendship implements the friend-request state machine.
//
// Between any two users there is either no edge, a pending edge owned by
// the requester, or a confirmed edge. The functions here compute the next
// edge from the current one and never touch storage, so every repository
// applies the same rules inside its own atomic section.
package friendship

import (
	"errors"
	"sort"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

var (
	// ErrSelfFriend is returned when a user tries to befriend themselves.
	ErrSelfFriend = errors.New("user cannot befriend themselves")
	// ErrDuplicateRequest is returned when the requester already has a pending outgoing request.
	ErrDuplicateRequest = errors.New("friend request already sent")
	// ErrAlreadyFriends is returned when the pair is already confirmed.
	ErrAlreadyFriends = errors.New("users are already friends")
	// ErrNotFriends is returned when removing an edge that does not exist.
	ErrNotFriends = errors.New("users are not friends and have no pending request")
)

// Request returns the edge that results from from asking to befriend to.
// current is the existing edge between the two users or nil.
func Request(current *model.Friendship, from, to model.UserID) (*model.Friendship, error) {
	if from == to {
		return nil, ErrSelfFriend
	}
	if current == nil {
		return &model.Friendship{Requester: from, Target: to, State: model.FriendStatePending}, nil
	}
	if current.Confirmed() {
		return nil, ErrAlreadyFriends
	}
	if current.Requester == from {
		return nil, ErrDuplicateRequest
	}
	// The other side asked first: replying accepts.
	return Confirm(from, to), nil
}

// Remove returns the edge that results from from dropping to. A nil edge
// with a nil error means the edge is deleted.
func Remove(current *model.Friendship, from, to model.UserID) (*model.Friendship, error) {
	if from == to {
		return nil, ErrSelfFriend
	}
	if current == nil {
		return nil, ErrNotFriends
	}
	return nil, nil
}

// Confirm builds the canonical confirmed edge for the pair.
func Confirm(a, b model.UserID) *model.Friendship {
	p := model.NewPair(a, b)
	return &model.Friendship{Requester: p.Low, Target: p.High, State: model.FriendStateConfirmed}
}

// Visible reports whether viewer sees the other side of f in their friend
// list: confirmed edges are visible to both users, pending edges only to
// the requester.
func Visible(f model.Friendship, viewer model.UserID) bool {
	if f.Requester != viewer && f.Target != viewer {
		return false
	}
	return f.Confirmed() || f.Requester == viewer
}

// FriendsOf returns the users visible in viewer's friend list, ascending.
func FriendsOf(edges []model.Friendship, viewer model.UserID) []model.UserID {
	seen := make(map[model.UserID]struct{}, len(edges))
	res := make([]model.UserID, 0, len(edges))
	for _, e := range edges {
		if !Visible(e, viewer) {
			continue
		}
		other := e.Other(viewer)
		if _, ok := seen[other]; ok || other == viewer {
			continue
		}
		seen[other] = struct{}{}
		res = append(res, other)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Intersect returns the ids present in both sorted slices, ascending.
func Intersect(a, b []model.UserID) []model.UserID {
	res := []model.UserID{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			res = append(res, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return res
}
