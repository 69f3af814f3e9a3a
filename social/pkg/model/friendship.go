package model

type FriendState string

const (
	FriendStatePending   = FriendState("PENDING")
	FriendStateConfirmed = FriendState("CONFIRMED")
)

// Friendship is an edge between two users. While pending, Requester is the
// user who asked. Confirmed edges are stored with Requester < Target.
type Friendship struct {
	Requester UserID      `json:"requester"`
	Target    UserID      `json:"target"`
	State     FriendState `json:"state"`
}

// Confirmed reports whether both sides agreed.
func (f Friendship) Confirmed() bool {
	return f.State == FriendStateConfirmed
}

// Other returns the user on the other side of the edge from id.
func (f Friendship) Other(id UserID) UserID {
	if f.Requester == id {
		return f.Target
	}
	return f.Requester
}

// Pair returns the unordered storage key of the edge.
func (f Friendship) Pair() Pair {
	return NewPair(f.Requester, f.Target)
}

// Pair is an unordered pair of users with Low <= High.
type Pair struct {
	Low  UserID
	High UserID
}

func NewPair(a, b UserID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}
