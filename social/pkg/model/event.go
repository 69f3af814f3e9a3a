package model

import "time"

type EventType string

const (
	EventTypeLike   = EventType("LIKE")
	EventTypeFriend = EventType("FRIEND")
	EventTypeReview = EventType("REVIEW")
)

type Operation string

const (
	OperationAdd    = Operation("ADD")
	OperationRemove = Operation("REMOVE")
	OperationUpdate = Operation("UPDATE")
)

// Event is an entry of a user's activity feed.
type Event struct {
	ID        int64     `json:"eventId"`
	UserID    UserID    `json:"userId"`
	Timestamp int64     `json:"timestamp"`
	EventType EventType `json:"eventType"`
	Operation Operation `json:"operation"`
	EntityID  int64     `json:"entityId"`
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// GraphEventKind is the mutation carried by a GraphEvent.
type GraphEventKind string

const (
	GraphEventKindLike          = GraphEventKind("like")
	GraphEventKindUnlike        = GraphEventKind("unlike")
	GraphEventKindFriendRequest = GraphEventKind("friend_request")
	GraphEventKindFriendRemove  = GraphEventKind("friend_remove")
)

// GraphEvent is a like or friendship mutation published by an upstream
// provider. TargetID is a film id for like kinds and a user id otherwise.
type GraphEvent struct {
	UserID     UserID         `json:"userId"`
	TargetID   int64          `json:"targetId"`
	Kind       GraphEventKind `json:"kind"`
	ProviderID string         `json:"providerId"`
}
