package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"github.com/abhishek622/filmsocial/social/internal/discovery"
	"github.com/abhishek622/filmsocial/social/internal/friendship"
	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

var (
	// ErrNotFound is returned when a user or film is unknown to the identity store.
	ErrNotFound = errors.New("not found")
	// ErrUnknownEvent is returned by Apply for an unsupported graph event kind.
	ErrUnknownEvent = errors.New("unknown graph event kind")
	// ErrInvalidOperation is returned by RecordReview for an unsupported operation.
	ErrInvalidOperation = errors.New("invalid operation")
)

type graphRepository interface {
	AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error
	RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) error
	UpdateFriendship(ctx context.Context, a, b model.UserID, fn repository.FriendshipUpdate) error
}

type feedRepository interface {
	Append(ctx context.Context, event *model.Event) error
	ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error)
}

type identityStore interface {
	UserExists(ctx context.Context, id model.UserID) (bool, error)
	FilmExists(ctx context.Context, id model.FilmID) (bool, error)
}

type graphIngester interface {
	Ingest(ctx context.Context) (chan model.GraphEvent, error)
}

// Controller defines the social service controller. Mutations are applied
// to the graph first and recorded in the feed after they succeed.
type Controller struct {
	graph    graphRepository
	feed     feedRepository
	identity identityStore
	engine   *discovery.Engine
	logger   *zap.Logger
	metrics  tally.Scope
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the clock used to timestamp feed events.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a social service controller.
func New(graph graphRepository, feed feedRepository, identity identityStore, engine *discovery.Engine, logger *zap.Logger, metrics tally.Scope, opts ...Option) *Controller {
	c := &Controller{
		graph:    graph,
		feed:     feed,
		identity: identity,
		engine:   engine,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddLike records that the user likes the film.
func (c *Controller) AddLike(ctx context.Context, userID model.UserID, filmID model.FilmID) (err error) {
	defer func() { c.observe("add_like", err) }()

	if err := c.requireUsers(ctx, userID); err != nil {
		return err
	}
	if err := c.requireFilm(ctx, filmID); err != nil {
		return err
	}
	if err := c.graph.AddLike(ctx, userID, filmID); err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	c.record(ctx, userID, model.EventTypeLike, model.OperationAdd, int64(filmID))
	return nil
}

// RemoveLike removes the user's like of the film. Removing a missing like
// succeeds.
func (c *Controller) RemoveLike(ctx context.Context, userID model.UserID, filmID model.FilmID) (err error) {
	defer func() { c.observe("remove_like", err) }()

	if err := c.requireUsers(ctx, userID); err != nil {
		return err
	}
	if err := c.requireFilm(ctx, filmID); err != nil {
		return err
	}
	if err := c.graph.RemoveLike(ctx, userID, filmID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	c.record(ctx, userID, model.EventTypeLike, model.OperationRemove, int64(filmID))
	return nil
}

// RequestFriend sends a friend request from one user to another, or accepts
// the pending request in the opposite direction. It returns the resulting
// edge.
func (c *Controller) RequestFriend(ctx context.Context, from, to model.UserID) (res *model.Friendship, err error) {
	defer func() { c.observe("request_friend", err) }()

	if from == to {
		return nil, friendship.ErrSelfFriend
	}
	if err := c.requireUsers(ctx, from, to); err != nil {
		return nil, err
	}
	if err := c.graph.UpdateFriendship(ctx, from, to, func(current *model.Friendship) (*model.Friendship, error) {
		next, err := friendship.Request(current, from, to)
		res = next
		return next, err
	}); err != nil {
		return nil, err
	}
	c.record(ctx, from, model.EventTypeFriend, model.OperationAdd, int64(to))
	return res, nil
}

// RemoveFriend deletes the edge between the users, whatever its state.
func (c *Controller) RemoveFriend(ctx context.Context, from, to model.UserID) (err error) {
	defer func() { c.observe("remove_friend", err) }()

	if from == to {
		return friendship.ErrSelfFriend
	}
	if err := c.requireUsers(ctx, from, to); err != nil {
		return err
	}
	if err := c.graph.UpdateFriendship(ctx, from, to, func(current *model.Friendship) (*model.Friendship, error) {
		return friendship.Remove(current, from, to)
	}); err != nil {
		return err
	}
	c.record(ctx, from, model.EventTypeFriend, model.OperationRemove, int64(to))
	return nil
}

// RecordReview adds a review event to the user's feed. Reviews themselves
// are stored elsewhere.
func (c *Controller) RecordReview(ctx context.Context, userID model.UserID, op model.Operation, reviewID int64) (err error) {
	defer func() { c.observe("record_review", err) }()

	switch op {
	case model.OperationAdd, model.OperationUpdate, model.OperationRemove:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
	if err := c.requireUsers(ctx, userID); err != nil {
		return err
	}
	return c.append(ctx, userID, model.EventTypeReview, op, reviewID)
}

// Friends returns the user's friend list, ascending.
func (c *Controller) Friends(ctx context.Context, userID model.UserID) ([]model.UserID, error) {
	if err := c.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	return c.engine.FriendsOf(ctx, userID)
}

// CommonFriends returns the friends shared by both users, ascending.
func (c *Controller) CommonFriends(ctx context.Context, a, b model.UserID) ([]model.UserID, error) {
	if err := c.requireUsers(ctx, a, b); err != nil {
		return nil, err
	}
	return c.engine.CommonFriends(ctx, a, b)
}

// PopularFilms returns the most liked films matching the filter.
func (c *Controller) PopularFilms(ctx context.Context, limit int, filter model.FilmFilter) ([]model.Film, error) {
	return c.engine.PopularFilms(ctx, limit, filter)
}

// CommonFilms returns the films both users like, ordered by id.
func (c *Controller) CommonFilms(ctx context.Context, a, b model.UserID) ([]model.Film, error) {
	if err := c.requireUsers(ctx, a, b); err != nil {
		return nil, err
	}
	return c.engine.CommonFilms(ctx, a, b)
}

// Recommendations returns film recommendations for the user.
func (c *Controller) Recommendations(ctx context.Context, userID model.UserID) ([]model.Film, error) {
	if err := c.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	return c.engine.Recommend(ctx, userID)
}

// Feed returns the user's activity, newest first.
func (c *Controller) Feed(ctx context.Context, userID model.UserID) ([]model.Event, error) {
	if err := c.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	events, err := c.feed.ListByUser(ctx, userID)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return []model.Event{}, nil
	}
	return events, err
}

// Apply dispatches a graph event published by an upstream provider.
func (c *Controller) Apply(ctx context.Context, e model.GraphEvent) error {
	switch e.Kind {
	case model.GraphEventKindLike:
		return c.AddLike(ctx, e.UserID, model.FilmID(e.TargetID))
	case model.GraphEventKindUnlike:
		return c.RemoveLike(ctx, e.UserID, model.FilmID(e.TargetID))
	case model.GraphEventKindFriendRequest:
		_, err := c.RequestFriend(ctx, e.UserID, model.UserID(e.TargetID))
		return err
	case model.GraphEventKindFriendRemove:
		return c.RemoveFriend(ctx, e.UserID, model.UserID(e.TargetID))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Kind)
	}
}

// StartIngestion applies graph events from the ingester until its channel
// closes. Rejected events are logged and skipped.
func (c *Controller) StartIngestion(ctx context.Context, ingester graphIngester) error {
	ch, err := ingester.Ingest(ctx)
	if err != nil {
		return err
	}
	for e := range ch {
		if err := c.Apply(ctx, e); err != nil {
			c.metrics.Counter("ingest_rejected").Inc(1)
			c.logger.Warn("Rejected graph event",
				zap.String("kind", string(e.Kind)),
				zap.Int64("userId", int64(e.UserID)),
				zap.Int64("targetId", e.TargetID),
				zap.String("providerId", e.ProviderID),
				zap.Error(err),
			)
			continue
		}
		c.metrics.Counter("ingest_applied").Inc(1)
	}
	return nil
}

func (c *Controller) requireUsers(ctx context.Context, ids ...model.UserID) error {
	for _, id := range ids {
		ok, err := c.identity.UserExists(ctx, id)
		if err != nil {
			return fmt.Errorf("check user %d: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
	}
	return nil
}

func (c *Controller) requireFilm(ctx context.Context, id model.FilmID) error {
	ok, err := c.identity.FilmExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check film %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("film %d: %w", id, ErrNotFound)
	}
	return nil
}

func (c *Controller) append(ctx context.Context, userID model.UserID, eventType model.EventType, op model.Operation, entityID int64) error {
	e := &model.Event{
		UserID:    userID,
		Timestamp: c.now().UnixMilli(),
		EventType: eventType,
		Operation: op,
		EntityID:  entityID,
	}
	if err := c.feed.Append(ctx, e); err != nil {
		return fmt.Errorf("append feed event: %w", err)
	}
	return nil
}

// record appends the feed event of a committed graph mutation. The mutation
// stands even if the feed write fails.
func (c *Controller) record(ctx context.Context, userID model.UserID, eventType model.EventType, op model.Operation, entityID int64) {
	if err := c.append(ctx, userID, eventType, op, entityID); err != nil {
		c.metrics.Counter("feed_errors").Inc(1)
		c.logger.Error("Failed to record feed event",
			zap.Int64("userId", int64(userID)),
			zap.String("eventType", string(eventType)),
			zap.String("operation", string(op)),
			zap.Int64("entityId", entityID),
			zap.Error(err),
		)
	}
}

func (c *Controller) observe(operation string, err error) {
	c.metrics.Tagged(map[string]string{
		"operation": operation,
		"result":    result(err),
	}).Counter("requests").Inc(1)
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, friendship.ErrSelfFriend),
		errors.Is(err, friendship.ErrDuplicateRequest),
		errors.Is(err, friendship.ErrAlreadyFriends),
		errors.Is(err, friendship.ErrNotFriends),
		errors.Is(err, ErrInvalidOperation):
		return "rejected"
	default:
		return "error"
	}
}
