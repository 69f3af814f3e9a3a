package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"

	"github.com/abhishek622/filmsocial/social/internal/repository"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

const (
	tracerID       = "social-repository-badger"
	eventKeyPrefix = "event:"
	sequenceKey    = "sequence:event"
	seqBandwidth   = 100
)

// EventLog is a BadgerDB-backed activity feed. Events are keyed by user so a
// feed read is a single prefix scan.
type EventLog struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) a feed database in dir. An empty dir keeps the
// data in memory.
func Open(dir string) (*EventLog, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	log, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return log, nil
}

// New creates an event log on an already opened database.
func New(db *badger.DB) (*EventLog, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("event sequence: %w", err)
	}
	return &EventLog{db: db, seq: seq}, nil
}

// Close releases the leased id range and closes the database.
func (l *EventLog) Close() error {
	if err := l.seq.Release(); err != nil {
		_ = l.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return l.db.Close()
}

// Append adds an event to the feed and assigns its id.
func (l *EventLog) Append(ctx context.Context, event *model.Event) error {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/Append")
	defer span.End()

	next, err := l.seq.Next()
	if err != nil {
		return fmt.Errorf("next event id: %w", err)
	}
	stored := *event
	stored.ID = int64(next) + 1
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(stored.UserID, stored.ID), data)
	}); err != nil {
		return fmt.Errorf("set event: %w", err)
	}
	event.ID = stored.ID
	return nil
}

// ListByUser returns the user's events, newest first.
func (l *EventLog) ListByUser(ctx context.Context, userID model.UserID) ([]model.Event, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Repository/ListByUser")
	defer span.End()

	res := []model.Event{}
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e model.Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			res = append(res, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	repository.SortEvents(res)
	return res, nil
}

func userPrefix(userID model.UserID) []byte {
	return []byte(fmt.Sprintf("%s%020d:", eventKeyPrefix, userID))
}

func eventKey(userID model.UserID, id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", eventKeyPrefix, userID, id))
}
