package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/internal/repository/repositorytest"
	"github.com/abhishek622/filmsocial/social/pkg/model"
)

func TestEventLog(t *testing.T) {
	repositorytest.RunEventLog(t, func(t *testing.T) repositorytest.EventLog {
		log, err := Open("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = log.Close() })
		return log
	})
}

func TestEventLogSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(dir)
	require.NoError(t, err)
	e1 := &model.Event{UserID: 7, Timestamp: 100, EventType: model.EventTypeLike, Operation: model.OperationAdd, EntityID: 3}
	require.NoError(t, first.Append(ctx, e1))
	require.NoError(t, first.Close())

	second, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	e2 := &model.Event{UserID: 7, Timestamp: 100, EventType: model.EventTypeLike, Operation: model.OperationRemove, EntityID: 3}
	require.NoError(t, second.Append(ctx, e2))
	assert.Greater(t, e2.ID, e1.ID)

	events, err := second.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, *e2, events[0])
	assert.Equal(t, *e1, events[1])
}

func TestKeysDoNotOverlapAcrossUsers(t *testing.T) {
	assert.NotContains(t, string(eventKey(12, 1)), string(userPrefix(1)))
	assert.Contains(t, string(eventKey(1, 5)), string(userPrefix(1)))
}
