package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/internal/repository/repositorytest"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestOpenIsRepeatable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "social.db")
	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.AddLike(context.Background(), 1, 2))
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	films, err := second.FilmsLikedBy(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2}, toInt64(films))
}

func TestStoreGraph(t *testing.T) {
	repositorytest.RunGraphStore(t, func(t *testing.T) repositorytest.GraphStore {
		return openTempStore(t)
	})
}

func TestStoreEvents(t *testing.T) {
	repositorytest.RunEventLog(t, func(t *testing.T) repositorytest.EventLog {
		return openTempStore(t)
	})
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUp(content))
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "social.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func toInt64[T ~int64](ids []T) []int64 {
	res := make([]int64, 0, len(ids))
	for _, id := range ids {
		res = append(res, int64(id))
	}
	return res
}
