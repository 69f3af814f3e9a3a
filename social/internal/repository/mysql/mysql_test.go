package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/internal/repository/repositorytest"
)

func TestConfigDSN(t *testing.T) {
	dsn := Config{User: "social", Password: "secret", Addr: "db:3306", Database: "social"}.DSN()

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "social", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "social", cfg.DBName)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&mysql.MySQLError{Number: errDeadlock}))
	assert.True(t, retryable(fmt.Errorf("lock friendship: %w", &mysql.MySQLError{Number: errLockWaitTimeout})))
	assert.False(t, retryable(&mysql.MySQLError{Number: 1062}))
	assert.False(t, retryable(errors.New("boom")))
	assert.False(t, retryable(nil))
}

// The store suites need a database with schema/schema.sql applied, named by
// SOCIAL_MYSQL_ADDR, SOCIAL_MYSQL_USER, SOCIAL_MYSQL_PASSWORD and
// SOCIAL_MYSQL_DATABASE.
func TestRepositoryGraph(t *testing.T) {
	repositorytest.RunGraphStore(t, func(t *testing.T) repositorytest.GraphStore {
		return openTestRepository(t)
	})
}

func TestRepositoryEvents(t *testing.T) {
	repositorytest.RunEventLog(t, func(t *testing.T) repositorytest.EventLog {
		return openTestRepository(t)
	})
}

func openTestRepository(t *testing.T) *Repository {
	t.Helper()

	addr := os.Getenv("SOCIAL_MYSQL_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("SOCIAL_MYSQL_ADDR not set")
	}
	ctx := context.Background()
	repo, err := New(ctx, Config{
		User:     os.Getenv("SOCIAL_MYSQL_USER"),
		Password: os.Getenv("SOCIAL_MYSQL_PASSWORD"),
		Addr:     addr,
		Database: os.Getenv("SOCIAL_MYSQL_DATABASE"),
	})
	require.NoError(t, err)
	for _, table := range []string{"users", "films", "film_genres", "film_directors", "likes", "friendships", "friendship_locks", "user_events"} {
		_, err := repo.db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}
