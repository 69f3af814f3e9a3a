package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/pkg/discovery"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	r := NewRegistry()
	r.now = func() time.Time { return now }

	_, err := r.ServiceAddresses(ctx, "social")
	assert.ErrorIs(t, err, discovery.ErrNotFound)

	require.NoError(t, r.Register(ctx, "social-1", "social", "localhost:8083"))
	require.NoError(t, r.Register(ctx, "social-2", "social", "localhost:8084"))
	addrs, err := r.ServiceAddresses(ctx, "social")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"localhost:8083", "localhost:8084"}, addrs)

	now = now.Add(4 * time.Second)
	require.NoError(t, r.ReportHealthyState("social-2", "social"))
	now = now.Add(2 * time.Second)
	addrs, err = r.ServiceAddresses(ctx, "social")
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:8084"}, addrs)

	require.NoError(t, r.Deregister(ctx, "social-2", "social"))
	_, err = r.ServiceAddresses(ctx, "social")
	assert.ErrorIs(t, err, discovery.ErrNotFound)

	assert.Error(t, r.ReportHealthyState("social-9", "social"))
	assert.Error(t, r.ReportHealthyState("feed-1", "feed"))
}

func TestGenerateInstanceID(t *testing.T) {
	a := discovery.GenerateInstanceID("social")
	b := discovery.GenerateInstanceID("social")
	assert.True(t, strings.HasPrefix(a, "social-"))
	assert.NotEqual(t, a, b)
}
