package grpcutil

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/abhishek622/filmsocial/pkg/discovery"
	"github.com/abhishek622/filmsocial/pkg/discovery/memory"
	"github.com/abhishek622/filmsocial/social/pkg/testutil"
)

func TestServiceConnectionChecksHealth(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := testutil.NewTestSocialGRPCServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	registry := memory.NewRegistry()
	require.NoError(t, registry.Register(ctx, "social-1", "social", lis.Addr().String()))

	conn, err := ServiceConnection(ctx, "social", registry, insecure.NewCredentials())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	status, err := CheckHealth(ctx, conn, "social")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	_, err = CheckHealth(ctx, conn, "billing")
	assert.Error(t, err)
}

func TestServiceConnectionWithoutInstances(t *testing.T) {
	_, err := ServiceConnection(context.Background(), "social", memory.NewRegistry(), insecure.NewCredentials())
	assert.ErrorIs(t, err, discovery.ErrNotFound)
}
