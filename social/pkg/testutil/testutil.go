package testutil

import (
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/abhishek622/filmsocial/social/internal/controller/social"
	"github.com/abhishek622/filmsocial/social/internal/discovery"
	grpchandler "github.com/abhishek622/filmsocial/social/internal/handler/grpc"
	"github.com/abhishek622/filmsocial/social/internal/repository/memory"
)

// NewTestSocialGRPCServer creates a social gRPC server reporting itself as
// serving, to be used in tests.
func NewTestSocialGRPCServer() *grpc.Server {
	srv := grpc.NewServer()
	h := grpchandler.New()
	h.Register(srv)
	h.SetServing(true)
	return srv
}

// NewTestController creates a social controller over an empty memory
// repository, to be used in tests.
func NewTestController() (*social.Controller, *memory.Repository) {
	r := memory.New()
	ctrl := social.New(r, r, r, discovery.New(r, r, r), zap.NewNop(), tally.NoopScope)
	return ctrl, r
}
