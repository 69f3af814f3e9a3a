package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name the social service reports health under.
const ServiceName = "social"

// Handler defines the social service gRPC surface: the standard health
// service and server reflection.
type Handler struct {
	health *health.Server
}

// New creates a new social service gRPC handler.
func New() *Handler {
	return &Handler{health: health.NewServer()}
}

// Register attaches the handler's services to srv.
func (h *Handler) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, h.health)
	reflection.Register(srv)
}

// SetServing flips the reported status of the social service.
func (h *Handler) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
}

// Shutdown reports every service as not serving and ignores later updates.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}
