package main

import (
	"context"
	"crypto/tls"
	"flag"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/abhishek622/filmsocial/internal/grpcutil"
	"github.com/abhishek622/filmsocial/pkg/discovery/consul"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		consulAddr string
		service    string
		useTLS     bool
		timeout    time.Duration
	)
	flag.StringVar(&consulAddr, "consul", "localhost:8500", "Consul address")
	flag.StringVar(&service, "service", "social", "service to check")
	flag.BoolVar(&useTLS, "tls", false, "connect with TLS")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "check timeout")
	flag.Parse()

	registry, err := consul.NewRegistry(consulAddr)
	if err != nil {
		logger.Fatal("Failed to init service registry", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	creds := insecure.NewCredentials()
	if useTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
	}
	conn, err := grpcutil.ServiceConnection(ctx, service, registry, creds)
	if err != nil {
		logger.Fatal("Failed to connect", zap.String("service", service), zap.Error(err))
	}
	defer conn.Close()

	status, err := grpcutil.CheckHealth(ctx, conn, service)
	if err != nil {
		logger.Fatal("Health check failed", zap.Error(err))
	}
	logger.Info("Health check", zap.String("service", service), zap.String("status", status.String()))
}
