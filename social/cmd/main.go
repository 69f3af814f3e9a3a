package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/ratelimit"
	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally/v4"
	promreporter "github.com/uber-go/tally/v4/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/abhishek622/filmsocial/pkg/discovery"
	"github.com/abhishek622/filmsocial/pkg/discovery/consul"
	memoryregistry "github.com/abhishek622/filmsocial/pkg/discovery/memory"
	"github.com/abhishek622/filmsocial/pkg/tracing"
	"github.com/abhishek622/filmsocial/social/internal/controller/social"
	engine "github.com/abhishek622/filmsocial/social/internal/discovery"
	grpchandler "github.com/abhishek622/filmsocial/social/internal/handler/grpc"
	"github.com/abhishek622/filmsocial/social/internal/ingester/kafka"
)

const serviceName = "social"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var configPath string
	flag.StringVar(&configPath, "config", "configs/default.yaml", "configuration file")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal("Social service stopped", zap.Error(err))
	}
}

func run(cfg config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting the social service", zap.Int("port", cfg.API.Port))

	// --- Jaeger Tracing ---
	tracer, tracerCloser, err := tracing.NewTracer(tracing.Config{
		ServiceName:  serviceName,
		Host:         cfg.Jaeger.Host,
		Port:         cfg.Jaeger.Port,
		SamplingRate: cfg.Jaeger.SamplingRate,
	}, logger)
	if err != nil {
		return err
	}
	defer tracerCloser.Close()
	opentracing.SetGlobalTracer(tracer)

	// --- Metrics ---
	reporter := promreporter.NewReporter(promreporter.Options{})
	scope, scopeCloser := tally.NewRootScope(tally.ScopeOptions{
		Prefix:         serviceName,
		CachedReporter: reporter,
		Separator:      promreporter.DefaultSeparator,
	}, time.Second)
	defer scopeCloser.Close()

	// --- Storage ---
	st, err := openStores(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()
	if cfg.Storage.SeedFile != "" {
		seed, err := loadSeed(ctx, cfg.Storage.SeedFile, st.graph)
		if err != nil {
			return err
		}
		logger.Info("Loaded seed data", zap.Int("users", len(seed.Users)), zap.Int("films", len(seed.Films)))
	}

	e := engine.New(st.graph, st.graph, st.graph)
	ctrl := social.New(st.graph, st.feed, st.graph, e, logger, scope.SubScope("controller"))

	// --- Service registration ---
	registry, err := newRegistry(cfg.ServiceDiscovery.Consul.Address)
	if err != nil {
		return fmt.Errorf("init service registry: %w", err)
	}
	instanceID := discovery.GenerateInstanceID(serviceName)
	hostPort := net.JoinHostPort(cfg.API.Host, fmt.Sprint(cfg.API.Port))
	if err := registry.Register(ctx, instanceID, serviceName, hostPort); err != nil {
		return fmt.Errorf("register service: %w", err)
	}
	defer registry.Deregister(context.Background(), instanceID, serviceName)

	// --- gRPC server ---
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(ratelimit.UnaryServerInterceptor(newLimiter(cfg.API.RateLimit, cfg.API.RateLimit))),
	}
	if cfg.API.TLS.CertFile != "" {
		tlsConfig, err := loadTLS(cfg.API.TLS)
		if err != nil {
			return err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}
	srv := grpc.NewServer(opts...)
	h := grpchandler.New()
	h.Register(srv)

	lis, err := net.Listen("tcp", hostPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", reporter.HTTPHandler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := registry.ReportHealthyState(instanceID, serviceName); err != nil {
					logger.Warn("Failed to report healthy state", zap.Error(err))
				}
			}
		}
	})
	g.Go(func() error {
		h.SetServing(true)
		logger.Info("Serving gRPC", zap.String("addr", hostPort))
		return srv.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("Serving metrics", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Kafka.Enabled {
		ingester, err := kafka.NewIngester(cfg.Kafka.Addr, cfg.Kafka.GroupID, cfg.Kafka.Topic, logger)
		if err != nil {
			return fmt.Errorf("create ingester: %w", err)
		}
		g.Go(func() error {
			logger.Info("Consuming graph events", zap.String("topic", cfg.Kafka.Topic))
			return ctrl.StartIngestion(ctx, ingester)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Attempting graceful shutdown")
		h.Shutdown()
		srv.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Graceful stopped the social service")
	return err
}

func newRegistry(consulAddr string) (discovery.Registry, error) {
	if consulAddr == "" {
		return memoryregistry.NewRegistry(), nil
	}
	return consul.NewRegistry(consulAddr)
}

func loadTLS(cfg tlsConfig) (*tls.Config, error) {
	serverCert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server certificate and key: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		MinVersion:   tls.VersionTLS13,
	}
	if cfg.CAFile == "" {
		return tlsConfig, nil
	}
	caCert, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to append CA certificate")
	}
	tlsConfig.ClientCAs = certPool
	tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	return tlsConfig, nil
}

type limiter struct {
	l *rate.Limiter
}

func newLimiter(limit int, burst int) *limiter {
	return &limiter{rate.NewLimiter(rate.Limit(limit), burst)}
}

// Limit reports whether the request must be rejected.
func (l *limiter) Limit() bool {
	return !l.l.Allow()
}
