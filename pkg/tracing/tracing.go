package tracing

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
	"go.uber.org/zap"
)

// Config holds Jaeger agent settings.
type Config struct {
	ServiceName string
	Host        string
	Port        int
	// SamplingRate is the fraction of traces sampled, in [0, 1].
	SamplingRate float64
}

// NewTracer creates a Jaeger tracer logging through logger. The returned
// closer flushes buffered spans and must be closed on shutdown.
func NewTracer(cfg Config, logger *zap.Logger) (opentracing.Tracer, io.Closer, error) {
	sampler := &config.SamplerConfig{Type: "const", Param: 1}
	if cfg.SamplingRate < 1 {
		sampler = &config.SamplerConfig{Type: "probabilistic", Param: cfg.SamplingRate}
	}
	jcfg := &config.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler:     sampler,
		Reporter: &config.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		},
	}

	tracer, closer, err := jcfg.NewTracer(
		config.Logger(&jaegerLoggerAdapter{logger: logger}),
		config.Metrics(metrics.NullFactory),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Jaeger tracer: %w", err)
	}
	return tracer, closer, nil
}

// jaegerLoggerAdapter adapts zap logger to Jaeger logger interface
type jaegerLoggerAdapter struct {
	logger *zap.Logger
}

func (l *jaegerLoggerAdapter) Error(msg string) {
	l.logger.Error(msg)
}

func (l *jaegerLoggerAdapter) Infof(msg string, args ...interface{}) {
	l.logger.Sugar().Infof(msg, args...)
}
