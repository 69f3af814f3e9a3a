package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewTracer(t *testing.T) {
	tracer, closer, err := NewTracer(Config{ServiceName: "social", Host: "localhost", Port: 6831, SamplingRate: 0.5}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, tracer)
	require.NoError(t, closer.Close())
}

func TestNewTracerRequiresServiceName(t *testing.T) {
	_, _, err := NewTracer(Config{Host: "localhost", Port: 6831, SamplingRate: 1}, zap.NewNop())
	assert.Error(t, err)
}

func TestLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	adapter := &jaegerLoggerAdapter{logger: zap.New(core)}

	adapter.Infof("reporting %d spans", 3)
	adapter.Error("agent unreachable")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "reporting 3 spans", entries[0].Message)
	assert.Equal(t, "agent unreachable", entries[1].Message)
}
