package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.TracingConfig{
		Collector: telemetry.Collector{ServiceName: "velvet-studio"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	tp.EnableSpanProfiles()
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	core := telemetry.NewZapOTELCore(lp, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := telemetry.NewZapOTELCore(nil, zapcore.DebugLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewProfiler(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled requires server address", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:         true,
			ApplicationName: "velvet-studio",
		}, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server address")
	})

	t.Run("enabled requires application name", func(t *testing.T) {
		_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:       true,
			ServerAddress: "http://localhost:4040",
		}, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "application name")
	})
}
