package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig enables OTLP log export
type LogsConfig struct {
	Collector
	Enabled bool
}

// LoggerProvider owns the SDK logger provider behind the zap bridge
type LoggerProvider struct {
	sdk     *sdklog.LoggerProvider
	service string
}

// NewLoggerProvider installs a batching OTLP logger provider globally
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, log *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{service: cfg.ServiceName}
	if !cfg.Enabled {
		log.Info("Log export disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("log exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	lp.sdk = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp.sdk)

	log.Info("Log export enabled", zap.String("collector", cfg.Endpoint))
	return lp, nil
}

func (lp *LoggerProvider) IsEnabled() bool {
	return lp != nil && lp.sdk != nil
}

// Shutdown exports buffered records
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if !lp.IsEnabled() {
		return nil
	}
	return flush(ctx, "logs", lp.sdk.Shutdown)
}

// NewZapOTELCore forwards zap entries at or above level to the OTLP logger
// provider. A disabled or nil provider yields a no-op core, so the result can
// always be teed onto the process logger.
func NewZapOTELCore(lp *LoggerProvider, level zapcore.Level) zapcore.Core {
	if !lp.IsEnabled() {
		return zapcore.NewNopCore()
	}
	bridge := otelzap.NewCore(lp.service, otelzap.WithLoggerProvider(lp.sdk))
	core, err := zapcore.NewIncreaseLevelCore(bridge, level)
	if err != nil {
		return bridge
	}
	return core
}
