package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger sends generation ledger queries to zap. Entries carry the
// request id and trace of the calling request when there is one.
type GormLogger struct {
	base          *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger maps the application log level (debug, info, warn, error,
// silent) onto GORM's levels. Queries slower than slowThreshold are logged
// as warnings; zero disables the check.
func NewGormLogger(base *zap.Logger, level string, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		base:          base.Named("ledger"),
		level:         gormLevel(level),
		slowThreshold: slowThreshold,
	}
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, data []any) {
	if l.level < at {
		return
	}
	log := l.scoped(ctx)
	text := fmt.Sprintf(msg, data...)
	switch at {
	case gormlogger.Error:
		log.Error(text)
	case gormlogger.Warn:
		log.Warn(text)
	default:
		log.Info(text)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)

	var (
		emit func(string, ...zap.Field)
		msg  string
	)
	log := l.scoped(ctx)
	switch {
	case failed && l.level >= gormlogger.Error:
		emit, msg = log.Error, "Ledger query failed"
	case slow && l.level >= gormlogger.Warn:
		emit, msg = log.Warn, "Slow ledger query"
	case l.level >= gormlogger.Info:
		emit, msg = log.Debug, "Ledger query"
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if failed {
		fields = append(fields, zap.Error(err))
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
	}
	emit(msg, fields...)
}

// scoped prefers the request logger, which already carries request_id
func (l *GormLogger) scoped(ctx context.Context) *zap.Logger {
	if _, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return L(ctx, nil).Named("ledger")
	}
	log := withTrace(ctx, l.base)
	if id := RequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return log
}
