package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger implements gorm's logger.Interface on top of zap, so SQL logs
// share the application's structured log pipeline. Queries slower than the
// threshold are logged at warn level.
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// NewGormLogger creates a gorm logger backed by the given zap logger.
func NewGormLogger(logger *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration, ignoreRecordNotFoundError bool) *GormLogger {
	return &GormLogger{
		logger:                    logger,
		logLevel:                  level,
		slowThreshold:             slowThreshold,
		ignoreRecordNotFoundError: ignoreRecordNotFoundError,
	}
}

// LogMode returns a copy of the logger with the given level.
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *g
	newLogger.logLevel = level
	return &newLogger
}

func (g *GormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if g.logLevel >= gormlogger.Info {
		g.logger.Sugar().Infof(msg, data...)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.logLevel >= gormlogger.Warn {
		g.logger.Sugar().Warnf(msg, data...)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if g.logLevel >= gormlogger.Error {
		g.logger.Sugar().Errorf(msg, data...)
	}
}

// Trace logs the executed SQL with its duration and affected row count.
func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && g.logLevel >= gormlogger.Error &&
		(!g.ignoreRecordNotFoundError || !errors.Is(err, gorm.ErrRecordNotFound)):
		g.logger.Error("Query failed",
			zap.Error(err),
			zap.Duration("elapsed", elapsed),
			zap.String("sql", sql),
			zap.Int64("rows", rows))
	case g.slowThreshold != 0 && elapsed > g.slowThreshold && g.logLevel >= gormlogger.Warn:
		g.logger.Warn("Slow query",
			zap.Duration("elapsed", elapsed),
			zap.String("sql", sql),
			zap.Int64("rows", rows))
	case g.logLevel >= gormlogger.Info:
		g.logger.Info("Query",
			zap.Duration("elapsed", elapsed),
			zap.String("sql", sql),
			zap.Int64("rows", rows))
	}
}
