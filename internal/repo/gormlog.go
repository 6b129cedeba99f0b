package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger sends GORM output to the zerolog logger in ctx, so SQL errors and
// slow queries carry the request ID of the scan that caused them.
type gormLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(slow time.Duration) *gormLogger {
	return &gormLogger{level: logger.Warn, slow: slow}
}

func (g *gormLogger) LogMode(l logger.LogLevel) logger.Interface {
	c := *g
	c.level = l
	return &c
}

func (g *gormLogger) from(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= logger.Info {
		g.from(ctx).Info().Msgf(msg, args...)
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= logger.Warn {
		g.from(ctx).Warn().Msgf(msg, args...)
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= logger.Error {
		g.from(ctx).Error().Msgf(msg, args...)
	}
}

// Trace logs failed statements at error level (not-found is expected and
// skipped) and statements slower than the threshold at warn.
func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.from(ctx).Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("sql error")
	case g.slow > 0 && elapsed > g.slow && g.level >= logger.Warn:
		sql, rows := fc()
		g.from(ctx).Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow sql")
	case g.level >= logger.Info:
		sql, rows := fc()
		g.from(ctx).Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("sql")
	}
}
