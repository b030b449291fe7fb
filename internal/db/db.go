package db

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"productos/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open opens a gorm handle for the given driver and DSN. SQL is logged
// through log.
func Open(driver, dsn string, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.NotSupportedf("database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger(log)})
	if err != nil {
		return nil, errors.Annotate(err, "failed to connect database")
	}
	return db, nil
}

// MustOpen is Open that exits the process on failure.
func MustOpen(driver, dsn string, log zerolog.Logger) *gorm.DB {
	db, err := Open(driver, dsn, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", driver).Msg("open database")
	}
	return db
}

// Migrate creates or updates the productos table.
func Migrate(db *gorm.DB) error {
	return errors.Annotate(db.AutoMigrate(&models.Product{}), "migrating productos")
}

func newLogger(log zerolog.Logger) logger.Interface {
	return &gormLogger{
		log:  log.With().Str("component", "gorm").Logger(),
		slow: 200 * time.Millisecond,
	}
}

// gormLogger sends gorm output to zerolog: failed statements at error,
// slow ones at warn, everything else at debug.
type gormLogger struct {
	log  zerolog.Logger
	slow time.Duration
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	switch level {
	case logger.Silent:
		nl.log = l.log.Level(zerolog.Disabled)
	case logger.Error:
		nl.log = l.log.Level(zerolog.ErrorLevel)
	case logger.Warn:
		nl.log = l.log.Level(zerolog.WarnLevel)
	case logger.Info:
		nl.log = l.log.Level(zerolog.DebugLevel)
	}
	return &nl
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	l.log.Info().Msgf(msg, args...)
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	l.log.Warn().Msgf(msg, args...)
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	l.log.Error().Msgf(msg, args...)
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = l.log.Error().Err(err)
	case l.slow > 0 && elapsed > l.slow:
		ev = l.log.Warn().Dur("threshold", l.slow)
	default:
		ev = l.log.Debug()
	}
	if !ev.Enabled() {
		return
	}
	sql, rows := fc()
	ev.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
}
