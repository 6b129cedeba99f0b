// Package repo persists scan records and idempotency records with GORM on
// SQLite (pure Go) or Postgres.
package repo

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-guias-backend/internal/config"
	"github.com/tbourn/go-guias-backend/internal/domain"
)

// pool sizes the database/sql pool per driver. SQLite serializes writers, so
// a small pool with a busy timeout beats many connections fighting a lock.
type pool struct {
	maxOpen, maxIdle int
	idleTime, life   time.Duration
}

var pools = map[string]pool{
	config.DriverSQLite:   {maxOpen: 4, maxIdle: 4, idleTime: 5 * time.Minute, life: time.Hour},
	config.DriverPostgres: {maxOpen: 20, maxIdle: 5, idleTime: 5 * time.Minute, life: 30 * time.Minute},
}

// sqlitePragmas are applied to every pooled connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

// OpenDB connects to the store selected by cfg, sizes its pool, installs the
// OpenTelemetry plugin when cfg.Tracing is set and migrates the schema.
func OpenDB(cfg config.DBConfig) (*gorm.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}

	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dsn, err := sqliteDSN(cfg.Path)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres: empty DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(200 * time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	p := pools[driver]
	sqlDB.SetMaxOpenConns(p.maxOpen)
	sqlDB.SetMaxIdleConns(p.maxIdle)
	sqlDB.SetConnMaxIdleTime(p.idleTime)
	sqlDB.SetConnMaxLifetime(p.life)

	if cfg.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("gorm tracing: %w", err)
		}
	}
	if err := AutoMigrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// sqliteDSN appends the connection pragmas to path. The parent directory must
// already exist; SQLite would otherwise fail later with an opaque error.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("sqlite: %w", err)
		}
	}
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode(), nil
}

// AutoMigrate creates or updates the registros and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.ScanRecord{}, &domain.Idempotency{})
}
