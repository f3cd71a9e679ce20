package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carlist/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ErrNoDatabase is returned when neither DATABASE_URL nor DATABASE_PATH is set.
var ErrNoDatabase = errors.New("database: no DATABASE_URL or DATABASE_PATH configured")

// Options selects the backing store. DSN (Postgres) wins over Path (SQLite file).
type Options struct {
	DSN   string
	Path  string
	Debug bool
}

// Open opens the GORM pool. SQLite is the default store; the file and its parent
// directory are created on demand.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(opts Options) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: newGormLogger(opts.Debug)}
	switch {
	case opts.DSN != "":
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.DSN,
			PreferSimpleProtocol: true,
		}), gcfg)
	case opts.Path != "":
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("database: create dir: %w", err)
			}
		}
		return gorm.Open(sqlite.Open(opts.Path+"?_pragma=busy_timeout(5000)"), gcfg)
	default:
		return nil, ErrNoDatabase
	}
}

// Bootstrap creates the car_listings table when the store does not have it yet.
// It reports whether the schema was created; an existing store is left untouched.
func Bootstrap(db *gorm.DB) (bool, error) {
	if db.Migrator().HasTable(&domain.Listing{}) {
		return false, nil
	}
	if err := InitSchema(db); err != nil {
		return false, err
	}
	return true, nil
}

// InitSchema drops and recreates the car_listings table from the embedded schema script.
func InitSchema(db *gorm.DB) error {
	script, err := schemaFS.ReadFile("schema/" + db.Dialector.Name() + ".sql")
	if err != nil {
		return fmt.Errorf("database: no schema for dialect %q: %w", db.Dialector.Name(), err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range splitStatements(string(script)) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("database: exec schema: %w", err)
			}
		}
		return nil
	})
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Ping checks the pool; used by the health handler.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newGormLogger routes GORM's SQL log through zerolog. Missing rows are an expected
// outcome (404), not a warning.
func newGormLogger(debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	log.Debug().Str("component", "gorm").Msg(fmt.Sprintf(format, args...))
}
