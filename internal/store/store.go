// Package store is the durable home of items, bid history, profit analyses,
// the watchlist and scrape sessions. Every operation runs in its own
// transaction on an explicitly constructed handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures the backing database.
type Options struct {
	// Driver is DriverSQLite (default) or DriverPostgres.
	Driver string
	// Path is the SQLite database file.
	Path string
	// URL is the PostgreSQL connection URL.
	URL string

	Now    func() time.Time
	Logger *logger.Logger
}

// Store is safe for concurrent use.
type Store struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
	log     *logger.Logger
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite:
		if opts.Path == "" {
			return nil, apperrors.NewValidation("store", "sqlite database path is required")
		}
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, apperrors.NewPersistence("open", err)
			}
		}
		db, err = sql.Open("sqlite", opts.Path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err == nil {
			// SQLite allows a single writer.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		if opts.URL == "" {
			return nil, apperrors.NewValidation("store", "postgres database URL is required")
		}
		db, err = sql.Open("postgres", opts.URL)
	default:
		return nil, apperrors.NewValidation("store", fmt.Sprintf("unsupported driver %q", opts.Driver))
	}
	if err != nil {
		return nil, apperrors.NewPersistence("open", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewPersistence("ping", err)
	}

	if err := RunMigrations(opts); err != nil {
		db.Close()
		return nil, err
	}

	opts.Logger.Info().
		Str("driver", opts.Driver).
		Msg("Store opened")

	return &Store{db: db, dialect: opts.Driver, now: opts.Now, log: opts.Logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewPersistence("ping", err)
	}
	return nil
}

// withTx runs fn in a transaction: commit on success, roll back and wrap the
// error as a persistence failure otherwise.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistence(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn().Err(rbErr).Str("operation", op).Msg("Rollback failed")
		}
		if apperrors.IsType(err, apperrors.ErrorTypePersistence) {
			return err
		}
		return apperrors.NewPersistence(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistence(op, err)
	}
	return nil
}

// q rewrites ? placeholders for the active dialect.
func (s *Store) q(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	return rebind(query)
}

func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: millis(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

type scanner interface {
	Scan(dest ...any) error
}
