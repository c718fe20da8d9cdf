package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver           string
	Table            string
	IDColumn         string // overrides the detection heuristic when set
	StatementTimeout time.Duration
}

// Store executes validated statements against the employee table.
// It is safe for concurrent use; every statement gets its own connection.
type Store struct {
	db   *sqlx.DB
	opts Options
	log  *zap.Logger
}

// Open connects to dsn and pings it within a few seconds.
func Open(ctx context.Context, dsn string, opts Options, log *zap.Logger) (*Store, error) {
	switch opts.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if opts.Driver == DriverSQLite {
		// one writer at a time; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return New(db, opts, log), nil
}

func New(db *sqlx.DB, opts Options, log *zap.Logger) *Store {
	if opts.Table == "" {
		opts.Table = "employees"
	}
	if opts.StatementTimeout <= 0 {
		opts.StatementTimeout = 10 * time.Second
	}
	return &Store{db: db, opts: opts, log: log}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Table() string { return s.opts.Table }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
