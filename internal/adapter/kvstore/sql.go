package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/niksmo/storefront/internal/core/port"
	_ "modernc.org/sqlite"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

var _ port.KVStore = (*SQLStore)(nil)

type sqldb interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}

type dialect struct {
	name   string
	create string
	get    string
	set    string
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	create: `
		CREATE TABLE IF NOT EXISTS kv_items (
			namespace  TEXT NOT NULL,
			item_key   TEXT NOT NULL,
			item_value BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (namespace, item_key)
		);`,
	get: `
		SELECT item_value FROM kv_items
		WHERE namespace = ? AND item_key = ?;`,
	set: `
		INSERT INTO kv_items (namespace, item_key, item_value)
		VALUES (?, ?, ?)
		ON CONFLICT (namespace, item_key) DO UPDATE SET
			item_value = excluded.item_value,
			updated_at = CURRENT_TIMESTAMP;`,
}

// The postgres table is created by migrations.
var postgresDialect = dialect{
	name: DriverPostgres,
	get: `
		SELECT item_value FROM kv_items
		WHERE namespace = $1 AND item_key = $2;`,
	set: `
		INSERT INTO kv_items (namespace, item_key, item_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, item_key) DO UPDATE SET
			item_value = EXCLUDED.item_value,
			updated_at = now();`,
}

// A SQLStore keeps values in the kv_items table.
//
// Keys are scoped by namespace so several profiles can share one database.
type SQLStore struct {
	sqldb     sqldb
	dialect   dialect
	namespace string
}

// Open returns a store for the given driver.
//
// DriverMemory ignores dsn and returns a [Memory].
func Open(
	ctx context.Context, driver, dsn, namespace string,
) (port.KVStore, func(), error) {
	const op = "kvstore.Open"

	switch driver {
	case DriverMemory, "":
		return NewMemory(), func() {}, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, dsn, namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, s.Close, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, dsn, namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownDriver, driver)
	}
}

func OpenSQLite(ctx context.Context, path, namespace string) (*SQLStore, error) {
	const op = "kvstore.OpenSQLite"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(1)

	s := newSQLStore(db, sqliteDialect, namespace)
	if err := s.ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, sqliteDialect.create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to create table: %w", op, err)
	}
	return s, nil
}

func OpenPostgres(ctx context.Context, dsn, namespace string) (*SQLStore, error) {
	const op = "kvstore.OpenPostgres"

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	connStr := stdlib.RegisterConnConfig(connConfig)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := newSQLStore(db, postgresDialect, namespace)
	if err := s.ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newSQLStore(db sqldb, d dialect, namespace string) *SQLStore {
	if namespace == "" {
		namespace = "default"
	}
	return &SQLStore{sqldb: db, dialect: d, namespace: namespace}
}

func (s *SQLStore) ping(ctx context.Context) error {
	const op = "SQLStore.ping"
	if err := s.sqldb.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: database unavailable: %w", op, err)
	}
	slog.Debug("database is available", "op", op, "driver", s.dialect.name)
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "SQLStore.Get"

	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var v []byte
	err := s.sqldb.QueryRowContext(ctx, s.dialect.get, s.namespace, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	const op = "SQLStore.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if value == nil {
		value = []byte{}
	}

	_, err := s.sqldb.ExecContext(ctx, s.dialect.set, s.namespace, key, value)
	if err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

func (s *SQLStore) Close() {
	const op = "SQLStore.Close"
	log := slog.With("op", op)

	if err := s.sqldb.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Debug("sql database is closed")
}
