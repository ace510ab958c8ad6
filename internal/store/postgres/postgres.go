package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

var (
	ErrNotInTx     = errors.New("not in transaction")
	ErrAlreadyInTx = errors.New("already in transaction")
)

// Options defines the connection parameters for PostgreSQL.
type Options struct {
	Username        string
	Password        string
	Host            string
	Port            int
	Database        string
	SslMode         string
	MaxConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DB is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Builder is the subset of goqu shared by database and transaction handles.
type Builder interface {
	From(table ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
	Update(table interface{}) *goqu.UpdateDataset
}

// PgSQL implements core.Store and core.QuoteRepo on PostgreSQL.
type PgSQL struct {
	// DB is a *sql.DB outside a transaction and a *sql.Tx inside one.
	DB      DB
	Builder Builder
	Pool    *pgxpool.Pool
}

// New opens a pgx pool and wraps it in database/sql for goqu and goose.
func New(ctx context.Context, options Options) (*PgSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		options.Host,
		options.Port,
		options.Username,
		options.Database,
		options.Password,
		options.SslMode)
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("could not parse pgxpool config: %w", err)
	}
	if options.MaxConns > 0 {
		cfg.MaxConns = int32(options.MaxConns) //nolint: gosec
	}
	if options.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = options.ConnMaxLifetime
	}
	if options.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = options.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create pgx pool: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	return &PgSQL{
		DB:      sqlDB,
		Builder: goqu.Dialect("postgres").DB(sqlDB),
		Pool:    pool,
	}, nil
}

// NewFromDB wraps an existing *sql.DB. Used with sqlmock in tests.
func NewFromDB(db *sql.DB) *PgSQL {
	return &PgSQL{
		DB:      db,
		Builder: goqu.Dialect("postgres").DB(db),
	}
}

func (p *PgSQL) Close() error {
	if db, ok := p.DB.(*sql.DB); ok {
		_ = db.Close()
	}
	if p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}

func (p *PgSQL) Ping(ctx context.Context) error {
	if p.Pool != nil {
		return p.Pool.Ping(ctx)
	}
	if db, ok := p.DB.(*sql.DB); ok {
		return db.PingContext(ctx)
	}
	return nil
}

// Begin returns a PgSQL bound to a new transaction.
func (p *PgSQL) Begin(ctx context.Context) (*PgSQL, error) {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return nil, ErrAlreadyInTx
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin tx: %w", err)
	}

	return &PgSQL{
		DB:      tx,
		Builder: goqu.NewTx("postgres", tx),
	}, nil
}

func (p *PgSQL) Commit() error {
	tx, ok := p.DB.(*sql.Tx)
	if !ok {
		return ErrNotInTx
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit tx: %w", err)
	}
	return nil
}

func (p *PgSQL) Rollback() error {
	tx, ok := p.DB.(*sql.Tx)
	if !ok {
		return ErrNotInTx
	}
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("could not rollback tx: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing when it returns nil.
func (p *PgSQL) WithTx(ctx context.Context, fn func(repo core.Repository) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

var (
	_ core.Store     = (*PgSQL)(nil)
	_ core.QuoteRepo = (*PgSQL)(nil)
)
