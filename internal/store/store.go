// Package store opens the persistence backend selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/internal/platform/config"
	"github.com/MrKriegler/go-policy-admin/internal/store/dynamo"
	"github.com/MrKriegler/go-policy-admin/internal/store/memory"
	"github.com/MrKriegler/go-policy-admin/internal/store/mongo"
	"github.com/MrKriegler/go-policy-admin/internal/store/postgres"
)

// Backend is an opened store with the repositories the services need.
type Backend struct {
	Kind     string
	Policies core.Store
	Quotes   core.QuoteRepo
	Pinger   interface{ Ping(ctx context.Context) error }

	// Prepare applies migrations, indexes or tables for the backend.
	Prepare func(ctx context.Context) error
	Close   func(ctx context.Context) error
}

func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backend, error) {
	switch cfg.DBType {
	case config.DBMemory:
		st := memory.New()
		return &Backend{
			Kind:     cfg.DBType,
			Policies: st,
			Quotes:   st,
			Pinger:   st,
			Prepare:  func(context.Context) error { return nil },
			Close:    func(context.Context) error { return nil },
		}, nil

	case config.DBPostgres:
		pg, err := postgres.New(ctx, postgres.Options{
			Username: cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			Database: cfg.PostgresDB,
			SslMode:  cfg.PostgresSSLMode,
			MaxConns: cfg.PostgresMaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &Backend{
			Kind:     cfg.DBType,
			Policies: pg,
			Quotes:   pg,
			Pinger:   pg,
			Prepare:  pg.Migrate,
			Close:    func(context.Context) error { return pg.Close() },
		}, nil

	case config.DBMongo:
		client, err := mongo.NewClient(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		opTimeout := time.Duration(cfg.MongoOpTimeoutMs) * time.Millisecond
		return &Backend{
			Kind:     cfg.DBType,
			Policies: mongo.NewPolicyRepo(client.DB, opTimeout, cfg.MongoUseTransactions),
			Quotes:   mongo.NewQuoteRepo(client.DB, opTimeout),
			Pinger:   client,
			Prepare:  func(ctx context.Context) error { return mongo.EnsureIndexes(ctx, client.DB) },
			Close:    client.Close,
		}, nil

	case config.DBDynamo:
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("open dynamodb: %w", err)
		}
		return &Backend{
			Kind:     cfg.DBType,
			Policies: dynamo.NewPolicyRepo(client.DB),
			Quotes:   dynamo.NewQuoteRepo(client.DB),
			Pinger:   client,
			Prepare:  func(ctx context.Context) error { return dynamo.EnsureTables(ctx, client.DB, log) },
			Close:    func(context.Context) error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
}
