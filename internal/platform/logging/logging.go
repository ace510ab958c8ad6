package logging

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// New builds a zap logger for env and exposes it through slog so the rest of
// the service only depends on log/slog.
func New(env string) *slog.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "prod", "production":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		logger = zap.NewNop()
	}

	return slog.New(zapslog.NewHandler(logger.Core(), zapslog.WithCaller(true)))
}
