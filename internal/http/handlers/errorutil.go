package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MrKriegler/go-policy-admin/internal/core"
	"github.com/MrKriegler/go-policy-admin/internal/middleware"
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

// writeError logs by kind and writes the failure envelope. Lifecycle failures
// are all reported as 400 with the client-safe message.
func writeError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest

	switch {
	case errors.Is(err, core.ErrNotFound):
		log.WarnContext(ctx, "resource not found", "err", err)
	case errors.Is(err, core.ErrValidation):
		log.WarnContext(ctx, "validation failed", "err", err)
	case errors.Is(err, core.ErrInvalidState):
		log.WarnContext(ctx, "lifecycle rule rejected request", "err", err)
	case errors.Is(err, core.ErrConflict):
		log.WarnContext(ctx, "resource conflict", "err", err)
	case errors.Is(err, core.ErrUnauthorized), errors.Is(err, core.ErrForbidden):
		log.WarnContext(ctx, "unauthorized request", "err", err)
		status = http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		log.ErrorContext(ctx, "operation timeout", "err", err)
	default:
		log.ErrorContext(ctx, "operation failed", "err", err)
	}

	policyapi.WriteFailure(w, status, core.MessageOf(err))
}

func writeOK[T any](ctx context.Context, log *slog.Logger, w http.ResponseWriter, v T, msg string) {
	if err := policyapi.Write(w, http.StatusOK, policyapi.OK(v, msg)); err != nil {
		log.ErrorContext(ctx, "failed to encode response", "err", err)
	}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// authorize runs the policy association check for the authenticated user.
func authorize(r *http.Request, svc core.PolicyService, policyID int64) error {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return core.ErrUnauthorized
	}
	allowed, err := svc.IsAssociatedWithUser(r.Context(), policyID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return core.ErrUnauthorized
	}
	return nil
}
