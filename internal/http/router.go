package transporthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/swaggo/swag"

	"github.com/MrKriegler/go-policy-admin/internal/http/handlers"
	"github.com/MrKriegler/go-policy-admin/internal/http/health"
	"github.com/MrKriegler/go-policy-admin/internal/middleware"
	"github.com/MrKriegler/go-policy-admin/pkg/policyapi"
)

// Deps bundles feature handlers and the operational endpoints.
type Deps struct {
	Log    *slog.Logger
	Mounts []handlers.Mountable

	Pinger         health.Pinger
	Metrics        http.Handler // nil disables /metrics
	RateLimiter    *middleware.RateLimiter
	JWTSecret      string
	AllowedOrigins []string
	RequestTimeout time.Duration
	PingTimeout    time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(chimw.Timeout(d.RequestTimeout))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(middleware.LimitRequestBody(middleware.MaxBodySize))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}
	r.Use(middleware.JWTAuth(d.JWTSecret))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		policyapi.WriteFailure(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		policyapi.WriteFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if d.Pinger != nil {
		health.New(d.Log, d.Pinger, d.PingTimeout).Mount(r)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Get("/swagger/doc.json", swaggerDoc(d.Log))

	r.Group(func(r chi.Router) {
		r.Use(middleware.SetJSONContentType)

		// Mount each feature's routes into this router.
		for _, m := range d.Mounts {
			m.Mount(r)
		}
	})

	return r
}

func swaggerDoc(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			log.ErrorContext(r.Context(), "failed to read swagger doc", "err", err)
			policyapi.WriteFailure(w, http.StatusInternalServerError, "Documentation unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down within grace.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
