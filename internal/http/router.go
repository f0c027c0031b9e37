package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig collects the handlers and cross cutting pieces mounted by NewRouter.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Rooms        *RoomHandler
	Reservations *ReservationHandler

	Sessions SessionValidator
	Logger   *slog.Logger

	// AllowedOrigins configures CORS. An empty list disables the CORS handler.
	AllowedOrigins []string

	// Health reports storage readiness for /healthz.
	Health func(ctx context.Context) error

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Middleware runs after request ids, logging and panic recovery.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := orDefault(cfg.Logger)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionTokenHeader},
			ExposedHeaders:   []string{sessionTokenHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	requireSession := RequireSession(cfg.Sessions, logger)
	requireAdmin := RequireAdmin(logger)

	if cfg.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
			r.Post("/logout", cfg.Auth.Logout)
			r.With(requireSession).Get("/me", cfg.Auth.Me)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(requireSession)

		if cfg.Rooms != nil {
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", cfg.Rooms.List)
				r.Get("/{id}", cfg.Rooms.Get)
				if cfg.Reservations != nil {
					r.Get("/{id}/schedule", cfg.Reservations.Schedule)
				}
				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/", cfg.Rooms.Create)
					r.Put("/{id}", cfg.Rooms.Update)
					r.Delete("/{id}", cfg.Rooms.Delete)
				})
			})
		}

		if cfg.Reservations != nil {
			r.Route("/reservations", func(r chi.Router) {
				r.Get("/", cfg.Reservations.List)
				r.Post("/", cfg.Reservations.Create)
				r.Get("/{id}", cfg.Reservations.Get)
				r.Delete("/{id}", cfg.Reservations.Delete)
				r.With(requireAdmin).Patch("/{id}/status", cfg.Reservations.UpdateStatus)
			})
		}

		if cfg.Users != nil {
			r.Route("/users", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", cfg.Users.List)
				r.Post("/", cfg.Users.Create)
				r.Put("/{id}/role", cfg.Users.SetRole)
				r.Delete("/{id}", cfg.Users.Delete)
			})
		}
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := newResponder(LoggerFromContext(r.Context()))
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
