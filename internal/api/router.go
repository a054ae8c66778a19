package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/VJYGOUR/auth-system/internal/api/handlers"
)

// RouterOptions wires handlers and middleware into the router.
type RouterOptions struct {
	// AllowedOrigins is the CORS allow-list. Credentialed requests are
	// only accepted from these origins.
	AllowedOrigins []string

	Authenticate func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler

	Auth      *handlers.AuthHandler
	Events    *handlers.EventHandler
	Dashboard *handlers.DashboardHandler
	Stream    *handlers.StreamHandler
	Metrics   http.Handler
}

// NewRouter creates and configures a new Chi router.
func NewRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	rateLimit := opts.RateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit).Post("/signup", opts.Auth.Signup)
			r.With(rateLimit).Post("/login", opts.Auth.Login)
			r.Post("/logout", opts.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(opts.Authenticate)
				r.Get("/session", opts.Auth.Session)
				r.Get("/events", opts.Events.GetRecent)
				if opts.Stream != nil {
					r.Get("/events/stream", opts.Stream.Serve)
				}
			})
		})

		r.With(opts.Authenticate).Get("/dashboard", opts.Dashboard.Get)
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	level := zerolog.InfoLevel
	if status >= http.StatusInternalServerError {
		level = zerolog.ErrorLevel
	}
	hlog.FromRequest(r).WithLevel(level).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}
