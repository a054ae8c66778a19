// Package app assembles the server from its configuration.
package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/samber/oops"

	"github.com/VJYGOUR/auth-system/internal/api"
	"github.com/VJYGOUR/auth-system/internal/api/handlers"
	"github.com/VJYGOUR/auth-system/internal/auth"
	"github.com/VJYGOUR/auth-system/internal/config"
	"github.com/VJYGOUR/auth-system/internal/database"
	"github.com/VJYGOUR/auth-system/internal/metrics"
	"github.com/VJYGOUR/auth-system/internal/monitoring"
	"github.com/VJYGOUR/auth-system/internal/services"
	"github.com/VJYGOUR/auth-system/internal/store"
	ws "github.com/VJYGOUR/auth-system/internal/websocket"
)

// App holds the wired server and the resources it owns.
type App struct {
	Handler   http.Handler
	DB        *database.DB
	Registry  *prometheus.Registry
	Scheduler *monitoring.Scheduler

	limiter *api.RateLimiter
	hub     *ws.Hub
	stopHub context.CancelFunc
}

// New opens the database, applies migrations and wires every component.
// The event stream hub runs immediately; the scheduler waits for Start.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, oops.Code("APP_INIT_FAILED").With("operation", "open database").Wrap(err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if err := database.Migrate(ctx, db); err != nil {
		return nil, oops.Code("APP_INIT_FAILED").With("operation", "migrate").Wrap(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	hasher, err := auth.NewPasswordHasher(cfg.HashAlgorithm, cfg.BcryptCost)
	if err != nil {
		return nil, oops.Code("APP_INIT_FAILED").With("operation", "password hasher").Wrap(err)
	}
	passwords := auth.NewHashPool(hasher, cfg.HashWorkers, collector)

	credentials, err := services.NewCredentialService(ctx, store.NewUserStore(db), passwords)
	if err != nil {
		return nil, err
	}
	hub := ws.NewHub()
	events := services.NewEventService(store.NewEventStore(db), hub)

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL, nil)
	sameSite, err := cfg.SameSite()
	if err != nil {
		return nil, err
	}
	cookies, err := auth.NewCookieTransport(auth.CookieConfig{
		Name:     cfg.CookieName,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: sameSite,
		MaxAge:   cfg.TokenTTL,
	})
	if err != nil {
		return nil, oops.Code("APP_INIT_FAILED").With("operation", "cookie transport").Wrap(err)
	}

	scheduler, err := monitoring.NewScheduler(events, cfg.AuditPruneSchedule, cfg.AuditRetention)
	if err != nil {
		return nil, err
	}

	limiter := api.NewRateLimiter(api.RateLimiterConfig{
		PerMinute: cfg.AuthRateLimit,
		Burst:     cfg.AuthRateBurst,
	})

	router := api.NewRouter(api.RouterOptions{
		AllowedOrigins: cfg.FrontendOrigins,
		Authenticate:   auth.Middleware(cookies, tokens, collector),
		RateLimit:      limiter.Middleware,
		Auth:           handlers.NewAuthHandler(credentials, tokens, cookies, events, collector),
		Events:         handlers.NewEventHandler(events),
		Dashboard:      handlers.NewDashboardHandler(credentials),
		Stream:         handlers.NewStreamHandler(hub, cfg.FrontendOrigins),
		Metrics:        metrics.Handler(reg),
	})

	log.Info().
		Str("database", db.Dialect.String()).
		Str("hash_algorithm", cfg.HashAlgorithm).
		Dur("token_ttl", cfg.TokenTTL).
		Strs("origins", cfg.FrontendOrigins).
		Msg("Application initialised")

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	return &App{
		Handler:   router,
		DB:        db,
		Registry:  reg,
		Scheduler: scheduler,
		limiter:   limiter,
		hub:       hub,
		stopHub:   stopHub,
	}, nil
}

// Start launches background jobs.
func (a *App) Start() {
	a.Scheduler.Start()
}

// Close stops background work and closes the database. It waits for a
// running prune job until ctx ends.
func (a *App) Close(ctx context.Context) error {
	a.Scheduler.Stop(ctx)
	a.limiter.Stop()
	a.stopHub()
	<-a.hub.Done()
	if err := a.DB.Close(); err != nil {
		return oops.Code("APP_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
