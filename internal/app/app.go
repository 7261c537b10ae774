// Package app wires the HTTP server together: configuration, storage,
// domain services, the event dispatcher, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/corvinae/shopengine/internal/domain/audit"
	"github.com/corvinae/shopengine/internal/domain/cart"
	"github.com/corvinae/shopengine/internal/domain/inventory"
	"github.com/corvinae/shopengine/internal/domain/order"
	"github.com/corvinae/shopengine/internal/handler"
	"github.com/corvinae/shopengine/internal/hooks"
	"github.com/corvinae/shopengine/internal/storage/postgres"
	"github.com/corvinae/shopengine/pkg/health"
	"github.com/corvinae/shopengine/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	taxRate, shipping, err := cfg.Pricing.Parse()
	if err != nil {
		return errors.Wrap(err, "pricing config")
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.WithStatementTimeout(cfg.StatementTimeout))
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	auditStore := postgres.NewAuditStore(pool)

	// Audit recorder and inventory ledger.
	recorder := audit.NewRecorder(auditStore, lg.Named("audit"), cfg.Audit.Attempts, cfg.Audit.Backoff)
	ledger := inventory.NewLedger(inventoryRepo, recorder, lg.Named("inventory"))

	// Event dispatcher with the built-in side effects.
	dispatcherOpts := []hooks.Option{hooks.WithTimeout(cfg.Hooks.Timeout)}
	if cfg.Hooks.Concurrent {
		dispatcherOpts = append(dispatcherOpts, hooks.WithConcurrency())
	}
	dispatcher := hooks.NewDispatcher(lg.Named("hooks"), dispatcherOpts...)
	registerHooks(dispatcher, ledger, recorder)

	// Domain services.
	cartService := cart.NewService(cartRepo, catalogRepo, taxRate, shipping)
	orderService := order.NewService(orderRepo, cartRepo, catalogRepo, dispatcher, taxRate, shipping)

	// HTTP handlers. Instrumentation runs inside the router so the matched
	// route pattern is available for metric labels.
	h := handler.New(cartService, orderService, ledger)

	api := chi.NewRouter()
	api.Use(httpmiddleware.Instrument("shopengine-api", chiRoutePattern, m))
	api.Use(httpmiddleware.LogRequests())
	api.Mount("/", h.Routes())

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", otelhttp.NewHandler(api, "shopengine",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Admin-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// chiRoutePattern resolves the matched chi route pattern after routing, so
// metrics are labeled "/carts/{cartID}" rather than one series per cart ID.
func chiRoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
