package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vitronics/storefront/internal/domain/catalog"
	"github.com/vitronics/storefront/internal/domain/checkout"
	"github.com/vitronics/storefront/internal/handler"
	"github.com/vitronics/storefront/internal/session"
	"github.com/vitronics/storefront/pkg/health"
	"github.com/vitronics/storefront/pkg/httpmiddleware"
	"github.com/vitronics/storefront/pkg/kvstore"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Cart state store: Redis > file > memory.
	kv, closeKV, err := openStateStore(cfg.State, lg)
	if err != nil {
		return errors.Wrap(err, "open state store")
	}
	defer closeKV()

	// Catalog loader over an instrumented HTTP client.
	catalogClient := &http.Client{
		Timeout: cfg.Catalog.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}
	loader := catalog.NewLoader(cfg.CatalogURL, catalogClient, lg.Named("catalog"))

	// The page renders a retry banner while the catalog is unavailable, so a
	// failed initial fetch must not stop the server from coming up.
	if err := loader.Load(ctx); err != nil {
		lg.Warn("Initial catalog load failed", zap.Error(err))
	}
	go refreshCatalog(ctx, loader, cfg.Catalog.Refresh, lg.Named("catalog"))

	// Visitor sessions.
	sessions := session.NewManager(kv, loader, checkout.Config{
		StoreName:      cfg.Store.Name,
		ContactLine:    cfg.Store.ContactLine,
		WhatsAppNumber: cfg.Store.WhatsAppNumber,
		DeliveryFee:    decimal.NewFromInt(cfg.Store.DeliveryFee),
	}, lg.Named("session"))
	go sweepSessions(ctx, sessions, cfg.Session, lg)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", 5*time.Second, health.PingCheck(loader))
	healthSvc.AddReadinessCheck("state", 5*time.Second, health.PingCheck(kv))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Mux: health endpoints + storefront pages and actions on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.New(lg.Named("handler"), loader, sessions, cfg.Store.Name).Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(mux,
				httpmiddleware.Recovery(),
				httpmiddleware.CORS(httpmiddleware.CORSConfig{
					AllowOrigins:     cfg.CORS.Origins,
					AllowHeaders:     []string{"Content-Type"},
					AllowCredentials: cfg.CORS.AllowCredentials,
					MaxAge:           86400,
				}),
				httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
					Max:    cfg.RateLimit.Max,
					Window: cfg.RateLimit.Window,
				}),
				httpmiddleware.RequestID(),
				httpmiddleware.InjectLogger(zctx.From(ctx)),
				httpmiddleware.LogRequests(),
			),
			"storefront",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
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

// openStateStore picks the cart state backend from configuration and returns
// it along with a close function.
func openStateStore(cfg StateConfig, lg *zap.Logger) (kvstore.Store, func(), error) {
	switch {
	case cfg.RedisAddr != "":
		r := kvstore.NewRedis(cfg.RedisAddr)
		lg.Info("Cart state in Redis", zap.String("addr", cfg.RedisAddr))
		return r, func() {
			if err := r.Close(); err != nil {
				lg.Warn("Redis close failed", zap.Error(err))
			}
		}, nil
	case cfg.FilePath != "":
		f, err := kvstore.OpenFile(cfg.FilePath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open state file")
		}
		lg.Info("Cart state in file", zap.String("path", cfg.FilePath))
		return f, func() {}, nil
	default:
		lg.Info("Cart state in memory, carts are lost on restart")
		return kvstore.NewMemory(), func() {}, nil
	}
}

// refreshCatalog reloads the product catalog periodically until ctx is
// cancelled. Load failures keep serving the previous snapshot.
func refreshCatalog(ctx context.Context, loader *catalog.Loader, interval time.Duration, lg *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loader.Load(ctx); err != nil {
				lg.Warn("Background catalog reload failed", zap.Error(err))
			}
		}
	}
}

// sweepSessions drops idle in-memory sessions periodically. Their persisted
// carts stay in the state store and are restored on the next visit.
func sweepSessions(ctx context.Context, m *session.Manager, cfg SessionConfig, lg *zap.Logger) {
	if cfg.Sweep <= 0 || cfg.MaxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.Sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(cfg.MaxIdle); n > 0 {
				lg.Debug("Swept idle sessions", zap.Int("count", n))
			}
		}
	}
}
