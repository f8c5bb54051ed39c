// Package app wires configuration, storage, domain services and the HTTP
// server into a running process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/domain/payment"
	"github.com/xenking/duka-api/internal/domain/user"
	"github.com/xenking/duka-api/internal/handler"
	"github.com/xenking/duka-api/internal/mpesa"
	"github.com/xenking/duka-api/internal/repository"
	"github.com/xenking/duka-api/pkg/health"
	"github.com/xenking/duka-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the payment
// poller, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddReadiness("postgres", 5*time.Second, health.PoolPing(pool))
	healthSvc.AddLiveness("goroutines", time.Second, health.GoroutineCount(10000))
	healthSvc.AddLiveness("gc-pause", time.Second, health.GCMaxPause(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	inventoryRepo := repository.NewInventoryRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	wishlistRepo := repository.NewWishlistRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)
	bannerRepo := repository.NewBannerRepository(pool)
	quoteRepo := repository.NewQuotationRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	// Domain services.
	userSvc := user.NewService(userRepo, roleRepo)
	orderSvc := order.NewService(catalogRepo, orderRepo)

	gateway := mpesa.NewClient(cfg.Mpesa.clientConfig())
	paymentSvc := payment.NewService(gateway, txRepo, orderRepo)

	// Background reconciler for pending transactions.
	poller := payment.NewPoller(paymentSvc, txRepo, cfg.Poller.Interval)
	go poller.Run(zctx.Base(ctx, lg.Named("poller")))

	// HTTP surface.
	security := handler.NewSecurity(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL)
	h := handler.NewHandler(handler.Deps{
		Users:     userSvc,
		UserRepo:  userRepo,
		RoleRepo:  roleRepo,
		Catalog:   catalogRepo,
		Inventory: inventoryRepo,
		Reviews:   reviewRepo,
		Carts:     cartRepo,
		Wishlists: wishlistRepo,
		Orders:    orderSvc,
		OrderRepo: orderRepo,
		Payments:  paymentSvc,
		Banners:   bannerRepo,
		Quotes:    quoteRepo,
		Reports:   reportRepo,
		Security:  security,
	})

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveHandler)
	mux.HandleFunc("/readyz", healthSvc.ReadyHandler)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

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
				AllowHeaders:     []string{"Content-Type", "Authorization"},
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
