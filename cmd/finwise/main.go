package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finwise/internal/auth"
	"finwise/internal/cli"
	apphttp "finwise/internal/http"
	"finwise/internal/log"
	"finwise/internal/middleware/security"
	"finwise/internal/services"
)

// dashboardCacheUsers bounds how many users' dashboards are memoised.
const dashboardCacheUsers = 1024

const cacheSweepInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.IsDevelopment() {
		logger.Warn("Running with development settings", "app_env", cfg.AppEnv)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	detector, err := security.NewDetector(cfg.TrustedProxies...)
	if err != nil {
		logger.Error("Invalid TRUSTED_PROXIES", log.FieldError, err)
		os.Exit(1)
	}

	store := be.Store
	dashboards := services.NewDashboardCache(dashboardCacheUsers, time.Minute)
	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Accounts:     services.NewAccountService(store, store, auth.NewHasher(cfg.BcryptCost), be.Publisher, logger),
		Transactions: services.NewTransactionService(store, be.Publisher, logger).
			WithDashboardCache(dashboards),
		Settings:     services.NewSettingsService(store, logger),
		Auth: auth.NewAuthenticator(store, store, auth.Options{
			Secret:       []byte(cfg.SecretKey),
			Lifetime:     cfg.SessionLifetime,
			CookieSecure: cfg.CookieSecure,
		}),
		Store:              store,
		Logger:             logger,
		Detector:           detector,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finwise server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cacheSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				removed := dashboards.CleanExpired()
				st := dashboards.Stats()
				logger.Debug("Dashboard cache swept",
					"expired", removed,
					"size", st.Size,
					"hits", st.Hits,
					"misses", st.Misses,
					"evictions", st.Evictions)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
