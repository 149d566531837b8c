// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"leadpilot/internal/config"
	"leadpilot/internal/domain/model"
	"leadpilot/internal/infra/authsvc"
	"leadpilot/internal/infra/cnae"
	pg "leadpilot/internal/infra/db/postgres"
	"leadpilot/internal/infra/logging"
	"leadpilot/internal/infra/metrics"
	red "leadpilot/internal/infra/redis"
	"leadpilot/internal/infra/sched"
	"leadpilot/internal/infra/web"
	"leadpilot/internal/infra/worker"
	"leadpilot/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	feedCache := red.NewFeedCache(redisClient, cfg.Redis.TTL, logger)

	// ---- Repositories ----
	leadRepo := pg.NewPostgresLeadRepo(pool)
	creditRepo := pg.NewPostgresCreditRepo(pool)
	profileRepo := pg.NewPostgresProfileRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- External collaborators ----
	authService, err := authsvc.NewGoTrueAdapter(cfg.Auth.BaseURL, cfg.Auth.APIKey, cfg.Auth.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth adapter failed")
	}
	cnaeDir := cnae.NewStaticDirectory()

	// ---- Background workers ----
	tasks := worker.NewPool(cfg.Worker.Count, logger)
	tasks.Start(ctx)
	defer tasks.Stop()

	// ---- Use cases ----
	clock := usecase.NewDiscountClock(logger)
	catalog := usecase.NewPlanCatalog()
	decider := usecase.NewUpsellDecider(clock, nil, logger)
	presenter := usecase.NewUpsellPresenter(clock, catalog, logger)
	creditUC := usecase.NewCreditUseCase(creditRepo, logger)
	feedUC := usecase.NewFeedUseCase(leadRepo, creditRepo, txManager, feedCache, logger)
	authUC := usecase.NewAuthUseCase(authService, profileRepo, creditUC, rateLimiter, tasks, logger)
	cnaeUC := usecase.NewCNAEUseCase(cnaeDir)

	// Every discount change lands in the gauges.
	defer clock.Subscribe(func(s model.DiscountState) {
		metrics.SetDiscountState(s.DiscountPercent, s.TimeRemaining)
	})()

	// ---- HTTP ----
	sessions := web.NewSessionParser(cfg.Auth.JWTSecret)
	srv := web.NewServer(authUC, feedUC, creditUC, cnaeUC, catalog, decider, presenter, clock, sessions, logger)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	janitor := sched.NewPresenterJanitor(cfg.Presenter.SweepInterval, cfg.Presenter.IdleTTL, presenter, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return presenter.Run(gctx) })
	g.Go(func() error { return janitor.Run(gctx) })
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		// Pool gauge refresh; cheap enough to run every 15s.
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("shutdown with error")
	}
	logger.Info().Msg("bye")
}
