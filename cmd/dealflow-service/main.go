package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurpe/dealflow/internal/auth"
	"github.com/nurpe/dealflow/internal/cache"
	"github.com/nurpe/dealflow/internal/config"
	"github.com/nurpe/dealflow/internal/db"
	"github.com/nurpe/dealflow/internal/enrichment"
	"github.com/nurpe/dealflow/internal/excel"
	httphandler "github.com/nurpe/dealflow/internal/http"
	"github.com/nurpe/dealflow/internal/http/middleware"
	"github.com/nurpe/dealflow/internal/logger"
	"github.com/nurpe/dealflow/internal/outreach"
	"github.com/nurpe/dealflow/internal/pdf"
	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/repository"
	"github.com/nurpe/dealflow/internal/scheduler"
	"github.com/nurpe/dealflow/internal/service"
	"github.com/nurpe/dealflow/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	var views cache.Views = cache.Noop{}
	if cfg.Cache.RedisURL != "" {
		redisViews, err := cache.NewRedisViews(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer redisViews.Close()
		views = redisViews
	} else {
		log.Warn().Msg("REDIS_URL not set, view cache disabled")
	}

	var generator enrichment.Generator
	genaiGenerator, err := enrichment.NewGenAIGenerator(ctx, cfg.GenAI)
	switch {
	case err == nil:
		generator = genaiGenerator
	case errors.Is(err, enrichment.ErrUnavailable):
		log.Warn().Msg("GENAI_API_KEY not set, enrichment disabled")
	default:
		log.Fatal().Err(err).Msg("failed to init enrichment")
	}

	var store service.ObjectStore
	objectStore, err := storage.New(ctx, cfg.Storage)
	switch {
	case err == nil:
		store = objectStore
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn().Msg("STORAGE_ENDPOINT not set, deal documents disabled")
	default:
		log.Fatal().Err(err).Msg("failed to init document storage")
	}

	dealRepo := repository.NewDealRepository(database)
	investorRepo := repository.NewInvestorRepository(database)
	directoryRepo := repository.NewDirectoryRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)

	mailer := outreach.NewSMTPMailer(cfg.SMTP, log)
	if !mailer.Configured() {
		log.Warn().Msg("SMTP not configured, outreach emails are recorded only")
	}

	services := httphandler.Services{
		Deals: service.NewDealService(dealRepo, investorRepo, views, log),
		Investors: service.NewInvestorService(
			investorRepo, dealRepo, directoryRepo,
			pipeline.PolicyFor(cfg.Pipeline.StrictTransitions),
			excel.NewGenerator(), mailer, views, log,
		),
		Directory:  service.NewDirectoryService(directoryRepo, views, log),
		Schedule:   service.NewScheduleService(scheduleRepo, dealRepo, views, log),
		Dashboard:  service.NewDashboardService(dealRepo, investorRepo, scheduleRepo, views, log),
		Portal:     service.NewPortalService(dealRepo, investorRepo, pdf.NewGenerator(), views, log),
		Enrichment: service.NewEnrichmentService(enrichment.New(generator, log), dealRepo, investorRepo, directoryRepo, log),
		Documents:  service.NewDocumentService(dealRepo, store, log),
	}

	runner := scheduler.New(ctx, log)
	if cfg.Pipeline.DashboardRefreshCron != "" {
		if _, err := runner.Add("dashboard-refresh", cfg.Pipeline.DashboardRefreshCron, services.Dashboard.Refresh); err != nil {
			log.Fatal().Err(err).Msg("invalid DASHBOARD_REFRESH_CRON")
		}
	}
	runner.Start()
	defer runner.Stop()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(services, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Bool("strict_transitions", cfg.Pipeline.StrictTransitions).Msg("starting dealflow service")

	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(addr) }()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server stopped")
		runner.Stop()
		os.Exit(1)
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}
}
