package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/database"
	"github.com/quantfolio/quantfolio/internal/modules/allocation"
	allocationhandlers "github.com/quantfolio/quantfolio/internal/modules/allocation/handlers"
	"github.com/quantfolio/quantfolio/internal/modules/investment"
	investmenthandlers "github.com/quantfolio/quantfolio/internal/modules/investment/handlers"
	"github.com/quantfolio/quantfolio/internal/modules/ledger"
	ledgerhandlers "github.com/quantfolio/quantfolio/internal/modules/ledger/handlers"
	"github.com/quantfolio/quantfolio/internal/modules/metrics"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
	portfoliohandlers "github.com/quantfolio/quantfolio/internal/modules/portfolio/handlers"
	"github.com/quantfolio/quantfolio/internal/modules/rebalancing"
	rebalancinghandlers "github.com/quantfolio/quantfolio/internal/modules/rebalancing/handlers"
	"github.com/quantfolio/quantfolio/internal/modules/universe"
	"github.com/quantfolio/quantfolio/internal/scheduler"
	"github.com/quantfolio/quantfolio/internal/server"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Quantfolio")

	// Initialize the order ledger database
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	if err := ledgerRepo.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger schema")
	}

	// Core services
	calc := allocation.NewCalculator(allocation.DefaultConfig(), log)
	constructor := portfolio.NewConstructor(log)
	engine := metrics.NewEngine(log)
	planner := rebalancing.NewPlanner(calc, log)
	investmentSvc := investment.NewService(calc, ledgerRepo, log)

	// Target universe provider
	var provider universe.Provider
	if cfg.UniverseFile != "" {
		provider = universe.NewFileProvider(cfg.UniverseFile, log)
	} else {
		provider = universe.NewStaticProvider(nil)
	}

	// Background jobs
	sched := scheduler.New(log)
	checkJob := scheduler.NewRebalanceCheckJob(ledgerRepo, constructor, planner, provider, log)
	if err := sched.AddJob(cfg.RebalanceSchedule, checkJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register rebalance check job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,

		AllocationHandler:  allocationhandlers.NewHandler(calc, log),
		InvestmentHandler:  investmenthandlers.NewHandler(investmentSvc, log),
		PortfolioHandler:   portfoliohandlers.NewHandler(ledgerRepo, constructor, engine, log),
		RebalancingHandler: rebalancinghandlers.NewHandler(ledgerRepo, constructor, planner, provider, log),
		LedgerHandler:      ledgerhandlers.NewHandler(ledgerRepo, log),
		Ledger:             ledgerRepo,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
