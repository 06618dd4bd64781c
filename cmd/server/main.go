package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/holdings/internal/clients/marketdata"
	"github.com/aristath/holdings/internal/config"
	"github.com/aristath/holdings/internal/database"
	"github.com/aristath/holdings/internal/modules/income"
	incomehandlers "github.com/aristath/holdings/internal/modules/income/handlers"
	"github.com/aristath/holdings/internal/modules/positions"
	positionhandlers "github.com/aristath/holdings/internal/modules/positions/handlers"
	"github.com/aristath/holdings/internal/modules/rolls"
	"github.com/aristath/holdings/internal/modules/transactions"
	transactionhandlers "github.com/aristath/holdings/internal/modules/transactions/handlers"
	"github.com/aristath/holdings/internal/scheduler"
	"github.com/aristath/holdings/internal/server"
	"github.com/aristath/holdings/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting holdings service")

	// Two databases: ledger.db is the durable transaction trail, cache.db
	// holds disposable market-data snapshots.
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{ledgerDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("db", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories and clients
	txRepo := transactions.NewRepository(ledgerDB.Conn(), log)
	incomeRepo := income.NewRepository(ledgerDB.Conn(), log)
	quoteCache := marketdata.NewCache(cacheDB.Conn())
	marketClient := marketdata.NewClient(cfg.MarketDataURL, cfg.MarketDataAPIKey, quoteCache, cfg.QuoteTTL, log)

	// Services
	positionService := positions.NewService(txRepo, incomeRepo, marketClient, log)
	rollPlanner := rolls.NewPlanner(positionService, marketClient, log)

	// Background quote refresh
	sched := scheduler.New(log)
	refreshJob := scheduler.NewQuoteRefreshJob(txRepo, marketClient, quoteCache, 24*time.Hour, log)
	if err := sched.AddJob(cfg.QuoteRefresh, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register quote refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:                 log,
		Cfg:                 cfg,
		LedgerDB:            ledgerDB,
		CacheDB:             cacheDB,
		PositionHandlers:    positionhandlers.NewHandler(positionService, log),
		TransactionHandlers: transactionhandlers.NewHandler(txRepo, log),
		IncomeHandlers:      incomehandlers.NewHandler(incomeRepo, log),
		RollHandlers:        rolls.NewHandler(rollPlanner, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
