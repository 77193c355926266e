package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auto-trade-bot-go/internal/binance"
	"auto-trade-bot-go/internal/config"
	"auto-trade-bot-go/internal/database"
	"auto-trade-bot-go/internal/logger"
	"auto-trade-bot-go/internal/store"
	"auto-trade-bot-go/internal/trader"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	startingCapital := decimal.NewFromFloat(cfg.Trading.StartingCapital)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN, startingCapital)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")
	st := store.New(db)

	// Fresh boot: the bar cache is wiped and the live account returns
	// to starting capital before any tick runs.
	if err := st.ClearBars(); err != nil {
		log.Fatal("Failed to clear bar cache", zap.Error(err))
	}
	if err := st.ResetAccount(trader.LiveAccountID, startingCapital); err != nil {
		log.Fatal("Failed to reset live account", zap.Error(err))
	}
	log.Info("Bar cache cleared and live account reset",
		zap.String("starting_capital", startingCapital.String()))

	// Initialize Binance REST client
	restClient := binance.NewRestClient(&cfg.Binance, log)
	if _, err := restClient.GetServerTime(); err != nil {
		log.Fatal("Failed to connect to Binance API", zap.Error(err))
	}
	log.Info("Successfully connected to Binance API.")

	// Resolve the configured strategy
	strategy, err := trader.NewStrategy(cfg.Trading.Strategy)
	if err != nil {
		log.Fatal("Failed to resolve strategy", zap.Error(err))
	}
	log.Info("Strategy resolved", zap.String("strategy", strategy.Name()))

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize the trading engine and the API surface
	engine := trader.NewEngine(log, &cfg, restClient, st, strategy)
	dashboard := trader.NewDashboard(st, engine.Manager())
	apiServer := trader.NewAPIServer(engine, dashboard, log, cfg.Server.Port)
	apiServer.Start()

	engine.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}

	log.Info("Bot has been shut down.")
}
