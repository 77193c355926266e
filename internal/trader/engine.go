package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auto-trade-bot-go/internal/binance"
	"auto-trade-bot-go/internal/config"
	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// The two logical ledger accounts.
const (
	LiveAccountID     uint = 1
	BacktestAccountID uint = 2
)

// stopLossThreshold forces a sell once price drops to 98% of the
// average buy price.
var stopLossThreshold = decimal.New(98, -2)

// Engine runs the signal -> order -> snapshot pipeline. The live and
// backtest drivers are alternate callers of the same pipeline,
// differing only in cadence and input source.
type Engine struct {
	logger    *zap.Logger
	cfg       *config.Config
	market    binance.MarketDataInterface
	store     *store.Store
	manager   *BotManager
	executor  *OrderExecutor
	snapshots *SnapshotRecorder
	strategy  Strategy
	capital   decimal.Decimal
}

// NewEngine wires the trading core together.
func NewEngine(logger *zap.Logger, cfg *config.Config, market binance.MarketDataInterface, st *store.Store, strategy Strategy) *Engine {
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		market:    market,
		store:     st,
		manager:   NewBotManager(st, logger),
		executor:  NewOrderExecutor(st, logger),
		snapshots: NewSnapshotRecorder(st, logger),
		strategy:  strategy,
		capital:   decimal.NewFromFloat(cfg.Trading.StartingCapital),
	}
}

// Manager exposes the bot configuration state machine.
func (e *Engine) Manager() *BotManager {
	return e.manager
}

// Run drives the live loop: a fast trading tick and a slower
// snapshot-only tick. Ticks run serially inside the select loop, so a
// tick always completes all ledger writes before the next one starts.
func (e *Engine) Run(ctx context.Context) {
	tradeInterval := time.Duration(e.cfg.Trading.TickInterval) * time.Second
	snapshotInterval := time.Duration(e.cfg.Trading.SnapshotInterval) * time.Second

	tradeTicker := time.NewTicker(tradeInterval)
	defer tradeTicker.Stop()
	snapshotTicker := time.NewTicker(snapshotInterval)
	defer snapshotTicker.Stop()

	e.logger.Info("Starting trading loop",
		zap.Duration("trade_interval", tradeInterval),
		zap.Duration("snapshot_interval", snapshotInterval),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping trading engine...")
			return
		case <-tradeTicker.C:
			e.runTradingTick()
		case <-snapshotTicker.C:
			e.runSnapshotTick()
		}
	}
}

// ResetAccount wipes an account back to the given starting capital.
// The live account cannot be reset while the bot is RUNNING.
func (e *Engine) ResetAccount(accountID uint, capital decimal.Decimal) error {
	if capital.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: starting capital must be positive", ErrValidation)
	}
	if accountID == LiveAccountID {
		cfg, err := e.manager.GetConfig()
		if err != nil {
			return err
		}
		if cfg.Status == models.StatusRunning {
			return fmt.Errorf("%w: cannot reset the live account while the bot is RUNNING", ErrConflict)
		}
	}
	e.logger.Info("Resetting account",
		zap.Uint("account_id", accountID),
		zap.String("capital", capital.String()),
	)
	return e.store.ResetAccount(accountID, capital)
}

// applySignal is the shared decision step of both drivers: stop-loss
// first, then the signal gated against the current position state.
func (e *Engine) applySignal(accountID uint, symbol string, price decimal.Decimal, holding *models.PortfolioHolding, signal Signal) error {
	positionOpen := holding != nil

	if positionOpen && stopLossTriggered(holding, price) {
		return e.executor.ExecuteSell(accountID, symbol, price, "STOP_LOSS")
	}

	var err error
	switch {
	case signal == SignalBuy && !positionOpen:
		err = e.executor.ExecuteBuy(accountID, symbol, price, e.strategy.Name())
	case signal == SignalSell && positionOpen:
		err = e.executor.ExecuteSell(accountID, symbol, price, e.strategy.Name())
	case signal == SignalBuy && positionOpen:
		err = fmt.Errorf("%w: BUY signal with a position already open", ErrTradeConstraint)
	case signal == SignalSell && !positionOpen:
		err = fmt.Errorf("%w: SELL signal with no open position", ErrTradeConstraint)
	}

	if err != nil && isExpectedSkip(err) {
		e.logger.Debug("Trade skipped",
			zap.Uint("account_id", accountID),
			zap.Error(err),
		)
		return nil
	}
	return err
}

// isExpectedSkip reports whether a failed order is a business-rule
// no-op the drivers continue over.
func isExpectedSkip(err error) bool {
	return errors.Is(err, ErrTradeConstraint) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNoPosition)
}

// stopLossTriggered reports whether price is at or below 98% of the
// holding's average buy price.
func stopLossTriggered(holding *models.PortfolioHolding, price decimal.Decimal) bool {
	trigger := holding.AvgBuyPrice.Mul(stopLossThreshold).Round(ledgerScale)
	return price.LessThanOrEqual(trigger)
}

// backfillBars populates the bar cache from the market data source
// when it is empty, then returns the cached sequence.
func (e *Engine) backfillBars(symbol, interval string) ([]models.BarData, error) {
	count, err := e.store.BarCount(symbol, interval)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		limit := e.cfg.Trading.InitialBarLimit
		e.logger.Info("Bar cache empty, backfilling",
			zap.String("symbol", symbol),
			zap.String("interval", interval),
			zap.Int("limit", limit),
		)
		fresh, err := e.market.GetHistoricalData(symbol, interval, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to backfill bar cache: %w", err)
		}
		if err := e.store.SaveBars(fresh); err != nil {
			return nil, err
		}
	}
	return e.store.Bars(symbol, interval)
}
