package trader

import (
	"fmt"
	"time"

	"auto-trade-bot-go/internal/models"
	"go.uber.org/zap"
)

// StartLiveTrading warms the strategy from the bar cache (backfilling
// it when empty), points the bot at the requested symbol, flips the
// status to RUNNING and executes one trading tick synchronously before
// returning.
func (e *Engine) StartLiveTrading(symbol, interval string) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol must not be empty", ErrValidation)
	}
	if !models.IsValidInterval(interval) {
		return fmt.Errorf("%w: invalid kline interval %q", ErrValidation, interval)
	}

	cfg, err := e.manager.GetConfig()
	if err != nil {
		return err
	}
	if cfg.Status == models.StatusRunning {
		return fmt.Errorf("%w: live trading is already RUNNING", ErrConflict)
	}

	bars, err := e.backfillBars(symbol, interval)
	if err != nil {
		return err
	}
	if len(bars) < e.strategy.MinBarsForAnalysis() {
		return fmt.Errorf("%w: %d bars cached, strategy needs %d",
			ErrInsufficientHistory, len(bars), e.strategy.MinBarsForAnalysis())
	}
	if err := e.strategy.Initialize(bars); err != nil {
		return err
	}

	if err := e.manager.ChangeSymbol(symbol); err != nil {
		return err
	}
	if err := e.manager.SetStatus(models.StatusRunning); err != nil {
		return err
	}

	e.runTradingTick()

	e.logger.Info("Live trading started",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.String("strategy", e.strategy.Name()),
	)
	return nil
}

// runTradingTick executes one live tick. Any fault pauses the bot so a
// faulty configuration cannot keep trading; the loop itself never
// crashes.
func (e *Engine) runTradingTick() {
	if err := e.tradingTick(time.Now()); err != nil {
		e.logger.Error("Live trading tick failed, pausing bot", zap.Error(err))
		if serr := e.manager.SetStatus(models.StatusPaused); serr != nil {
			e.logger.Error("Failed to pause bot after tick fault", zap.Error(serr))
		}
	}
}

// tradingTick is one pass of the live pipeline: guard account type,
// check bot state, fetch price, read position, ask the strategy,
// apply stop-loss/signal, snapshot.
func (e *Engine) tradingTick(now time.Time) error {
	account, err := e.store.FindAccount(LiveAccountID)
	if err != nil {
		return err
	}
	if account.AccountType != models.AccountTypeLive {
		return fmt.Errorf("%w: attempted to run live trading on a %s account",
			ErrSecurity, account.AccountType)
	}

	cfg, err := e.manager.GetConfig()
	if err != nil {
		return err
	}
	if cfg.Status != models.StatusRunning || cfg.TradingMode != models.ModeTrading {
		e.logger.Debug("Bot is not in live trading state, skipping tick",
			zap.String("status", string(cfg.Status)),
			zap.String("mode", string(cfg.TradingMode)),
		)
		return nil
	}

	symbol := cfg.SelectedSymbol
	price, err := e.market.GetLivePrice(symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch live price for %s: %w", symbol, err)
	}

	// Position is checked once per tick, before the strategy call.
	holding, err := e.store.FindHolding(LiveAccountID, symbol)
	if err != nil {
		return err
	}

	signal, err := e.strategy.Signal(price, now)
	if err != nil {
		return err
	}

	if err := e.applySignal(LiveAccountID, symbol, price, holding, signal); err != nil {
		return err
	}

	return e.snapshots.Capture(LiveAccountID, price, now)
}

// runSnapshotTick is the slower analytics tick: it only appends an
// equity snapshot so the performance series stays continuous through
// HOLD periods. Faults are logged, never escalate to a pause.
func (e *Engine) runSnapshotTick() {
	cfg, err := e.manager.GetConfig()
	if err != nil {
		e.logger.Error("Periodic snapshot failed to load config", zap.Error(err))
		return
	}
	if cfg.Status != models.StatusRunning || cfg.TradingMode != models.ModeTrading {
		return
	}

	price, err := e.market.GetLivePrice(cfg.SelectedSymbol)
	if err != nil {
		e.logger.Error("Periodic snapshot failed", zap.Error(err))
		return
	}
	if err := e.snapshots.Capture(LiveAccountID, price, time.Now()); err != nil {
		e.logger.Error("Periodic snapshot failed", zap.Error(err))
	}
}
