package trader

import (
	"fmt"

	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/report"
	"go.uber.org/zap"
)

// RunBacktest replays the cached bar sequence for (symbol, interval)
// through the same signal -> order -> snapshot pipeline as the live
// driver. The backtest account is wiped to starting capital first, the
// replay is deterministic given the same bars and strategy, and any
// position still open after the last bar is force-liquidated so every
// run ends fully in cash.
func (e *Engine) RunBacktest(accountID uint, symbol, interval string) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol must not be empty", ErrValidation)
	}
	if !models.IsValidInterval(interval) {
		return fmt.Errorf("%w: invalid kline interval %q", ErrValidation, interval)
	}

	account, err := e.store.FindAccount(accountID)
	if err != nil {
		return err
	}
	if account.AccountType == models.AccountTypeLive {
		return fmt.Errorf("%w: attempted to run a backtest on the LIVE trading account", ErrSecurity)
	}

	if err := e.store.ResetAccount(accountID, e.capital); err != nil {
		return err
	}

	bars, err := e.backfillBars(symbol, interval)
	if err != nil {
		return err
	}
	minBars := e.strategy.MinBarsForAnalysis()
	if len(bars) < minBars {
		return fmt.Errorf("%w: %d bars cached, strategy needs %d",
			ErrInsufficientHistory, len(bars), minBars)
	}
	if err := e.strategy.Initialize(bars); err != nil {
		return err
	}

	e.logger.Info("Starting backtest",
		zap.Uint("account_id", accountID),
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("bars", len(bars)),
	)

	for i := range bars {
		bar := &bars[i]
		price := bar.Close
		timestamp := bar.OpenTime

		holding, err := e.store.FindHolding(accountID, symbol)
		if err != nil {
			return fmt.Errorf("backtest aborted at bar %d: %w", i, err)
		}

		signal, err := e.strategy.Signal(price, timestamp)
		if err != nil {
			return fmt.Errorf("backtest aborted at bar %d: %w", i, err)
		}

		// Warm-up bars produce signals but no orders.
		if i >= minBars {
			if err := e.applySignal(accountID, symbol, price, holding, signal); err != nil {
				return fmt.Errorf("backtest aborted at bar %d: %w", i, err)
			}
		}

		if err := e.snapshots.Capture(accountID, price, timestamp); err != nil {
			return fmt.Errorf("backtest aborted at bar %d: %w", i, err)
		}
	}

	// A surviving position makes P/L unmeasurable; close it at the
	// last known price.
	finalHolding, err := e.store.FindHolding(accountID, symbol)
	if err != nil {
		return err
	}
	if finalHolding != nil {
		lastClose := bars[len(bars)-1].Close
		if err := e.executor.ExecuteSell(accountID, symbol, lastClose, "FINAL_LIQUIDATION"); err != nil {
			return err
		}
	}

	e.logBacktestReport(accountID, symbol)
	return nil
}

func (e *Engine) logBacktestReport(accountID uint, symbol string) {
	account, err := e.store.FindAccount(accountID)
	if err != nil {
		e.logger.Error("Failed to load account for backtest report", zap.Error(err))
		return
	}
	trades, err := e.store.TradesByAccount(accountID)
	if err != nil {
		e.logger.Error("Failed to load trades for backtest report", zap.Error(err))
		return
	}
	snapshots, err := e.store.SnapshotsByAccount(accountID)
	if err != nil {
		e.logger.Error("Failed to load snapshots for backtest report", zap.Error(err))
		return
	}

	summary := report.Build(symbol, account, trades, snapshots)
	e.logger.Info("Backtest complete\n" + summary.Render())
}
