package trader

import (
	"fmt"

	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/store"
	"github.com/shopspring/decimal"
)

// Dashboard exposes read-only views over the ledger for the API layer.
// The active account follows the trading mode: TRADING reads the live
// account, TRAINING the backtest account.
type Dashboard struct {
	store   *store.Store
	manager *BotManager
}

// NewDashboard creates the read-only accessor set.
func NewDashboard(st *store.Store, manager *BotManager) *Dashboard {
	return &Dashboard{store: st, manager: manager}
}

// AccountSummary aggregates capital, balances and realized P/L.
type AccountSummary struct {
	InitialCapital        decimal.Decimal `json:"initial_capital"`
	CurrentBalance        decimal.Decimal `json:"current_balance"`
	CurrentPortfolioValue decimal.Decimal `json:"current_portfolio_value"`
	TotalProfitLoss       decimal.Decimal `json:"total_profit_loss"`
}

func (d *Dashboard) activeAccountID() (uint, error) {
	cfg, err := d.manager.GetConfig()
	if err != nil {
		return 0, err
	}
	if cfg.TradingMode == models.ModeTrading {
		return LiveAccountID, nil
	}
	return BacktestAccountID, nil
}

// AccountSummary returns the active account's headline figures.
func (d *Dashboard) AccountSummary() (*AccountSummary, error) {
	accountID, err := d.activeAccountID()
	if err != nil {
		return nil, err
	}
	account, err := d.store.FindAccount(accountID)
	if err != nil {
		return nil, err
	}
	totalPnL, err := d.store.TotalRealizedProfitLoss(accountID)
	if err != nil {
		return nil, err
	}
	return &AccountSummary{
		InitialCapital:        account.StartBalance,
		CurrentBalance:        account.CurrentBalance,
		CurrentPortfolioValue: account.CurrentPortfolioValue,
		TotalProfitLoss:       totalPnL,
	}, nil
}

// CurrentHoldings lists the active account's open positions.
func (d *Dashboard) CurrentHoldings() ([]models.PortfolioHolding, error) {
	accountID, err := d.activeAccountID()
	if err != nil {
		return nil, err
	}
	return d.store.HoldingsByAccount(accountID)
}

// TradeHistory lists the active account's trades in execution order.
func (d *Dashboard) TradeHistory() ([]models.Trade, error) {
	accountID, err := d.activeAccountID()
	if err != nil {
		return nil, err
	}
	return d.store.TradesByAccount(accountID)
}

// Performance returns the active account's equity time series.
func (d *Dashboard) Performance() ([]models.AccountSnapshot, error) {
	accountID, err := d.activeAccountID()
	if err != nil {
		return nil, err
	}
	return d.store.SnapshotsByAccount(accountID)
}

// MarketChart returns the cached bars of the selected symbol at the
// requested interval.
func (d *Dashboard) MarketChart(interval string) ([]models.BarData, error) {
	if !models.IsValidInterval(interval) {
		return nil, fmt.Errorf("%w: invalid kline interval %q", ErrValidation, interval)
	}
	cfg, err := d.manager.GetConfig()
	if err != nil {
		return nil, err
	}
	return d.store.Bars(cfg.SelectedSymbol, interval)
}
