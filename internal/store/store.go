package store

import (
	"errors"
	"fmt"
	"time"

	"auto-trade-bot-go/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the ledger data access layer. It carries no decision logic;
// the order executor and snapshot recorder compose its methods inside
// Transaction to get all-or-nothing ledger mutations.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm connection in a Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn against a transactional Store. If fn returns an
// error every write made through it is rolled back.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// --- accounts ---

// FindAccount loads one account by id.
func (s *Store) FindAccount(id uint) (*models.Account, error) {
	var acct models.Account
	if err := s.db.First(&acct, id).Error; err != nil {
		return nil, fmt.Errorf("account %d not found: %w", id, err)
	}
	return &acct, nil
}

// UpdateAccountBalance sets the cash balance and cached portfolio value.
func (s *Store) UpdateAccountBalance(id uint, cash, portfolioValue decimal.Decimal) error {
	return s.db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_balance":         cash,
		"current_portfolio_value": portfolioValue,
	}).Error
}

// UpdateAccountPortfolioValue refreshes only the cached equity figure.
func (s *Store) UpdateAccountPortfolioValue(id uint, equity decimal.Decimal, at time.Time) error {
	return s.db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_portfolio_value": equity,
		"updated_at":              at,
	}).Error
}

// ResetAccount wipes all trades, holdings and snapshots of an account
// and restores it to the given starting capital, atomically.
func (s *Store) ResetAccount(id uint, capital decimal.Decimal) error {
	return s.Transaction(func(tx *Store) error {
		if err := tx.db.Where("account_id = ?", id).Unscoped().Delete(&models.Trade{}).Error; err != nil {
			return fmt.Errorf("failed to wipe trades: %w", err)
		}
		if err := tx.db.Where("account_id = ?", id).Delete(&models.PortfolioHolding{}).Error; err != nil {
			return fmt.Errorf("failed to wipe holdings: %w", err)
		}
		if err := tx.db.Where("account_id = ?", id).Unscoped().Delete(&models.AccountSnapshot{}).Error; err != nil {
			return fmt.Errorf("failed to wipe snapshots: %w", err)
		}
		return tx.db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
			"start_balance":           capital,
			"current_balance":         capital,
			"current_portfolio_value": capital,
		}).Error
	})
}

// --- holdings ---

// FindHolding returns the holding for (account, symbol), or nil when
// no position is open.
func (s *Store) FindHolding(accountID uint, symbol string) (*models.PortfolioHolding, error) {
	var holding models.PortfolioHolding
	err := s.db.Where("account_id = ? AND symbol = ?", accountID, symbol).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

// HoldingsByAccount lists all open positions of an account.
func (s *Store) HoldingsByAccount(accountID uint) ([]models.PortfolioHolding, error) {
	var holdings []models.PortfolioHolding
	err := s.db.Where("account_id = ?", accountID).Find(&holdings).Error
	return holdings, err
}

// SaveHolding upserts the holding keyed by (account, symbol).
func (s *Store) SaveHolding(h *models.PortfolioHolding) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "avg_buy_price"}),
	}).Create(h).Error
}

// DeleteHolding removes the holding row entirely.
func (s *Store) DeleteHolding(accountID uint, symbol string) error {
	return s.db.Where("account_id = ? AND symbol = ?", accountID, symbol).
		Delete(&models.PortfolioHolding{}).Error
}

// --- trades ---

// CreateTrade appends an immutable trade record.
func (s *Store) CreateTrade(t *models.Trade) error {
	return s.db.Create(t).Error
}

// TradesByAccount lists an account's trades in execution order.
func (s *Store) TradesByAccount(accountID uint) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.Where("account_id = ?", accountID).Order("timestamp asc, id asc").Find(&trades).Error
	return trades, err
}

// TotalRealizedProfitLoss sums the realized P/L over all trades of an
// account. Summation happens in decimal space, not in SQL.
func (s *Store) TotalRealizedProfitLoss(accountID uint) (decimal.Decimal, error) {
	trades, err := s.TradesByAccount(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range trades {
		total = total.Add(t.ProfitLoss)
	}
	return total, nil
}

// --- snapshots ---

// CreateSnapshot appends one equity snapshot row.
func (s *Store) CreateSnapshot(snap *models.AccountSnapshot) error {
	return s.db.Create(snap).Error
}

// SnapshotsByAccount returns the equity time series of an account.
func (s *Store) SnapshotsByAccount(accountID uint) ([]models.AccountSnapshot, error) {
	var snaps []models.AccountSnapshot
	err := s.db.Where("account_id = ?", accountID).Order("timestamp asc, id asc").Find(&snaps).Error
	return snaps, err
}

// --- bar cache ---

// BarCount reports how many bars are cached for (symbol, interval).
func (s *Store) BarCount(symbol, interval string) (int64, error) {
	var count int64
	err := s.db.Model(&models.BarData{}).
		Where("symbol = ? AND interval = ?", symbol, interval).Count(&count).Error
	return count, err
}

// SaveBars inserts bars into the cache, silently skipping duplicates
// of the (symbol, interval, open_time) key.
func (s *Store) SaveBars(bars []models.BarData) error {
	if len(bars) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "interval"}, {Name: "open_time"}},
		DoNothing: true,
	}).Create(&bars).Error
}

// Bars returns the cached bar sequence ordered by open time.
func (s *Store) Bars(symbol, interval string) ([]models.BarData, error) {
	var bars []models.BarData
	err := s.db.Where("symbol = ? AND interval = ?", symbol, interval).
		Order("open_time asc").Find(&bars).Error
	return bars, err
}

// ClearBars empties the whole bar cache.
func (s *Store) ClearBars() error {
	return s.db.Unscoped().Where("1 = 1").Delete(&models.BarData{}).Error
}

// --- bot config ---

// BotConfig loads the singleton configuration row.
func (s *Store) BotConfig() (*models.BotConfig, error) {
	var cfg models.BotConfig
	if err := s.db.First(&cfg).Error; err != nil {
		return nil, fmt.Errorf("bot config not found: %w", err)
	}
	return &cfg, nil
}

// UpdateBotStatus persists a status transition.
func (s *Store) UpdateBotStatus(status models.BotStatus) error {
	return s.db.Model(&models.BotConfig{}).Where("id = ?", 1).Update("status", status).Error
}

// UpdateBotMode persists a trading mode change.
func (s *Store) UpdateBotMode(mode models.TradingMode) error {
	return s.db.Model(&models.BotConfig{}).Where("id = ?", 1).Update("trading_mode", mode).Error
}

// UpdateBotSymbol persists a selected symbol change.
func (s *Store) UpdateBotSymbol(symbol string) error {
	return s.db.Model(&models.BotConfig{}).Where("id = ?", 1).Update("selected_symbol", symbol).Error
}
