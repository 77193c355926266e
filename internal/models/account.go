package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes the two logical ledger accounts.
type AccountType string

const (
	AccountTypeLive     AccountType = "LIVE"
	AccountTypeBacktest AccountType = "BACKTEST"
)

// Account holds the cash balance and the last valued equity of one
// logical trading account. Cash is mutated only by order execution,
// the portfolio value only by the snapshot recorder.
type Account struct {
	ID                    uint            `gorm:"primarykey" json:"id"`
	AccountType           AccountType     `gorm:"not null" json:"account_type"`
	StartBalance          decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"start_balance"`
	CurrentBalance        decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"current_balance"`
	CurrentPortfolioValue decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"current_portfolio_value"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}
