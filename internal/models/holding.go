package models

import "github.com/shopspring/decimal"

// PortfolioHolding is the open position of an account in one symbol.
// At most one row exists per (account, symbol); a fully sold position
// is deleted, never zeroed.
type PortfolioHolding struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	AccountID   uint            `gorm:"uniqueIndex:idx_account_symbol;not null" json:"account_id"`
	Symbol      string          `gorm:"uniqueIndex:idx_account_symbol;not null" json:"symbol"`
	Quantity    decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"quantity"`
	AvgBuyPrice decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"avg_buy_price"`
}
