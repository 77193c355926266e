package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeAction is the side of an executed trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Trade is an immutable record of one executed order. Rows are only
// ever appended, except when a full account reset wipes them.
type Trade struct {
	gorm.Model
	AccountID    uint            `gorm:"index;not null" json:"account_id"`
	Timestamp    time.Time       `gorm:"not null" json:"timestamp"`
	Symbol       string          `gorm:"not null" json:"symbol"`
	Action       TradeAction     `gorm:"not null" json:"action"`
	Quantity     decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"price"`
	Fee          decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"fee"`
	ProfitLoss   decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"profit_loss"`
	FinalBalance decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"final_balance"`
	StrategyName string          `json:"strategy_name"`
}
