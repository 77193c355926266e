package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountSnapshot is one point of an account's equity time series:
// cash plus holdings valued at the market price seen at capture time.
type AccountSnapshot struct {
	gorm.Model
	AccountID     uint            `gorm:"index;not null" json:"account_id"`
	Timestamp     time.Time       `gorm:"not null" json:"timestamp"`
	TotalBalance  decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"total_balance"`
	CashBalance   decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"cash_balance"`
	CryptoBalance decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"crypto_balance"`
}
