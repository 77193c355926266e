package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BarData is one OHLCV candle for a symbol over a fixed interval.
// The cache deduplicates on (symbol, interval, open_time).
type BarData struct {
	gorm.Model
	Symbol   string          `gorm:"uniqueIndex:idx_bar_key;not null" json:"symbol"`
	Interval string          `gorm:"uniqueIndex:idx_bar_key;not null" json:"interval"`
	OpenTime time.Time       `gorm:"uniqueIndex:idx_bar_key;not null" json:"open_time"`
	Open     decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"open"`
	High     decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"high"`
	Low      decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"low"`
	Close    decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"close"`
	Volume   decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"volume"`
}

// EndTime returns the close time of the bar given its interval code.
func (b *BarData) EndTime() time.Time {
	d, err := IntervalDuration(b.Interval)
	if err != nil {
		return b.OpenTime
	}
	return b.OpenTime.Add(d)
}

// intervalDurations enumerates the supported kline interval codes.
var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1M":  30 * 24 * time.Hour,
}

// IntervalDuration resolves a kline interval code to its duration.
func IntervalDuration(code string) (time.Duration, error) {
	d, ok := intervalDurations[code]
	if !ok {
		return 0, fmt.Errorf("invalid kline interval %q", code)
	}
	return d, nil
}

// IsValidInterval reports whether code is a supported kline interval.
func IsValidInterval(code string) bool {
	_, ok := intervalDurations[code]
	return ok
}
