package trader

import (
	"fmt"
	"time"

	"auto-trade-bot-go/internal/models"
	"github.com/shopspring/decimal"
)

// Signal is a transient trading decision. It is never persisted.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Strategy is the contract every signal generator implements. The
// drivers only ever talk to this interface, so new strategies plug in
// without touching the tick or replay loops.
type Strategy interface {
	// Name returns the strategy label recorded on trades.
	Name() string

	// Initialize seeds internal state from an ordered, single-symbol,
	// single-interval bar sequence.
	Initialize(bars []models.BarData) error

	// Signal consumes one price observation and returns a decision.
	// It fails with ErrNotReady until the minimum bar count is met.
	Signal(price decimal.Decimal, timestamp time.Time) (Signal, error)

	// MinBarsForAnalysis is the warm-up window of the strategy.
	MinBarsForAnalysis() int
}

// NewStrategy resolves a configured strategy name to an implementation.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", "rsi":
		return NewRSIStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrValidation, name)
	}
}
