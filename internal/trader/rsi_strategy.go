package trader

import (
	"fmt"
	"time"

	"auto-trade-bot-go/internal/models"
	"github.com/shopspring/decimal"
)

const (
	maxBarCount   = 500
	rsiPeriod     = 14
	minBarsForRSI = rsiPeriod + 1
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// RSIStrategy is an oscillator-based mean-reversion strategy: BUY when
// the 14-period RSI crosses below 30, SELL when it crosses above 70.
// The oscillator is computed with Wilder's smoothing directly over the
// closing-price series, keeping the strategy deterministic and free of
// indicator library dependencies.
type RSIStrategy struct {
	symbol   string
	interval string
	barSpan  time.Duration
	bars     []models.BarData
}

// NewRSIStrategy creates an uninitialized RSI strategy.
func NewRSIStrategy() *RSIStrategy {
	return &RSIStrategy{}
}

func (s *RSIStrategy) Name() string {
	return "RSI_Simple_30_70"
}

func (s *RSIStrategy) MinBarsForAnalysis() int {
	return minBarsForRSI
}

// Initialize seeds the rolling bar window from historical data. The
// sequence must be non-empty and homogeneous in symbol and interval.
func (s *RSIStrategy) Initialize(bars []models.BarData) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: cannot initialize strategy: historical data is empty", ErrValidation)
	}

	first := bars[0]
	span, err := models.IntervalDuration(first.Interval)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.symbol = first.Symbol
	s.interval = first.Interval
	s.barSpan = span
	s.bars = nil

	for _, bar := range bars {
		if bar.Symbol != s.symbol {
			return fmt.Errorf("%w: bars are of different symbols", ErrValidation)
		}
		if bar.Interval != s.interval {
			return fmt.Errorf("%w: bars are of different time intervals", ErrValidation)
		}
		s.appendBar(bar)
	}
	return nil
}

// Signal folds one price observation into the bar window and evaluates
// the oscillator. A timestamp past the last bar's end time starts a new
// bar (open = prior close, high = low = close = price, zero volume);
// otherwise the in-progress bar is updated.
func (s *RSIStrategy) Signal(price decimal.Decimal, timestamp time.Time) (Signal, error) {
	if len(s.bars) < minBarsForRSI {
		return SignalHold, fmt.Errorf("%w: need at least %d bars for RSI %d, have %d",
			ErrNotReady, minBarsForRSI, rsiPeriod, len(s.bars))
	}

	last := &s.bars[len(s.bars)-1]
	if timestamp.After(last.OpenTime.Add(s.barSpan)) {
		s.appendBar(models.BarData{
			Symbol:   s.symbol,
			Interval: s.interval,
			OpenTime: timestamp,
			Open:     last.Close,
			High:     price,
			Low:      price,
			Close:    price,
			Volume:   decimal.Zero,
		})
	} else {
		last.Close = price
		if price.GreaterThan(last.High) {
			last.High = price
		}
		if price.LessThan(last.Low) {
			last.Low = price
		}
	}

	value := wilderRSI(s.closes(), rsiPeriod)
	switch {
	case value < rsiOversold:
		return SignalBuy, nil
	case value > rsiOverbought:
		return SignalSell, nil
	default:
		return SignalHold, nil
	}
}

func (s *RSIStrategy) appendBar(bar models.BarData) {
	s.bars = append(s.bars, bar)
	if len(s.bars) > maxBarCount {
		s.bars = s.bars[len(s.bars)-maxBarCount:]
	}
}

func (s *RSIStrategy) closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, bar := range s.bars {
		closes[i] = bar.Close.InexactFloat64()
	}
	return closes
}

// wilderRSI computes the relative strength index over the full close
// series: a simple average over the first period of changes, then
// Wilder's smoothing for every change after it.
func wilderRSI(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 50 // neutral; callers enforce the minimum bar count
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
