package trader

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"auto-trade-bot-go/internal/binance"
	"auto-trade-bot-go/internal/config"
	"auto-trade-bot-go/internal/database"
	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestStore opens a fresh in-memory ledger seeded with the two
// logical accounts and the bot configuration row.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, _ := newTestStoreWithDB(t)
	return st
}

// newTestStoreWithDB additionally exposes the raw connection for tests
// that need to corrupt seeded rows on purpose.
func newTestStoreWithDB(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.Seed(db, decimal.RequireFromString("10000.00")))

	return store.New(db), db
}

// newTestEngine wires an Engine with a stub market and strategy.
func newTestEngine(t *testing.T, st *store.Store, market binance.MarketDataInterface, strategy Strategy) *Engine {
	t.Helper()

	cfg := &config.Config{
		Trading: config.Trading{
			Symbol:           "BTCUSDT",
			Interval:         "1h",
			TickInterval:     1,
			SnapshotInterval: 5,
			StartingCapital:  10000.00,
			InitialBarLimit:  100,
		},
	}
	return NewEngine(zap.NewNop(), cfg, market, st, strategy)
}

func requireDecimalEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	require.Truef(t, actual.Equal(want), "expected %s, got %s", want, actual)
}

// testBars builds n hourly bars for symbol with a fixed close price.
func testBars(symbol string, n int, close decimal.Decimal) []models.BarData {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.BarData, n)
	for i := range bars {
		bars[i] = models.BarData{
			Symbol:   symbol,
			Interval: "1h",
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     close,
			High:     close,
			Low:      close,
			Close:    close,
			Volume:   decimal.Zero,
		}
	}
	return bars
}

// stubMarket is a scripted market data source.
type stubMarket struct {
	price      decimal.Decimal
	priceErr   error
	bars       []models.BarData
	barsErr    error
	priceCalls int
}

func (m *stubMarket) GetLivePrice(symbol string) (decimal.Decimal, error) {
	m.priceCalls++
	if m.priceErr != nil {
		return decimal.Zero, m.priceErr
	}
	return m.price, nil
}

func (m *stubMarket) GetHistoricalData(symbol, interval string, limit int) ([]models.BarData, error) {
	if m.barsErr != nil {
		return nil, m.barsErr
	}
	return m.bars, nil
}

// scriptedStrategy emits a fixed signal per call index and HOLD once
// the script runs out.
type scriptedStrategy struct {
	minBars int
	signals map[int]Signal
	calls   int
	initErr error
}

func (s *scriptedStrategy) Name() string { return "Scripted" }

func (s *scriptedStrategy) MinBarsForAnalysis() int { return s.minBars }

func (s *scriptedStrategy) Initialize(bars []models.BarData) error { return s.initErr }

func (s *scriptedStrategy) Signal(price decimal.Decimal, timestamp time.Time) (Signal, error) {
	sig, ok := s.signals[s.calls]
	s.calls++
	if !ok {
		return SignalHold, nil
	}
	return sig, nil
}
