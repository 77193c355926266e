package trader

import (
	"errors"
	"testing"
	"time"

	"auto-trade-bot-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goLive puts the bot configuration into the state the live pipeline
// trades in.
func goLive(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Manager().SwitchMode(models.ModeTrading))
	require.NoError(t, e.Manager().ChangeSymbol("BTCUSDT"))
	require.NoError(t, e.Manager().SetStatus(models.StatusRunning))
}

func TestTradingTick(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("BuySignalOpensPosition", func(t *testing.T) {
		// Arrange
		st := newTestStore(t)
		market := &stubMarket{price: decimal.NewFromInt(100)}
		strategy := &scriptedStrategy{signals: map[int]Signal{0: SignalBuy}}
		e := newTestEngine(t, st, market, strategy)
		goLive(t, e)

		// Act
		err := e.tradingTick(now)

		// Assert: position opened, trade and snapshot recorded.
		require.NoError(t, err)
		holding, err := st.FindHolding(LiveAccountID, "BTCUSDT")
		require.NoError(t, err)
		require.NotNil(t, holding)
		requireDecimalEqual(t, "99.9", holding.Quantity)

		trades, err := st.TradesByAccount(LiveAccountID)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, models.ActionBuy, trades[0].Action)
		assert.Equal(t, "Scripted", trades[0].StrategyName)

		snapshots, err := st.SnapshotsByAccount(LiveAccountID)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
	})

	t.Run("SellSignalClosesPosition", func(t *testing.T) {
		// Arrange: open position at 90, price well above the stop-loss.
		st := newTestStore(t)
		require.NoError(t, st.SaveHolding(&models.PortfolioHolding{
			AccountID:   LiveAccountID,
			Symbol:      "BTCUSDT",
			Quantity:    decimal.NewFromInt(2),
			AvgBuyPrice: decimal.NewFromInt(90),
		}))
		market := &stubMarket{price: decimal.NewFromInt(100)}
		strategy := &scriptedStrategy{signals: map[int]Signal{0: SignalSell}}
		e := newTestEngine(t, st, market, strategy)
		goLive(t, e)

		// Act
		err := e.tradingTick(now)

		// Assert
		require.NoError(t, err)
		holding, err := st.FindHolding(LiveAccountID, "BTCUSDT")
		require.NoError(t, err)
		assert.Nil(t, holding)

		trades, err := st.TradesByAccount(LiveAccountID)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, models.ActionSell, trades[0].Action)
		assert.Equal(t, "Scripted", trades[0].StrategyName)
	})

	t.Run("StopLossOverridesHold", func(t *testing.T) {
		// Arrange: average buy 100, price 97 is under the 98.00 trigger.
		st := newTestStore(t)
		require.NoError(t, st.SaveHolding(&models.PortfolioHolding{
			AccountID:   LiveAccountID,
			Symbol:      "BTCUSDT",
			Quantity:    decimal.NewFromInt(1),
			AvgBuyPrice: decimal.NewFromInt(100),
		}))
		market := &stubMarket{price: decimal.NewFromInt(97)}
		strategy := &scriptedStrategy{} // emits HOLD
		e := newTestEngine(t, st, market, strategy)
		goLive(t, e)

		// Act
		err := e.tradingTick(now)

		// Assert: forced sell, labelled as such.
		require.NoError(t, err)
		trades, err := st.TradesByAccount(LiveAccountID)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, models.ActionSell, trades[0].Action)
		assert.Equal(t, "STOP_LOSS", trades[0].StrategyName)
	})

	t.Run("IdleBotSkipsWithoutMarketCall", func(t *testing.T) {
		// Arrange: mode is right but the bot was never started.
		st := newTestStore(t)
		market := &stubMarket{price: decimal.NewFromInt(100)}
		e := newTestEngine(t, st, market, &scriptedStrategy{})
		require.NoError(t, e.Manager().SwitchMode(models.ModeTrading))

		// Act
		err := e.tradingTick(now)

		// Assert
		require.NoError(t, err)
		assert.Zero(t, market.priceCalls)
		snapshots, err := st.SnapshotsByAccount(LiveAccountID)
		require.NoError(t, err)
		assert.Empty(t, snapshots)
	})

	t.Run("TrainingModeSkips", func(t *testing.T) {
		st := newTestStore(t)
		market := &stubMarket{price: decimal.NewFromInt(100)}
		e := newTestEngine(t, st, market, &scriptedStrategy{})
		require.NoError(t, e.Manager().SetStatus(models.StatusRunning))

		err := e.tradingTick(now)

		require.NoError(t, err)
		assert.Zero(t, market.priceCalls)
	})

	t.Run("RejectsNonLiveAccountType", func(t *testing.T) {
		// Arrange: the live account row claims to be a BACKTEST account.
		st, db := newTestStoreWithDB(t)
		require.NoError(t, db.Model(&models.Account{}).Where("id = ?", LiveAccountID).
			Update("account_type", models.AccountTypeBacktest).Error)
		e := newTestEngine(t, st, &stubMarket{price: decimal.NewFromInt(100)}, &scriptedStrategy{})
		goLive(t, e)

		// Act
		err := e.tradingTick(now)

		// Assert
		require.ErrorIs(t, err, ErrSecurity)
	})

	t.Run("ConstraintViolationIsSwallowed", func(t *testing.T) {
		// Arrange: SELL signal with nothing to sell.
		st := newTestStore(t)
		market := &stubMarket{price: decimal.NewFromInt(100)}
		strategy := &scriptedStrategy{signals: map[int]Signal{0: SignalSell}}
		e := newTestEngine(t, st, market, strategy)
		goLive(t, e)

		// Act
		err := e.tradingTick(now)

		// Assert: the tick completes and still snapshots.
		require.NoError(t, err)
		trades, err := st.TradesByAccount(LiveAccountID)
		require.NoError(t, err)
		assert.Empty(t, trades)
		snapshots, err := st.SnapshotsByAccount(LiveAccountID)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
	})

	t.Run("FaultyTickPausesBot", func(t *testing.T) {
		// Arrange: the price feed is down.
		st := newTestStore(t)
		market := &stubMarket{priceErr: errors.New("connection refused")}
		e := newTestEngine(t, st, market, &scriptedStrategy{})
		goLive(t, e)

		// Act
		e.runTradingTick()

		// Assert
		cfg, err := e.Manager().GetConfig()
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaused, cfg.Status)
	})
}

func TestStartLiveTrading(t *testing.T) {
	t.Run("BackfillsWarmsUpAndRuns", func(t *testing.T) {
		// Arrange: empty bar cache, the market serves 20 bars.
		st := newTestStore(t)
		market := &stubMarket{
			price: decimal.NewFromInt(100),
			bars:  testBars("BTCUSDT", 20, decimal.NewFromInt(100)),
		}
		strategy := &scriptedStrategy{minBars: 15}
		e := newTestEngine(t, st, market, strategy)
		require.NoError(t, e.Manager().SwitchMode(models.ModeTrading))

		// Act
		err := e.StartLiveTrading("BTCUSDT", "1h")

		// Assert: cache filled, bot running, one synchronous tick ran.
		require.NoError(t, err)
		count, err := st.BarCount("BTCUSDT", "1h")
		require.NoError(t, err)
		assert.EqualValues(t, 20, count)

		cfg, err := e.Manager().GetConfig()
		require.NoError(t, err)
		assert.Equal(t, models.StatusRunning, cfg.Status)
		assert.Equal(t, "BTCUSDT", cfg.SelectedSymbol)

		assert.Equal(t, 1, market.priceCalls)
		snapshots, err := st.SnapshotsByAccount(LiveAccountID)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
	})

	t.Run("UsesCachedBarsWithoutRefetching", func(t *testing.T) {
		// Arrange: the cache is already populated and the historical
		// endpoint would fail if called.
		st := newTestStore(t)
		require.NoError(t, st.SaveBars(testBars("BTCUSDT", 20, decimal.NewFromInt(100))))
		market := &stubMarket{
			price:   decimal.NewFromInt(100),
			barsErr: errors.New("historical endpoint down"),
		}
		e := newTestEngine(t, st, market, &scriptedStrategy{minBars: 15})
		require.NoError(t, e.Manager().SwitchMode(models.ModeTrading))

		// Act
		err := e.StartLiveTrading("BTCUSDT", "1h")

		// Assert
		require.NoError(t, err)
	})

	t.Run("InsufficientHistory", func(t *testing.T) {
		st := newTestStore(t)
		market := &stubMarket{bars: testBars("BTCUSDT", 10, decimal.NewFromInt(100))}
		e := newTestEngine(t, st, market, &scriptedStrategy{minBars: 15})

		err := e.StartLiveTrading("BTCUSDT", "1h")

		require.ErrorIs(t, err, ErrInsufficientHistory)
		cfg, cfgErr := e.Manager().GetConfig()
		require.NoError(t, cfgErr)
		assert.Equal(t, models.StatusIdle, cfg.Status)
	})

	t.Run("AlreadyRunning", func(t *testing.T) {
		st := newTestStore(t)
		e := newTestEngine(t, st, &stubMarket{}, &scriptedStrategy{})
		require.NoError(t, e.Manager().SetStatus(models.StatusRunning))

		err := e.StartLiveTrading("BTCUSDT", "1h")

		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("RejectsEmptySymbol", func(t *testing.T) {
		e := newTestEngine(t, newTestStore(t), &stubMarket{}, &scriptedStrategy{})

		err := e.StartLiveTrading("", "1h")

		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("RejectsUnknownInterval", func(t *testing.T) {
		e := newTestEngine(t, newTestStore(t), &stubMarket{}, &scriptedStrategy{})

		err := e.StartLiveTrading("BTCUSDT", "7m")

		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestResetAccount(t *testing.T) {
	t.Run("LiveAccountBlockedWhileRunning", func(t *testing.T) {
		e := newTestEngine(t, newTestStore(t), &stubMarket{}, &scriptedStrategy{})
		require.NoError(t, e.Manager().SetStatus(models.StatusRunning))

		err := e.ResetAccount(LiveAccountID, decimal.NewFromInt(5000))

		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("RestoresStartingCapital", func(t *testing.T) {
		// Arrange: dirty the account with a buy first.
		st := newTestStore(t)
		e := newTestEngine(t, st, &stubMarket{}, &scriptedStrategy{})
		require.NoError(t, e.executor.ExecuteBuy(LiveAccountID, "BTCUSDT", decimal.NewFromInt(100), "test"))

		// Act
		err := e.ResetAccount(LiveAccountID, decimal.NewFromInt(5000))

		// Assert
		require.NoError(t, err)
		account, err := st.FindAccount(LiveAccountID)
		require.NoError(t, err)
		requireDecimalEqual(t, "5000", account.CurrentBalance)
		requireDecimalEqual(t, "5000", account.CurrentPortfolioValue)
		holding, err := st.FindHolding(LiveAccountID, "BTCUSDT")
		require.NoError(t, err)
		assert.Nil(t, holding)
		trades, err := st.TradesByAccount(LiveAccountID)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})

	t.Run("RejectsNonPositiveCapital", func(t *testing.T) {
		e := newTestEngine(t, newTestStore(t), &stubMarket{}, &scriptedStrategy{})

		err := e.ResetAccount(BacktestAccountID, decimal.Zero)

		require.ErrorIs(t, err, ErrValidation)
	})
}
