package binance

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auto-trade-bot-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *RestClient {
	cfg := &config.Binance{
		BaseURL:        serverURL,
		RateLimit:      1000,
		RateLimitBurst: 10,
	}
	return NewRestClient(cfg, zap.NewNop())
}

func TestGetLivePrice(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ticker/price", r.URL.Path)
			assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"65000.50"}`))
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		// Act
		price, err := client.GetLivePrice("BTCUSDT")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "65000.5", price.String())
	})

	t.Run("BadRequestIsNotRetried", func(t *testing.T) {
		// Arrange
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		// Act
		_, err := client.GetLivePrice("NOTASYMBOL")

		// Assert
		require.ErrorIs(t, err, ErrUnavailable)
		assert.Equal(t, 1, requests)
	})

	t.Run("UnparsablePrice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"not-a-number"}`))
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		_, err := client.GetLivePrice("BTCUSDT")

		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("ServerErrorIsRetried", func(t *testing.T) {
		// Arrange: first attempt fails with 500, second succeeds.
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"100"}`))
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		// Act
		price, err := client.GetLivePrice("BTCUSDT")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "100", price.String())
		assert.Equal(t, 2, requests)
	})
}

func TestGetHistoricalData(t *testing.T) {
	t.Run("ParsesKlines", func(t *testing.T) {
		// Arrange: two klines in the wire format.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/klines", r.URL.Path)
			assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
			assert.Equal(t, "1h", r.URL.Query().Get("interval"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				[1704067200000,"42000.00","42500.00","41800.00","42300.00","120.5",1704070799999,"0",0,"0","0","0"],
				[1704070800000,"42300.00","42400.00","42100.00","42150.00","98.2",1704074399999,"0",0,"0","0","0"]
			]`))
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		// Act
		bars, err := client.GetHistoricalData("BTCUSDT", "1h", 2)

		// Assert
		require.NoError(t, err)
		require.Len(t, bars, 2)
		first := bars[0]
		assert.Equal(t, "BTCUSDT", first.Symbol)
		assert.Equal(t, "1h", first.Interval)
		assert.True(t, first.OpenTime.Equal(time.UnixMilli(1704067200000)))
		assert.Equal(t, "42000", first.Open.String())
		assert.Equal(t, "42500", first.High.String())
		assert.Equal(t, "41800", first.Low.String())
		assert.Equal(t, "42300", first.Close.String())
		assert.Equal(t, "120.5", first.Volume.String())
	})

	t.Run("RejectsUnknownIntervalWithoutCalling", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		_, err := client.GetHistoricalData("BTCUSDT", "7m", 10)

		require.Error(t, err)
		assert.Zero(t, requests)
	})

	t.Run("MalformedKline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[[1704067200000,"42000.00"]]`))
		}))
		defer server.Close()
		client := newTestClient(server.URL)

		_, err := client.GetHistoricalData("BTCUSDT", "1h", 1)

		require.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestGetServerTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"serverTime":1704067200000}`))
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	serverTime, err := client.GetServerTime()

	require.NoError(t, err)
	assert.EqualValues(t, 1704067200000, serverTime)
}
