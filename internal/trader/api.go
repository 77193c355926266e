package trader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"auto-trade-bot-go/internal/binance"
	"auto-trade-bot-go/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// APIServer provides the HTTP interface over the trading core.
type APIServer struct {
	server    *http.Server
	engine    *Engine
	dashboard *Dashboard
	logger    *zap.Logger
}

// NewAPIServer creates an APIServer listening on the given port.
func NewAPIServer(engine *Engine, dashboard *Dashboard, logger *zap.Logger, port int) *APIServer {
	s := &APIServer{
		engine:    engine,
		dashboard: dashboard,
		logger:    logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/bot/config", s.configHandler)
	mux.HandleFunc("POST /api/bot/start", s.startHandler)
	mux.HandleFunc("POST /api/bot/stop", s.stopHandler)
	mux.HandleFunc("POST /api/bot/mode", s.modeHandler)
	mux.HandleFunc("POST /api/bot/symbol", s.symbolHandler)
	mux.HandleFunc("POST /api/bot/backtest", s.backtestHandler)
	mux.HandleFunc("POST /api/account/reset", s.resetHandler)
	mux.HandleFunc("GET /api/dashboard/summary", s.summaryHandler)
	mux.HandleFunc("GET /api/dashboard/holdings", s.holdingsHandler)
	mux.HandleFunc("GET /api/dashboard/trades", s.tradesHandler)
	mux.HandleFunc("GET /api/dashboard/performance", s.performanceHandler)
	mux.HandleFunc("GET /api/dashboard/market", s.marketHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeError maps the core error taxonomy onto HTTP status codes.
func (s *APIServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrInsufficientHistory),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrNoPosition):
		status = http.StatusConflict
	case errors.Is(err, ErrSecurity):
		status = http.StatusForbidden
	case errors.Is(err, binance.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	} else {
		s.logger.Warn("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status": status,
		"error":  err.Error(),
	})
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) configHandler(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.engine.Manager().GetConfig()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *APIServer) startHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}
	if err := s.engine.StartLiveTrading(req.Symbol, req.Interval); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "live trading started"})
}

func (s *APIServer) stopHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Manager().SetStatus(models.StatusIdle); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "bot stopped"})
}

func (s *APIServer) modeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode models.TradingMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}
	if err := s.engine.Manager().SwitchMode(req.Mode); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "mode updated"})
}

func (s *APIServer) symbolHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}
	if err := s.engine.Manager().ChangeSymbol(req.Symbol); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "symbol updated"})
}

func (s *APIServer) backtestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}
	if err := s.engine.RunBacktest(BacktestAccountID, req.Symbol, req.Interval); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "backtest complete"})
}

func (s *APIServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID uint            `json:"account_id"`
		Capital   decimal.Decimal `json:"capital"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body", ErrValidation))
		return
	}
	if err := s.engine.ResetAccount(req.AccountID, req.Capital); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "account reset"})
}

func (s *APIServer) summaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.AccountSummary()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *APIServer) holdingsHandler(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.dashboard.CurrentHoldings()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, holdings)
}

func (s *APIServer) tradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := s.dashboard.TradeHistory()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *APIServer) performanceHandler(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.dashboard.Performance()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *APIServer) marketHandler(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("interval")
	bars, err := s.dashboard.MarketChart(interval)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bars)
}
