package trader

import (
	"fmt"

	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/store"
	"go.uber.org/zap"
)

// BotManager is the bot configuration state machine. Symbol and mode
// changes are gated on the bot not being RUNNING; status transitions
// are always allowed so drivers can pause on fault.
type BotManager struct {
	store  *store.Store
	logger *zap.Logger
}

// NewBotManager creates the configuration state machine.
func NewBotManager(st *store.Store, logger *zap.Logger) *BotManager {
	return &BotManager{store: st, logger: logger}
}

// GetConfig returns a read-only snapshot of the configuration row.
func (m *BotManager) GetConfig() (*models.BotConfig, error) {
	return m.store.BotConfig()
}

func (m *BotManager) checkNotRunning() error {
	cfg, err := m.store.BotConfig()
	if err != nil {
		return err
	}
	if cfg.Status == models.StatusRunning {
		return fmt.Errorf("%w: cannot change configuration while bot is RUNNING, stop it first", ErrConflict)
	}
	return nil
}

// SwitchMode changes the trading mode. Fails while RUNNING.
func (m *BotManager) SwitchMode(mode models.TradingMode) error {
	if mode != models.ModeTraining && mode != models.ModeTrading {
		return fmt.Errorf("%w: unknown trading mode %q", ErrValidation, mode)
	}
	if err := m.checkNotRunning(); err != nil {
		return err
	}
	m.logger.Info("Switching trading mode", zap.String("mode", string(mode)))
	return m.store.UpdateBotMode(mode)
}

// ChangeSymbol changes the traded symbol. Fails while RUNNING.
func (m *BotManager) ChangeSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol must not be empty", ErrValidation)
	}
	if err := m.checkNotRunning(); err != nil {
		return err
	}
	m.logger.Info("Changing selected symbol", zap.String("symbol", symbol))
	return m.store.UpdateBotSymbol(symbol)
}

// SetStatus transitions the bot status. Always allowed; a pause takes
// effect only after any in-flight tick completes.
func (m *BotManager) SetStatus(status models.BotStatus) error {
	if status != models.StatusIdle && status != models.StatusRunning && status != models.StatusPaused {
		return fmt.Errorf("%w: unknown bot status %q", ErrValidation, status)
	}
	return m.store.UpdateBotStatus(status)
}
