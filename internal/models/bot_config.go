package models

// TradingMode selects which account the bot operates against.
type TradingMode string

const (
	ModeTraining TradingMode = "TRAINING"
	ModeTrading  TradingMode = "TRADING"
)

// BotStatus is the operating state of the bot.
type BotStatus string

const (
	StatusIdle    BotStatus = "IDLE"
	StatusRunning BotStatus = "RUNNING"
	StatusPaused  BotStatus = "PAUSED"
)

// BotConfig is the singleton bot configuration row. Symbol and mode
// may only change while the status is not RUNNING.
type BotConfig struct {
	ID             uint        `gorm:"primarykey" json:"id"`
	TradingMode    TradingMode `gorm:"not null" json:"trading_mode"`
	Status         BotStatus   `gorm:"not null" json:"status"`
	SelectedSymbol string      `json:"selected_symbol"`
	Initialized    bool        `json:"initialized"`
}
