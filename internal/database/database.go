package database

import (
	"fmt"

	"auto-trade-bot-go/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the sqlite database, migrates the schema and seeds
// the two logical accounts plus the singleton bot configuration row.
func NewDatabase(dsn string, startingCapital decimal.Decimal) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	if err := Seed(db, startingCapital); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all ledger entities.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.PortfolioHolding{},
		&models.Trade{},
		&models.AccountSnapshot{},
		&models.BarData{},
		&models.BotConfig{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Seed inserts the LIVE and BACKTEST accounts and the bot configuration
// if they do not exist yet. Existing rows are left untouched.
func Seed(db *gorm.DB, startingCapital decimal.Decimal) error {
	accounts := []models.Account{
		{ID: 1, AccountType: models.AccountTypeLive},
		{ID: 2, AccountType: models.AccountTypeBacktest},
	}
	for _, acct := range accounts {
		acct.StartBalance = startingCapital
		acct.CurrentBalance = startingCapital
		acct.CurrentPortfolioValue = startingCapital
		if err := db.FirstOrCreate(&acct, models.Account{ID: acct.ID}).Error; err != nil {
			return fmt.Errorf("failed to seed account %d: %w", acct.ID, err)
		}
	}

	botConfig := models.BotConfig{
		ID:          1,
		TradingMode: models.ModeTraining,
		Status:      models.StatusIdle,
		Initialized: true,
	}
	if err := db.FirstOrCreate(&botConfig, models.BotConfig{ID: 1}).Error; err != nil {
		return fmt.Errorf("failed to seed bot config: %w", err)
	}

	return nil
}
