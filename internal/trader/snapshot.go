package trader

import (
	"time"

	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SnapshotRecorder values the account's holdings at a market price and
// appends one equity snapshot row. It is the sole writer of the equity
// time series and never mutates holdings or trades.
type SnapshotRecorder struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSnapshotRecorder creates a snapshot recorder over the ledger store.
func NewSnapshotRecorder(st *store.Store, logger *zap.Logger) *SnapshotRecorder {
	return &SnapshotRecorder{store: st, logger: logger}
}

// Capture records cash, crypto valuation and total equity for the
// account at the given price and timestamp, and refreshes the
// account's cached portfolio value.
func (r *SnapshotRecorder) Capture(accountID uint, currentPrice decimal.Decimal, timestamp time.Time) error {
	return r.store.Transaction(func(tx *store.Store) error {
		account, err := tx.FindAccount(accountID)
		if err != nil {
			return err
		}
		holdings, err := tx.HoldingsByAccount(accountID)
		if err != nil {
			return err
		}

		cashBalance := account.CurrentBalance
		cryptoBalance := decimal.Zero
		for _, holding := range holdings {
			assetValue := holding.Quantity.Mul(currentPrice).Round(ledgerScale)
			cryptoBalance = cryptoBalance.Add(assetValue)
		}
		totalEquity := cashBalance.Add(cryptoBalance)

		if err := tx.UpdateAccountPortfolioValue(accountID, totalEquity, timestamp); err != nil {
			return err
		}

		return tx.CreateSnapshot(&models.AccountSnapshot{
			AccountID:     accountID,
			Timestamp:     timestamp,
			TotalBalance:  totalEquity,
			CashBalance:   cashBalance,
			CryptoBalance: cryptoBalance,
		})
	})
}
