package trader

import (
	"fmt"
	"time"

	"auto-trade-bot-go/internal/models"
	"auto-trade-bot-go/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ledgerScale is the fixed scale of all monetary and quantity math.
const ledgerScale = 8

var (
	// feeRate is the flat 0.1% fee charged on both sides.
	feeRate = decimal.New(1, -3)
	// buyAllocation spends 99.9% of cash, reserving a fee buffer.
	buyAllocation = decimal.New(999, -3)
)

// OrderExecutor applies BUY and SELL decisions to the ledger. It is
// the only writer of holdings and trades; each call runs as a single
// all-or-nothing transaction.
type OrderExecutor struct {
	store  *store.Store
	logger *zap.Logger
}

// NewOrderExecutor creates an order executor over the ledger store.
func NewOrderExecutor(st *store.Store, logger *zap.Logger) *OrderExecutor {
	return &OrderExecutor{store: st, logger: logger}
}

// ExecuteBuy spends 99.9% of the account's cash on symbol at price.
// Quantity is rounded down so rounding can never overspend; fees round
// half-up. An existing holding is folded into a weighted-average cost
// basis.
func (x *OrderExecutor) ExecuteBuy(accountID uint, symbol string, price decimal.Decimal, strategyLabel string) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: buy price must be positive", ErrValidation)
	}

	return x.store.Transaction(func(tx *store.Store) error {
		account, err := tx.FindAccount(accountID)
		if err != nil {
			return err
		}

		cash := account.CurrentBalance
		spendable := cash.Mul(buyAllocation).RoundDown(ledgerScale)
		if spendable.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: cash available is below the minimum spendable amount", ErrInsufficientFunds)
		}

		// Truncated division: never buy more than spendable covers.
		quantity, _ := spendable.QuoRem(price, ledgerScale)
		fee := spendable.Mul(feeRate).Round(ledgerScale)
		totalDebit := spendable.Add(fee)

		newCash := cash.Sub(totalDebit)
		// The cached equity figure is corrected at the next snapshot.
		newPortfolioValue := account.CurrentPortfolioValue.Add(spendable)

		existing, err := tx.FindHolding(accountID, symbol)
		if err != nil {
			return err
		}

		var finalQuantity, finalAvgPrice decimal.Decimal
		if existing != nil {
			oldCost := existing.Quantity.Mul(existing.AvgBuyPrice)
			newCost := quantity.Mul(price)
			finalQuantity = existing.Quantity.Add(quantity)
			finalAvgPrice = oldCost.Add(newCost).DivRound(finalQuantity, ledgerScale)
		} else {
			finalQuantity = quantity
			finalAvgPrice = price.Round(ledgerScale)
		}

		if err := tx.UpdateAccountBalance(accountID, newCash, newPortfolioValue); err != nil {
			return err
		}
		if err := tx.SaveHolding(&models.PortfolioHolding{
			AccountID:   accountID,
			Symbol:      symbol,
			Quantity:    finalQuantity,
			AvgBuyPrice: finalAvgPrice,
		}); err != nil {
			return err
		}

		trade := &models.Trade{
			AccountID:    accountID,
			Timestamp:    time.Now(),
			Symbol:       symbol,
			Action:       models.ActionBuy,
			Quantity:     quantity,
			Price:        price,
			Fee:          fee,
			ProfitLoss:   decimal.Zero,
			FinalBalance: newCash,
			StrategyName: strategyLabel,
		}
		if err := tx.CreateTrade(trade); err != nil {
			return err
		}

		x.logger.Info("Executed BUY",
			zap.Uint("account_id", accountID),
			zap.String("symbol", symbol),
			zap.String("quantity", quantity.String()),
			zap.String("price", price.String()),
			zap.String("fee", fee.String()),
			zap.String("strategy", strategyLabel),
		)
		return nil
	})
}

// ExecuteSell liquidates 100% of the account's holding in symbol at
// price, realizes P/L against the weighted-average cost basis and
// deletes the holding row.
func (x *OrderExecutor) ExecuteSell(accountID uint, symbol string, price decimal.Decimal, strategyLabel string) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: sell price must be positive", ErrValidation)
	}

	return x.store.Transaction(func(tx *store.Store) error {
		holding, err := tx.FindHolding(accountID, symbol)
		if err != nil {
			return err
		}
		if holding == nil || holding.Quantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: cannot SELL, no holdings found for %s", ErrNoPosition, symbol)
		}

		quantity := holding.Quantity
		revenue := price.Mul(quantity).Round(ledgerScale)
		fee := revenue.Mul(feeRate).Round(ledgerScale)
		costBasis := holding.AvgBuyPrice.Mul(quantity).Round(ledgerScale)
		profitLoss := revenue.Sub(costBasis).Sub(fee).Round(ledgerScale)

		account, err := tx.FindAccount(accountID)
		if err != nil {
			return err
		}
		newCash := account.CurrentBalance.Add(revenue).Sub(fee)

		// Crypto exposure for the symbol is now zero, so the cached
		// portfolio value collapses to cash.
		if err := tx.UpdateAccountBalance(accountID, newCash, newCash); err != nil {
			return err
		}
		if err := tx.DeleteHolding(accountID, symbol); err != nil {
			return err
		}

		trade := &models.Trade{
			AccountID:    accountID,
			Timestamp:    time.Now(),
			Symbol:       symbol,
			Action:       models.ActionSell,
			Quantity:     quantity,
			Price:        price,
			Fee:          fee,
			ProfitLoss:   profitLoss,
			FinalBalance: newCash,
			StrategyName: strategyLabel,
		}
		if err := tx.CreateTrade(trade); err != nil {
			return err
		}

		x.logger.Info("Executed SELL",
			zap.Uint("account_id", accountID),
			zap.String("symbol", symbol),
			zap.String("quantity", quantity.String()),
			zap.String("price", price.String()),
			zap.String("profit_loss", profitLoss.String()),
			zap.String("strategy", strategyLabel),
		)
		return nil
	})
}
