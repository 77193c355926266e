package trader

import "errors"

// Error taxonomy of the trading core. Callers discriminate with
// errors.Is; the drivers decide per class whether a failure is a
// recoverable skip, a pause, or must propagate.
var (
	// ErrValidation marks bad caller input (symbol, interval, mode).
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks configuration changes attempted while the bot
	// is RUNNING, or a start while already running.
	ErrConflict = errors.New("conflicting bot state")

	// ErrInsufficientFunds marks a BUY with no spendable cash.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoPosition marks a SELL with no open holding.
	ErrNoPosition = errors.New("no open position")

	// ErrTradeConstraint marks a signal that contradicts the current
	// position state. The drivers swallow it as an expected no-op.
	ErrTradeConstraint = errors.New("trade constraint violated")

	// ErrSecurity marks an account-type/mode mismatch. Fatal to the
	// calling operation, never auto-retried.
	ErrSecurity = errors.New("account security violation")

	// ErrInsufficientHistory marks too few cached bars to warm up a
	// strategy.
	ErrInsufficientHistory = errors.New("insufficient historical data")

	// ErrNotReady marks a strategy asked for a signal before it has
	// observed its minimum bar count.
	ErrNotReady = errors.New("strategy not ready")
)
