package report

import (
	"fmt"

	"auto-trade-bot-go/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
)

// Summary holds the performance metrics of one completed backtest.
type Summary struct {
	Symbol         string
	InitialBalance decimal.Decimal
	FinalEquity    decimal.Decimal
	TotalProfit    decimal.Decimal
	ProfitPercent  float64
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRate        float64
	MaxDrawdown    float64
	FinalCash      decimal.Decimal
}

// Build computes a performance summary from the backtest account's
// final state, its trade log and its equity curve.
func Build(symbol string, account *models.Account, trades []models.Trade, snapshots []models.AccountSnapshot) *Summary {
	s := &Summary{
		Symbol:         symbol,
		InitialBalance: account.StartBalance,
		FinalEquity:    account.CurrentPortfolioValue,
		FinalCash:      account.CurrentBalance,
		TotalTrades:    len(trades),
	}
	s.TotalProfit = s.FinalEquity.Sub(s.InitialBalance)
	if s.InitialBalance.IsPositive() {
		s.ProfitPercent = s.TotalProfit.Div(s.InitialBalance).InexactFloat64() * 100
	}

	for _, t := range trades {
		if t.Action != models.ActionSell {
			continue
		}
		if t.ProfitLoss.IsPositive() {
			s.WinningTrades++
		} else if t.ProfitLoss.IsNegative() {
			s.LosingTrades++
		}
	}
	if closed := s.WinningTrades + s.LosingTrades; closed > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(closed) * 100
	}

	s.MaxDrawdown = maxDrawdown(snapshots)
	return s
}

// maxDrawdown returns the largest peak-to-trough equity decline of the
// snapshot curve, in percent.
func maxDrawdown(snapshots []models.AccountSnapshot) float64 {
	var peak, worst float64
	for _, snap := range snapshots {
		equity := snap.TotalBalance.InexactFloat64()
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// Render formats the summary as a bordered table.
func (s *Summary) Render() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Backtest Result: %s", s.Symbol)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Initial Balance", s.InitialBalance.StringFixed(2)},
		{"Final Equity", s.FinalEquity.StringFixed(2)},
		{"Final Cash", s.FinalCash.StringFixed(2)},
		{"Total Profit", s.TotalProfit.StringFixed(2)},
		{"Return", fmt.Sprintf("%.2f%%", s.ProfitPercent)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Total Trades", s.TotalTrades},
		{"Winning Trades", s.WinningTrades},
		{"Losing Trades", s.LosingTrades},
		{"Win Rate", fmt.Sprintf("%.2f%%", s.WinRate)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", s.MaxDrawdown)},
	})
	return t.Render()
}
