// Package risk derives performance statistics from the trade ledger. Every
// function here is a pure computation over the ledger snapshot it is handed;
// nothing is cached or stored.
package risk

import (
	"encoding/json"
	"math"
	"sort"

	"papertrade/internal/engine"
)

// Annualization assumes 252 trading days and a 2% risk-free rate, matching the
// conventional daily-returns treatment.
const (
	tradingDaysPerYear = 252
	riskFreeRate       = 0.02
)

// Metrics is a derived snapshot; all fields are zero for an empty ledger.
// ProfitFactor is +Inf when there are no losing trades.
type Metrics struct {
	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	TotalReturn  float64 `json:"total_return"`
	Volatility   float64 `json:"volatility"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// MarshalJSON emits null for an infinite profit factor, which plain
// encoding/json refuses to serialize.
func (m Metrics) MarshalJSON() ([]byte, error) {
	type alias Metrics
	out := struct {
		alias
		ProfitFactor *float64 `json:"profit_factor"`
	}{alias: alias(m)}
	if !math.IsInf(m.ProfitFactor, 0) {
		pf := m.ProfitFactor
		out.ProfitFactor = &pf
	}
	return json.Marshal(out)
}

// Performance carries the trade-count level statistics alongside commissions.
type Performance struct {
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	TotalCommission  float64 `json:"total_commission"`
	TotalRealizedPnL float64 `json:"total_realized_pnl"`
	NetPnL           float64 `json:"net_pnl"`
}

// Compute derives all metrics from the trade ledger ordered by timestamp.
// Commissions are excluded from the cumulative P&L series.
func Compute(trades []engine.Trade) Metrics {
	if len(trades) == 0 {
		return Metrics{}
	}

	ordered := make([]engine.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	pnl := make([]float64, len(ordered))
	for i, t := range ordered {
		pnl[i] = t.RealizedPnL
	}

	cumulative := make([]float64, len(pnl))
	running := 0.0
	for i, v := range pnl {
		running += v
		cumulative[i] = running
	}

	maxDrawdown := maxDrawdownOf(cumulative)
	totalReturn := cumulative[len(cumulative)-1]

	returns := pctChanges(pnl)
	volatility := 0.0
	sharpe := 0.0
	if len(pnl) > 1 {
		volatility = sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear)
		if volatility > 0 {
			sharpe = (mean(returns) - riskFreeRate/tradingDaysPerYear) / volatility
		}
	}

	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	for _, v := range pnl {
		if v > 0 {
			wins++
			grossProfit += v
		} else if v < 0 {
			grossLoss += -v
		}
	}
	winRate := float64(wins) / float64(len(pnl))
	profitFactor := math.Inf(1)
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}

	return Metrics{
		MaxDrawdown:  maxDrawdown,
		SharpeRatio:  sharpe,
		TotalReturn:  totalReturn,
		Volatility:   volatility,
		WinRate:      winRate,
		ProfitFactor: profitFactor,
	}
}

// Summarize aggregates trade counts and commission totals.
func Summarize(trades []engine.Trade) Performance {
	perf := Performance{TotalTrades: len(trades)}
	for _, t := range trades {
		if t.RealizedPnL > 0 {
			perf.WinningTrades++
		}
		perf.TotalCommission += t.Commission
		perf.TotalRealizedPnL += t.RealizedPnL
	}
	perf.LosingTrades = perf.TotalTrades - perf.WinningTrades
	perf.NetPnL = perf.TotalRealizedPnL - perf.TotalCommission
	return perf
}

// maxDrawdownOf reports the largest drop from a running maximum of the series.
func maxDrawdownOf(cumulative []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range cumulative {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > worst {
			worst = dd
		}
	}
	return worst
}

// pctChanges is the successive percentage change of the per-trade P&L series.
// The first element is zero, as is any element whose predecessor is zero.
func pctChanges(pnl []float64) []float64 {
	out := make([]float64, len(pnl))
	for i := 1; i < len(pnl); i++ {
		prev := pnl[i-1]
		if prev == 0 {
			continue
		}
		out[i] = (pnl[i] - prev) / prev
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the n-1 denominator standard deviation.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
