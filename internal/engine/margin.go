package engine

import (
	"math"
	"sort"
	"time"

	"papertrade/internal/logger"
)

// refreshPortfolio marks every position to the latest table price, recomputes
// equity and margin, and runs forced liquidation while the margin level sits
// at or below the call threshold. Callers hold the mutex.
func (e *Engine) refreshPortfolio() {
	e.recomputeEquity()
	e.handleMarginCall()
}

// recomputeEquity refreshes mark prices and derives equity, used margin, and
// margin level. An account with no open exposure reports a level of 100.
func (e *Engine) recomputeEquity() {
	totalUnrealized := 0.0
	totalMargin := 0.0
	for _, pos := range e.positions {
		if price, ok := e.prices[pos.Symbol]; ok {
			pos.CurrentPrice = price
		}
		pos.UnrealizedPnL = pos.unrealizedAt(pos.CurrentPrice)
		totalUnrealized += pos.UnrealizedPnL
		totalMargin += math.Abs(pos.Quantity*pos.CurrentPrice) / e.cfg.Leverage
	}
	e.equity = e.balance + totalUnrealized
	e.usedMargin = totalMargin
	if e.usedMargin > 0 {
		e.marginLevel = e.equity / e.usedMargin * 100
	} else {
		e.marginLevel = 100
	}
}

// handleMarginCall closes positions worst-first until the margin level clears
// the threshold. Each pass removes exactly one position, so the loop runs at
// most once per open position; an empty ledger forces the level back to 100.
func (e *Engine) handleMarginCall() {
	if e.marginLevel > e.cfg.MarginCallLevel || len(e.positions) == 0 {
		return
	}
	logger.Warnf("engine: margin call triggered (level=%.2f%%, threshold=%.2f%%)",
		e.marginLevel, e.cfg.MarginCallLevel)

	for len(e.positions) > 0 && e.marginLevel <= e.cfg.MarginCallLevel {
		sorted := make([]*Position, len(e.positions))
		copy(sorted, e.positions)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].UnrealizedPnL < sorted[j].UnrealizedPnL
		})
		worst := sorted[0]
		exitPrice := worst.CurrentPrice
		if price, ok := e.prices[worst.Symbol]; ok {
			exitPrice = price
		}
		logger.Warnf("engine: liquidating %s %s qty=%v (unrealized=%.2f)",
			worst.Symbol, worst.Side, worst.Quantity, worst.UnrealizedPnL)
		e.closePosition(worst, exitPrice, time.Now())
		e.recomputeEquity()
	}
}
