package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Position is the netted exposure for one symbol. The ledger holds at most one
// entry per symbol; an opposite-side fill reduces or flips it instead of
// opening a second entry.
type Position struct {
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entry_price"`
	CurrentPrice  float64   `json:"current_price"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	StopLoss      float64   `json:"stop_loss,omitempty"`
	TakeProfit    float64   `json:"take_profit,omitempty"`
	OpenedAt      time.Time `json:"timestamp"`
}

func (p *Position) unrealizedAt(price float64) float64 {
	if p.Side == SideBuy {
		return (price - p.EntryPrice) * p.Quantity
	}
	return (p.EntryPrice - price) * p.Quantity
}

func (e *Engine) findPosition(symbol string) *Position {
	for _, pos := range e.positions {
		if pos.Symbol == symbol {
			return pos
		}
	}
	return nil
}

func (e *Engine) removePosition(target *Position) {
	for i, pos := range e.positions {
		if pos == target {
			e.positions = append(e.positions[:i], e.positions[i+1:]...)
			return
		}
	}
}

// applyFill nets an executed quantity into the position ledger. Same-side
// fills merge at the volume-weighted entry; opposite-side fills reduce, close,
// or flip. Reductions realize P&L immediately at the fill price while the
// surviving entry price stays put.
func (e *Engine) applyFill(symbol string, side Side, qty, price float64, ts time.Time) {
	pos := e.findPosition(symbol)
	if pos == nil {
		e.positions = append(e.positions, &Position{
			Symbol:       symbol,
			Side:         side,
			Quantity:     qty,
			EntryPrice:   price,
			CurrentPrice: price,
			OpenedAt:     ts,
		})
		return
	}

	if pos.Side == side {
		total := pos.Quantity + qty
		pos.EntryPrice = (pos.Quantity*pos.EntryPrice + qty*price) / total
		pos.Quantity = total
		pos.CurrentPrice = price
		return
	}

	switch {
	case pos.Quantity > qty:
		e.reducePosition(pos, qty, price, ts)
	case pos.Quantity == qty:
		e.closePosition(pos, price, ts)
	default:
		remainder := qty - pos.Quantity
		e.closePosition(pos, price, ts)
		e.positions = append(e.positions, &Position{
			Symbol:       symbol,
			Side:         side,
			Quantity:     remainder,
			EntryPrice:   price,
			CurrentPrice: price,
			OpenedAt:     ts,
		})
	}
}

// reducePosition realizes P&L on the closed slice and charges commission on it.
func (e *Engine) reducePosition(pos *Position, qty, exitPrice float64, ts time.Time) {
	var pnl float64
	if pos.Side == SideBuy {
		pnl = (exitPrice - pos.EntryPrice) * qty
	} else {
		pnl = (pos.EntryPrice - exitPrice) * qty
	}
	commission := math.Abs(exitPrice*qty) * e.cfg.CommissionRate
	e.appendTrade(Trade{
		ID:          uuid.NewString(),
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Quantity:    qty,
		Price:       exitPrice,
		Timestamp:   ts,
		Commission:  commission,
		RealizedPnL: pnl,
	})
	e.balance += pnl - commission
	pos.Quantity -= qty
	pos.CurrentPrice = exitPrice
}

// closePosition settles the whole position at exitPrice and drops it from the
// ledger.
func (e *Engine) closePosition(pos *Position, exitPrice float64, ts time.Time) {
	var pnl float64
	if pos.Side == SideBuy {
		pnl = (exitPrice - pos.EntryPrice) * pos.Quantity
	} else {
		pnl = (pos.EntryPrice - exitPrice) * pos.Quantity
	}
	commission := math.Abs(exitPrice*pos.Quantity) * e.cfg.CommissionRate
	e.appendTrade(Trade{
		ID:          uuid.NewString(),
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Quantity:    pos.Quantity,
		Price:       exitPrice,
		Timestamp:   ts,
		Commission:  commission,
		RealizedPnL: pnl,
	})
	e.balance += pnl - commission
	e.removePosition(pos)
}
