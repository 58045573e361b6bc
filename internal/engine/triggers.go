package engine

import "time"

// checkPositionTriggers evaluates the stop-loss/take-profit fields attached to
// the position for symbol. A hit closes the whole position at the update
// price. Callers hold the mutex.
func (e *Engine) checkPositionTriggers(symbol string, price float64, ts time.Time) {
	pos := e.findPosition(symbol)
	if pos == nil {
		return
	}

	triggered := false
	if pos.StopLoss > 0 {
		if pos.Side == SideBuy && decimalLTE(price, pos.StopLoss) {
			triggered = true
		} else if pos.Side == SideSell && decimalGTE(price, pos.StopLoss) {
			triggered = true
		}
	}
	if !triggered && pos.TakeProfit > 0 {
		if pos.Side == SideBuy && decimalGTE(price, pos.TakeProfit) {
			triggered = true
		} else if pos.Side == SideSell && decimalLTE(price, pos.TakeProfit) {
			triggered = true
		}
	}
	if triggered {
		e.closePosition(pos, price, ts)
	}
}

// checkPendingOrders walks the book in insertion order and fills every order
// whose trigger condition the new price satisfies. Triggered orders execute at
// the update price and leave the book.
//
// Limit: buy fills at or below the limit price, sell at or above. Standalone
// stop_loss orders use stop semantics (buy at or above the trigger, sell at or
// below); standalone take_profit orders trigger like limits.
func (e *Engine) checkPendingOrders(symbol string, price float64) {
	remaining := e.pending[:0]
	var filled []*Order
	for _, ord := range e.pending {
		if ord.Symbol != symbol || !orderTriggered(ord, price) {
			remaining = append(remaining, ord)
			continue
		}
		filled = append(filled, ord)
	}
	e.pending = remaining

	for _, ord := range filled {
		e.fill(ord, price)
		done := *ord
		e.record(func(r Recorder) { r.RecordOrder(done) })
	}
}

func orderTriggered(ord *Order, price float64) bool {
	switch ord.Kind {
	case OrderKindLimit:
		if ord.Side == SideBuy {
			return decimalLTE(price, ord.Price)
		}
		return decimalGTE(price, ord.Price)
	case OrderKindStopLoss:
		if ord.Side == SideBuy {
			return decimalGTE(price, ord.StopPrice)
		}
		return decimalLTE(price, ord.StopPrice)
	case OrderKindTakeProfit:
		if ord.Side == SideBuy {
			return decimalLTE(price, ord.StopPrice)
		}
		return decimalGTE(price, ord.StopPrice)
	default:
		return false
	}
}
