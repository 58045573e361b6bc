package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type OrderKind string

const (
	OrderKindMarket     OrderKind = "market"
	OrderKindLimit      OrderKind = "limit"
	OrderKindStopLoss   OrderKind = "stop_loss"
	OrderKindTakeProfit OrderKind = "take_profit"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

// OrderRequest carries everything a caller may specify when placing an order.
// Price is the limit price for limit orders; StopPrice is the trigger for
// stop_loss/take_profit orders. StopLoss/TakeProfit attach exit triggers to the
// position that results from the fill.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Kind       OrderKind `json:"type"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price,omitempty"`
	StopPrice  float64   `json:"stop_price,omitempty"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
}

func (r OrderRequest) validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if r.Quantity <= 0 || math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	switch r.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, r.Side)
	}
	switch r.Kind {
	case OrderKindMarket:
	case OrderKindLimit:
		if r.Price <= 0 {
			return fmt.Errorf("%w: limit order requires a price", ErrInvalidOrder)
		}
	case OrderKindStopLoss, OrderKindTakeProfit:
		if r.StopPrice <= 0 {
			return fmt.Errorf("%w: %s order requires a stop price", ErrInvalidOrder, r.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, r.Kind)
	}
	return nil
}

// Order is the lifecycle record of a single placement. Filled orders carry the
// executed price and quantity; pending non-market orders live in the book until
// a price update triggers them or the caller cancels.
type Order struct {
	ID             string      `json:"id"`
	Symbol         string      `json:"symbol"`
	Kind           OrderKind   `json:"type"`
	Side           Side        `json:"side"`
	Quantity       float64     `json:"quantity"`
	Price          float64     `json:"price,omitempty"`
	StopPrice      float64     `json:"stop_price,omitempty"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"timestamp"`
	FilledQuantity float64     `json:"filled_quantity"`
	FilledPrice    float64     `json:"filled_price,omitempty"`

	// Exit triggers requested at placement time; copied onto the resulting
	// position after the fill.
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
}

// Trade is an append-only fill/close record. RealizedPnL is zero for a trade
// that merely opens or adds exposure; reductions and closes realize against the
// position entry price.
type Trade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Timestamp   time.Time `json:"timestamp"`
	Commission  float64   `json:"commission"`
	RealizedPnL float64   `json:"realized_pnl"`
}
