// Package engine implements a single-account leveraged paper-trading core:
// order placement and fills, position netting, conditional-order triggers,
// margin tracking with forced liquidation, and an append-only trade ledger.
package engine

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"papertrade/internal/logger"
)

// Config holds the account parameters. Zero values fall back to the defaults
// below.
type Config struct {
	InitialBalance  float64
	Leverage        float64
	CommissionRate  float64
	MarginCallLevel float64
	MaxLeverage     float64
}

const (
	DefaultInitialBalance  = 10000.0
	DefaultLeverage        = 10.0
	DefaultCommissionRate  = 0.001
	DefaultMarginCallLevel = 50.0
	DefaultMaxLeverage     = 100.0
)

func (c Config) withDefaults() Config {
	if c.InitialBalance <= 0 {
		c.InitialBalance = DefaultInitialBalance
	}
	if c.Leverage <= 0 {
		c.Leverage = DefaultLeverage
	}
	if c.CommissionRate < 0 {
		c.CommissionRate = 0
	}
	if c.CommissionRate == 0 {
		c.CommissionRate = DefaultCommissionRate
	}
	if c.MarginCallLevel <= 0 {
		c.MarginCallLevel = DefaultMarginCallLevel
	}
	if c.MaxLeverage <= 0 {
		c.MaxLeverage = DefaultMaxLeverage
	}
	if c.Leverage > c.MaxLeverage {
		c.Leverage = c.MaxLeverage
	}
	return c
}

// Snapshot is a point-in-time view of the account, emitted after every price
// update for the equity curve.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	Balance     float64   `json:"balance"`
	Equity      float64   `json:"equity"`
	UsedMargin  float64   `json:"used_margin"`
	MarginLevel float64   `json:"margin_level"`
	Positions   int       `json:"positions"`
}

// Recorder receives executed orders, appended trades, and equity snapshots for
// audit persistence. Implementations must not call back into the engine; a
// failing recorder never affects account state.
type Recorder interface {
	RecordOrder(Order)
	RecordTrade(Trade)
	RecordSnapshot(Snapshot)
}

// PortfolioSummary mirrors the account headline figures.
type PortfolioSummary struct {
	Balance       float64 `json:"balance"`
	Equity        float64 `json:"equity"`
	UsedMargin    float64 `json:"used_margin"`
	MarginLevel   float64 `json:"margin_level"`
	Leverage      float64 `json:"leverage"`
	PositionCount int     `json:"position_count"`
	OrderCount    int     `json:"order_count"`
	TradeCount    int     `json:"trade_count"`
}

// Engine is the account aggregate. Every external operation takes the mutex
// for its full duration, including any trigger or liquidation cascade, so
// intermediate margin states are never observable.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	balance     float64
	equity      float64
	usedMargin  float64
	marginLevel float64

	prices    map[string]float64
	positions []*Position
	pending   []*Order
	trades    []Trade

	recorder Recorder
}

func New(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:         cfg,
		balance:     cfg.InitialBalance,
		equity:      cfg.InitialBalance,
		marginLevel: 100,
		prices:      make(map[string]float64),
	}
}

// SetRecorder attaches an audit sink. Pass nil to detach.
func (e *Engine) SetRecorder(r Recorder) {
	e.mu.Lock()
	e.recorder = r
	e.mu.Unlock()
}

// Reset discards all ledgers and restores a fresh account. Non-positive
// arguments keep the configured defaults; leverage is clamped to the maximum.
func (e *Engine) Reset(initialBalance, leverage float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if initialBalance > 0 {
		e.cfg.InitialBalance = initialBalance
	}
	if leverage > 0 {
		e.cfg.Leverage = math.Min(leverage, e.cfg.MaxLeverage)
	}
	e.balance = e.cfg.InitialBalance
	e.equity = e.cfg.InitialBalance
	e.usedMargin = 0
	e.marginLevel = 100
	e.prices = make(map[string]float64)
	e.positions = nil
	e.pending = nil
	e.trades = nil
	logger.Infof("engine: account reset (balance=%.2f leverage=%.0fx)", e.balance, e.cfg.Leverage)
}

// PlaceOrder validates the request and either fills it immediately (market) or
// parks it in the pending book. Rejections leave no trace in any ledger.
func (e *Engine) PlaceOrder(req OrderRequest) (Order, error) {
	if err := req.validate(); err != nil {
		return Order{}, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	e.mu.Lock()
	defer e.mu.Unlock()

	order := Order{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Kind:       req.Kind,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		StopPrice:  req.StopPrice,
		Status:     OrderStatusPending,
		CreatedAt:  time.Now(),
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
	}

	if req.Kind == OrderKindMarket {
		price, ok := e.prices[symbol]
		if !ok {
			return Order{}, fmt.Errorf("%w for %s", ErrNoMarketPrice, symbol)
		}
		e.fill(&order, price)
		e.refreshPortfolio()
		e.record(func(r Recorder) { r.RecordOrder(order) })
		return order, nil
	}

	e.pending = append(e.pending, &order)
	e.record(func(r Recorder) { r.RecordOrder(order) })
	return order, nil
}

// CancelOrder removes a pending order from the book.
func (e *Engine) CancelOrder(id string) (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, ord := range e.pending {
		if ord.ID == id {
			ord.Status = OrderStatusCancelled
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			cancelled := *ord
			e.record(func(r Recorder) { r.RecordOrder(cancelled) })
			return cancelled, nil
		}
	}
	return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// UpdateMarketPrice records the latest price for a symbol, evaluates every
// trigger that references it, and recomputes equity and margin. The whole
// cascade, liquidation included, runs under one critical section.
func (e *Engine) UpdateMarketPrice(symbol string, price float64) error {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidPrice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.prices[symbol] = price
	now := time.Now()
	e.checkPositionTriggers(symbol, price, now)
	e.checkPendingOrders(symbol, price)
	e.refreshPortfolio()

	snap := Snapshot{
		Timestamp:   now,
		Balance:     e.balance,
		Equity:      e.equity,
		UsedMargin:  e.usedMargin,
		MarginLevel: e.marginLevel,
		Positions:   len(e.positions),
	}
	e.record(func(r Recorder) { r.RecordSnapshot(snap) })
	return nil
}

// AdjustPortfolio overrides balance and/or leverage in place and recomputes
// equity. Nil pointers leave the field untouched.
func (e *Engine) AdjustPortfolio(balance, leverage *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if balance != nil && *balance >= 0 {
		e.balance = *balance
	}
	if leverage != nil && *leverage > 0 {
		e.cfg.Leverage = math.Min(*leverage, e.cfg.MaxLeverage)
	}
	e.refreshPortfolio()
}

// fill settles an order at executionPrice: nets it into the position ledger,
// records the order's own commission trade, and applies requested exit
// triggers to the surviving position. Callers hold the mutex.
func (e *Engine) fill(order *Order, executionPrice float64) {
	ts := time.Now()
	order.Status = OrderStatusFilled
	order.FilledPrice = executionPrice
	order.FilledQuantity = order.Quantity

	e.applyFill(order.Symbol, order.Side, order.Quantity, executionPrice, ts)

	commission := math.Abs(executionPrice*order.Quantity) * e.cfg.CommissionRate
	e.appendTrade(Trade{
		ID:          uuid.NewString(),
		Symbol:      order.Symbol,
		Side:        order.Side,
		Quantity:    order.Quantity,
		Price:       executionPrice,
		Timestamp:   ts,
		Commission:  commission,
		RealizedPnL: 0,
	})
	e.balance -= commission

	if pos := e.findPosition(order.Symbol); pos != nil {
		if order.StopLoss > 0 {
			pos.StopLoss = order.StopLoss
		}
		if order.TakeProfit > 0 {
			pos.TakeProfit = order.TakeProfit
		}
	}
}

func (e *Engine) appendTrade(t Trade) {
	e.trades = append(e.trades, t)
	e.record(func(r Recorder) { r.RecordTrade(t) })
}

func (e *Engine) record(fn func(Recorder)) {
	if e.recorder == nil {
		return
	}
	fn(e.recorder)
}

// PortfolioSummary returns the current headline figures. OrderCount counts
// pending orders only; filled and cancelled orders leave the book.
func (e *Engine) PortfolioSummary() PortfolioSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return PortfolioSummary{
		Balance:       e.balance,
		Equity:        e.equity,
		UsedMargin:    e.usedMargin,
		MarginLevel:   e.marginLevel,
		Leverage:      e.cfg.Leverage,
		PositionCount: len(e.positions),
		OrderCount:    len(e.pending),
		TradeCount:    len(e.trades),
	}
}

// Positions returns a copy of the open-position ledger.
func (e *Engine) Positions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Position, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, *pos)
	}
	return out
}

// Orders returns a copy of the pending book in insertion order.
func (e *Engine) Orders() []Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Order, 0, len(e.pending))
	for _, ord := range e.pending {
		out = append(out, *ord)
	}
	return out
}

// Trades returns a copy of the trade ledger in append order.
func (e *Engine) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// MarketPrice reports the latest known price for symbol.
func (e *Engine) MarketPrice(symbol string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	price, ok := e.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	return price, ok
}
