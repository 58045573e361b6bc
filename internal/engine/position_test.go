package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeMarket(t *testing.T, e *Engine, symbol string, side Side, qty float64) Order {
	t.Helper()
	order, err := e.PlaceOrder(OrderRequest{Symbol: symbol, Kind: OrderKindMarket, Side: side, Quantity: qty})
	require.NoError(t, err)
	return order
}

func TestNetting_SameSideMerge(t *testing.T) {
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "ETH", 100)
	placeMarket(t, e, "ETH", SideBuy, 1)
	mustUpdatePrice(t, e, "ETH", 200)
	placeMarket(t, e, "ETH", SideBuy, 1)

	positions := e.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, SideBuy, positions[0].Side)
	assert.Equal(t, 2.0, positions[0].Quantity)
	assert.InDelta(t, 150.0, positions[0].EntryPrice, 1e-9)

	// Adds never realize anything.
	for _, tr := range e.Trades() {
		assert.Zero(t, tr.RealizedPnL)
	}
}

func TestNetting_Reduce(t *testing.T) {
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "ETH", 100)
	placeMarket(t, e, "ETH", SideBuy, 2)
	mustUpdatePrice(t, e, "ETH", 120)
	placeMarket(t, e, "ETH", SideSell, 1)

	positions := e.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, SideBuy, positions[0].Side)
	assert.Equal(t, 1.0, positions[0].Quantity)
	assert.InDelta(t, 100.0, positions[0].EntryPrice, 1e-9, "entry price survives a partial close")

	trades := e.Trades()
	// Open commission, realization on the reduced slice, then the sell's own
	// commission trade.
	require.Len(t, trades, 3)
	realization := trades[1]
	assert.InDelta(t, 20.0, realization.RealizedPnL, 1e-9)
	assert.InDelta(t, 0.12, realization.Commission, 1e-9)

	// balance = 10000 - 0.2 (open) + 20 - 0.12 (reduce) - 0.12 (fill commission)
	assert.InDelta(t, 10000-0.2+20-0.12-0.12, e.PortfolioSummary().Balance, 1e-9)
}

func TestNetting_Close(t *testing.T) {
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "ETH", 100)
	placeMarket(t, e, "ETH", SideBuy, 2)
	mustUpdatePrice(t, e, "ETH", 90)
	placeMarket(t, e, "ETH", SideSell, 2)

	assert.Empty(t, e.Positions())
	summary := e.PortfolioSummary()
	// balance = 10000 - 0.2 (open) - 20 (loss) - 0.18 (close) - 0.18 (fill)
	assert.InDelta(t, 10000-0.2-20-0.18-0.18, summary.Balance, 1e-9)
	assert.InDelta(t, summary.Balance, summary.Equity, 1e-9)
	assert.Equal(t, 100.0, summary.MarginLevel)
}

func TestNetting_Flip(t *testing.T) {
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "ETH", 100)
	placeMarket(t, e, "ETH", SideBuy, 1)
	mustUpdatePrice(t, e, "ETH", 110)
	placeMarket(t, e, "ETH", SideSell, 3)

	positions := e.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, SideSell, positions[0].Side)
	assert.Equal(t, 2.0, positions[0].Quantity)
	assert.InDelta(t, 110.0, positions[0].EntryPrice, 1e-9)

	var realized float64
	for _, tr := range e.Trades() {
		realized += tr.RealizedPnL
	}
	assert.InDelta(t, 10.0, realized, 1e-9)
}

func TestNetting_OnePositionPerSymbol(t *testing.T) {
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "BTC", 45000)
	mustUpdatePrice(t, e, "ETH", 3000)
	placeMarket(t, e, "BTC", SideBuy, 0.1)
	placeMarket(t, e, "BTC", SideBuy, 0.2)
	placeMarket(t, e, "ETH", SideSell, 1)
	placeMarket(t, e, "ETH", SideSell, 1)

	positions := e.Positions()
	require.Len(t, positions, 2)
	seen := map[string]bool{}
	for _, pos := range positions {
		assert.False(t, seen[pos.Symbol], "duplicate position for %s", pos.Symbol)
		seen[pos.Symbol] = true
	}
}

func TestNetting_ShortPnL(t *testing.T) {
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "SOL", 100)
	placeMarket(t, e, "SOL", SideSell, 10)
	mustUpdatePrice(t, e, "SOL", 90)

	positions := e.Positions()
	require.Len(t, positions, 1)
	assert.InDelta(t, 100.0, positions[0].UnrealizedPnL, 1e-9)

	placeMarket(t, e, "SOL", SideBuy, 10)
	assert.Empty(t, e.Positions())
	// balance = 10000 - 1 (open) + 100 - 0.9 (close) - 0.9 (fill)
	assert.InDelta(t, 10000-1+100-0.9-0.9, e.PortfolioSummary().Balance, 1e-9)
}
