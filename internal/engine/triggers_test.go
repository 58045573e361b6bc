package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggers_PositionStopLoss(t *testing.T) {
	t.Run("Long Stop", func(t *testing.T) {
		e := newTestEngine(t)
		mustUpdatePrice(t, e, "BTC", 45000)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindMarket, Side: SideBuy,
			Quantity: 0.1, StopLoss: 44500,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 44000)
		assert.Empty(t, e.Positions())

		trades := e.Trades()
		require.Len(t, trades, 2)
		closeTrade := trades[1]
		assert.InDelta(t, (44000.0-45000.0)*0.1, closeTrade.RealizedPnL, 1e-9)
		assert.Equal(t, 44000.0, closeTrade.Price)
	})

	t.Run("Long Stop Exact Level", func(t *testing.T) {
		e := newTestEngine(t)
		mustUpdatePrice(t, e, "BTC", 45000)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindMarket, Side: SideBuy,
			Quantity: 0.1, StopLoss: 44500,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 44500)
		assert.Empty(t, e.Positions())
	})

	t.Run("Short Stop", func(t *testing.T) {
		e := newTestEngine(t)
		mustUpdatePrice(t, e, "ETH", 3000)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "ETH", Kind: OrderKindMarket, Side: SideSell,
			Quantity: 1, StopLoss: 3100,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "ETH", 3150)
		assert.Empty(t, e.Positions())
		trades := e.Trades()
		require.Len(t, trades, 2)
		assert.InDelta(t, 3000.0-3150.0, trades[1].RealizedPnL, 1e-9)
	})

	t.Run("No Trigger Above Stop", func(t *testing.T) {
		e := newTestEngine(t)
		mustUpdatePrice(t, e, "BTC", 45000)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindMarket, Side: SideBuy,
			Quantity: 0.1, StopLoss: 44500,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 44600)
		assert.Len(t, e.Positions(), 1)
	})
}

func TestTriggers_PositionTakeProfit(t *testing.T) {
	t.Run("Long Target", func(t *testing.T) {
		e := newTestEngine(t)
		mustUpdatePrice(t, e, "BTC", 45000)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindMarket, Side: SideBuy,
			Quantity: 0.1, TakeProfit: 46000,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 46000)
		assert.Empty(t, e.Positions())
		trades := e.Trades()
		require.Len(t, trades, 2)
		assert.InDelta(t, 100.0, trades[1].RealizedPnL, 1e-9)
	})

	t.Run("Short Target", func(t *testing.T) {
		e := newTestEngine(t)
		mustUpdatePrice(t, e, "ETH", 3000)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "ETH", Kind: OrderKindMarket, Side: SideSell,
			Quantity: 2, TakeProfit: 2900,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "ETH", 2890)
		assert.Empty(t, e.Positions())
		trades := e.Trades()
		require.Len(t, trades, 2)
		assert.InDelta(t, (3000.0-2890.0)*2, trades[1].RealizedPnL, 1e-9)
	})
}

func TestTriggers_LimitOrders(t *testing.T) {
	t.Run("Buy Fills At Or Below Limit", func(t *testing.T) {
		e := newTestEngine(t)
		order, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindLimit, Side: SideBuy,
			Quantity: 0.1, Price: 44000,
		})
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, order.Status)

		mustUpdatePrice(t, e, "BTC", 45000)
		assert.Len(t, e.Orders(), 1, "price above limit must not fill a buy")

		mustUpdatePrice(t, e, "BTC", 44000)
		assert.Empty(t, e.Orders())
		positions := e.Positions()
		require.Len(t, positions, 1)
		assert.Equal(t, 44000.0, positions[0].EntryPrice)
	})

	t.Run("Sell Fills At Or Above Limit", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "ETH", Kind: OrderKindLimit, Side: SideSell,
			Quantity: 1, Price: 3100,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "ETH", 3000)
		assert.Len(t, e.Orders(), 1)

		mustUpdatePrice(t, e, "ETH", 3200)
		assert.Empty(t, e.Orders())
		positions := e.Positions()
		require.Len(t, positions, 1)
		assert.Equal(t, SideSell, positions[0].Side)
		assert.Equal(t, 3200.0, positions[0].EntryPrice, "fills execute at the update price")
	})

	t.Run("Insertion Order Preserved", func(t *testing.T) {
		e := newTestEngine(t)
		first, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindLimit, Side: SideBuy,
			Quantity: 0.1, Price: 44000,
		})
		require.NoError(t, err)
		second, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindLimit, Side: SideBuy,
			Quantity: 0.2, Price: 44500,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 43000)
		assert.Empty(t, e.Orders())

		trades := e.Trades()
		require.Len(t, trades, 2)
		assert.Equal(t, first.Quantity, trades[0].Quantity)
		assert.Equal(t, second.Quantity, trades[1].Quantity)
	})

	t.Run("Other Symbols Untouched", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "ETH", Kind: OrderKindLimit, Side: SideBuy,
			Quantity: 1, Price: 5000,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 100)
		assert.Len(t, e.Orders(), 1)
	})
}

func TestTriggers_StandaloneStopOrders(t *testing.T) {
	t.Run("Buy Stop Triggers On Rise", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindStopLoss, Side: SideBuy,
			Quantity: 0.1, StopPrice: 46000,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 45000)
		assert.Len(t, e.Orders(), 1)

		mustUpdatePrice(t, e, "BTC", 46000)
		assert.Empty(t, e.Orders())
		require.Len(t, e.Positions(), 1)
		assert.Equal(t, SideBuy, e.Positions()[0].Side)
	})

	t.Run("Sell Stop Triggers On Drop", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "BTC", Kind: OrderKindStopLoss, Side: SideSell,
			Quantity: 0.1, StopPrice: 44000,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "BTC", 45000)
		assert.Len(t, e.Orders(), 1)

		mustUpdatePrice(t, e, "BTC", 43900)
		assert.Empty(t, e.Orders())
	})

	t.Run("Take Profit Acts Like A Limit", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.PlaceOrder(OrderRequest{
			Symbol: "ETH", Kind: OrderKindTakeProfit, Side: SideBuy,
			Quantity: 1, StopPrice: 2900,
		})
		require.NoError(t, err)

		mustUpdatePrice(t, e, "ETH", 3000)
		assert.Len(t, e.Orders(), 1)

		mustUpdatePrice(t, e, "ETH", 2900)
		assert.Empty(t, e.Orders())
	})
}

func TestTriggers_StopBeforePendingBook(t *testing.T) {
	// A position stop and a pending limit on the same symbol both hit on one
	// update: the stop closes the position first, then the limit opens a
	// fresh one at the update price.
	e := newTestEngine(t)
	mustUpdatePrice(t, e, "BTC", 45000)
	_, err := e.PlaceOrder(OrderRequest{
		Symbol: "BTC", Kind: OrderKindMarket, Side: SideBuy,
		Quantity: 0.1, StopLoss: 44500,
	})
	require.NoError(t, err)
	_, err = e.PlaceOrder(OrderRequest{
		Symbol: "BTC", Kind: OrderKindLimit, Side: SideBuy,
		Quantity: 0.2, Price: 44400,
	})
	require.NoError(t, err)

	mustUpdatePrice(t, e, "BTC", 44000)

	positions := e.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, 0.2, positions[0].Quantity)
	assert.Equal(t, 44000.0, positions[0].EntryPrice, "limit fill nets against nothing once the stop has flattened")
}
