package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordOrder(ord Order)     { m.Called(ord) }
func (m *MockRecorder) RecordTrade(t Trade)       { m.Called(t) }
func (m *MockRecorder) RecordSnapshot(s Snapshot) { m.Called(s) }

func TestRecorderHook(t *testing.T) {
	t.Run("Market Fill Emits Order And Trade", func(t *testing.T) {
		rec := new(MockRecorder)
		rec.On("RecordSnapshot", mock.Anything).Return()
		rec.On("RecordOrder", mock.Anything).Return()
		rec.On("RecordTrade", mock.Anything).Return()

		e := newTestEngine(t)
		e.SetRecorder(rec)
		mustUpdatePrice(t, e, "BTC", 45000)
		placeMarket(t, e, "BTC", SideBuy, 0.1)

		rec.AssertNumberOfCalls(t, "RecordOrder", 1)
		rec.AssertNumberOfCalls(t, "RecordTrade", 1)
		rec.AssertNumberOfCalls(t, "RecordSnapshot", 1)

		// Calls land as: snapshot from the price update, then the trade and
		// the order from the fill.
		trade := rec.Calls[1].Arguments.Get(0).(Trade)
		assert.InDelta(t, 4.5, trade.Commission, 1e-9)
		order := rec.Calls[2].Arguments.Get(0).(Order)
		assert.Equal(t, OrderStatusFilled, order.Status)
	})

	t.Run("Snapshot Per Price Update", func(t *testing.T) {
		rec := new(MockRecorder)
		rec.On("RecordSnapshot", mock.Anything).Return()

		e := newTestEngine(t)
		e.SetRecorder(rec)
		mustUpdatePrice(t, e, "BTC", 45000)
		mustUpdatePrice(t, e, "BTC", 45100)

		rec.AssertNumberOfCalls(t, "RecordSnapshot", 2)
		snap := rec.Calls[1].Arguments.Get(0).(Snapshot)
		assert.Equal(t, 10000.0, snap.Equity)
	})

	t.Run("Rejected Order Emits Nothing", func(t *testing.T) {
		rec := new(MockRecorder)
		e := newTestEngine(t)
		e.SetRecorder(rec)

		_, err := e.PlaceOrder(OrderRequest{Symbol: "BTC", Kind: OrderKindMarket, Side: SideBuy, Quantity: 1})
		require.ErrorIs(t, err, ErrNoMarketPrice)
		rec.AssertNotCalled(t, "RecordOrder")
		rec.AssertNotCalled(t, "RecordTrade")
	})

	t.Run("Cancellation Recorded", func(t *testing.T) {
		rec := new(MockRecorder)
		rec.On("RecordOrder", mock.Anything).Return()

		e := newTestEngine(t)
		e.SetRecorder(rec)
		order, err := e.PlaceOrder(OrderRequest{Symbol: "BTC", Kind: OrderKindLimit, Side: SideBuy, Quantity: 1, Price: 100})
		require.NoError(t, err)
		_, err = e.CancelOrder(order.ID)
		require.NoError(t, err)

		rec.AssertNumberOfCalls(t, "RecordOrder", 2)
		cancelled := rec.Calls[1].Arguments.Get(0).(Order)
		assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	})
}
