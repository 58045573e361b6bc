// Package store wires the audit sinks behind the engine's Recorder hook. The
// engine emits records from inside its critical section, so everything here
// goes through a buffered channel and a single background writer; the account
// never waits on SQLite.
package store

import (
	"context"
	"sync"

	"papertrade/internal/engine"
	"papertrade/internal/logger"
	"papertrade/internal/store/equity"
	"papertrade/internal/store/ledger"
)

type eventKind int

const (
	eventOrder eventKind = iota
	eventTrade
	eventSnapshot
)

type event struct {
	kind     eventKind
	order    engine.Order
	trade    engine.Trade
	snapshot engine.Snapshot
}

// Recorder implements engine.Recorder on top of the ledger and equity stores.
type Recorder struct {
	orders    *ledger.Store
	snapshots *equity.Store

	ch     chan event
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewRecorder(orders *ledger.Store, snapshots *equity.Store) *Recorder {
	r := &Recorder{
		orders:    orders,
		snapshots: snapshots,
		ch:        make(chan event, 1024),
		stopCh:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writeLoop()
	return r
}

var _ engine.Recorder = (*Recorder)(nil)

func (r *Recorder) RecordOrder(ord engine.Order) {
	r.enqueue(event{kind: eventOrder, order: ord})
}

func (r *Recorder) RecordTrade(t engine.Trade) {
	r.enqueue(event{kind: eventTrade, trade: t})
}

func (r *Recorder) RecordSnapshot(snap engine.Snapshot) {
	r.enqueue(event{kind: eventSnapshot, snapshot: snap})
}

// enqueue never blocks; under sustained backpressure the oldest audit data is
// the right thing to lose.
func (r *Recorder) enqueue(evt event) {
	select {
	case r.ch <- evt:
	default:
		logger.Warnf("store: recorder buffer full, dropping audit event")
	}
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()
	ctx := context.Background()
	for {
		select {
		case evt := <-r.ch:
			r.write(ctx, evt)
		case <-r.stopCh:
			// Drain what is already buffered before shutting down.
			for {
				select {
				case evt := <-r.ch:
					r.write(ctx, evt)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(ctx context.Context, evt event) {
	var err error
	switch evt.kind {
	case eventOrder:
		if r.orders != nil {
			err = r.orders.InsertOrder(ctx, evt.order)
		}
	case eventTrade:
		if r.orders != nil {
			err = r.orders.InsertTrade(ctx, evt.trade)
		}
	case eventSnapshot:
		if r.snapshots != nil {
			err = r.snapshots.Insert(ctx, evt.snapshot)
		}
	}
	if err != nil {
		logger.Warnf("store: audit write failed: %v", err)
	}
}

// Close flushes buffered events and stops the writer. Safe to call twice.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}
