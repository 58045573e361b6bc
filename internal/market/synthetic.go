package market

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"papertrade/internal/logger"
)

// Baseline prices for well-known symbols; anything else starts at 100.
var syntheticBase = map[string]float64{
	"BTC": 45000,
	"ETH": 3000,
	"SOL": 100,
}

// SyntheticSource is a seeded random-walk generator. Each tick nudges every
// symbol by a normally distributed step of at most a few tenths of a percent,
// which is enough to exercise triggers and margin churn without real data.
type SyntheticSource struct {
	symbols  []string
	interval time.Duration
	rng      *rand.Rand
	prices   map[string]float64
}

func NewSyntheticSource(symbols []string, interval time.Duration, seed int64) *SyntheticSource {
	if interval <= 0 {
		interval = time.Second
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prices := make(map[string]float64, len(symbols))
	cleaned := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		base, ok := syntheticBase[sym]
		if !ok {
			base = 100
		}
		prices[sym] = base
		cleaned = append(cleaned, sym)
	}
	return &SyntheticSource{
		symbols:  cleaned,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		prices:   prices,
	}
}

func (s *SyntheticSource) Run(ctx context.Context, sink Sink) error {
	if len(s.symbols) == 0 {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logger.Infof("market: synthetic feed started (%d symbols, every %s)", len(s.symbols), s.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, sym := range s.symbols {
				price := s.step(sym)
				if err := sink(sym, price); err != nil {
					logger.Warnf("market: synthetic price for %s rejected: %v", sym, err)
				}
			}
		}
	}
}

func (s *SyntheticSource) step(symbol string) float64 {
	price := s.prices[symbol]
	// 0.2% stddev per tick, clamped so the walk cannot cross zero.
	next := price * (1 + s.rng.NormFloat64()*0.002)
	if next <= 0 {
		next = price
	}
	s.prices[symbol] = next
	return next
}
