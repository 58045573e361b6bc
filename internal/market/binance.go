package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"papertrade/internal/logger"
)

// BinanceConfig configures the REST polling source.
type BinanceConfig struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
	Symbols     []string
	Interval    time.Duration
}

func (c BinanceConfig) withDefaults() BinanceConfig {
	if strings.TrimSpace(c.RESTBaseURL) == "" {
		c.RESTBaseURL = "https://fapi.binance.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	return c
}

// BinanceSource polls futures ticker prices and forwards them to the sink.
// Config symbols are plain base assets ("BTC"); the exchange pair is formed by
// appending USDT unless the symbol already names a full pair.
type BinanceSource struct {
	cfg    BinanceConfig
	client *futures.Client

	// exchange pair -> config symbol
	reverse map[string]string
	pairs   []string
}

func NewBinanceSource(cfg BinanceConfig) (*BinanceSource, error) {
	final := cfg.withDefaults()
	if len(final.Symbols) == 0 {
		return nil, fmt.Errorf("binance source requires symbols")
	}
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}

	reverse := make(map[string]string, len(final.Symbols))
	pairs := make([]string, 0, len(final.Symbols))
	for _, sym := range final.Symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		pair := toExchangePair(sym)
		reverse[pair] = sym
		pairs = append(pairs, pair)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("binance source has no usable symbols")
	}
	return &BinanceSource{cfg: final, client: client, reverse: reverse, pairs: pairs}, nil
}

func toExchangePair(symbol string) string {
	symbol = strings.ReplaceAll(symbol, "/", "")
	if strings.HasSuffix(symbol, "USDT") || strings.HasSuffix(symbol, "USDC") || strings.HasSuffix(symbol, "BUSD") {
		return symbol
	}
	return symbol + "USDT"
}

func (s *BinanceSource) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	logger.Infof("market: binance feed started (%s, every %s)", strings.Join(s.pairs, ","), s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pollOnce(ctx, sink)
		}
	}
}

func (s *BinanceSource) pollOnce(ctx context.Context, sink Sink) {
	for _, pair := range s.pairs {
		prices, err := s.client.NewListPricesService().Symbol(pair).Do(ctx)
		if err != nil {
			logger.Warnf("market: binance price fetch for %s failed: %v", pair, err)
			continue
		}
		for _, p := range prices {
			symbol, ok := s.reverse[p.Symbol]
			if !ok {
				continue
			}
			price, err := strconv.ParseFloat(p.Price, 64)
			if err != nil || price <= 0 {
				logger.Warnf("market: binance returned bad price %q for %s", p.Price, p.Symbol)
				continue
			}
			if err := sink(symbol, price); err != nil {
				logger.Warnf("market: price for %s rejected: %v", symbol, err)
			}
		}
	}
}
