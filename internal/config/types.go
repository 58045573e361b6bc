package config

import "strings"

// Config is the top-level configuration carrier for papertrade.
type Config struct {
	App     AppConfig     `toml:"app"`
	Account AccountConfig `toml:"account"`
	Feed    FeedConfig    `toml:"feed"`
	Store   StoreConfig   `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// AccountConfig seeds the simulated account.
type AccountConfig struct {
	InitialBalance  float64 `toml:"initial_balance"`
	Leverage        float64 `toml:"leverage"`
	CommissionRate  float64 `toml:"commission_rate"`
	MarginCallLevel float64 `toml:"margin_call_level"`
	MaxLeverage     float64 `toml:"max_leverage"`
}

// FeedConfig selects the market price source. Mode "synthetic" runs the
// seeded random-walk generator; "binance" streams mark prices from the
// exchange; "none" leaves price updates to the HTTP API.
type FeedConfig struct {
	Mode       string              `toml:"mode"`
	Symbols    []string            `toml:"symbols"`
	IntervalMs int                 `toml:"interval_ms"`
	Seed       int64               `toml:"seed"`
	Binance    BinanceSourceConfig `toml:"binance"`
}

type BinanceSourceConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StoreConfig points at the audit databases. Empty dir disables persistence.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// NormalizedSymbols returns the configured symbols upper-cased with blanks
// dropped.
func (f FeedConfig) NormalizedSymbols() []string {
	out := make([]string, 0, len(f.Symbols))
	for _, s := range f.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
