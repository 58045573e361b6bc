package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":8080"
	defaultInitialBalance  = 10000.0
	defaultLeverage        = 10.0
	defaultCommissionRate  = 0.001
	defaultMarginCallLevel = 50.0
	defaultMaxLeverage     = 100.0
	defaultFeedMode        = "synthetic"
	defaultFeedIntervalMs  = 1000
	defaultBinanceREST     = "https://fapi.binance.com"
	defaultBinanceTimeout  = 15
)

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Account.applyDefaults()
	c.Feed.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
}

func (a *AccountConfig) applyDefaults() {
	if a.InitialBalance <= 0 {
		a.InitialBalance = defaultInitialBalance
	}
	if a.Leverage <= 0 {
		a.Leverage = defaultLeverage
	}
	if a.CommissionRate <= 0 {
		a.CommissionRate = defaultCommissionRate
	}
	if a.MarginCallLevel <= 0 {
		a.MarginCallLevel = defaultMarginCallLevel
	}
	if a.MaxLeverage <= 0 {
		a.MaxLeverage = defaultMaxLeverage
	}
}

func (f *FeedConfig) applyDefaults() {
	if strings.TrimSpace(f.Mode) == "" {
		f.Mode = defaultFeedMode
	}
	f.Mode = strings.ToLower(strings.TrimSpace(f.Mode))
	if f.IntervalMs <= 0 {
		f.IntervalMs = defaultFeedIntervalMs
	}
	if len(f.Symbols) == 0 {
		f.Symbols = []string{"BTC", "ETH", "SOL"}
	}
	if strings.TrimSpace(f.Binance.RESTBaseURL) == "" {
		f.Binance.RESTBaseURL = defaultBinanceREST
	}
	if f.Binance.TimeoutSeconds <= 0 {
		f.Binance.TimeoutSeconds = defaultBinanceTimeout
	}
}
