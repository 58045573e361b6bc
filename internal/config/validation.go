package config

import "fmt"

func validate(c *Config) error {
	if err := c.Account.validate(); err != nil {
		return err
	}
	return c.Feed.validate()
}

func (a *AccountConfig) validate() error {
	if a.CommissionRate >= 1 {
		return fmt.Errorf("account.commission_rate must be below 1 (got %v)", a.CommissionRate)
	}
	if a.MarginCallLevel >= 100 {
		return fmt.Errorf("account.margin_call_level must be below 100 (got %v)", a.MarginCallLevel)
	}
	if a.Leverage > a.MaxLeverage {
		return fmt.Errorf("account.leverage %v exceeds max_leverage %v", a.Leverage, a.MaxLeverage)
	}
	return nil
}

func (f *FeedConfig) validate() error {
	switch f.Mode {
	case "synthetic", "binance", "none":
	default:
		return fmt.Errorf("feed.mode must be one of synthetic/binance/none (got %q)", f.Mode)
	}
	return nil
}
