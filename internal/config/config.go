package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"papertrade/internal/logger"
)

// Load reads a YAML config file, applies defaults, and validates the result.
// An empty path yields the pure defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		cfg.applyDefaults()
		if err := validate(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	if err := decodeInto(v, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeInto(v *viper.Viper, cfg *Config) error {
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return fmt.Errorf("parsing config failed: %w", err)
	}
	return nil
}

// Watch re-reads the file on change and forwards the log level so verbosity
// can be flipped without a restart. Structural settings (account seed, feed
// mode) still require a restart; only the cheap-to-apply fields are live.
func Watch(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("watch: reading config failed: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := decodeInto(v, &cfg); err != nil {
			logger.Warnf("config: reload of %s failed: %v", e.Name, err)
			return
		}
		cfg.applyDefaults()
		logger.SetLevel(cfg.App.LogLevel)
		logger.Infof("config: reloaded %s (log_level=%s)", e.Name, cfg.App.LogLevel)
	})
	v.WatchConfig()
	return nil
}

// Dump renders the effective config as YAML.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
