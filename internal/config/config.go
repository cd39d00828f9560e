// Package config loads the engine process's startup configuration:
// Redis address, platform currency, the markets to support, and any
// demo users to seed with a starting balance. Grounded on the teacher
// pack's config conventions via github.com/spf13/viper (YAML with
// environment variable override, the idiom viper's own docs and the
// broader retrieved pack both use for this kind of seed/address config).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// MarketConfig names one tradeable pair, e.g. symbol "BTC_INR" trading
// base "BTC" against quote "INR".
type MarketConfig struct {
	Symbol string `mapstructure:"symbol"`
	Base   string `mapstructure:"base"`
	Quote  string `mapstructure:"quote"`
}

// SeedBalance credits a demo user with a starting balance before the
// engine accepts its first command, grounded on original_source's
// set_base_balances (hardcoded demo users/assets) generalized into data.
type SeedBalance struct {
	UserID string `mapstructure:"userId"`
	Asset  string `mapstructure:"asset"`
	Amount string `mapstructure:"amount"`
}

// Config is the engine process's full startup configuration.
type Config struct {
	RedisAddr        string         `mapstructure:"redisAddr"`
	PlatformCurrency string         `mapstructure:"platformCurrency"`
	IngressWorkers   int            `mapstructure:"ingressWorkers"`
	Markets          []MarketConfig `mapstructure:"markets"`
	SeedBalances     []SeedBalance  `mapstructure:"seedBalances"`
}

func defaults() *viper.Viper {
	v := viper.New()
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("platformCurrency", "INR")
	v.SetDefault("ingressWorkers", 4)
	v.SetEnvPrefix("EXCHANGECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path (a YAML file) when path is non-empty,
// returning an error if that file cannot be read, and layers environment
// variables prefixed EXCHANGECORE_ on top. With an empty path it uses
// built-in defaults (a single demo market, no seed balances).
func Load(path string) (*Config, error) {
	v := defaults()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Markets) == 0 {
		cfg.Markets = []MarketConfig{{Symbol: "BTC_INR", Base: "BTC", Quote: "INR"}}
	}

	return &cfg, nil
}
