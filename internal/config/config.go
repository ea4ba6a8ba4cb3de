package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Hyperliquid  HyperliquidConfig `mapstructure:"hyperliquid"`
	Cluster      []Account         `mapstructure:"cluster"`
	TrackedCoins []string          `mapstructure:"tracked_coins"`
}

type AppConfig struct {
	LogLevel           string `mapstructure:"log_level"`
	Port               int    `mapstructure:"port"`
	RefreshIntervalSec int    `mapstructure:"refresh_interval_sec"`
}

type HyperliquidConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Account is one cluster member. The cluster is a list rather than a map so
// that account iteration order is stable across refresh cycles.
type Account struct {
	Label   string `mapstructure:"label"`
	Address string `mapstructure:"address"`
}

func (a AppConfig) RefreshInterval() time.Duration {
	return time.Duration(a.RefreshIntervalSec) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", 5000)
	v.SetDefault("app.refresh_interval_sec", 30)
	v.SetDefault("hyperliquid.base_url", "https://api.hyperliquid.xyz")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// A bare PORT env var wins over the file, for PaaS-style deployments.
	if p := v.GetInt("port"); p != 0 {
		cfg.App.Port = p
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Cluster) == 0 {
		return fmt.Errorf("cluster is empty: at least one account is required")
	}
	seen := make(map[string]bool, len(c.Cluster))
	for _, acct := range c.Cluster {
		if acct.Label == "" {
			return fmt.Errorf("cluster account with address %q has no label", acct.Address)
		}
		if !common.IsHexAddress(acct.Address) {
			return fmt.Errorf("cluster account %s: invalid address %q", acct.Label, acct.Address)
		}
		if seen[acct.Label] {
			return fmt.Errorf("duplicate cluster account label %q", acct.Label)
		}
		seen[acct.Label] = true
	}
	return nil
}
