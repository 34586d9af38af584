package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stockmarket/market"
)

// Config represents the complete engine configuration
type Config struct {
	Market      MarketConfig       `json:"market" yaml:"market"`
	Instruments []InstrumentConfig `json:"instruments" yaml:"instruments"`
	Storage     StorageConfig      `json:"storage" yaml:"storage"`
	Journal     JournalConfig      `json:"journal" yaml:"journal"`
	Economy     EconomyConfig      `json:"economy" yaml:"economy"`
	Log         LogConfig          `json:"log" yaml:"log"`
	Metrics     MetricsConfig      `json:"metrics" yaml:"metrics"`
}

// MarketConfig contains price simulation parameters
type MarketConfig struct {
	IntervalSeconds   int     `json:"interval_seconds" yaml:"interval_seconds"`
	DefaultVolatility float64 `json:"default_volatility" yaml:"default_volatility"`
	MinPriceRatio     float64 `json:"min_price_ratio" yaml:"min_price_ratio"`
	MaxPriceRatio     float64 `json:"max_price_ratio,omitempty" yaml:"max_price_ratio,omitempty"`
	AutosaveInterval  int     `json:"autosave_interval" yaml:"autosave_interval"` // seconds, 0 disables
	PricePrecision    int32   `json:"price_precision" yaml:"price_precision"`
	Distribution      string  `json:"distribution" yaml:"distribution"` // "uniform" or "normal"
	Seed              int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// InstrumentConfig defines one tradable instrument. Volatility falls back
// to market.default_volatility when unset.
type InstrumentConfig struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	BasePrice   float64  `json:"base_price" yaml:"base_price"`
	Volatility  *float64 `json:"volatility,omitempty" yaml:"volatility,omitempty"`
	DriftBias   float64  `json:"drift_bias,omitempty" yaml:"drift_bias,omitempty"`
}

// StorageConfig selects where snapshots are saved
type StorageConfig struct {
	Type string `json:"type" yaml:"type"` // "sqlite" or "file"
	Path string `json:"path" yaml:"path"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type             string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	DBPath           string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TransactionsFile string `json:"transactions_file,omitempty" yaml:"transactions_file,omitempty"`
	PricesFile       string `json:"prices_file,omitempty" yaml:"prices_file,omitempty"`
}

// EconomyConfig configures the in-memory economy used when no host
// economy is attached
type EconomyConfig struct {
	StartingBalance float64 `json:"starting_balance" yaml:"starting_balance"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // empty disables
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Market keys left out of the file keep their defaults. A key that is
	// present, even as zero, overrides them.
	cfg := &Config{Market: Default().Market}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = &Config{Market: Default().Market}
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, else JSON)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	m := c.Market
	if m.IntervalSeconds <= 0 {
		return fmt.Errorf("market.interval_seconds must be positive")
	}
	if m.DefaultVolatility < 0 {
		return fmt.Errorf("market.default_volatility must not be negative")
	}
	if m.MinPriceRatio <= 0 || m.MinPriceRatio > 1 {
		return fmt.Errorf("market.min_price_ratio must be in (0, 1]")
	}
	if m.MaxPriceRatio < 0 || (m.MaxPriceRatio > 0 && m.MaxPriceRatio < 1) {
		return fmt.Errorf("market.max_price_ratio must be 0 or at least 1")
	}
	if m.AutosaveInterval < 0 {
		return fmt.Errorf("market.autosave_interval must not be negative")
	}
	if m.PricePrecision < 0 || m.PricePrecision > 8 {
		return fmt.Errorf("market.price_precision must be between 0 and 8")
	}
	if m.Distribution != "uniform" && m.Distribution != "normal" {
		return fmt.Errorf("market.distribution must be 'uniform' or 'normal'")
	}

	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for i, in := range c.Instruments {
		if in.ID == "" {
			return fmt.Errorf("instruments[%d].id is required", i)
		}
		if seen[in.ID] {
			return fmt.Errorf("duplicate instrument id: %s", in.ID)
		}
		seen[in.ID] = true
		if in.BasePrice <= 0 {
			return fmt.Errorf("instrument %s: base_price must be positive", in.ID)
		}
		if unit := c.Bounds().Unit(); decimal.NewFromFloat(in.BasePrice).LessThan(unit) {
			return fmt.Errorf("instrument %s: base_price is below one price unit (%s)", in.ID, unit)
		}
		if in.Volatility != nil && *in.Volatility < 0 {
			return fmt.Errorf("instrument %s: volatility must not be negative", in.ID)
		}
	}

	if c.Storage.Type != "sqlite" && c.Storage.Type != "file" {
		return fmt.Errorf("storage.type must be 'sqlite' or 'file'")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TransactionsFile == "" || c.Journal.PricesFile == "" {
			return fmt.Errorf("journal transactions_file and prices_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if c.Economy.StartingBalance < 0 {
		return fmt.Errorf("economy.starting_balance must not be negative")
	}
	return nil
}

// Interval is the time between scheduled price ticks.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Market.IntervalSeconds) * time.Second
}

// AutosaveInterval is zero when autosave is off.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Market.AutosaveInterval) * time.Second
}

// Bounds returns the price bounds applied to every committed price.
func (c *Config) Bounds() market.Bounds {
	return market.Bounds{
		MinRatio:  decimal.NewFromFloat(c.Market.MinPriceRatio),
		MaxRatio:  decimal.NewFromFloat(c.Market.MaxPriceRatio),
		Precision: c.Market.PricePrecision,
	}
}

// StartingBalance is the balance of a player the economy has not seen.
func (c *Config) StartingBalance() decimal.Decimal {
	return decimal.NewFromFloat(c.Economy.StartingBalance)
}

// Catalog builds the instrument catalog.
func (c *Config) Catalog() (*market.Catalog, error) {
	ins := make([]market.Instrument, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		vol := c.Market.DefaultVolatility
		if in.Volatility != nil {
			vol = *in.Volatility
		}
		ins = append(ins, market.Instrument{
			ID:          in.ID,
			DisplayName: in.DisplayName,
			BasePrice:   decimal.NewFromFloat(in.BasePrice),
			Volatility:  decimal.NewFromFloat(vol),
			DriftBias:   decimal.NewFromFloat(in.DriftBias),
		})
	}
	return market.NewCatalog(ins)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Market: MarketConfig{
			IntervalSeconds:   60,
			DefaultVolatility: 0.05,
			MinPriceRatio:     0.01,
			AutosaveInterval:  300,
			PricePrecision:    2,
			Distribution:      "uniform",
		},
		Instruments: []InstrumentConfig{
			{ID: "GOLDCO", DisplayName: "Gold Corporation", BasePrice: 1000},
			{ID: "IRONWK", DisplayName: "Iron Works", BasePrice: 25},
			{ID: "DIAMND", DisplayName: "Diamond Holdings", BasePrice: 2500, DriftBias: 0.001},
			{ID: "WHEATF", DisplayName: "Wheat Farms", BasePrice: 8},
		},
		Storage: StorageConfig{
			Type: "sqlite",
			Path: "./stockmarket.db",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./journal.db",
		},
		Economy: EconomyConfig{
			StartingBalance: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
