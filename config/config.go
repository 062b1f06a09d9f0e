package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/DomeLiquid/dsc/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type (
	// Config captures a deployment of the engine. CollateralTokens and
	// PriceFeeds are parallel lists.
	Config struct {
		Log              LogConfig          `yaml:"log" toml:"log"`
		Database         DatabaseConfig     `yaml:"database" toml:"database"`
		Mixin            MixinConfig        `yaml:"mixin" toml:"mixin"`
		Engine           EngineConfig       `yaml:"engine" toml:"engine"`
		DebtToken        TokenConfig        `yaml:"debt_token" toml:"debt_token"`
		CollateralTokens []CollateralConfig `yaml:"collateral_tokens" toml:"collateral_tokens"`
		PriceFeeds       []PriceFeedConfig  `yaml:"price_feeds" toml:"price_feeds"`
	}

	LogConfig struct {
		Level      string `yaml:"level" toml:"level"`
		File       string `yaml:"file" toml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
		Console    bool   `yaml:"console" toml:"console"`
	}

	DatabaseConfig struct {
		Driver string `yaml:"driver" toml:"driver"`
		DSN    string `yaml:"dsn" toml:"dsn"`
	}

	MixinConfig struct {
		// Keystore is the path of a mixin bot keystore json.
		Keystore string `yaml:"keystore" toml:"keystore"`
	}

	EngineConfig struct {
		// MaxPriceAge in seconds; 0 disables the staleness check.
		MaxPriceAge *uint64 `yaml:"max_price_age" toml:"max_price_age"`
		Custody     string  `yaml:"custody" toml:"custody"`
		Metrics     bool    `yaml:"metrics" toml:"metrics"`
	}

	TokenConfig struct {
		Symbol string `yaml:"symbol" toml:"symbol"`
	}

	CollateralConfig struct {
		AssetId      string `yaml:"asset_id" toml:"asset_id"`
		Symbol       string `yaml:"symbol" toml:"symbol"`
		Decimals     uint8  `yaml:"decimals" toml:"decimals"`
		OracleMaxAge uint64 `yaml:"oracle_max_age" toml:"oracle_max_age"`
	}

	PriceFeedConfig struct {
		Setup string `yaml:"setup" toml:"setup"`
		// AssetId overrides the mixin asset read for the price.
		AssetId string `yaml:"asset_id" toml:"asset_id"`
		// Price is the USD price served by a static feed.
		Price string `yaml:"price" toml:"price"`
	}
)

const (
	defaultLogLevel = "info"
	defaultDriver   = "sqlite"
	defaultDSN      = "dsc.db"
	defaultSymbol   = "DSC"
)

// Load reads a YAML or TOML configuration, chosen by file extension, then
// normalizes and validates it.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("config path required")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	default:
		file, err := os.Open(path)
		if err != nil {
			return cfg, errors.Wrap(err, "open config")
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML from memory.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = defaultDSN
	}
	if cfg.Engine.MaxPriceAge == nil {
		maxAge := uint64(core.DEFAULT_ORACLE_MAX_AGE)
		cfg.Engine.MaxPriceAge = &maxAge
	}
	cfg.Engine.Custody = strings.TrimSpace(cfg.Engine.Custody)
	if cfg.DebtToken.Symbol == "" {
		cfg.DebtToken.Symbol = defaultSymbol
	}

	for i := range cfg.CollateralTokens {
		c := &cfg.CollateralTokens[i]
		c.AssetId = strings.TrimSpace(c.AssetId)
		c.Symbol = strings.TrimSpace(c.Symbol)
	}
	for i := range cfg.PriceFeeds {
		f := &cfg.PriceFeeds[i]
		f.Setup = strings.ToLower(strings.TrimSpace(f.Setup))
		f.AssetId = strings.TrimSpace(f.AssetId)
		f.Price = strings.TrimSpace(f.Price)
	}
}

// Validate checks a normalized config. Load and Parse call it.
func (cfg *Config) Validate() error {
	if len(cfg.CollateralTokens) != len(cfg.PriceFeeds) {
		return errors.Wrapf(core.ErrMismatchedConfigLength, "%d collateral tokens, %d price feeds", len(cfg.CollateralTokens), len(cfg.PriceFeeds))
	}

	seen := map[string]bool{}
	for i, c := range cfg.CollateralTokens {
		if c.AssetId == "" {
			return errors.Errorf("collateral_tokens[%d]: asset_id required", i)
		}
		if seen[c.AssetId] {
			return errors.Wrapf(core.ErrDuplicateCollateralKind, "collateral_tokens[%d]: %s", i, c.AssetId)
		}
		seen[c.AssetId] = true
		if c.Decimals > core.MAX_ASSET_DECIMALS {
			return errors.Errorf("collateral_tokens[%d]: decimals %d above %d", i, c.Decimals, core.MAX_ASSET_DECIMALS)
		}
	}

	needsMixin := false
	for i, f := range cfg.PriceFeeds {
		setup, ok := core.ParseOracleSetup(f.Setup)
		if !ok {
			return errors.Errorf("price_feeds[%d]: unknown setup %q", i, f.Setup)
		}
		switch setup {
		case core.MixinOracle:
			needsMixin = true
		case core.StaticOracle:
			price, err := decimal.NewFromString(f.Price)
			if err != nil {
				return errors.Wrapf(err, "price_feeds[%d]: price", i)
			}
			if !price.IsPositive() {
				return errors.Errorf("price_feeds[%d]: price must be positive", i)
			}
		}
	}
	if needsMixin && cfg.Mixin.Keystore == "" {
		return errors.New("mixin.keystore required by mixin price feeds")
	}
	return nil
}

// OracleSetup is only valid on a validated config.
func (f PriceFeedConfig) OracleSetup() core.OracleSetup {
	setup, _ := core.ParseOracleSetup(f.Setup)
	return setup
}

func (f PriceFeedConfig) StaticPrice() decimal.Decimal {
	return decimal.RequireFromString(f.Price)
}
