// Package dsc wires a collateralized debt engine from configuration.
package dsc

import (
	"encoding/json"
	"os"

	"github.com/DomeLiquid/dsc/config"
	"github.com/DomeLiquid/dsc/core"
	"github.com/DomeLiquid/dsc/oracle"
	"github.com/DomeLiquid/dsc/store/memory"
	"github.com/DomeLiquid/dsc/store/sqlstore"
	"github.com/DomeLiquid/dsc/token"
	"github.com/facebookgo/clock"
	"github.com/fox-one/mixin-sdk-go/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const DriverMemory = "memory"

type (
	App struct {
		Config   config.Config
		Logger   *zerolog.Logger
		Registry *prometheus.Registry

		Store     core.LedgerStore
		DebtToken core.DebtToken
		Assets    map[string]core.CollateralAsset
		Engine    *core.Engine

		closers []func() error
	}

	options struct {
		clk         clock.Clock
		logger      *zerolog.Logger
		assetReader oracle.AssetReader
		debtToken   core.DebtToken
		assets      map[string]core.CollateralAsset
	}

	Option func(*options)
)

func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clk = clk
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAssetReader replaces the mixin client built from the keystore.
func WithAssetReader(r oracle.AssetReader) Option {
	return func(o *options) {
		o.assetReader = r
	}
}

// WithDebtToken replaces the in-memory debt token.
func WithDebtToken(t core.DebtToken) Option {
	return func(o *options) {
		o.debtToken = t
	}
}

// WithCollateralAsset replaces the in-memory token backing one kind.
func WithCollateralAsset(assetId string, asset core.CollateralAsset) Option {
	return func(o *options) {
		o.assets[assetId] = asset
	}
}

// Open builds the store, price feeds, tokens and engine described by cfg.
func Open(cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{
		clk:    clock.New(),
		assets: map[string]core.CollateralAsset{},
	}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{Config: cfg, Assets: map[string]core.CollateralAsset{}}
	if o.logger == nil {
		logger, err := NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		o.logger = logger
	}
	app.Logger = o.logger

	store, err := app.openStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	app.Store = store

	custody := core.DefaultCustodyId
	if cfg.Engine.Custody != "" {
		custody = core.AccountIdFromAddress(cfg.Engine.Custody)
	}

	app.DebtToken = o.debtToken
	if app.DebtToken == nil {
		app.DebtToken = token.New(cfg.DebtToken.Symbol, core.PRECISION_DECIMALS, custody)
	}

	kinds := make([]*core.CollateralKind, 0, len(cfg.CollateralTokens))
	feeds := make([]core.PriceAdapter, 0, len(cfg.PriceFeeds))
	for i, c := range cfg.CollateralTokens {
		asset, ok := o.assets[c.AssetId]
		if !ok {
			asset = token.New(c.Symbol, c.Decimals, custody)
		}
		app.Assets[c.AssetId] = asset

		feedCfg := cfg.PriceFeeds[i]
		feed, err := app.openFeed(o, c, feedCfg)
		if err != nil {
			app.Close()
			return nil, errors.Wrapf(err, "price feed for %s", c.AssetId)
		}
		kinds = append(kinds, &core.CollateralKind{
			AssetId:      c.AssetId,
			Symbol:       c.Symbol,
			Decimals:     c.Decimals,
			OracleSetup:  feedCfg.OracleSetup(),
			OracleMaxAge: c.OracleMaxAge,
			Asset:        asset,
		})
		feeds = append(feeds, feed)
	}

	engineOpts := []core.OptionFunc{
		core.WithClock(o.clk),
		core.WithLogger(o.logger),
		core.WithCustody(custody),
	}
	if cfg.Engine.MaxPriceAge != nil {
		engineOpts = append(engineOpts, core.WithMaxPriceAge(*cfg.Engine.MaxPriceAge))
	}
	if cfg.Engine.Metrics {
		app.Registry = prometheus.NewRegistry()
		engineOpts = append(engineOpts, core.WithMetrics(core.NewMetrics(app.Registry)))
	}

	engine, err := core.NewEngine(store, kinds, feeds, app.DebtToken, engineOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Engine = engine

	o.logger.Info().
		Int("kinds", len(kinds)).
		Str("store", cfg.Database.Driver).
		Str("custody", custody.String()).
		Msg("engine ready")
	return app, nil
}

func (app *App) openStore(cfg config.DatabaseConfig) (core.LedgerStore, error) {
	if cfg.Driver == DriverMemory {
		return memory.New(), nil
	}
	store, err := sqlstore.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, store.Close)
	return store, nil
}

func (app *App) openFeed(o *options, c config.CollateralConfig, f config.PriceFeedConfig) (core.PriceAdapter, error) {
	switch f.OracleSetup() {
	case core.StaticOracle:
		return oracle.NewStaticPriceAdapter(o.clk, f.StaticPrice())
	case core.MixinOracle:
		if o.assetReader == nil {
			client, err := newMixinClient(app.Config.Mixin.Keystore)
			if err != nil {
				return nil, err
			}
			o.assetReader = client
		}
		assetId := f.AssetId
		if assetId == "" {
			assetId = c.AssetId
		}
		return oracle.NewMixinPriceAdapter(o.clk, o.assetReader, assetId), nil
	default:
		return nil, errors.Errorf("unsupported oracle setup %s", f.Setup)
	}
}

func newMixinClient(keystorePath string) (*mixin.Client, error) {
	data, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, errors.Wrap(err, "read mixin keystore")
	}
	var keystore mixin.Keystore
	if err := json.Unmarshal(data, &keystore); err != nil {
		return nil, errors.Wrap(err, "decode mixin keystore")
	}
	return mixin.NewFromKeystore(&keystore)
}

func (app *App) Close() error {
	var first error
	for _, closer := range app.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	app.closers = nil
	return first
}
