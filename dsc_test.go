package dsc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DomeLiquid/dsc/config"
	"github.com/DomeLiquid/dsc/core"
	"github.com/DomeLiquid/dsc/token"
	"github.com/facebookgo/clock"
	"github.com/fox-one/mixin-sdk-go/v2"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	weth = "c6d0c728-2624-429b-8e0d-d9d19b6592fa"
	xin  = "c94ac88f-4671-3976-b60a-09064f1811e8"
)

type assetReader map[string]decimal.Decimal

func (r assetReader) ReadAsset(_ context.Context, assetID string) (*mixin.Asset, error) {
	return &mixin.Asset{AssetID: assetID, PriceUSD: r[assetID]}, nil
}

func testConfig(t *testing.T, yaml string) config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Add(1_700_000_000 * time.Second)

	cfg := testConfig(t, `
database:
  driver: memory
engine:
  metrics: true
collateral_tokens:
  - {asset_id: `+weth+`, symbol: WETH, decimals: 18}
  - {asset_id: `+xin+`, symbol: XIN, decimals: 8}
price_feeds:
  - {setup: static, price: "2000"}
  - {setup: mixin, asset_id: `+xin+`}
mixin:
  keystore: unused.json
`)
	app, err := Open(cfg,
		WithClock(clk),
		WithLogger(nopLogger()),
		WithAssetReader(assetReader{xin: decimal.NewFromInt(150)}),
	)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, core.DefaultCustodyId, app.Engine.Custody())
	assert.ElementsMatch(t, []string{weth, xin}, app.Engine.GetCollateralTokens())
	assert.NotNil(t, app.Registry)

	kind, ok := app.Engine.GetCollateralKind(xin)
	require.True(t, ok)
	assert.Equal(t, core.MixinOracle, kind.OracleSetup)

	// 1 XIN at $150 in 1e18 precision
	value := app.Engine.GetUsdValue(ctx, xin, uint256.NewInt(100_000_000))
	assert.Equal(t, "150000000000000000000", value.Dec())

	alice := core.AccountIdFromAddress("alice")
	wethToken := app.Assets[weth].(*token.Token)
	qty := uint256.NewInt(1_000_000_000_000_000_000)
	_, err = wethToken.Mint(ctx, app.Engine.Custody(), alice, qty)
	require.NoError(t, err)
	require.NoError(t, wethToken.Approve(ctx, alice, app.Engine.Custody(), qty))

	debt := uint256.NewInt(500_000_000_000_000_000)
	require.NoError(t, app.Engine.DepositAndIssue(ctx, alice, weth, qty, debt))
	balance, err := app.DebtToken.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, debt.Dec(), balance.Dec())

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOpenSqlite(t *testing.T) {
	dsn := "file:" + uuid.Must(uuid.NewV4()).String() + "?mode=memory&cache=shared"
	cfg := testConfig(t, `
database:
  driver: sqlite
  dsn: "`+dsn+`"
engine:
  custody: vault
collateral_tokens:
  - {asset_id: `+weth+`, symbol: WETH, decimals: 18}
price_feeds:
  - {setup: static, price: "2000"}
`)
	app, err := Open(cfg, WithLogger(nopLogger()))
	require.NoError(t, err)
	assert.Equal(t, core.AccountIdFromAddress("vault"), app.Engine.Custody())
	assert.Nil(t, app.Registry)
	assert.NoError(t, app.Close())
}

func TestOpenInvalid(t *testing.T) {
	cfg := testConfig(t, "database:\n  driver: memory\n")
	cfg.CollateralTokens = []config.CollateralConfig{{AssetId: weth, Decimals: 18}}
	cfg.PriceFeeds = []config.PriceFeedConfig{{Setup: "mixin"}}
	cfg.Mixin.Keystore = filepath.Join(t.TempDir(), "missing.json")

	_, err := Open(cfg, WithLogger(nopLogger()))
	assert.ErrorContains(t, err, "keystore")

	cfg.Database.Driver = "oracle"
	_, err = Open(cfg, WithLogger(nopLogger()))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenUnvalidatedConfig(t *testing.T) {
	tests := []struct {
		name  string
		feeds []config.PriceFeedConfig
		err   error
		msg   string
	}{
		{
			name:  "missing price feed",
			feeds: []config.PriceFeedConfig{{Setup: "static", Price: "2000"}},
			err:   core.ErrMismatchedConfigLength,
		},
		{
			name:  "malformed static price",
			feeds: []config.PriceFeedConfig{{Setup: "static", Price: "2000"}, {Setup: "static", Price: "abc"}},
			msg:   "price_feeds[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{
				Database: config.DatabaseConfig{Driver: DriverMemory},
				CollateralTokens: []config.CollateralConfig{
					{AssetId: weth, Symbol: "WETH", Decimals: 18},
					{AssetId: xin, Symbol: "XIN", Decimals: 8},
				},
				PriceFeeds: tt.feeds,
			}
			app, err := Open(cfg, WithLogger(nopLogger()))
			require.Error(t, err)
			assert.Nil(t, app)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			if tt.msg != "" {
				assert.ErrorContains(t, err, tt.msg)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsc.log")
	logger, err := NewLogger(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Debug().Str("k", "v").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"service":"dsc"`)

	_, err = NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
