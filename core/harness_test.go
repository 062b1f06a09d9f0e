package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/DomeLiquid/dsc/core"
	"github.com/DomeLiquid/dsc/oracle"
	"github.com/DomeLiquid/dsc/store/memory"
	"github.com/DomeLiquid/dsc/token"
	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	weth = "c6d0c728-2624-429b-8e0d-d9d19b6592fa"
	wbtc = "43d61dcd-e413-450d-80b8-101d5e903357"
)

type harness struct {
	t   *testing.T
	ctx context.Context
	clk *clock.Mock

	store   *memory.Store
	faucet  uuid.UUID
	custody uuid.UUID

	dsc     *token.Token
	weth    *token.Token
	wbtc    *token.Token
	ethFeed *oracle.StaticPriceAdapter
	btcFeed *oracle.StaticPriceAdapter

	engine *core.Engine
}

type harnessOption func(h *harness, kinds []*core.CollateralKind, opts *[]core.OptionFunc)

func newHarness(t *testing.T, options ...harnessOption) *harness {
	t.Helper()
	clk := clock.NewMock()
	clk.Add(1_700_000_000 * time.Second)

	h := &harness{
		t:       t,
		ctx:     context.Background(),
		clk:     clk,
		store:   memory.New(),
		faucet:  core.AccountIdFromAddress("faucet"),
		custody: core.DefaultCustodyId,
	}
	h.dsc = token.New("DSC", 18, h.custody)
	h.weth = token.New("WETH", 18, h.faucet)
	h.wbtc = token.New("WBTC", 8, h.faucet)

	var err error
	h.ethFeed, err = oracle.NewStaticPriceAdapter(clk, decimal.NewFromInt(2000))
	require.NoError(t, err)
	h.btcFeed, err = oracle.NewStaticPriceAdapter(clk, decimal.NewFromInt(30000))
	require.NoError(t, err)

	kinds := []*core.CollateralKind{
		{AssetId: weth, Symbol: "WETH", Decimals: 18, OracleSetup: core.StaticOracle, Asset: h.weth},
		{AssetId: wbtc, Symbol: "WBTC", Decimals: 8, OracleSetup: core.StaticOracle, Asset: h.wbtc},
	}
	opts := []core.OptionFunc{core.WithClock(clk)}
	for _, o := range options {
		o(h, kinds, &opts)
	}

	h.engine, err = core.NewEngine(h.store, kinds, []core.PriceAdapter{h.ethFeed, h.btcFeed}, h.dsc, opts...)
	require.NoError(t, err)
	return h
}

func amount(t *testing.T, s string, decimals uint8) *uint256.Int {
	t.Helper()
	v, err := core.FromDecimal(decimal.RequireFromString(s), decimals)
	require.NoError(t, err)
	return v
}

func ether(t *testing.T, s string) *uint256.Int {
	t.Helper()
	return amount(t, s, 18)
}

func user(name string) uuid.UUID {
	return core.AccountIdFromAddress(name)
}

// fund mints collateral to holder and approves the engine to pull it.
func (h *harness) fund(holder uuid.UUID, asset *token.Token, qty *uint256.Int) {
	h.t.Helper()
	ok, err := asset.Mint(h.ctx, h.faucet, holder, qty)
	require.NoError(h.t, err)
	require.True(h.t, ok)
	require.NoError(h.t, asset.Approve(h.ctx, holder, h.custody, qty))
}

// open funds and deposits collateral, then issues debt.
func (h *harness) open(holder uuid.UUID, collateral, debt string) {
	h.t.Helper()
	qty := ether(h.t, collateral)
	h.fund(holder, h.weth, qty)
	require.NoError(h.t, h.engine.Deposit(h.ctx, holder, weth, qty))
	if debt != "0" {
		require.NoError(h.t, h.engine.IssueDebt(h.ctx, holder, ether(h.t, debt)))
	}
}

func (h *harness) balanceOf(asset core.CollateralAsset, holder uuid.UUID) string {
	h.t.Helper()
	b, err := asset.BalanceOf(h.ctx, holder)
	require.NoError(h.t, err)
	return b.Dec()
}

func (h *harness) setEthPrice(usd int64) {
	h.t.Helper()
	require.NoError(h.t, h.ethFeed.SetPrice(decimal.NewFromInt(usd)))
}
