package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/DomeLiquid/dsc/core"
	"github.com/DomeLiquid/dsc/store/memory"
	"github.com/facebookgo/clock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	clk.Add(1_700_000_000 * time.Second)
	ledger := core.NewLedger(clk, memory.New())
	alice := user("alice")

	debt, err := ledger.DebtOf(ctx, alice)
	require.NoError(t, err)
	assert.True(t, debt.IsZero())

	assert.ErrorIs(t, ledger.AddCollateral(ctx, alice, weth, new(uint256.Int)), core.ErrZeroAmount)
	assert.ErrorIs(t, ledger.SubDebt(ctx, alice, nil), core.ErrZeroAmount)

	require.NoError(t, ledger.AddCollateral(ctx, alice, weth, uint256.NewInt(100)))
	require.NoError(t, ledger.AddCollateral(ctx, alice, weth, uint256.NewInt(50)))
	require.NoError(t, ledger.AddCollateral(ctx, alice, wbtc, uint256.NewInt(7)))
	assert.ErrorIs(t, ledger.SubCollateral(ctx, alice, weth, uint256.NewInt(151)), core.ErrInsufficientCollateral)
	require.NoError(t, ledger.SubCollateral(ctx, alice, weth, uint256.NewInt(150)))

	amount, err := ledger.CollateralOf(ctx, alice, weth)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	positions, err := ledger.Positions(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, positions, 2)

	require.NoError(t, ledger.AddDebt(ctx, alice, uint256.NewInt(10)))
	assert.ErrorIs(t, ledger.SubDebt(ctx, alice, uint256.NewInt(11)), core.ErrInsufficientDebt)
	require.NoError(t, ledger.SubDebt(ctx, alice, uint256.NewInt(10)))

	require.NoError(t, ledger.AddDebt(ctx, alice, new(uint256.Int).SetAllOne()))
	assert.ErrorIs(t, ledger.AddDebt(ctx, alice, uint256.NewInt(1)), core.ErrMathOverflow)

	account, err := ledger.Account(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Unix(), account.CreatedAt)
}
