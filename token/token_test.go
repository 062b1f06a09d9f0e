package token

import (
	"context"
	"testing"

	"github.com/DomeLiquid/dsc/core"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = core.AccountIdFromAddress("owner")
	alice = core.AccountIdFromAddress("alice")
	bob   = core.AccountIdFromAddress("bob")
)

func balanceOf(t *testing.T, tk *Token, holder uuid.UUID) string {
	t.Helper()
	b, err := tk.BalanceOf(context.Background(), holder)
	require.NoError(t, err)
	return b.Dec()
}

func TestMintAndBurn(t *testing.T) {
	ctx := context.Background()
	tk := New("DSC", 18, owner)

	_, err := tk.Mint(ctx, alice, alice, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = tk.Mint(ctx, owner, alice, new(uint256.Int))
	assert.ErrorIs(t, err, ErrZeroAmount)

	ok, err := tk.Mint(ctx, owner, owner, uint256.NewInt(100))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "100", tk.TotalSupply().Dec())

	assert.ErrorIs(t, tk.Burn(ctx, alice, uint256.NewInt(1)), ErrNotOwner)
	assert.ErrorIs(t, tk.Burn(ctx, owner, uint256.NewInt(101)), ErrInsufficientBalance)
	require.NoError(t, tk.Burn(ctx, owner, uint256.NewInt(40)))
	assert.Equal(t, "60", tk.TotalSupply().Dec())
	assert.Equal(t, "60", balanceOf(t, tk, owner))

	_, err = tk.Mint(ctx, owner, owner, new(uint256.Int).SetAllOne())
	assert.ErrorIs(t, err, core.ErrMathOverflow)
	assert.Equal(t, "60", tk.TotalSupply().Dec())
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	tk := New("WETH", 18, owner)
	_, err := tk.Mint(ctx, owner, alice, uint256.NewInt(10))
	require.NoError(t, err)

	tests := []struct {
		name   string
		amount uint64
		err    error
		alice  string
		bob    string
	}{
		{name: "zero", amount: 0, err: ErrZeroAmount, alice: "10", bob: "0"},
		{name: "too much", amount: 11, err: ErrInsufficientBalance, alice: "10", bob: "0"},
		{name: "ok", amount: 4, alice: "6", bob: "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tk.Transfer(ctx, alice, bob, uint256.NewInt(tt.amount))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.False(t, ok)
			} else {
				require.NoError(t, err)
				assert.True(t, ok)
			}
			assert.Equal(t, tt.alice, balanceOf(t, tk, alice))
			assert.Equal(t, tt.bob, balanceOf(t, tk, bob))
		})
	}
}

func TestTransferFrom(t *testing.T) {
	ctx := context.Background()
	tk := New("WETH", 18, owner)
	_, err := tk.Mint(ctx, owner, alice, uint256.NewInt(10))
	require.NoError(t, err)

	_, err = tk.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, tk.Approve(ctx, alice, bob, uint256.NewInt(5)))
	_, err = tk.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(6))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	ok, err := tk.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(3))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", tk.Allowance(alice, bob).Dec())
	assert.Equal(t, "3", balanceOf(t, tk, bob))

	// moving one's own tokens needs no allowance
	ok, err = tk.TransferFrom(ctx, alice, alice, bob, uint256.NewInt(7))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0", balanceOf(t, tk, alice))

	_, err = tk.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "2", tk.Allowance(alice, bob).Dec())
}
