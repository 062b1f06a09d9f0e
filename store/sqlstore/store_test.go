package sqlstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/DomeLiquid/dsc/core"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.Must(uuid.NewV4()))
	s, err := Open(DriverSqlite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	id := uuid.Must(uuid.NewV4())

	_, err := s.FindAccount(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)

	big := new(uint256.Int).SetAllOne()
	require.NoError(t, s.UpsertAccount(ctx, &core.Account{Id: id, DebtIssued: big, CreatedAt: 10, UpdatedAt: 10}))
	require.NoError(t, s.UpsertAccount(ctx, &core.Account{Id: id, DebtIssued: uint256.NewInt(42), CreatedAt: 20, UpdatedAt: 20}))

	account, err := s.FindAccount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "42", account.DebtIssued.Dec())
	assert.Equal(t, int64(10), account.CreatedAt)
	assert.Equal(t, int64(20), account.UpdatedAt)

	accounts, err := s.ListAccounts(ctx, uuid.Nil, 10)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestPositions(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	id := uuid.Must(uuid.NewV4())

	require.NoError(t, s.UpsertPosition(ctx, &core.Position{AccountId: id, AssetId: "b", Amount: uint256.NewInt(2)}))
	require.NoError(t, s.UpsertPosition(ctx, &core.Position{AccountId: id, AssetId: "a", Amount: uint256.NewInt(1)}))
	require.NoError(t, s.UpsertPosition(ctx, &core.Position{AccountId: id, AssetId: "a", Amount: uint256.NewInt(3)}))

	p, err := s.FindPosition(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, "3", p.Amount.Dec())

	positions, err := s.ListPositions(ctx, id)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "a", positions[0].AssetId)

	_, err = s.FindPosition(ctx, id, "c")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	id := uuid.Must(uuid.NewV4())
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(ctx context.Context, tx core.LedgerStore) error {
		require.NoError(t, tx.UpsertAccount(ctx, &core.Account{Id: id, DebtIssued: uint256.NewInt(1)}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FindAccount(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestOperates(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	id := uuid.Must(uuid.NewV4())

	for i, op := range []core.ActionType{core.ATDeposit, core.ATLiquidate} {
		require.NoError(t, s.CreateOperate(ctx, &core.Operate{
			Id:        uuid.Must(uuid.NewV4()),
			AccountId: id,
			Op:        op,
			CreatedAt: int64(100 + i),
			Extra: core.OperateDetail{
				Type:      op,
				AccountId: id,
				Actions:   []core.ActionDetail{{AccountId: id, ActionType: op, AssetId: "a", Amount: uint256.NewInt(7)}},
			},
		}))
	}

	operates, err := s.ListOperates(ctx, id, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, operates, 2)
	assert.Equal(t, core.ATLiquidate, operates[0].Op)
	require.Len(t, operates[0].Extra.Actions, 1)
	assert.Equal(t, "7", operates[0].Extra.Actions[0].Amount.Dec())

	deposits, err := s.ListOperates(ctx, id, core.ATDeposit, 0, 1)
	require.NoError(t, err)
	assert.Len(t, deposits, 1)
}
