package core

import (
	"context"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

type (
	LedgerStore interface {
		AccountStore
		PositionStore
		OperateStore

		// Transaction runs fn against a transactional view of the store.
		// Nothing fn wrote is visible to others unless it returns nil.
		Transaction(ctx context.Context, fn func(ctx context.Context, tx LedgerStore) error) error
	}

	// Ledger applies per-account collateral and debt changes. It never
	// checks solvency.
	Ledger struct {
		clk   clock.Clock
		store LedgerStore
	}
)

func NewLedger(clk clock.Clock, store LedgerStore) *Ledger {
	return &Ledger{clk: clk, store: store}
}

func (l *Ledger) Store() LedgerStore {
	return l.store
}

func (l *Ledger) Account(ctx context.Context, accountId uuid.UUID) (*Account, error) {
	return FindOrNewAccount(ctx, l.clk, l.store, accountId)
}

func (l *Ledger) DebtOf(ctx context.Context, accountId uuid.UUID) (*uint256.Int, error) {
	account, err := l.Account(ctx, accountId)
	if err != nil {
		return nil, err
	}
	return account.DebtIssued.Clone(), nil
}

func (l *Ledger) CollateralOf(ctx context.Context, accountId uuid.UUID, assetId string) (*uint256.Int, error) {
	position, err := FindOrNewPosition(ctx, l.clk, l.store, accountId, assetId)
	if err != nil {
		return nil, err
	}
	return position.Amount.Clone(), nil
}

func (l *Ledger) Positions(ctx context.Context, accountId uuid.UUID) ([]*Position, error) {
	return l.store.ListPositions(ctx, accountId)
}

func (l *Ledger) AddCollateral(ctx context.Context, accountId uuid.UUID, assetId string, qty *uint256.Int) error {
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	position, err := FindOrNewPosition(ctx, l.clk, l.store, accountId, assetId)
	if err != nil {
		return err
	}
	if err := position.Increase(qty); err != nil {
		return errors.Wrapf(err, "add collateral %s", assetId)
	}
	return l.savePosition(ctx, position)
}

func (l *Ledger) SubCollateral(ctx context.Context, accountId uuid.UUID, assetId string, qty *uint256.Int) error {
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	position, err := FindOrNewPosition(ctx, l.clk, l.store, accountId, assetId)
	if err != nil {
		return err
	}
	if err := position.Decrease(qty); err != nil {
		return errors.Wrapf(err, "account %s holds %s of %s, requested %s", accountId, position.Amount.Dec(), assetId, qty.Dec())
	}
	return l.savePosition(ctx, position)
}

func (l *Ledger) AddDebt(ctx context.Context, accountId uuid.UUID, qty *uint256.Int) error {
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	account, err := l.Account(ctx, accountId)
	if err != nil {
		return err
	}
	debt, err := checkedAdd(account.DebtIssued, qty)
	if err != nil {
		return errors.Wrap(err, "add debt")
	}
	account.DebtIssued = debt
	return l.saveAccount(ctx, account)
}

func (l *Ledger) SubDebt(ctx context.Context, accountId uuid.UUID, qty *uint256.Int) error {
	if qty == nil || qty.IsZero() {
		return ErrZeroAmount
	}
	account, err := l.Account(ctx, accountId)
	if err != nil {
		return err
	}
	if qty.Gt(account.DebtIssued) {
		return errors.Wrapf(ErrInsufficientDebt, "account %s owes %s, requested %s", accountId, account.DebtIssued.Dec(), qty.Dec())
	}
	account.DebtIssued = new(uint256.Int).Sub(account.DebtIssued, qty)
	return l.saveAccount(ctx, account)
}

func (l *Ledger) savePosition(ctx context.Context, position *Position) error {
	position.UpdatedAt = l.clk.Now().Unix()
	if err := l.store.UpsertPosition(ctx, position); err != nil {
		return err
	}
	account, err := l.Account(ctx, position.AccountId)
	if err != nil {
		return err
	}
	return l.saveAccount(ctx, account)
}

func (l *Ledger) saveAccount(ctx context.Context, account *Account) error {
	account.UpdatedAt = l.clk.Now().Unix()
	return l.store.UpsertAccount(ctx, account)
}
