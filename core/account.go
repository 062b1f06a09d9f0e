package core

import (
	"context"

	"github.com/DomeLiquid/dsc/utils"
	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

type (
	AccountStore interface {
		FindAccount(ctx context.Context, accountId uuid.UUID) (*Account, error)
		UpsertAccount(ctx context.Context, account *Account) error
		ListAccounts(ctx context.Context, offset uuid.UUID, limit int) ([]*Account, error)
	}

	Account struct {
		Id         uuid.UUID    `json:"id"`
		DebtIssued *uint256.Int `json:"debtIssued"`

		CreatedAt int64 `json:"createdAt"`
		UpdatedAt int64 `json:"updatedAt"`
	}
)

func NewAccount(clk clock.Clock, accountId uuid.UUID) *Account {
	return &Account{
		Id:         accountId,
		DebtIssued: new(uint256.Int),
		CreatedAt:  clk.Now().Unix(),
		UpdatedAt:  clk.Now().Unix(),
	}
}

// AccountIdFromAddress derives a stable account id from an external
// address, e.g. a mixin user id or a wallet public key.
func AccountIdFromAddress(address string) uuid.UUID {
	return utils.DeriveId(address)
}

func (a *Account) Clone() *Account {
	c := *a
	if a.DebtIssued != nil {
		c.DebtIssued = a.DebtIssued.Clone()
	} else {
		c.DebtIssued = new(uint256.Int)
	}
	return &c
}

func (a *Account) HasDebt() bool {
	return a.DebtIssued != nil && !a.DebtIssued.IsZero()
}

// FindOrNewAccount never persists; accounts come into existence with their
// first ledger write.
func FindOrNewAccount(ctx context.Context, clk clock.Clock, store AccountStore, accountId uuid.UUID) (*Account, error) {
	account, err := store.FindAccount(ctx, accountId)
	if err != nil {
		if err == ErrNotFound {
			return NewAccount(clk, accountId), nil
		}
		return nil, err
	}
	return account, nil
}
