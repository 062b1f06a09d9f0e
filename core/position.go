package core

import (
	"context"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

type (
	PositionStore interface {
		FindPosition(ctx context.Context, accountId uuid.UUID, assetId string) (*Position, error)
		UpsertPosition(ctx context.Context, position *Position) error
		ListPositions(ctx context.Context, accountId uuid.UUID) ([]*Position, error)
	}

	// Position is the collateral an account holds of one kind, in the
	// kind's native units.
	Position struct {
		AccountId uuid.UUID    `json:"accountId"`
		AssetId   string       `json:"assetId"`
		Amount    *uint256.Int `json:"amount"`

		UpdatedAt int64 `json:"updatedAt"`
	}
)

func NewPosition(clk clock.Clock, accountId uuid.UUID, assetId string) *Position {
	return &Position{
		AccountId: accountId,
		AssetId:   assetId,
		Amount:    new(uint256.Int),
		UpdatedAt: clk.Now().Unix(),
	}
}

func FindOrNewPosition(ctx context.Context, clk clock.Clock, store PositionStore, accountId uuid.UUID, assetId string) (*Position, error) {
	position, err := store.FindPosition(ctx, accountId, assetId)
	if err != nil {
		if err == ErrNotFound {
			return NewPosition(clk, accountId, assetId), nil
		}
		return nil, err
	}
	return position, nil
}

func (p *Position) Clone() *Position {
	c := *p
	if p.Amount != nil {
		c.Amount = p.Amount.Clone()
	} else {
		c.Amount = new(uint256.Int)
	}
	return &c
}

func (p *Position) IsEmpty() bool {
	return p.Amount == nil || p.Amount.IsZero()
}

func (p *Position) Increase(delta *uint256.Int) error {
	amount, err := checkedAdd(p.Amount, delta)
	if err != nil {
		return err
	}
	p.Amount = amount
	return nil
}

func (p *Position) Decrease(delta *uint256.Int) error {
	if delta.Gt(p.Amount) {
		return ErrInsufficientCollateral
	}
	p.Amount = new(uint256.Int).Sub(p.Amount, delta)
	return nil
}
