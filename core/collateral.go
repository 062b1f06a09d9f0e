package core

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

type (
	// CollateralAsset is the fungible asset backing one collateral kind.
	CollateralAsset interface {
		Transfer(ctx context.Context, from, to uuid.UUID, amount *uint256.Int) (bool, error)
		TransferFrom(ctx context.Context, spender, from, to uuid.UUID, amount *uint256.Int) (bool, error)
		BalanceOf(ctx context.Context, holder uuid.UUID) (*uint256.Int, error)
	}

	// DebtToken is the issued synthetic asset. Mint and Burn only succeed when
	// called by the engine's custody identity.
	DebtToken interface {
		CollateralAsset
		Mint(ctx context.Context, minter, to uuid.UUID, amount *uint256.Int) (bool, error)
		Burn(ctx context.Context, holder uuid.UUID, amount *uint256.Int) error
	}

	CollateralKind struct {
		AssetId      string      `json:"assetId"`
		Symbol       string      `json:"symbol"`
		Decimals     uint8       `json:"decimals"`
		OracleSetup  OracleSetup `json:"oracleSetup"`
		OracleMaxAge uint64      `json:"oracleMaxAge"`

		Asset CollateralAsset `json:"-"`
	}

	// collateral pairs a registered kind with its price feed.
	collateral struct {
		kind *CollateralKind
		feed PriceAdapter
	}
)

func (k *CollateralKind) Clone() *CollateralKind {
	c := *k
	return &c
}

func (k *CollateralKind) MaxAge(fallback uint64) uint64 {
	if k.OracleMaxAge > 0 {
		return k.OracleMaxAge
	}
	return fallback
}
