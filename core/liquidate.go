package core

import (
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

type LiquidateResult struct {
	Liquidator uuid.UUID `json:"liquidator"`
	Target     uuid.UUID `json:"target"`
	AssetId    string    `json:"assetId"`

	DebtCovered      *uint256.Int `json:"debtCovered"`
	CollateralSeized *uint256.Int `json:"collateralSeized"`
	Bonus            *uint256.Int `json:"bonus"`

	TargetPreHealth      *uint256.Int `json:"targetPreHealth"`
	TargetPostHealth     *uint256.Int `json:"targetPostHealth"`
	LiquidatorPostHealth *uint256.Int `json:"liquidatorPostHealth"`
}

// TotalSeized is the collateral leaving the target, bonus included.
func (r *LiquidateResult) TotalSeized() *uint256.Int {
	return new(uint256.Int).Add(r.CollateralSeized, r.Bonus)
}
