package core

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

type RiskEngine struct {
	valuation *Valuation
}

func NewRiskEngine(valuation *Valuation) *RiskEngine {
	return &RiskEngine{valuation: valuation}
}

// GetAccountHealthComponents returns the account's debt and collateral value.
// The collateral value is not computed when the account owes nothing.
func (r *RiskEngine) GetAccountHealthComponents(ctx context.Context, ledger *Ledger, accountId uuid.UUID) (*uint256.Int, *uint256.Int, error) {
	debt, err := ledger.DebtOf(ctx, accountId)
	if err != nil {
		return nil, nil, err
	}
	if debt.IsZero() {
		return debt, new(uint256.Int), nil
	}
	collateralValue, err := r.valuation.TotalCollateralValue(ctx, ledger, accountId)
	if err != nil {
		return nil, nil, err
	}
	return debt, collateralValue, nil
}

func (r *RiskEngine) HealthFactor(ctx context.Context, ledger *Ledger, accountId uuid.UUID) (*uint256.Int, error) {
	debt, collateralValue, err := r.GetAccountHealthComponents(ctx, ledger, accountId)
	if err != nil {
		return nil, err
	}
	return CalculateHealthFactor(debt, collateralValue), nil
}

func (r *RiskEngine) IsSolvent(ctx context.Context, ledger *Ledger, accountId uuid.UUID) (bool, *uint256.Int, error) {
	hf, err := r.HealthFactor(ctx, ledger, accountId)
	if err != nil {
		return false, nil, err
	}
	return !hf.Lt(MIN_HEALTH_FACTOR), hf, nil
}

// RequireSolvent fails with *HealthFactorBrokenError when the account sits
// below MIN_HEALTH_FACTOR.
func (r *RiskEngine) RequireSolvent(ctx context.Context, ledger *Ledger, accountId uuid.UUID) (*uint256.Int, error) {
	ok, hf, err := r.IsSolvent(ctx, ledger, accountId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &HealthFactorBrokenError{HealthFactor: hf}
	}
	return hf, nil
}

// CheckPreLiquidationCondition returns the target's starting factor, failing
// with ErrHealthFactorOk if the target is solvent.
func (r *RiskEngine) CheckPreLiquidationCondition(ctx context.Context, ledger *Ledger, target uuid.UUID) (*uint256.Int, error) {
	ok, hf, err := r.IsSolvent(ctx, ledger, target)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrHealthFactorOk
	}
	return hf, nil
}

// CheckPostLiquidationCondition requires the target's factor to have strictly
// increased over preLiquidationHealth.
func (r *RiskEngine) CheckPostLiquidationCondition(ctx context.Context, ledger *Ledger, target uuid.UUID, preLiquidationHealth *uint256.Int) (*uint256.Int, error) {
	hf, err := r.HealthFactor(ctx, ledger, target)
	if err != nil {
		return nil, err
	}
	if !hf.Gt(preLiquidationHealth) {
		return nil, ErrHealthFactorNotImproved
	}
	return hf, nil
}
