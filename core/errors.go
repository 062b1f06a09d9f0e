package core

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	ErrZeroAmount                 = errors.New("amount must be more than zero")
	ErrMismatchedConfigLength     = errors.New("collateral tokens and price feeds must have the same length")
	ErrUnregisteredCollateralKind = errors.New("collateral kind not registered")
	ErrDuplicateCollateralKind    = errors.New("collateral kind registered twice")
	ErrTransferFailed             = errors.New("transfer failed")
	ErrHealthFactorBroken         = errors.New("health factor broken")
	ErrIssueFailed                = errors.New("issue failed")
	ErrHealthFactorOk             = errors.New("health factor ok")
	ErrHealthFactorNotImproved    = errors.New("health factor not improved")
	ErrInsufficientCollateral     = errors.New("insufficient collateral")
	ErrInsufficientDebt           = errors.New("insufficient debt")
	ErrOracleUnavailable          = errors.New("oracle unavailable")
	ErrStalePrice                 = errors.New("stale price")
	ErrReentrantCall              = errors.New("reentrant call")
	ErrMathOverflow               = errors.New("math overflow")
	ErrNotFound                   = errors.New("record not found")
	ErrInvalidCollaborator        = errors.New("invalid collaborator")
)

// HealthFactorBrokenError carries the factor that failed the solvency check.
type HealthFactorBrokenError struct {
	HealthFactor *uint256.Int
}

func (e *HealthFactorBrokenError) Error() string {
	return fmt.Sprintf("%s: %s", ErrHealthFactorBroken, e.HealthFactor.Dec())
}

func (e *HealthFactorBrokenError) Is(target error) bool {
	return target == ErrHealthFactorBroken
}

var outcomes = []struct {
	err   error
	label string
}{
	{ErrZeroAmount, "zero_amount"},
	{ErrUnregisteredCollateralKind, "unregistered_kind"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrHealthFactorBroken, "health_factor_broken"},
	{ErrIssueFailed, "issue_failed"},
	{ErrHealthFactorOk, "health_factor_ok"},
	{ErrHealthFactorNotImproved, "health_factor_not_improved"},
	{ErrInsufficientCollateral, "insufficient_collateral"},
	{ErrInsufficientDebt, "insufficient_debt"},
	{ErrOracleUnavailable, "oracle_unavailable"},
	{ErrStalePrice, "stale_price"},
	{ErrReentrantCall, "reentrant_call"},
	{ErrMathOverflow, "math_overflow"},
}

func outcomeOf(err error) string {
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}
