package core

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ten = uint256.NewInt(10)

// maxPow10 is the largest n with 10^n below 2^256.
const maxPow10 = 77

// Pow10 wraps for n above 77; use it only with validated decimals.
func Pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(ten, uint256.NewInt(uint64(n)))
}

func checkedPow10(n uint8) (*uint256.Int, error) {
	if n > maxPow10 {
		return nil, errors.Wrapf(ErrMathOverflow, "10^%d", n)
	}
	return Pow10(n), nil
}

// MulDiv returns floor(x*y/d) using a 512-bit intermediate product.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, errors.Wrap(ErrMathOverflow, "division by zero")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrMathOverflow
	}
	return z, nil
}

func checkedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrMathOverflow
	}
	return z, nil
}

func checkedMul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrMathOverflow
	}
	return z, nil
}

// priceScale splits a feed answer into numerator and denominator factors that
// bring it to PRECISION_DECIMALS.
func priceScale(price *Price) (*uint256.Int, *uint256.Int, error) {
	if price == nil || price.Answer == nil || price.Answer.IsZero() {
		return nil, nil, errors.Wrap(ErrOracleUnavailable, "price is zero")
	}
	if price.Decimals <= PRECISION_DECIMALS {
		num, err := checkedMul(price.Answer, Pow10(PRECISION_DECIMALS-price.Decimals))
		if err != nil {
			return nil, nil, err
		}
		return num, uint256.NewInt(1), nil
	}
	den, err := checkedPow10(price.Decimals - PRECISION_DECIMALS)
	if err != nil {
		return nil, nil, err
	}
	return price.Answer.Clone(), den, nil
}

func scaleDown(den *uint256.Int, assetDecimals uint8) (*uint256.Int, error) {
	unit, err := checkedPow10(assetDecimals)
	if err != nil {
		return nil, err
	}
	return checkedMul(den, unit)
}

// CalcValue converts an amount in native units of an asset with assetDecimals
// into an 18-decimal common-unit value, rounding down.
func CalcValue(amount *uint256.Int, assetDecimals uint8, price *Price) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() {
		return new(uint256.Int), nil
	}
	num, den, err := priceScale(price)
	if err != nil {
		return nil, err
	}
	den, err = scaleDown(den, assetDecimals)
	if err != nil {
		return nil, err
	}
	return MulDiv(amount, num, den)
}

// CalcAmount is the inverse of CalcValue, rounding down.
func CalcAmount(value *uint256.Int, assetDecimals uint8, price *Price) (*uint256.Int, error) {
	num, den, err := priceScale(price)
	if err != nil {
		return nil, err
	}
	if value == nil || value.IsZero() {
		return new(uint256.Int), nil
	}
	den, err = scaleDown(den, assetDecimals)
	if err != nil {
		return nil, err
	}
	return MulDiv(value, den, num)
}

// CalculateHealthFactor returns the threshold-adjusted collateral value over
// the debt, scaled by PRECISION. Zero debt yields MAX_HEALTH_FACTOR.
func CalculateHealthFactor(totalDebt, collateralValue *uint256.Int) *uint256.Int {
	if totalDebt.IsZero() {
		return MAX_HEALTH_FACTOR.Clone()
	}
	adjusted, _ := MulDiv(collateralValue, uint256.NewInt(LIQUIDATION_THRESHOLD), uint256.NewInt(LIQUIDATION_PRECISION))
	hf, err := MulDiv(adjusted, PRECISION, totalDebt)
	if err != nil {
		// saturates; only reachable when the collateral dwarfs the debt
		return MAX_HEALTH_FACTOR.Clone()
	}
	return hf
}

// LiquidationBonus returns the bonus share granted on top of a seized amount.
func LiquidationBonus(amount *uint256.Int) *uint256.Int {
	bonus, _ := MulDiv(amount, uint256.NewInt(LIQUIDATION_BONUS), uint256.NewInt(LIQUIDATION_PRECISION))
	return bonus
}

func ToDecimal(amount *uint256.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount.ToBig(), -int32(decimals))
}

// FromDecimal truncates d to the given number of decimals.
func FromDecimal(d decimal.Decimal, decimals uint8) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, errors.Errorf("negative amount %s", d)
	}
	z, overflow := uint256.FromBig(d.Shift(int32(decimals)).BigInt())
	if overflow {
		return nil, ErrMathOverflow
	}
	return z, nil
}
