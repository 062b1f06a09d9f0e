package core

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

func (op *operation) deposit(ctx context.Context, assetId string, qty *uint256.Int) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	c, err := op.e.valuation.collateral(assetId)
	if err != nil {
		return err
	}
	if err := op.ledger.AddCollateral(ctx, op.caller, assetId, qty); err != nil {
		return err
	}
	op.record(op.caller, ATDeposit, assetId, qty)
	op.pull(c.kind.Asset, assetId, op.caller, qty)
	return nil
}

func (op *operation) withdraw(ctx context.Context, assetId string, qty *uint256.Int) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	c, err := op.e.valuation.collateral(assetId)
	if err != nil {
		return err
	}
	if err := op.ledger.SubCollateral(ctx, op.caller, assetId, qty); err != nil {
		return err
	}
	op.record(op.caller, ATWithdraw, assetId, qty)
	op.requireSolvent(op.caller)
	op.push(c.kind.Asset, assetId, op.caller, qty)
	return nil
}

func (op *operation) issue(ctx context.Context, amount *uint256.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := op.ledger.AddDebt(ctx, op.caller, amount); err != nil {
		return err
	}
	op.record(op.caller, ATIssue, "", amount)
	op.requireSolvent(op.caller)
	op.mint(op.caller, amount)
	return nil
}

func (op *operation) repay(ctx context.Context, amount *uint256.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := op.ledger.SubDebt(ctx, op.caller, amount); err != nil {
		return err
	}
	op.record(op.caller, ATRepay, "", amount)
	op.requireSolvent(op.caller)
	op.pull(op.e.debtToken, "debt", op.caller, amount)
	op.burn(amount)
	return nil
}

func (op *operation) liquidateAccount(ctx context.Context, assetId string, target uuid.UUID, debtToCover *uint256.Int) error {
	if err := requirePositive(debtToCover); err != nil {
		return err
	}
	c, err := op.e.valuation.collateral(assetId)
	if err != nil {
		return err
	}
	risk := op.e.risk

	startFactor, err := risk.CheckPreLiquidationCondition(ctx, op.ledger, target)
	if err != nil {
		return err
	}

	seized, err := op.e.valuation.TokenAmountForValue(ctx, assetId, debtToCover)
	if err != nil {
		return err
	}
	bonus := LiquidationBonus(seized)
	total, err := checkedAdd(seized, bonus)
	if err != nil {
		return err
	}
	if total.IsZero() {
		return errors.Wrap(ErrZeroAmount, "debt to cover buys no collateral")
	}

	if err := op.ledger.SubCollateral(ctx, target, assetId, total); err != nil {
		return err
	}
	if err := op.ledger.SubDebt(ctx, target, debtToCover); err != nil {
		return err
	}

	endFactor, err := risk.CheckPostLiquidationCondition(ctx, op.ledger, target, startFactor)
	if err != nil {
		return err
	}
	liquidatorFactor, err := risk.RequireSolvent(ctx, op.ledger, op.caller)
	if err != nil {
		return err
	}

	op.record(target, ATWithdraw, assetId, total)
	op.record(target, ATRepay, "", debtToCover)
	op.liquidate = &LiquidateResult{
		Liquidator:           op.caller,
		Target:               target,
		AssetId:              assetId,
		DebtCovered:          debtToCover.Clone(),
		CollateralSeized:     seized,
		Bonus:                bonus,
		TargetPreHealth:      startFactor,
		TargetPostHealth:     endFactor,
		LiquidatorPostHealth: liquidatorFactor,
	}

	op.pull(op.e.debtToken, "debt", op.caller, debtToCover)
	op.burn(debtToCover)
	op.push(c.kind.Asset, assetId, op.caller, total)
	return nil
}

// pull moves amount from holder into custody.
func (op *operation) pull(asset CollateralAsset, assetId string, holder uuid.UUID, amount *uint256.Int) {
	custody := op.e.custody
	amount = amount.Clone()
	op.interactions.add(interaction{
		name:  "pull " + assetId,
		phase: phasePull,
		do: func(ctx context.Context) error {
			ok, err := asset.TransferFrom(ctx, custody, holder, custody, amount)
			return transferResult(ok, err, "pull %s from %s", assetId, holder)
		},
		undo: func(ctx context.Context) error {
			ok, err := asset.Transfer(ctx, custody, holder, amount)
			return transferResult(ok, err, "return %s to %s", assetId, holder)
		},
	})
}

// push moves amount from custody to holder.
func (op *operation) push(asset CollateralAsset, assetId string, holder uuid.UUID, amount *uint256.Int) {
	custody := op.e.custody
	amount = amount.Clone()
	op.interactions.add(interaction{
		name:  "push " + assetId,
		phase: phasePush,
		do: func(ctx context.Context) error {
			ok, err := asset.Transfer(ctx, custody, holder, amount)
			return transferResult(ok, err, "push %s to %s", assetId, holder)
		},
	})
}

func (op *operation) burn(amount *uint256.Int) {
	token, custody := op.e.debtToken, op.e.custody
	amount = amount.Clone()
	op.interactions.add(interaction{
		name:  "burn",
		phase: phaseBurn,
		do: func(ctx context.Context) error {
			if err := token.Burn(ctx, custody, amount); err != nil {
				return errors.Wrapf(ErrTransferFailed, "burn %s: %v", amount.Dec(), err)
			}
			return nil
		},
		undo: func(ctx context.Context) error {
			_, err := token.Mint(ctx, custody, custody, amount)
			return err
		},
	})
}

func (op *operation) mint(to uuid.UUID, amount *uint256.Int) {
	token, custody := op.e.debtToken, op.e.custody
	amount = amount.Clone()
	op.interactions.add(interaction{
		name:  "mint",
		phase: phaseMint,
		do: func(ctx context.Context) error {
			ok, err := token.Mint(ctx, custody, to, amount)
			if err != nil {
				return errors.Wrapf(ErrIssueFailed, "mint %s to %s: %v", amount.Dec(), to, err)
			}
			if !ok {
				return errors.Wrapf(ErrIssueFailed, "mint %s to %s", amount.Dec(), to)
			}
			return nil
		},
	})
}

func transferResult(ok bool, err error, format string, args ...any) error {
	if err != nil {
		return errors.Wrapf(ErrTransferFailed, format+": %v", append(args, err)...)
	}
	if !ok {
		return errors.Wrapf(ErrTransferFailed, format, args...)
	}
	return nil
}
