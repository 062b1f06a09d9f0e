package core

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
)

// The read-only queries below never fail. They read committed state, and a
// kind whose price cannot be read is valued at zero.

func (e *Engine) ledger() *Ledger {
	return NewLedger(e.clk, e.store)
}

func (e *Engine) lenientCollateralValue(ctx context.Context, ledger *Ledger, accountId uuid.UUID) *uint256.Int {
	value, err := e.valuation.totalCollateralValue(ctx, ledger, accountId, func(assetId string, err error) error {
		e.log.Warn().Err(err).Str("asset", assetId).Str("account", accountId.String()).Msg("price unavailable, valued at zero")
		return nil
	})
	if err != nil {
		e.log.Error().Err(err).Str("account", accountId.String()).Msg("read collateral value")
		return new(uint256.Int)
	}
	return value
}

// GetAccountInformation returns the account's issued debt and total
// collateral value.
func (e *Engine) GetAccountInformation(ctx context.Context, accountId uuid.UUID) (*uint256.Int, *uint256.Int) {
	ledger := e.ledger()
	debt, err := ledger.DebtOf(ctx, accountId)
	if err != nil {
		e.log.Error().Err(err).Str("account", accountId.String()).Msg("read debt")
		debt = new(uint256.Int)
	}
	return debt, e.lenientCollateralValue(ctx, ledger, accountId)
}

func (e *Engine) GetAccountCollateralValue(ctx context.Context, accountId uuid.UUID) *uint256.Int {
	return e.lenientCollateralValue(ctx, e.ledger(), accountId)
}

func (e *Engine) GetHealthFactor(ctx context.Context, accountId uuid.UUID) *uint256.Int {
	debt, collateralValue := e.GetAccountInformation(ctx, accountId)
	return CalculateHealthFactor(debt, collateralValue)
}

func (e *Engine) GetUsdValue(ctx context.Context, assetId string, qty *uint256.Int) *uint256.Int {
	value, err := e.valuation.ValueOf(ctx, assetId, qty)
	if err != nil {
		e.log.Warn().Err(err).Str("asset", assetId).Msg("usd value unavailable")
		return new(uint256.Int)
	}
	return value
}

func (e *Engine) GetTokenAmountFromUsd(ctx context.Context, assetId string, value *uint256.Int) *uint256.Int {
	amount, err := e.valuation.TokenAmountForValue(ctx, assetId, value)
	if err != nil {
		e.log.Warn().Err(err).Str("asset", assetId).Msg("token amount unavailable")
		return new(uint256.Int)
	}
	return amount
}

func (e *Engine) GetCollateralBalanceOfUser(ctx context.Context, accountId uuid.UUID, assetId string) *uint256.Int {
	amount, err := e.ledger().CollateralOf(ctx, accountId, assetId)
	if err != nil {
		e.log.Error().Err(err).Str("account", accountId.String()).Str("asset", assetId).Msg("read collateral balance")
		return new(uint256.Int)
	}
	return amount
}

// GetCollateralTokens lists registered asset ids in registration order.
func (e *Engine) GetCollateralTokens() []string {
	return append([]string(nil), e.valuation.order...)
}

// GetCollateralTokenPriceFeed returns nil for an unregistered asset.
func (e *Engine) GetCollateralTokenPriceFeed(assetId string) PriceAdapter {
	c, ok := e.valuation.kinds[assetId]
	if !ok {
		return nil
	}
	return c.feed
}

func (e *Engine) GetCollateralKind(assetId string) (*CollateralKind, bool) {
	c, ok := e.valuation.kinds[assetId]
	if !ok {
		return nil, false
	}
	return c.kind.Clone(), true
}

func (e *Engine) ListOperates(ctx context.Context, accountId uuid.UUID, op ActionType, createdBeforeAt int64, limit int) ([]*Operate, error) {
	return e.store.ListOperates(ctx, accountId, op, createdBeforeAt, limit)
}
