package core

import (
	"context"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Valuation converts collateral quantities to common-unit values and back.
// Prices are read fresh on every call.
type Valuation struct {
	clk     clock.Clock
	log     Log
	metrics *Metrics

	guard   *reentrancyGuard

	kinds  map[string]*collateral
	order  []string
	maxAge uint64
}

func newValuation(clk clock.Clock, log Log, metrics *Metrics, guard *reentrancyGuard, maxAge uint64) *Valuation {
	return &Valuation{
		clk:     clk,
		log:     log,
		metrics: metrics,
		guard:   guard,
		kinds:   map[string]*collateral{},
		maxAge:  maxAge,
	}
}

func (v *Valuation) register(kind *CollateralKind, feed PriceAdapter) error {
	if _, ok := v.kinds[kind.AssetId]; ok {
		return errors.Wrap(ErrDuplicateCollateralKind, kind.AssetId)
	}
	v.kinds[kind.AssetId] = &collateral{kind: kind, feed: feed}
	v.order = append(v.order, kind.AssetId)
	return nil
}

func (v *Valuation) collateral(assetId string) (*collateral, error) {
	c, ok := v.kinds[assetId]
	if !ok {
		return nil, errors.Wrap(ErrUnregisteredCollateralKind, assetId)
	}
	return c, nil
}

// PriceOf reads the kind's feed and rejects zero or stale answers.
func (v *Valuation) PriceOf(ctx context.Context, assetId string) (*Price, error) {
	c, err := v.collateral(assetId)
	if err != nil {
		return nil, err
	}

	var price *Price
	err = v.guard.callout(ctx, func() (err error) {
		price, err = c.feed.LatestPrice(ctx)
		return err
	})
	if err != nil {
		v.metrics.observePriceRead(assetId, "unavailable")
		return nil, errors.Wrapf(ErrOracleUnavailable, "%s: %v", assetId, err)
	}
	if price == nil || price.Answer == nil || price.Answer.IsZero() {
		v.metrics.observePriceRead(assetId, "unavailable")
		return nil, errors.Wrapf(ErrOracleUnavailable, "%s: non-positive answer", assetId)
	}
	now := v.clk.Now().Unix()
	if maxAge := c.kind.MaxAge(v.maxAge); price.IsStale(now, maxAge) {
		v.metrics.observePriceRead(assetId, "stale")
		return nil, errors.Wrapf(ErrStalePrice, "%s updated at %d, max age %ds", assetId, price.UpdatedAt, maxAge)
	}
	v.metrics.observePriceRead(assetId, "ok")
	return price, nil
}

func (v *Valuation) ValueOf(ctx context.Context, assetId string, qty *uint256.Int) (*uint256.Int, error) {
	c, err := v.collateral(assetId)
	if err != nil {
		return nil, err
	}
	if qty == nil || qty.IsZero() {
		return new(uint256.Int), nil
	}
	price, err := v.PriceOf(ctx, assetId)
	if err != nil {
		return nil, err
	}
	return CalcValue(qty, c.kind.Decimals, price)
}

func (v *Valuation) TokenAmountForValue(ctx context.Context, assetId string, value *uint256.Int) (*uint256.Int, error) {
	c, err := v.collateral(assetId)
	if err != nil {
		return nil, err
	}
	price, err := v.PriceOf(ctx, assetId)
	if err != nil {
		return nil, err
	}
	return CalcAmount(value, c.kind.Decimals, price)
}

// TotalCollateralValue sums the value of every registered kind the account
// holds. Empty positions never touch their oracle.
func (v *Valuation) TotalCollateralValue(ctx context.Context, ledger *Ledger, accountId uuid.UUID) (*uint256.Int, error) {
	return v.totalCollateralValue(ctx, ledger, accountId, func(_ string, err error) error {
		return err
	})
}

// totalCollateralValue hands price failures to onErr; a nil return from
// onErr values that kind at zero.
func (v *Valuation) totalCollateralValue(ctx context.Context, ledger *Ledger, accountId uuid.UUID, onErr func(assetId string, err error) error) (*uint256.Int, error) {
	type holding struct {
		assetId string
		amount  *uint256.Int
		value   *uint256.Int
	}

	// store reads stay sequential, a transactional store is not shared
	holdings := make([]*holding, 0, len(v.order))
	for _, assetId := range v.order {
		amount, err := ledger.CollateralOf(ctx, accountId, assetId)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}
		holdings = append(holdings, &holding{assetId: assetId, amount: amount})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range holdings {
		h := h
		g.Go(func() error {
			value, err := v.ValueOf(gctx, h.assetId, h.amount)
			if err != nil {
				if err := onErr(h.assetId, err); err != nil {
					return err
				}
				value = new(uint256.Int)
			}
			h.value = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := new(uint256.Int)
	for _, h := range holdings {
		sum, err := checkedAdd(total, h.value)
		if err != nil {
			return nil, err
		}
		total = sum
	}
	return total, nil
}
