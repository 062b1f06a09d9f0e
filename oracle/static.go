package oracle

import (
	"context"
	"sync"

	"github.com/DomeLiquid/dsc/core"
	"github.com/facebookgo/clock"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// StaticPriceAdapter serves a manually set price. Each Set starts a new round
// stamped with the clock.
type StaticPriceAdapter struct {
	clk clock.Clock

	mu    sync.RWMutex
	price core.Price
	err   error
}

var _ core.PriceAdapter = (*StaticPriceAdapter)(nil)

// NewStaticPriceAdapter takes a human-readable USD price, e.g. "2000.5".
func NewStaticPriceAdapter(clk clock.Clock, usd decimal.Decimal) (*StaticPriceAdapter, error) {
	a := &StaticPriceAdapter{clk: clk}
	if err := a.SetPrice(usd); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *StaticPriceAdapter) SetPrice(usd decimal.Decimal) error {
	answer, err := core.FromDecimal(usd, core.FEED_DECIMALS)
	if err != nil {
		return err
	}
	a.SetAnswer(answer, core.FEED_DECIMALS)
	return nil
}

func (a *StaticPriceAdapter) SetAnswer(answer *uint256.Int, decimals uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.price = core.Price{
		RoundId:   a.price.RoundId + 1,
		Answer:    answer.Clone(),
		Decimals:  decimals,
		UpdatedAt: a.clk.Now().Unix(),
	}
}

// SetError makes every read fail with err until cleared with nil.
func (a *StaticPriceAdapter) SetError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *StaticPriceAdapter) LatestPrice(_ context.Context) (*core.Price, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.err != nil {
		return nil, a.err
	}
	p := a.price
	p.Answer = a.price.Answer.Clone()
	return &p, nil
}
