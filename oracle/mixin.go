package oracle

import (
	"context"
	"sync/atomic"

	"github.com/DomeLiquid/dsc/core"
	"github.com/facebookgo/clock"
	"github.com/fox-one/mixin-sdk-go/v2"
	"github.com/pkg/errors"
)

// AssetReader is satisfied by *mixin.Client.
type AssetReader interface {
	ReadAsset(ctx context.Context, assetID string) (*mixin.Asset, error)
}

// MixinPriceAdapter answers the USD price mixin reports for one asset. Mixin
// carries no quote timestamp, so a price is stamped when it is read.
type MixinPriceAdapter struct {
	clk     clock.Clock
	client  AssetReader
	assetId string
	round   atomic.Uint64
}

var _ core.PriceAdapter = (*MixinPriceAdapter)(nil)

func NewMixinPriceAdapter(clk clock.Clock, client AssetReader, assetId string) *MixinPriceAdapter {
	return &MixinPriceAdapter{
		clk:     clk,
		client:  client,
		assetId: assetId,
	}
}

func (a *MixinPriceAdapter) AssetId() string {
	return a.assetId
}

func (a *MixinPriceAdapter) LatestPrice(ctx context.Context) (*core.Price, error) {
	asset, err := a.client.ReadAsset(ctx, a.assetId)
	if err != nil {
		return nil, errors.Wrapf(err, "read mixin asset %s", a.assetId)
	}
	if !asset.PriceUSD.IsPositive() {
		return nil, errors.Errorf("mixin asset %s has no usd price", a.assetId)
	}
	answer, err := core.FromDecimal(asset.PriceUSD, core.FEED_DECIMALS)
	if err != nil {
		return nil, err
	}
	if answer.IsZero() {
		return nil, errors.Errorf("mixin asset %s price %s below feed precision", a.assetId, asset.PriceUSD)
	}
	return &core.Price{
		RoundId:   a.round.Add(1),
		Answer:    answer,
		Decimals:  core.FEED_DECIMALS,
		UpdatedAt: a.clk.Now().Unix(),
	}, nil
}
