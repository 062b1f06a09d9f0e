package core

import (
	"context"

	"github.com/holiman/uint256"
)

type OracleSetup uint8

func (os OracleSetup) String() string {
	switch os {
	case MixinOracle:
		return "Mixin"
	case StaticOracle:
		return "Static"
	default:
		return "Unknown"
	}
}

const (
	MixinOracle OracleSetup = iota
	StaticOracle
)

func ParseOracleSetup(s string) (OracleSetup, bool) {
	switch s {
	case MixinOracle.String(), "mixin":
		return MixinOracle, true
	case StaticOracle.String(), "static":
		return StaticOracle, true
	default:
		return 0, false
	}
}

type (
	// PriceAdapter answers the latest price of one collateral kind in the
	// common unit. Answers are never cached by the engine.
	PriceAdapter interface {
		LatestPrice(ctx context.Context) (*Price, error)
	}

	Price struct {
		RoundId   uint64       `json:"roundId"`
		Answer    *uint256.Int `json:"answer"`
		Decimals  uint8        `json:"decimals"`
		UpdatedAt int64        `json:"updatedAt"`
	}
)

// IsStale reports whether the price is older than maxAge seconds at now.
// A zero maxAge never expires.
func (p *Price) IsStale(now int64, maxAge uint64) bool {
	if maxAge == 0 || p.UpdatedAt >= now {
		return false
	}
	return uint64(now-p.UpdatedAt) > maxAge
}
