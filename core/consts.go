package core

import (
	"github.com/holiman/uint256"
)

const (
	PRECISION_DECIMALS = 18
	FEED_DECIMALS      = 8

	LIQUIDATION_THRESHOLD = 50
	LIQUIDATION_PRECISION = 100
	LIQUIDATION_BONUS     = 10

	MAX_ASSET_DECIMALS = 36

	// seconds
	DEFAULT_ORACLE_MAX_AGE = 3 * 60 * 60
)

// Read-only; derive new values with new(uint256.Int) instead of mutating these.
var (
	PRECISION                 = uint256.NewInt(1_000_000_000_000_000_000)
	ADDITIONAL_FEED_PRECISION = uint256.NewInt(10_000_000_000)
	MIN_HEALTH_FACTOR         = uint256.NewInt(1_000_000_000_000_000_000)
	MAX_HEALTH_FACTOR         = new(uint256.Int).SetAllOne()
)
