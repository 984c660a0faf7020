package crowdsale

import "math/big"

// DefaultRate is the launch exchange rate: 12 sale units per payment unit.
const DefaultRate = 12

// DefaultLockDuration holds purchased tokens for a year.
const DefaultLockDuration int64 = 365 * 24 * 60 * 60

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

var (
	// defaultMinPurchase is 1 payment token in 6-decimal base units.
	defaultMinPurchase = mustBigInt("1000000")
	// defaultMaxPurchase is 1,000,000 payment tokens in 6-decimal base units.
	defaultMaxPurchase = mustBigInt("1000000000000")

	// TotalSupply is the fixed sale-asset supply: 1e9 tokens at 18 decimals.
	TotalSupply = mustBigInt("1000000000000000000000000000")
	// SaleAllocation is the 40% slice of supply reserved for the sale.
	SaleAllocation = mustBigInt("400000000000000000000000000")
)

// Params are the operational bounds of the sale controller.
type Params struct {
	Rate         uint64
	MinPurchase  *big.Int
	MaxPurchase  *big.Int
	LockDuration int64
}

// DefaultParams returns the launch configuration of the original deployment.
func DefaultParams() Params {
	return Params{
		Rate:         DefaultRate,
		MinPurchase:  new(big.Int).Set(defaultMinPurchase),
		MaxPurchase:  new(big.Int).Set(defaultMaxPurchase),
		LockDuration: DefaultLockDuration,
	}
}

// Normalize fills zero fields with defaults.
func (p Params) Normalize() Params {
	defaults := DefaultParams()
	if p.Rate == 0 {
		p.Rate = defaults.Rate
	}
	if p.MinPurchase == nil || p.MinPurchase.Sign() <= 0 {
		p.MinPurchase = defaults.MinPurchase
	}
	if p.MaxPurchase == nil || p.MaxPurchase.Sign() <= 0 {
		p.MaxPurchase = defaults.MaxPurchase
	}
	if p.LockDuration <= 0 {
		p.LockDuration = defaults.LockDuration
	}
	return p
}
