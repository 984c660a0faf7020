package types

import "math/big"

// Account is the per-address ledger record. Balances are denominated in base
// units: the payment asset carries 6 decimals, the sale asset 18.
type Account struct {
	BalancePayment *big.Int `json:"balancePayment"`
	BalanceSale    *big.Int `json:"balanceSale"`
}

// Normalize replaces nil balance pointers with zero so callers can operate on
// the account without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{BalancePayment: big.NewInt(0), BalanceSale: big.NewInt(0)}
	}
	if a.BalancePayment == nil {
		a.BalancePayment = big.NewInt(0)
	}
	if a.BalanceSale == nil {
		a.BalanceSale = big.NewInt(0)
	}
	return a
}

// Clone returns a deep copy so callers cannot mutate shared big.Int pointers.
func (a *Account) Clone() *Account {
	if a == nil {
		return (&Account{}).Normalize()
	}
	clone := &Account{BalancePayment: big.NewInt(0), BalanceSale: big.NewInt(0)}
	if a.BalancePayment != nil {
		clone.BalancePayment = new(big.Int).Set(a.BalancePayment)
	}
	if a.BalanceSale != nil {
		clone.BalanceSale = new(big.Int).Set(a.BalanceSale)
	}
	return clone
}
