package lockvault

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNilToken is returned when a strategy is built without its token ledger.
	ErrNilToken = errors.New("lockvault: token ledger not configured")
	// ErrVaultUnderfunded is returned when the vault's balance does not cover a
	// claim total.
	ErrVaultUnderfunded = errors.New("lockvault: vault balance below claim total")
)

// TokenMover is the slice of the sale-asset ledger the vault strategy needs
// to release claimed tokens. CanSpend must report any condition (pause switch,
// transfer guard) that would make a Transfer out of the vault fail.
type TokenMover interface {
	Transfer(from, to common.Address, amount *big.Int) error
	BalanceOf(addr common.Address) (*big.Int, error)
	CanSpend(from common.Address, amount *big.Int) error
}

// Vault is the external-lock strategy: purchased tokens sit in the vault
// account until claimed, then move to the beneficiary's spendable balance.
type Vault struct {
	*Engine
	addr  common.Address
	token TokenMover
}

// NewVault builds the vault strategy around a schedule engine. The vault
// address is the custodial holder of all unclaimed sale tokens.
func NewVault(engine *Engine, addr common.Address, token TokenMover) (*Vault, error) {
	if engine == nil {
		return nil, ErrNilState
	}
	if token == nil {
		return nil, ErrNilToken
	}
	if addr == (common.Address{}) {
		return nil, ErrInvalidBeneficiary
	}
	return &Vault{Engine: engine, addr: addr, token: token}, nil
}

// Address returns the custodial vault address.
func (v *Vault) Address() common.Address { return v.addr }

// releasable verifies the vault can actually pay out a claim total: the spend
// path must be open and the vault balance must cover it. Run before the claim
// is persisted so a refused transfer never burns a schedule.
func (v *Vault) releasable(total *big.Int) error {
	if err := v.token.CanSpend(v.addr, total); err != nil {
		return err
	}
	balance, err := v.token.BalanceOf(v.addr)
	if err != nil {
		return err
	}
	if balance.Cmp(total) < 0 {
		return ErrVaultUnderfunded
	}
	return nil
}

// ClaimAll releases every claimable schedule and transfers the total from the
// vault to the beneficiary.
func (v *Vault) ClaimAll(beneficiary common.Address) (*big.Int, error) {
	total, err := v.claimAll(beneficiary, v.releasable)
	if err != nil {
		return nil, err
	}
	if err := v.token.Transfer(v.addr, beneficiary, total); err != nil {
		return nil, err
	}
	return total, nil
}

// Claim releases the given schedule indices and transfers the total from the
// vault to the beneficiary.
func (v *Vault) Claim(beneficiary common.Address, ids []uint64) (*big.Int, error) {
	total, err := v.claim(beneficiary, ids, v.releasable)
	if err != nil {
		return nil, err
	}
	if err := v.token.Transfer(v.addr, beneficiary, total); err != nil {
		return nil, err
	}
	return total, nil
}

var _ Locker = (*Vault)(nil)
