package lockvault

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrTransferExceedsUnlocked rejects spends of still-locked balance in the
// embedded strategy.
var ErrTransferExceedsUnlocked = errors.New("lockvault: transfer exceeds unlocked balance")

// BalanceProvider is the read-only slice of the sale-asset ledger the
// embedded strategy's transfer guard needs.
type BalanceProvider interface {
	BalanceOf(addr common.Address) (*big.Int, error)
}

// Embedded is the token-embedded lock strategy: purchased tokens land
// directly in the holder's balance and the schedule ledger gates every
// outbound transfer against the locked portion. Claims are pure bookkeeping;
// no tokens move because the holder already has them.
type Embedded struct {
	*Engine
	balances BalanceProvider
}

// NewEmbedded builds the embedded strategy around a schedule engine.
func NewEmbedded(engine *Engine, balances BalanceProvider) (*Embedded, error) {
	if engine == nil {
		return nil, ErrNilState
	}
	if balances == nil {
		return nil, ErrNilToken
	}
	return &Embedded{Engine: engine, balances: balances}, nil
}

// ClaimAll marks every claimable schedule as released. The tokens are already
// in the holder's balance; claiming lifts the transfer restriction.
func (m *Embedded) ClaimAll(beneficiary common.Address) (*big.Int, error) {
	return m.claimAll(beneficiary, nil)
}

// Claim marks the given schedule indices as released.
func (m *Embedded) Claim(beneficiary common.Address, ids []uint64) (*big.Int, error) {
	return m.claim(beneficiary, ids, nil)
}

// CheckTransfer implements the sale-asset ledger's pre-transfer guard:
// balance minus locked must cover the requested amount. Only the spend path
// is guarded; inbound credits and mints never pass through here.
func (m *Embedded) CheckTransfer(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	balance, err := m.balances.BalanceOf(from)
	if err != nil {
		return err
	}
	locked, err := m.LockedBalance(from)
	if err != nil {
		return err
	}
	spendable := new(big.Int).Sub(balance, locked)
	if spendable.Cmp(amount) < 0 {
		return ErrTransferExceedsUnlocked
	}
	return nil
}

var _ Locker = (*Embedded)(nil)
