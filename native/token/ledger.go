package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/events"
	"tokensale/core/types"
)

// Asset names the two fungible ledgers the node maintains.
type Asset string

const (
	// AssetPayment is the 6-decimal stablecoin buyers contribute.
	AssetPayment Asset = "USDT"
	// AssetSale is the 18-decimal token being distributed.
	AssetSale Asset = "HLT"
)

func (a Asset) Valid() bool {
	return a == AssetPayment || a == AssetSale
}

var (
	ErrNilState              = errors.New("token: state not configured")
	ErrInvalidAsset          = errors.New("token: unknown asset")
	ErrZeroAddress           = errors.New("token: zero address")
	ErrNegativeAmount        = errors.New("token: amount must not be negative")
	ErrPaused                = errors.New("token: transfers paused")
	ErrUnauthorized          = errors.New("token: unauthorized")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// State is the narrow slice of persistence the ledger engine needs.
type State interface {
	GetAccount(addr common.Address) (*types.Account, error)
	PutAccount(addr common.Address, acc *types.Account) error
	Allowance(asset string, owner, spender common.Address) (*big.Int, error)
	SetAllowance(asset string, owner, spender common.Address, amount *big.Int) error
	TokenPaused(asset string) (bool, error)
	SetTokenPaused(asset string, paused bool) error
	TokenSupply(asset string) (*big.Int, error)
	SetTokenSupply(asset string, supply *big.Int) error
}

// TransferGuard vetoes outbound transfers. The embedded lock strategy installs
// a guard that rejects spends of still-locked balance. Inbound credits and
// mints are never guarded.
type TransferGuard interface {
	CheckTransfer(from common.Address, amount *big.Int) error
}

// Ledger implements conventional fungible-token semantics (balances,
// allowances, pause switch, admin mint) for one asset over pluggable state.
type Ledger struct {
	asset   Asset
	state   State
	emitter events.Emitter
	admin   common.Address
	guard   TransferGuard
}

// NewLedger creates a ledger for the given asset. The admin address is the
// only identity allowed to mint and toggle the pause switch.
func NewLedger(asset Asset, state State, admin common.Address) (*Ledger, error) {
	if !asset.Valid() {
		return nil, ErrInvalidAsset
	}
	if state == nil {
		return nil, ErrNilState
	}
	return &Ledger{
		asset:   asset,
		state:   state,
		emitter: events.NoopEmitter{},
		admin:   admin,
	}, nil
}

// Asset returns the asset this ledger manages.
func (l *Ledger) Asset() Asset { return l.asset }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetGuard installs a pre-transfer guard on the spend path. Passing nil
// removes any installed guard.
func (l *Ledger) SetGuard(guard TransferGuard) { l.guard = guard }

func (l *Ledger) emit(evt events.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(evt)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (l *Ledger) balancePtr(acc *types.Account) *big.Int {
	if l.asset == AssetPayment {
		return acc.BalancePayment
	}
	return acc.BalanceSale
}

func (l *Ledger) setBalance(acc *types.Account, v *big.Int) {
	if l.asset == AssetPayment {
		acc.BalancePayment = v
		return
	}
	acc.BalanceSale = v
}

// BalanceOf returns the asset balance of addr.
func (l *Ledger) BalanceOf(addr common.Address) (*big.Int, error) {
	acc, err := l.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(l.balancePtr(acc.Normalize())), nil
}

// TotalSupply returns the total minted amount of the asset.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	supply, err := l.state.TokenSupply(string(l.asset))
	if err != nil {
		return nil, err
	}
	return cloneBigInt(supply), nil
}

// Paused reports whether the pause switch is on.
func (l *Ledger) Paused() (bool, error) {
	return l.state.TokenPaused(string(l.asset))
}

func (l *Ledger) checkSpend(from common.Address, amount *big.Int) error {
	paused, err := l.state.TokenPaused(string(l.asset))
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	if l.guard != nil {
		if err := l.guard.CheckTransfer(from, amount); err != nil {
			return err
		}
	}
	return nil
}

// CanSpend reports whether a spend of amount out of from would currently pass
// the pause switch and any installed guard, without moving anything. Engines
// that stage several mutations per operation use it to validate the spend
// before the first write.
func (l *Ledger) CanSpend(from common.Address, amount *big.Int) error {
	return l.checkSpend(from, cloneBigInt(amount))
}

// move debits from and credits to without any spend-path checks. Callers are
// responsible for guard and pause enforcement.
func (l *Ledger) move(from, to common.Address, amount *big.Int) error {
	fromAcc, err := l.state.GetAccount(from)
	if err != nil {
		return err
	}
	fromAcc = fromAcc.Normalize()
	balance := l.balancePtr(fromAcc)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	toAcc = toAcc.Normalize()
	l.setBalance(fromAcc, new(big.Int).Sub(balance, amount))
	l.setBalance(toAcc, new(big.Int).Add(l.balancePtr(toAcc), amount))
	if err := l.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to, toAcc)
}

// Transfer moves amount from the caller's balance to the recipient. The spend
// path is subject to the pause switch and any installed guard.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	if err := l.checkSpend(from, amt); err != nil {
		return err
	}
	if err := l.move(from, to, amt); err != nil {
		return err
	}
	l.emit(events.TokenTransfer{Asset: string(l.asset), From: from, To: to, Amount: amt})
	return nil
}

// Approve sets the allowance of spender over the owner's balance.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	if err := l.state.SetAllowance(string(l.asset), owner, spender, amt); err != nil {
		return err
	}
	l.emit(events.TokenApproval{Asset: string(l.asset), Owner: owner, Spender: spender, Amount: amt})
	return nil
}

// Allowance returns the remaining allowance of spender over owner's balance.
func (l *Ledger) Allowance(owner, spender common.Address) (*big.Int, error) {
	allowance, err := l.state.Allowance(string(l.asset), owner, spender)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(allowance), nil
}

// TransferFrom spends the owner's balance on behalf of spender, consuming
// allowance. Subject to the same spend-path checks as Transfer.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrNegativeAmount
	}
	allowance, err := l.state.Allowance(string(l.asset), from, spender)
	if err != nil {
		return err
	}
	if allowance == nil || allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.checkSpend(from, amt); err != nil {
		return err
	}
	if err := l.move(from, to, amt); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(allowance, amt)
	if err := l.state.SetAllowance(string(l.asset), from, spender, remaining); err != nil {
		return err
	}
	l.emit(events.TokenTransfer{Asset: string(l.asset), From: from, To: to, Amount: amt})
	return nil
}

// Mint credits newly created tokens to the recipient. Admin only.
func (l *Ledger) Mint(caller, to common.Address, amount *big.Int) error {
	if caller != l.admin {
		return ErrUnauthorized
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("token: mint amount must be positive")
	}
	acc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	acc = acc.Normalize()
	l.setBalance(acc, new(big.Int).Add(l.balancePtr(acc), amt))
	if err := l.state.PutAccount(to, acc); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply(string(l.asset))
	if err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(string(l.asset), new(big.Int).Add(cloneBigInt(supply), amt)); err != nil {
		return err
	}
	l.emit(events.TokenMinted{Asset: string(l.asset), To: to, Amount: amt})
	return nil
}

// SetPaused toggles the transfer pause switch. Admin only.
func (l *Ledger) SetPaused(caller common.Address, paused bool) error {
	if caller != l.admin {
		return ErrUnauthorized
	}
	if err := l.state.SetTokenPaused(string(l.asset), paused); err != nil {
		return err
	}
	l.emit(events.TokenPauseChanged{Asset: string(l.asset), Paused: paused})
	return nil
}
