package lockvault

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/events"
)

var (
	ErrNilState           = errors.New("lockvault: state not configured")
	ErrOnlyController     = errors.New("lockvault: only the sale controller may create schedules")
	ErrInvalidBeneficiary = errors.New("lockvault: invalid beneficiary")
	ErrZeroAmount         = errors.New("lockvault: amount must be positive")
	ErrInvalidWindow      = errors.New("lockvault: unlock before start")
	ErrZeroClaim          = errors.New("lockvault: nothing claimable")
	ErrBadID              = errors.New("lockvault: schedule id out of range")
	ErrNotUnlocked        = errors.New("lockvault: schedule still locked")
	ErrNothingToClaim     = errors.New("lockvault: schedule already claimed")
)

// State is the persistence slice the schedule ledger needs.
type State interface {
	LockSchedules(addr common.Address) ([]Schedule, error)
	PutLockSchedules(addr common.Address, schedules []Schedule) error
}

// Locker is the capability the sale controller programs against. Both lock
// strategies (external vault, token-embedded) satisfy it and must behave
// identically for every bookkeeping query.
type Locker interface {
	CreateSchedule(caller, beneficiary common.Address, amount *big.Int, start, unlock int64) error
	LockedBalance(addr common.Address) (*big.Int, error)
	Claimable(addr common.Address) (*big.Int, error)
	ClaimAll(beneficiary common.Address) (*big.Int, error)
	Claim(beneficiary common.Address, ids []uint64) (*big.Int, error)
	SchedulesOf(addr common.Address) ([]Schedule, error)
}

// Engine owns the per-account schedule lists and the claim bookkeeping shared
// by both strategies. Release of funds is strategy-specific and layered on
// top by Vault and Embedded.
type Engine struct {
	state      State
	controller common.Address
	emitter    events.Emitter
	nowFn      func() int64
}

// NewEngine creates a schedule engine. Only the controller address may create
// schedules.
func NewEngine(state State, controller common.Address) (*Engine, error) {
	if state == nil {
		return nil, ErrNilState
	}
	return &Engine{
		state:      state,
		controller: controller,
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
	}, nil
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 { return e.nowFn() }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// CreateSchedule appends a new lock schedule for the beneficiary. Schedules
// are never merged, removed or reordered afterwards.
func (e *Engine) CreateSchedule(caller, beneficiary common.Address, amount *big.Int, start, unlock int64) error {
	if caller != e.controller {
		return ErrOnlyController
	}
	if beneficiary == (common.Address{}) {
		return ErrInvalidBeneficiary
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if unlock < start {
		return ErrInvalidWindow
	}
	schedules, err := e.state.LockSchedules(beneficiary)
	if err != nil {
		return err
	}
	schedule := Schedule{
		Amount:  new(big.Int).Set(amount),
		Start:   start,
		Unlock:  unlock,
		Claimed: big.NewInt(0),
	}
	schedules = append(schedules, schedule)
	if err := e.state.PutLockSchedules(beneficiary, schedules); err != nil {
		return err
	}
	e.emit(events.ScheduleCreated{
		Beneficiary: beneficiary,
		Index:       uint64(len(schedules) - 1),
		Amount:      schedule.Amount,
		Start:       start,
		Unlock:      unlock,
	})
	return nil
}

// SchedulesOf returns deep copies of the beneficiary's schedules in creation
// order.
func (e *Engine) SchedulesOf(addr common.Address) ([]Schedule, error) {
	schedules, err := e.state.LockSchedules(addr)
	if err != nil {
		return nil, err
	}
	out := make([]Schedule, len(schedules))
	for i := range schedules {
		out[i] = schedules[i].Clone()
	}
	return out, nil
}

// LockedBalance sums the unclaimed amounts of schedules whose unlock time has
// not yet passed.
func (e *Engine) LockedBalance(addr common.Address) (*big.Int, error) {
	schedules, err := e.state.LockSchedules(addr)
	if err != nil {
		return nil, err
	}
	now := e.now()
	locked := big.NewInt(0)
	for i := range schedules {
		if now < schedules[i].Unlock {
			locked.Add(locked, schedules[i].Remaining())
		}
	}
	return locked, nil
}

// Claimable sums the unclaimed amounts of schedules whose unlock time has
// passed.
func (e *Engine) Claimable(addr common.Address) (*big.Int, error) {
	schedules, err := e.state.LockSchedules(addr)
	if err != nil {
		return nil, err
	}
	now := e.now()
	claimable := big.NewInt(0)
	for i := range schedules {
		if now >= schedules[i].Unlock {
			claimable.Add(claimable, schedules[i].Remaining())
		}
	}
	return claimable, nil
}

// RemainingLock returns the longest time until unlock across the account's
// still-locked schedules, in seconds. Zero when nothing is locked.
func (e *Engine) RemainingLock(addr common.Address) (int64, error) {
	schedules, err := e.state.LockSchedules(addr)
	if err != nil {
		return 0, err
	}
	now := e.now()
	var remaining int64
	for i := range schedules {
		if schedules[i].Remaining().Sign() == 0 {
			continue
		}
		if delta := schedules[i].Unlock - now; delta > remaining {
			remaining = delta
		}
	}
	return remaining, nil
}

// claimAll marks every unlocked, not fully claimed schedule as claimed and
// persists the mutation. A non-nil preflight runs against the claim total
// before anything is written; its error aborts the claim with the ledger
// untouched. Fails with ErrZeroClaim when nothing is claimable.
func (e *Engine) claimAll(beneficiary common.Address, preflight func(total *big.Int) error) (*big.Int, error) {
	schedules, err := e.state.LockSchedules(beneficiary)
	if err != nil {
		return nil, err
	}
	now := e.now()
	total := big.NewInt(0)
	claimed := uint64(0)
	for i := range schedules {
		if now < schedules[i].Unlock {
			continue
		}
		remaining := schedules[i].Remaining()
		if remaining.Sign() == 0 {
			continue
		}
		total.Add(total, remaining)
		schedules[i].Claimed = new(big.Int).Set(schedules[i].Amount)
		claimed++
	}
	if total.Sign() == 0 {
		return nil, ErrZeroClaim
	}
	if preflight != nil {
		if err := preflight(total); err != nil {
			return nil, err
		}
	}
	if err := e.state.PutLockSchedules(beneficiary, schedules); err != nil {
		return nil, err
	}
	e.emit(events.ScheduleClaimed{Beneficiary: beneficiary, Amount: total, Schedules: claimed})
	return total, nil
}

// claim releases the given schedule indices. Every index is validated, and a
// non-nil preflight run against the claim total, before any mutation so a
// failure leaves the ledger untouched.
func (e *Engine) claim(beneficiary common.Address, ids []uint64, preflight func(total *big.Int) error) (*big.Int, error) {
	schedules, err := e.state.LockSchedules(beneficiary)
	if err != nil {
		return nil, err
	}
	now := e.now()
	seen := make(map[uint64]struct{}, len(ids))
	total := big.NewInt(0)
	for _, id := range ids {
		if id >= uint64(len(schedules)) {
			return nil, ErrBadID
		}
		if now < schedules[id].Unlock {
			return nil, ErrNotUnlocked
		}
		if _, dup := seen[id]; dup {
			return nil, ErrNothingToClaim
		}
		seen[id] = struct{}{}
		remaining := schedules[id].Remaining()
		if remaining.Sign() == 0 {
			return nil, ErrNothingToClaim
		}
		total.Add(total, remaining)
	}
	if total.Sign() == 0 {
		return nil, ErrZeroClaim
	}
	if preflight != nil {
		if err := preflight(total); err != nil {
			return nil, err
		}
	}
	for id := range seen {
		schedules[id].Claimed = new(big.Int).Set(schedules[id].Amount)
	}
	if err := e.state.PutLockSchedules(beneficiary, schedules); err != nil {
		return nil, err
	}
	e.emit(events.ScheduleClaimed{Beneficiary: beneficiary, Amount: total, Schedules: uint64(len(seen))})
	return total, nil
}
