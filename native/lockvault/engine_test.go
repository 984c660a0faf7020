package lockvault

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type mockState struct {
	schedules map[common.Address][]Schedule
}

func newMockState() *mockState {
	return &mockState{schedules: make(map[common.Address][]Schedule)}
}

func (m *mockState) LockSchedules(addr common.Address) ([]Schedule, error) {
	stored := m.schedules[addr]
	out := make([]Schedule, len(stored))
	for i := range stored {
		out[i] = stored[i].Clone()
	}
	return out, nil
}

func (m *mockState) PutLockSchedules(addr common.Address, schedules []Schedule) error {
	stored := make([]Schedule, len(schedules))
	for i := range schedules {
		stored[i] = schedules[i].Clone()
	}
	m.schedules[addr] = stored
	return nil
}

func testAddress(fill byte) common.Address {
	var addr common.Address
	copy(addr[:], bytes.Repeat([]byte{fill}, common.AddressLength))
	return addr
}

func newTestEngine(t *testing.T, now int64) (*Engine, *mockState, common.Address) {
	t.Helper()
	state := newMockState()
	controller := testAddress(0xC0)
	engine, err := NewEngine(state, controller)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.SetNowFunc(func() int64 { return now })
	return engine, state, controller
}

func TestCreateScheduleValidation(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)

	if err := engine.CreateSchedule(testAddress(0x02), beneficiary, big.NewInt(1), 0, 1); !errors.Is(err, ErrOnlyController) {
		t.Fatalf("expected ErrOnlyController, got %v", err)
	}
	if err := engine.CreateSchedule(controller, common.Address{}, big.NewInt(1), 0, 1); !errors.Is(err, ErrInvalidBeneficiary) {
		t.Fatalf("expected ErrInvalidBeneficiary, got %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(0), 0, 1); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount, got %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(1), 10, 5); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestMultipleSchedulesAggregate(t *testing.T) {
	// Two purchases of 100 and 50 payment units at rate 12 produce schedules
	// of 1200 and 600 whole tokens.
	engine, _, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	first, _ := new(big.Int).SetString("1200000000000000000000", 10)
	second, _ := new(big.Int).SetString("600000000000000000000", 10)

	if err := engine.CreateSchedule(controller, beneficiary, first, 0, 3600); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, second, 0, 3600); err != nil {
		t.Fatalf("create second: %v", err)
	}

	schedules, err := engine.SchedulesOf(beneficiary)
	if err != nil {
		t.Fatalf("SchedulesOf: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("schedule count = %d, want 2", len(schedules))
	}

	locked, err := engine.LockedBalance(beneficiary)
	if err != nil {
		t.Fatalf("LockedBalance: %v", err)
	}
	want := new(big.Int).Add(first, second)
	if locked.Cmp(want) != 0 {
		t.Fatalf("locked = %s, want %s", locked, want)
	}

	claimable, err := engine.Claimable(beneficiary)
	if err != nil {
		t.Fatalf("Claimable: %v", err)
	}
	if claimable.Sign() != 0 {
		t.Fatalf("claimable before unlock = %s, want 0", claimable)
	}
}

func TestClaimableFlipsAtUnlock(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	amount := big.NewInt(1000)
	if err := engine.CreateSchedule(controller, beneficiary, amount, 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := int64(1800)
	engine.SetNowFunc(func() int64 { return now })
	claimable, _ := engine.Claimable(beneficiary)
	if claimable.Sign() != 0 {
		t.Fatalf("claimable at t=1800 = %s, want 0", claimable)
	}
	locked, _ := engine.LockedBalance(beneficiary)
	if locked.Cmp(amount) != 0 {
		t.Fatalf("locked at t=1800 = %s, want %s", locked, amount)
	}

	now = 3601
	claimable, _ = engine.Claimable(beneficiary)
	if claimable.Cmp(amount) != 0 {
		t.Fatalf("claimable at t=3601 = %s, want %s", claimable, amount)
	}
	locked, _ = engine.LockedBalance(beneficiary)
	if locked.Sign() != 0 {
		t.Fatalf("locked at t=3601 = %s, want 0", locked)
	}
}

func TestClaimAllMarksAndRejectsRepeat(t *testing.T) {
	engine, state, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(700), 0, 100); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(300), 0, 200); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 500 })

	total, err := engine.claimAll(beneficiary, nil)
	if err != nil {
		t.Fatalf("claimAll: %v", err)
	}
	if total.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claimed = %s, want 1000", total)
	}
	for i, schedule := range state.schedules[beneficiary] {
		if schedule.Remaining().Sign() != 0 {
			t.Fatalf("schedule %d not fully claimed", i)
		}
	}

	if _, err := engine.claimAll(beneficiary, nil); !errors.Is(err, ErrZeroClaim) {
		t.Fatalf("expected ErrZeroClaim, got %v", err)
	}
}

func TestClaimAllNothingUnlocked(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(10), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.claimAll(beneficiary, nil); !errors.Is(err, ErrZeroClaim) {
		t.Fatalf("expected ErrZeroClaim, got %v", err)
	}
}

func TestClaimByIDs(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(100), 0, 100); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(200), 0, 9000); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 500 })

	if _, err := engine.claim(beneficiary, []uint64{7}, nil); !errors.Is(err, ErrBadID) {
		t.Fatalf("expected ErrBadID, got %v", err)
	}
	if _, err := engine.claim(beneficiary, []uint64{1}, nil); !errors.Is(err, ErrNotUnlocked) {
		t.Fatalf("expected ErrNotUnlocked, got %v", err)
	}

	total, err := engine.claim(beneficiary, []uint64{0}, nil)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if total.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("claimed = %s, want 100", total)
	}
	if _, err := engine.claim(beneficiary, []uint64{0}, nil); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestClaimFailureLeavesStateUntouched(t *testing.T) {
	engine, state, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(100), 0, 100); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(200), 0, 9000); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 500 })

	// One valid id plus one still-locked id must not release anything.
	if _, err := engine.claim(beneficiary, []uint64{0, 1}, nil); !errors.Is(err, ErrNotUnlocked) {
		t.Fatalf("expected ErrNotUnlocked, got %v", err)
	}
	for i, schedule := range state.schedules[beneficiary] {
		if schedule.Claimed.Sign() != 0 {
			t.Fatalf("schedule %d mutated by failed claim", i)
		}
	}
}

func TestRemainingLock(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	beneficiary := testAddress(0x01)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(10), 0, 100); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(10), 0, 400); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 50 })
	remaining, err := engine.RemainingLock(beneficiary)
	if err != nil {
		t.Fatalf("RemainingLock: %v", err)
	}
	if remaining != 350 {
		t.Fatalf("remaining = %d, want 350", remaining)
	}
}

func TestScheduleStatusTransitions(t *testing.T) {
	schedule := Schedule{Amount: big.NewInt(10), Start: 0, Unlock: 100, Claimed: big.NewInt(0)}
	if got := schedule.Status(50); got != SchedulePending {
		t.Fatalf("status at t=50 = %s, want pending", got)
	}
	if got := schedule.Status(100); got != ScheduleUnlocked {
		t.Fatalf("status at t=100 = %s, want unlocked", got)
	}
	schedule.Claimed = big.NewInt(10)
	if got := schedule.Status(100); got != ScheduleClaimed {
		t.Fatalf("status after claim = %s, want claimed", got)
	}
}
