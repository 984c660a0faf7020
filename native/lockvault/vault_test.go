package lockvault

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type mockToken struct {
	balances map[common.Address]*big.Int
	spendErr error
}

func newMockToken() *mockToken {
	return &mockToken{balances: make(map[common.Address]*big.Int)}
}

func (m *mockToken) credit(addr common.Address, amount int64) {
	m.balances[addr] = big.NewInt(amount)
}

func (m *mockToken) BalanceOf(addr common.Address) (*big.Int, error) {
	if balance, ok := m.balances[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockToken) CanSpend(from common.Address, amount *big.Int) error {
	return m.spendErr
}

func (m *mockToken) Transfer(from, to common.Address, amount *big.Int) error {
	if m.spendErr != nil {
		return m.spendErr
	}
	fromBal, _ := m.BalanceOf(from)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("mock token: insufficient balance")
	}
	toBal, _ := m.BalanceOf(to)
	m.balances[from] = fromBal.Sub(fromBal, amount)
	m.balances[to] = toBal.Add(toBal, amount)
	return nil
}

func TestVaultClaimAllTransfers(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	vaultAddr := testAddress(0x77)
	tokenLedger := newMockToken()
	vault, err := NewVault(engine, vaultAddr, tokenLedger)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}

	beneficiary := testAddress(0x01)
	tokenLedger.credit(vaultAddr, 1000)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(1000), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}

	engine.SetNowFunc(func() int64 { return 3601 })
	total, err := vault.ClaimAll(beneficiary)
	if err != nil {
		t.Fatalf("ClaimAll: %v", err)
	}
	if total.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claimed = %s, want 1000", total)
	}
	got, _ := tokenLedger.BalanceOf(beneficiary)
	if got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("beneficiary balance = %s, want 1000", got)
	}
	vaultBal, _ := tokenLedger.BalanceOf(vaultAddr)
	if vaultBal.Sign() != 0 {
		t.Fatalf("vault balance = %s, want 0", vaultBal)
	}
}

func TestVaultClaimBeforeUnlock(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	vaultAddr := testAddress(0x77)
	tokenLedger := newMockToken()
	vault, err := NewVault(engine, vaultAddr, tokenLedger)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	beneficiary := testAddress(0x01)
	tokenLedger.credit(vaultAddr, 500)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(500), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := vault.ClaimAll(beneficiary); !errors.Is(err, ErrZeroClaim) {
		t.Fatalf("expected ErrZeroClaim, got %v", err)
	}
	got, _ := tokenLedger.BalanceOf(beneficiary)
	if got.Sign() != 0 {
		t.Fatalf("beneficiary received %s before unlock", got)
	}
}

func TestVaultClaimBlockedSpendKeepsSchedules(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	vaultAddr := testAddress(0x77)
	tokenLedger := newMockToken()
	vault, err := NewVault(engine, vaultAddr, tokenLedger)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	beneficiary := testAddress(0x01)
	tokenLedger.credit(vaultAddr, 1000)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(1000), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 3601 })

	// The token ledger refuses spends out of the vault, as it would while
	// paused. The claim must fail with the schedule still claimable.
	blocked := errors.New("mock token: spends blocked")
	tokenLedger.spendErr = blocked
	if _, err := vault.ClaimAll(beneficiary); !errors.Is(err, blocked) {
		t.Fatalf("expected blocked-spend error, got %v", err)
	}
	claimable, err := vault.Claimable(beneficiary)
	if err != nil {
		t.Fatalf("Claimable: %v", err)
	}
	if claimable.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claimable after failed claim = %s, want 1000", claimable)
	}
	got, _ := tokenLedger.BalanceOf(beneficiary)
	if got.Sign() != 0 {
		t.Fatalf("beneficiary received %s on failed claim", got)
	}

	// Same for the by-index path.
	if _, err := vault.Claim(beneficiary, []uint64{0}); !errors.Is(err, blocked) {
		t.Fatalf("expected blocked-spend error on Claim, got %v", err)
	}
	claimable, _ = vault.Claimable(beneficiary)
	if claimable.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claimable after failed index claim = %s, want 1000", claimable)
	}

	// Lifting the block releases the full amount.
	tokenLedger.spendErr = nil
	total, err := vault.ClaimAll(beneficiary)
	if err != nil {
		t.Fatalf("ClaimAll after unblock: %v", err)
	}
	if total.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claimed = %s, want 1000", total)
	}
	got, _ = tokenLedger.BalanceOf(beneficiary)
	if got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("beneficiary balance = %s, want 1000", got)
	}
}

func TestVaultClaimUnderfundedKeepsSchedules(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	vaultAddr := testAddress(0x77)
	tokenLedger := newMockToken()
	vault, err := NewVault(engine, vaultAddr, tokenLedger)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	beneficiary := testAddress(0x01)
	tokenLedger.credit(vaultAddr, 400)
	if err := engine.CreateSchedule(controller, beneficiary, big.NewInt(1000), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 3601 })

	if _, err := vault.ClaimAll(beneficiary); !errors.Is(err, ErrVaultUnderfunded) {
		t.Fatalf("expected ErrVaultUnderfunded, got %v", err)
	}
	claimable, _ := vault.Claimable(beneficiary)
	if claimable.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("claimable after failed claim = %s, want 1000", claimable)
	}
	vaultBal, _ := tokenLedger.BalanceOf(vaultAddr)
	if vaultBal.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("vault balance = %s, want 400", vaultBal)
	}
}

func TestEmbeddedGuard(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	tokenLedger := newMockToken()
	embedded, err := NewEmbedded(engine, tokenLedger)
	if err != nil {
		t.Fatalf("NewEmbedded: %v", err)
	}

	holder := testAddress(0x01)
	tokenLedger.credit(holder, 1800)
	if err := engine.CreateSchedule(controller, holder, big.NewInt(1200), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.CreateSchedule(controller, holder, big.NewInt(600), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Everything is locked: any positive spend must be rejected.
	if err := embedded.CheckTransfer(holder, big.NewInt(1)); !errors.Is(err, ErrTransferExceedsUnlocked) {
		t.Fatalf("expected ErrTransferExceedsUnlocked, got %v", err)
	}

	// After unlock the full balance is spendable.
	engine.SetNowFunc(func() int64 { return 3601 })
	if err := embedded.CheckTransfer(holder, big.NewInt(1800)); err != nil {
		t.Fatalf("CheckTransfer after unlock: %v", err)
	}
	if err := embedded.CheckTransfer(holder, big.NewInt(1801)); err == nil {
		t.Fatalf("expected failure above balance")
	}
}

func TestEmbeddedGuardExactUnlockedAmount(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	tokenLedger := newMockToken()
	embedded, err := NewEmbedded(engine, tokenLedger)
	if err != nil {
		t.Fatalf("NewEmbedded: %v", err)
	}
	holder := testAddress(0x01)
	// 1000 total, 400 locked: exactly 600 must be spendable.
	tokenLedger.credit(holder, 1000)
	if err := engine.CreateSchedule(controller, holder, big.NewInt(400), 0, 3600); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := embedded.CheckTransfer(holder, big.NewInt(600)); err != nil {
		t.Fatalf("exact unlocked spend rejected: %v", err)
	}
	if err := embedded.CheckTransfer(holder, big.NewInt(601)); !errors.Is(err, ErrTransferExceedsUnlocked) {
		t.Fatalf("expected ErrTransferExceedsUnlocked, got %v", err)
	}
}

func TestEmbeddedClaimIsBookkeepingOnly(t *testing.T) {
	engine, _, controller := newTestEngine(t, 0)
	tokenLedger := newMockToken()
	embedded, err := NewEmbedded(engine, tokenLedger)
	if err != nil {
		t.Fatalf("NewEmbedded: %v", err)
	}
	holder := testAddress(0x01)
	tokenLedger.credit(holder, 100)
	if err := engine.CreateSchedule(controller, holder, big.NewInt(100), 0, 10); err != nil {
		t.Fatalf("create: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 11 })

	total, err := embedded.ClaimAll(holder)
	if err != nil {
		t.Fatalf("ClaimAll: %v", err)
	}
	if total.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("claimed = %s, want 100", total)
	}
	// Balance does not change; the claim only lifts the restriction.
	balance, _ := tokenLedger.BalanceOf(holder)
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance = %s, want 100", balance)
	}
	if err := embedded.CheckTransfer(holder, big.NewInt(100)); err != nil {
		t.Fatalf("spend after claim rejected: %v", err)
	}
}
