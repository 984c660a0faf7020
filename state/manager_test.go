package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"tokensale/core/types"
	"tokensale/native/crowdsale"
	"tokensale/native/lockvault"
	"tokensale/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(storage.NewMemDB())
	require.NoError(t, err)
	return manager
}

func testAddress(fill byte) common.Address {
	var addr common.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad big int %q", s)
	return v
}

func requireAmount(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.Zero(t, want.Cmp(got), "amount = %s, want %s", got, want)
}

func TestNewManagerNilDB(t *testing.T) {
	_, err := NewManager(nil)
	require.Error(t, err)
}

func TestAccountPersistence(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddress(0x01)

	// Unknown accounts come back as normalized zero records.
	acc, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Zero(t, acc.BalancePayment.Sign())
	require.Zero(t, acc.BalanceSale.Sign())

	want := &types.Account{
		BalancePayment: big.NewInt(1234567),
		BalanceSale:    mustBig(t, "400000000000000000000000000"),
	}
	require.NoError(t, manager.PutAccount(addr, want))
	got, err := manager.GetAccount(addr)
	require.NoError(t, err)
	requireAmount(t, want.BalancePayment, got.BalancePayment)
	requireAmount(t, want.BalanceSale, got.BalanceSale)
}

func TestAllowancePersistence(t *testing.T) {
	manager := newTestManager(t)
	owner := testAddress(0x01)
	spender := testAddress(0x02)

	got, err := manager.Allowance("USDT", owner, spender)
	require.NoError(t, err)
	require.Zero(t, got.Sign())

	require.NoError(t, manager.SetAllowance("USDT", owner, spender, big.NewInt(500)))
	got, err = manager.Allowance("USDT", owner, spender)
	require.NoError(t, err)
	requireAmount(t, big.NewInt(500), got)

	// Assets and direction are part of the key.
	got, err = manager.Allowance("HLT", owner, spender)
	require.NoError(t, err)
	require.Zero(t, got.Sign(), "allowance leaked across assets")
	got, err = manager.Allowance("USDT", spender, owner)
	require.NoError(t, err)
	require.Zero(t, got.Sign(), "allowance leaked across direction")
}

func TestPausedAndSupplyPersistence(t *testing.T) {
	manager := newTestManager(t)

	paused, err := manager.TokenPaused("HLT")
	require.NoError(t, err)
	require.False(t, paused)

	require.NoError(t, manager.SetTokenPaused("HLT", true))
	paused, err = manager.TokenPaused("HLT")
	require.NoError(t, err)
	require.True(t, paused)
	other, err := manager.TokenPaused("USDT")
	require.NoError(t, err)
	require.False(t, other, "pause leaked across assets")

	supplyIn := mustBig(t, "1000000000000000000000000000")
	require.NoError(t, manager.SetTokenSupply("HLT", supplyIn))
	supply, err := manager.TokenSupply("HLT")
	require.NoError(t, err)
	requireAmount(t, supplyIn, supply)
}

func TestLockSchedulesPersistence(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddress(0x01)

	schedules, err := manager.LockSchedules(addr)
	require.NoError(t, err)
	require.Empty(t, schedules)

	want := []lockvault.Schedule{
		{Amount: mustBig(t, "120000000000000000000"), Start: 1000, Unlock: 4600, Claimed: big.NewInt(0)},
		{Amount: big.NewInt(600), Start: 2000, Unlock: 5600, Claimed: big.NewInt(600)},
	}
	require.NoError(t, manager.PutLockSchedules(addr, want))
	got, err := manager.LockSchedules(addr)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		requireAmount(t, want[i].Amount, got[i].Amount)
		require.Equal(t, want[i].Start, got[i].Start)
		require.Equal(t, want[i].Unlock, got[i].Unlock)
		requireAmount(t, want[i].Claimed, got[i].Claimed)
	}
}

func TestSaleStatePersistence(t *testing.T) {
	manager := newTestManager(t)

	// The fresh singleton is normalized with the default rate.
	sale, err := manager.SaleState()
	require.NoError(t, err)
	require.False(t, sale.Active)
	require.False(t, sale.Ended)
	require.Equal(t, uint64(crowdsale.DefaultRate), sale.Rate)

	want := &crowdsale.SaleState{
		Active:       true,
		StartTime:    1000,
		Rate:         15,
		TotalRaised:  big.NewInt(10_000_000),
		TotalSold:    mustBig(t, "150000000000000000000"),
		Participants: 3,
	}
	require.NoError(t, manager.PutSaleState(want))
	got, err := manager.SaleState()
	require.NoError(t, err)
	require.True(t, got.Active)
	require.Equal(t, int64(1000), got.StartTime)
	require.Equal(t, uint64(15), got.Rate)
	require.Equal(t, uint64(3), got.Participants)
	requireAmount(t, want.TotalRaised, got.TotalRaised)
	requireAmount(t, want.TotalSold, got.TotalSold)
}

func TestPurchaseRecordPersistence(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddress(0x01)

	_, existed, err := manager.PurchaseRecord(addr)
	require.NoError(t, err)
	require.False(t, existed)

	want := &crowdsale.PurchaseRecord{
		PaymentContributed: big.NewInt(10_000_000),
		SaleReceived:       mustBig(t, "120000000000000000000"),
		Participated:       true,
	}
	require.NoError(t, manager.PutPurchaseRecord(addr, want))
	got, existed, err := manager.PurchaseRecord(addr)
	require.NoError(t, err)
	require.True(t, existed)
	requireAmount(t, want.PaymentContributed, got.PaymentContributed)
	requireAmount(t, want.SaleReceived, got.SaleReceived)
	require.True(t, got.Participated)
}
