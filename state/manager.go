package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"tokensale/core/types"
	"tokensale/native/crowdsale"
	"tokensale/native/lockvault"
	"tokensale/storage"
)

var (
	accountPrefix   = []byte("account/")
	allowancePrefix = []byte("token/allowance/")
	pausedPrefix    = []byte("token/paused/")
	supplyPrefix    = []byte("token/supply/")
	schedulesPrefix = []byte("lock/schedules/")
	recordPrefix    = []byte("sale/record/")
	saleStateKey    = []byte("sale/state")
)

// Manager persists all ledger state in a key-value store. Every method is
// safe for concurrent use; the owning node serializes whole operations so
// multi-key mutations never interleave.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager wraps a storage backend.
func NewManager(db storage.Database) (*Manager, error) {
	if db == nil {
		return nil, errors.New("state: nil database")
	}
	return &Manager{db: db}, nil
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

func addrKey(prefix []byte, addr common.Address) []byte {
	return append(append([]byte(nil), prefix...), addr.Bytes()...)
}

func assetKey(prefix []byte, asset string) []byte {
	return append(append([]byte(nil), prefix...), asset...)
}

func allowanceKey(asset string, owner, spender common.Address) []byte {
	key := append(append([]byte(nil), allowancePrefix...), asset...)
	key = append(key, '/')
	key = append(key, owner.Bytes()...)
	return append(key, spender.Bytes()...)
}

// RLP cannot encode signed integers or raw big.Int pointers in the shapes we
// keep in memory, so every record has a stored mirror using decimal strings
// and uint64 timestamps.

func encodeAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodeAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("state: invalid stored amount %q", s)
	}
	return v, nil
}

type storedAccount struct {
	BalancePayment string
	BalanceSale    string
}

type storedSchedule struct {
	Amount  string
	Start   uint64
	Unlock  uint64
	Claimed string
}

type storedSaleState struct {
	Active       bool
	Ended        bool
	StartTime    uint64
	EndTime      uint64
	Rate         uint64
	TotalRaised  string
	TotalSold    string
	Participants uint64
}

type storedPurchaseRecord struct {
	PaymentContributed string
	SaleReceived       string
	Participated       bool
}

// --- token.State ---

func (m *Manager) GetAccount(addr common.Address) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedAccount
	ok, err := m.get(addrKey(accountPrefix, addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).Normalize(), nil
	}
	payment, err := decodeAmount(stored.BalancePayment)
	if err != nil {
		return nil, err
	}
	sale, err := decodeAmount(stored.BalanceSale)
	if err != nil {
		return nil, err
	}
	return &types.Account{BalancePayment: payment, BalanceSale: sale}, nil
}

func (m *Manager) PutAccount(addr common.Address, acc *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc = acc.Normalize()
	return m.put(addrKey(accountPrefix, addr), &storedAccount{
		BalancePayment: encodeAmount(acc.BalancePayment),
		BalanceSale:    encodeAmount(acc.BalanceSale),
	})
}

func (m *Manager) Allowance(asset string, owner, spender common.Address) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored string
	ok, err := m.get(allowanceKey(asset, owner, spender), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return decodeAmount(stored)
}

func (m *Manager) SetAllowance(asset string, owner, spender common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(allowanceKey(asset, owner, spender), encodeAmount(amount))
}

func (m *Manager) TokenPaused(asset string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var paused bool
	ok, err := m.get(assetKey(pausedPrefix, asset), &paused)
	if err != nil || !ok {
		return false, err
	}
	return paused, nil
}

func (m *Manager) SetTokenPaused(asset string, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(assetKey(pausedPrefix, asset), paused)
}

func (m *Manager) TokenSupply(asset string) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored string
	ok, err := m.get(assetKey(supplyPrefix, asset), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return decodeAmount(stored)
}

func (m *Manager) SetTokenSupply(asset string, supply *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(assetKey(supplyPrefix, asset), encodeAmount(supply))
}

// --- lockvault.State ---

func (m *Manager) LockSchedules(addr common.Address) ([]lockvault.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored []storedSchedule
	ok, err := m.get(addrKey(schedulesPrefix, addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	schedules := make([]lockvault.Schedule, len(stored))
	for i, s := range stored {
		amount, err := decodeAmount(s.Amount)
		if err != nil {
			return nil, err
		}
		claimed, err := decodeAmount(s.Claimed)
		if err != nil {
			return nil, err
		}
		schedules[i] = lockvault.Schedule{
			Amount:  amount,
			Start:   int64(s.Start),
			Unlock:  int64(s.Unlock),
			Claimed: claimed,
		}
	}
	return schedules, nil
}

func (m *Manager) PutLockSchedules(addr common.Address, schedules []lockvault.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]storedSchedule, len(schedules))
	for i := range schedules {
		s := schedules[i].Clone()
		stored[i] = storedSchedule{
			Amount:  encodeAmount(s.Amount),
			Start:   uint64(s.Start),
			Unlock:  uint64(s.Unlock),
			Claimed: encodeAmount(s.Claimed),
		}
	}
	return m.put(addrKey(schedulesPrefix, addr), stored)
}

// --- crowdsale.State ---

func (m *Manager) SaleState() (*crowdsale.SaleState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedSaleState
	ok, err := m.get(saleStateKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&crowdsale.SaleState{}).Normalize(), nil
	}
	raised, err := decodeAmount(stored.TotalRaised)
	if err != nil {
		return nil, err
	}
	sold, err := decodeAmount(stored.TotalSold)
	if err != nil {
		return nil, err
	}
	return &crowdsale.SaleState{
		Active:       stored.Active,
		Ended:        stored.Ended,
		StartTime:    int64(stored.StartTime),
		EndTime:      int64(stored.EndTime),
		Rate:         stored.Rate,
		TotalRaised:  raised,
		TotalSold:    sold,
		Participants: stored.Participants,
	}, nil
}

func (m *Manager) PutSaleState(sale *crowdsale.SaleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale = sale.Normalize()
	return m.put(saleStateKey, &storedSaleState{
		Active:       sale.Active,
		Ended:        sale.Ended,
		StartTime:    uint64(sale.StartTime),
		EndTime:      uint64(sale.EndTime),
		Rate:         sale.Rate,
		TotalRaised:  encodeAmount(sale.TotalRaised),
		TotalSold:    encodeAmount(sale.TotalSold),
		Participants: sale.Participants,
	})
}

func (m *Manager) PurchaseRecord(addr common.Address) (*crowdsale.PurchaseRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedPurchaseRecord
	ok, err := m.get(addrKey(recordPrefix, addr), &stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return (&crowdsale.PurchaseRecord{}).Normalize(), false, nil
	}
	contributed, err := decodeAmount(stored.PaymentContributed)
	if err != nil {
		return nil, false, err
	}
	received, err := decodeAmount(stored.SaleReceived)
	if err != nil {
		return nil, false, err
	}
	return &crowdsale.PurchaseRecord{
		PaymentContributed: contributed,
		SaleReceived:       received,
		Participated:       stored.Participated,
	}, true, nil
}

func (m *Manager) PutPurchaseRecord(addr common.Address, record *crowdsale.PurchaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record = record.Normalize()
	return m.put(addrKey(recordPrefix, addr), &storedPurchaseRecord{
		PaymentContributed: encodeAmount(record.PaymentContributed),
		SaleReceived:       encodeAmount(record.SaleReceived),
		Participated:       record.Participated,
	})
}
