package core

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/events"
	"tokensale/core/types"
	"tokensale/native/crowdsale"
	"tokensale/native/lockvault"
	"tokensale/native/token"
	"tokensale/state"
	"tokensale/storage"
)

// maxRecentEvents bounds the in-memory event window served over RPC.
const maxRecentEvents = 256

// Config selects the deployment identities and the lock strategy.
type Config struct {
	Admin        common.Address
	SaleAccount  common.Address
	VaultAccount common.Address
	Strategy     crowdsale.Strategy
	Params       crowdsale.Params
}

// Node owns all ledger state and serializes every mutating operation: one
// write lock around each public call gives the strict total order the
// accounting invariants assume. Reads run against a consistent snapshot under
// the read lock.
type Node struct {
	mu      sync.RWMutex
	manager *state.Manager
	payment *token.Ledger
	sale    *token.Ledger
	locker  lockvault.Locker
	lockEng *lockvault.Engine
	engine  *crowdsale.Engine
	cfg     Config

	eventMu  sync.Mutex
	recent   []*types.Event
	external events.Emitter
}

type typedEvent interface {
	events.Event
	Event() *types.Event
}

// Emit implements events.Emitter: the node keeps a bounded window of recent
// events for the RPC query surface and fans out to any external emitter.
func (n *Node) Emit(evt events.Event) {
	n.eventMu.Lock()
	if te, ok := evt.(typedEvent); ok {
		n.recent = append(n.recent, te.Event())
		if len(n.recent) > maxRecentEvents {
			n.recent = n.recent[len(n.recent)-maxRecentEvents:]
		}
	}
	external := n.external
	n.eventMu.Unlock()
	if external != nil {
		external.Emit(evt)
	}
}

// SetExternalEmitter forwards all module events to an additional sink.
func (n *Node) SetExternalEmitter(emitter events.Emitter) {
	n.eventMu.Lock()
	n.external = emitter
	n.eventMu.Unlock()
}

// RecentEvents returns a copy of the bounded recent-event window.
func (n *Node) RecentEvents() []*types.Event {
	n.eventMu.Lock()
	defer n.eventMu.Unlock()
	out := make([]*types.Event, len(n.recent))
	copy(out, n.recent)
	return out
}

// NewNode builds the full engine stack over the given storage backend and
// runs genesis if the sale asset has not been minted yet.
func NewNode(db storage.Database, cfg Config) (*Node, error) {
	if cfg.Admin == (common.Address{}) {
		return nil, errors.New("core: admin address required")
	}
	if cfg.SaleAccount == (common.Address{}) {
		return nil, errors.New("core: sale account required")
	}
	if !cfg.Strategy.Valid() {
		return nil, errors.New("core: unknown lock strategy")
	}
	if cfg.Strategy == crowdsale.StrategyVault && cfg.VaultAccount == (common.Address{}) {
		return nil, errors.New("core: vault account required for vault strategy")
	}
	manager, err := state.NewManager(db)
	if err != nil {
		return nil, err
	}
	payment, err := token.NewLedger(token.AssetPayment, manager, cfg.Admin)
	if err != nil {
		return nil, err
	}
	sale, err := token.NewLedger(token.AssetSale, manager, cfg.Admin)
	if err != nil {
		return nil, err
	}
	lockEng, err := lockvault.NewEngine(manager, cfg.SaleAccount)
	if err != nil {
		return nil, err
	}

	node := &Node{
		manager: manager,
		payment: payment,
		sale:    sale,
		lockEng: lockEng,
		cfg:     cfg,
	}

	switch cfg.Strategy {
	case crowdsale.StrategyVault:
		vault, err := lockvault.NewVault(lockEng, cfg.VaultAccount, sale)
		if err != nil {
			return nil, err
		}
		node.locker = vault
	case crowdsale.StrategyEmbedded:
		embedded, err := lockvault.NewEmbedded(lockEng, sale)
		if err != nil {
			return nil, err
		}
		sale.SetGuard(embedded)
		node.locker = embedded
	}

	engine, err := crowdsale.NewEngine(manager, payment, sale, node.locker, cfg.Strategy, cfg.SaleAccount, cfg.Admin, cfg.VaultAccount, cfg.Params)
	if err != nil {
		return nil, err
	}
	node.engine = engine

	payment.SetEmitter(node)
	sale.SetEmitter(node)
	lockEng.SetEmitter(node)
	engine.SetEmitter(node)

	if err := node.genesis(); err != nil {
		return nil, err
	}
	return node, nil
}

// genesis mints the fixed sale-asset supply to the admin, funds the
// controller with the sale allocation and seeds the sale state with the
// configured rate. Idempotent across restarts; a persisted rate always wins
// over configuration.
func (n *Node) genesis() error {
	supply, err := n.sale.TotalSupply()
	if err != nil {
		return err
	}
	if supply.Sign() > 0 {
		return nil
	}
	if err := n.sale.Mint(n.cfg.Admin, n.cfg.Admin, crowdsale.TotalSupply); err != nil {
		return err
	}
	if err := n.sale.Transfer(n.cfg.Admin, n.cfg.SaleAccount, crowdsale.SaleAllocation); err != nil {
		return err
	}
	sale, err := n.manager.SaleState()
	if err != nil {
		return err
	}
	sale.Rate = n.cfg.Params.Normalize().Rate
	return n.manager.PutSaleState(sale)
}

// SetNowFunc overrides the time source of every engine. Intended for tests
// and simulations.
func (n *Node) SetNowFunc(now func() int64) {
	n.lockEng.SetNowFunc(now)
	n.engine.SetNowFunc(now)
}

// --- sale operations ---

func (n *Node) StartSale(caller common.Address) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.StartSale(caller)
}

func (n *Node) EndSale(caller common.Address) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.EndSale(caller)
}

func (n *Node) EmergencyStop(caller common.Address) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.EmergencyStop(caller)
}

func (n *Node) SetRate(caller common.Address, rate uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.SetRate(caller, rate)
}

func (n *Node) Purchase(buyer common.Address, paymentAmount *big.Int) (*crowdsale.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Purchase(buyer, paymentAmount)
}

func (n *Node) WithdrawPayment(caller common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.WithdrawPayment(caller)
}

func (n *Node) WithdrawUnsoldTokens(caller common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.WithdrawUnsoldTokens(caller)
}

// --- lock ledger operations ---

func (n *Node) ClaimAll(beneficiary common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.locker.ClaimAll(beneficiary)
}

func (n *Node) Claim(beneficiary common.Address, ids []uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.locker.Claim(beneficiary, ids)
}

// --- token operations ---

func (n *Node) ledgerFor(asset token.Asset) (*token.Ledger, error) {
	switch asset {
	case token.AssetPayment:
		return n.payment, nil
	case token.AssetSale:
		return n.sale, nil
	default:
		return nil, token.ErrInvalidAsset
	}
}

func (n *Node) Transfer(asset token.Asset, from, to common.Address, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return err
	}
	return ledger.Transfer(from, to, amount)
}

func (n *Node) Approve(asset token.Asset, owner, spender common.Address, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return err
	}
	return ledger.Approve(owner, spender, amount)
}

func (n *Node) TransferFrom(asset token.Asset, spender, from, to common.Address, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return err
	}
	return ledger.TransferFrom(spender, from, to, amount)
}

func (n *Node) Mint(asset token.Asset, caller, to common.Address, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return err
	}
	return ledger.Mint(caller, to, amount)
}

func (n *Node) SetPaused(asset token.Asset, caller common.Address, paused bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return err
	}
	return ledger.SetPaused(caller, paused)
}

// --- read-only queries ---

func (n *Node) BalanceOf(asset token.Asset, addr common.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return nil, err
	}
	return ledger.BalanceOf(addr)
}

func (n *Node) Allowance(asset token.Asset, owner, spender common.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return nil, err
	}
	return ledger.Allowance(owner, spender)
}

func (n *Node) TotalSupply(asset token.Asset) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ledger, err := n.ledgerFor(asset)
	if err != nil {
		return nil, err
	}
	return ledger.TotalSupply()
}

func (n *Node) SaleStatus() (*crowdsale.SaleState, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.Status()
}

func (n *Node) Rate() (uint64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.Rate()
}

func (n *Node) PurchaseRecordOf(addr common.Address) (*crowdsale.PurchaseRecord, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.PurchaseRecordOf(addr)
}

func (n *Node) PreviewSaleAmount(payment *big.Int) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.PreviewSaleAmount(payment)
}

func (n *Node) PreviewPaymentAmount(sale *big.Int) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.PreviewPaymentAmount(sale)
}

func (n *Node) SchedulesOf(addr common.Address) ([]lockvault.Schedule, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.locker.SchedulesOf(addr)
}

func (n *Node) LockedBalance(addr common.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.locker.LockedBalance(addr)
}

func (n *Node) Claimable(addr common.Address) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.locker.Claimable(addr)
}

func (n *Node) RemainingLock(addr common.Address) (int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lockEng.RemainingLock(addr)
}
