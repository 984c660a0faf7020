package crowdsale

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/events"
	"tokensale/native/lockvault"
)

var (
	ErrNilState               = errors.New("crowdsale: state not configured")
	ErrNilLedger              = errors.New("crowdsale: token ledgers not configured")
	ErrNilLocker              = errors.New("crowdsale: lock ledger not configured")
	ErrUnauthorized           = errors.New("crowdsale: unauthorized")
	ErrAlreadyActive          = errors.New("crowdsale: sale already active")
	ErrSaleEnded              = errors.New("crowdsale: sale already ended")
	ErrSaleNotActive          = errors.New("crowdsale: sale not active")
	ErrSaleNotEnded           = errors.New("crowdsale: sale not ended")
	ErrZeroRate               = errors.New("crowdsale: rate must be positive")
	ErrAmountTooSmall         = errors.New("crowdsale: amount below minimum purchase")
	ErrAmountTooLarge         = errors.New("crowdsale: amount above maximum purchase")
	ErrInsufficientAllowance  = errors.New("crowdsale: insufficient payment allowance")
	ErrInsufficientBalance    = errors.New("crowdsale: insufficient payment balance")
	ErrInsufficientSaleSupply = errors.New("crowdsale: sale supply exhausted")
	ErrNothingToWithdraw      = errors.New("crowdsale: nothing to withdraw")
)

// Strategy selects where purchased tokens are held during the lock period.
type Strategy string

const (
	// StrategyVault parks purchased tokens in the lock vault until claimed.
	StrategyVault Strategy = "vault"
	// StrategyEmbedded delivers tokens to the buyer immediately and relies on
	// the sale ledger's transfer guard to keep the locked portion in place.
	StrategyEmbedded Strategy = "embedded"
)

func (s Strategy) Valid() bool {
	return s == StrategyVault || s == StrategyEmbedded
}

// State is the persistence slice the sale controller needs.
type State interface {
	SaleState() (*SaleState, error)
	PutSaleState(*SaleState) error
	PurchaseRecord(addr common.Address) (*PurchaseRecord, bool, error)
	PutPurchaseRecord(addr common.Address, record *PurchaseRecord) error
}

// PaymentLedger is the payment-asset surface used to pull buyer funds and pay
// out the raised total.
type PaymentLedger interface {
	BalanceOf(addr common.Address) (*big.Int, error)
	Allowance(owner, spender common.Address) (*big.Int, error)
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
}

// SaleLedger is the sale-asset surface used to deliver purchased tokens.
// CanSpend must report any condition (pause switch, transfer guard) that would
// make a Transfer out of the controller's custody fail, so the engine can
// reject a purchase before mutating anything.
type SaleLedger interface {
	BalanceOf(addr common.Address) (*big.Int, error)
	CanSpend(from common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
}

// Receipt summarises a successful purchase for the caller.
type Receipt struct {
	PaymentAmount *big.Int
	SaleAmount    *big.Int
	Rate          uint64
	Start         int64
	Unlock        int64
}

// Engine gates and executes purchases and administrative sale operations. All
// mutating entry points are serialized by the owning state manager; each call
// either fully completes or fails with no state change.
type Engine struct {
	state    State
	payment  PaymentLedger
	sale     SaleLedger
	locker   lockvault.Locker
	strategy Strategy

	account common.Address // controller custody: holds sale allocation and raised funds
	admin   common.Address
	vault   common.Address // destination of purchased tokens under StrategyVault

	params  Params
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine wires a sale controller. account is the controller's custody
// address; vault is only consulted under StrategyVault.
func NewEngine(state State, payment PaymentLedger, sale SaleLedger, locker lockvault.Locker, strategy Strategy, account, admin, vault common.Address, params Params) (*Engine, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if payment == nil || sale == nil {
		return nil, ErrNilLedger
	}
	if locker == nil {
		return nil, ErrNilLocker
	}
	if !strategy.Valid() {
		return nil, errors.New("crowdsale: unknown lock strategy")
	}
	return &Engine{
		state:    state,
		payment:  payment,
		sale:     sale,
		locker:   locker,
		strategy: strategy,
		account:  account,
		admin:    admin,
		vault:    vault,
		params:   params.Normalize(),
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
	}, nil
}

// Account returns the controller's custody address.
func (e *Engine) Account() common.Address { return e.account }

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

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) requireAdmin(caller common.Address) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return nil
}

// StartSale activates the sale and records its start time. Admin only.
func (e *Engine) StartSale(caller common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	sale, err := e.state.SaleState()
	if err != nil {
		return err
	}
	sale = sale.Normalize()
	if sale.Active {
		return ErrAlreadyActive
	}
	if sale.Ended {
		return ErrSaleEnded
	}
	sale.Active = true
	sale.StartTime = e.nowFn()
	if err := e.state.PutSaleState(sale); err != nil {
		return err
	}
	e.emit(events.SaleStarted{StartTime: sale.StartTime})
	return nil
}

func (e *Engine) endSale(caller common.Address, emergency bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	sale, err := e.state.SaleState()
	if err != nil {
		return err
	}
	sale = sale.Normalize()
	if !sale.Active {
		return ErrSaleNotActive
	}
	sale.Active = false
	sale.Ended = true
	sale.EndTime = e.nowFn()
	if err := e.state.PutSaleState(sale); err != nil {
		return err
	}
	e.emit(events.SaleEnded{EndTime: sale.EndTime, Emergency: emergency})
	return nil
}

// EndSale deactivates the sale and records its end time. A second call fails
// explicitly rather than succeeding silently. Admin only.
func (e *Engine) EndSale(caller common.Address) error {
	return e.endSale(caller, false)
}

// EmergencyStop is the administrative override: same end state as EndSale,
// usable at any point while the sale is active.
func (e *Engine) EmergencyStop(caller common.Address) error {
	return e.endSale(caller, true)
}

// SetRate replaces the exchange rate for subsequent purchases. Existing
// schedules keep the amounts computed at their own purchase time. Admin only.
func (e *Engine) SetRate(caller common.Address, rate uint64) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if rate == 0 {
		return ErrZeroRate
	}
	sale, err := e.state.SaleState()
	if err != nil {
		return err
	}
	sale = sale.Normalize()
	old := sale.Rate
	sale.Rate = rate
	if err := e.state.PutSaleState(sale); err != nil {
		return err
	}
	e.emit(events.SaleRateUpdated{OldRate: old, NewRate: rate})
	return nil
}

// Rate returns the current exchange rate.
func (e *Engine) Rate() (uint64, error) {
	sale, err := e.state.SaleState()
	if err != nil {
		return 0, err
	}
	return sale.Normalize().Rate, nil
}

// Status returns a copy of the aggregate sale state.
func (e *Engine) Status() (*SaleState, error) {
	sale, err := e.state.SaleState()
	if err != nil {
		return nil, err
	}
	return sale.Normalize().Clone(), nil
}

// PurchaseRecordOf returns a copy of the account's cumulative purchase
// record. Accounts that never purchased yield a zero record.
func (e *Engine) PurchaseRecordOf(addr common.Address) (*PurchaseRecord, error) {
	record, _, err := e.state.PurchaseRecord(addr)
	if err != nil {
		return nil, err
	}
	return record.Normalize().Clone(), nil
}

// PreviewSaleAmount quotes the sale amount a payment amount would buy at the
// current rate, without mutating state.
func (e *Engine) PreviewSaleAmount(payment *big.Int) (*big.Int, error) {
	rate, err := e.Rate()
	if err != nil {
		return nil, err
	}
	return ToSaleAmount(payment, rate)
}

// PreviewPaymentAmount quotes the payment amount a sale amount corresponds to
// at the current rate, without mutating state.
func (e *Engine) PreviewPaymentAmount(sale *big.Int) (*big.Int, error) {
	rate, err := e.Rate()
	if err != nil {
		return nil, err
	}
	return ToPaymentAmount(sale, rate)
}

func (e *Engine) purchaseDestination(buyer common.Address) common.Address {
	if e.strategy == StrategyVault {
		return e.vault
	}
	return buyer
}

// Purchase executes a buy: pulls the payment amount from the buyer, creates a
// lock schedule for the converted sale amount and moves the sale tokens to
// their lock destination. Every check runs before the first mutation so a
// failure leaves no partial state.
func (e *Engine) Purchase(buyer common.Address, paymentAmount *big.Int) (*Receipt, error) {
	if paymentAmount == nil || paymentAmount.Sign() <= 0 {
		return nil, ErrAmountTooSmall
	}
	sale, err := e.state.SaleState()
	if err != nil {
		return nil, err
	}
	sale = sale.Normalize()
	if !sale.Active {
		return nil, ErrSaleNotActive
	}
	if paymentAmount.Cmp(e.params.MinPurchase) < 0 {
		return nil, ErrAmountTooSmall
	}
	if paymentAmount.Cmp(e.params.MaxPurchase) > 0 {
		return nil, ErrAmountTooLarge
	}
	allowance, err := e.payment.Allowance(buyer, e.account)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(paymentAmount) < 0 {
		return nil, ErrInsufficientAllowance
	}
	balance, err := e.payment.BalanceOf(buyer)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(paymentAmount) < 0 {
		return nil, ErrInsufficientBalance
	}
	saleAmount, err := ToSaleAmount(paymentAmount, sale.Rate)
	if err != nil {
		return nil, err
	}
	remaining, err := e.sale.BalanceOf(e.account)
	if err != nil {
		return nil, err
	}
	if remaining.Cmp(saleAmount) < 0 {
		return nil, ErrInsufficientSaleSupply
	}
	// The token delivery is the last mutation of the purchase; reject here if
	// the sale asset's spend path would refuse it, so a paused ledger cannot
	// strand the buyer's payment behind partial state.
	if err := e.sale.CanSpend(e.account, saleAmount); err != nil {
		return nil, err
	}

	now := e.nowFn()
	unlock := now + e.params.LockDuration
	if err := e.payment.TransferFrom(e.account, buyer, e.account, paymentAmount); err != nil {
		return nil, err
	}
	record, existed, err := e.state.PurchaseRecord(buyer)
	if err != nil {
		return nil, err
	}
	record = record.Normalize()
	record.PaymentContributed = new(big.Int).Add(record.PaymentContributed, paymentAmount)
	record.SaleReceived = new(big.Int).Add(record.SaleReceived, saleAmount)
	firstPurchase := !existed || !record.Participated
	record.Participated = true
	if err := e.state.PutPurchaseRecord(buyer, record); err != nil {
		return nil, err
	}
	sale.TotalRaised = new(big.Int).Add(sale.TotalRaised, paymentAmount)
	sale.TotalSold = new(big.Int).Add(sale.TotalSold, saleAmount)
	if firstPurchase {
		sale.Participants++
	}
	if err := e.state.PutSaleState(sale); err != nil {
		return nil, err
	}
	if err := e.locker.CreateSchedule(e.account, buyer, saleAmount, now, unlock); err != nil {
		return nil, err
	}
	if err := e.sale.Transfer(e.account, e.purchaseDestination(buyer), saleAmount); err != nil {
		return nil, err
	}
	e.emit(events.SalePurchase{
		Buyer:         buyer,
		PaymentAmount: new(big.Int).Set(paymentAmount),
		SaleAmount:    saleAmount,
		Rate:          sale.Rate,
		Unlock:        unlock,
		Timestamp:     now,
	})
	return &Receipt{
		PaymentAmount: new(big.Int).Set(paymentAmount),
		SaleAmount:    saleAmount,
		Rate:          sale.Rate,
		Start:         now,
		Unlock:        unlock,
	}, nil
}

func (e *Engine) requireEnded() error {
	sale, err := e.state.SaleState()
	if err != nil {
		return err
	}
	if !sale.Normalize().Ended {
		return ErrSaleNotEnded
	}
	return nil
}

// WithdrawPayment transfers the controller's entire payment-asset custody to
// the admin once the sale has ended. A drained custody fails explicitly.
func (e *Engine) WithdrawPayment(caller common.Address) (*big.Int, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := e.requireEnded(); err != nil {
		return nil, err
	}
	balance, err := e.payment.BalanceOf(e.account)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.payment.Transfer(e.account, e.admin, balance); err != nil {
		return nil, err
	}
	e.emit(events.SaleWithdrawal{Asset: "payment", To: e.admin, Amount: balance})
	return balance, nil
}

// WithdrawUnsoldTokens returns the controller's remaining sale allocation to
// the admin once the sale has ended.
func (e *Engine) WithdrawUnsoldTokens(caller common.Address) (*big.Int, error) {
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := e.requireEnded(); err != nil {
		return nil, err
	}
	balance, err := e.sale.BalanceOf(e.account)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.sale.Transfer(e.account, e.admin, balance); err != nil {
		return nil, err
	}
	e.emit(events.SaleWithdrawal{Asset: "sale", To: e.admin, Amount: balance})
	return balance, nil
}
