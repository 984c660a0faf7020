package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	TypeSaleStarted          = "crowdsale.started"
	TypeSaleEnded            = "crowdsale.ended"
	TypeSaleEmergencyStopped = "crowdsale.emergency_stopped"
	TypeSaleRateUpdated      = "crowdsale.rate_updated"
	TypeSalePurchase         = "crowdsale.purchase"
	TypeSaleWithdrawal       = "crowdsale.withdrawal"
)

type SaleStarted struct {
	StartTime int64
}

func (SaleStarted) EventType() string { return TypeSaleStarted }

func (e SaleStarted) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleStarted,
		Attributes: map[string]string{
			"startTime": intToString(e.StartTime),
		},
	}
}

type SaleEnded struct {
	EndTime   int64
	Emergency bool
}

func (e SaleEnded) EventType() string {
	if e.Emergency {
		return TypeSaleEmergencyStopped
	}
	return TypeSaleEnded
}

func (e SaleEnded) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"endTime": intToString(e.EndTime),
		},
	}
}

type SaleRateUpdated struct {
	OldRate uint64
	NewRate uint64
}

func (SaleRateUpdated) EventType() string { return TypeSaleRateUpdated }

func (e SaleRateUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleRateUpdated,
		Attributes: map[string]string{
			"oldRate": uintToString(e.OldRate),
			"newRate": uintToString(e.NewRate),
		},
	}
}

type SalePurchase struct {
	Buyer         common.Address
	PaymentAmount *big.Int
	SaleAmount    *big.Int
	Rate          uint64
	Unlock        int64
	Timestamp     int64
}

func (SalePurchase) EventType() string { return TypeSalePurchase }

func (e SalePurchase) Event() *types.Event {
	return &types.Event{
		Type: TypeSalePurchase,
		Attributes: map[string]string{
			"buyer":         e.Buyer.Hex(),
			"paymentAmount": formatAmount(e.PaymentAmount),
			"saleAmount":    formatAmount(e.SaleAmount),
			"rate":          uintToString(e.Rate),
			"unlock":        intToString(e.Unlock),
			"timestamp":     intToString(e.Timestamp),
		},
	}
}

type SaleWithdrawal struct {
	Asset  string
	To     common.Address
	Amount *big.Int
}

func (SaleWithdrawal) EventType() string { return TypeSaleWithdrawal }

func (e SaleWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleWithdrawal,
		Attributes: map[string]string{
			"asset":  e.Asset,
			"to":     e.To.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}
