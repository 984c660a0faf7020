package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	TypeScheduleCreated = "lockvault.schedule_created"
	TypeScheduleClaimed = "lockvault.claimed"
)

type ScheduleCreated struct {
	Beneficiary common.Address
	Index       uint64
	Amount      *big.Int
	Start       int64
	Unlock      int64
}

func (ScheduleCreated) EventType() string { return TypeScheduleCreated }

func (e ScheduleCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeScheduleCreated,
		Attributes: map[string]string{
			"beneficiary": e.Beneficiary.Hex(),
			"index":       uintToString(e.Index),
			"amount":      formatAmount(e.Amount),
			"start":       intToString(e.Start),
			"unlock":      intToString(e.Unlock),
		},
	}
}

type ScheduleClaimed struct {
	Beneficiary common.Address
	Amount      *big.Int
	Schedules   uint64
}

func (ScheduleClaimed) EventType() string { return TypeScheduleClaimed }

func (e ScheduleClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeScheduleClaimed,
		Attributes: map[string]string{
			"beneficiary": e.Beneficiary.Hex(),
			"amount":      formatAmount(e.Amount),
			"schedules":   uintToString(e.Schedules),
		},
	}
}
