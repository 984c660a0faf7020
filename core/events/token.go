package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokensale/core/types"
)

const (
	TypeTokenTransfer = "token.transfer"
	TypeTokenApproval = "token.approval"
	TypeTokenMinted   = "token.minted"
	TypeTokenPaused   = "token.paused"
	TypeTokenUnpaused = "token.unpaused"
)

type TokenTransfer struct {
	Asset  string
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"asset":  e.Asset,
			"from":   e.From.Hex(),
			"to":     e.To.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}

type TokenApproval struct {
	Asset   string
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

func (TokenApproval) EventType() string { return TypeTokenApproval }

func (e TokenApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenApproval,
		Attributes: map[string]string{
			"asset":   e.Asset,
			"owner":   e.Owner.Hex(),
			"spender": e.Spender.Hex(),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TokenMinted struct {
	Asset  string
	To     common.Address
	Amount *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"asset":  e.Asset,
			"to":     e.To.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}

type TokenPauseChanged struct {
	Asset  string
	Paused bool
}

func (e TokenPauseChanged) EventType() string {
	if e.Paused {
		return TypeTokenPaused
	}
	return TypeTokenUnpaused
}

func (e TokenPauseChanged) Event() *types.Event {
	return &types.Event{
		Type:       e.EventType(),
		Attributes: map[string]string{"asset": e.Asset},
	}
}
