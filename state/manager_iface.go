package state

import (
	"tokensale/native/crowdsale"
	"tokensale/native/lockvault"
	"tokensale/native/token"
)

var (
	_ token.State     = (*Manager)(nil)
	_ lockvault.State = (*Manager)(nil)
	_ crowdsale.State = (*Manager)(nil)
)
