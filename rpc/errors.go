package rpc

import (
	"errors"
	"net/http"

	"tokensale/native/crowdsale"
	"tokensale/native/lockvault"
	"tokensale/native/token"
)

const (
	codeCrowdsaleValidation = -32021
	codeCrowdsaleState      = -32022
	codeCrowdsaleFunds      = -32023
	codeLockValidation      = -32031
	codeLockState           = -32032
	codeLockFunds           = -32033
	codeTokenValidation     = -32041
	codeTokenFunds          = -32042
	codeArithmetic          = -32050
)

// writeEngineError maps module sentinel errors onto JSON-RPC error codes so
// integrators can tell a retryable input problem from a state conflict.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusInternalServerError
	code := codeServerError
	switch {
	case errors.Is(err, crowdsale.ErrUnauthorized),
		errors.Is(err, token.ErrUnauthorized),
		errors.Is(err, lockvault.ErrOnlyController):
		status, code = http.StatusForbidden, codeUnauthorized
	case errors.Is(err, crowdsale.ErrAmountTooSmall),
		errors.Is(err, crowdsale.ErrAmountTooLarge),
		errors.Is(err, crowdsale.ErrZeroRate),
		errors.Is(err, crowdsale.ErrInvalidRate),
		errors.Is(err, crowdsale.ErrNegativeAmount):
		status, code = http.StatusBadRequest, codeCrowdsaleValidation
	case errors.Is(err, crowdsale.ErrSaleNotActive),
		errors.Is(err, crowdsale.ErrAlreadyActive),
		errors.Is(err, crowdsale.ErrSaleEnded),
		errors.Is(err, crowdsale.ErrSaleNotEnded):
		status, code = http.StatusConflict, codeCrowdsaleState
	case errors.Is(err, crowdsale.ErrInsufficientAllowance),
		errors.Is(err, crowdsale.ErrInsufficientBalance),
		errors.Is(err, crowdsale.ErrInsufficientSaleSupply),
		errors.Is(err, crowdsale.ErrNothingToWithdraw):
		status, code = http.StatusConflict, codeCrowdsaleFunds
	case errors.Is(err, crowdsale.ErrOverflow):
		status, code = http.StatusBadRequest, codeArithmetic
	case errors.Is(err, lockvault.ErrInvalidBeneficiary),
		errors.Is(err, lockvault.ErrZeroAmount),
		errors.Is(err, lockvault.ErrInvalidWindow),
		errors.Is(err, lockvault.ErrBadID):
		status, code = http.StatusBadRequest, codeLockValidation
	case errors.Is(err, lockvault.ErrNotUnlocked):
		status, code = http.StatusConflict, codeLockState
	case errors.Is(err, lockvault.ErrZeroClaim),
		errors.Is(err, lockvault.ErrNothingToClaim),
		errors.Is(err, lockvault.ErrVaultUnderfunded):
		status, code = http.StatusConflict, codeLockFunds
	case errors.Is(err, lockvault.ErrTransferExceedsUnlocked):
		status, code = http.StatusConflict, codeTokenFunds
	case errors.Is(err, token.ErrInvalidAsset),
		errors.Is(err, token.ErrZeroAddress),
		errors.Is(err, token.ErrNegativeAmount):
		status, code = http.StatusBadRequest, codeTokenValidation
	case errors.Is(err, token.ErrPaused),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		status, code = http.StatusConflict, codeTokenFunds
	}
	writeError(w, status, id, code, err.Error(), nil)
}
