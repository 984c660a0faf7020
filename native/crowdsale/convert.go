package crowdsale

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Decimal scales of the two assets. The payment asset follows the 6-decimal
// stablecoin convention, the sale asset the 18-decimal token convention.
const (
	PaymentDecimals = 6
	SaleDecimals    = 18
)

// decimalGap is 10^(SaleDecimals-PaymentDecimals).
var decimalGap = uint256.NewInt(1_000_000_000_000)

var (
	ErrInvalidRate    = errors.New("crowdsale: rate must be positive")
	ErrNegativeAmount = errors.New("crowdsale: amount must not be negative")
	ErrOverflow       = errors.New("crowdsale: amount overflows 256 bits")
)

// ToSaleAmount converts a payment-asset amount into the sale-asset amount it
// buys at the given rate: payment * rate * 10^12. The multiplication is exact;
// this direction never loses precision.
func ToSaleAmount(payment *big.Int, rate uint64) (*big.Int, error) {
	if rate == 0 {
		return nil, ErrInvalidRate
	}
	if payment == nil {
		return big.NewInt(0), nil
	}
	if payment.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	p, overflow := uint256.FromBig(payment)
	if overflow {
		return nil, ErrOverflow
	}
	product := new(uint256.Int)
	if _, overflow = product.MulOverflow(p, uint256.NewInt(rate)); overflow {
		return nil, ErrOverflow
	}
	if _, overflow = product.MulOverflow(product, decimalGap); overflow {
		return nil, ErrOverflow
	}
	return product.ToBig(), nil
}

// ToPaymentAmount converts a sale-asset amount back into payment-asset units:
// sale / (rate * 10^12), flooring toward zero. Round-tripping ToSaleAmount
// then ToPaymentAmount is exact; the reverse composition may floor.
func ToPaymentAmount(sale *big.Int, rate uint64) (*big.Int, error) {
	if rate == 0 {
		return nil, ErrInvalidRate
	}
	if sale == nil {
		return big.NewInt(0), nil
	}
	if sale.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	s, overflow := uint256.FromBig(sale)
	if overflow {
		return nil, ErrOverflow
	}
	divisor := new(uint256.Int).Mul(uint256.NewInt(rate), decimalGap)
	return new(uint256.Int).Div(s, divisor).ToBig(), nil
}
