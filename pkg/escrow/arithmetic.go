package escrow

import (
	"fmt"
	"math/bits"
)

// AddAmounts returns left+right or ErrArithmeticOverflow.
func AddAmounts(left Amount, right Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(left), uint64(right), 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrArithmeticOverflow, left, right)
	}
	return Amount(sum), nil
}

// SubAmounts returns left-right or ErrArithmeticOverflow on underflow.
func SubAmounts(left Amount, right Amount) (Amount, error) {
	difference, borrow := bits.Sub64(uint64(left), uint64(right), 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%w: %d - %d", ErrArithmeticOverflow, left, right)
	}
	return Amount(difference), nil
}

// MulAmounts returns left*right or ErrArithmeticOverflow.
func MulAmounts(left Amount, right Amount) (Amount, error) {
	high, low := bits.Mul64(uint64(left), uint64(right))
	if high != 0 {
		return 0, fmt.Errorf("%w: %d * %d", ErrArithmeticOverflow, left, right)
	}
	return Amount(low), nil
}

// DivAmounts returns floor(left/right); a zero divisor is ErrArithmeticOverflow.
func DivAmounts(left Amount, right Amount) (Amount, error) {
	if right == 0 {
		return 0, fmt.Errorf("%w: %d / 0", ErrArithmeticOverflow, left)
	}
	return left / right, nil
}

// ComputeFee splits amount into the owner's share and the platform fee.
// The fee is floor(amount*2/100); the two parts always sum to amount.
func ComputeFee(amount Amount) (ownerAmount Amount, platformFee Amount, err error) {
	scaled, err := MulAmounts(amount, platformFeeNumerator)
	if err != nil {
		return 0, 0, err
	}
	platformFee, err = DivAmounts(scaled, platformFeeDenominator)
	if err != nil {
		return 0, 0, err
	}
	ownerAmount, err = SubAmounts(amount, platformFee)
	if err != nil {
		return 0, 0, err
	}
	return ownerAmount, platformFee, nil
}
