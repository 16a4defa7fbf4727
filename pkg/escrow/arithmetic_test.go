package escrow

import (
	"errors"
	"math"
	"testing"
)

func TestComputeFee(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name      string
		amount    Amount
		wantOwner Amount
		wantFee   Amount
	}{
		{name: "scenario b", amount: 1000, wantOwner: 980, wantFee: 20},
		{name: "one unit", amount: 1, wantOwner: 1, wantFee: 0},
		{name: "largest zero fee", amount: 49, wantOwner: 49, wantFee: 0},
		{name: "first unit of fee", amount: 50, wantOwner: 49, wantFee: 1},
		{name: "rounds down", amount: 149, wantOwner: 147, wantFee: 2},
		{name: "half of max", amount: math.MaxUint64 / 2, wantOwner: math.MaxUint64/2 - (math.MaxUint64/2*2)/100, wantFee: (math.MaxUint64 / 2 * 2) / 100},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			ownerAmount, platformFee, err := ComputeFee(testCase.amount)
			if err != nil {
				test.Fatalf("compute fee: %v", err)
			}
			if ownerAmount != testCase.wantOwner || platformFee != testCase.wantFee {
				test.Fatalf("expected owner=%d fee=%d, got owner=%d fee=%d", testCase.wantOwner, testCase.wantFee, ownerAmount, platformFee)
			}
			if ownerAmount+platformFee != testCase.amount {
				test.Fatalf("split does not sum to amount: %d + %d != %d", ownerAmount, platformFee, testCase.amount)
			}
		})
	}
}

func TestComputeFeeSumsToAmountForRange(test *testing.T) {
	test.Parallel()
	for raw := Amount(1); raw <= 10_000; raw++ {
		ownerAmount, platformFee, err := ComputeFee(raw)
		if err != nil {
			test.Fatalf("compute fee %d: %v", raw, err)
		}
		if platformFee != raw*2/100 {
			test.Fatalf("amount %d: expected fee %d, got %d", raw, raw*2/100, platformFee)
		}
		if ownerAmount+platformFee != raw {
			test.Fatalf("amount %d: split %d + %d", raw, ownerAmount, platformFee)
		}
	}
}

func TestComputeFeeOverflow(test *testing.T) {
	test.Parallel()
	_, _, err := ComputeFee(math.MaxUint64)
	if !errors.Is(err, ErrArithmeticOverflow) {
		test.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}

func TestCheckedArithmetic(test *testing.T) {
	test.Parallel()
	if _, err := AddAmounts(math.MaxUint64, 1); !errors.Is(err, ErrArithmeticOverflow) {
		test.Fatalf("expected add overflow, got %v", err)
	}
	if _, err := SubAmounts(1, 2); !errors.Is(err, ErrArithmeticOverflow) {
		test.Fatalf("expected sub underflow, got %v", err)
	}
	if _, err := MulAmounts(math.MaxUint64, 2); !errors.Is(err, ErrArithmeticOverflow) {
		test.Fatalf("expected mul overflow, got %v", err)
	}
	if _, err := DivAmounts(10, 0); !errors.Is(err, ErrArithmeticOverflow) {
		test.Fatalf("expected division by zero failure, got %v", err)
	}
	sum, err := AddAmounts(40, 2)
	if err != nil || sum != 42 {
		test.Fatalf("expected 42, got %d (%v)", sum, err)
	}
}
