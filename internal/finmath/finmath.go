// Package finmath implements the stateless financial formulas of the
// projection engine: growth, annuity valuation, required-payment solving
// and debt amortization.
//
// All rates are decimals (0.05 means 5%), never percentages. Zero rates
// are valid inputs with their own formula branch; negative rates or
// periods violate the caller contract and fail fast with a sentinel error.
package finmath

import (
	"errors"
	"math"
)

// Safety and precision constants. These are deliberately compile-time
// values shared by production code and the test suite.
const (
	// AmortizationIterationCap bounds the amortization loop. Reaching it
	// signals the payment cannot amortize the balance.
	AmortizationIterationCap = 1000

	// PayoffEpsilon is the residual balance below which a debt counts as
	// paid off, in currency units.
	PayoffEpsilon = 0.01

	// DefaultPeriodsPerYear is the compounding frequency used when the
	// caller passes a non-positive one.
	DefaultPeriodsPerYear = 12
)

var (
	ErrNegativeRate    = errors.New("annual rate must not be negative")
	ErrNegativeYears   = errors.New("years must not be negative")
	ErrNegativePeriods = errors.New("periods must not be negative")
	ErrNoPeriods       = errors.New("periods must be positive")
)

// CompoundAmount returns principal grown at annualRate compounded
// periodsPerYear times per year over the given years.
func CompoundAmount(principal, annualRate, years float64, periodsPerYear int) (float64, error) {
	if annualRate < 0 {
		return 0, ErrNegativeRate
	}
	if years < 0 {
		return 0, ErrNegativeYears
	}
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}
	n := float64(periodsPerYear)
	return principal * math.Pow(1+annualRate/n, n*years), nil
}

// SimpleAmount returns principal grown at annualRate simple interest over
// the given years.
func SimpleAmount(principal, annualRate, years float64) (float64, error) {
	if annualRate < 0 {
		return 0, ErrNegativeRate
	}
	if years < 0 {
		return 0, ErrNegativeYears
	}
	return principal * (1 + annualRate*years), nil
}

// FutureValueOfAnnuity returns the value of `periods` equal monthly
// payments compounded at annualRate/12 per period. A zero rate is the
// straight sum of the payments.
func FutureValueOfAnnuity(payment, annualRate float64, periods int) (float64, error) {
	if annualRate < 0 {
		return 0, ErrNegativeRate
	}
	if periods < 0 {
		return 0, ErrNegativePeriods
	}
	if annualRate == 0 {
		return payment * float64(periods), nil
	}
	r := annualRate / 12
	return payment * (math.Pow(1+r, float64(periods)) - 1) / r, nil
}

// PresentValueOfAnnuity returns today's value of `periods` equal monthly
// payments discounted at annualRate/12 per period. A zero rate is the
// straight sum of the payments.
func PresentValueOfAnnuity(payment, annualRate float64, periods int) (float64, error) {
	if annualRate < 0 {
		return 0, ErrNegativeRate
	}
	if periods < 0 {
		return 0, ErrNegativePeriods
	}
	if annualRate == 0 {
		return payment * float64(periods), nil
	}
	r := annualRate / 12
	return payment * (1 - math.Pow(1+r, -float64(periods))) / r, nil
}

// RequiredPayment solves for the monthly payment that grows to
// targetFutureValue over `periods` months at annualRate. It is the inverse
// of FutureValueOfAnnuity; a zero rate divides the target evenly.
func RequiredPayment(targetFutureValue, annualRate float64, periods int) (float64, error) {
	if annualRate < 0 {
		return 0, ErrNegativeRate
	}
	if periods <= 0 {
		return 0, ErrNoPeriods
	}
	if annualRate == 0 {
		return targetFutureValue / float64(periods), nil
	}
	r := annualRate / 12
	return targetFutureValue * r / (math.Pow(1+r, float64(periods)) - 1), nil
}

// AmortizationResult reports a fixed-payment payoff simulation. Months
// equal to AmortizationIterationCap with Capped set means the payment is
// insufficient to amortize within the cap; Months of zero means the very
// first payment did not cover its interest.
type AmortizationResult struct {
	Months        int
	TotalInterest float64
	Capped        bool
}

// Amortize simulates paying down principal with a fixed monthlyPayment at
// annualRate, reducing the balance by payment minus interest each month.
// It stops when the balance drops below PayoffEpsilon, when the payment no
// longer covers the interest portion, or at AmortizationIterationCap.
// Hitting the cap is a result, not an error.
func Amortize(principal, monthlyPayment, annualRate float64) (AmortizationResult, error) {
	if annualRate < 0 {
		return AmortizationResult{}, ErrNegativeRate
	}

	var res AmortizationResult
	if principal <= 0 {
		return res, nil
	}

	r := annualRate / 12
	balance := principal
	for res.Months < AmortizationIterationCap && balance > PayoffEpsilon {
		interest := balance * r
		reduction := monthlyPayment - interest
		if reduction <= 0 {
			// The payment does not even cover interest: iterating further
			// would only accumulate unbounded interest.
			break
		}
		res.TotalInterest += interest
		balance -= reduction
		res.Months++
	}
	res.Capped = res.Months == AmortizationIterationCap && balance > PayoffEpsilon
	return res, nil
}
