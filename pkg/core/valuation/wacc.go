package valuation

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Capital-market assumptions used when a caller does not supply its own.
const (
	DefaultTaxRate      = 0.21
	DefaultRiskFreeRate = 0.03
	DefaultBeta         = 1.0
)

// DefaultMarketReturns is the sample of expected market returns averaged by CAPM.
var DefaultMarketReturns = []float64{0.07, 0.08, 0.09, 0.10}

// ErrNoCapital is returned when neither equity nor debt is positive.
var ErrNoCapital = errors.New("equity or debt must be greater than zero")

// CAPMInput parameters for the cost of equity.
type CAPMInput struct {
	RiskFreeRate  float64
	Beta          float64
	MarketReturns []float64 // Averaged to the expected market return
}

// CostOfEquity computes Ke = Rf + Beta * (E[Rm] - Rf).
func CostOfEquity(input CAPMInput) float64 {
	returns := input.MarketReturns
	if len(returns) == 0 {
		returns = DefaultMarketReturns
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	marketReturn := sum / float64(len(returns))
	return input.RiskFreeRate + input.Beta*(marketReturn-input.RiskFreeRate)
}

// WACCInput parameters for calculating Cost of Capital from one year's
// balance sheet and cash flow statement.
type WACCInput struct {
	Equity       float64 // Total Shareholder Equity (book)
	Debt         float64 // Total Debt
	InterestPaid float64 // Net interest and debt cash flows attributed to lenders
	TaxRate      float64
	CostOfEquity float64
}

// WACCResult holds the calculated rates
type WACCResult struct {
	CostOfEquity float64
	CostOfDebt   float64 // After-tax
	WACC         float64
	WeightDebt   float64
	WeightEquity float64
}

// InterestPaid nets the lender-side cash flows of a cash flow statement:
// -Interest Paid + Interest Received + Debt Issued - Debt Repaid.
func InterestPaid(paid, received, issued, repaid float64) float64 {
	return -paid + received + issued - repaid
}

// CalculateWACC computes the book-weighted WACC, rounded to four decimals.
func CalculateWACC(input WACCInput) (WACCResult, error) {
	if input.Equity <= 0 && input.Debt <= 0 {
		return WACCResult{}, ErrNoCapital
	}

	// 1. Cost of Debt (After-tax)
	// Kd = Interest / Debt * (1 - t)
	var kd float64
	if input.Debt > 0 {
		kd = input.InterestPaid / input.Debt
	}
	kd *= 1 - input.TaxRate

	// 2. Weights
	total := input.Equity + input.Debt
	if total == 0 {
		return WACCResult{}, ErrNoCapital
	}
	we := input.Equity / total
	wd := input.Debt / total

	// 3. WACC
	wacc := we*input.CostOfEquity + wd*kd

	return WACCResult{
		CostOfEquity: input.CostOfEquity,
		CostOfDebt:   kd,
		WACC:         Round(wacc, 4),
		WeightDebt:   wd,
		WeightEquity: we,
	}, nil
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
