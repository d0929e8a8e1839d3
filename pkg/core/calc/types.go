// Package calc computes per-year financial ratios from raw statements.
package calc

import (
	"errors"
	"fmt"

	"financial_dashboard/pkg/core/valuation"
)

// =============================================================================
// LINE ITEMS
// Names as they appear in the statements files.
// =============================================================================

const (
	// Income statement
	ItemRevenue            = "Revenue"
	ItemGrossProfit        = "Gross Profit"
	ItemOperatingIncome    = "Operating Income"
	ItemNetIncome          = "Net Income"
	ItemEBITDA             = "EBITDA"
	ItemDepreciation       = "Depreciation and Amortization"
	ItemWeightedShares     = "Weighted Average Shares"
	ItemReportedEPS        = "EPS"
	ItemPrice              = "price"
	ItemStockCompensation  = "Stock Based Compensation"
	ItemOtherNonCash       = "Other Non Cash Items"
	ItemWorkingCapital     = "Change in Working Capital"
	ItemCapex              = "Capital Expenditure"
	ItemInterestPaid       = "Interest Paid"
	ItemInterestReceived   = "Interest Received"
	ItemDebtIssued         = "Debt Issued"
	ItemDebtRepaid         = "Debt Repaid"
	ItemEquity             = "Total Shareholder Equity"
	ItemTotalDebt          = "Total Debt"
	ItemTotalAssets        = "Total Assets"
	ItemTotalLiabilities   = "Total Liabilities"
	ItemCash               = "Cash and Cash Equivalents"
	ItemShortTermInvest    = "Short Term Investments"
	ItemCurrentAssets      = "Total Current Assets"
	ItemCurrentLiabilities = "Total Current Liabilities"
)

// =============================================================================
// OUTPUT METRICS
// Column names of the exported result rows.
// =============================================================================

const (
	MetricROE                   = "ROE"
	MetricROA                   = "RoA"
	MetricROIC                  = "ROIC"
	MetricEBITDAMargin          = "EBITDA Margin"
	MetricNetProfitMargin       = "Net Profit Margin"
	MetricGrossProfitMargin     = "Gross Profit MArgin"
	MetricOperatingProfitMargin = "Operating Profit Margin"
	MetricWACC                  = "WACC"
	MetricCostOfEquity          = "Cost of Equity"
	MetricUFCF                  = "Unlevered Free Cash Flow (UFCF)"
	MetricOCF                   = "Operating Cash Flow (OCF)"
	MetricFCF                   = "Free Cash Flow (FCF)"
	MetricCurrentRatio          = "Current Ratio"
	MetricCashRatio             = "Cash Ratio"
	MetricEPS                   = "EPS"
	MetricPE                    = "PE Ratio"
	MetricPBV                   = "PBV Ratio"
	MetricOwnerEarnings         = "Owner's Earnings"
	MetricPrice                 = "Price"
)

var (
	// ErrMissingItem is returned when a required line item is absent or not numeric.
	ErrMissingItem = errors.New("missing line item")
	// ErrZeroDivision is returned when a ratio's denominator is zero.
	ErrZeroDivision = errors.New("division by zero")
	// ErrNoResults is returned when no year produced a single metric.
	ErrNoResults = errors.New("no ratios could be calculated")
)

// MissingItemError names the statement and line item that was not found.
type MissingItemError struct {
	Statement string
	Item      string
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrMissingItem, e.Statement, e.Item)
}

func (e *MissingItemError) Unwrap() error { return ErrMissingItem }

// Assumptions are the capital-market inputs shared by every year.
type Assumptions struct {
	TaxRate       float64
	RiskFreeRate  float64
	Beta          float64
	MarketReturns []float64
}

// DefaultAssumptions returns the US defaults: 21% tax, 3% risk-free, beta 1.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		TaxRate:       valuation.DefaultTaxRate,
		RiskFreeRate:  valuation.DefaultRiskFreeRate,
		Beta:          valuation.DefaultBeta,
		MarketReturns: append([]float64(nil), valuation.DefaultMarketReturns...),
	}
}
