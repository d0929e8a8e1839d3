package calc

import (
	"math"

	"financial_dashboard/pkg/models"
)

// =============================================================================
// BALANCE SHEET EQUATION
// Assets = Liabilities + Equity
// =============================================================================

// DefaultBalanceTolerance is the allowed gap, in percent of total assets.
const DefaultBalanceTolerance = 0.1

// BalanceCheck is the balance sheet equation for one year.
type BalanceCheck struct {
	Year             string
	TotalAssets      float64
	TotalLiabilities float64
	TotalEquity      float64
	Diff             float64 // Assets - (Liabilities + Equity)
	DiffPercent      float64 // |Diff| / Assets * 100
}

// Within reports whether the gap is inside tolerance percent.
func (c BalanceCheck) Within(tolerance float64) bool {
	return c.DiffPercent <= tolerance
}

// CheckBalanceSheets returns one check per year that reports all three
// totals, in year order.
func CheckBalanceSheets(bs models.Statement) []BalanceCheck {
	var out []BalanceCheck
	for _, year := range bs.Years() {
		rec := bs[year]
		assets, liabilities, equity := lookup(rec, ItemTotalAssets), lookup(rec, ItemTotalLiabilities), lookup(rec, ItemEquity)
		if assets == nil || liabilities == nil || equity == nil {
			continue
		}
		c := BalanceCheck{
			Year:             year,
			TotalAssets:      *assets,
			TotalLiabilities: *liabilities,
			TotalEquity:      *equity,
			Diff:             *assets - (*liabilities + *equity),
		}
		if *assets != 0 {
			c.DiffPercent = math.Abs(c.Diff) / math.Abs(*assets) * 100
		} else if c.Diff != 0 {
			c.DiffPercent = math.Inf(1)
		}
		out = append(out, c)
	}
	return out
}
