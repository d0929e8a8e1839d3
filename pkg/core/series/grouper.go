package series

import "regexp"

// Category is a coarse display group for a metric.
type Category string

const (
	CategoryProfitability Category = "Profitability"
	CategoryMargins       Category = "Margins"
	CategoryRiskDiscount  Category = "Risk / Discount"
	CategoryCashFlow      Category = "Cash Flow"
	CategoryOther         Category = "Other"
)

// GroupRule is one row of the precedence table.
type GroupRule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// Precedence is evaluated top to bottom; the first matching rule wins.
// Margins outranks Cash Flow, so "Operating Cash Flow Margin" is a margin.
var Precedence = []GroupRule{
	{CategoryProfitability, regexp.MustCompile(`(?i)roe|roa|roic|return`)},
	{CategoryMargins, regexp.MustCompile(`(?i)margin`)},
	{CategoryRiskDiscount, regexp.MustCompile(`(?i)wacc|cost.*equity|beta|risk`)},
	{CategoryCashFlow, regexp.MustCompile(`(?i)cash|flow|fcf|ufcf|ocf|owner`)},
}

var moneyPattern = regexp.MustCompile(`(?i)cash|flow|fcf|ufcf|ocf|earnings|revenue|income|capex|debt|assets|equity`)

// GroupOf classifies a metric name.
func GroupOf(name string) Category {
	for _, r := range Precedence {
		if r.Pattern.MatchString(name) {
			return r.Category
		}
	}
	return CategoryOther
}

// IsMoneyMetric reports whether a metric is an absolute amount (drawn as bars)
// rather than a ratio (drawn as a line).
func IsMoneyMetric(name string) bool {
	return moneyPattern.MatchString(name)
}

// Group is a category with its metrics in input order.
type Group struct {
	Category Category `json:"category"`
	Keys     []string `json:"keys"`
}

// GroupMetrics buckets keys by category. Groups appear in the order their
// first member appears in keys.
func GroupMetrics(keys []string) []Group {
	index := map[Category]int{}
	var groups []Group
	for _, k := range keys {
		c := GroupOf(k)
		i, ok := index[c]
		if !ok {
			i = len(groups)
			index[c] = i
			groups = append(groups, Group{Category: c})
		}
		groups[i].Keys = append(groups[i].Keys, k)
	}
	return groups
}
