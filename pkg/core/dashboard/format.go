package dashboard

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"financial_dashboard/pkg/core/series"
)

// Placeholder is shown for a missing value.
const Placeholder = "—"

// FormatValue renders a table cell: billions and millions get a unit and two
// decimals, smaller numbers are digit-grouped with up to three decimals.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return Placeholder
	case string:
		return x
	case bool:
		return fmt.Sprint(x)
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 5 {
			keys = keys[:5]
		}
		return "Object{" + strings.Join(keys, ", ") + "}"
	}

	n := series.ToNumber(v)
	if n == nil {
		return fmt.Sprint(v)
	}
	return formatNumber(*n)
}

func formatNumber(f float64) string {
	d := decimal.NewFromFloat(f)
	switch abs := math.Abs(f); {
	case abs >= 1e9:
		return d.Div(decimal.New(1, 9)).StringFixed(2) + " B"
	case abs >= 1e6:
		return d.Div(decimal.New(1, 6)).StringFixed(2) + " M"
	default:
		return groupDigits(d.Round(3).String())
	}
}

// groupDigits inserts thousands separators into a plain decimal string.
func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}

var (
	pctMetric  = regexp.MustCompile(`(?i)margin|roe|roa|roic`)
	rateMetric = regexp.MustCompile(`(?i)wacc|cost of equity|cost_of_equity|coe`)
)

// FormatKPIValue renders a KPI card value. Margins and returns are already in
// percent; WACC and cost of equity are fractions.
func FormatKPIValue(key string, v *float64) string {
	if v == nil {
		return Placeholder
	}
	d := decimal.NewFromFloat(*v)
	switch {
	case pctMetric.MatchString(key):
		return d.StringFixed(2) + "%"
	case rateMetric.MatchString(key):
		return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	default:
		return formatNumber(*v)
	}
}
