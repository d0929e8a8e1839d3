package series

import (
	"fmt"
	"math"

	"financial_dashboard/pkg/models"
)

// Fill bar bounds for KPI cards, in percent of target.
const (
	MinFillPct = 0.0
	MaxFillPct = 150.0
)

// KPI describes one current-vs-prior card.
type KPI struct {
	Alias         AliasSet
	Label         string
	LowerIsBetter bool
}

// DefaultKPIs is the card set shown on the dashboard.
var DefaultKPIs = []KPI{
	{Alias: AliasEBITDAMargin, Label: "EBITDA MARGIN"},
	{Alias: AliasNetProfitMargin, Label: "NET PROFIT MARGIN"},
	{Alias: AliasGrossProfitMargin, Label: "GROSS PROFIT MARGIN"},
	{Alias: AliasOperatingProfitMargin, Label: "OPERATING PROFIT MARGIN"},
	{Alias: AliasWACC, Label: "WACC", LowerIsBetter: true},
}

// KPIResult is the outcome of comparing the latest period with the prior one.
type KPIResult struct {
	Label        string   `json:"label"`
	Key          string   `json:"key"`
	CurrentYear  string   `json:"current_year"`
	PriorYear    string   `json:"prior_year"`
	Current      *float64 `json:"current"`
	Prior        *float64 `json:"prior"`
	Percent      *float64 `json:"percent"`
	Favorable    bool     `json:"favorable"`
	FillPct      float64  `json:"fill_pct"`
	Badge        string   `json:"badge"`
	MetricAbsent bool     `json:"metric_absent,omitempty"`
}

// HasTarget reports whether a completion percentage could be computed.
func (k KPIResult) HasTarget() bool { return k.Percent != nil }

// CompareKPI computes completion = current / prior * 100. Without both values
// or with a zero prior there is no target. The fill percentage is clamped for
// the bar only; Percent keeps the real figure.
func CompareKPI(current, prior models.Record, key string, lowerIsBetter bool) KPIResult {
	res := KPIResult{Key: key, Badge: "No Target"}
	if current != nil {
		res.CurrentYear = YearLabel(current)
		res.Current = ToNumber(current[key])
	}
	if prior != nil {
		res.PriorYear = YearLabel(prior)
		res.Prior = ToNumber(prior[key])
	}

	if res.Current == nil || res.Prior == nil || *res.Prior == 0 {
		return res
	}

	pct := NormalizeZero(*res.Current / *res.Prior * 100)
	res.Percent = &pct
	res.FillPct = math.Max(MinFillPct, math.Min(MaxFillPct, pct))
	if lowerIsBetter {
		res.Favorable = *res.Current <= *res.Prior
	} else {
		res.Favorable = *res.Current >= *res.Prior
	}
	res.Badge = fmt.Sprintf("%.2f%% of target", pct)
	return res
}

// EvaluateKPIs compares the last two records of a sorted set for each KPI.
// A KPI whose metric does not resolve is reported with MetricAbsent set.
func EvaluateKPIs(sorted models.RecordSet, schema *Schema, kpis []KPI) []KPIResult {
	current, prior := LastTwo(sorted)
	out := make([]KPIResult, 0, len(kpis))
	for _, k := range kpis {
		key, ok := schema.Resolve(k.Alias)
		if !ok {
			res := KPIResult{Label: k.Label, Badge: "No Target", MetricAbsent: true}
			if current != nil {
				res.CurrentYear = YearLabel(current)
			}
			if prior != nil {
				res.PriorYear = YearLabel(prior)
			}
			out = append(out, res)
			continue
		}
		res := CompareKPI(current, prior, key, k.LowerIsBetter)
		res.Label = k.Label
		out = append(out, res)
	}
	return out
}
