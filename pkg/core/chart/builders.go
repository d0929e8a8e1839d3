package chart

import (
	"fmt"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

// Canvas ids used by the dashboard.
const (
	CombinedID  = "combinedChart"
	FCFComboID  = "fcfComboChart"
	OCFComboID  = "ocfComboChart"
	RatioFirst  = "rChart1"
	RatioSecond = "rChart2"
	GroupPrefix = "g_"
)

// MaxGroupedMetrics bounds the grouped charts and the result table.
const MaxGroupedMetrics = 16

// RatioWindowYears is how many years a ratio tab shows.
const RatioWindowYears = 5

type combinedLine struct {
	alias series.AliasSet
	label string
	axis  Axis
}

var combinedLines = []combinedLine{
	{series.AliasROE, "ROE (%)", AxisPct},
	{series.AliasROA, "RoA (%)", AxisPct},
	{series.AliasPE, "P/E", AxisRight},
	{series.AliasPBV, "P/BV", AxisRight},
	{series.AliasROIC, "ROIC (%)", AxisRight},
	{series.AliasPrice, "Price", AxisRight},
}

// CombinedChart overlays return ratios on the percent axis and valuation
// multiples plus price on the right axis. Metrics that do not resolve are
// left out; ok is false when none resolve.
func CombinedChart(sorted models.RecordSet, schema *series.Schema) (Spec, bool) {
	spec := Spec{ID: CombinedID, Title: "Profitability & Valuation", Kind: KindLine, Labels: series.Years(sorted)}
	for _, l := range combinedLines {
		s, ok := series.BuildAliasSeries(sorted, schema, l.alias)
		if !ok {
			continue
		}
		spec.Datasets = append(spec.Datasets, Dataset{Label: l.label, Kind: KindLine, Axis: l.axis, Data: s.Values()})
	}
	return spec, len(spec.Datasets) > 0
}

func cashCombo(id string, sorted models.RecordSet, schema *series.Schema, a series.AliasSet, barLabel, growthLabel string) (Spec, bool) {
	s, ok := series.BuildAliasSeries(sorted, schema, a)
	if !ok {
		return Spec{}, false
	}
	g := series.GrowthSeries(s, growthLabel)
	return Spec{
		ID:     id,
		Title:  barLabel,
		Kind:   KindBar,
		Labels: series.Years(sorted),
		Datasets: []Dataset{
			{Label: barLabel, Kind: KindBar, Axis: AxisCash, Data: s.Values()},
			{Label: growthLabel, Kind: KindLine, Axis: AxisPct, Data: g.Values()},
		},
	}, true
}

// FCFComboChart draws free cash flow as bars with its YoY growth as a line.
func FCFComboChart(sorted models.RecordSet, schema *series.Schema) (Spec, bool) {
	return cashCombo(FCFComboID, sorted, schema, series.AliasFCF, "Free Cash Flow (FCF)", "FCF Growth (%)")
}

// OCFComboChart is FCFComboChart for operating cash flow.
func OCFComboChart(sorted models.RecordSet, schema *series.Schema) (Spec, bool) {
	return cashCombo(OCFComboID, sorted, schema, series.AliasOCF, "Operating Cash Flow (OCF)", "OCF Growth (%)")
}

// GroupSection is one category of grouped charts.
type GroupSection struct {
	Category series.Category `json:"category"`
	Charts   []Spec          `json:"charts"`
}

// uniqueID suffixes -2, -3, ... onto ids already handed out.
func uniqueID(used map[string]int, id string) string {
	used[id]++
	if used[id] == 1 {
		return id
	}
	for n := used[id]; ; n++ {
		cand := fmt.Sprintf("%s-%d", id, n)
		if used[cand] == 0 {
			used[cand] = 1
			return cand
		}
	}
}

// GroupedCharts draws the first MaxGroupedMetrics metric columns, one small
// chart each, bucketed by category. Amounts are bars, ratios are lines.
func GroupedCharts(sorted models.RecordSet) []GroupSection {
	keys := series.MetricColumns(sorted)
	if len(keys) > MaxGroupedMetrics {
		keys = keys[:MaxGroupedMetrics]
	}
	years := series.Years(sorted)

	used := make(map[string]int, len(keys))
	var out []GroupSection
	for _, g := range series.GroupMetrics(keys) {
		sec := GroupSection{Category: g.Category}
		for _, k := range g.Keys {
			kind := KindLine
			if series.IsMoneyMetric(k) {
				kind = KindBar
			}
			s := series.BuildSeries(sorted, k, k)
			sec.Charts = append(sec.Charts, Spec{
				ID:       uniqueID(used, GroupPrefix+Slug(k)),
				Title:    k,
				Kind:     kind,
				Labels:   years,
				Datasets: []Dataset{{Label: k, Kind: kind, Axis: AxisDefault, Data: s.Values()}},
			})
		}
		out = append(out, sec)
	}
	return out
}

// RatioTab pairs two metrics from the ratio map.
type RatioTab struct {
	Name   string
	First  series.AliasSet
	Second series.AliasSet
}

// RatioTabs are offered in this order; the first is the default.
var RatioTabs = []RatioTab{
	{"EPS & CoE", series.AliasEPS, series.AliasCostOfEquity},
	{"Profitability", series.AliasROE, series.AliasROIC},
	{"Valuation", series.AliasPE, series.AliasPBV},
	{"Cashflow", series.AliasFCFMargin, series.AliasOwnerEarnings},
}

// FindRatioTab looks a tab up by name.
func FindRatioTab(name string) (RatioTab, bool) {
	for _, t := range RatioTabs {
		if t.Name == name {
			return t, true
		}
	}
	return RatioTab{}, false
}

// RatioCharts builds the two line charts of a tab over the last
// RatioWindowYears years. ok is false when neither metric is in ratios.
func RatioCharts(ratios models.Ratios, tab RatioTab) (first, second Spec, ok bool) {
	pair, ok := series.RatioWindow(ratios, tab.First, tab.Second, RatioWindowYears)
	if !ok {
		return Spec{}, Spec{}, false
	}
	mk := func(id string, s series.NumericSeries) Spec {
		return Spec{
			ID:       id,
			Title:    fmt.Sprintf("%s (%dY)", s.Label, RatioWindowYears),
			Kind:     KindLine,
			Labels:   pair.Years,
			Datasets: []Dataset{{Label: s.Label, Kind: KindLine, Axis: AxisDefault, Data: s.Values()}},
		}
	}
	return mk(RatioFirst, pair.First), mk(RatioSecond, pair.Second), true
}
