// Package dashboard turns an API response into the dashboard view model
// and keeps the per-session state a user interacts with.
package dashboard

import (
	"fmt"

	"financial_dashboard/pkg/core/chart"
	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

// Table is the formatted result table.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// KPICard is a KPI result with its display strings.
type KPICard struct {
	series.KPIResult
	CurrentText string `json:"current_text"`
	PriorText   string `json:"prior_text"`
}

// View is everything one render cycle produces.
type View struct {
	Symbol     string               `json:"symbol,omitempty"`
	SourceFile string               `json:"source_file,omitempty"`
	Years      []string             `json:"years"`
	Table      Table                `json:"table"`
	KPIs       []KPICard            `json:"kpis,omitempty"`
	Charts     []chart.Spec         `json:"charts,omitempty"`
	Groups     []chart.GroupSection `json:"groups,omitempty"`
	Ratios     models.Ratios        `json:"-"`
	RatioTab   string               `json:"ratio_tab"`
	RatioPair  []chart.Spec         `json:"ratio_pair,omitempty"`
	Skipped    []string             `json:"skipped,omitempty"`
	Latest     models.Record        `json:"latest,omitempty"`
	Valuation  interface{}          `json:"valuation,omitempty"`
	Resolved   map[string]string    `json:"resolved,omitempty"`
}

// ResultTable builds the table: Year followed by the first
// chart.MaxGroupedMetrics metric columns.
func ResultTable(sorted models.RecordSet) Table {
	cols := series.MetricColumns(sorted)
	if len(cols) > chart.MaxGroupedMetrics {
		cols = cols[:chart.MaxGroupedMetrics]
	}
	t := Table{Columns: append([]string{models.YearField}, cols...)}
	for _, r := range sorted.Records {
		row := make([]string, len(t.Columns))
		row[0] = series.YearLabel(r)
		if row[0] == "" {
			row[0] = Placeholder
		}
		for i, c := range cols {
			row[i+1] = FormatValue(r[c])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Build produces the view for resp with the given ratio tab selected.
// ErrNoNumericData comes back together with a partial view: the table,
// grouped charts and ratio tabs are filled, the metric charts are not.
func Build(resp *models.FinancialsResponse, tab string) (*View, error) {
	if resp == nil || resp.Result.Len() == 0 {
		return nil, ErrEmptyResult
	}
	if err := series.ValidateRecordSet(resp.Result); err != nil {
		return nil, fmt.Errorf("invalid result: %w", err)
	}

	sorted := series.SortRecords(resp.Result)
	schema := series.NewSchema(sorted)

	v := &View{
		Symbol:     resp.Symbol,
		SourceFile: resp.SourceFile,
		Years:      series.Years(sorted),
		Table:      ResultTable(sorted),
		Ratios:     resp.Ratios,
		Latest:     resp.Latest,
		Valuation:  resp.Valuation,
		Resolved:   schema.Negotiate(series.CanonicalAliases),
	}
	if len(v.Ratios) == 0 {
		v.Ratios = series.RowsToRatios(sorted)
	}
	if v.Latest == nil {
		v.Latest, _ = series.LastTwo(sorted)
	}
	if v.SourceFile == "" {
		v.SourceFile = "exports/result.json"
	}

	v.Groups = chart.GroupedCharts(sorted)
	v.selectTab(tab)

	if len(series.NumericKeys(sorted)) == 0 {
		return v, ErrNoNumericData
	}

	for _, k := range series.EvaluateKPIs(sorted, schema, series.DefaultKPIs) {
		v.KPIs = append(v.KPIs, KPICard{
			KPIResult:   k,
			CurrentText: FormatKPIValue(k.Key, k.Current),
			PriorText:   FormatKPIValue(k.Key, k.Prior),
		})
	}

	builders := []struct {
		id    string
		build func(models.RecordSet, *series.Schema) (chart.Spec, bool)
	}{
		{chart.CombinedID, chart.CombinedChart},
		{chart.FCFComboID, chart.FCFComboChart},
		{chart.OCFComboID, chart.OCFComboChart},
	}
	for _, b := range builders {
		spec, ok := b.build(sorted, schema)
		if !ok {
			v.Skipped = append(v.Skipped, b.id)
			continue
		}
		v.Charts = append(v.Charts, spec)
	}
	return v, nil
}

// selectTab fills the ratio pair for the named tab, falling back to the
// first tab for an unknown or empty name.
func (v *View) selectTab(name string) bool {
	tab, ok := chart.FindRatioTab(name)
	if !ok {
		tab = chart.RatioTabs[0]
	}
	v.RatioTab = tab.Name
	v.RatioPair = nil
	first, second, found := chart.RatioCharts(v.Ratios, tab)
	if !found {
		return false
	}
	v.RatioPair = []chart.Spec{first, second}
	return true
}

// ChartSpecs lists every spec the view wants drawn.
func (v *View) ChartSpecs() []chart.Spec {
	out := append([]chart.Spec(nil), v.Charts...)
	for _, g := range v.Groups {
		out = append(out, g.Charts...)
	}
	return append(out, v.RatioPair...)
}
