package valuation

import (
	"errors"
	"fmt"
	"strings"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

// ErrSymbolNotFound is returned when the rows hold nothing for the symbol.
var ErrSymbolNotFound = errors.New("symbol not found in results")

// GrowthColumns are the metrics whose YoY change goes into the growth table.
// The first one with a usable YoY average sets the DCF start growth.
var GrowthColumns = []series.AliasSet{series.AliasOwnerEarnings, series.AliasFCF, series.AliasEPS}

// ShareColumns are tried in order for the share count.
var ShareColumns = []string{"Shares Outstanding", "Shares Outstanding (Diluted)"}

// Result is the valuation summary for one symbol, the shape written to
// valuation.json and returned by the API.
type Result struct {
	Symbol                 string                  `json:"symbol"`
	Sector                 string                  `json:"sector"`
	TerminalGrowthUsed     float64                 `json:"terminal_growth_used"`
	WACCUsed               float64                 `json:"wacc_used"`
	GrowthStart            float64                 `json:"growth_start"`
	IntrinsicEquityValue   float64                 `json:"intrinsic_equity_value"`
	IntrinsicValuePerShare *float64                `json:"intrinsic_value_per_share"`
	SharesOutstanding      *float64                `json:"shares_outstanding"`
	GrowthTable            []models.Record         `json:"growth_table"`
	CashflowsForecast      []float64               `json:"cashflows_forecast"`
	PVCashflows            []float64               `json:"pv_cashflows"`
	PVTerminalValue        float64                 `json:"pv_terminal_value"`
	Relative               RelativeValuationResult `json:"relative"`
}

// FilterSymbol returns the rows whose symbol column matches sym
// case-insensitively, sorted by year.
func FilterSymbol(rs models.RecordSet, sym string) models.RecordSet {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	var rows []models.Record
	for _, r := range rs.Records {
		for _, f := range models.SymbolFields {
			if s, ok := r[f].(string); ok && strings.ToUpper(strings.TrimSpace(s)) == sym {
				rows = append(rows, r)
				break
			}
		}
	}
	return series.SortRecords(models.RecordSet{Records: rows, Columns: rs.Columns})
}

// GrowthTable returns one row per year with the YoY percent change of each
// growth column present in rs. rs must be sorted. Nil when no column is present.
func GrowthTable(rs models.RecordSet) []models.Record {
	schema := series.NewSchema(rs)
	type col struct{ key, label string }
	var cols []col
	for _, a := range GrowthColumns {
		if key, ok := schema.Resolve(a); ok {
			cols = append(cols, col{key: key, label: key + " YoY (%)"})
		}
	}
	if len(cols) == 0 {
		return nil
	}

	out := make([]models.Record, len(rs.Records))
	for i, r := range rs.Records {
		row := models.Record{models.YearField: r[models.YearField]}
		for _, c := range cols {
			row[c.label] = nil
			if i == 0 {
				continue
			}
			cur, prev := series.ToNumber(r[c.key]), series.ToNumber(rs.Records[i-1][c.key])
			if cur != nil && prev != nil && *prev != 0 {
				row[c.label] = (*cur - *prev) / *prev * 100
			}
		}
		out[i] = row
	}
	return out
}

// lastValue is the most recent non-null value of key in sorted rows.
func lastValue(rows []models.Record, key string) *float64 {
	for i := len(rows) - 1; i >= 0; i-- {
		if v := series.ToNumber(rows[i][key]); v != nil {
			return v
		}
	}
	return nil
}

// columnHistory is the non-null values of key, oldest first.
func columnHistory(rows []models.Record, key string) []float64 {
	var out []float64
	for _, r := range rows {
		if v := series.ToNumber(r[key]); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// growthHistory picks the first growth column whose history yields a YoY
// average: Owner's Earnings, then FCF, then EPS. Nil when none does.
func growthHistory(schema *series.Schema, rows []models.Record) []float64 {
	for _, a := range GrowthColumns {
		key, ok := schema.Resolve(a)
		if !ok {
			continue
		}
		h := columnHistory(rows, key)
		if _, ok := AverageGrowth(h, GrowthLookback); ok {
			return h
		}
	}
	return nil
}

// RunForSymbol values one symbol from the ratio rows: sector inference,
// the growth table, the DCF, and the historical-multiple cross-check.
func RunForSymbol(symbol string, rs models.RecordSet) (*Result, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	rows := FilterSymbol(rs, sym)
	if rows.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, sym)
	}

	sector := InferSector(sym, rows.Records)
	schema := series.NewSchema(rows)

	fcfKey, ok := schema.Resolve(series.AliasFCF)
	if !ok {
		return nil, fmt.Errorf("valuation %s: %w", sym, ErrNoFCF)
	}

	input := DCFInput{
		History:        columnHistory(rows.Records, fcfKey),
		GrowthHistory:  growthHistory(schema, rows.Records),
		TerminalGrowth: TerminalGrowth(sector),
	}
	if key, ok := schema.Resolve(series.AliasWACC); ok {
		if w := lastValue(rows.Records, key); w != nil {
			input.WACC = *w
		}
	}

	var shares *float64
	for _, c := range ShareColumns {
		if shares = lastValue(rows.Records, c); shares != nil {
			break
		}
	}
	if shares != nil {
		input.Shares = *shares
	}

	dcf, err := CalculateDCF(input)
	if err != nil {
		return nil, fmt.Errorf("valuation %s: %w", sym, err)
	}

	return &Result{
		Symbol:                 sym,
		Sector:                 sector,
		TerminalGrowthUsed:     dcf.TerminalGrowth,
		WACCUsed:               dcf.WACC,
		GrowthStart:            dcf.GrowthStart,
		IntrinsicEquityValue:   dcf.EquityValue,
		IntrinsicValuePerShare: dcf.SharePrice,
		SharesOutstanding:      shares,
		GrowthTable:            GrowthTable(rows),
		CashflowsForecast:      dcf.CashflowsForecast,
		PVCashflows:            dcf.PVCashflows,
		PVTerminalValue:        dcf.PVTerminal,
		Relative:               CalculateHistoricalMultiples(rows),
	}, nil
}
