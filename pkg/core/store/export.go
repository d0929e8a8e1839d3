// Package store persists computed results: CSV/JSON exports for the
// dashboard and an optional Postgres snapshot per symbol.
package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"financial_dashboard/pkg/core/valuation"
	"financial_dashboard/pkg/models"
)

const (
	// SymbolColumn is the identity column stamped on exported rows.
	SymbolColumn = "Stock Symbol"
	// ExportPlaces is the rounding applied to exported numbers.
	ExportPlaces = 4

	ResultJSON    = "result.json"
	ResultCSV     = "result.csv"
	ValuationJSON = "valuation.json"
	ValuationCSV  = "valuation.csv"
)

// ValuationColumns are the columns of valuation.csv.
var ValuationColumns = []string{
	SymbolColumn,
	"Sector",
	"WACC Used",
	"Terminal Growth Used",
	"Intrinsic Equity Value",
	"Intrinsic Value / Share",
	"Shares Outstanding",
}

// Exporter writes result and valuation files into one directory.
type Exporter struct {
	dir string
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Dir returns the export directory.
func (e *Exporter) Dir() string { return e.dir }

// PrepareResults stamps symbol on every row, rounds numbers to ExportPlaces
// and orders columns with the symbol and Year first. rs is not modified.
func PrepareResults(symbol string, rs models.RecordSet) models.RecordSet {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	out := make([]models.Record, len(rs.Records))
	for i, r := range rs.Records {
		row := make(models.Record, len(r)+1)
		for k, v := range r {
			if f, ok := v.(float64); ok {
				v = roundValue(f)
			}
			row[k] = v
		}
		row[SymbolColumn] = symbol
		out[i] = row
	}
	cols := []string{SymbolColumn, models.YearField}
	for _, c := range rs.Columns {
		if c != SymbolColumn && c != models.YearField {
			cols = append(cols, c)
		}
	}
	return models.NewRecordSet(out, cols...)
}

// WriteResults writes result.json and result.csv and returns their paths.
func (e *Exporter) WriteResults(rs models.RecordSet) ([]string, error) {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	jsonPath := filepath.Join(e.dir, ResultJSON)
	if err := writeAtomic(jsonPath, data); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(rs.Records))
	for _, r := range rs.Records {
		row := make([]string, len(rs.Columns))
		for i, c := range rs.Columns {
			row[i] = cellString(r[c])
		}
		rows = append(rows, row)
	}
	csvPath := filepath.Join(e.dir, ResultCSV)
	if err := writeCSV(csvPath, rs.Columns, rows); err != nil {
		return nil, err
	}
	return []string{jsonPath, csvPath}, nil
}

// WriteValuation writes valuation.json (full results) and valuation.csv
// (summary columns) and returns their paths.
func (e *Exporter) WriteValuation(results []*valuation.Result) ([]string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal valuation: %w", err)
	}
	jsonPath := filepath.Join(e.dir, ValuationJSON)
	if err := writeAtomic(jsonPath, data); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			r.Symbol,
			r.Sector,
			cellString(r.WACCUsed),
			cellString(r.TerminalGrowthUsed),
			cellString(r.IntrinsicEquityValue),
			optString(r.IntrinsicValuePerShare),
			optString(r.SharesOutstanding),
		})
	}
	csvPath := filepath.Join(e.dir, ValuationCSV)
	if err := writeCSV(csvPath, ValuationColumns, rows); err != nil {
		return nil, err
	}
	return []string{jsonPath, csvPath}, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return writeAtomic(path, buf.Bytes())
}

func roundValue(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	v, _ := decimal.NewFromFloat(f).Round(ExportPlaces).Float64()
	return v
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return decimal.NewFromFloat(t).Round(ExportPlaces).String()
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func optString(v *float64) string {
	if v == nil {
		return ""
	}
	return cellString(*v)
}
