package calc

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

// MinYear is the earliest fiscal year accepted from user input.
const MinYear = 1990

// ErrNoValidYears is returned when a years argument leaves nothing after filtering.
var ErrNoValidYears = errors.New("no valid years after filtering")

// ParseYears accepts "2015-2025", "2017,2018,2020" or "" (MinYear through the
// current year). Years outside [MinYear, now.Year()] are dropped; ranges are
// clamped before expansion. The result is sorted and unique.
func ParseYears(arg string, now time.Time) ([]int, error) {
	current := now.Year()
	arg = strings.TrimSpace(arg)

	var years []int
	switch {
	case arg == "":
		for y := MinYear; y <= current; y++ {
			years = append(years, y)
		}
		return years, nil
	case strings.Contains(arg, "-"):
		a, b, _ := strings.Cut(arg, "-")
		start, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("parse years %q: %w", arg, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("parse years %q: %w", arg, err)
		}
		if start > end {
			return nil, fmt.Errorf("parse years %q: %w", arg, ErrNoValidYears)
		}
		start, end = max(start, MinYear), min(end, current)
		for y := start; y <= end; y++ {
			years = append(years, y)
		}
	default:
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			y, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("parse years %q: %w", arg, err)
			}
			years = append(years, y)
		}
	}

	seen := make(map[int]bool, len(years))
	var out []int
	for _, y := range years {
		if y < MinYear || y > current || seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("parse years %q: %w", arg, ErrNoValidYears)
	}
	sort.Ints(out)
	return out, nil
}

// metric binds an output column to the model method that computes it.
type metric struct {
	name string
	fn   func(*Model) (float64, error)
}

// metrics is the output column order of a result row.
var metrics = []metric{
	{MetricROE, (*Model).ROE},
	{MetricROA, (*Model).ROA},
	{MetricEBITDAMargin, (*Model).EBITDAMargin},
	{MetricNetProfitMargin, (*Model).NetProfitMargin},
	{MetricGrossProfitMargin, (*Model).GrossProfitMargin},
	{MetricOperatingProfitMargin, (*Model).OperatingProfitMargin},
	{MetricWACC, (*Model).WACC},
	{MetricCostOfEquity, func(m *Model) (float64, error) { return m.CostOfEquity(), nil }},
	{MetricUFCF, (*Model).UnleveredFreeCashFlow},
	{MetricOCF, (*Model).OperatingCashFlow},
	{MetricFCF, (*Model).FreeCashFlow},
	{MetricCurrentRatio, (*Model).CurrentRatio},
	{MetricCashRatio, (*Model).CashRatio},
	{MetricEPS, (*Model).EPS},
	{MetricPE, (*Model).PE},
	{MetricOwnerEarnings, (*Model).OwnersEarnings},
	{MetricROIC, (*Model).ROIC},
	{MetricPBV, (*Model).PBV},
	{MetricPrice, (*Model).Price},
}

// MetricNames returns the result columns in output order.
func MetricNames() []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.name
	}
	return out
}

// YearPrice reads Basic Info "Prices" for a year.
func YearPrice(basic map[string]interface{}, year string) *float64 {
	prices, ok := basic["Prices"].(map[string]interface{})
	if !ok {
		return nil
	}
	return series.ToNumber(prices[year])
}

// CalculateRatiosByYear computes one row per year present in all three
// statements and, when years is non-empty, listed in years. A metric whose
// inputs are missing or whose denominator is zero is left out of that
// year's row; the year itself is kept. Years where a statement is empty are
// skipped.
func CalculateRatiosByYear(st models.Statements, years []int, a Assumptions, logger *zap.Logger) (models.RecordSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wanted := make(map[string]bool, len(years))
	for _, y := range years {
		wanted[strconv.Itoa(y)] = true
	}

	var rows []models.Record
	for _, year := range st.Income.Years() {
		if len(wanted) > 0 && !wanted[year] {
			continue
		}
		income, balance, cashflow := st.Income[year], st.Balance[year], st.CashFlow[year]
		if len(income) == 0 || len(balance) == 0 || len(cashflow) == 0 {
			logger.Debug("incomplete statements for year",
				zap.String("year", year),
				zap.Bool("income", len(income) > 0),
				zap.Bool("balance", len(balance) > 0),
				zap.Bool("cashflow", len(cashflow) > 0),
			)
			continue
		}

		m := NewModel(income, balance, cashflow, YearPrice(st.BasicInfo, year), a)
		row := models.Record{models.YearField: year}
		for _, mt := range metrics {
			v, err := mt.fn(m)
			if err != nil {
				logger.Debug("metric skipped", zap.String("year", year), zap.String("metric", mt.name), zap.Error(err))
				continue
			}
			row[mt.name] = v
		}
		if len(row) == 1 {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return models.RecordSet{}, ErrNoResults
	}
	cols := append([]string{models.YearField}, MetricNames()...)
	return series.SortRecords(models.NewRecordSet(rows, cols...)), nil
}
