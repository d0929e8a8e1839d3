package calc

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

func sampleYear() (income, balance, cashflow models.Record) {
	income = models.Record{
		"Revenue":                       1000.0,
		"Gross Profit":                  400.0,
		"Operating Income":              200.0,
		"Net Income":                    150.0,
		"EBITDA":                        250.0,
		"Depreciation and Amortization": 50.0,
		"Weighted Average Shares":       100.0,
		"price":                         30.0,
	}
	balance = models.Record{
		"Total Shareholder Equity":  800.0,
		"Total Debt":                200.0,
		"Total Assets":              1500.0,
		"Cash and Cash Equivalents": 100.0,
		"Short Term Investments":    50.0,
		"Total Current Assets":      600.0,
		"Total Current Liabilities": 300.0,
	}
	cashflow = models.Record{
		"Change in Working Capital":     -20.0,
		"Capital Expenditure":           70.0,
		"Depreciation and Amortization": "55",
		"Stock Based Compensation":      10.0,
		"Interest Paid":                 -10.0,
	}
	return income, balance, cashflow
}

func value(t *testing.T, fn func() (float64, error)) float64 {
	t.Helper()
	v, err := fn()
	require.NoError(t, err)
	return v
}

func TestModel_Ratios(t *testing.T) {
	income, balance, cashflow := sampleYear()
	m := NewModel(income, balance, cashflow, nil, DefaultAssumptions())

	tests := []struct {
		name string
		fn   func() (float64, error)
		want float64
	}{
		{"ROE", m.ROE, 18.75},
		{"ROA", m.ROA, 10},
		{"ROIC", m.ROIC, 250 * 0.79 / 900 * 100},
		{"Gross margin", m.GrossProfitMargin, 40},
		{"Operating margin", m.OperatingProfitMargin, 20},
		{"Net margin", m.NetProfitMargin, 15},
		{"EBITDA margin", m.EBITDAMargin, 25},
		{"WACC", m.WACC, 0.0759},
		{"OCF", m.OperatingCashFlow, 190},
		{"FCF", m.FreeCashFlow, 120},
		{"UFCF", m.UnleveredFreeCashFlow, 158},
		{"Owner earnings", m.OwnersEarnings, 155},
		{"EPS", m.EPS, 1.5},
		{"PE", m.PE, 20},
		{"PBV", m.PBV, 3.75},
		{"Current ratio", m.CurrentRatio, 2},
		{"Cash ratio", m.CashRatio, 0.5},
		{"Price", m.Price, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value(t, tt.fn); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %s %f, got %f", tt.name, tt.want, got)
			}
		})
	}
	assert.InDelta(t, 0.085, m.CostOfEquity(), 1e-12)
	assert.Equal(t, 10.0, m.InterestPaid())
}

func TestModel_MissingAndZero(t *testing.T) {
	income, balance, cashflow := sampleYear()
	delete(cashflow, "Capital Expenditure")
	balance["Total Current Liabilities"] = 0.0
	delete(income, "price")
	m := NewModel(income, balance, cashflow, nil, DefaultAssumptions())

	_, err := m.FreeCashFlow()
	assert.ErrorIs(t, err, ErrMissingItem)
	var mie *MissingItemError
	require.ErrorAs(t, err, &mie)
	assert.Equal(t, "Capital Expenditure", mie.Item)

	_, err = m.CurrentRatio()
	assert.ErrorIs(t, err, ErrZeroDivision)

	_, err = m.PE()
	assert.ErrorIs(t, err, ErrMissingItem)

	// Basic-info price fills in.
	m = NewModel(income, balance, cashflow, series.Float(45), DefaultAssumptions())
	assert.Equal(t, 30.0, value(t, m.PE))
}

func TestModel_LooseItemNames(t *testing.T) {
	m := NewModel(
		models.Record{"net income": "1.5K", "REVENUE": "10,000"},
		nil, nil, nil, DefaultAssumptions(),
	)
	assert.InDelta(t, 15.0, value(t, m.NetProfitMargin), 1e-9)
}

func TestWACC_NoCapital(t *testing.T) {
	income, _, cashflow := sampleYear()
	m := NewModel(income, models.Record{"Total Assets": 10.0}, cashflow, nil, DefaultAssumptions())
	_, err := m.WACC()
	assert.Error(t, err)
}

func TestParseYears(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseYears("2020-2030", now)
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021, 2022, 2023, 2024}, got)

	got, err = ParseYears(" 2019, 1985,2017,2019 ", now)
	require.NoError(t, err)
	assert.Equal(t, []int{2017, 2019}, got)

	got, err = ParseYears("", now)
	require.NoError(t, err)
	assert.Equal(t, MinYear, got[0])
	assert.Equal(t, 2024, got[len(got)-1])

	_, err = ParseYears("1900-1950", now)
	assert.ErrorIs(t, err, ErrNoValidYears)

	_, err = ParseYears("abc", now)
	assert.Error(t, err)
}

func TestParseYears_WideAndReversedRanges(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseYears("1-2000000000", now)
	require.NoError(t, err)
	assert.Len(t, got, 2025-MinYear+1)
	assert.Equal(t, MinYear, got[0])
	assert.Equal(t, 2025, got[len(got)-1])

	allocs := testing.AllocsPerRun(5, func() {
		_, _ = ParseYears("1-2000000000", now)
	})
	assert.Less(t, allocs, 100.0)

	_, err = ParseYears("2024-2020", now)
	assert.ErrorIs(t, err, ErrNoValidYears)

	_, err = ParseYears("2030-2040", now)
	assert.ErrorIs(t, err, ErrNoValidYears)
}

func TestCalculateRatiosByYear(t *testing.T) {
	i23, b23, c23 := sampleYear()
	i22, b22, c22 := sampleYear()
	delete(i22, "EBITDA")
	delete(i22, "price")

	st := models.Statements{
		Income:    models.Statement{"2022": i22, "2023": i23, "2024": {"Revenue": 1.0}},
		Balance:   models.Statement{"2022": b22, "2023": b23},
		CashFlow:  models.Statement{"2022": c22, "2023": c23, "2024": {}},
		BasicInfo: map[string]interface{}{"Prices": map[string]interface{}{"2022": 24.0}},
	}

	rs, err := CalculateRatiosByYear(st, nil, DefaultAssumptions(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, "2022", rs.Records[0]["Year"])
	assert.Equal(t, "Year", rs.Columns[0])
	assert.Equal(t, MetricROE, rs.Columns[1])

	y22 := rs.Records[0]
	_, hasMargin := y22[MetricEBITDAMargin]
	assert.False(t, hasMargin, "metric without inputs is absent")
	_, hasROIC := y22[MetricROIC]
	assert.False(t, hasROIC)
	assert.Equal(t, 24.0, y22[MetricPrice])
	assert.Equal(t, 16.0, y22[MetricPE])
	assert.Equal(t, 18.75, y22[MetricROE])

	rs, err = CalculateRatiosByYear(st, []int{2023}, DefaultAssumptions(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, "2023", rs.Records[0]["Year"])

	_, err = CalculateRatiosByYear(st, []int{2010}, DefaultAssumptions(), nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestCheckBalanceSheets(t *testing.T) {
	bs := models.Statement{
		"2021": {"Total Assets": 1000.0, "Total Liabilities": 600.0, "Total Shareholder Equity": 400.0},
		"2022": {"Total Assets": "1,000", "total liabilities": 600.0, "Total Shareholder Equity": 390.0},
		"2023": {"Total Assets": 1000.0},
		"2024": {"Total Assets": 0.0, "Total Liabilities": 5.0, "Total Shareholder Equity": 0.0},
	}

	checks := CheckBalanceSheets(bs)
	require.Len(t, checks, 3)

	assert.Equal(t, "2021", checks[0].Year)
	assert.True(t, checks[0].Within(DefaultBalanceTolerance))

	assert.Equal(t, 10.0, checks[1].Diff)
	assert.InDelta(t, 1.0, checks[1].DiffPercent, 1e-12)
	assert.False(t, checks[1].Within(DefaultBalanceTolerance))
	assert.True(t, checks[1].Within(1.0))

	assert.Equal(t, "2024", checks[2].Year)
	assert.True(t, math.IsInf(checks[2].DiffPercent, 1))
}
