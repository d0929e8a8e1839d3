package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/models"
)

func TestCostOfEquity_Defaults(t *testing.T) {
	ke := CostOfEquity(CAPMInput{RiskFreeRate: DefaultRiskFreeRate, Beta: DefaultBeta})
	assert.InDelta(t, 0.085, ke, 1e-12)

	ke = CostOfEquity(CAPMInput{RiskFreeRate: 0.02, Beta: 1.5, MarketReturns: []float64{0.08}})
	assert.InDelta(t, 0.11, ke, 1e-12)
}

func TestCalculateWACC(t *testing.T) {
	res, err := CalculateWACC(WACCInput{
		Equity:       800,
		Debt:         200,
		InterestPaid: 10,
		TaxRate:      DefaultTaxRate,
		CostOfEquity: 0.085,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0395, res.CostOfDebt, 1e-12)
	assert.Equal(t, 0.0759, res.WACC)
	assert.InDelta(t, 0.8, res.WeightEquity, 1e-12)

	// No debt: WACC is the cost of equity.
	res, err = CalculateWACC(WACCInput{Equity: 500, CostOfEquity: 0.085})
	require.NoError(t, err)
	assert.Equal(t, 0.085, res.WACC)

	_, err = CalculateWACC(WACCInput{Equity: 0, Debt: -5})
	assert.ErrorIs(t, err, ErrNoCapital)
}

func TestInterestPaid(t *testing.T) {
	assert.Equal(t, 25.0, InterestPaid(-10, 5, 30, 20))
}

func TestAverageGrowth(t *testing.T) {
	g, ok := AverageGrowth([]float64{100, 110, 121}, GrowthLookback)
	require.True(t, ok)
	assert.InDelta(t, 0.10, g, 1e-12)

	// Only the last lookback+1 points count.
	g, ok = AverageGrowth([]float64{1, 1000, 100, 100, 100, 100, 100, 200}, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.2, g, 1e-12)

	_, ok = AverageGrowth([]float64{42}, GrowthLookback)
	assert.False(t, ok)
	_, ok = AverageGrowth([]float64{0, 10}, GrowthLookback)
	assert.False(t, ok)
}

func TestGrowthPath_FadesToTerminal(t *testing.T) {
	path := GrowthPath(0.13, 0.03, 10, true)
	require.Len(t, path, 10)
	assert.InDelta(t, 0.12, path[0], 1e-12)
	assert.InDelta(t, 0.03, path[9], 1e-12)

	flat := GrowthPath(0.13, 0.03, 3, false)
	assert.Equal(t, []float64{0.13, 0.13, 0.13}, flat)
}

func TestCalculateDCF(t *testing.T) {
	res, err := CalculateDCF(DCFInput{
		History:        []float64{100, 110, 121},
		TerminalGrowth: 0.03,
		Shares:         10,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultDiscountRate, res.WACC)
	assert.InDelta(t, 0.10, res.GrowthStart, 1e-12)
	require.Len(t, res.CashflowsForecast, DefaultForecastYears)
	assert.InDelta(t, 121*1.093, res.CashflowsForecast[0], 1e-9)
	assert.InDelta(t, 121*1.093/1.1, res.PVCashflows[0], 1e-9)

	last := res.CashflowsForecast[9]
	wantTV := last * 1.03 / (0.10 - 0.03) / math.Pow(1.1, 10)
	assert.InDelta(t, wantTV, res.PVTerminal, 1e-6)

	var sum float64
	for _, pv := range res.PVCashflows {
		sum += pv
	}
	assert.InDelta(t, sum+res.PVTerminal, res.EquityValue, 1e-6)
	require.NotNil(t, res.SharePrice)
	assert.InDelta(t, res.EquityValue/10, *res.SharePrice, 1e-9)
}

func TestCalculateDCF_GrowthClippedAndDefaulted(t *testing.T) {
	res, err := CalculateDCF(DCFInput{History: []float64{100, 300}, WACC: 0.09, TerminalGrowth: 0.025})
	require.NoError(t, err)
	assert.Equal(t, GrowthCap, res.GrowthStart)
	assert.Equal(t, 0.09, res.WACC)
	assert.Nil(t, res.SharePrice)

	res, err = CalculateDCF(DCFInput{History: []float64{100, 10}, TerminalGrowth: 0.025})
	require.NoError(t, err)
	assert.Equal(t, GrowthFloor, res.GrowthStart)

	res, err = CalculateDCF(DCFInput{History: []float64{50}, TerminalGrowth: 0.025})
	require.NoError(t, err)
	assert.Equal(t, DefaultStartGrowth, res.GrowthStart)
}

func TestCalculateDCF_Errors(t *testing.T) {
	_, err := CalculateDCF(DCFInput{})
	assert.ErrorIs(t, err, ErrNoFCF)

	_, err = CalculateDCF(DCFInput{History: []float64{1, 2}, WACC: 0.02, TerminalGrowth: 0.03})
	assert.ErrorIs(t, err, ErrDiscountBelowGrowth)
}

func TestSector(t *testing.T) {
	assert.Equal(t, "Technology", InferSector("aapl", nil))
	assert.Equal(t, SectorOther, InferSector("ZZZZ", nil))
	rows := []models.Record{{"Sector": "Banks"}, {"Sector": "Real Estate Investment"}, {"Sector": ""}}
	assert.Equal(t, "Real Estate Investment", InferSector("AAPL", rows))

	assert.Equal(t, 0.03, TerminalGrowth("information technology"))
	assert.Equal(t, 0.025, TerminalGrowth("Financials"))
	assert.Equal(t, 0.02, TerminalGrowth("Equity REIT"))
	assert.Equal(t, 0.025, TerminalGrowth("Utilities"))
}

func acmeRows() models.RecordSet {
	return models.NewRecordSet([]models.Record{
		{"Stock Symbol": "ACME", "Year": "2023", "Free Cash Flow (FCF)": 121.0, "WACC": 0.09, "EPS": 2.0, "PE Ratio": 20.0, "Owner's Earnings": 90.0, "Shares Outstanding": 10.0},
		{"Stock Symbol": "ACME", "Year": "2021", "Free Cash Flow (FCF)": 100.0, "WACC": 0.085, "EPS": 1.5, "PE Ratio": 10.0, "Owner's Earnings": 80.0},
		{"Stock Symbol": "ACME", "Year": "2022", "Free Cash Flow (FCF)": 110.0, "WACC": nil, "EPS": 1.8, "PE Ratio": 15.0, "Owner's Earnings": 0.0},
		{"Stock Symbol": "OTHER", "Year": "2023", "Free Cash Flow (FCF)": 5.0},
	}, "Stock Symbol", "Year", "Free Cash Flow (FCF)", "WACC", "EPS", "PE Ratio", "Owner's Earnings")
}

func TestRunForSymbol(t *testing.T) {
	res, err := RunForSymbol("acme", acmeRows())
	require.NoError(t, err)

	assert.Equal(t, "ACME", res.Symbol)
	assert.Equal(t, SectorOther, res.Sector)
	assert.Equal(t, 0.025, res.TerminalGrowthUsed)
	assert.Equal(t, 0.09, res.WACCUsed)
	require.NotNil(t, res.SharesOutstanding)
	assert.Equal(t, 10.0, *res.SharesOutstanding)
	require.NotNil(t, res.IntrinsicValuePerShare)
	assert.InDelta(t, res.IntrinsicEquityValue/10, *res.IntrinsicValuePerShare, 1e-9)

	require.Len(t, res.GrowthTable, 3)
	assert.Equal(t, "2021", res.GrowthTable[0]["Year"])
	assert.Nil(t, res.GrowthTable[0]["Free Cash Flow (FCF) YoY (%)"])
	assert.InDelta(t, 10.0, res.GrowthTable[1]["Free Cash Flow (FCF) YoY (%)"], 1e-9)
	assert.Nil(t, res.GrowthTable[2]["Owner's Earnings YoY (%)"], "zero base has no growth")

	require.NotNil(t, res.Relative.MedianPE)
	assert.Equal(t, 15.0, *res.Relative.MedianPE)
	require.NotNil(t, res.Relative.ImpliedPEPrice)
	assert.Equal(t, 30.0, *res.Relative.ImpliedPEPrice)
	assert.Nil(t, res.Relative.ImpliedPBVPrice)
}

func TestRunForSymbol_Errors(t *testing.T) {
	_, err := RunForSymbol("NOPE", acmeRows())
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	rows := models.NewRecordSet([]models.Record{{"Stock Symbol": "ACME", "Year": "2023", "EPS": 1.0}})
	_, err = RunForSymbol("ACME", rows)
	assert.ErrorIs(t, err, ErrNoFCF)
}

func TestRunForSymbol_StartGrowthSource(t *testing.T) {
	row := func(year string, oe, fcf, eps interface{}) models.Record {
		return models.Record{"Stock Symbol": "ACME", "Year": year, "Owner's Earnings": oe, "Free Cash Flow (FCF)": fcf, "EPS": eps, "WACC": 0.09}
	}
	cols := []string{"Stock Symbol", "Year", "Owner's Earnings", "Free Cash Flow (FCF)", "EPS", "WACC"}

	tests := []struct {
		name string
		rows []models.Record
		want float64
	}{
		{"owner earnings first", []models.Record{
			row("2021", 100.0, 100.0, 1.0),
			row("2022", 110.0, 120.0, 1.0),
			row("2023", 121.0, 144.0, 1.0),
		}, 0.10},
		{"fcf when owner earnings has no steps", []models.Record{
			row("2021", nil, 100.0, 1.0),
			row("2022", nil, 120.0, 1.0),
			row("2023", 50.0, 144.0, 1.0),
		}, 0.20},
		{"eps last", []models.Record{
			row("2022", 0.0, nil, 2.0),
			row("2023", 9.0, 144.0, 2.1),
		}, 0.05},
		{"default without history", []models.Record{
			row("2023", nil, 144.0, nil),
		}, DefaultStartGrowth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RunForSymbol("ACME", models.NewRecordSet(tt.rows, cols...))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.GrowthStart, 1e-9)
			g1 := GrowthPath(res.GrowthStart, res.TerminalGrowthUsed, DefaultForecastYears, true)[0]
			assert.InDelta(t, 144*(1+g1), res.CashflowsForecast[0], 1e-9, "FCF stays the discounted flow")
		})
	}
}
