package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/models"
)

func TestCompareKPI_HigherIsBetter(t *testing.T) {
	cur := models.Record{"Year": "2023", "EBITDA Margin": 120.0}
	prior := models.Record{"Year": "2022", "EBITDA Margin": 100.0}

	res := CompareKPI(cur, prior, "EBITDA Margin", false)
	require.True(t, res.HasTarget())
	assert.InDelta(t, 120.0, *res.Percent, 1e-9)
	assert.True(t, res.Favorable)
	assert.Equal(t, "120.00% of target", res.Badge)
	assert.InDelta(t, 120.0, res.FillPct, 1e-9)
	assert.Equal(t, "2023", res.CurrentYear)
	assert.Equal(t, "2022", res.PriorYear)
}

func TestCompareKPI_LowerIsBetter(t *testing.T) {
	cur := models.Record{"Year": "2023", "WACC": 0.08}
	prior := models.Record{"Year": "2022", "WACC": 0.10}

	res := CompareKPI(cur, prior, "WACC", true)
	require.True(t, res.HasTarget())
	assert.InDelta(t, 80.0, *res.Percent, 1e-9)
	assert.True(t, res.Favorable)

	worse := CompareKPI(prior, cur, "WACC", true)
	assert.False(t, worse.Favorable)
}

func TestCompareKPI_FillClampedTextNot(t *testing.T) {
	res := CompareKPI(
		models.Record{"Year": "2023", "m": 300.0},
		models.Record{"Year": "2022", "m": 100.0},
		"m", false)
	assert.Equal(t, MaxFillPct, res.FillPct)
	assert.Equal(t, "300.00% of target", res.Badge)

	neg := CompareKPI(
		models.Record{"Year": "2023", "m": -50.0},
		models.Record{"Year": "2022", "m": 100.0},
		"m", false)
	assert.Equal(t, MinFillPct, neg.FillPct)
	assert.InDelta(t, -50.0, *neg.Percent, 1e-9)
}

func TestCompareKPI_NoTarget(t *testing.T) {
	cases := []struct {
		name       string
		cur, prior models.Record
	}{
		{"zero prior", models.Record{"m": 5.0}, models.Record{"m": 0.0}},
		{"missing prior", models.Record{"m": 5.0}, models.Record{}},
		{"unparseable current", models.Record{"m": "n/a"}, models.Record{"m": 4.0}},
		{"single record", models.Record{"m": 5.0}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := CompareKPI(tc.cur, tc.prior, "m", false)
			assert.False(t, res.HasTarget())
			assert.Equal(t, "No Target", res.Badge)
			assert.Zero(t, res.FillPct)
		})
	}
}

func TestEvaluateKPIs(t *testing.T) {
	rs := SortRecords(models.NewRecordSet([]models.Record{
		{"Year": "2023", "EBITDA Margin": 30.0, "Gross Profit MArgin": 44.0, "WACC": 0.085},
		{"Year": "2022", "EBITDA Margin": 25.0, "Gross Profit MArgin": 40.0, "WACC": 0.09},
	}))
	results := EvaluateKPIs(rs, NewSchema(rs), DefaultKPIs)
	require.Len(t, results, len(DefaultKPIs))

	byLabel := map[string]KPIResult{}
	for _, r := range results {
		byLabel[r.Label] = r
	}

	gross := byLabel["GROSS PROFIT MARGIN"]
	assert.Equal(t, "Gross Profit MArgin", gross.Key)
	assert.InDelta(t, 110.0, *gross.Percent, 1e-9)

	wacc := byLabel["WACC"]
	assert.True(t, wacc.Favorable)

	net := byLabel["NET PROFIT MARGIN"]
	assert.True(t, net.MetricAbsent)
	assert.Equal(t, "No Target", net.Badge)
	assert.Equal(t, "2023", net.CurrentYear)
}
