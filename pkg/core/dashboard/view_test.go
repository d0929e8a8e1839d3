package dashboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

func TestBuild_DuplicateYear(t *testing.T) {
	resp := &models.FinancialsResponse{Result: models.NewRecordSet([]models.Record{
		{"Year": "2023", "ROE": 1.0},
		{"Year": 2023.0, "ROE": 2.0},
	})}
	_, err := Build(resp, "")
	assert.ErrorIs(t, err, series.ErrDuplicateYear)
	assert.Equal(t, StatusError, StatusFor(err).Kind)
}

func TestResultTable_YearPlusSixteen(t *testing.T) {
	rec := models.Record{"Year": "2023", "Stock Symbol": "ACME"}
	cols := []string{"Year", "Stock Symbol"}
	for i := 0; i < 20; i++ {
		k := fmt.Sprintf("M%02d", i)
		rec[k] = float64(i) * 1e6
		cols = append(cols, k)
	}
	tbl := ResultTable(models.NewRecordSet([]models.Record{rec}, cols...))
	require.Len(t, tbl.Columns, 17)
	assert.Equal(t, "Year", tbl.Columns[0])
	assert.Equal(t, "M00", tbl.Columns[1])
	assert.Equal(t, "M15", tbl.Columns[16])
	assert.Equal(t, "2.00 M", tbl.Rows[0][3])
}

func TestBuild_UsesBackendRatiosWhenPresent(t *testing.T) {
	resp := &models.FinancialsResponse{
		Result: models.NewRecordSet([]models.Record{{"Year": "2023", "ROE": 14.0}}),
		Ratios: models.Ratios{"P/E": {"2022": 20.0, "2023": 18.0}},
	}
	v, err := Build(resp, "Valuation")
	require.NoError(t, err)
	assert.Equal(t, "Valuation", v.RatioTab)
	require.Len(t, v.RatioPair, 2)
	assert.Equal(t, []string{"2022", "2023"}, v.RatioPair[0].Labels)
	assert.Equal(t, "exports/result.json", v.SourceFile)
	assert.Equal(t, "ROE", v.Resolved["ROE"])
}
