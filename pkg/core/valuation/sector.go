package valuation

import (
	"strings"

	"financial_dashboard/pkg/models"
)

// SectorOther is used when nothing better is known.
const SectorOther = "Other"

// sectorGrowth is checked in order; the first name contained in the sector wins.
var sectorGrowth = []struct {
	Name   string
	Growth float64
}{
	{"Technology", 0.03},
	{"Information Technology", 0.03},
	{"Financials", 0.025},
	{"Finance", 0.025},
	{"Real Estate", 0.02},
	{"REIT", 0.02},
	{SectorOther, 0.025},
}

// SymbolSectors is consulted when the rows carry no Sector column.
var SymbolSectors = map[string]string{
	"AAPL": "Technology", "MSFT": "Technology", "NVDA": "Technology",
	"AMD": "Technology", "GOOGL": "Technology",
	"KBANK": "Financials", "SCB": "Financials", "BBL": "Financials",
	"CPN": "Real Estate", "LH": "Real Estate", "QH": "Real Estate",
}

// InferSector takes the last non-empty Sector value in rows, then the symbol
// map, then SectorOther.
func InferSector(symbol string, rows []models.Record) string {
	for i := len(rows) - 1; i >= 0; i-- {
		if s, ok := rows[i]["Sector"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if s, ok := SymbolSectors[strings.ToUpper(symbol)]; ok {
		return s
	}
	return SectorOther
}

// TerminalGrowth returns the long-run growth rate for a sector, matching
// names case-insensitively by substring.
func TerminalGrowth(sector string) float64 {
	lower := strings.ToLower(sector)
	for _, sg := range sectorGrowth {
		if strings.Contains(lower, strings.ToLower(sg.Name)) {
			return sg.Growth
		}
	}
	return sectorGrowth[len(sectorGrowth)-1].Growth
}
