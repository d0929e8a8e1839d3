package valuation

import (
	"sort"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/models"
)

// RelativeValuationResult holds prices implied by the company's own
// historical multiples applied to its latest fundamentals.
type RelativeValuationResult struct {
	MedianPE        *float64 `json:"median_pe"`
	MedianPBV       *float64 `json:"median_pbv"`
	LatestEPS       *float64 `json:"latest_eps"`
	LatestPrice     *float64 `json:"latest_price"`
	ImpliedPEPrice  *float64 `json:"implied_pe_price"`
	ImpliedPBVPrice *float64 `json:"implied_pbv_price"`
}

// CalculateHistoricalMultiples derives implied prices from the median P/E and
// P/BV of the sorted rows. Only positive multiples count. The P/BV leg needs
// the latest price, since book value per share is recovered as price / P/BV.
func CalculateHistoricalMultiples(sorted models.RecordSet) RelativeValuationResult {
	var out RelativeValuationResult
	if sorted.Len() == 0 {
		return out
	}
	schema := series.NewSchema(sorted)

	collect := func(a series.AliasSet) ([]float64, *float64) {
		key, ok := schema.Resolve(a)
		if !ok {
			return nil, nil
		}
		var vals []float64
		var last *float64
		for _, r := range sorted.Records {
			v := series.ToNumber(r[key])
			if v == nil {
				continue
			}
			last = v
			if *v > 0 {
				vals = append(vals, *v)
			}
		}
		return vals, last
	}

	peVals, _ := collect(series.AliasPE)
	pbvVals, lastPBV := collect(series.AliasPBV)
	_, out.LatestEPS = collect(series.AliasEPS)
	_, out.LatestPrice = collect(series.AliasPrice)

	out.MedianPE = median(peVals)
	out.MedianPBV = median(pbvVals)

	if out.MedianPE != nil && out.LatestEPS != nil {
		out.ImpliedPEPrice = series.Float(*out.MedianPE * *out.LatestEPS)
	}
	if out.MedianPBV != nil && out.LatestPrice != nil && lastPBV != nil && *lastPBV > 0 {
		bvps := *out.LatestPrice / *lastPBV
		out.ImpliedPBVPrice = series.Float(*out.MedianPBV * bvps)
	}
	return out
}

func median(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return series.Float(s[n/2])
	}
	return series.Float((s[n/2-1] + s[n/2]) / 2)
}
