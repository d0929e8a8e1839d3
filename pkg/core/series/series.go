package series

import (
	"math"
	"sort"

	"financial_dashboard/pkg/models"
)

// Point is one year of a NumericSeries. A nil Value means "no value".
type Point struct {
	Year  string   `json:"year"`
	Value *float64 `json:"value"`
}

// NumericSeries is a year-aligned sequence of optional numbers for one metric.
type NumericSeries struct {
	Label  string  `json:"label"`
	Key    string  `json:"key,omitempty"`
	Points []Point `json:"points"`
}

// Values returns the optional numbers in order.
func (s NumericSeries) Values() []*float64 {
	out := make([]*float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Present reports whether at least one point carries a value.
func (s NumericSeries) Present() bool {
	for _, p := range s.Points {
		if p.Value != nil {
			return true
		}
	}
	return false
}

// Years extracts the shared x-axis labels of rs.
func Years(rs models.RecordSet) []string {
	out := make([]string, len(rs.Records))
	for i, r := range rs.Records {
		out[i] = YearLabel(r)
	}
	return out
}

// BuildSeries projects key across every record of rs, one point per record.
func BuildSeries(rs models.RecordSet, key, label string) NumericSeries {
	if label == "" {
		label = key
	}
	s := NumericSeries{Label: label, Key: key, Points: make([]Point, len(rs.Records))}
	for i, r := range rs.Records {
		s.Points[i] = Point{Year: YearLabel(r), Value: ToNumber(r[key])}
	}
	return s
}

// BuildAliasSeries resolves a through the schema and builds its series.
// ok is false when the metric is not present in the record set.
func BuildAliasSeries(rs models.RecordSet, schema *Schema, a AliasSet) (NumericSeries, bool) {
	key, ok := schema.Resolve(a)
	if !ok {
		return NumericSeries{}, false
	}
	return BuildSeries(rs, key, a.Name), true
}

// Growth derives year-over-year growth in percent. The first point, points
// with a missing side, and points whose base is zero have no value.
func Growth(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		cur, prev := values[i], values[i-1]
		if cur == nil || prev == nil || *prev == 0 {
			continue
		}
		g := NormalizeZero((*cur - *prev) / math.Abs(*prev) * 100)
		if math.IsNaN(g) || math.IsInf(g, 0) {
			continue
		}
		out[i] = &g
	}
	return out
}

// GrowthSeries applies Growth to s, keeping its year alignment.
func GrowthSeries(s NumericSeries, label string) NumericSeries {
	g := Growth(s.Values())
	out := NumericSeries{Label: label, Key: s.Key, Points: make([]Point, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = Point{Year: p.Year, Value: g[i]}
	}
	return out
}

// RatioPair is two metrics from the ratio map aligned on a common year window.
type RatioPair struct {
	Years  []string      `json:"years"`
	First  NumericSeries `json:"first"`
	Second NumericSeries `json:"second"`
}

// RatioWindow resolves two alias sets against a metric -> year -> value map
// and aligns them on the union of their years, keeping the last lastN.
// ok is false when neither metric resolves.
func RatioWindow(ratios models.Ratios, m1, m2 AliasSet, lastN int) (RatioPair, bool) {
	keys := make([]string, 0, len(ratios))
	for k := range ratios {
		keys = append(keys, k)
	}
	k1, ok1 := resolveAmong(keys, m1.Candidates)
	k2, ok2 := resolveAmong(keys, m2.Candidates)
	if !ok1 && !ok2 {
		return RatioPair{}, false
	}

	yearSet := map[string]bool{}
	for _, k := range []string{k1, k2} {
		if k == "" {
			continue
		}
		for y := range ratios[k] {
			yearSet[y] = true
		}
	}
	years := make([]string, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Strings(years)
	if lastN > 0 && len(years) > lastN {
		years = years[len(years)-lastN:]
	}

	build := func(key, label string) NumericSeries {
		s := NumericSeries{Label: label, Key: key, Points: make([]Point, len(years))}
		for i, y := range years {
			var v *float64
			if key != "" {
				v = ToNumber(ratios[key][y])
			}
			s.Points[i] = Point{Year: y, Value: v}
		}
		return s
	}

	return RatioPair{
		Years:  years,
		First:  build(k1, m1.Name),
		Second: build(k2, m2.Name),
	}, true
}
