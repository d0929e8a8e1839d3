package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"financial_dashboard/pkg/models"
)

var (
	// ErrDuplicateYear is returned when two records share a year label.
	ErrDuplicateYear = errors.New("duplicate year label")
	// ErrEmptyRecordSet is returned when a record set has no rows.
	ErrEmptyRecordSet = errors.New("record set is empty")
)

// YearLabel returns the record's year in string form, or "" when absent.
func YearLabel(r models.Record) string {
	v, ok := r[models.YearField]
	if !ok || v == nil {
		return ""
	}
	switch y := v.(type) {
	case string:
		return strings.TrimSpace(y)
	case float64:
		return strconv.FormatFloat(y, 'f', -1, 64)
	case int:
		return strconv.Itoa(y)
	case int64:
		return strconv.FormatInt(y, 10)
	default:
		return fmt.Sprint(y)
	}
}

// compareYears orders numerically when both labels are numbers, otherwise
// falls back to plain string comparison.
func compareYears(a, b string) int {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil && !math.IsNaN(na) && !math.IsNaN(nb) {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// SortRecords returns a copy of rs ordered by ascending year.
func SortRecords(rs models.RecordSet) models.RecordSet {
	sorted := make([]models.Record, len(rs.Records))
	copy(sorted, rs.Records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareYears(YearLabel(sorted[i]), YearLabel(sorted[j])) < 0
	})
	return models.RecordSet{Records: sorted, Columns: rs.Columns}
}

// ValidateRecordSet checks that rs is non-empty and its year labels are unique.
func ValidateRecordSet(rs models.RecordSet) error {
	if len(rs.Records) == 0 {
		return ErrEmptyRecordSet
	}
	seen := make(map[string]int, len(rs.Records))
	for i, r := range rs.Records {
		y := YearLabel(r)
		if j, dup := seen[y]; dup {
			return fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateYear, y, j, i)
		}
		seen[y] = i
	}
	return nil
}

// MetricColumns returns the payload columns minus Year and the symbol fields.
func MetricColumns(rs models.RecordSet) []string {
	out := make([]string, 0, len(rs.Columns))
	for _, c := range rs.Columns {
		if c == models.YearField || models.IsSymbolField(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// NumericKeys returns metric columns that carry a finite number in at least
// one record.
func NumericKeys(rs models.RecordSet) []string {
	var out []string
	for _, k := range MetricColumns(rs) {
		for _, r := range rs.Records {
			if ToNumber(r[k]) != nil {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// LastTwo returns the most recent record and the one before it (nil when the
// set has a single row). rs must already be sorted.
func LastTwo(rs models.RecordSet) (current, prior models.Record) {
	n := len(rs.Records)
	if n == 0 {
		return nil, nil
	}
	current = rs.Records[n-1]
	if n > 1 {
		prior = rs.Records[n-2]
	}
	return current, prior
}

// RowsToRatios pivots records into metric -> year -> value.
func RowsToRatios(rs models.RecordSet) models.Ratios {
	out := models.Ratios{}
	for _, r := range rs.Records {
		y := YearLabel(r)
		for k, v := range r {
			if k == models.YearField || models.IsSymbolField(k) {
				continue
			}
			if out[k] == nil {
				out[k] = map[string]interface{}{}
			}
			out[k][y] = v
		}
	}
	return out
}
