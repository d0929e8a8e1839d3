package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// YearField is the distinguished key identifying a record's fiscal year.
const YearField = "Year"

// SymbolFields are identity columns that never carry a metric.
var SymbolFields = []string{"Stock Symbol", "Symbol", "symbol"}

// Record is one fiscal year of loosely-typed financial metrics.
// Values are whatever JSON decoding produced: float64, string, bool or nil.
type Record map[string]interface{}

// RecordSet is an ordered sequence of records plus the column order in which
// keys first appeared in the payload. Go maps do not keep insertion order, so
// Columns is what table and grouped-chart views use to pick "the first N" metrics.
type RecordSet struct {
	Records []Record
	Columns []string
}

// NewRecordSet builds a RecordSet. Keys not named in columns are appended in
// sorted order so the column list always covers every key.
func NewRecordSet(records []Record, columns ...string) RecordSet {
	seen := make(map[string]bool, len(columns))
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	var extra []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return RecordSet{Records: records, Columns: append(cols, extra...)}
}

// Len returns the number of records.
func (rs RecordSet) Len() int { return len(rs.Records) }

// IsSymbolField reports whether k is one of the identity columns.
func IsSymbolField(k string) bool {
	for _, s := range SymbolFields {
		if k == s {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes an array of objects while remembering key order.
func (rs *RecordSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("record set: %w", err)
	}
	if tok == nil {
		*rs = RecordSet{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("record set: expected array, got %v", tok)
	}

	out := RecordSet{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("record set: %w", err)
		}
		if tok == nil {
			continue
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return fmt.Errorf("record set: expected object, got %v", tok)
		}

		rec := Record{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return fmt.Errorf("record set: %w", err)
			}
			key, ok := kt.(string)
			if !ok {
				return fmt.Errorf("record set: unexpected key token %v", kt)
			}
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return fmt.Errorf("record set: value for %q: %w", key, err)
			}
			rec[key] = v
			if !seen[key] {
				seen[key] = true
				out.Columns = append(out.Columns, key)
			}
		}
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("record set: %w", err)
		}
		out.Records = append(out.Records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("record set: %w", err)
	}

	*rs = out
	return nil
}

// MarshalJSON writes records with keys in column order.
func (rs RecordSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range rs.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		first := true
		writeField := func(k string, v interface{}) error {
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			vb, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("record set: marshal %q: %w", k, err)
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
			return nil
		}

		written := make(map[string]bool, len(rec))
		for _, k := range rs.Columns {
			v, ok := rec[k]
			if !ok {
				continue
			}
			if err := writeField(k, v); err != nil {
				return nil, err
			}
			written[k] = true
		}
		var rest []string
		for k := range rec {
			if !written[k] {
				rest = append(rest, k)
			}
		}
		sort.Strings(rest)
		for _, k := range rest {
			if err := writeField(k, rec[k]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Statement maps a fiscal year label to that year's line items, the shape of
// each section in a statements file.
type Statement map[string]Record

// Years returns the statement's year labels in ascending order.
func (s Statement) Years() []string {
	out := make([]string, 0, len(s))
	for y := range s {
		out = append(out, y)
	}
	sort.Strings(out)
	return out
}

// Statements is a company's statements file after section picking.
type Statements struct {
	Income    Statement
	Balance   Statement
	CashFlow  Statement
	BasicInfo map[string]interface{}
}
