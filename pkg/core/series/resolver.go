package series

import (
	"sort"
	"strings"
	"sync"

	"financial_dashboard/pkg/models"
)

// NormalizeKey lower-cases k and drops every character outside [a-z0-9],
// so "Return on Equity", "return_on_equity" and "ReturnOnEquity" collapse
// to the same token.
func NormalizeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveKey finds the record key matching the first usable candidate.
// Pass one is an exact match in candidate order, pass two a normalized match
// in candidate order. The returned key is always one of sample's own keys.
func ResolveKey(sample models.Record, candidates []string) (string, bool) {
	keys := make([]string, 0, len(sample))
	for k := range sample {
		keys = append(keys, k)
	}
	return resolveAmong(keys, candidates)
}

func resolveAmong(keys []string, candidates []string) (string, bool) {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	for _, c := range candidates {
		if present[c] {
			return c, true
		}
	}

	// Several keys may normalize to the same token; the lexicographically
	// smallest one wins so map iteration order never leaks into the result.
	byNorm := make(map[string]string, len(keys))
	for _, k := range keys {
		n := NormalizeKey(k)
		if n == "" {
			continue
		}
		if prev, ok := byNorm[n]; !ok || k < prev {
			byNorm[n] = k
		}
	}
	for _, c := range candidates {
		if hit, ok := byNorm[NormalizeKey(c)]; ok {
			return hit, true
		}
	}
	return "", false
}

// Schema is the negotiated key set of one RecordSet. Alias resolutions are
// cached for the lifetime of the schema, which is one render cycle.
type Schema struct {
	sample  models.Record
	keys    []string
	columns []string

	mu       sync.Mutex
	resolved map[string]resolution
}

type resolution struct {
	key string
	ok  bool
}

// NewSchema negotiates against the first record of rs. Callers pass a sorted
// record set so the sample is the earliest year.
func NewSchema(rs models.RecordSet) *Schema {
	s := &Schema{
		sample:   models.Record{},
		columns:  rs.Columns,
		resolved: make(map[string]resolution),
	}
	if len(rs.Records) > 0 {
		s.sample = rs.Records[0]
	}
	for k := range s.sample {
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)
	return s
}

// Resolve returns the record key for an alias set, resolving it at most once.
func (s *Schema) Resolve(a AliasSet) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resolved[a.Name]; ok {
		return r.key, r.ok
	}
	key, ok := resolveAmong(s.keys, a.Candidates)
	s.resolved[a.Name] = resolution{key: key, ok: ok}
	return key, ok
}

// Negotiate resolves every alias set up front and returns the ones present.
func (s *Schema) Negotiate(sets []AliasSet) map[string]string {
	out := make(map[string]string, len(sets))
	for _, a := range sets {
		if key, ok := s.Resolve(a); ok {
			out[a.Name] = key
		}
	}
	return out
}

// Keys returns the sample record's keys in sorted order.
func (s *Schema) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Columns returns the payload column order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}
