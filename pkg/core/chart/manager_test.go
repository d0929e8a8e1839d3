package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineSpec(id string, labels []string, series ...string) Spec {
	s := Spec{ID: id, Kind: KindLine, Labels: labels}
	for _, name := range series {
		s.Datasets = append(s.Datasets, Dataset{Label: name, Kind: KindLine, Axis: AxisDefault, Data: make([]*float64, len(labels))})
	}
	return s
}

func TestManager_CreateUpdateReplace(t *testing.T) {
	rec := &RecordingBackend{}
	m := NewManager(rec, nil)

	act, err := m.Render(lineSpec("c1", []string{"2021", "2022"}, "ROE"))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, act)

	act, err = m.Render(lineSpec("c1", []string{"2021", "2022"}, "ROE"))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, act)
	inst, ok := m.Get("c1")
	require.True(t, ok)
	assert.Equal(t, 2, inst.Revision)

	// one more year changes cardinality
	act, err = m.Render(lineSpec("c1", []string{"2021", "2022", "2023"}, "ROE"))
	require.NoError(t, err)
	assert.Equal(t, ActionReplaced, act)

	// a different series set changes shape too
	act, err = m.Render(lineSpec("c1", []string{"2021", "2022", "2023"}, "ROE", "ROA"))
	require.NoError(t, err)
	assert.Equal(t, ActionReplaced, act)

	assert.Equal(t, []Event{
		{"create", "c1"},
		{"update", "c1"},
		{"destroy", "c1"},
		{"create", "c1"},
		{"destroy", "c1"},
		{"create", "c1"},
	}, rec.Events())
	assert.Equal(t, []string{"c1"}, rec.Live())
}

func TestManager_DestroyPrefix(t *testing.T) {
	rec := &RecordingBackend{}
	m := NewManager(rec, nil)
	for _, id := range []string{"g_roe", "g_fcf", CombinedID} {
		_, err := m.Render(lineSpec(id, []string{"2021"}, "x"))
		require.NoError(t, err)
	}

	n, err := m.DestroyPrefix(GroupPrefix)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{CombinedID}, m.IDs())
	assert.Equal(t, []string{CombinedID}, rec.Live())

	require.NoError(t, m.Reset())
	assert.Empty(t, m.IDs())
	assert.Empty(t, rec.Live())
}

func TestManager_RejectsEmptyID(t *testing.T) {
	m := NewManager(nil, nil)
	_, err := m.Render(Spec{})
	assert.Error(t, err)
	assert.NoError(t, m.Destroy("missing"))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Free Cash Flow (FCF)": "free-cash-flow-fcf",
		"Owner's Earnings":     "owner-s-earnings",
		"  ROE ":               "roe",
		"P/E":                  "p-e",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
