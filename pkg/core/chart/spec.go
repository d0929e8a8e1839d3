// Package chart describes dashboard charts as plain data and manages the
// lifecycle of the instances a renderer draws them into.
package chart

import "strings"

// Kind is the drawing style of a chart or dataset.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// Axis identifies which y-axis a dataset is scaled against.
type Axis string

const (
	AxisDefault Axis = "y"
	AxisPct     Axis = "yPct"
	AxisRight   Axis = "yRight"
	AxisCash    Axis = "yCash"
)

// Dataset is one plotted series. A nil entry in Data is a gap.
type Dataset struct {
	Label string     `json:"label"`
	Kind  Kind       `json:"type"`
	Axis  Axis       `json:"yAxisID"`
	Data  []*float64 `json:"data"`
}

// Spec is everything a renderer needs to draw one canvas.
type Spec struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Kind     Kind      `json:"type"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Shape captures the parts of a spec that cannot change on a live instance.
// Two specs with equal shapes differ only in data values and titles.
type Shape struct {
	Kind   Kind
	Points int
	Series string
}

// Shape returns the structural fingerprint of s.
func (s Spec) Shape() Shape {
	parts := make([]string, len(s.Datasets))
	for i, d := range s.Datasets {
		parts[i] = string(d.Kind) + ":" + string(d.Axis) + ":" + d.Label
	}
	return Shape{Kind: s.Kind, Points: len(s.Labels), Series: strings.Join(parts, "|")}
}

// Slug turns a metric name into a canvas-id fragment: lower-case, runs of
// anything outside [a-z0-9] become one dash, no leading or trailing dash.
func Slug(key string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
