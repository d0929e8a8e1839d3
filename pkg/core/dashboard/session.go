package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"financial_dashboard/pkg/core/chart"
	"financial_dashboard/pkg/models"
)

// API is what a session needs from the backend.
type API interface {
	Financials(ctx context.Context, symbol, filename string) (*models.FinancialsResponse, error)
	Analysis(ctx context.Context, rows models.RecordSet) (*models.AnalysisResponse, error)
}

// Session is one user's dashboard. It keeps the last response so tab
// switches re-render without refetching, and owns the chart instances.
//
// Submit does not block a second Submit: whichever response resolves last
// is what the session shows.
type Session struct {
	api    API
	charts *chart.Manager
	logger *zap.Logger

	mu     sync.Mutex
	last   *models.FinancialsResponse
	view   *View
	tab    string
	status Status
}

// NewSession wires a session to an API and a chart manager. A nil manager
// gets a NopBackend one.
func NewSession(api API, charts *chart.Manager, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if charts == nil {
		charts = chart.NewManager(nil, logger)
	}
	return &Session{
		api:    api,
		charts: charts,
		logger: logger,
		tab:    chart.RatioTabs[0].Name,
		status: Status{Kind: StatusInfo, Message: "Enter a symbol or a filename"},
	}
}

// Submit validates the input, fetches once and renders the response.
// Every failure is returned and also recorded as the session status; the
// session stays usable afterwards.
func (s *Session) Submit(ctx context.Context, symbol, filename string) (*View, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	filename = strings.TrimSpace(filename)
	if symbol == "" && filename == "" {
		s.setStatus(StatusFor(ErrNoInput))
		return nil, ErrNoInput
	}

	s.setStatus(Status{Kind: StatusInfo, Message: "Loading..."})
	resp, err := s.api.Financials(ctx, symbol, filename)
	if err != nil {
		s.logger.Warn("financials request failed", zap.String("symbol", symbol), zap.String("filename", filename), zap.Error(err))
		s.setStatus(StatusFor(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = resp
	view, err := Build(resp, s.tab)
	if err != nil && !errors.Is(err, ErrNoNumericData) {
		s.view = nil
		s.status = StatusFor(err)
		if rerr := s.charts.Reset(); rerr != nil {
			s.logger.Warn("chart reset failed", zap.Error(rerr))
		}
		return nil, err
	}

	if rerr := s.renderLocked(view); rerr != nil {
		s.logger.Warn("chart render failed", zap.Error(rerr))
	}
	s.view = view
	s.status = StatusFor(err)
	for _, id := range view.Skipped {
		s.logger.Debug("chart skipped, metric not present", zap.String("chart", id))
	}
	return view, err
}

// renderLocked pushes the view's specs through the chart manager. Grouped
// charts are torn down first since regrouping changes which canvases exist.
func (s *Session) renderLocked(v *View) error {
	if _, err := s.charts.DestroyPrefix(chart.GroupPrefix); err != nil {
		return err
	}

	want := map[string]bool{}
	for _, spec := range v.ChartSpecs() {
		want[spec.ID] = true
		if _, err := s.charts.Render(spec); err != nil {
			return err
		}
	}
	for _, id := range s.charts.IDs() {
		if !want[id] {
			if err := s.charts.Destroy(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// SelectTab switches the ratio tab and redraws its pair from the last
// response. An unknown name is an error and leaves the tab unchanged.
func (s *Session) SelectTab(name string) (*View, error) {
	if _, ok := chart.FindRatioTab(name); !ok {
		return nil, fmt.Errorf("unknown ratio tab %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tab = name
	if s.view == nil {
		return nil, ErrNoData
	}
	if !s.view.selectTab(name) {
		s.logger.Debug("ratio tab has no data", zap.String("tab", name))
		for _, id := range []string{chart.RatioFirst, chart.RatioSecond} {
			if err := s.charts.Destroy(id); err != nil {
				return s.view, err
			}
		}
		return s.view, nil
	}
	for _, spec := range s.view.RatioPair {
		if _, err := s.charts.Render(spec); err != nil {
			return s.view, err
		}
	}
	return s.view, nil
}

// Analyze requests AI commentary for the loaded rows. A failing provider
// gives a degraded result rather than an error so the rest of the view
// stays intact; only a missing load is an error.
func (s *Session) Analyze(ctx context.Context) (Analysis, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil || last.Result.Len() == 0 {
		return Analysis{}, ErrNoData
	}

	resp, err := s.api.Analysis(ctx, last.Result)
	if err != nil {
		s.logger.Warn("ai analysis failed", zap.Error(err))
		return Analysis{Degraded: true, Error: err.Error()}, nil
	}
	return ParseAnalysis(resp), nil
}

// View returns the current view, nil before the first successful load.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Last returns the last response received.
func (s *Session) Last() *models.FinancialsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Tab returns the selected ratio tab.
func (s *Session) Tab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Status returns the current status line.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Charts exposes the chart manager.
func (s *Session) Charts() *chart.Manager { return s.charts }

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Analysis is the AI panel content.
type Analysis struct {
	ID            string `json:"id,omitempty"`
	Quality       string `json:"quality"`
	Profitability string `json:"profitability_efficiency"`
	Valuation     string `json:"valuation"`
	Risks         string `json:"risks"`
	View          string `json:"view"`
	SuitableFor   string `json:"suitable_for"`
	Text          string `json:"text,omitempty"`
	HTML          string `json:"html,omitempty"`
	Degraded      bool   `json:"degraded,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ParseAnalysis accepts either a plain string or a structured object.
func ParseAnalysis(resp *models.AnalysisResponse) Analysis {
	if resp == nil {
		return Analysis{Degraded: true}
	}
	out := Analysis{ID: resp.ID, HTML: resp.HTML}
	switch a := resp.Analysis.(type) {
	case string:
		out.Text = a
	case map[string]interface{}:
		pick := func(keys ...string) string {
			for _, k := range keys {
				if v, ok := a[k]; ok && v != nil {
					return strings.TrimSpace(fmt.Sprint(v))
				}
			}
			return Placeholder
		}
		out.Quality = pick("quality")
		out.Profitability = pick("profitability_efficiency", "profitability")
		out.Valuation = pick("valuation")
		out.Risks = pick("risks", "risk")
		out.View = pick("view")
		out.SuitableFor = pick("suitable_for")
		if t, ok := a["text"].(string); ok {
			out.Text = t
		}
	default:
		out.Degraded = true
	}
	return out
}
