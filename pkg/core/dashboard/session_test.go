package dashboard

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/client"
	"financial_dashboard/pkg/core/chart"
	"financial_dashboard/pkg/models"
)

type fakeAPI struct {
	mu       sync.Mutex
	calls    int
	resp     *models.FinancialsResponse
	err      error
	analysis *models.AnalysisResponse
	aiErr    error
}

func (f *fakeAPI) Financials(ctx context.Context, symbol, filename string) (*models.FinancialsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.resp, f.err
}

func (f *fakeAPI) Analysis(ctx context.Context, rows models.RecordSet) (*models.AnalysisResponse, error) {
	return f.analysis, f.aiErr
}

func acmeResponse() *models.FinancialsResponse {
	rows := models.NewRecordSet([]models.Record{
		{"Year": "2022", "Stock Symbol": "ACME", "ROE": 12.0, "EBITDA Margin": 25.0, "WACC": 0.09, "Free Cash Flow (FCF)": 1e9, "EPS": 2.1, "Cost of Equity": 0.08},
		{"Year": "2023", "Stock Symbol": "ACME", "ROE": 14.0, "EBITDA Margin": 30.0, "WACC": 0.085, "Free Cash Flow (FCF)": 1.2e9, "EPS": 2.4, "Cost of Equity": 0.081},
	}, "Year", "Stock Symbol", "ROE", "EBITDA Margin", "WACC", "Free Cash Flow (FCF)", "EPS", "Cost of Equity")
	return &models.FinancialsResponse{Symbol: "ACME", Result: rows}
}

func TestSession_NoInputNeverCallsAPI(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api, nil, nil)

	_, err := s.Submit(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Zero(t, api.calls)
	assert.Equal(t, StatusError, s.Status().Kind)
}

func TestSession_SubmitRendersCharts(t *testing.T) {
	rec := &chart.RecordingBackend{}
	s := NewSession(&fakeAPI{resp: acmeResponse()}, chart.NewManager(rec, nil), nil)

	v, err := s.Submit(context.Background(), "acme", "")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, s.Status().Kind)
	assert.Equal(t, []string{"2022", "2023"}, v.Years)
	assert.Contains(t, v.Skipped, chart.OCFComboID)

	ids := s.Charts().IDs()
	assert.Contains(t, ids, chart.CombinedID)
	assert.Contains(t, ids, chart.FCFComboID)
	assert.Contains(t, ids, chart.RatioFirst)
	assert.Contains(t, ids, "g_roe")
	assert.NotContains(t, ids, chart.OCFComboID)
	assert.Equal(t, ids, rec.Live())

	require.Len(t, v.KPIs, 5)
	assert.Equal(t, "120.00% of target", v.KPIs[0].Badge)
	assert.Equal(t, "30.00%", v.KPIs[0].CurrentText)
}

func TestSession_SelectTabUsesLastResponse(t *testing.T) {
	api := &fakeAPI{resp: acmeResponse()}
	s := NewSession(api, nil, nil)

	_, err := s.SelectTab("Profitability")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = s.Submit(context.Background(), "ACME", "")
	require.NoError(t, err)
	assert.Equal(t, "Profitability", s.Tab())

	v, err := s.SelectTab("EPS & CoE")
	require.NoError(t, err)
	require.Len(t, v.RatioPair, 2)
	assert.Equal(t, "EPS (5Y)", v.RatioPair[0].Title)
	assert.Equal(t, 1, api.calls, "tab switch must not refetch")

	_, err = s.SelectTab("Bogus")
	assert.Error(t, err)
	assert.Equal(t, "EPS & CoE", s.Tab())
}

func TestSession_ErrorsKeepSessionUsable(t *testing.T) {
	api := &fakeAPI{err: &client.HTTPError{StatusCode: 502, Message: "upstream"}}
	s := NewSession(api, nil, nil)

	_, err := s.Submit(context.Background(), "ACME", "")
	var he *client.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Contains(t, s.Status().Message, "HTTP 502")

	api.err = nil
	api.resp = &models.FinancialsResponse{}
	_, err = s.Submit(context.Background(), "ACME", "")
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.Equal(t, "The result is empty", s.Status().Message)

	api.resp = &models.FinancialsResponse{Result: models.NewRecordSet([]models.Record{
		{"Year": "2022", "Note": "n/a"},
		{"Year": "2023", "Note": "pending"},
	}, "Year", "Note")}
	v, err := s.Submit(context.Background(), "ACME", "")
	assert.ErrorIs(t, err, ErrNoNumericData)
	require.NotNil(t, v)
	assert.Len(t, v.Table.Rows, 2)
	assert.Empty(t, v.Charts)
	assert.Empty(t, v.KPIs)

	api.resp = acmeResponse()
	_, err = s.Submit(context.Background(), "ACME", "")
	assert.NoError(t, err)
}

func TestSession_ShapeChangeReplacesChart(t *testing.T) {
	rec := &chart.RecordingBackend{}
	api := &fakeAPI{resp: acmeResponse()}
	s := NewSession(api, chart.NewManager(rec, nil), nil)
	_, err := s.Submit(context.Background(), "ACME", "")
	require.NoError(t, err)

	longer := acmeResponse()
	longer.Result.Records = append(longer.Result.Records, models.Record{"Year": "2024", "ROE": 15.0, "Free Cash Flow (FCF)": 1.3e9})
	api.resp = longer
	_, err = s.Submit(context.Background(), "ACME", "")
	require.NoError(t, err)

	var creates int
	for _, e := range rec.Events() {
		if e.ID == chart.CombinedID && e.Op == "create" {
			creates++
		}
	}
	assert.Equal(t, 2, creates)
	inst, ok := s.Charts().Get(chart.CombinedID)
	require.True(t, ok)
	assert.Len(t, inst.Spec.Labels, 3)
}

func TestSession_CollidingMetricSlugsKeepEveryChart(t *testing.T) {
	rows := models.NewRecordSet([]models.Record{
		{"Year": "2022", "Net Profit Margin": 10.0, "net_profit_margin": 11.0, "ROE": 12.0, "roe": 13.0},
		{"Year": "2023", "Net Profit Margin": 12.0, "net_profit_margin": 13.0, "ROE": 14.0, "roe": 15.0},
	}, "Year", "Net Profit Margin", "net_profit_margin", "ROE", "roe")
	rec := &chart.RecordingBackend{}
	s := NewSession(&fakeAPI{resp: &models.FinancialsResponse{Symbol: "ACME", Result: rows}}, chart.NewManager(rec, nil), nil)

	v, err := s.Submit(context.Background(), "ACME", "")
	require.NoError(t, err)

	var grouped []string
	for _, g := range v.Groups {
		for _, c := range g.Charts {
			grouped = append(grouped, c.ID)
		}
	}
	require.Len(t, grouped, 4)
	for _, id := range grouped {
		inst, ok := s.Charts().Get(id)
		require.True(t, ok, id)
		assert.Equal(t, id, inst.Spec.ID)
	}
	for _, e := range rec.Events() {
		assert.NotEqual(t, "destroy", e.Op, e.ID)
	}
}

// gatedAPI answers each symbol once its gate is closed.
type gatedAPI struct {
	started chan string
	gates   map[string]chan struct{}
}

func (g *gatedAPI) Financials(ctx context.Context, symbol, filename string) (*models.FinancialsResponse, error) {
	g.started <- symbol
	<-g.gates[symbol]
	resp := acmeResponse()
	resp.Symbol = symbol
	return resp, nil
}

func (g *gatedAPI) Analysis(ctx context.Context, rows models.RecordSet) (*models.AnalysisResponse, error) {
	return nil, errors.New("unused")
}

func TestSession_LastResolvedResponseWins(t *testing.T) {
	api := &gatedAPI{
		started: make(chan string, 2),
		gates:   map[string]chan struct{}{"SLOW": make(chan struct{}), "FAST": make(chan struct{})},
	}
	s := NewSession(api, nil, nil)

	slowDone := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "slow", "")
		slowDone <- err
	}()
	require.Equal(t, "SLOW", <-api.started)

	close(api.gates["FAST"])
	v, err := s.Submit(context.Background(), "fast", "")
	require.NoError(t, err)
	assert.Equal(t, "FAST", v.Symbol)
	assert.Equal(t, "FAST", s.View().Symbol)

	close(api.gates["SLOW"])
	require.NoError(t, <-slowDone)

	assert.Equal(t, "SLOW", s.View().Symbol)
	assert.Equal(t, "SLOW", s.Last().Symbol)
	assert.Equal(t, StatusSuccess, s.Status().Kind)
}

func TestSession_AnalyzeDegrades(t *testing.T) {
	api := &fakeAPI{resp: acmeResponse(), aiErr: errors.New("boom")}
	s := NewSession(api, nil, nil)

	_, err := s.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	_, err = s.Submit(context.Background(), "ACME", "")
	require.NoError(t, err)
	a, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Degraded)

	api.aiErr = nil
	api.analysis = &models.AnalysisResponse{Analysis: map[string]interface{}{"quality": "High", "risk": "FX"}}
	a, err = s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "High", a.Quality)
	assert.Equal(t, "FX", a.Risks)
	assert.Equal(t, Placeholder, a.View)
}

func TestRender_Text(t *testing.T) {
	s := NewSession(&fakeAPI{resp: acmeResponse()}, nil, nil)
	v, err := s.Submit(context.Background(), "ACME", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, PlainStyles(), v, s.Status()))
	out := buf.String()
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "EBITDA MARGIN")
	assert.Contains(t, out, "1.20 B")
	assert.Contains(t, out, "[EPS & CoE]")
}

func TestRenderAnalysis(t *testing.T) {
	out := RenderAnalysis(PlainStyles(), Analysis{Quality: "High", View: "Hold"})
	assert.Contains(t, out, "Quality")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Risks")
	assert.Contains(t, out, "-")

	out = RenderAnalysis(PlainStyles(), Analysis{Degraded: true, Error: "HTTP 502: ai provider failed"})
	assert.Contains(t, out, "unavailable: HTTP 502")
	assert.NotContains(t, out, "Quality")
}
