package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/models"
)

type stubExecutor struct {
	reply     string
	err       error
	agentType string
	prompt    string
	options   map[string]interface{}
}

func (s *stubExecutor) ExecutePrompt(ctx context.Context, agentType, prompt, systemPrompt string, options map[string]interface{}) (string, string, error) {
	s.agentType, s.prompt, s.options = agentType, prompt, options
	return s.reply, "stub", s.err
}

func newTestEngine(exec Executor) *Engine {
	e := NewEngine(exec, nil, nil)
	e.newID = func() string { return "id-1" }
	e.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func rows() models.RecordSet {
	return models.NewRecordSet([]models.Record{
		{"Stock Symbol": "ACME", "Year": "2023", "ROE": 18.0},
		{"Stock Symbol": "ACME", "Year": "2021", "ROE": 12.0},
	})
}

func TestAnalyze_JSONReply(t *testing.T) {
	exec := &stubExecutor{reply: "```json\n{\"quality\":\"High\",\"view\":\"Hold\",}\n```"}
	e := newTestEngine(exec)

	resp, err := e.Analyze(context.Background(), rows(), map[string]interface{}{"wacc_used": 0.08})
	require.NoError(t, err)

	assert.Equal(t, "analysis", exec.agentType)
	assert.Equal(t, true, exec.options["json"])
	assert.Contains(t, exec.prompt, `"Year":"2023"`)
	assert.NotContains(t, exec.prompt, `"2021"`)
	assert.Contains(t, exec.prompt, `"wacc_used":0.08`)

	assert.Equal(t, "id-1", resp.ID)
	a := resp.Analysis.(map[string]interface{})
	assert.Equal(t, "High", a["quality"])
	assert.Equal(t, "ACME", resp.Source["symbol"])
	assert.Equal(t, "2023", resp.Source["year"])
	assert.Contains(t, resp.HTML, "<h2>Quality</h2>")
}

func TestAnalyze_TextFallback(t *testing.T) {
	e := newTestEngine(&stubExecutor{reply: "Solid margins, but leverage is rising."})

	resp, err := e.Analyze(context.Background(), rows(), nil)
	require.NoError(t, err)
	a := resp.Analysis.(map[string]interface{})
	assert.Equal(t, "Solid margins, but leverage is rising.", a["quality"])
	assert.Equal(t, FallbackNote, a["_note"])
	for _, f := range Fields[1:] {
		assert.Equal(t, "-", a[f], f)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	e := newTestEngine(&stubExecutor{err: errors.New("quota")})

	_, err := e.Analyze(context.Background(), models.RecordSet{}, nil)
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = e.Analyze(context.Background(), rows(), nil)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestProviderTimeoutStaysInChain(t *testing.T) {
	e := newTestEngine(&stubExecutor{err: context.DeadlineExceeded})

	_, err := e.Analyze(context.Background(), rows(), nil)
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = e.Describe(context.Background(), "ACME", "")
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDescribe(t *testing.T) {
	exec := &stubExecutor{reply: "```markdown\n## Business\n\nWidgets.\n```"}
	e := newTestEngine(exec)

	resp, err := e.Describe(context.Background(), " acme ", "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, AgentCompany, exec.agentType)
	assert.Contains(t, exec.prompt, "ACME (Acme Corp)")
	assert.Equal(t, "## Business\n\nWidgets.", resp.Description)
	assert.Contains(t, resp.HTML, "<h2>Business</h2>")
	assert.Equal(t, "stub", resp.Source)

	_, err = e.Describe(context.Background(), "", "")
	assert.Error(t, err)
}

func TestMarkdown_NonStringField(t *testing.T) {
	md := Markdown(map[string]interface{}{"risks": []interface{}{"debt", "fx"}, "view": "Buy"})
	assert.Equal(t, "## Risks\n\n[\"debt\",\"fx\"]\n\n## View\n\nBuy\n\n", md)
}
