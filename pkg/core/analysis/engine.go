// Package analysis produces AI commentary on computed ratios.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"financial_dashboard/pkg/core/agent"
	"financial_dashboard/pkg/core/prompt"
	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/core/utils"
	"financial_dashboard/pkg/models"
)

// AgentCompany is the agent type used for company descriptions.
const AgentCompany = "company"

// FallbackNote marks an analysis whose reply was kept as plain text.
const FallbackNote = "AI reply was not valid JSON; kept as text"

// Fields are the analysis keys, in display order.
var Fields = []string{"quality", "profitability_efficiency", "valuation", "risks", "view", "suitable_for"}

var fieldTitles = map[string]string{
	"quality":                  "Quality",
	"profitability_efficiency": "Profitability & Efficiency",
	"valuation":                "Valuation",
	"risks":                    "Risks",
	"view":                     "View",
	"suitable_for":             "Suitable For",
}

var (
	// ErrEmptyResult is returned when there are no rows to analyze.
	ErrEmptyResult = errors.New("result is empty")
	// ErrProvider wraps failures of the LLM provider.
	ErrProvider = errors.New("ai provider failed")
)

// Executor runs a prompt for an agent type; *agent.Manager implements it.
type Executor interface {
	ExecutePrompt(ctx context.Context, agentType, prompt, systemPrompt string, options map[string]interface{}) (string, string, error)
}

var _ Executor = (*agent.Manager)(nil)

// Engine builds prompts from result rows and parses the replies.
type Engine struct {
	exec    Executor
	prompts *prompt.Registry
	logger  *zap.Logger
	newID   func() string
	now     func() time.Time
}

func NewEngine(exec Executor, prompts *prompt.Registry, logger *zap.Logger) *Engine {
	if prompts == nil {
		prompts = prompt.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		exec:    exec,
		prompts: prompts,
		logger:  logger,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Latest returns the record with the greatest year.
func Latest(rs models.RecordSet) (models.Record, bool) {
	sorted := series.SortRecords(rs)
	if sorted.Len() == 0 {
		return nil, false
	}
	return sorted.Records[sorted.Len()-1], true
}

// Analyze asks the analysis agent about the latest row and the optional
// valuation summary.
func (e *Engine) Analyze(ctx context.Context, rows models.RecordSet, valuation interface{}) (*models.AnalysisResponse, error) {
	latest, ok := Latest(rows)
	if !ok {
		return nil, ErrEmptyResult
	}
	symbol := symbolOf(latest)

	ratiosJSON, err := json.Marshal(latest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ratios: %w", err)
	}
	valuationJSON := []byte("{}")
	if valuation != nil {
		if valuationJSON, err = json.Marshal(valuation); err != nil {
			return nil, fmt.Errorf("failed to marshal valuation: %w", err)
		}
	}

	pt, err := e.prompts.GetPrompt(prompt.IDFinancialAnalysis)
	if err != nil {
		return nil, err
	}
	userPrompt, err := prompt.RenderUserPrompt(pt, prompt.NewContext().
		Set("Symbol", symbol).
		Set("Ratios", string(ratiosJSON)).
		Set("Valuation", string(valuationJSON)))
	if err != nil {
		return nil, err
	}

	start := e.now()
	text, provider, err := e.exec.ExecutePrompt(ctx, agent.AgentAnalysis, userPrompt, pt.SystemPrompt,
		map[string]interface{}{"json": true})
	if err != nil {
		e.logger.Warn("analysis failed", zap.String("symbol", symbol), zap.String("provider", provider), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	result := ParseAnalysis(text)
	html, err := utils.RenderHTML(Markdown(result))
	if err != nil {
		e.logger.Debug("analysis html render failed", zap.Error(err))
	}

	e.logger.Info("analysis generated",
		zap.String("symbol", symbol),
		zap.String("provider", provider),
		zap.Duration("took", e.now().Sub(start)),
		zap.Bool("fallback", result["_note"] != nil),
	)
	return &models.AnalysisResponse{
		ID:       e.newID(),
		Analysis: result,
		HTML:     html,
		Source: map[string]interface{}{
			"provider":        provider,
			"symbol":          symbol,
			"year":            latest[models.YearField],
			"use_latest_only": true,
			"generated_at":    e.now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// ParseAnalysis decodes a reply into an object. Text that is not JSON is
// kept whole under "quality" with "-" in every other field.
func ParseAnalysis(text string) map[string]interface{} {
	var out map[string]interface{}
	if _, err := utils.SmartParse(text, &out); err == nil && out != nil {
		return out
	}
	out = map[string]interface{}{"_note": FallbackNote}
	for _, f := range Fields {
		out[f] = "-"
	}
	out["quality"] = strings.TrimSpace(text)
	return out
}

// Markdown lays the analysis fields out as markdown sections.
func Markdown(a map[string]interface{}) string {
	var sb strings.Builder
	for _, f := range Fields {
		v, ok := a[f]
		if !ok || v == nil {
			continue
		}
		text, isString := v.(string)
		if !isString {
			b, _ := json.Marshal(v)
			text = string(b)
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", fieldTitles[f], text)
	}
	return sb.String()
}

// Describe asks the company agent for a markdown business description.
func (e *Engine) Describe(ctx context.Context, symbol, name string) (*models.CompanyResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	pt, err := e.prompts.GetPrompt(prompt.IDCompanyDescription)
	if err != nil {
		return nil, err
	}
	userPrompt, err := prompt.RenderUserPrompt(pt, prompt.NewContext().Set("Symbol", symbol).Set("Name", name))
	if err != nil {
		return nil, err
	}

	text, provider, err := e.exec.ExecutePrompt(ctx, AgentCompany, userPrompt, pt.SystemPrompt,
		map[string]interface{}{"google_search": true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	desc := utils.CleanMarkdown(text)
	html, err := utils.RenderHTML(desc)
	if err != nil {
		e.logger.Debug("description html render failed", zap.Error(err))
	}
	return &models.CompanyResponse{Symbol: symbol, Description: desc, HTML: html, Source: provider}, nil
}

func symbolOf(r models.Record) string {
	for _, f := range models.SymbolFields {
		if s, ok := r[f].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
