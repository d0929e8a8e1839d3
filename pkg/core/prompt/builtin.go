package prompt

// Built-in prompt IDs.
const (
	IDFinancialAnalysis  = "analysis.financial"
	IDCompanyDescription = "company.description"
)

const financialSystemPrompt = `You are a buy-side equity analyst. You receive the computed ratios of one
fiscal year (and optionally a DCF valuation summary) for a listed company.
Ratios are percentages where the name says Margin, ROE, RoA or ROIC; WACC and
Cost of Equity are fractions. Reply with ONE JSON object and nothing else,
using exactly these string fields:
  "quality": business quality and earnings quality,
  "profitability_efficiency": returns, margins and capital efficiency,
  "valuation": what PE, PBV and the DCF imply about price,
  "risks": balance sheet, cash flow and discount-rate risks,
  "view": overall view in one or two sentences,
  "suitable_for": which kind of investor this fits.
Keep each field under 80 words. Do not invent numbers that are not given.`

const financialUserTemplate = `Symbol: {{.Symbol}}
Latest fiscal year ratios (JSON):
{{.Ratios}}

Valuation summary (JSON, may be empty):
{{.Valuation}}`

const companySystemPrompt = `You describe listed companies for retail investors. Answer in markdown with
short sections: Business, Main products and services, Revenue drivers,
Competitive advantages, Recent developments.`

const companyUserTemplate = `Describe the company with ticker {{.Symbol}}{{if .Name}} ({{.Name}}){{end}}.`

func builtins() []*PromptTemplate {
	return []*PromptTemplate{
		{
			ID:             IDFinancialAnalysis,
			Name:           "Financial analysis",
			Category:       "analysis",
			Description:    "JSON commentary on the latest year's ratios and valuation",
			SystemPrompt:   financialSystemPrompt,
			UserPromptTmpl: financialUserTemplate,
			Variables: []PromptVariable{
				{Name: "Symbol", Type: "string"},
				{Name: "Ratios", Type: "object", Required: true},
				{Name: "Valuation", Type: "object"},
			},
			Version: "1",
		},
		{
			ID:             IDCompanyDescription,
			Name:           "Company description",
			Category:       "company",
			Description:    "Markdown business description of a ticker",
			SystemPrompt:   companySystemPrompt,
			UserPromptTmpl: companyUserTemplate,
			Variables: []PromptVariable{
				{Name: "Symbol", Type: "string", Required: true},
				{Name: "Name", Type: "string"},
			},
			Version: "1",
		},
	}
}
