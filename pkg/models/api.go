package models

// Ratios maps metric name -> year label -> value.
type Ratios map[string]map[string]interface{}

// FinancialsResponse is the body of GET /api/financials.
type FinancialsResponse struct {
	Symbol     string      `json:"symbol,omitempty"`
	SourceFile string      `json:"source_file,omitempty"`
	Result     RecordSet   `json:"result"`
	Latest     Record      `json:"latest,omitempty"`
	Years      []string    `json:"years,omitempty"`
	Ratios     Ratios      `json:"ratios,omitempty"`
	Valuation  interface{} `json:"valuation,omitempty"`
}

// RawFinancialsResponse is the body of GET /api/raw_financials.
type RawFinancialsResponse struct {
	Symbol            string                 `json:"symbol"`
	IncomeStatement   Statement              `json:"income_statement"`
	BalanceSheet      Statement              `json:"balance_sheet"`
	CashFlowStatement Statement              `json:"cash_flow_statement"`
	BasicInfo         map[string]interface{} `json:"basic_info"`
}

// AnalysisRequest is the body of POST /api/ai-analysis.
type AnalysisRequest struct {
	Result    RecordSet   `json:"result"`
	Valuation interface{} `json:"valuation,omitempty"`
}

// AnalysisResponse carries either a plain string or a structured object.
type AnalysisResponse struct {
	ID       string                 `json:"id,omitempty"`
	Analysis interface{}            `json:"analysis"`
	HTML     string                 `json:"html,omitempty"`
	Source   map[string]interface{} `json:"source,omitempty"`
}

// CompanyResponse is the body of GET /api/company.
type CompanyResponse struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	HTML        string `json:"html,omitempty"`
	Source      string `json:"source,omitempty"`
}

// ErrorResponse is the JSON error envelope used by every handler.
type ErrorResponse struct {
	Error string `json:"error"`
}
