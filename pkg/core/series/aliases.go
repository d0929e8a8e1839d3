package series

// AliasSet is a group of interchangeable spellings for one logical metric.
// Candidates are tried in order: exact matches first, then normalized matches.
type AliasSet struct {
	Name       string
	Candidates []string
}

// Canonical alias table. Spellings from every dashboard variant were merged
// here; order inside a set is the resolution priority.
var (
	AliasROE = AliasSet{Name: "ROE", Candidates: []string{
		"ROE", "roe", "Return on Equity", "return_on_equity", "returnonequity",
	}}
	AliasROA = AliasSet{Name: "ROA", Candidates: []string{
		"ROA", "RoA", "roa", "Return on Assets", "return_on_assets",
	}}
	AliasROIC = AliasSet{Name: "ROIC", Candidates: []string{
		"ROIC", "roic", "Return on Invested Capital", "return_on_invested_capital",
	}}
	AliasPE = AliasSet{Name: "P/E", Candidates: []string{
		"PE_RATIO", "PE Ratio", "PE_Ratio", "pe", "pe_ratio", "P/E", "peratio", "priceearnings",
	}}
	AliasPBV = AliasSet{Name: "P/BV", Candidates: []string{
		"PBV_Ratio", "PBV Ratio", "pbv", "pbv_ratio", "P/BV", "price_to_book", "pricebook",
	}}
	AliasPrice = AliasSet{Name: "Price", Candidates: []string{
		"Price", "price", "Close", "close", "Last", "last", "StockPrice", "stock_price",
	}}
	AliasEPS = AliasSet{Name: "EPS", Candidates: []string{
		"EPS", "eps", "earningspershare", "eps_diluted",
	}}
	AliasCostOfEquity = AliasSet{Name: "Cost of Equity", Candidates: []string{
		"Cost of Equity", "cost_of_equity", "costofequity", "coe",
	}}
	AliasWACC = AliasSet{Name: "WACC", Candidates: []string{
		"WACC", "wacc", "Weighted Average Cost of Capital",
	}}
	AliasFCF = AliasSet{Name: "FCF", Candidates: []string{
		"Free_cash_flow_FCF", "Free Cash Flow (FCF)", "Free Cash Flow", "FCF", "free_cash_flow", "freecashflow",
	}}
	AliasOCF = AliasSet{Name: "OCF", Candidates: []string{
		"Operating_cash_flow_OCF", "Operating Cash Flow (OCF)", "Operating Cash Flow", "OCF", "operating_cash_flow", "operatingcashflow",
	}}
	AliasUFCF = AliasSet{Name: "UFCF", Candidates: []string{
		"Unlevered_free_cash_flow_UFCF", "Unlevered Free Cash Flow (UFCF)", "Unlevered Free Cash Flow", "UFCF",
	}}
	AliasOwnerEarnings = AliasSet{Name: "Owner Earnings", Candidates: []string{
		"Owner's Earnings", "Owners_Earnings", "ownerearnings", "owner_earnings", "ownersearnings",
	}}
	AliasFCFMargin = AliasSet{Name: "FCF Margin", Candidates: []string{
		"FCF Margin", "fcfmargin", "freecashflowmargin",
	}}
	AliasEBITDAMargin = AliasSet{Name: "EBITDA Margin", Candidates: []string{
		"EBITDA Margin", "EBITDA MARGIN", "ebitda_margin", "ebitdamargin",
	}}
	AliasNetProfitMargin = AliasSet{Name: "Net Profit Margin", Candidates: []string{
		"Net Profit Margin", "net_profit_margin", "netprofitmargin", "netmargin",
	}}
	AliasGrossProfitMargin = AliasSet{Name: "Gross Profit Margin", Candidates: []string{
		"Gross Profit Margin", "Gross Profit MArgin", "GROSS_PROFIT_MARGIN", "grossprofitmargin", "grossmargin",
	}}
	AliasOperatingProfitMargin = AliasSet{Name: "Operating Profit Margin", Candidates: []string{
		"Operating Profit Margin", "Operating_profit_margin", "operatingprofitmargin", "operatingmargin",
	}}
	AliasCurrentRatio = AliasSet{Name: "Current Ratio", Candidates: []string{
		"Current Ratio", "Current_Ratio", "currentratio",
	}}
	AliasCashRatio = AliasSet{Name: "Cash Ratio", Candidates: []string{
		"Cash Ratio", "Cash_ratio", "cashratio",
	}}
)

// CanonicalAliases lists every alias set the dashboard resolves per render.
var CanonicalAliases = []AliasSet{
	AliasROE, AliasROA, AliasROIC, AliasPE, AliasPBV, AliasPrice, AliasEPS,
	AliasCostOfEquity, AliasWACC, AliasFCF, AliasOCF, AliasUFCF, AliasOwnerEarnings,
	AliasFCFMargin, AliasEBITDAMargin, AliasNetProfitMargin, AliasGrossProfitMargin,
	AliasOperatingProfitMargin, AliasCurrentRatio, AliasCashRatio,
}
