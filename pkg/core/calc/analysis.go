package calc

import (
	"math"

	"financial_dashboard/pkg/core/series"
	"financial_dashboard/pkg/core/valuation"
	"financial_dashboard/pkg/models"
)

// Model computes ratios for one fiscal year of statements.
type Model struct {
	income   models.Record
	balance  models.Record
	cashflow models.Record
	price    *float64 // year-end price from basic info, used when the income statement has none
	a        Assumptions
}

// NewModel wraps one year's statements. Nil records are treated as empty.
func NewModel(income, balance, cashflow models.Record, price *float64, a Assumptions) *Model {
	orEmpty := func(r models.Record) models.Record {
		if r == nil {
			return models.Record{}
		}
		return r
	}
	return &Model{
		income:   orEmpty(income),
		balance:  orEmpty(balance),
		cashflow: orEmpty(cashflow),
		price:    price,
		a:        a,
	}
}

// =============================================================================
// LINE ITEM ACCESS
// =============================================================================

// lookup resolves item exactly, then by normalized name.
func lookup(rec models.Record, item string) *float64 {
	key, ok := series.ResolveKey(rec, []string{item})
	if !ok {
		return nil
	}
	return series.ToNumber(rec[key])
}

func required(statement string, rec models.Record, item string) (float64, error) {
	v := lookup(rec, item)
	if v == nil {
		return 0, &MissingItemError{Statement: statement, Item: item}
	}
	return *v, nil
}

func optional(rec models.Record, item string) float64 {
	if v := lookup(rec, item); v != nil {
		return *v
	}
	return 0
}

func (m *Model) is(item string) (float64, error) { return required("income statement", m.income, item) }
func (m *Model) bs(item string) (float64, error) { return required("balance sheet", m.balance, item) }
func (m *Model) cf(item string) (float64, error) { return required("cash flow statement", m.cashflow, item) }

// need collects required items, stopping at the first missing one.
func need(getters ...func() (float64, error)) ([]float64, error) {
	out := make([]float64, len(getters))
	for i, g := range getters {
		v, err := g()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func item(get func(string) (float64, error), name string) func() (float64, error) {
	return func() (float64, error) { return get(name) }
}

func div(numerator, denominator float64) (float64, error) {
	if denominator == 0 {
		return 0, ErrZeroDivision
	}
	q := numerator / denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, ErrZeroDivision
	}
	return q, nil
}

func pct(numerator, denominator float64) (float64, error) {
	q, err := div(numerator, denominator)
	return q * 100, err
}

// =============================================================================
// COST OF CAPITAL
// =============================================================================

// CostOfEquity via CAPM: Rf + Beta * (mean market return - Rf).
func (m *Model) CostOfEquity() float64 {
	return valuation.CostOfEquity(valuation.CAPMInput{
		RiskFreeRate:  m.a.RiskFreeRate,
		Beta:          m.a.Beta,
		MarketReturns: m.a.MarketReturns,
	})
}

// InterestPaid nets the lender cash flows; missing items count as zero.
func (m *Model) InterestPaid() float64 {
	return valuation.InterestPaid(
		optional(m.cashflow, ItemInterestPaid),
		optional(m.cashflow, ItemInterestReceived),
		optional(m.cashflow, ItemDebtIssued),
		optional(m.cashflow, ItemDebtRepaid),
	)
}

// WACC weighted by book equity and total debt, rounded to four decimals.
func (m *Model) WACC() (float64, error) {
	res, err := valuation.CalculateWACC(valuation.WACCInput{
		Equity:       optional(m.balance, ItemEquity),
		Debt:         optional(m.balance, ItemTotalDebt),
		InterestPaid: m.InterestPaid(),
		TaxRate:      m.a.TaxRate,
		CostOfEquity: m.CostOfEquity(),
	})
	if err != nil {
		return 0, err
	}
	return res.WACC, nil
}

// =============================================================================
// CASH FLOW
// =============================================================================

// OperatingCashFlow = Net Income + D&A + SBC + Other Non Cash Items + Change in WC
func (m *Model) OperatingCashFlow() (float64, error) {
	v, err := need(
		item(m.is, ItemNetIncome),
		item(m.is, ItemDepreciation),
		item(m.cf, ItemWorkingCapital),
	)
	if err != nil {
		return 0, err
	}
	ni, da, wc := v[0], v[1], v[2]
	return ni + da +
		optional(m.cashflow, ItemStockCompensation) +
		optional(m.cashflow, ItemOtherNonCash) +
		wc, nil
}

// FreeCashFlow = OCF - CapEx
func (m *Model) FreeCashFlow() (float64, error) {
	ocf, err := m.OperatingCashFlow()
	if err != nil {
		return 0, err
	}
	capex, err := m.cf(ItemCapex)
	if err != nil {
		return 0, err
	}
	return ocf - capex, nil
}

// UnleveredFreeCashFlow = EBIT * (1 - t) + D&A - CapEx - Change in WC
func (m *Model) UnleveredFreeCashFlow() (float64, error) {
	v, err := need(
		item(m.is, ItemOperatingIncome),
		item(m.is, ItemDepreciation),
		item(m.cf, ItemCapex),
		item(m.cf, ItemWorkingCapital),
	)
	if err != nil {
		return 0, err
	}
	ebit, da, capex, wc := v[0], v[1], v[2], v[3]
	return ebit*(1-m.a.TaxRate) + da - capex - wc, nil
}

// OwnersEarnings = Net Income + D&A (cash flow) - CapEx - Change in WC
func (m *Model) OwnersEarnings() (float64, error) {
	v, err := need(
		item(m.is, ItemNetIncome),
		item(m.cf, ItemDepreciation),
		item(m.cf, ItemCapex),
		item(m.cf, ItemWorkingCapital),
	)
	if err != nil {
		return 0, err
	}
	return v[0] + v[1] - v[2] - v[3], nil
}

// =============================================================================
// PROFITABILITY
// All returned in percent.
// =============================================================================

// ROE = Net Income / Total Shareholder Equity
func (m *Model) ROE() (float64, error) {
	v, err := need(item(m.is, ItemNetIncome), item(m.bs, ItemEquity))
	if err != nil {
		return 0, err
	}
	return pct(v[0], v[1])
}

// ROA = Net Income / Total Assets
func (m *Model) ROA() (float64, error) {
	v, err := need(item(m.is, ItemNetIncome), item(m.bs, ItemTotalAssets))
	if err != nil {
		return 0, err
	}
	return pct(v[0], v[1])
}

// ROIC = EBITDA * (1 - t) / (Total Debt + Equity - Cash)
func (m *Model) ROIC() (float64, error) {
	v, err := need(
		item(m.is, ItemEBITDA),
		item(m.bs, ItemTotalDebt),
		item(m.bs, ItemEquity),
		item(m.bs, ItemCash),
	)
	if err != nil {
		return 0, err
	}
	nopat := v[0] * (1 - m.a.TaxRate)
	return pct(nopat, v[1]+v[2]-v[3])
}

func (m *Model) margin(numerator string) (float64, error) {
	v, err := need(item(m.is, numerator), item(m.is, ItemRevenue))
	if err != nil {
		return 0, err
	}
	return pct(v[0], v[1])
}

// GrossProfitMargin = Gross Profit / Revenue
func (m *Model) GrossProfitMargin() (float64, error) { return m.margin(ItemGrossProfit) }

// OperatingProfitMargin = Operating Income / Revenue
func (m *Model) OperatingProfitMargin() (float64, error) { return m.margin(ItemOperatingIncome) }

// NetProfitMargin = Net Income / Revenue
func (m *Model) NetProfitMargin() (float64, error) { return m.margin(ItemNetIncome) }

// EBITDAMargin = EBITDA / Revenue
func (m *Model) EBITDAMargin() (float64, error) { return m.margin(ItemEBITDA) }

// =============================================================================
// PER SHARE AND MULTIPLES
// =============================================================================

// Price is the income statement's price item, else the basic-info price.
func (m *Model) Price() (float64, error) {
	if v := lookup(m.income, ItemPrice); v != nil {
		return *v, nil
	}
	if m.price != nil {
		return *m.price, nil
	}
	return 0, &MissingItemError{Statement: "income statement", Item: ItemPrice}
}

// EPS = Net Income / Weighted Average Shares
func (m *Model) EPS() (float64, error) {
	v, err := need(item(m.is, ItemNetIncome), item(m.is, ItemWeightedShares))
	if err != nil {
		return 0, err
	}
	return div(v[0], v[1])
}

// PE = Price / EPS, preferring reported EPS over the computed one.
func (m *Model) PE() (float64, error) {
	price, err := m.Price()
	if err != nil {
		return 0, err
	}
	eps := lookup(m.income, ItemReportedEPS)
	if eps == nil {
		computed, err := m.EPS()
		if err != nil {
			return 0, err
		}
		eps = &computed
	}
	return div(price, *eps)
}

// PBV = Price / (Equity / Weighted Average Shares)
func (m *Model) PBV() (float64, error) {
	price, err := m.Price()
	if err != nil {
		return 0, err
	}
	v, err := need(item(m.bs, ItemEquity), item(m.is, ItemWeightedShares))
	if err != nil {
		return 0, err
	}
	bvps, err := div(v[0], v[1])
	if err != nil {
		return 0, err
	}
	return div(price, bvps)
}

// =============================================================================
// LIQUIDITY
// =============================================================================

// CurrentRatio = Total Current Assets / Total Current Liabilities
func (m *Model) CurrentRatio() (float64, error) {
	v, err := need(item(m.bs, ItemCurrentAssets), item(m.bs, ItemCurrentLiabilities))
	if err != nil {
		return 0, err
	}
	return div(v[0], v[1])
}

// CashRatio = (Cash + Short Term Investments) / Total Current Liabilities
func (m *Model) CashRatio() (float64, error) {
	v, err := need(
		item(m.bs, ItemCash),
		item(m.bs, ItemShortTermInvest),
		item(m.bs, ItemCurrentLiabilities),
	)
	if err != nil {
		return 0, err
	}
	return div(v[0]+v[1], v[2])
}
