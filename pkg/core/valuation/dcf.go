package valuation

import (
	"errors"
	"fmt"
	"math"
)

// Forecast defaults.
const (
	DefaultForecastYears = 10
	DefaultDiscountRate  = 0.10 // used when the latest WACC is missing or not positive
	DefaultStartGrowth   = 0.08 // used when the growth history is too short for a YoY average
	GrowthLookback       = 5
	GrowthFloor          = -0.20
	GrowthCap            = 0.25
)

var (
	// ErrNoFCF is returned when the history carries no free cash flow.
	ErrNoFCF = errors.New("no free cash flow available")
	// ErrDiscountBelowGrowth is returned when the terminal value would not converge.
	ErrDiscountBelowGrowth = errors.New("discount rate must exceed terminal growth")
)

// DCFInput encapsulates all inputs required for a Discounted Cash Flow valuation
type DCFInput struct {
	History        []float64 // Free cash flow, oldest first, gaps already removed
	GrowthHistory  []float64 // Series the start growth is averaged over; empty means History
	WACC           float64   // Latest reported WACC; <= 0 falls back to DefaultDiscountRate
	TerminalGrowth float64   // e.g. 0.025
	Years          int       // Forecast horizon; 0 means DefaultForecastYears
	NoFade         bool      // Hold the starting growth flat instead of fading to terminal
	Shares         float64   // Optional; per-share value is only set when > 0
}

// DCFResult holds the valuation outputs
type DCFResult struct {
	WACC              float64
	GrowthStart       float64
	TerminalGrowth    float64
	Years             int
	CashflowsForecast []float64
	PVCashflows       []float64
	PVTerminal        float64
	EquityValue       float64
	SharePrice        *float64
}

// AverageGrowth is the mean year-over-year change of the last lookback+1
// points. Steps from a zero base are skipped. ok is false when no step is usable.
func AverageGrowth(history []float64, lookback int) (g float64, ok bool) {
	if len(history) < 2 {
		return 0, false
	}
	if start := len(history) - (lookback + 1); start > 0 {
		history = history[start:]
	}
	var sum float64
	var n int
	for i := 1; i < len(history); i++ {
		if history[i-1] == 0 {
			continue
		}
		sum += (history[i] - history[i-1]) / history[i-1]
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ClipGrowth bounds g to [lo, hi].
func ClipGrowth(g, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, g))
}

// GrowthPath returns the per-year growth for years 1..n: a linear fade from
// start to terminal, or start held flat.
func GrowthPath(start, terminal float64, n int, fade bool) []float64 {
	path := make([]float64, n)
	for i := 1; i <= n; i++ {
		if !fade {
			path[i-1] = start
			continue
		}
		w := float64(i) / float64(n)
		path[i-1] = (1-w)*start + w*terminal
	}
	return path
}

// CalculateDCF performs a conservative owner-style DCF: grow the last free
// cash flow along a fading growth path, discount at WACC, and add a Gordon
// terminal value at the horizon.
func CalculateDCF(input DCFInput) (DCFResult, error) {
	if len(input.History) == 0 {
		return DCFResult{}, ErrNoFCF
	}
	years := input.Years
	if years <= 0 {
		years = DefaultForecastYears
	}

	wacc := input.WACC
	if wacc <= 0 || math.IsNaN(wacc) || math.IsInf(wacc, 0) {
		wacc = DefaultDiscountRate
	}
	if wacc <= input.TerminalGrowth {
		return DCFResult{}, fmt.Errorf("%w: wacc %.4f, terminal growth %.4f", ErrDiscountBelowGrowth, wacc, input.TerminalGrowth)
	}

	growthSrc := input.GrowthHistory
	if len(growthSrc) == 0 {
		growthSrc = input.History
	}
	gAvg, ok := AverageGrowth(growthSrc, GrowthLookback)
	if !ok {
		gAvg = DefaultStartGrowth
	}
	gStart := ClipGrowth(gAvg, GrowthFloor, GrowthCap)

	// 1. Forecast and discount
	res := DCFResult{
		WACC:           wacc,
		GrowthStart:    gStart,
		TerminalGrowth: input.TerminalGrowth,
		Years:          years,
	}
	fcf := input.History[len(input.History)-1]
	var pvSum float64
	for i, g := range GrowthPath(gStart, input.TerminalGrowth, years, !input.NoFade) {
		fcf *= 1 + g
		pv := fcf / math.Pow(1+wacc, float64(i+1))
		res.CashflowsForecast = append(res.CashflowsForecast, fcf)
		res.PVCashflows = append(res.PVCashflows, pv)
		pvSum += pv
	}

	// 2. Terminal Value (Gordon Growth) at year N
	tv := fcf * (1 + input.TerminalGrowth) / (wacc - input.TerminalGrowth)
	res.PVTerminal = tv / math.Pow(1+wacc, float64(years))

	// 3. Aggregation
	res.EquityValue = pvSum + res.PVTerminal
	if input.Shares > 0 {
		ps := res.EquityValue / input.Shares
		res.SharePrice = &ps
	}
	return res, nil
}
