package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/piquette/finance-go/quote"
	"golang.org/x/time/rate"
)

// Quote is the subset of a market quote merged into Basic Info.
type Quote struct {
	Symbol string
	Name   string
	Price  float64
	AsOf   time.Time
}

// MergeInto writes the quote into a Basic Info map: CurrentPrice, Name when
// absent, and this year's entry of Prices.
func (q *Quote) MergeInto(basic map[string]interface{}) {
	if q == nil || basic == nil {
		return
	}
	basic["CurrentPrice"] = q.Price
	if name, _ := basic["Name"].(string); name == "" && q.Name != "" {
		basic["Name"] = q.Name
	}
	prices, ok := basic["Prices"].(map[string]interface{})
	if !ok {
		prices = map[string]interface{}{}
		basic["Prices"] = prices
	}
	prices[strconv.Itoa(q.AsOf.Year())] = q.Price
}

// QuoteSource fetches a live quote for a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// YahooQuotes fetches quotes through finance-go, throttled so bursts of
// refreshes stay under the upstream's request budget.
type YahooQuotes struct {
	limiter *rate.Limiter
	get     func(symbol string) (*Quote, error)
	now     func() time.Time
}

// NewYahooQuotes creates a quote source allowing rps requests per second.
func NewYahooQuotes(rps float64) *YahooQuotes {
	if rps <= 0 {
		rps = 1
	}
	return &YahooQuotes{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		get:     fetchYahooQuote,
		now:     time.Now,
	}
}

func fetchYahooQuote(symbol string) (*Quote, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return &Quote{Symbol: q.Symbol, Name: q.ShortName, Price: q.RegularMarketPrice}, nil
}

// Quote implements QuoteSource.
func (y *YahooQuotes) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	type result struct {
		q   *Quote
		err error
	}
	done := make(chan result, 1)
	go func() {
		q, err := y.get(symbol)
		done <- result{q, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("QUOTE_FETCH_ERROR: %v", r.err)
		}
		if r.q.Price <= 0 {
			return nil, fmt.Errorf("QUOTE_FETCH_ERROR: no price for %s", symbol)
		}
		if r.q.AsOf.IsZero() {
			r.q.AsOf = y.now()
		}
		return r.q, nil
	}
}
