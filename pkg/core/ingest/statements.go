// Package ingest loads statements files and result records from disk and
// enriches them with live quotes.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"financial_dashboard/pkg/models"
)

var (
	// ErrStatementsNotFound is returned when no statements file exists for a symbol.
	ErrStatementsNotFound = errors.New("statements file not found")
	// ErrMissingSections is returned when one of the three primary statements is absent.
	ErrMissingSections = errors.New("statements file is missing a primary statement")
	// ErrInvalidSymbol is returned for symbols that cannot name a file.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// SectionKeys lists accepted spellings of each section, in priority order.
var SectionKeys = struct {
	Income, Balance, CashFlow, Basic []string
}{
	Income:   []string{"Income Statement", "Income statement", "Statement of Income", "Profit & Loss", "P/L"},
	Balance:  []string{"Balance Sheet", "Balance sheet", "Balance Sheet Statement"},
	CashFlow: []string{"Cash Flow Statement", "Cashflow Statement", "Cash Flow", "Statement of Cash Flows"},
	Basic:    []string{"Basic Info", "Profile", "Company Profile"},
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,19}$`)

// NormalizeSymbol upper-cases and validates a ticker.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return s, nil
}

// StatementsFile is the raw statements file of one symbol.
type StatementsFile struct {
	Symbol     string
	Path       string
	Statements models.Statements
	Keys       []string // top-level keys found, for diagnostics
}

// StatementLoader reads <dir>/<SYMBOL>_financials.json and, when a quote
// source is configured, refreshes Basic Info with a live price.
type StatementLoader struct {
	dir    string
	quotes QuoteSource
	logger *zap.Logger
}

// NewStatementLoader creates a loader rooted at dir. quotes may be nil.
func NewStatementLoader(dir string, quotes QuoteSource, logger *zap.Logger) *StatementLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementLoader{dir: dir, quotes: quotes, logger: logger}
}

// Path returns the statements file path for a normalized symbol.
func (l *StatementLoader) Path(symbol string) string {
	return filepath.Join(l.dir, symbol+"_financials.json")
}

// Load reads and section-picks the statements file. With refresh set and a
// quote source configured, the live quote is fetched alongside the file read
// and merged into Basic Info; a failed quote is logged, not returned.
func (l *StatementLoader) Load(ctx context.Context, symbol string, refresh bool) (*StatementsFile, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	path := l.Path(sym)

	var (
		file  *StatementsFile
		quote *Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrStatementsNotFound, path)
			}
			return fmt.Errorf("failed to read statements: %w", err)
		}
		f, err := ParseStatements(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		f.Symbol, f.Path = sym, path
		file = f
		return nil
	})
	if refresh && l.quotes != nil {
		g.Go(func() error {
			q, err := l.quotes.Quote(gctx, sym)
			if err != nil {
				l.logger.Warn("quote refresh failed", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			quote = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if quote != nil {
		quote.MergeInto(file.Statements.BasicInfo)
	}
	l.logger.Debug("statements loaded",
		zap.String("symbol", sym),
		zap.Strings("keys", file.Keys),
		zap.Int("income_years", len(file.Statements.Income)),
		zap.Bool("quote", quote != nil),
	)
	return file, nil
}

// ParseStatements decodes a statements file and picks its sections.
func ParseStatements(data []byte) (*StatementsFile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse statements: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingSections)
	}

	f := &StatementsFile{}
	for k := range raw {
		f.Keys = append(f.Keys, k)
	}
	sort.Strings(f.Keys)

	pick := func(candidates []string) (json.RawMessage, string) {
		for _, c := range candidates {
			if v, ok := raw[c]; ok {
				return v, c
			}
		}
		return nil, ""
	}

	isRaw, isKey := pick(SectionKeys.Income)
	bsRaw, bsKey := pick(SectionKeys.Balance)
	cfRaw, cfKey := pick(SectionKeys.CashFlow)
	if isKey == "" || bsKey == "" || cfKey == "" {
		return nil, fmt.Errorf("%w (IS=%q, BS=%q, CF=%q)", ErrMissingSections, isKey, bsKey, cfKey)
	}

	decode := func(name string, msg json.RawMessage, into interface{}) error {
		if len(msg) == 0 || string(msg) == "null" {
			return nil
		}
		if err := json.Unmarshal(msg, into); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return nil
	}

	st := models.Statements{BasicInfo: map[string]interface{}{}}
	if err := decode(isKey, isRaw, &st.Income); err != nil {
		return nil, err
	}
	if err := decode(bsKey, bsRaw, &st.Balance); err != nil {
		return nil, err
	}
	if err := decode(cfKey, cfRaw, &st.CashFlow); err != nil {
		return nil, err
	}
	if basicRaw, basicKey := pick(SectionKeys.Basic); basicKey != "" {
		if err := decode(basicKey, basicRaw, &st.BasicInfo); err != nil {
			return nil, err
		}
		if st.BasicInfo == nil {
			st.BasicInfo = map[string]interface{}{}
		}
	}
	f.Statements = st
	return f, nil
}
