package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const acmeStatements = `{
  "Profile": {"Symbol": "ACME", "Name": "", "Prices": {"2022": 24.5}},
  "Statement of Income": {"2022": {"Revenue": 1000, "Net Income": 150}, "2023": null},
  "Balance Sheet": {"2022": {"Total Assets": 1500}},
  "Cash Flow": {"2022": {"Capital Expenditure": 70}}
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParseStatements_SectionAliases(t *testing.T) {
	f, err := ParseStatements([]byte(acmeStatements))
	require.NoError(t, err)

	st := f.Statements
	assert.Equal(t, 1000.0, st.Income["2022"]["Revenue"])
	assert.Nil(t, st.Income["2023"])
	assert.Equal(t, 1500.0, st.Balance["2022"]["Total Assets"])
	assert.Equal(t, 70.0, st.CashFlow["2022"]["Capital Expenditure"])
	assert.Equal(t, "ACME", st.BasicInfo["Symbol"])
	assert.Equal(t, []string{"Balance Sheet", "Cash Flow", "Profile", "Statement of Income"}, f.Keys)
}

func TestParseStatements_MissingSection(t *testing.T) {
	_, err := ParseStatements([]byte(`{"Income Statement": {}, "Balance Sheet": {}}`))
	assert.ErrorIs(t, err, ErrMissingSections)

	_, err = ParseStatements([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingSections)

	_, err = ParseStatements([]byte(`[1,2]`))
	assert.Error(t, err)
}

type stubQuotes struct {
	q   *Quote
	err error
}

func (s stubQuotes) Quote(ctx context.Context, symbol string) (*Quote, error) { return s.q, s.err }

func TestStatementLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ACME_financials.json", acmeStatements)

	asOf := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	l := NewStatementLoader(dir, stubQuotes{q: &Quote{Symbol: "ACME", Name: "Acme Corp", Price: 31.2, AsOf: asOf}}, nil)

	f, err := l.Load(context.Background(), " acme ", false)
	require.NoError(t, err)
	assert.Equal(t, "ACME", f.Symbol)
	_, hasCurrent := f.Statements.BasicInfo["CurrentPrice"]
	assert.False(t, hasCurrent, "no quote without refresh")

	f, err = l.Load(context.Background(), "ACME", true)
	require.NoError(t, err)
	basic := f.Statements.BasicInfo
	assert.Equal(t, 31.2, basic["CurrentPrice"])
	assert.Equal(t, "Acme Corp", basic["Name"])
	prices := basic["Prices"].(map[string]interface{})
	assert.Equal(t, 24.5, prices["2022"])
	assert.Equal(t, 31.2, prices["2023"])
}

func TestStatementLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	l := NewStatementLoader(dir, stubQuotes{err: errors.New("down")}, nil)

	_, err := l.Load(context.Background(), "NOPE", true)
	assert.ErrorIs(t, err, ErrStatementsNotFound)

	_, err = l.Load(context.Background(), "../etc", false)
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	// A failed quote does not fail the load.
	writeFile(t, dir, "ACME_financials.json", acmeStatements)
	_, err = l.Load(context.Background(), "ACME", true)
	assert.NoError(t, err)
}

func TestRecordsLoader_Resolve(t *testing.T) {
	l := NewRecordsLoader("/srv/results")
	for _, bad := range []string{"../secret.json", "/etc/passwd", "", "a/../../b.json"} {
		_, err := l.Resolve(bad)
		assert.ErrorIs(t, err, ErrUnsafePath, bad)
	}
	p, err := l.Resolve("nested/result.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/results", "nested", "result.json"), p)
}

func TestRecordsLoader_SymlinkEscape(t *testing.T) {
	base := t.TempDir()
	results := filepath.Join(base, "results")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.MkdirAll(results, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	writeFile(t, outside, "secret.json", `[{"Year":"2023","ROE":1}]`)
	writeFile(t, results, "result.json", `[{"Year":"2023","ROE":2}]`)

	if err := os.Symlink(filepath.Join(outside, "secret.json"), filepath.Join(results, "link.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(results, "sub")))
	require.NoError(t, os.Symlink(filepath.Join(results, "result.json"), filepath.Join(results, "alias.json")))

	l := NewRecordsLoader(results)

	_, _, err := l.Load("link.json")
	assert.ErrorIs(t, err, ErrUnsafePath)
	_, _, err = l.Load("sub/secret.json")
	assert.ErrorIs(t, err, ErrUnsafePath)

	rs, _, err := l.Load("alias.json")
	require.NoError(t, err)
	assert.Equal(t, 2.0, rs.Records[0]["ROE"])
}

func TestRecordsLoader_Formats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "result.json", `[{"Stock Symbol":"ACME","Year":"2023","ROE":14.2}]`)
	writeFile(t, dir, "result.csv", "\ufeffStock Symbol,Year,ROE,Note\nACME,2023,14.2,\nACME,2024,,n/a\n")
	writeFile(t, dir, "result.html", `<html><body><table>
		<tr><th>Year</th><th>ROE</th></tr>
		<tr><td>2023</td><td> 14.2 </td></tr>
	</table></body></html>`)
	writeFile(t, dir, "result.xlsx", "x")

	l := NewRecordsLoader(dir)

	rs, _, err := l.Load("result.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock Symbol", "Year", "ROE"}, rs.Columns)

	rs, _, err = l.Load("result.csv")
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, []string{"Stock Symbol", "Year", "ROE", "Note"}, rs.Columns)
	assert.Equal(t, "2023", rs.Records[0]["Year"])
	assert.Equal(t, 14.2, rs.Records[0]["ROE"])
	assert.Nil(t, rs.Records[1]["ROE"])
	assert.Equal(t, "n/a", rs.Records[1]["Note"])

	rs, _, err = l.Load("result.html")
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, 14.2, rs.Records[0]["ROE"])

	_, _, err = l.Load("result.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = l.Load("missing.json")
	assert.ErrorIs(t, err, ErrRecordsNotFound)
}

func TestParseRecords_NonFiniteCells(t *testing.T) {
	rs, err := ParseRecords(".csv", []byte("Year,PE,PB,EV\n2022,inf,-Infinity,NaN\n"))
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	for _, c := range []string{"PE", "PB", "EV"} {
		v, ok := rs.Records[0][c]
		assert.True(t, ok, c)
		assert.Nil(t, v, c)
	}

	rs, err = ParseRecords(".html", []byte(`<table><tr><th>Year</th><th>PE</th></tr><tr><td>2022</td><td>inf</td></tr></table>`))
	require.NoError(t, err)
	assert.Nil(t, rs.Records[0]["PE"])
}

func TestYahooQuotes_ContextAndValidation(t *testing.T) {
	y := &YahooQuotes{
		limiter: rate.NewLimiter(rate.Inf, 1),
		get:     func(string) (*Quote, error) { return &Quote{Price: 0}, nil },
		now:     func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) },
	}
	_, err := y.Quote(context.Background(), "ACME")
	assert.Error(t, err)

	y.get = func(string) (*Quote, error) { return &Quote{Price: 10}, nil }
	q, err := y.Quote(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2024, q.AsOf.Year())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = y.Quote(ctx, "ACME")
	assert.ErrorIs(t, err, context.Canceled)
}
