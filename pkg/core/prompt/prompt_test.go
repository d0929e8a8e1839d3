package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{IDFinancialAnalysis, IDCompanyDescription}, r.ListPrompts())

	pt, err := r.GetPrompt(IDFinancialAnalysis)
	require.NoError(t, err)
	assert.Contains(t, pt.SystemPrompt, "suitable_for")

	_, err = r.GetPrompt("nope")
	assert.Error(t, err)
	assert.Error(t, r.Register(&PromptTemplate{}))
}

func TestRenderUserPrompt(t *testing.T) {
	r := NewRegistry()
	pt, err := r.GetPrompt(IDCompanyDescription)
	require.NoError(t, err)

	out, err := RenderUserPrompt(pt, NewContext().Set("Symbol", "ACME"))
	require.NoError(t, err)
	assert.Equal(t, "Describe the company with ticker ACME.", out)

	out, err = RenderUserPrompt(pt, NewContext().Set("Symbol", "ACME").Set("Name", "Acme Corp"))
	require.NoError(t, err)
	assert.Equal(t, "Describe the company with ticker ACME (Acme Corp).", out)

	_, err = RenderUserPrompt(pt, NewContext())
	assert.ErrorContains(t, err, "missing variable Symbol")
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "analysis"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis", "financial.json"),
		[]byte(`{"system_prompt":"custom","user_prompt_template":"{{.Ratios}}"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	r := NewRegistry()
	n, err := LoadFromDirectory(r, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pt, err := r.GetPrompt(IDFinancialAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "custom", pt.SystemPrompt)
	assert.Equal(t, "analysis", pt.Category)

	_, err = LoadFromDirectory(r, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
