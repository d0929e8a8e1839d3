package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	reply   string
	options map[string]interface{}
	system  string
}

func (p *recordingProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	p.options, p.system = options, systemPrompt
	return p.reply, nil
}

func (p *recordingProvider) AdaptInstructions(raw string) string { return "[adapted] " + raw }

const sampleYAML = `
active_provider: deepseek
providers:
  deepseek:
    model: deepseek-reasoner
agents:
  analysis:
    temperature: 0.2
  company:
    provider: fake
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.ActiveProvider)
	assert.Equal(t, "deepseek-reasoner", cfg.Providers["deepseek"].Model)
	require.NotNil(t, cfg.Agents["analysis"].Temperature)
	assert.Equal(t, 0.2, *cfg.Agents["analysis"].Temperature)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestManager_Routing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	m := NewManager(cfg, nil)
	active := &recordingProvider{reply: "from active"}
	fake := &recordingProvider{reply: "from fake"}
	m.Register("deepseek", active)
	m.Register("fake", fake)

	out, name, err := m.ExecutePrompt(context.Background(), AgentAnalysis, "p", "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "from active", out)
	assert.Equal(t, "deepseek", name)
	assert.Equal(t, "[adapted] sys", active.system)
	assert.Equal(t, 0.2, active.options["temperature"])

	out, name, err = m.ExecutePrompt(context.Background(), "company", "p", "", map[string]interface{}{"temperature": 0.9})
	require.NoError(t, err)
	assert.Equal(t, "from fake", out)
	assert.Equal(t, "fake", name)
	assert.Equal(t, 0.9, fake.options["temperature"])
}

func TestManager_SetGlobalProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"}, nil)
	assert.Contains(t, m.ProviderNames(), "gemini-legacy")

	require.NoError(t, m.SetGlobalProvider("qwen"))
	assert.Equal(t, "qwen", m.GetActiveProvider())
	_, name := m.GetProvider("anything")
	assert.Equal(t, "qwen", name)

	assert.Error(t, m.SetGlobalProvider("nope"))
	assert.Equal(t, "qwen", m.GetActiveProvider())
	assert.Nil(t, m.GetProviderByName("nope"))
}
