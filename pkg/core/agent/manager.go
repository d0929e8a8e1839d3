// Package agent routes prompts to the configured LLM provider.
package agent

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"financial_dashboard/pkg/core/llm"
)

// AgentAnalysis is the agent type used for the financial commentary.
const AgentAnalysis = "analysis"

type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
	Agents         map[string]AgentConfig    `yaml:"agents"`
}

type ProviderConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type AgentConfig struct {
	Provider    string   `yaml:"provider" json:"provider,omitempty"` // Optional override
	Description string   `yaml:"description" json:"description,omitempty"`
	Temperature *float64 `yaml:"temperature" json:"temperature,omitempty"`
}

// LoadConfig reads a models.yaml file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	logger    *zap.Logger
}

func NewManager(config Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := func(name string) string { return config.Providers[name].Model }
	chat := func(name string, p *llm.ChatCompletionsProvider) *llm.ChatCompletionsProvider {
		pc := config.Providers[name]
		if pc.Model != "" {
			p.DefaultModel = pc.Model
		}
		if pc.BaseURL != "" {
			p.BaseURL = pc.BaseURL
		}
		return p
	}

	return &Manager{
		config: config,
		logger: logger,
		providers: map[string]llm.Provider{
			"gemini":        &llm.GeminiProvider{Model: model("gemini")},
			"gemini-legacy": &llm.LegacyGeminiProvider{Model: model("gemini-legacy")},
			"deepseek":      chat("deepseek", llm.NewDeepSeekProvider()),
			"openai":        chat("openai", llm.NewOpenAIProvider()),
			"qwen":          &llm.QwenProvider{Model: model("qwen"), URL: config.Providers["qwen"].BaseURL},
		},
	}
}

// Register adds or replaces a named provider.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

func (m *Manager) GetProvider(agentType string) (llm.Provider, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p, agentConfig.Provider
		}
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p, m.config.ActiveProvider
	}
	return m.providers["gemini"], "gemini"
}

// GetProviderByName retrieves a provider instance by its name (e.g. "deepseek", "gemini").
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// ExecutePrompt adapts the system prompt for the agent's provider and runs it.
// The agent's configured temperature applies unless options set one.
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, string, error) {
	provider, name := m.GetProvider(agentType)
	if provider == nil {
		return "", "", fmt.Errorf("no provider configured for agent %s", agentType)
	}

	opts := make(map[string]interface{}, len(options)+1)
	for k, v := range options {
		opts[k] = v
	}
	m.mu.RLock()
	if ac, ok := m.config.Agents[agentType]; ok && ac.Temperature != nil {
		if _, set := opts["temperature"]; !set {
			opts["temperature"] = *ac.Temperature
		}
	}
	m.mu.RUnlock()

	m.logger.Debug("executing prompt",
		zap.String("agent", agentType),
		zap.String("provider", name),
		zap.Int("prompt_len", len(rawPrompt)),
	)
	out, err := provider.GenerateResponse(ctx, rawPrompt, provider.AdaptInstructions(rawSystemPrompt), opts)
	return out, name, err
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.logger.Info("global provider set", zap.String("provider", newProvider))
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// ProviderNames lists registered providers, sorted.
func (m *Manager) ProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for n := range m.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Agents returns a copy of the per-agent configuration.
func (m *Manager) Agents() map[string]AgentConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]AgentConfig, len(m.config.Agents))
	for k, v := range m.config.Agents {
		out[k] = v
	}
	return out
}
