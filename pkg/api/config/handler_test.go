package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_dashboard/pkg/core/agent"
)

type stubSwitcher struct{ active string }

func (s *stubSwitcher) GetActiveProvider() string { return s.active }
func (s *stubSwitcher) ProviderNames() []string  { return []string{"deepseek", "gemini"} }
func (s *stubSwitcher) Agents() map[string]agent.AgentConfig {
	return map[string]agent.AgentConfig{"analysis": {Provider: "deepseek"}}
}
func (s *stubSwitcher) SetGlobalProvider(name string) error {
	if name != "deepseek" && name != "gemini" {
		return fmt.Errorf("provider %s not found", name)
	}
	s.active = name
	return nil
}

func TestHandleConfig(t *testing.T) {
	h := NewHandler(&stubSwitcher{active: "gemini"})
	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gemini", resp.ActiveProvider)
	assert.Equal(t, []string{"deepseek", "gemini"}, resp.Available)
	assert.Equal(t, "deepseek", resp.Agents["analysis"].Provider)
}

func TestHandleSwitch(t *testing.T) {
	sw := &stubSwitcher{active: "gemini"}
	h := NewHandler(sw)

	rec := httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodPost, "/api/config/switch", strings.NewReader(`{"provider":"deepseek"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deepseek", sw.active)

	rec = httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodPost, "/api/config/switch", strings.NewReader(`{"provider":"kimi"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "kimi")

	rec = httptest.NewRecorder()
	h.HandleSwitch(rec, httptest.NewRequest(http.MethodPost, "/api/config/switch", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
