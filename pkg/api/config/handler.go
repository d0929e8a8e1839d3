package config

import (
	"net/http"
	"strings"

	"financial_dashboard/pkg/api/respond"
	"financial_dashboard/pkg/core/agent"
)

type Response struct {
	ActiveProvider string                       `json:"active_provider"`
	Available      []string                     `json:"available"`
	Agents         map[string]agent.AgentConfig `json:"agents,omitempty"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// ProviderSwitcher is implemented by *agent.Manager.
type ProviderSwitcher interface {
	GetActiveProvider() string
	ProviderNames() []string
	Agents() map[string]agent.AgentConfig
	SetGlobalProvider(name string) error
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr ProviderSwitcher
}

// NewHandler creates a new config handler
func NewHandler(agentMgr ProviderSwitcher) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
	}
}

func (h *Handler) response() Response {
	return Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.ProviderNames(),
		Agents:         h.AgentMgr.Agents(),
	}
}

// HandleConfig serves GET /api/config.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.response())
}

// HandleSwitch serves POST /api/config/switch.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := respond.Decode(w, r, 1<<10, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.AgentMgr.SetGlobalProvider(strings.TrimSpace(req.Provider)); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, r, http.StatusOK, h.response())
}
