// Package llm holds the chat-model providers used for AI commentary.
package llm

import (
	"context"
	"net/http"
	"os"
	"time"
)

// DefaultTemperature is used when the caller does not set "temperature".
const DefaultTemperature = 0.2

// Provider is the interface for all LLM providers.
//
// Recognized options: "model" (string), "temperature" (float64),
// "api_key" (string), "json" (bool, request a JSON object reply).
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

var defaultHTTPClient = &http.Client{Timeout: 90 * time.Second}

func optString(options map[string]interface{}, key, def string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return def
}

func optFloat(options map[string]interface{}, key string, def float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func optBool(options map[string]interface{}, key string) bool {
	v, _ := options[key].(bool)
	return v
}

// apiKey returns options["api_key"], else the first non-empty env var.
func apiKey(options map[string]interface{}, envs ...string) string {
	if v := optString(options, "api_key", ""); v != "" {
		return v
	}
	for _, e := range envs {
		if v := os.Getenv(e); v != "" {
			return v
		}
	}
	return ""
}
