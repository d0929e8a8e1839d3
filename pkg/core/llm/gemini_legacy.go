package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// LegacyGeminiProvider talks to Gemini through the older generative-ai-go
// client. It has no native system instruction slot on every model, so the
// system prompt is prepended to the user prompt.
type LegacyGeminiProvider struct {
	Model string
}

var _ Provider = (*LegacyGeminiProvider)(nil)

func (p *LegacyGeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	key := apiKey(options, "GEMINI_API_KEY")
	if key == "" {
		return "", fmt.Errorf("GEMINI_API_KEY_MISSING: Please set GEMINI_API_KEY env var")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return "", fmt.Errorf("GEMINI_CLIENT_ERROR: %v", err)
	}
	defer client.Close()

	modelName := optString(options, "model", p.Model)
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(optFloat(options, "temperature", DefaultTemperature)))
	if optBool(options, "json") {
		model.ResponseMIMEType = "application/json"
	}

	fullPrompt := prompt
	if systemPrompt != "" {
		fullPrompt = fmt.Sprintf("%s\n\nTask: %s", systemPrompt, prompt)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return "", fmt.Errorf("GEMINI_API_CALL_ERROR: %v", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("GEMINI_NO_CANDIDATES: model %s", modelName)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func (p *LegacyGeminiProvider) AdaptInstructions(raw string) string {
	return raw
}
