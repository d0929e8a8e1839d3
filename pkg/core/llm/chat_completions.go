package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatCompletionsProvider speaks the OpenAI chat-completions wire format,
// which DeepSeek and OpenAI both serve.
type ChatCompletionsProvider struct {
	Name         string   // error code prefix, e.g. "DEEPSEEK"
	BaseURL      string   // e.g. "https://api.deepseek.com"
	DefaultModel string   // used when options carry no "model"
	KeyEnvs      []string // env vars tried in order for the API key
	HTTPClient   *http.Client
}

var _ Provider = (*ChatCompletionsProvider)(nil)

// NewDeepSeekProvider returns the DeepSeek chat provider.
func NewDeepSeekProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:         "DEEPSEEK",
		BaseURL:      "https://api.deepseek.com",
		DefaultModel: "deepseek-chat",
		KeyEnvs:      []string{"DEEPSEEK_API_KEY"},
	}
}

// NewOpenAIProvider returns the OpenAI chat provider.
func NewOpenAIProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		Name:         "OPENAI",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		KeyEnvs:      []string{"OPENAI_API_KEY"},
	}
}

type ChatRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ChatCompletionsProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	key := apiKey(options, p.KeyEnvs...)
	if key == "" {
		return "", fmt.Errorf("%s_API_KEY_MISSING: Please set %s", p.Name, strings.Join(p.KeyEnvs, " or "))
	}

	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Content: systemPrompt, Role: "system"})
	}
	messages = append(messages, Message{Content: prompt, Role: "user"})

	reqBody := ChatRequest{
		Messages:    messages,
		Model:       optString(options, "model", p.DefaultModel),
		MaxTokens:   4096,
		Temperature: optFloat(options, "temperature", DefaultTemperature),
	}
	if optBool(options, "json") {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s_MARSHAL_ERROR: %v", p.Name, err)
	}

	url := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("%s_REQ_CREATE_ERROR: %v", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	client := p.HTTPClient
	if client == nil {
		client = defaultHTTPClient
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s_API_CALL_ERROR: %v", p.Name, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%s_READ_BODY_ERROR: %v", p.Name, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s_API_ERROR: status=%d body=%s", p.Name, res.StatusCode, string(body))
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%s_UNMARSHAL_ERROR: %v", p.Name, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s_NO_CHOICES: %s", p.Name, string(body))
	}
	return response.Choices[0].Message.Content, nil
}

func (p *ChatCompletionsProvider) AdaptInstructions(raw string) string {
	return raw
}
