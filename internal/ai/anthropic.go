package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	defaultModel      = "claude-3-5-haiku-latest"
	defaultMaxTokens  = 1024
)

// AnthropicProvider calls the Anthropic messages API.
type AnthropicProvider struct {
	apiKey string
	model  string
	client *http.Client
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = defaultModel
	}
	return &AnthropicProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic/" + p.model
}

type (
	anthropicRequest struct {
		Model     string             `json:"model"`
		MaxTokens int                `json:"max_tokens"`
		System    string             `json:"system,omitempty"`
		Messages  []anthropicMessage `json:"messages"`
	}

	anthropicMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	anthropicResponse struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
)

const systemPrompt = `You categorize Japanese work task names for a timesheet dashboard.
For each task name, pick exactly one category from the provided list.
Respond with a JSON array only, no prose. Each element:
{"work_name": "...", "category": "...", "confidence": 0.0-1.0, "reasoning": "..."}`

func (p *AnthropicProvider) Categorize(ctx context.Context, workNames, categories []string) ([]CategorizationResult, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if len(workNames) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf("Categories: %s\n\nTask names:\n%s",
		strings.Join(categories, ", "), strings.Join(workNames, "\n"))

	body, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: defaultMaxTokens,
		System:    systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call anthropic api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("anthropic api status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("anthropic api error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	results, err := parseResults(text)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "AI categorization completed",
		"provider", p.Name(), "requested", len(workNames), "returned", len(results))
	return results, nil
}

// parseResults decodes the model's JSON array, tolerating a markdown code
// fence around it.
func parseResults(text string) ([]CategorizationResult, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	var results []CategorizationResult
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	for i := range results {
		if results[i].Confidence < 0 {
			results[i].Confidence = 0
		}
		if results[i].Confidence > 1 {
			results[i].Confidence = 1
		}
	}
	return results, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
