package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/harrison/microassess/internal/claude"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HTTPGenerator calls an OpenAI-compatible /v1/chat/completions endpoint
// (OpenAI, LM Studio, Ollama, vLLM and similar).
type HTTPGenerator struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewHTTPGenerator returns a generator for baseURL. model and apiKey may be
// empty for local servers that ignore them.
func NewHTTPGenerator(baseURL, model, apiKey string) *HTTPGenerator {
	return &HTTPGenerator{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
	}
}

// Generate implements Generator.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("http generator: %w", err)
	}

	payload := map[string]interface{}{
		"messages": []chatMessage{
			{Role: "system", Content: claude.DefaultSystemPrompt + " Respond with an object of the form {\"recommendation\": \"...\"}."},
			{Role: "user", Content: prompt},
		},
		"temperature": 0.4,
		"stream":      false,
	}
	if g.model != "" {
		payload["model"] = g.model
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("http generator: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("http generator: decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyRecommendation
	}

	return parseCompletion(result.Choices[0].Message.Content)
}

// parseCompletion accepts either the requested JSON object or, from models
// that ignore the format instruction, plain text.
func parseCompletion(content string) (*Response, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyRecommendation
	}

	if obj := claude.ExtractJSON(content); obj != "" {
		var out Response
		if err := json.Unmarshal([]byte(obj), &out); err == nil && strings.TrimSpace(out.Recommendation) != "" {
			return checkResponse(&out)
		}
	}
	return checkResponse(&Response{Recommendation: content})
}
