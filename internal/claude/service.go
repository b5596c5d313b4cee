package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Service wraps an Invoker with the invoke-parse-unmarshal sequence shared
// by structured-output callers. Embed it or hold a pointer.
type Service struct {
	inv *Invoker
}

// NewService returns a Service running claudePath with timeout per call.
func NewService(claudePath string, timeout time.Duration) *Service {
	inv := NewInvoker()
	if claudePath != "" {
		inv.ClaudePath = claudePath
	}
	inv.Timeout = timeout
	return &Service{inv: inv}
}

// InvokeAndParse runs prompt with schema and unmarshals the payload into
// result. Prose around the JSON object is tolerated.
func (s *Service) InvokeAndParse(ctx context.Context, prompt, schema string, result interface{}) error {
	resp, err := s.inv.Invoke(ctx, Request{Prompt: prompt, Schema: schema})
	if err != nil {
		return err
	}
	return Decode(resp.RawOutput, result)
}

// Decode parses raw CLI output into result.
func Decode(raw []byte, result interface{}) error {
	content, _, err := ParseResponse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse claude output: %w", err)
	}
	if content == "" {
		return fmt.Errorf("empty response from claude")
	}

	if err := json.Unmarshal([]byte(content), result); err != nil {
		extracted := ExtractJSON(content)
		if extracted == "" || extracted == content {
			return fmt.Errorf("failed to unmarshal response: %w (content: %s)", err, truncate(content, 200))
		}
		if err := json.Unmarshal([]byte(extracted), result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w (content: %s)", err, truncate(content, 200))
		}
	}
	return nil
}

// ExtractJSON returns the substring from the first '{' to the last '}', or
// "" when there is no such pair.
func ExtractJSON(content string) string {
	start := -1
	for i, c := range content {
		if c == '{' {
			start = i
			break
		}
	}
	end := -1
	for i := len(content) - 1; i >= 0; i-- {
		if content[i] == '}' {
			end = i
			break
		}
	}
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
