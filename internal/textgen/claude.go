package textgen

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/microassess/internal/claude"
)

// ClaudeGenerator asks the claude CLI for a recommendation with the response
// shape enforced by ResponseSchema.
type ClaudeGenerator struct {
	claude.Service
}

// NewClaudeGenerator runs claudePath ("" for claude on PATH) with timeout per call.
func NewClaudeGenerator(claudePath string, timeout time.Duration) *ClaudeGenerator {
	return &ClaudeGenerator{Service: *claude.NewService(claudePath, timeout)}
}

// Generate implements Generator.
func (g *ClaudeGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("claude generator: %w", err)
	}

	var resp Response
	if err := g.InvokeAndParse(ctx, prompt, ResponseSchema, &resp); err != nil {
		return nil, fmt.Errorf("claude generator: %w", err)
	}
	return checkResponse(&resp)
}
