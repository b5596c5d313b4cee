package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultSystemPrompt keeps the CLI's answer machine-readable.
const DefaultSystemPrompt = "You are an assurance advisor for the Harmonized Approach to Cash Transfers (HACT). Your ONLY output must be valid JSON matching the provided schema. No code fences, no XML tags, no prose outside the JSON object. Markdown is allowed only inside JSON string values."

// Invoker runs the claude CLI. Create once and reuse; safe for concurrent use.
type Invoker struct {
	// ClaudePath defaults to "claude" on PATH.
	ClaudePath string

	// Timeout bounds every invocation. Zero leaves the caller's context in charge.
	Timeout time.Duration

	SystemPrompt string
}

// Request is one invocation.
type Request struct {
	Prompt string
	// Schema, when set, is passed as --json-schema.
	Schema string
}

// Response holds the CLI's stdout.
type Response struct {
	RawOutput []byte
}

// NewInvoker returns an Invoker with the default binary and system prompt.
func NewInvoker() *Invoker {
	return &Invoker{
		ClaudePath:   "claude",
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Args builds the command line for req.
func (inv *Invoker) Args(req Request) ([]string, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	systemPrompt := inv.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	args := []string{"--system-prompt", systemPrompt, "-p", req.Prompt}
	if req.Schema != "" {
		args = append(args, "--json-schema", req.Schema)
	}
	args = append(args,
		"--output-format", "json",
		"--settings", `{"disableAllHooks": true}`,
	)
	return args, nil
}

// Invoke runs the CLI once and returns its output.
func (inv *Invoker) Invoke(ctx context.Context, req Request) (*Response, error) {
	args, err := inv.Args(req)
	if err != nil {
		return nil, err
	}

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	claudePath := inv.ClaudePath
	if claudePath == "" {
		claudePath = "claude"
	}

	cmd := exec.CommandContext(ctx, claudePath, args...)
	SetCleanEnv(cmd)

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("claude invocation: %w", ctxErr)
		}
		detail := string(output)
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			detail = string(ee.Stderr)
		}
		return nil, fmt.Errorf("claude invocation failed: %w (output: %s)", err, truncate(strings.TrimSpace(detail), 300))
	}

	return &Response{RawOutput: output}, nil
}

type cliEnvelope struct {
	Type             string          `json:"type"`
	Content          string          `json:"content"`
	Result           string          `json:"result"`
	SessionID        string          `json:"session_id"`
	IsError          bool            `json:"is_error"`
	StructuredOutput json.RawMessage `json:"structured_output"`
}

// ParseResponse extracts the payload from CLI output.
//
// structured_output wins when it is a non-empty object, then content, then
// result. Output that is not an envelope is scanned for the outermost {...}
// and that object is returned as-is. Output with no JSON object yields "".
func ParseResponse(raw []byte) (content, sessionID string, err error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", "", nil
	}

	if c, sid, ok := parseEnvelope(trimmed); ok {
		return c, sid, nil
	}

	extracted := ExtractJSON(trimmed)
	if extracted == "" {
		return "", "", nil
	}
	if c, sid, ok := parseEnvelope(extracted); ok {
		return c, sid, nil
	}
	return "", "", nil
}

func parseEnvelope(s string) (string, string, bool) {
	var env cliEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return "", "", false
	}

	if structured := compactObject(env.StructuredOutput); structured != "" {
		return structured, env.SessionID, true
	}
	if env.Content != "" {
		return env.Content, env.SessionID, true
	}
	if env.Result != "" {
		return env.Result, env.SessionID, true
	}
	if env.Type == "" && env.SessionID == "" {
		// a bare JSON payload rather than a CLI envelope
		return s, "", true
	}
	return "", env.SessionID, true
}

func compactObject(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	s := buf.String()
	if s == "null" || s == "{}" {
		return ""
	}
	return s
}
