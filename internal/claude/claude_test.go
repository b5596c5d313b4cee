package claude

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name          string
		rawOutput     string
		wantContent   string
		wantSessionID string
	}{
		{"content field", `{"content":"Hello","session_id":"abc-123"}`, "Hello", "abc-123"},
		{"structured_output", `{"type":"result","session_id":"s1","structured_output":{"recommendation":"Adopt a policy"}}`, `{"recommendation":"Adopt a policy"}`, "s1"},
		{"structured_output null falls through", `{"type":"result","content":"via content","session_id":"s2","structured_output":null}`, "via content", "s2"},
		{"structured_output empty falls through", `{"type":"result","content":"via content","structured_output":{}}`, "via content", ""},
		{"result field", `{"type":"result","result":"text","session_id":"r1"}`, "text", "r1"},
		{"prose before envelope", "warning: slow\n" + `{"content":"Result","session_id":"m1"}`, "Result", "m1"},
		{"code fenced payload", "Here:\n```json\n{\"recommendation\":\"x\"}\n```\n", `{"recommendation":"x"}`, ""},
		{"bare payload", `{"recommendation":"Do the thing"}`, `{"recommendation":"Do the thing"}`, ""},
		{"plain text", "no json here", "", ""},
		{"empty", "", "", ""},
		{"unterminated", `{"recommendation":"x`, "", ""},
		{"only closing brace", `}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, sessionID, err := ParseResponse([]byte(tt.rawOutput))
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}
			if content != tt.wantContent {
				t.Errorf("ParseResponse() content = %q, want %q", content, tt.wantContent)
			}
			if sessionID != tt.wantSessionID {
				t.Errorf("ParseResponse() sessionID = %q, want %q", sessionID, tt.wantSessionID)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Recommendation string `json:"recommendation"`
	}

	require.NoError(t, Decode([]byte(`{"type":"result","structured_output":{"recommendation":"Reconcile monthly"}}`), &out))
	assert.Equal(t, "Reconcile monthly", out.Recommendation)

	require.NoError(t, Decode([]byte(`{"type":"result","result":"Sure! {\"recommendation\":\"Segregate duties\"} hope it helps"}`), &out))
	assert.Equal(t, "Segregate duties", out.Recommendation)

	err := Decode([]byte(`{"type":"result","session_id":"x"}`), &out)
	assert.ErrorContains(t, err, "empty response")

	err = Decode([]byte(`{"type":"result","result":"just words"}`), &out)
	assert.ErrorContains(t, err, "failed to unmarshal")
}

func TestInvoker_Args(t *testing.T) {
	inv := NewInvoker()

	_, err := inv.Args(Request{})
	assert.Error(t, err)

	args, err := inv.Args(Request{Prompt: "hello", Schema: `{"type":"object"}`})
	require.NoError(t, err)
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--system-prompt "+DefaultSystemPrompt)
	assert.Contains(t, joined, "-p hello")
	assert.Contains(t, joined, `--json-schema {"type":"object"}`)
	assert.Contains(t, joined, "--output-format json")
	assert.Contains(t, joined, `--settings {"disableAllHooks": true}`)

	args, err = inv.Args(Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.NotContains(t, args, "--json-schema")
}

func TestInvoker_MissingBinary(t *testing.T) {
	inv := NewInvoker()
	inv.ClaudePath = "/nonexistent/claude-binary"
	inv.Timeout = time.Second

	_, err := inv.Invoke(context.Background(), Request{Prompt: "hi"})
	assert.ErrorContains(t, err, "claude invocation failed")
}

func TestNewService(t *testing.T) {
	s := NewService("", 5*time.Second)
	assert.Equal(t, "claude", s.inv.ClaudePath)
	assert.Equal(t, 5*time.Second, s.inv.Timeout)

	s = NewService("/opt/bin/claude", time.Second)
	assert.Equal(t, "/opt/bin/claude", s.inv.ClaudePath)

	err := NewService("/nonexistent/claude-binary", time.Second).InvokeAndParse(context.Background(), "hi", "", &struct{}{})
	assert.ErrorContains(t, err, "claude invocation failed")
}

func TestDefaultSystemPrompt(t *testing.T) {
	assert.Contains(t, DefaultSystemPrompt, "JSON")
	assert.Contains(t, DefaultSystemPrompt, "No code fences")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON(`prefix {"a":1} suffix`))
	assert.Equal(t, "", ExtractJSON("} backwards {"))
	assert.Equal(t, "", ExtractJSON("nothing"))
}
