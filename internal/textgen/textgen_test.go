package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"text/template"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{
		QuestionText:   "Are bank reconciliations prepared monthly?",
		UserAnswer:     "No: only at year end",
		RiskAssessment: "High",
		IdealState:     "Monthly reconciliations by an independent officer.",
		Organization:   "Community Health Services",
	}
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(sampleRequest())
	require.NoError(t, err)
	assert.Contains(t, p, "Are bank reconciliations prepared monthly?")
	assert.Contains(t, p, "No: only at year end")
	assert.Contains(t, p, "Assessed risk: High")
	assert.Contains(t, p, "Community Health Services")
	assert.Contains(t, p, "Detailed Action Plan")

	req := sampleRequest()
	req.Organization = ""
	p, err = BuildPrompt(req)
	require.NoError(t, err)
	assert.Contains(t, p, "the implementing partner")
}

func TestRenderPrompt_ReturnsTemplateError(t *testing.T) {
	broken := template.Must(template.New("broken").Parse("{{.NoSuchField}}"))

	p, err := renderPrompt(broken, sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render prompt")
	assert.Empty(t, p)
}

func TestResponseSchemaIsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(ResponseSchema), &v))
	assert.Equal(t, "object", v["type"])
}

func TestDisabled(t *testing.T) {
	_, err := Disabled().Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrDisabled)
	assert.True(t, IsDisabled(Disabled()))
	assert.True(t, IsDisabled(nil))
}

func TestWithTimeout_BoundsSlowGenerator(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := GeneratorFunc(func(ctx context.Context, req Request) (*Response, error) {
		<-release // ignores ctx on purpose
		return &Response{Recommendation: "late"}, nil
	})

	start := time.Now()
	_, err := WithTimeout(slow, 20*time.Millisecond).Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithTimeout_PassesThrough(t *testing.T) {
	fast := GeneratorFunc(func(ctx context.Context, req Request) (*Response, error) {
		return &Response{Recommendation: "ok"}, nil
	})
	resp, err := WithTimeout(fast, time.Second).Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Recommendation)

	d := Disabled()
	assert.Equal(t, d, WithTimeout(d, time.Second))
}

func TestHTTPGenerator(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"recommendation":"  Assign an independent reconciler.  "}`}},
			},
		})
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL+"/", "gpt-test", "secret")
	resp, err := g.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Assign an independent reconciler.", resp.Recommendation)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "gpt-test", gotBody["model"])
}

func TestHTTPGenerator_PlainTextAndFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"plain text completion", 200, `{"choices":[{"message":{"content":"Reconcile every month."}}]}`, "Reconcile every month.", nil},
		{"empty completion", 200, `{"choices":[{"message":{"content":"   "}}]}`, "", ErrEmptyRecommendation},
		{"no choices", 200, `{"choices":[]}`, "", ErrEmptyRecommendation},
		{"server error", 500, `overloaded`, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewHTTPGenerator(srv.URL, "", "").Generate(context.Background(), sampleRequest())
			if tt.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, resp.Recommendation)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				assert.Contains(t, err.Error(), "status 500")
			}
		})
	}
}

func TestCheckResponse(t *testing.T) {
	_, err := checkResponse(nil)
	assert.ErrorIs(t, err, ErrEmptyRecommendation)

	resp, err := checkResponse(&Response{Recommendation: "\n text \n"})
	require.NoError(t, err)
	assert.Equal(t, "text", resp.Recommendation)
}
