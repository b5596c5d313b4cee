// Package textgen defines the recommendation-writing collaborator and its
// adapters: the claude CLI, an OpenAI-compatible HTTP endpoint, and a
// disabled generator that always declines.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyRecommendation is returned when the collaborator answers with no text.
	ErrEmptyRecommendation = errors.New("generator returned an empty recommendation")
	// ErrDisabled is returned by the disabled generator.
	ErrDisabled = errors.New("recommendation generation is disabled")
)

// Request describes one flagged answer.
type Request struct {
	QuestionText   string `json:"questionText"`
	UserAnswer     string `json:"userAnswer"`
	RiskAssessment string `json:"riskAssessment"`
	IdealState     string `json:"idealState"`
	// Organization names the assessed partner in the prompt when set.
	Organization string `json:"organization,omitempty"`
}

// Response carries the generated recommendation.
type Response struct {
	Recommendation string `json:"recommendation"`
}

// Generator writes a tailored recommendation for one request. Implementations
// must honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (*Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

type disabled struct{}

func (disabled) Generate(context.Context, Request) (*Response, error) {
	return nil, ErrDisabled
}

// Disabled returns a generator that always fails with ErrDisabled, so callers
// keep their static text.
func Disabled() Generator {
	return disabled{}
}

// IsDisabled reports whether g is the disabled generator.
func IsDisabled(g Generator) bool {
	_, ok := g.(disabled)
	return g == nil || ok
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

func (t timeoutGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{nil, fmt.Errorf("generator panicked: %v", r)}
			}
		}()
		resp, err := t.next.Generate(ctx, req)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("generate recommendation: %w", ctx.Err())
	}
}

// WithTimeout bounds every call to g by d, even when g ignores its context.
// A non-positive d returns g unchanged.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 || IsDisabled(g) {
		return g
	}
	return timeoutGenerator{next: g, timeout: d}
}

// checkResponse trims the recommendation and rejects empty text.
func checkResponse(resp *Response) (*Response, error) {
	if resp == nil {
		return nil, ErrEmptyRecommendation
	}
	text := strings.TrimSpace(resp.Recommendation)
	if text == "" {
		return nil, ErrEmptyRecommendation
	}
	return &Response{Recommendation: text}, nil
}
