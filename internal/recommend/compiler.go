package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/textgen"
)

// Defaults applied by NewCompiler.
const (
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 90 * time.Second
)

// Recommendation is the compiled advice for one flagged answer.
type Recommendation struct {
	SectionID    string          `json:"sectionId"`
	QuestionID   string          `json:"questionId"`
	QuestionText string          `json:"questionText"`
	IsKey        bool            `json:"isKeyQuestion"`
	Answer       models.Answer   `json:"answer"`
	Risk         models.RiskBand `json:"riskAssessment"`
	Text         string          `json:"recommendation"`
	IsGenerated  bool            `json:"isGenerated"`
	// FallbackReason is set when generation was attempted and the static
	// text was kept.
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// Logger is the subset of logging the compiler needs.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
	LogRecommendation(questionID string, risk models.RiskBand, generated bool)
}

// ProgressFunc is called after each flagged question is resolved.
type ProgressFunc func(done, total int)

// Options tune a Compiler.
type Options struct {
	// MaxConcurrency caps simultaneous generator calls. Values below 1 use
	// DefaultMaxConcurrency.
	MaxConcurrency int
	// Timeout bounds each generator call. Zero uses DefaultTimeout; a
	// negative value disables the bound.
	Timeout      time.Duration
	Organization string
	Logger       Logger
	OnProgress   ProgressFunc
}

// Compiler turns answers into recommendations.
type Compiler struct {
	gen  textgen.Generator
	opts Options
}

// NewCompiler returns a compiler that asks gen for tailored text. A nil gen
// behaves like textgen.Disabled.
func NewCompiler(gen textgen.Generator, opts Options) *Compiler {
	if gen == nil {
		gen = textgen.Disabled()
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Compiler{
		gen:  textgen.WithTimeout(gen, opts.Timeout),
		opts: opts,
	}
}

// Select builds the recommendation for one answer. Callers check
// ShouldRecommend first; Select does not.
//
// The static text is used unless NeedsGeneration holds, in which case the
// generator is asked once. Any generator failure keeps the static text.
func (c *Compiler) Select(ctx context.Context, sectionID string, q models.Question, ans models.Answer) Recommendation {
	static := StaticFor(c.opts.Organization, q, ans)
	rec := Recommendation{
		SectionID:    sectionID,
		QuestionID:   q.ID,
		QuestionText: q.Text,
		IsKey:        q.IsKey,
		Answer:       ans,
		Risk:         q.RiskFor(ans.Value),
		Text:         static,
	}

	if !NeedsGeneration(q, ans, static) || textgen.IsDisabled(c.gen) {
		c.logRecommendation(rec)
		return rec
	}

	text, err := c.generate(ctx, q, ans, rec.Risk)
	if err != nil {
		rec.FallbackReason = err.Error()
		c.warn(fmt.Sprintf("Recommendation for question %s: keeping static text: %v", q.ID, err))
		c.logRecommendation(rec)
		return rec
	}

	rec.Text = text
	rec.IsGenerated = true
	c.logRecommendation(rec)
	return rec
}

func (c *Compiler) generate(ctx context.Context, q models.Question, ans models.Answer, risk models.RiskBand) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := c.gen.Generate(ctx, textgen.Request{
		QuestionText:   q.Text,
		UserAnswer:     ans.Display(),
		RiskAssessment: risk.String(),
		IdealState:     IdealState(c.opts.Organization, q),
		Organization:   c.opts.Organization,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Recommendation) == "" {
		return "", textgen.ErrEmptyRecommendation
	}
	return strings.TrimSpace(resp.Recommendation), nil
}

type job struct {
	sectionID string
	question  models.Question
	answer    models.Answer
}

// Compile returns recommendations for every flagged answer in the
// assessment, most severe first and in questionnaire order within a band.
// It never fails: generator problems degrade to static text.
func (c *Compiler) Compile(ctx context.Context, a *models.Assessment, answers models.Answers) []Recommendation {
	if a == nil {
		return nil
	}
	var jobs []job
	for _, s := range a.Sections {
		jobs = append(jobs, flagged(s, answers)...)
	}
	return c.run(ctx, jobs)
}

// CompileSection is Compile restricted to one section.
func (c *Compiler) CompileSection(ctx context.Context, s models.Section, answers models.Answers) []Recommendation {
	return c.run(ctx, flagged(s, answers))
}

func flagged(s models.Section, answers models.Answers) []job {
	var jobs []job
	for _, q := range s.Questions {
		ans, ok := answers.Get(q.ID)
		if !ok || !ShouldRecommend(q, ans) {
			continue
		}
		jobs = append(jobs, job{sectionID: s.ID, question: q, answer: ans})
	}
	return jobs
}

func (c *Compiler) run(ctx context.Context, jobs []job) []Recommendation {
	if len(jobs) == 0 {
		return nil
	}

	results := make([]Recommendation, len(jobs))
	semaphore := make(chan struct{}, c.opts.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i, j := range jobs {
		select {
		case <-ctx.Done():
			// Remaining answers still get their static text.
			results[i] = c.Select(ctx, j.sectionID, j.question, j.answer)
			mu.Lock()
			done++
			c.progress(done, len(jobs))
			mu.Unlock()
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = c.Select(ctx, j.sectionID, j.question, j.answer)

			mu.Lock()
			done++
			c.progress(done, len(jobs))
			mu.Unlock()
		}(i, j)
	}
	wg.Wait()

	SortBySeverity(results)
	return results
}

// SortBySeverity orders recommendations High to N/A, keeping the existing
// order within a band.
func SortBySeverity(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Risk.Severity() > recs[j].Risk.Severity()
	})
}

// Generated counts the recommendations whose text came from the generator.
func Generated(recs []Recommendation) int {
	n := 0
	for _, r := range recs {
		if r.IsGenerated {
			n++
		}
	}
	return n
}

func (c *Compiler) progress(done, total int) {
	if c.opts.OnProgress != nil {
		c.opts.OnProgress(done, total)
	}
}

func (c *Compiler) warn(msg string) {
	if c.opts.Logger != nil {
		c.opts.Logger.LogWarn(msg)
	}
}

func (c *Compiler) logRecommendation(rec Recommendation) {
	if c.opts.Logger == nil {
		return
	}
	c.opts.Logger.LogRecommendation(rec.QuestionID, rec.Risk, rec.IsGenerated)
	if rec.FallbackReason == "" {
		c.opts.Logger.LogDebug(fmt.Sprintf("Question %s: %d characters of recommendation text", rec.QuestionID, len(rec.Text)))
	}
}
