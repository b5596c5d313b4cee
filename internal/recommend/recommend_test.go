package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/microassess/internal/definition"
	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/textgen"
)

func question(id string, typ models.QuestionType, key bool, yes, no models.RiskBand) models.Question {
	return models.Question{
		ID:    id,
		Text:  "Does the partner do the thing described in question " + id + "?",
		IsKey: key,
		Type:  typ,
		Options: map[models.OptionKey]models.QuestionOption{
			models.OptionYes: {Risk: yes, Points: 1, Placeholder: "Describe the controls in place"},
			models.OptionNo:  {Risk: no, Points: 6},
		},
	}
}

func answer(v models.AnswerValue, explanation string) models.Answer {
	return models.Answer{Value: v, Explanation: explanation}
}

func TestShouldRecommend(t *testing.T) {
	plain := question("9.1", models.TypeYesNoExplain, false, models.RiskLow, models.RiskLow)
	riskyYes := question("9.2", models.TypeYesNoMultiExplain, false, models.RiskModerate, models.RiskLow)
	severeYes := question("9.3", models.TypeYesNoNA, false, models.RiskSignificant, models.RiskLow)
	naQ := question("9.4", models.TypeYesNoNA, true, models.RiskLow, models.RiskHigh)
	naQ.Options[models.OptionNA] = models.QuestionOption{Risk: models.RiskNA}
	info := models.Question{ID: "9.0", Type: models.TypeInfoOnly}

	tests := []struct {
		name string
		q    models.Question
		ans  models.Answer
		want bool
	}{
		{"no always", plain, answer(models.No(), ""), true},
		{"low yes", plain, answer(models.Yes(), "we have a policy"), false},
		{"significant yes", severeYes, answer(models.Yes(), ""), true},
		{"moderate yes with long explanation", riskyYes, answer(models.Yes(), "two audit findings in 2023"), true},
		{"moderate yes with short explanation", riskyYes, answer(models.Yes(), "one issue"), false},
		{"n/a never", naQ, answer(models.NotApplicable(), "no field offices at all"), false},
		{"unanswered never", naQ, answer(models.NoAnswer(), ""), false},
		{"info only never", info, answer(models.No(), ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRecommend(tt.q, tt.ans))
		})
	}
}

func TestStaticFor(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)
	q := func(id string) models.Question {
		ref, ok := def.FindQuestion(id)
		require.True(t, ok, id)
		return ref.Question
	}

	t.Run("rule table", func(t *testing.T) {
		got := StaticFor("Acme Relief", q("4.4"), answer(models.No(), ""))
		assert.True(t, strings.HasPrefix(got, "Critical: Acme Relief must perform monthly bank reconciliations"))
		assert.NotContains(t, got, "{org}")
	})

	t.Run("key question template", func(t *testing.T) {
		got := StaticFor("Acme Relief", q("1.2"), answer(models.No(), ""))
		assert.Contains(t, got, "Addressing the issue raised in question 1.2")
		assert.Contains(t, got, "is critical for Acme Relief")
	})

	t.Run("risk template", func(t *testing.T) {
		got := Static(q("4.5"), answer(models.No(), ""))
		assert.Contains(t, got, "For question 4.5")
		assert.Contains(t, got, "presents a moderate risk")
		assert.Contains(t, got, DefaultOrganization)
	})

	t.Run("excerpt is cut at seventy characters", func(t *testing.T) {
		long := q("1.2")
		assert.Greater(t, len([]rune(long.Text)), excerptLen)
		got := Static(long, answer(models.No(), ""))
		assert.Contains(t, got, `("`+string([]rune(long.Text)[:excerptLen])+`...")`)
	})

	t.Run("low risk no still has text", func(t *testing.T) {
		low := question("9.9", models.TypeYesNoExplain, false, models.RiskLow, models.RiskLow)
		got := Static(low, answer(models.No(), ""))
		assert.Contains(t, got, `was answered "No"`)
	})

	t.Run("nothing for low yes", func(t *testing.T) {
		assert.Empty(t, Static(q("1.1"), answer(models.Yes(), "")))
	})
}

func TestStatic_EveryNoInCatalogueHasText(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	for _, s := range def.Sections {
		for _, q := range s.Questions {
			if !q.IsScored() {
				continue
			}
			ans := answer(models.No(), "")
			require.True(t, ShouldRecommend(q, ans), q.ID)
			assert.NotEmpty(t, Static(q, ans), q.ID)
		}
	}
}

func TestNeedsGeneration(t *testing.T) {
	high := question("9.1", models.TypeYesNoExplain, false, models.RiskLow, models.RiskHigh)
	moderate := question("9.2", models.TypeYesNoExplain, false, models.RiskLow, models.RiskModerate)
	keyModerate := question("9.3", models.TypeYesNoExplain, true, models.RiskLow, models.RiskModerate)
	keyLow := question("9.4", models.TypeYesNoExplain, true, models.RiskLow, models.RiskLow)
	long := strings.Repeat("x", shortStaticLen)

	tests := []struct {
		name   string
		q      models.Question
		ans    models.Answer
		static string
		want   bool
	}{
		{"high risk", high, answer(models.No(), ""), long, true},
		{"moderate with detail", moderate, answer(models.No(), "the register was last updated in 2019"), long, true},
		{"moderate without detail", moderate, answer(models.No(), "not yet"), long, false},
		{"key moderate with short static", keyModerate, answer(models.No(), ""), "short", true},
		{"key moderate with long static", keyModerate, answer(models.No(), ""), long, false},
		{"key low", keyLow, answer(models.No(), ""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsGeneration(tt.q, tt.ans, tt.static))
		})
	}
}

func TestIdealState(t *testing.T) {
	q := question("9.1", models.TypeYesNoExplain, true, models.RiskLow, models.RiskHigh)
	got := IdealState("Acme Relief", q)
	assert.Contains(t, got, "The ideal state involves Acme Relief")
	assert.True(t, strings.HasSuffix(got, "For example, having Describe the controls in place."))

	q.Options[models.OptionYes] = models.QuestionOption{Risk: models.RiskLow, Points: 1}
	assert.Contains(t, IdealState("", q), "well-documented evidence and consistent application of best practices.")

	text := models.Question{ID: "9.5", Text: "Describe the audit history", Type: models.TypeTextInput}
	got = IdealState("", text)
	assert.Contains(t, got, `The ideal state for "Describe the audit history" involves the IP`)
}

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
	recs     []string
}

func (l *recordingLogger) LogDebug(string) {}

func (l *recordingLogger) LogWarn(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, message)
}

func (l *recordingLogger) LogRecommendation(id string, _ models.RiskBand, generated bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, fmt.Sprintf("%s:%t", id, generated))
}

func TestSelect_UsesGeneratorWhenEscalated(t *testing.T) {
	var got textgen.Request
	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (*textgen.Response, error) {
		got = req
		return &textgen.Response{Recommendation: "  Tailored advice.  "}, nil
	})
	c := NewCompiler(gen, Options{Organization: "Acme Relief"})

	q := question("9.1", models.TypeYesNoExplain, true, models.RiskLow, models.RiskHigh)
	rec := c.Select(context.Background(), "9", q, answer(models.No(), "no policy yet"))

	assert.True(t, rec.IsGenerated)
	assert.Equal(t, "Tailored advice.", rec.Text)
	assert.Equal(t, models.RiskHigh, rec.Risk)
	assert.Equal(t, "9", rec.SectionID)
	assert.Equal(t, "No: no policy yet", got.UserAnswer)
	assert.Equal(t, "High", got.RiskAssessment)
	assert.Equal(t, "Acme Relief", got.Organization)
	assert.Contains(t, got.IdealState, "Acme Relief")
}

func TestSelect_CollaboratorFailureKeepsStaticText(t *testing.T) {
	q := question("9.1", models.TypeYesNoExplain, true, models.RiskLow, models.RiskHigh)
	ans := answer(models.No(), "")
	static := Static(q, ans)

	generators := map[string]textgen.Generator{
		"error": textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
			return nil, errors.New("service unavailable")
		}),
		"empty": textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
			return &textgen.Response{Recommendation: "   "}, nil
		}),
		"nil response": textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
			return nil, nil
		}),
		"panic": textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
			panic("boom")
		}),
	}

	for name, gen := range generators {
		t.Run(name, func(t *testing.T) {
			log := &recordingLogger{}
			c := NewCompiler(gen, Options{Logger: log})

			rec := c.Select(context.Background(), "9", q, ans)

			assert.False(t, rec.IsGenerated)
			assert.Equal(t, static, rec.Text)
			assert.NotEmpty(t, rec.FallbackReason)
			require.Len(t, log.warnings, 1)
			assert.Contains(t, log.warnings[0], "question 9.1")
			assert.Equal(t, []string{"9.1:false"}, log.recs)
		})
	}
}

func TestSelect_SlowCollaboratorTimesOut(t *testing.T) {
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
		time.Sleep(2 * time.Second)
		return &textgen.Response{Recommendation: "late"}, nil
	})
	c := NewCompiler(gen, Options{Timeout: 20 * time.Millisecond})

	q := question("9.1", models.TypeYesNoExplain, true, models.RiskLow, models.RiskHigh)
	start := time.Now()
	rec := c.Select(context.Background(), "9", q, answer(models.No(), ""))

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, rec.IsGenerated)
	assert.Contains(t, rec.FallbackReason, context.DeadlineExceeded.Error())
}

func TestSelect_NoGenerationNeeded(t *testing.T) {
	var calls atomic.Int32
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
		calls.Add(1)
		return &textgen.Response{Recommendation: "unused"}, nil
	})
	c := NewCompiler(gen, Options{})

	q := question("9.1", models.TypeYesNoExplain, false, models.RiskLow, models.RiskLow)
	rec := c.Select(context.Background(), "9", q, answer(models.No(), ""))

	assert.False(t, rec.IsGenerated)
	assert.Empty(t, rec.FallbackReason)
	assert.Equal(t, int32(0), calls.Load())
}

func TestCompile_OrdersBySeverityThenQuestionOrder(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	answers := models.Answers{
		"1.2": answer(models.No(), ""),  // Low
		"1.3": answer(models.No(), ""),  // Moderate
		"1.4": answer(models.No(), ""),  // Significant
		"1.5": answer(models.Yes(), ""), // not flagged
		"2.1": answer(models.No(), ""),  // Moderate
		"3.3": answer(models.No(), ""),  // High
		"4.1": answer(models.No(), ""),  // High
		"4.5": answer(models.NotApplicable(), ""),
	}

	recs := NewCompiler(nil, Options{}).Compile(context.Background(), def, answers)

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.QuestionID)
		assert.NotEmpty(t, r.Text, r.QuestionID)
		assert.False(t, r.IsGenerated)
	}
	assert.Equal(t, []string{"3.3", "4.1", "1.4", "1.3", "2.1", "1.2"}, ids)
	assert.Equal(t, 0, Generated(recs))
}

func TestCompile_FailuresAreIsolated(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (*textgen.Response, error) {
		if strings.Contains(req.QuestionText, "bank") {
			return nil, errors.New("rate limited")
		}
		return &textgen.Response{Recommendation: "generated"}, nil
	})
	answers := models.Answers{
		"4.1": answer(models.No(), ""),
		"4.4": answer(models.No(), ""),
	}

	recs := NewCompiler(gen, Options{}).Compile(context.Background(), def, answers)
	require.Len(t, recs, 2)

	byID := map[string]Recommendation{}
	for _, r := range recs {
		byID[r.QuestionID] = r
	}
	assert.True(t, byID["4.1"].IsGenerated)
	assert.False(t, byID["4.4"].IsGenerated)
	assert.Contains(t, byID["4.4"].Text, "bank reconciliations")
	assert.Equal(t, 1, Generated(recs))
}

func TestCompile_BoundsConcurrency(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	var inFlight, peak atomic.Int32
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return &textgen.Response{Recommendation: "generated"}, nil
	})

	answers := models.Answers{}
	for _, s := range def.Sections {
		for _, q := range s.Questions {
			if q.IsScored() {
				answers[q.ID] = answer(models.No(), "")
			}
		}
	}

	var progress []int
	var mu sync.Mutex
	c := NewCompiler(gen, Options{
		MaxConcurrency: 2,
		OnProgress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, done)
			assert.Equal(t, def.ScoredQuestionCount(), total)
		},
	})

	recs := c.Compile(context.Background(), def, answers)

	assert.Len(t, recs, def.ScoredQuestionCount())
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Greater(t, Generated(recs), 0)
	require.NotEmpty(t, progress)
	assert.Equal(t, len(recs), progress[len(progress)-1])
}

func TestCompile_CancelledContextFallsBack(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (*textgen.Response, error) {
		return &textgen.Response{Recommendation: "generated"}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs := NewCompiler(gen, Options{}).Compile(ctx, def, models.Answers{"1.1": answer(models.No(), "")})

	require.Len(t, recs, 1)
	assert.False(t, recs[0].IsGenerated)
	assert.Contains(t, recs[0].Text, "legally registered")
}

func TestCompileSection(t *testing.T) {
	def, err := definition.Default()
	require.NoError(t, err)

	answers := models.Answers{
		"1.1": answer(models.No(), ""),
		"2.2": answer(models.No(), ""),
	}
	recs := NewCompiler(textgen.Disabled(), Options{}).CompileSection(context.Background(), def.Sections[1], answers)

	require.Len(t, recs, 1)
	assert.Equal(t, "2.2", recs[0].QuestionID)
	assert.Equal(t, "2", recs[0].SectionID)

	assert.Nil(t, NewCompiler(nil, Options{}).Compile(context.Background(), nil, answers))
}
