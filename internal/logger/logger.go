// Package logger provides logging implementations for microassess.
//
// Console and file loggers share the "[HH:MM:SS] [LEVEL] message" line format
// and level filtering. Besides the generic level methods they carry a few
// assessment events (scores, navigation, validation, recommendations) so
// every caller words them the same way. Implementations are thread-safe.
package logger

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrison/microassess/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is implemented by ConsoleLogger, FileLogger, NoOpLogger and MultiLogger.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	LogSectionScore(score models.SectionScore)
	LogOverallScore(score models.OverallScore)
	LogNavigation(from, to string)
	LogValidationFailure(kind, sectionID string, missing []string)
	LogRecommendation(questionID string, risk models.RiskBand, generated bool)
	LogSessionDiscarded(reason string)
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func sectionScoreMessage(s models.SectionScore, rating string) string {
	return fmt.Sprintf("Section %s: %d points over %d questions, average %.2f, rating %s (%d)",
		s.SectionID, s.TotalRiskPoints, s.ApplicableCount, s.AverageRiskScore, rating, s.NumericRiskScore)
}

func overallScoreMessage(o models.OverallScore, rating string) string {
	return fmt.Sprintf("Overall: %d points over %d questions, average %.2f, rating %s (%d)",
		o.OverallTotalRiskPoints, o.OverallApplicableQuestions, o.OverallAverageRiskScore, rating, o.OverallNumericRiskScore)
}

func navigationMessage(from, to string) string {
	return fmt.Sprintf("Moved from %s to %s", from, to)
}

func validationMessage(kind, sectionID string, missing []string) string {
	return fmt.Sprintf("Blocked (%s) in section %s: unanswered %s", kind, sectionID, strings.Join(missing, ", "))
}

func recommendationMessage(questionID string, risk models.RiskBand, generated bool) string {
	source := "static"
	if generated {
		source = "generated"
	}
	return fmt.Sprintf("Recommendation for %s (%s risk): %s text", questionID, risk, source)
}

func discardedMessage(reason string) string {
	return fmt.Sprintf("Saved session discarded, starting fresh: %s", reason)
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                                 {}
func (n *NoOpLogger) LogDebug(string)                                 {}
func (n *NoOpLogger) LogInfo(string)                                  {}
func (n *NoOpLogger) LogWarn(string)                                  {}
func (n *NoOpLogger) LogError(string)                                 {}
func (n *NoOpLogger) LogSectionScore(models.SectionScore)             {}
func (n *NoOpLogger) LogOverallScore(models.OverallScore)             {}
func (n *NoOpLogger) LogNavigation(string, string)                    {}
func (n *NoOpLogger) LogValidationFailure(string, string, []string)   {}
func (n *NoOpLogger) LogRecommendation(string, models.RiskBand, bool) {}
func (n *NoOpLogger) LogSessionDiscarded(string)                      {}

// MultiLogger forwards every call to each wrapped logger in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger skips nil entries.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) LogTrace(msg string) { m.each(func(l Logger) { l.LogTrace(msg) }) }
func (m *MultiLogger) LogDebug(msg string) { m.each(func(l Logger) { l.LogDebug(msg) }) }
func (m *MultiLogger) LogInfo(msg string)  { m.each(func(l Logger) { l.LogInfo(msg) }) }
func (m *MultiLogger) LogWarn(msg string)  { m.each(func(l Logger) { l.LogWarn(msg) }) }
func (m *MultiLogger) LogError(msg string) { m.each(func(l Logger) { l.LogError(msg) }) }

func (m *MultiLogger) LogSectionScore(s models.SectionScore) {
	m.each(func(l Logger) { l.LogSectionScore(s) })
}

func (m *MultiLogger) LogOverallScore(o models.OverallScore) {
	m.each(func(l Logger) { l.LogOverallScore(o) })
}

func (m *MultiLogger) LogNavigation(from, to string) {
	m.each(func(l Logger) { l.LogNavigation(from, to) })
}

func (m *MultiLogger) LogValidationFailure(kind, sectionID string, missing []string) {
	m.each(func(l Logger) { l.LogValidationFailure(kind, sectionID, missing) })
}

func (m *MultiLogger) LogRecommendation(questionID string, risk models.RiskBand, generated bool) {
	m.each(func(l Logger) { l.LogRecommendation(questionID, risk, generated) })
}

func (m *MultiLogger) LogSessionDiscarded(reason string) {
	m.each(func(l Logger) { l.LogSessionDiscarded(reason) })
}
