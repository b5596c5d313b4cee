package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/harrison/microassess/internal/display"
	"github.com/harrison/microassess/internal/models"
)

// ConsoleLogger writes log lines to a writer with timestamps and thread safety.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// fatih/color already honours NO_COLOR and non-TTY output
		return !color.NoColor
	}
	return false
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// LogSectionScore logs a recomputed section score at DEBUG level.
func (cl *ConsoleLogger) LogSectionScore(score models.SectionScore) {
	cl.logWithLevel("DEBUG", sectionScoreMessage(score, cl.rating(score.AreaRiskRating)))
}

// LogOverallScore logs the overall rating at INFO level.
func (cl *ConsoleLogger) LogOverallScore(score models.OverallScore) {
	cl.logWithLevel("INFO", overallScoreMessage(score, cl.rating(score.OverallRiskRating)))
}

// LogNavigation logs a position change at DEBUG level.
func (cl *ConsoleLogger) LogNavigation(from, to string) {
	cl.logWithLevel("DEBUG", navigationMessage(from, to))
}

// LogValidationFailure logs a blocked move at INFO level.
func (cl *ConsoleLogger) LogValidationFailure(kind, sectionID string, missing []string) {
	cl.logWithLevel("INFO", validationMessage(kind, sectionID, missing))
}

// LogRecommendation logs where a recommendation's text came from at DEBUG level.
func (cl *ConsoleLogger) LogRecommendation(questionID string, risk models.RiskBand, generated bool) {
	cl.logWithLevel("DEBUG", recommendationMessage(questionID, risk, generated))
}

// LogSessionDiscarded logs a dropped saved state at WARN level.
func (cl *ConsoleLogger) LogSessionDiscarded(reason string) {
	cl.logWithLevel("WARN", discardedMessage(reason))
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

func (cl *ConsoleLogger) rating(r models.RiskBand) string {
	if !cl.colorOutput {
		return r.String()
	}
	return display.RiskColor(r).Sprint(r.String())
}
