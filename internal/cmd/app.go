package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/microassess/internal/config"
	"github.com/harrison/microassess/internal/definition"
	"github.com/harrison/microassess/internal/display"
	"github.com/harrison/microassess/internal/logger"
	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/recommend"
	"github.com/harrison/microassess/internal/session"
	"github.com/harrison/microassess/internal/store"
	"github.com/harrison/microassess/internal/textgen"
)

// app is what every session command needs: config, catalogue, store and
// loggers. Build it with openApp and release it with close.
type app struct {
	home    string
	cfg     *config.Config
	def     *models.Assessment
	kv      store.KV
	log     logger.Logger
	fileLog *logger.FileLogger
	out     io.Writer
	errOut  io.Writer
}

// loadConfig resolves home, reads config.yaml and applies persistent flags.
func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	override, _ := cmd.Flags().GetString("home")
	home, err := config.ResolveHome(override)
	if err != nil {
		return "", nil, err
	}

	cfg, err := config.LoadConfigFromHome(home)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.MergeWithFlags(
		changedString(cmd, "log-level"),
		changedString(cmd, "definition"),
		changedString(cmd, "store"),
		changedString(cmd, "generator"),
	)
	if err := cfg.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return home, cfg, nil
}

func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func openApp(cmd *cobra.Command) (*app, error) {
	home, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	def, err := definition.Load(config.ResolvePath(home, cfg.DefinitionPath))
	if err != nil {
		return nil, err
	}

	kv, err := store.Open(cfg.Store.Backend, config.ResolvePath(home, cfg.Store.Path), home)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	a := &app{
		home:   home,
		cfg:    cfg,
		def:    def,
		kv:     kv,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	console := logger.NewConsoleLogger(a.errOut, cfg.LogLevel)
	fileLog, err := logger.NewFileLoggerWithLevel(config.ResolvePath(home, cfg.LogDir), cfg.LogLevel)
	if err != nil {
		// The run log is optional; the session still works without it.
		console.LogWarn(fmt.Sprintf("File logging disabled: %v", err))
		a.log = console
	} else {
		a.fileLog = fileLog
		a.log = logger.NewMultiLogger(console, fileLog)
	}
	return a, nil
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		a.log.LogWarn(fmt.Sprintf("Closing state store: %v", err))
	}
	if a.fileLog != nil {
		a.fileLog.Close()
	}
}

// loadSession returns the saved session, or a fresh one when nothing usable
// was saved. A discarded document is reported but is not an error.
func (a *app) loadSession(ctx context.Context) (*session.Session, error) {
	s, outcome, err := session.Load(ctx, a.kv, a.def)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if outcome.Discarded {
		a.log.LogSessionDiscarded(outcome.Reason)
		display.Warning{
			Title:   "Saved session discarded",
			Message: outcome.Reason,
		}.Display(a.errOut)
	}
	return s, nil
}

func (a *app) save(ctx context.Context, s *session.Session) error {
	if err := s.Save(ctx, a.kv); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// generator builds the configured text generator. noGenerate forces the
// static texts.
func (a *app) generator(noGenerate bool) textgen.Generator {
	if noGenerate {
		return textgen.Disabled()
	}
	rc := a.cfg.Recommendations
	switch rc.Generator {
	case config.GeneratorClaude:
		return textgen.NewClaudeGenerator(rc.ClaudePath, rc.Timeout)
	case config.GeneratorHTTP:
		return textgen.NewHTTPGenerator(rc.HTTP.BaseURL, rc.HTTP.Model, a.cfg.APIKey())
	default:
		return textgen.Disabled()
	}
}

func (a *app) compiler(s *session.Session, noGenerate bool, progress recommend.ProgressFunc) *recommend.Compiler {
	rc := a.cfg.Recommendations
	return recommend.NewCompiler(a.generator(noGenerate), recommend.Options{
		MaxConcurrency: rc.MaxConcurrency,
		Timeout:        rc.Timeout,
		Organization:   s.OrganizationName,
		Logger:         a.log,
		OnProgress:     progress,
	})
}

// withSession loads the session, runs fn and saves the result. fn returns
// false to skip saving.
func withSession(cmd *cobra.Command, fn func(a *app, s *session.Session) (bool, error)) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	s, err := a.loadSession(ctx)
	if err != nil {
		return err
	}

	changed, err := fn(a, s)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return a.save(ctx, s)
}
