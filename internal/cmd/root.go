package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for microassess
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "microassess",
		Short: "HACT micro-assessment questionnaire with risk scoring",
		Long: `microassess walks an assessor through the HACT micro-assessment of an
implementing partner, one question at a time.

Answers are saved after every command. Each section is rated Low, Moderate,
Significant or High from the average of its answer points, and the report
lists recommendations for every answer that needs follow-up.

State lives in $MICROASSESS_HOME (default: ./.microassess).`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("home", "", "State directory (overrides $MICROASSESS_HOME)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("definition", "", "Assessment definition YAML (default: built-in HACT catalogue)")
	flags.String("store", "", "State backend: file or sqlite")
	flags.String("generator", "", "Recommendation generator: none, claude or http")

	cmd.AddCommand(NewStartCommand())
	cmd.AddCommand(NewResetCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewAnswerCommand())
	cmd.AddCommand(NewNextCommand())
	cmd.AddCommand(NewPrevCommand())
	cmd.AddCommand(NewNextSectionCommand())
	cmd.AddCommand(NewPrevSectionCommand())
	cmd.AddCommand(NewGotoCommand())
	cmd.AddCommand(NewSectionSummaryCommand())
	cmd.AddCommand(NewScoreCommand())
	cmd.AddCommand(NewReportCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewWalkCommand())

	return cmd
}
