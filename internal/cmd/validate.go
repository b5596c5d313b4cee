package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/microassess/internal/config"
	"github.com/harrison/microassess/internal/definition"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [DEFINITION]",
		Short: "Validate an assessment definition",
		Long: `Parse and validate an assessment definition, checking for:
  - Unique section and question ids
  - Question types and their Yes/No/N/A options
  - Declared question counts matching the questions defined
  - Rating thresholds that are ordered, contiguous and open at the top

Without DEFINITION the configured definition (or the built-in catalogue) is
checked.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := config.ResolvePath(home, cfg.DefinitionPath)
			if len(args) == 1 {
				path = args[0]
			}
			return validateDefinition(cmd, path)
		},
	}
	return cmd
}

func validateDefinition(cmd *cobra.Command, path string) error {
	w := cmd.OutOrStdout()
	def, err := definition.Load(path)
	if err != nil {
		return fmt.Errorf("definition is invalid:\n%w", err)
	}

	name := path
	if name == "" {
		name = "built-in catalogue"
	}

	keys := 0
	for _, sec := range def.Sections {
		for _, q := range sec.Questions {
			if q.IsKey {
				keys++
			}
		}
	}

	fmt.Fprintf(w, "%s %s is valid\n", color.New(color.FgGreen).Sprint("✓"), name)
	fmt.Fprintf(w, "  %s: %d sections, %d scored questions, %d key questions\n", def.Title, len(def.Sections), def.ScoredQuestionCount(), keys)
	for _, sec := range def.Sections {
		fmt.Fprintf(w, "  %-3s %-50s %d scored, %d bands\n", sec.ID, sec.Title, sec.Scoring.TotalApplicableQuestions, len(sec.Scoring.Thresholds))
	}
	return nil
}
