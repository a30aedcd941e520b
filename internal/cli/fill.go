package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formlogic/pkg/prompt"
)

// NewFillCommand creates the fill command.
func NewFillCommand(rootOpts *RootOptions) *cobra.Command {
	return newFillCommand(rootOpts, nil)
}

func newFillCommand(rootOpts *RootOptions, driver prompt.Driver) *cobra.Command {
	var formPath, answersPath, defaultsPath string

	cmd := &cobra.Command{
		Use:   "fill --form <file>",
		Short: "Fill a form interactively",
		Long: `Walk through a form in the terminal.

Fields are asked in order as they become visible; the form logic is
evaluated again after every answer. The session ends early when a
prevent-submission rule blocks the form. The final evaluation is printed
like eval and the command exits 1 when the form is blocked.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := driver
			if d == nil {
				d = prompt.NewSurveyDriver(cmd.ErrOrStderr())
			}
			return runFill(rootOpts, cmd, d, formPath, answersPath, defaultsPath)
		},
	}

	cmd.Flags().StringVarP(&formPath, "form", "f", "", "form document (JSON or YAML)")
	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "answers JSON file to start from")
	cmd.Flags().StringVar(&defaultsPath, "defaults", "", "answers JSON file offered as prompt defaults")
	_ = cmd.MarkFlagRequired("form")

	return cmd
}

func runFill(opts *RootOptions, cmd *cobra.Command, driver prompt.Driver, formPath, answersPath, defaultsPath string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	f, err := loadForm(formPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidForm, "invalid form document", err)
	}
	seed, err := loadAnswers(answersPath, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidAnswers, "invalid answers", err)
	}

	defaults, err := loadAnswers(defaultsPath, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidAnswers, "invalid defaults", err)
	}

	session := prompt.NewSession(f,
		prompt.WithDriver(driver),
		prompt.WithAnswers(seed),
		prompt.WithDefaults(defaults),
	)
	result, err := session.Run(cmd.Context())
	if errors.Is(err, prompt.ErrAborted) {
		return &ExitError{Code: ExitCommandError, Message: "aborted", Err: err}
	}
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "prompt failed", err)
	}

	if err := formatter.Success(newEvalReport(f, result)); err != nil {
		return err
	}
	if result.Blocked() {
		return &ExitError{Code: ExitFailure, Message: "submission blocked by rule " + result.Blocking.ID}
	}
	return nil
}
