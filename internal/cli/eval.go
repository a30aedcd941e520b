package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	formlogic "github.com/goliatone/go-formlogic"
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/render"
)

// EvalReport is the outcome of evaluating a form against answers.
type EvalReport struct {
	FormID      string             `json:"formId"`
	Visible     []string           `json:"visible"`
	Hidden      []string           `json:"hidden"`
	Blocked     bool               `json:"blocked"`
	Blocking    *BlockingReport    `json:"blocking,omitempty"`
	Answers     logic.Answers      `json:"answers"`
	Diagnostics []logic.Diagnostic `json:"diagnostics,omitempty"`
}

// BlockingReport names the rule refusing submission.
type BlockingReport struct {
	RuleID  string `json:"ruleId"`
	Message string `json:"message"`
}

func newEvalReport(f form.Form, result formlogic.Result) EvalReport {
	report := EvalReport{
		FormID:      f.ID,
		Visible:     append([]string{}, result.VisibleIDs...),
		Hidden:      []string{},
		Blocked:     result.Blocked(),
		Answers:     result.Filtered,
		Diagnostics: result.Diagnostics,
	}
	for _, field := range f.Fields {
		if !result.Visible.Has(field.ID) {
			report.Hidden = append(report.Hidden, field.ID)
		}
	}
	if report.Answers == nil {
		report.Answers = logic.Answers{}
	}
	if result.Blocking != nil {
		report.Blocking = &BlockingReport{
			RuleID:  result.Blocking.ID,
			Message: render.NoticeMessage(*result.Blocking),
		}
	}
	return report
}

// WriteText renders the report for terminals.
func (r EvalReport) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "form:    %s\n", r.FormID)
	fmt.Fprintf(&b, "visible: %s\n", joinOrDash(r.Visible))
	fmt.Fprintf(&b, "hidden:  %s\n", joinOrDash(r.Hidden))
	if r.Blocking != nil {
		fmt.Fprintf(&b, "blocked: %s (%s)\n", r.Blocking.Message, r.Blocking.RuleID)
	} else {
		b.WriteString("blocked: no\n")
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "warning: %s\n", d.Error())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	var formPath, answersPath string

	cmd := &cobra.Command{
		Use:   "eval --form <file> [--answers <file>]",
		Short: "Evaluate a form against a set of answers",
		Long: `Evaluate a form document against answers and report the visible fields,
the answers that survive hidden-field filtering and the prevent-submission
rule that blocks the form, if any.

Answers are a JSON object keyed by field id. Use "-" to read them from stdin.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, cmd, formPath, answersPath)
		},
	}

	cmd.Flags().StringVarP(&formPath, "form", "f", "", "form document (JSON or YAML)")
	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", "answers JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("form")

	return cmd
}

func runEval(opts *RootOptions, cmd *cobra.Command, formPath, answersPath string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	f, err := loadForm(formPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidForm, "invalid form document", err)
	}
	answers, err := loadAnswers(answersPath, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidAnswers, "invalid answers", err)
	}

	result := formlogic.Evaluate(f.LogicFields(), f.Rules, answers)
	return formatter.Success(newEvalReport(f, result))
}
