package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	formlogic "github.com/goliatone/go-formlogic"
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
)

// LintReport lists the problems found in a form's rules. Diagnostics are
// rules the engine discards; warnings are rules it still applies.
type LintReport struct {
	FormID      string             `json:"formId"`
	Valid       bool               `json:"valid"`
	Diagnostics []logic.Diagnostic `json:"diagnostics,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// WriteText renders the report for terminals.
func (r LintReport) WriteText(w io.Writer) error {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "error:   %s\n", d.Error())
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warning)
	}
	if r.Valid {
		fmt.Fprintf(&b, "✓ %s: rules valid\n", r.FormID)
	} else {
		fmt.Fprintf(&b, "✗ %s: %d invalid rule(s)\n", r.FormID, len(r.Diagnostics))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	var formPath string

	cmd := &cobra.Command{
		Use:   "lint --form <file>",
		Short: "Report rules that reference missing fields",
		Long: `Lint a form document's logic.

Rules whose conditions reference fields missing from the form are discarded
by the engine and fail the lint. Operators the form builder does not offer
for a field type, conditions on fields that cannot drive logic and show
targets that do not exist are reported as warnings.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(rootOpts, cmd, formPath)
		},
	}

	cmd.Flags().StringVarP(&formPath, "form", "f", "", "form document (JSON or YAML)")
	_ = cmd.MarkFlagRequired("form")

	return cmd
}

func runLint(opts *RootOptions, cmd *cobra.Command, formPath string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	f, err := loadForm(formPath)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidForm, "invalid form document", err)
	}

	report := lintForm(f)
	if err := formatter.Success(report); err != nil {
		return err
	}
	if !report.Valid {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%s: %d invalid rule(s)", f.ID, len(report.Diagnostics))}
	}
	return nil
}

func lintForm(f form.Form) LintReport {
	fields := f.LogicFields()
	index := logic.IndexFields(fields)
	result := formlogic.Evaluate(fields, f.Rules, logic.Answers{})

	report := LintReport{
		FormID:      f.ID,
		Valid:       !result.HasInvalidRule(),
		Diagnostics: result.Diagnostics,
	}
	for pos, rule := range f.Rules {
		if !rule.Valid(index) {
			continue
		}
		name := ruleName(pos, rule)
		for _, cond := range rule.Conditions {
			fieldType := index[cond.FieldID]
			if _, ok := fieldType.Logicable(); !ok {
				report.Warnings = append(report.Warnings, fmt.Sprintf("rule %s: field %s (%s) cannot drive logic", name, cond.FieldID, fieldType))
				continue
			}
			if !offers(logic.ApplicableOperators(fieldType), cond.Operator) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("rule %s: operator %q is not offered for %s field %s", name, cond.Operator, fieldType, cond.FieldID))
			}
		}
		for _, target := range rule.Show {
			if !index.Has(target) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("rule %s: shows unknown field %s", name, target))
			}
		}
	}
	return report
}

func ruleName(pos int, rule logic.Rule) string {
	if rule.ID != "" {
		return rule.ID
	}
	return fmt.Sprintf("#%d", pos)
}

func offers(ops []logic.Operator, op logic.Operator) bool {
	for _, candidate := range ops {
		if candidate == op {
			return true
		}
	}
	return false
}
