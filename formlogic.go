// Package formlogic evaluates a form's conditional logic against a set of
// answers: which fields are visible, and whether any rule blocks submission.
//
// The same Evaluate call backs both the interactive respondent flow and the
// authoritative server-side submission gate, so the two always agree.
package formlogic

import (
	"sort"

	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/visibility"
)

// Result is the outcome of one evaluation.
type Result struct {
	// Visible holds the ids of the fields currently shown.
	Visible visibility.Set
	// VisibleIDs lists Visible in field catalog order.
	VisibleIDs []string
	// Filtered holds the answers restricted to visible fields.
	Filtered logic.Answers
	// Blocking is the first prevent-submission rule that matched, if any.
	Blocking *logic.Rule
	// Diagnostics lists rules discarded for referencing missing fields.
	Diagnostics logic.Diagnostics
}

// Blocked reports whether submission must be refused.
func (r Result) Blocked() bool { return r.Blocking != nil }

// HasInvalidRule reports whether any rule was discarded.
func (r Result) HasInvalidRule() bool { return r.Diagnostics.HasInvalidRule() }

// Evaluate runs grouping, visibility resolution, hidden-input filtering and
// prevent-submission resolution in that order. It never fails: malformed
// rules are dropped and reported through Result.Diagnostics.
func Evaluate(fields []logic.Field, rules []logic.Rule, answers logic.Answers, opts ...visibility.Option) Result {
	index := logic.IndexFields(fields)
	grouped := logic.GroupShowFieldsRules(rules, index)
	visible := visibility.Resolve(answers, fields, grouped, opts...)
	filtered := visibility.Filter(answers, visible)

	result := Result{
		Visible:     visible,
		VisibleIDs:  visible.Ordered(fields),
		Filtered:    filtered,
		Diagnostics: grouped.Diagnostics,
	}

	_, preventDiags := logic.PreventSubmitRules(rules, index)
	result.Diagnostics = append(result.Diagnostics, preventDiags...)
	sort.SliceStable(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].RuleIndex < result.Diagnostics[j].RuleIndex
	})

	if rule, ok := logic.FindBlockingRule(filtered, fields, rules); ok {
		result.Blocking = &rule
	}
	return result
}
