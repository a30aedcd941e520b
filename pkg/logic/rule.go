package logic

import (
	"fmt"
	"strings"
)

// RuleKind tags the two rule variants.
type RuleKind string

// Rule kinds, using their wire names.
const (
	ShowFields    RuleKind = "showFields"
	PreventSubmit RuleKind = "preventSubmit"
)

// ParseRuleKind resolves a wire value into a RuleKind.
func ParseRuleKind(raw string) (RuleKind, error) {
	switch strings.TrimSpace(raw) {
	case string(ShowFields):
		return ShowFields, nil
	case string(PreventSubmit):
		return PreventSubmit, nil
	}
	return "", fmt.Errorf("logic: unknown rule type %q", raw)
}

// Rule pairs AND-combined conditions with an outcome. ShowFields rules reveal
// the fields listed in Show; PreventSubmit rules block submission and may
// carry a Message for the respondent.
type Rule struct {
	ID         string      `json:"_id,omitempty"`
	Kind       RuleKind    `json:"logicType"`
	Conditions []Condition `json:"conditions"`
	Show       []string    `json:"show,omitempty"`
	Message    string      `json:"preventSubmitMessage,omitempty"`
}

// NewShowFieldsRule builds a rule revealing targets when every condition holds.
func NewShowFieldsRule(id string, targets []string, conditions ...Condition) Rule {
	return Rule{
		ID:         id,
		Kind:       ShowFields,
		Conditions: append([]Condition(nil), conditions...),
		Show:       append([]string(nil), targets...),
	}
}

// NewPreventSubmitRule builds a rule blocking submission when every condition
// holds.
func NewPreventSubmitRule(id, message string, conditions ...Condition) Rule {
	return Rule{
		ID:         id,
		Kind:       PreventSubmit,
		Conditions: append([]Condition(nil), conditions...),
		Message:    message,
	}
}

// MissingFields lists the condition field ids absent from index, in condition
// order without duplicates. A rule with any missing field is invalid.
func (r Rule) MissingFields(index FieldIndex) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, cond := range r.Conditions {
		if index.Has(cond.FieldID) {
			continue
		}
		if _, dup := seen[cond.FieldID]; dup {
			continue
		}
		seen[cond.FieldID] = struct{}{}
		missing = append(missing, cond.FieldID)
	}
	return missing
}

// Valid reports whether every condition references a field in index.
func (r Rule) Valid(index FieldIndex) bool {
	for _, cond := range r.Conditions {
		if !index.Has(cond.FieldID) {
			return false
		}
	}
	return true
}

// Diagnostic records a rule discarded during grouping or filtering.
type Diagnostic struct {
	RuleIndex     int      `json:"ruleIndex"`
	RuleID        string   `json:"ruleId,omitempty"`
	Kind          RuleKind `json:"logicType"`
	MissingFields []string `json:"missingFields"`
}

// Error describes the diagnostic in a form suitable for editor warnings.
func (d Diagnostic) Error() string {
	name := d.RuleID
	if name == "" {
		name = fmt.Sprintf("#%d", d.RuleIndex)
	}
	return fmt.Sprintf("logic: %s rule %s references missing fields %s", d.Kind, name, strings.Join(d.MissingFields, ", "))
}

// Diagnostics lists discarded rules.
type Diagnostics []Diagnostic

// HasInvalidRule reports whether any rule was discarded.
func (d Diagnostics) HasInvalidRule() bool { return len(d) > 0 }

func diagnose(index FieldIndex, pos int, rule Rule) (Diagnostic, bool) {
	missing := rule.MissingFields(index)
	if len(missing) == 0 {
		return Diagnostic{}, false
	}
	return Diagnostic{
		RuleIndex:     pos,
		RuleID:        rule.ID,
		Kind:          rule.Kind,
		MissingFields: missing,
	}, true
}
