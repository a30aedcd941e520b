package logic

// PreventSubmitRules returns the prevent-submission rules whose conditions all
// reference fields in index, in their original order, plus diagnostics for
// the rules that were dropped.
func PreventSubmitRules(rules []Rule, index FieldIndex) ([]Rule, Diagnostics) {
	var (
		valid []Rule
		diags Diagnostics
	)
	for pos, rule := range rules {
		if rule.Kind != PreventSubmit {
			continue
		}
		if diag, invalid := diagnose(index, pos, rule); invalid {
			diags = append(diags, diag)
			continue
		}
		valid = append(valid, rule)
	}
	return valid, diags
}

// FindBlockingRule returns the first valid prevent-submission rule whose
// conditions are all satisfied by answers. Callers pass answers already
// restricted to visible fields so a hidden field's stale answer cannot block
// submission. Invalid rules are skipped silently.
func FindBlockingRule(answers Answers, fields []Field, rules []Rule) (Rule, bool) {
	index := IndexFields(fields)
	valid, _ := PreventSubmitRules(rules, index)
	for _, rule := range valid {
		if AllSatisfied(rule.Conditions, answers, index) {
			return rule, true
		}
	}
	return Rule{}, false
}

// AllSatisfied reports whether every condition holds for answers, using index
// to resolve driver field types. A missing answer fails its condition.
func AllSatisfied(conditions []Condition, answers Answers, index FieldIndex) bool {
	for _, cond := range conditions {
		fieldType, ok := index[cond.FieldID]
		if !ok {
			return false
		}
		answer, ok := answers[cond.FieldID]
		if !ok || !IsSatisfied(answer, cond, fieldType) {
			return false
		}
	}
	return true
}
