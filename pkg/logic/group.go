package logic

// GroupedRules indexes valid show-fields rules by the field they reveal. Each
// target maps to a list of AND-groups; the target is visible when any group is
// fully satisfied.
type GroupedRules struct {
	ByTarget    map[string][][]Condition
	Diagnostics Diagnostics
}

// Groups returns the AND-groups revealing fieldID. A nil result means the
// field is unconditionally shown.
func (g GroupedRules) Groups(fieldID string) [][]Condition {
	return g.ByTarget[fieldID]
}

// HasInvalidRule reports whether any show-fields rule was discarded.
func (g GroupedRules) HasInvalidRule() bool {
	return g.Diagnostics.HasInvalidRule()
}

// GroupShowFieldsRules selects the show-fields rules, drops every rule with a
// condition on a field missing from index and appends the condition list of
// each remaining rule to all of its targets present in index. No answers are
// evaluated.
func GroupShowFieldsRules(rules []Rule, index FieldIndex) GroupedRules {
	grouped := GroupedRules{ByTarget: make(map[string][][]Condition)}
	for pos, rule := range rules {
		if rule.Kind != ShowFields {
			continue
		}
		if diag, invalid := diagnose(index, pos, rule); invalid {
			grouped.Diagnostics = append(grouped.Diagnostics, diag)
			continue
		}
		for _, target := range rule.Show {
			if !index.Has(target) {
				continue
			}
			grouped.ByTarget[target] = append(grouped.ByTarget[target], rule.Conditions)
		}
	}
	return grouped
}
