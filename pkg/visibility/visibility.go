// Package visibility resolves which form fields are currently shown to a
// respondent and strips answers that belong to hidden fields.
package visibility

import (
	"sort"

	"github.com/goliatone/go-formlogic/pkg/logic"
)

// Set holds visible field ids.
type Set map[string]struct{}

// Has reports whether id is visible.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of visible fields.
func (s Set) Len() int { return len(s) }

// IDs returns the visible ids sorted lexically.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Ordered returns the visible ids following the field catalog order.
func (s Set) Ordered(fields []logic.Field) []string {
	out := make([]string, 0, len(s))
	for _, field := range fields {
		if s.Has(field.ID) {
			out = append(out, field.ID)
		}
	}
	return out
}

// PassObserver is notified after every pass of the fixed-point loop with the
// ids that became visible during that pass, in catalog order.
type PassObserver func(pass int, added []string)

// Option customises a resolution call.
type Option func(*config)

type config struct {
	observer PassObserver
}

// WithPassObserver registers fn to receive per-pass additions.
func WithPassObserver(fn PassObserver) Option {
	return func(cfg *config) {
		cfg.observer = fn
	}
}

// Resolve runs the grouped show-fields rules to a fixed point and returns the
// visible field ids.
//
// Each pass walks the catalog in order. A field without AND-groups is shown
// unconditionally; otherwise it is shown once any group is fully satisfied.
// Conditions only see drivers that are already visible, so a hidden field's
// answer never reveals another field and fields gating each other in a cycle
// stay hidden unless something outside the cycle reveals one of them. Fields
// are never removed once added, which bounds the loop by the catalog size.
func Resolve(answers logic.Answers, fields []logic.Field, grouped logic.GroupedRules, opts ...Option) Set {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	visible := make(logic.FieldIndex, len(fields))
	for pass := 1; ; pass++ {
		var added []string
		for _, field := range fields {
			if visible.Has(field.ID) {
				continue
			}
			groups := grouped.Groups(field.ID)
			if len(groups) == 0 || anyGroupSatisfied(groups, answers, visible) {
				visible[field.ID] = field.Type
				added = append(added, field.ID)
			}
		}
		if cfg.observer != nil {
			cfg.observer(pass, added)
		}
		if len(added) == 0 {
			break
		}
	}

	out := make(Set, len(visible))
	for id := range visible {
		out[id] = struct{}{}
	}
	return out
}

// anyGroupSatisfied evaluates groups against the visible snapshot: drivers
// missing from visible fail their condition.
func anyGroupSatisfied(groups [][]logic.Condition, answers logic.Answers, visible logic.FieldIndex) bool {
	for _, group := range groups {
		if logic.AllSatisfied(group, answers, visible) {
			return true
		}
	}
	return false
}

// Filter returns a copy of answers restricted to visible field ids.
func Filter(answers logic.Answers, visible Set) logic.Answers {
	out := make(logic.Answers, len(answers))
	for id, answer := range answers {
		if visible.Has(id) {
			out[id] = answer
		}
	}
	return out
}
