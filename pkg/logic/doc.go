// Package logic holds the conditional form logic model (fields, conditions,
// rules and answers) together with the pure building blocks of the logic
// engine: the condition evaluator, the show-fields rule grouping pass and the
// prevent-submission resolver.
//
// Everything in this package is deterministic and side-effect free. Malformed
// rules are never reported as errors; they are dropped and surfaced through
// Diagnostics so form-builder tooling can warn an editor while respondents
// keep a working form.
package logic
