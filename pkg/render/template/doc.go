// Package template defines the renderer-agnostic template interface used for
// respondent-facing fragments. The pongo subpackage provides the default
// implementation.
package template
