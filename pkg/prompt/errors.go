package prompt

import "errors"

var (
	// ErrAborted signals the respondent aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrRequired is returned by validators when a required field is left blank.
	ErrRequired = errors.New("prompt: an answer is required")
)
