// Package submission is the server-side submission gate. It decodes raw
// responses into engine answers, re-derives visibility from those answers
// instead of trusting the client, and refuses submissions blocked by a
// prevent-submission rule before anything reaches the Store.
package submission
