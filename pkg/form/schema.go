package form

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/form.schema.json
var schemaFS embed.FS

const schemaURL = "https://formlogic.local/schemas/form.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := schemaFS.ReadFile("schema/form.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("form: read schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("form: load schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("form: compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Issue is a single schema violation.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidationError reports every schema violation found in a document.
type ValidationError struct {
	Source string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("form: %s is invalid", e.Source)
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		if issue.Path == "" {
			parts[i] = issue.Message
			continue
		}
		parts[i] = issue.Path + ": " + issue.Message
	}
	return fmt.Sprintf("form: %s is invalid: %s", e.Source, strings.Join(parts, "; "))
}

// validate checks a generic JSON value (as produced by encoding/json) against
// the embedded document schema.
func validate(source string, doc any) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("form: validate %s: %w", source, err)
	}
	return &ValidationError{Source: source, Issues: collectIssues(verr)}
}

func collectIssues(root *jsonschema.ValidationError) []Issue {
	seen := make(map[Issue]struct{})
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			issue := Issue{Path: v.InstanceLocation, Message: v.Message}
			if _, dup := seen[issue]; !dup {
				seen[issue] = struct{}{}
				issues = append(issues, issue)
			}
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(root)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}
