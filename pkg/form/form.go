package form

import (
	"github.com/goliatone/go-formlogic/pkg/logic"
)

// Field is a form field with the presentation data respondents see.
type Field struct {
	logic.Field
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Options     []string `json:"fieldOptions,omitempty"`
	// AllowOthers marks radio/checkbox fields offering a free-text "Others"
	// option.
	AllowOthers bool `json:"allowOthers,omitempty"`
}

// Form is a decoded form definition.
type Form struct {
	ID     string       `json:"_id"`
	Title  string       `json:"title,omitempty"`
	Source string       `json:"-"`
	Fields []Field      `json:"form_fields"`
	Rules  []logic.Rule `json:"form_logics"`
}

// LogicFields returns the field catalog in order, as the engine sees it.
func (f Form) LogicFields() []logic.Field {
	out := make([]logic.Field, len(f.Fields))
	for i, field := range f.Fields {
		out[i] = field.Field
	}
	return out
}

// Field returns the field with the given id.
func (f Form) Field(id string) (Field, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}
