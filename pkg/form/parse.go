package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/logic/expr"
)

type documentFile struct {
	ID     string      `json:"_id"`
	Title  string      `json:"title"`
	Fields []fieldFile `json:"form_fields"`
	Logics []logicFile `json:"form_logics"`
}

type fieldFile struct {
	ID                string   `json:"_id"`
	FieldType         string   `json:"fieldType"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Required          bool     `json:"required"`
	FieldOptions      []string `json:"fieldOptions"`
	OthersRadioButton bool     `json:"othersRadioButton"`
	OthersCheckbox    bool     `json:"othersCheckbox"`
}

type conditionFile struct {
	Field string      `json:"field"`
	State string      `json:"state"`
	Value logic.Value `json:"value"`
}

type logicFile struct {
	ID                   string          `json:"_id"`
	LogicType            string          `json:"logicType"`
	Conditions           []conditionFile `json:"conditions"`
	When                 string          `json:"when"`
	Show                 []string        `json:"show"`
	PreventSubmitMessage string          `json:"preventSubmitMessage"`
}

// Parse decodes a JSON or YAML form document, validates it against the
// embedded schema and converts it into a Form. source names the document in
// error messages.
func Parse(data []byte, source string) (Form, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Form{}, fmt.Errorf("form: %s is empty", source)
	}

	generic, err := decodeGeneric(data)
	if err != nil {
		return Form{}, fmt.Errorf("form: parse %s: %w", source, err)
	}
	if err := validate(source, generic); err != nil {
		return Form{}, err
	}

	normalised, err := json.Marshal(generic)
	if err != nil {
		return Form{}, fmt.Errorf("form: normalise %s: %w", source, err)
	}
	var doc documentFile
	if err := json.Unmarshal(normalised, &doc); err != nil {
		return Form{}, fmt.Errorf("form: decode %s: %w", source, err)
	}

	form, err := convert(doc)
	if err != nil {
		return Form{}, fmt.Errorf("form: %s: %w", source, err)
	}
	form.Source = source
	return form, nil
}

// decodeGeneric reads JSON first and falls back to YAML, returning values in
// the shapes encoding/json produces.
func decodeGeneric(data []byte) (any, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err == nil {
		return generic, nil
	}

	var fromYAML any
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		return nil, errors.New("invalid JSON or YAML")
	}
	raw, err := json.Marshal(fromYAML)
	if err != nil {
		return nil, fmt.Errorf("yaml document is not JSON compatible: %w", err)
	}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

func convert(doc documentFile) (Form, error) {
	form := Form{
		ID:     strings.TrimSpace(doc.ID),
		Title:  strings.TrimSpace(doc.Title),
		Fields: make([]Field, 0, len(doc.Fields)),
		Rules:  make([]logic.Rule, 0, len(doc.Logics)),
	}

	seen := make(map[string]struct{}, len(doc.Fields))
	for idx, raw := range doc.Fields {
		id := strings.TrimSpace(raw.ID)
		if _, dup := seen[id]; dup {
			return Form{}, fmt.Errorf("duplicate field id %q", id)
		}
		seen[id] = struct{}{}

		fieldType := logic.FieldType(strings.TrimSpace(raw.FieldType))
		if !fieldType.Known() {
			return Form{}, fmt.Errorf("field %d (%s): unknown field type %q", idx, id, raw.FieldType)
		}
		form.Fields = append(form.Fields, Field{
			Field:       logic.Field{ID: id, Type: fieldType},
			Title:       raw.Title,
			Description: raw.Description,
			Required:    raw.Required,
			Options:     append([]string(nil), raw.FieldOptions...),
			AllowOthers: raw.OthersRadioButton || raw.OthersCheckbox,
		})
	}

	for idx, raw := range doc.Logics {
		rule, err := convertLogic(raw)
		if err != nil {
			name := raw.ID
			if name == "" {
				name = fmt.Sprintf("#%d", idx)
			}
			return Form{}, fmt.Errorf("logic %s: %w", name, err)
		}
		form.Rules = append(form.Rules, rule)
	}

	return form, nil
}

// convertLogic rejects unknown operators and rule types up front. Rules that
// reference missing fields are kept: the engine discards them and reports
// diagnostics instead.
func convertLogic(raw logicFile) (logic.Rule, error) {
	kind, err := logic.ParseRuleKind(raw.LogicType)
	if err != nil {
		return logic.Rule{}, err
	}

	conditions := make([]logic.Condition, 0, len(raw.Conditions))
	for _, c := range raw.Conditions {
		op, err := logic.ParseOperator(c.State)
		if err != nil {
			return logic.Rule{}, err
		}
		conditions = append(conditions, logic.Condition{
			FieldID:  strings.TrimSpace(c.Field),
			Operator: op,
			Value:    c.Value,
		})
	}
	if strings.TrimSpace(raw.When) != "" {
		parsed, err := expr.Parse(raw.When)
		if err != nil {
			return logic.Rule{}, err
		}
		conditions = append(conditions, parsed...)
	}

	switch kind {
	case logic.ShowFields:
		if len(raw.Show) == 0 {
			return logic.Rule{}, errors.New("showFields rule has no targets")
		}
		targets := make([]string, len(raw.Show))
		for i, target := range raw.Show {
			targets[i] = strings.TrimSpace(target)
		}
		return logic.NewShowFieldsRule(raw.ID, targets, conditions...), nil
	default:
		return logic.NewPreventSubmitRule(raw.ID, raw.PreventSubmitMessage, conditions...), nil
	}
}
