package logic

// FieldType identifies the kind of input a form field collects. Values match
// the form-builder field catalog wire names.
type FieldType string

// Field catalog.
const (
	FieldSection     FieldType = "section"
	FieldStatement   FieldType = "statement"
	FieldEmail       FieldType = "email"
	FieldMobile      FieldType = "mobile"
	FieldHomeNo      FieldType = "homeno"
	FieldCheckbox    FieldType = "checkbox"
	FieldRadio       FieldType = "radiobutton"
	FieldDropdown    FieldType = "dropdown"
	FieldChildren    FieldType = "children"
	FieldCountryCode FieldType = "country_region"
	FieldNric        FieldType = "nric"
	FieldUen         FieldType = "uen"
	FieldDate        FieldType = "date"
	FieldDecimal     FieldType = "decimal"
	FieldNumber      FieldType = "number"
	FieldRating      FieldType = "rating"
	FieldYesNo       FieldType = "yes_no"
	FieldAttachment  FieldType = "attachment"
	FieldTable       FieldType = "table"
	FieldLongText    FieldType = "textarea"
	FieldShortText   FieldType = "textfield"
	FieldImage       FieldType = "image"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldSection: {}, FieldStatement: {}, FieldEmail: {}, FieldMobile: {},
	FieldHomeNo: {}, FieldCheckbox: {}, FieldRadio: {}, FieldDropdown: {},
	FieldChildren: {}, FieldCountryCode: {}, FieldNric: {}, FieldUen: {},
	FieldDate: {}, FieldDecimal: {}, FieldNumber: {}, FieldRating: {},
	FieldYesNo: {}, FieldAttachment: {}, FieldTable: {}, FieldLongText: {},
	FieldShortText: {}, FieldImage: {},
}

// Known reports whether t is part of the field catalog.
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// LogicableType is the closed set of field types whose answers may drive a
// condition. It is the only type the condition evaluator switches on.
type LogicableType int

// Logicable field types.
const (
	LogicDropdown LogicableType = iota + 1
	LogicRadio
	LogicCheckbox
	LogicYesNo
	LogicNumber
	LogicDecimal
	LogicRating
)

// Logicable narrows t to a LogicableType. Fields that are not logicable can
// only be show/hide targets.
func (t FieldType) Logicable() (LogicableType, bool) {
	switch t {
	case FieldDropdown:
		return LogicDropdown, true
	case FieldRadio:
		return LogicRadio, true
	case FieldCheckbox:
		return LogicCheckbox, true
	case FieldYesNo:
		return LogicYesNo, true
	case FieldNumber:
		return LogicNumber, true
	case FieldDecimal:
		return LogicDecimal, true
	case FieldRating:
		return LogicRating, true
	default:
		return 0, false
	}
}

// ApplicableOperators returns the operators the form builder offers for a
// driver field of type t. Non-logicable types yield nil.
func ApplicableOperators(t FieldType) []Operator {
	lt, ok := t.Logicable()
	if !ok {
		return nil
	}
	switch lt {
	case LogicDropdown, LogicRadio:
		return []Operator{Equals, IsEither}
	case LogicNumber, LogicDecimal, LogicRating:
		return []Operator{Equals, LessOrEqual, GreaterOrEqual}
	case LogicYesNo:
		return []Operator{Equals}
	case LogicCheckbox:
		return []Operator{IsEither}
	}
	return nil
}

// Field is the logic engine's view of a form field: identity plus type.
type Field struct {
	ID   string    `json:"_id" yaml:"_id"`
	Type FieldType `json:"fieldType" yaml:"fieldType"`
}

// FieldIndex maps field ids to their types.
type FieldIndex map[string]FieldType

// IndexFields builds a FieldIndex from an ordered field catalog. Later
// duplicates win.
func IndexFields(fields []Field) FieldIndex {
	index := make(FieldIndex, len(fields))
	for _, field := range fields {
		index[field.ID] = field.Type
	}
	return index
}

// Has reports whether id is part of the catalog.
func (idx FieldIndex) Has(id string) bool {
	_, ok := idx[id]
	return ok
}
