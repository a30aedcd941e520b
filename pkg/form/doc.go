// Package form decodes form definition documents (JSON or YAML) into the
// field catalog and rule list consumed by the logic engine.
//
// Documents use the stored-form wire names: `form_fields` entries carry `_id`
// and `fieldType`; `form_logics` entries carry `logicType`, `conditions`
// (`field`, `state`, `value`), `show` and `preventSubmitMessage`. A logic
// entry may use a `when` shorthand expression instead of, or in addition to,
// explicit conditions:
//
//	form_logics:
//	  - logicType: showFields
//	    when: 'plan == "Pro" && seats >= 10'
//	    show: [invoice_email]
//
// Every document is validated against an embedded JSON Schema before it is
// converted.
package form
