package store

import (
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
	"github.com/goliatone/go-formlogic/pkg/logic/expr"
)

func eligibilityForm() form.Form {
	return form.Form{
		ID: "eligibility",
		Fields: []form.Field{
			{Field: logic.Field{ID: "age", Type: logic.FieldNumber}},
		},
		Rules: []logic.Rule{
			logic.NewPreventSubmitRule("minor", "", expr.MustParse("age <= 17")...),
		},
	}
}
