package logic

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// IsSatisfied reports whether answer satisfies cond for a driver field of
// fieldType. Non-logicable driver types and empty answers never satisfy a
// condition.
func IsSatisfied(answer Answer, cond Condition, fieldType FieldType) bool {
	lt, ok := fieldType.Logicable()
	if !ok {
		return false
	}
	if answer.Empty() {
		return false
	}

	switch cond.Operator {
	case LessOrEqual:
		return numericAnswer(answer) <= cond.Value.Number()
	case GreaterOrEqual:
		return numericAnswer(answer) >= cond.Value.Number()
	case Equals:
		return isEqual(lt, answer, cond.Value)
	case IsEither:
		return isEither(lt, answer, cond.Value)
	}
	panic(fmt.Sprintf("logic: unhandled operator %q", cond.Operator))
}

// numericAnswer returns NaN for non-scalar answers so numeric operators fail.
func numericAnswer(answer Answer) float64 {
	if answer.Kind() != AnswerPlain {
		return math.NaN()
	}
	return ParseNumber(answer.Value())
}

func isEqual(lt LogicableType, answer Answer, want Value) bool {
	if want.IsList() || answer.Kind() == AnswerList {
		return false
	}

	switch lt {
	case LogicRadio:
		if want.String() == OthersOption && selectedOthers(answer) {
			return true
		}
		return answer.Value() == want.String()
	case LogicDecimal:
		return ParseNumber(answer.Value()) == want.Number()
	case LogicDropdown, LogicYesNo, LogicNumber, LogicRating:
		return answer.Value() == want.String()
	case LogicCheckbox:
		return false
	}
	panic(fmt.Sprintf("logic: unhandled logicable type %d", lt))
}

func isEither(lt LogicableType, answer Answer, want Value) bool {
	options := want.Strings()
	wantsOthers := slices.Contains(options, OthersOption)

	switch lt {
	case LogicCheckbox:
		if answer.Kind() != AnswerList {
			return false
		}
		selections := answer.Values()
		if wantsOthers && slices.Contains(selections, CheckboxOthersValue) && answer.OtherText() != "" {
			return true
		}
		for _, selection := range selections {
			if slices.Contains(options, selection) {
				return true
			}
		}
		return false
	case LogicRadio:
		if wantsOthers && selectedOthers(answer) {
			return true
		}
		return answer.Kind() != AnswerList && slices.Contains(options, answer.Value())
	case LogicDecimal:
		if answer.Kind() == AnswerList {
			return false
		}
		got := ParseNumber(answer.Value())
		for _, option := range options {
			if ParseNumber(option) == got {
				return true
			}
		}
		return false
	case LogicDropdown, LogicYesNo, LogicNumber, LogicRating:
		return answer.Kind() != AnswerList && slices.Contains(options, answer.Value())
	}
	panic(fmt.Sprintf("logic: unhandled logicable type %d", lt))
}

// selectedOthers reports whether a radio answer chose the free-text option
// and filled it in. Server responses encode the choice as "Others: <text>".
func selectedOthers(answer Answer) bool {
	switch answer.Kind() {
	case AnswerRadioOther:
		return answer.Value() == RadioOthersValue && answer.OtherText() != ""
	case AnswerPlain:
		return strings.HasPrefix(answer.Value(), OthersPrefix)
	}
	return false
}

// OthersPrefix marks a server-side radio or checkbox answer carrying free
// text for the "Others" option.
const OthersPrefix = "Others: "
