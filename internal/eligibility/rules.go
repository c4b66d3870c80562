package eligibility

import (
	"govnav/internal/catalog"
)

// EvaluateCondition reports whether the profile satisfies the condition.
// An absent profile value never matches. Conditions come from a validated
// snapshot, so operator/kind mismatches cannot occur here; an unexpected
// mismatch evaluates to unmatched rather than panicking.
func EvaluateCondition(cond catalog.Condition, profile ProfileSnapshot) bool {
	value, present := profile.Field(cond.Field)
	if !present {
		return false
	}
	return evaluate(cond, value)
}

// evaluate dispatches on the closed operator set, one arm per tag.
func evaluate(cond catalog.Condition, value catalog.Value) bool {
	switch cond.Operator {
	case catalog.OpEq:
		return value.Equal(cond.Value)
	case catalog.OpNe:
		return !value.Equal(cond.Value)
	case catalog.OpGt:
		cmp, ok := value.Compare(cond.Value)
		return ok && cmp > 0
	case catalog.OpLt:
		cmp, ok := value.Compare(cond.Value)
		return ok && cmp < 0
	case catalog.OpGte:
		cmp, ok := value.Compare(cond.Value)
		return ok && cmp >= 0
	case catalog.OpLte:
		cmp, ok := value.Compare(cond.Value)
		return ok && cmp <= 0
	case catalog.OpIn:
		for _, candidate := range cond.Values {
			if value.Equal(candidate) {
				return true
			}
		}
		return false
	case catalog.OpBetween:
		// Inclusive on both ends; the validator guarantees min <= max.
		low, okLow := value.Compare(cond.Range[0])
		high, okHigh := value.Compare(cond.Range[1])
		return okLow && okHigh && low >= 0 && high <= 0
	}
	return false
}
