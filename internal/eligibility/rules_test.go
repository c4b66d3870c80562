package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"govnav/internal/catalog"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestEvaluateCondition(t *testing.T) {
	profile := ProfileSnapshot{
		Age:           intPtr(30),
		HouseholdSize: intPtr(4),
		IncomeBracket: "low",
		Region:        "north",
		IsVeteran:     boolPtr(true),
	}

	tests := []struct {
		name      string
		condition catalog.Condition
		want      bool
	}{
		{"eq match", catalog.Condition{Field: "income_bracket", Operator: catalog.OpEq, Value: catalog.StringValue("low")}, true},
		{"eq mismatch", catalog.Condition{Field: "income_bracket", Operator: catalog.OpEq, Value: catalog.StringValue("high")}, false},
		{"ne match", catalog.Condition{Field: "region", Operator: catalog.OpNe, Value: catalog.StringValue("south")}, true},
		{"ne mismatch", catalog.Condition{Field: "region", Operator: catalog.OpNe, Value: catalog.StringValue("north")}, false},
		{"gt match", catalog.Condition{Field: "age", Operator: catalog.OpGt, Value: catalog.IntValue(18)}, true},
		{"gt boundary", catalog.Condition{Field: "age", Operator: catalog.OpGt, Value: catalog.IntValue(30)}, false},
		{"gte boundary", catalog.Condition{Field: "age", Operator: catalog.OpGte, Value: catalog.IntValue(30)}, true},
		{"lt match", catalog.Condition{Field: "age", Operator: catalog.OpLt, Value: catalog.IntValue(67)}, true},
		{"lte boundary", catalog.Condition{Field: "age", Operator: catalog.OpLte, Value: catalog.IntValue(30)}, true},
		{"bool eq match", catalog.Condition{Field: "is_veteran", Operator: catalog.OpEq, Value: catalog.BoolValue(true)}, true},
		{"in match", catalog.Condition{Field: "region", Operator: catalog.OpIn, Values: []catalog.Value{catalog.StringValue("east"), catalog.StringValue("north")}}, true},
		{"in mismatch", catalog.Condition{Field: "region", Operator: catalog.OpIn, Values: []catalog.Value{catalog.StringValue("east")}}, false},
		{"between inclusive low", catalog.Condition{Field: "household_size", Operator: catalog.OpBetween, Range: [2]catalog.Value{catalog.IntValue(4), catalog.IntValue(8)}}, true},
		{"between inclusive high", catalog.Condition{Field: "household_size", Operator: catalog.OpBetween, Range: [2]catalog.Value{catalog.IntValue(1), catalog.IntValue(4)}}, true},
		{"between outside", catalog.Condition{Field: "household_size", Operator: catalog.OpBetween, Range: [2]catalog.Value{catalog.IntValue(5), catalog.IntValue(8)}}, false},
		{"int vs float comparison", catalog.Condition{Field: "age", Operator: catalog.OpGte, Value: catalog.FloatValue(29.5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCondition(tt.condition, profile))
		})
	}
}

func TestEvaluateConditionAbsentFieldNeverMatches(t *testing.T) {
	empty := ProfileSnapshot{}

	conditions := []catalog.Condition{
		{Field: "age", Operator: catalog.OpGte, Value: catalog.IntValue(0)},
		{Field: "income_bracket", Operator: catalog.OpNe, Value: catalog.StringValue("x")},
		{Field: "is_veteran", Operator: catalog.OpEq, Value: catalog.BoolValue(false)},
	}
	for _, cond := range conditions {
		assert.False(t, EvaluateCondition(cond, empty), "field %s", cond.Field)
	}
}
