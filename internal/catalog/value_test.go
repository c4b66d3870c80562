package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal strings", StringValue("low"), StringValue("low"), true},
		{"different strings", StringValue("low"), StringValue("high"), false},
		{"equal ints", IntValue(18), IntValue(18), true},
		{"int vs float same number", IntValue(18), FloatValue(18), true},
		{"int vs float different number", IntValue(18), FloatValue(18.5), false},
		{"equal bools", BoolValue(true), BoolValue(true), true},
		{"string vs int", StringValue("18"), IntValue(18), false},
		{"bool vs int", BoolValue(true), IntValue(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestValueCompare(t *testing.T) {
	cmp, ok := IntValue(3).Compare(FloatValue(3.5))
	assert.True(t, ok)
	assert.Equal(t, -1, cmp)

	cmp, ok = FloatValue(10).Compare(IntValue(10))
	assert.True(t, ok)
	assert.Equal(t, 0, cmp)

	_, ok = StringValue("a").Compare(IntValue(1))
	assert.False(t, ok)
}
