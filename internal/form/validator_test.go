package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govnav/internal/catalog"
)

func intRule(v int) *int { return &v }

func floatRule(v float64) *float64 { return &v }

func TestValidateRequiredMissing(t *testing.T) {
	fld := catalog.Field{ID: "full_name", Type: catalog.FieldText, Required: true}

	for _, raw := range []FieldValue{nil, "", "   ", []string{}, []any{}} {
		out := Validate(fld, raw)
		assert.False(t, out.Valid)
		assert.Equal(t, []string{"missing required field"}, out.Errors)
	}
}

func TestValidateOptionalEmptyIsValid(t *testing.T) {
	fld := catalog.Field{ID: "nickname", Type: catalog.FieldText, Rules: catalog.ValidationRules{MinLength: intRule(3)}}

	out := Validate(fld, "")
	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
}

func TestValidateText(t *testing.T) {
	fld := catalog.Field{
		ID:   "postcode",
		Type: catalog.FieldText,
		Rules: catalog.ValidationRules{
			MinLength: intRule(4),
			MaxLength: intRule(6),
			Pattern:   `^[0-9]+$`,
		},
	}

	tests := []struct {
		name    string
		raw     FieldValue
		valid   bool
		wantErr string
	}{
		{"valid", "12345", true, ""},
		{"too short", "12", false, "at least 4 characters"},
		{"too long", "1234567", false, "at most 6 characters"},
		{"pattern mismatch", "12a45", false, "expected format"},
		{"wrong type", 12345.0, false, "expected a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(fld, tt.raw)
			assert.Equal(t, tt.valid, out.Valid)
			if tt.wantErr != "" {
				require.NotEmpty(t, out.Errors)
				assert.Contains(t, out.Errors[0], tt.wantErr)
			}
		})
	}
}

func TestValidateTextAccumulatesErrors(t *testing.T) {
	fld := catalog.Field{
		ID:    "code",
		Type:  catalog.FieldText,
		Rules: catalog.ValidationRules{MinLength: intRule(5), Pattern: `^[0-9]+$`},
	}

	out := Validate(fld, "ab")
	assert.False(t, out.Valid)
	assert.Len(t, out.Errors, 2)
}

func TestValidateNumber(t *testing.T) {
	fld := catalog.Field{
		ID:    "household_size",
		Type:  catalog.FieldNumber,
		Rules: catalog.ValidationRules{Min: floatRule(1), Max: floatRule(12)},
	}

	tests := []struct {
		name  string
		raw   FieldValue
		valid bool
	}{
		{"in range float", 4.0, true},
		{"in range int", 4, true},
		{"lower bound", 1.0, true},
		{"below min", 0.0, false},
		{"above max", 13.0, false},
		{"wrong type", "four", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Validate(fld, tt.raw).Valid)
		})
	}
}

func TestValidateDate(t *testing.T) {
	fld := catalog.Field{
		ID:    "birth_date",
		Type:  catalog.FieldDate,
		Rules: catalog.ValidationRules{NotBefore: "1950-01-01", NotAfter: "2010-12-31"},
	}

	tests := []struct {
		name    string
		raw     FieldValue
		valid   bool
		wantErr string
	}{
		{"valid", "1990-06-15", true, ""},
		{"not a date", "june 15th", false, "YYYY-MM-DD"},
		{"too early", "1940-01-01", false, "not be before"},
		{"too late", "2015-01-01", false, "not be after"},
		{"wrong type", 1990.0, false, "expected a date string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(fld, tt.raw)
			assert.Equal(t, tt.valid, out.Valid)
			if tt.wantErr != "" {
				require.NotEmpty(t, out.Errors)
				assert.Contains(t, out.Errors[0], tt.wantErr)
			}
		})
	}
}

func TestValidateDateAncientYearWarnsButPasses(t *testing.T) {
	fld := catalog.Field{ID: "some_date", Type: catalog.FieldDate}

	out := Validate(fld, "1850-03-01")
	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "far in the past")
}

func TestValidateBool(t *testing.T) {
	fld := catalog.Field{ID: "is_veteran", Type: catalog.FieldBool}

	assert.True(t, Validate(fld, true).Valid)
	assert.True(t, Validate(fld, false).Valid)
	assert.False(t, Validate(fld, "true").Valid)
}

func TestValidateSelect(t *testing.T) {
	fld := catalog.Field{ID: "housing", Type: catalog.FieldSelect, Options: []string{"renting", "owner"}}

	assert.True(t, Validate(fld, "renting").Valid)

	out := Validate(fld, "squatting")
	assert.False(t, out.Valid)
	assert.Contains(t, out.Errors[0], "not one of the allowed options")
}

func TestValidateMultiSelect(t *testing.T) {
	fld := catalog.Field{ID: "benefits", Type: catalog.FieldMultiSelect, Options: []string{"housing", "childcare", "food"}}

	tests := []struct {
		name    string
		raw     FieldValue
		valid   bool
		wantErr string
	}{
		{"valid subset", []string{"housing", "food"}, true, ""},
		{"json decoded shape", []any{"housing"}, true, ""},
		{"unknown option", []string{"housing", "yachts"}, false, "not one of the allowed options"},
		{"duplicate option", []string{"housing", "housing"}, false, "selected more than once"},
		{"non-string element", []any{"housing", 3.0}, false, "expected a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(fld, tt.raw)
			assert.Equal(t, tt.valid, out.Valid)
			if tt.wantErr != "" {
				require.NotEmpty(t, out.Errors)
				assert.Contains(t, out.Errors[0], tt.wantErr)
			}
		})
	}
}
