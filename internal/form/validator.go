package form

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"govnav/internal/catalog"
)

// Outcome is the result of validating one field value. Errors reject the
// value; warnings do not.
type Outcome struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func invalid(errs ...string) Outcome { return Outcome{Valid: false, Errors: errs} }

// Validate checks a raw value against a field definition. Checks run in a
// fixed order per type (presence, type shape, then constraints in declaration
// order) so the error list is deterministic.
//
// An empty value on an optional field is valid; on a required field it yields
// exactly the "missing required field" error and nothing else.
func Validate(fld catalog.Field, raw FieldValue) Outcome {
	if isEmpty(raw) {
		if fld.Required {
			return invalid("missing required field")
		}
		return Outcome{Valid: true}
	}

	switch fld.Type {
	case catalog.FieldText:
		return validateText(fld, raw)
	case catalog.FieldNumber:
		return validateNumber(fld, raw)
	case catalog.FieldDate:
		return validateDate(fld, raw)
	case catalog.FieldBool:
		return validateBool(raw)
	case catalog.FieldSelect:
		return validateSelect(fld, raw)
	case catalog.FieldMultiSelect:
		return validateMultiSelect(fld, raw)
	}
	return invalid(fmt.Sprintf("unsupported field type %q", fld.Type))
}

func isEmpty(raw FieldValue) bool {
	switch t := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func validateText(fld catalog.Field, raw FieldValue) Outcome {
	s, ok := raw.(string)
	if !ok {
		return invalid("expected a string")
	}
	var out Outcome
	rules := fld.Rules
	if rules.MinLength != nil && len([]rune(s)) < *rules.MinLength {
		out.Errors = append(out.Errors, fmt.Sprintf("must be at least %d characters", *rules.MinLength))
	}
	if rules.MaxLength != nil && len([]rune(s)) > *rules.MaxLength {
		out.Errors = append(out.Errors, fmt.Sprintf("must be at most %d characters", *rules.MaxLength))
	}
	if rules.Pattern != "" {
		// Patterns are validated at catalog load; MustCompile cannot panic here.
		if !regexp.MustCompile(rules.Pattern).MatchString(s) {
			out.Errors = append(out.Errors, "does not match the expected format")
		}
	}
	out.Valid = len(out.Errors) == 0
	return out
}

func validateNumber(fld catalog.Field, raw FieldValue) Outcome {
	var n float64
	switch t := raw.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	default:
		return invalid("expected a number")
	}
	var out Outcome
	rules := fld.Rules
	if rules.Min != nil && n < *rules.Min {
		out.Errors = append(out.Errors, fmt.Sprintf("must be at least %v", *rules.Min))
	}
	if rules.Max != nil && n > *rules.Max {
		out.Errors = append(out.Errors, fmt.Sprintf("must be at most %v", *rules.Max))
	}
	out.Valid = len(out.Errors) == 0
	return out
}

const dateLayout = "2006-01-02"

func validateDate(fld catalog.Field, raw FieldValue) Outcome {
	s, ok := raw.(string)
	if !ok {
		return invalid("expected a date string")
	}
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return invalid("expected a date in YYYY-MM-DD form")
	}
	var out Outcome
	rules := fld.Rules
	if rules.NotBefore != "" {
		if bound, err := time.Parse(dateLayout, rules.NotBefore); err == nil && parsed.Before(bound) {
			out.Errors = append(out.Errors, fmt.Sprintf("must not be before %s", rules.NotBefore))
		}
	}
	if rules.NotAfter != "" {
		if bound, err := time.Parse(dateLayout, rules.NotAfter); err == nil && parsed.After(bound) {
			out.Errors = append(out.Errors, fmt.Sprintf("must not be after %s", rules.NotAfter))
		}
	}
	if len(out.Errors) == 0 && parsed.Year() < 1900 {
		out.Warnings = append(out.Warnings, "date is unusually far in the past")
	}
	out.Valid = len(out.Errors) == 0
	return out
}

func validateBool(raw FieldValue) Outcome {
	if _, ok := raw.(bool); !ok {
		return invalid("expected true or false")
	}
	return Outcome{Valid: true}
}

func validateSelect(fld catalog.Field, raw FieldValue) Outcome {
	s, ok := raw.(string)
	if !ok {
		return invalid("expected a string option")
	}
	for _, opt := range fld.Options {
		if s == opt {
			return Outcome{Valid: true}
		}
	}
	return invalid(fmt.Sprintf("%q is not one of the allowed options", s))
}

func validateMultiSelect(fld catalog.Field, raw FieldValue) Outcome {
	values, err := stringSlice(raw)
	if err != nil {
		return invalid("expected a list of string options")
	}
	allowed := make(map[string]bool, len(fld.Options))
	for _, opt := range fld.Options {
		allowed[opt] = true
	}
	var out Outcome
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !allowed[v] {
			out.Errors = append(out.Errors, fmt.Sprintf("%q is not one of the allowed options", v))
		}
		if seen[v] {
			out.Errors = append(out.Errors, fmt.Sprintf("%q is selected more than once", v))
		}
		seen[v] = true
	}
	out.Valid = len(out.Errors) == 0
	return out
}

func stringSlice(raw FieldValue) ([]string, error) {
	switch t := raw.(type) {
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("non-string element")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a list")
}
