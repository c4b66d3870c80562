package catalog

import (
	"fmt"
	"regexp"
	"time"
)

// ConfigurationError reports a malformed definition. It aborts snapshot
// publication; it is never surfaced on a per-request path.
type ConfigurationError struct {
	ServiceID string
	Subject   string
	Detail    string
}

func (e *ConfigurationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("catalog configuration error: service %q: %s: %s", e.ServiceID, e.Subject, e.Detail)
	}
	return fmt.Sprintf("catalog configuration error: service %q: %s", e.ServiceID, e.Detail)
}

func configErr(serviceID, subject, format string, args ...any) error {
	return &ConfigurationError{
		ServiceID: serviceID,
		Subject:   subject,
		Detail:    fmt.Sprintf(format, args...),
	}
}

// ProfileFieldKinds maps the profile fields a condition may reference to the
// kind of value the profile carries for them. Conditions referencing unknown
// fields or mismatched kinds are configuration errors.
var ProfileFieldKinds = map[string]Kind{
	"age":               KindInt,
	"household_size":    KindInt,
	"income_bracket":    KindString,
	"employment_status": KindString,
	"citizenship":       KindString,
	"region":            KindString,
	"has_disability":    KindBool,
	"is_veteran":        KindBool,
}

var validRequirementTypes = map[RequirementType]bool{
	RequirementAge:           true,
	RequirementIncome:        true,
	RequirementResidency:     true,
	RequirementCitizenship:   true,
	RequirementEmployment:    true,
	RequirementHouseholdSize: true,
	RequirementDisability:    true,
	RequirementVeteranStatus: true,
}

var validFieldTypes = map[FieldType]bool{
	FieldText:        true,
	FieldNumber:      true,
	FieldDate:        true,
	FieldBool:        true,
	FieldSelect:      true,
	FieldMultiSelect: true,
}

const dateLayout = "2006-01-02"

func validateService(svc *ServiceDefinition) error {
	if svc.ID == "" {
		return configErr("", "", "service id is required")
	}
	seen := make(map[string]bool, len(svc.Requirements))
	for i := range svc.Requirements {
		req := &svc.Requirements[i]
		if req.ID == "" {
			return configErr(string(svc.ID), "", "requirement %d has no id", i)
		}
		if seen[string(req.ID)] {
			return configErr(string(svc.ID), string(req.ID), "duplicate requirement id")
		}
		seen[string(req.ID)] = true
		if !validRequirementTypes[req.Type] {
			return configErr(string(svc.ID), string(req.ID), "unknown requirement type %q", req.Type)
		}
		if req.SkipIfUnknown && req.Mandatory {
			return configErr(string(svc.ID), string(req.ID), "skip_if_unknown is only valid on optional requirements")
		}
		if err := validateCondition(string(svc.ID), string(req.ID), req.Condition); err != nil {
			return err
		}
	}
	return nil
}

func validateCondition(serviceID, reqID string, c Condition) error {
	fieldKind, known := ProfileFieldKinds[c.Field]
	if !known {
		return configErr(serviceID, reqID, "condition references unknown profile field %q", c.Field)
	}

	compatible := func(v Value) bool {
		if fieldKind == KindInt || fieldKind == KindFloat {
			return v.Numeric()
		}
		return v.Kind() == fieldKind
	}

	switch c.Operator {
	case OpEq, OpNe:
		if !compatible(c.Value) {
			return configErr(serviceID, reqID, "operator %s: value kind %s does not match field %q (%s)",
				c.Operator, c.Value.Kind(), c.Field, fieldKind)
		}
	case OpGt, OpLt, OpGte, OpLte:
		if fieldKind != KindInt && fieldKind != KindFloat {
			return configErr(serviceID, reqID, "operator %s requires a numeric field, %q is %s", c.Operator, c.Field, fieldKind)
		}
		if !c.Value.Numeric() {
			return configErr(serviceID, reqID, "operator %s requires a numeric value, got %s", c.Operator, c.Value.Kind())
		}
	case OpIn:
		if len(c.Values) == 0 {
			return configErr(serviceID, reqID, "operator in requires a non-empty value list")
		}
		for _, v := range c.Values {
			if !compatible(v) {
				return configErr(serviceID, reqID, "operator in: value kind %s does not match field %q (%s)",
					v.Kind(), c.Field, fieldKind)
			}
		}
	case OpBetween:
		if fieldKind != KindInt && fieldKind != KindFloat {
			return configErr(serviceID, reqID, "operator between requires a numeric field, %q is %s", c.Field, fieldKind)
		}
		if !c.Range[0].Numeric() || !c.Range[1].Numeric() {
			return configErr(serviceID, reqID, "operator between requires a numeric two-element range")
		}
		if cmp, _ := c.Range[0].Compare(c.Range[1]); cmp > 0 {
			return configErr(serviceID, reqID, "between range is inverted: min %s > max %s", c.Range[0], c.Range[1])
		}
	default:
		return configErr(serviceID, reqID, "unknown operator %q", c.Operator)
	}
	return nil
}

func validateForm(form *FormDefinition) error {
	serviceID := string(form.ServiceID)
	if serviceID == "" {
		return configErr("", "", "form has no service id")
	}
	seen := make(map[string]bool)
	for _, step := range form.Steps {
		if step.ID == "" {
			return configErr(serviceID, "", "step id is required")
		}
		for _, fld := range step.Fields {
			if fld.ID == "" {
				return configErr(serviceID, step.ID, "field id is required")
			}
			if seen[string(fld.ID)] {
				return configErr(serviceID, string(fld.ID), "duplicate field id")
			}
			seen[string(fld.ID)] = true
			if err := validateField(serviceID, fld); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateField(serviceID string, fld Field) error {
	fieldID := string(fld.ID)
	if !validFieldTypes[fld.Type] {
		return configErr(serviceID, fieldID, "unknown field type %q", fld.Type)
	}

	rules := fld.Rules
	switch fld.Type {
	case FieldSelect, FieldMultiSelect:
		if len(fld.Options) == 0 {
			return configErr(serviceID, fieldID, "%s field requires options", fld.Type)
		}
	case FieldNumber:
		if rules.Min != nil && rules.Max != nil && *rules.Min > *rules.Max {
			return configErr(serviceID, fieldID, "number range is inverted: min %v > max %v", *rules.Min, *rules.Max)
		}
	case FieldDate:
		var notBefore, notAfter time.Time
		var err error
		if rules.NotBefore != "" {
			if notBefore, err = time.Parse(dateLayout, rules.NotBefore); err != nil {
				return configErr(serviceID, fieldID, "not_before is not a date: %v", err)
			}
		}
		if rules.NotAfter != "" {
			if notAfter, err = time.Parse(dateLayout, rules.NotAfter); err != nil {
				return configErr(serviceID, fieldID, "not_after is not a date: %v", err)
			}
		}
		if rules.NotBefore != "" && rules.NotAfter != "" && notBefore.After(notAfter) {
			return configErr(serviceID, fieldID, "date window is inverted")
		}
	}

	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		return configErr(serviceID, fieldID, "length range is inverted")
	}
	if rules.Pattern != "" {
		if _, err := regexp.Compile(rules.Pattern); err != nil {
			return configErr(serviceID, fieldID, "pattern does not compile: %v", err)
		}
	}
	return nil
}
