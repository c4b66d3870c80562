// Package catalog owns the immutable service and form definitions and the
// atomically-published snapshot the rest of the engine reads from.
package catalog

import (
	id "govnav/pkg/domain"
)

// RequirementType enumerates the closed set of eligibility requirement kinds.
type RequirementType string

const (
	RequirementAge           RequirementType = "age"
	RequirementIncome        RequirementType = "income"
	RequirementResidency     RequirementType = "residency"
	RequirementCitizenship   RequirementType = "citizenship"
	RequirementEmployment    RequirementType = "employment"
	RequirementHouseholdSize RequirementType = "household_size"
	RequirementDisability    RequirementType = "disability"
	RequirementVeteranStatus RequirementType = "veteran_status"
)

// Operator enumerates the closed set of condition operators.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNe      Operator = "ne"
	OpGt      Operator = "gt"
	OpLt      Operator = "lt"
	OpGte     Operator = "gte"
	OpLte     Operator = "lte"
	OpIn      Operator = "in"
	OpBetween Operator = "between"
)

// Condition is a single comparison against one profile field.
// Exactly one of Value (scalar operators), Values (in), or Range (between)
// is populated; NewSnapshot rejects anything else at publish time.
type Condition struct {
	Field    string
	Operator Operator
	Value    Value
	Values   []Value
	Range    [2]Value
}

// Requirement is one eligibility rule of a service.
type Requirement struct {
	ID        id.RequirementID
	Type      RequirementType
	Condition Condition
	Mandatory bool
	// SkipIfUnknown marks a non-mandatory requirement as non-blocking when the
	// profile has no value for the referenced field: the requirement is then
	// excluded from scoring instead of counting as unmatched.
	SkipIfUnknown bool
}

// DocumentRequirement names a document the applicant must attach.
type DocumentRequirement struct {
	ID       string
	NameKey  string
	Required bool
}

// ServiceDefinition is one government service. Text fields hold translation
// keys; rendering is a collaborator concern. Definitions are immutable once
// published; updates go through a new snapshot.
type ServiceDefinition struct {
	ID             id.ServiceID
	Version        int
	NameKey        string
	DescriptionKey string
	Category       string
	Requirements   []Requirement
	Documents      []DocumentRequirement
}

// FieldType enumerates supported form field types.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldBool        FieldType = "bool"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
)

// ValidationRules are the per-field constraints the validator enforces.
// Nil pointers mean the constraint is not set.
type ValidationRules struct {
	MinLength *int
	MaxLength *int
	Pattern   string
	Min       *float64
	Max       *float64
	// Date plausibility window, inclusive, in RFC 3339 date form ("2006-01-02").
	NotBefore string
	NotAfter  string
}

// Field is one form field.
type Field struct {
	ID       id.FieldID
	LabelKey string
	Type     FieldType
	Required bool
	Rules    ValidationRules
	Options  []string
}

// Step is an ordered group of fields presented together.
type Step struct {
	ID       string
	TitleKey string
	Fields   []Field
}

// FormDefinition is the application form of a service, immutable per version.
type FormDefinition struct {
	ServiceID id.ServiceID
	Version   int
	Steps     []Step
}

// Fields returns all fields in definition order across steps.
func (f *FormDefinition) Fields() []Field {
	var out []Field
	for _, step := range f.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

// FieldByID returns the field with the given id, if defined.
func (f *FormDefinition) FieldByID(fieldID id.FieldID) (Field, bool) {
	for _, step := range f.Steps {
		for _, fld := range step.Fields {
			if fld.ID == fieldID {
				return fld, true
			}
		}
	}
	return Field{}, false
}

// RequiredFieldCount returns the number of required fields in the form.
func (f *FormDefinition) RequiredFieldCount() int {
	n := 0
	for _, step := range f.Steps {
		for _, fld := range step.Fields {
			if fld.Required {
				n++
			}
		}
	}
	return n
}
