// Package eligibility evaluates service requirements against profile
// snapshots and ranks the results. Evaluation is pure: no I/O, no shared
// mutable state, safe to run concurrently.
package eligibility

import (
	"govnav/internal/catalog"
	id "govnav/pkg/domain"
)

// ProfileSnapshot is the eligibility-relevant subset of a user profile,
// passed by value. Pointer fields and empty strings mean "unknown"; the
// evaluator treats unknown as unmatched unless a requirement opts out.
type ProfileSnapshot struct {
	Age              *int   `json:"age,omitempty"`
	HouseholdSize    *int   `json:"household_size,omitempty"`
	IncomeBracket    string `json:"income_bracket,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
	Citizenship      string `json:"citizenship,omitempty"`
	Region           string `json:"region,omitempty"`
	HasDisability    *bool  `json:"has_disability,omitempty"`
	IsVeteran        *bool  `json:"is_veteran,omitempty"`
}

// Field returns the typed value for a profile field name referenced by a
// condition, and whether the profile has a value for it. Field names are the
// keys of catalog.ProfileFieldKinds.
func (p ProfileSnapshot) Field(name string) (catalog.Value, bool) {
	switch name {
	case "age":
		if p.Age == nil {
			return catalog.Value{}, false
		}
		return catalog.IntValue(int64(*p.Age)), true
	case "household_size":
		if p.HouseholdSize == nil {
			return catalog.Value{}, false
		}
		return catalog.IntValue(int64(*p.HouseholdSize)), true
	case "income_bracket":
		return stringField(p.IncomeBracket)
	case "employment_status":
		return stringField(p.EmploymentStatus)
	case "citizenship":
		return stringField(p.Citizenship)
	case "region":
		return stringField(p.Region)
	case "has_disability":
		if p.HasDisability == nil {
			return catalog.Value{}, false
		}
		return catalog.BoolValue(*p.HasDisability), true
	case "is_veteran":
		if p.IsVeteran == nil {
			return catalog.Value{}, false
		}
		return catalog.BoolValue(*p.IsVeteran), true
	}
	return catalog.Value{}, false
}

func stringField(v string) (catalog.Value, bool) {
	if v == "" {
		return catalog.Value{}, false
	}
	return catalog.StringValue(v), true
}

// Verdict is the eligibility outcome for one service.
type Verdict string

const (
	VerdictEligible   Verdict = "eligible"
	VerdictIneligible Verdict = "ineligible"
)

// EligibilityResult is the scored outcome of one service evaluation.
type EligibilityResult struct {
	ServiceID   id.ServiceID       `json:"service_id"`
	Verdict     Verdict            `json:"verdict"`
	Score       int                `json:"score"`
	Matched     []id.RequirementID `json:"matched"`
	Missing     []id.RequirementID `json:"missing"`
	Explanation string             `json:"explanation"`
}

// SearchFilters narrows a search. IncludeIneligible must be set explicitly by
// the caller to receive scored-but-failing results for "almost eligible"
// guidance; the default returns eligible services only.
type SearchFilters struct {
	Category          string
	IncludeIneligible bool
}
