package handler

import "govnav/internal/eligibility"

// SearchRequest is the POST /eligibility/search body. Callers either supply a
// profile snapshot inline or a user_id to resolve through the profile
// collaborator.
type SearchRequest struct {
	Profile           *eligibility.ProfileSnapshot `json:"profile,omitempty"`
	UserID            string                       `json:"user_id,omitempty"`
	Category          string                       `json:"category,omitempty"`
	IncludeIneligible bool                         `json:"include_ineligible,omitempty"`
}

// SearchResponse wraps ranked results.
type SearchResponse struct {
	Results []eligibility.EligibilityResult `json:"results"`
	Count   int                             `json:"count"`
}
