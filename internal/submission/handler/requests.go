package handler

import "govnav/internal/submission"

// WithdrawRequest is the POST /applications/{applicationID}/withdraw body.
type WithdrawRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ListApplicationsResponse wraps a user's applications.
type ListApplicationsResponse struct {
	Applications []submission.Application `json:"applications"`
	Count        int                      `json:"count"`
}
