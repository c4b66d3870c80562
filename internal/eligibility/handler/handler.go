package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govnav/internal/eligibility"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
	"govnav/pkg/platform/httputil"
	"govnav/pkg/requestcontext"
)

// Service defines the interface for eligibility operations.
type Service interface {
	Search(ctx context.Context, profile eligibility.ProfileSnapshot, filters eligibility.SearchFilters) ([]eligibility.EligibilityResult, error)
	SearchForUser(ctx context.Context, userID id.UserID, filters eligibility.SearchFilters) ([]eligibility.EligibilityResult, error)
}

// Handler wires eligibility endpoints to the eligibility service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an eligibility handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts eligibility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/eligibility/search", h.HandleSearch)
}

// HandleSearch handles POST /eligibility/search requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[SearchRequest](w, r, h.logger)
	if !ok {
		return
	}

	filters := eligibility.SearchFilters{
		Category:          req.Category,
		IncludeIneligible: req.IncludeIneligible,
	}

	var results []eligibility.EligibilityResult
	var err error
	switch {
	case req.Profile != nil:
		results, err = h.service.Search(ctx, *req.Profile, filters)
	case req.UserID != "":
		var userID id.UserID
		if userID, err = id.ParseUserID(req.UserID); err == nil {
			results, err = h.service.SearchForUser(ctx, userID, filters)
		}
	default:
		err = dErrors.New(dErrors.CodeBadRequest, "either profile or user_id is required")
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "eligibility search failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "eligibility search completed",
		"request_id", requestcontext.RequestID(ctx),
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}
