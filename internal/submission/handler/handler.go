package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govnav/internal/submission"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
	"govnav/pkg/platform/httputil"
	"govnav/pkg/requestcontext"
)

// Service defines the interface for submission operations.
type Service interface {
	Submit(ctx context.Context, sessionID id.SessionID) (submission.Application, error)
	GetApplication(ctx context.Context, applicationID id.ApplicationID) (submission.Application, error)
	ListApplications(ctx context.Context, userID id.UserID) ([]submission.Application, error)
	Withdraw(ctx context.Context, applicationID id.ApplicationID, reason string) (submission.Application, error)
}

// Handler wires submission endpoints to the submission coordinator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a submission handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts submission endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/forms/sessions/{sessionID}/submit", h.HandleSubmit)
	r.Route("/applications", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{applicationID}", h.HandleGet)
		r.Post("/{applicationID}/withdraw", h.HandleWithdraw)
	})
}

// HandleSubmit handles POST /forms/sessions/{sessionID}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Submit(ctx, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "submission accepted",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID,
		"application_id", app.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleGet handles GET /applications/{applicationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.GetApplication(ctx, applicationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

// HandleList handles GET /applications?user_id= requests. The query parameter
// overrides the identity header; one of the two must be present.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		var err error
		if userID, err = id.ParseUserID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id is required"))
		return
	}

	apps, err := h.service.ListApplications(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListApplicationsResponse{
		Applications: apps,
		Count:        len(apps),
	})
}

// HandleWithdraw handles POST /applications/{applicationID}/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[WithdrawRequest](w, r, h.logger)
	if !ok {
		return
	}

	app, err := h.service.Withdraw(ctx, applicationID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "withdrawal failed",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", applicationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}
