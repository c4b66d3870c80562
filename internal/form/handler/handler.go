package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govnav/internal/form"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
	"govnav/pkg/platform/httputil"
	"govnav/pkg/requestcontext"
)

// Service defines the interface for form session operations.
type Service interface {
	StartForm(ctx context.Context, userID id.UserID, serviceID id.ServiceID) (form.FormSession, error)
	GetState(ctx context.Context, sessionID id.SessionID) (form.SessionState, error)
	ListSessions(ctx context.Context, userID id.UserID) ([]form.FormSession, error)
	UpdateField(ctx context.Context, sessionID id.SessionID, fieldID id.FieldID, value form.FieldValue, expectedVersion int64) (form.UpdateResult, error)
	AutoFill(ctx context.Context, sessionID id.SessionID, source form.AutoFillSource) (form.AutoFillResult, error)
	ValidateForm(ctx context.Context, sessionID id.SessionID) (form.FormValidationResult, error)
}

// Handler wires form session endpoints to the form service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a form handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts form session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/forms/sessions", func(r chi.Router) {
		r.Post("/", h.HandleStart)
		r.Get("/", h.HandleList)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/fields/{fieldID}", h.HandleUpdateField)
			r.Post("/autofill", h.HandleAutoFill)
			r.Post("/validate", h.HandleValidate)
		})
	})
}

// HandleStart handles POST /forms/sessions requests.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[StartSessionRequest](w, r, h.logger)
	if !ok {
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := h.service.StartForm(ctx, userID, id.ServiceID(req.ServiceID))
	if err != nil {
		h.logger.ErrorContext(ctx, "start form session failed",
			"request_id", requestcontext.RequestID(ctx),
			"service_id", req.ServiceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "form session started",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", session.ID,
		"service_id", session.ServiceID,
	)
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

// HandleGet handles GET /forms/sessions/{sessionID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	state, err := h.service.GetState(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := toSessionResponse(state.Session)
	resp.Progress = &state.Progress
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /forms/sessions?user_id= requests. The query
// parameter overrides the identity header; one of the two must be present.
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

	sessions, err := h.service.ListSessions(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionResponse(session))
	}
	httputil.WriteJSON(w, http.StatusOK, ListSessionsResponse{Sessions: out, Count: len(out)})
}

// HandleUpdateField handles PUT /forms/sessions/{sessionID}/fields/{fieldID}.
func (h *Handler) HandleUpdateField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fieldID := id.FieldID(chi.URLParam(r, "fieldID"))

	req, ok := httputil.Decode[UpdateFieldRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Version <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "version is required"))
		return
	}

	result, err := h.service.UpdateField(ctx, sessionID, fieldID, req.Value, req.Version)
	if err != nil {
		h.logger.ErrorContext(ctx, "field update failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"field_id", fieldID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Applied {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, UpdateFieldResponse{
		Applied: result.Applied,
		Outcome: result.Outcome,
		Session: toSessionResponse(result.Session),
	})
}

// HandleAutoFill handles POST /forms/sessions/{sessionID}/autofill.
func (h *Handler) HandleAutoFill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[AutoFillRequest](w, r, h.logger)
	if !ok {
		return
	}
	source := form.AutoFillSource{Type: req.Source}
	if req.DocumentID != "" {
		if source.DocumentID, err = id.ParseDocumentID(req.DocumentID); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	result, err := h.service.AutoFill(ctx, sessionID, source)
	if err != nil {
		h.logger.ErrorContext(ctx, "auto-fill failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"source", req.Source,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "auto-fill completed",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID,
		"applied", len(result.Applied),
		"skipped", len(result.Skipped),
	)
	httputil.WriteJSON(w, http.StatusOK, AutoFillResponse{
		Applied: result.Applied,
		Skipped: result.Skipped,
		Session: toSessionResponse(result.Session),
	})
}

// HandleValidate handles POST /forms/sessions/{sessionID}/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ValidateForm(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
