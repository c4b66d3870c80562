package form

import (
	"context"
	"errors"
	"log/slog"

	"govnav/internal/audit"
	"govnav/internal/catalog"
	"govnav/internal/form/metrics"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
	"govnav/pkg/platform/sentinel"
	"govnav/pkg/requestcontext"
)

// DocumentExtractor is the document extraction collaborator. Candidates carry
// a confidence in [0,1]; low-confidence candidates are skipped by the merger.
type DocumentExtractor interface {
	GetExtractedFields(ctx context.Context, documentID id.DocumentID) ([]ExtractedField, error)
}

// ExtractedField is one auto-fill candidate from a document.
type ExtractedField struct {
	FieldID    id.FieldID
	Value      FieldValue
	Confidence float64
}

// ProfileReader supplies profile values for profile-sourced auto-fill.
type ProfileReader interface {
	GetProfileFields(ctx context.Context, userID id.UserID) (map[id.FieldID]FieldValue, error)
}

// Service is the form session engine. All mutations flow through the
// version-checked store update, so concurrent writers to one session are
// serialized without a session lock.
type Service struct {
	index     *catalog.Index
	store     SessionStore
	extractor DocumentExtractor
	profiles  ProfileReader
	publisher *audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// autoFillMinConfidence is the lowest extraction confidence the merger
	// will apply.
	autoFillMinConfidence float64
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithExtractor(extractor DocumentExtractor) Option {
	return func(s *Service) { s.extractor = extractor }
}

func WithProfileReader(profiles ProfileReader) Option {
	return func(s *Service) { s.profiles = profiles }
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithAutoFillMinConfidence(min float64) Option {
	return func(s *Service) { s.autoFillMinConfidence = min }
}

// NewService constructs the form session engine.
func NewService(index *catalog.Index, store SessionStore, opts ...Option) *Service {
	s := &Service{
		index:                 index,
		store:                 store,
		autoFillMinConfidence: 0.5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionState is a read snapshot of a session with its derived progress.
type SessionState struct {
	Session  FormSession
	Progress int
}

// StartForm creates a Draft session for the service's form.
func (s *Service) StartForm(ctx context.Context, userID id.UserID, serviceID id.ServiceID) (FormSession, error) {
	if userID.IsNil() {
		return FormSession{}, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	form, err := s.index.Snapshot().GetForm(serviceID)
	if err != nil {
		return FormSession{}, dErrors.Wrap(err, dErrors.CodeNotFound, "no form for service")
	}

	session := NewSession(userID, serviceID, form.Version, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, session); err != nil {
		return FormSession{}, dErrors.Wrap(err, dErrors.CodeInternal, "create session")
	}

	s.metrics.IncrementSessionsStarted()
	s.emit(ctx, audit.Event{
		Action:    audit.ActionSessionStarted,
		UserID:    userID,
		SessionID: session.ID,
		ServiceID: serviceID,
	})
	return session, nil
}

// GetState loads a session and recomputes its progress.
func (s *Service) GetState(ctx context.Context, sessionID id.SessionID) (SessionState, error) {
	session, form, err := s.load(ctx, sessionID)
	if err != nil {
		return SessionState{}, err
	}
	return SessionState{Session: session, Progress: Progress(form, session)}, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID id.UserID) ([]FormSession, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list sessions")
	}
	return sessions, nil
}

// UpdateResult reports the outcome of a field update. Applied is false when
// validation rejected the value; the session is then unchanged.
type UpdateResult struct {
	Session FormSession
	Outcome Outcome
	Applied bool
}

// UpdateField validates and applies one field value. The caller presents the
// session version it last observed; a stale version fails with a conflict and
// the caller must reload. Accepted updates increment the version by exactly
// one. Updates after submission fail with session_closed and change nothing.
func (s *Service) UpdateField(ctx context.Context, sessionID id.SessionID, fieldID id.FieldID, value FieldValue, expectedVersion int64) (UpdateResult, error) {
	session, form, err := s.load(ctx, sessionID)
	if err != nil {
		return UpdateResult{}, err
	}
	if session.Status.Closed() {
		s.metrics.IncrementFieldUpdate("closed")
		return UpdateResult{}, dErrors.Wrap(sentinel.ErrSessionClosed, dErrors.CodeSessionClosed, "session is submitted and immutable")
	}
	if session.Version != expectedVersion {
		s.metrics.IncrementFieldUpdate("conflict")
		return UpdateResult{}, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "stale session version, reload and retry")
	}

	fld, ok := form.FieldByID(fieldID)
	if !ok {
		return UpdateResult{}, dErrors.Newf(dErrors.CodeBadRequest, "field %q is not part of this form", fieldID)
	}

	outcome := Validate(fld, value)
	if !outcome.Valid {
		s.metrics.IncrementFieldUpdate("rejected")
		return UpdateResult{Session: session, Outcome: outcome, Applied: false}, nil
	}

	session.Values[fieldID] = value
	session.UserEdited[fieldID] = true
	session.Outcomes[fieldID] = outcome
	session.CurrentStep = CurrentStepIndex(form, session)
	session.Version++
	session.UpdatedAt = requestcontext.Now(ctx)
	s.advanceOnEdit(&session)

	if err := s.store.Update(ctx, session, expectedVersion); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementFieldUpdate("conflict")
			return UpdateResult{}, dErrors.Wrap(err, dErrors.CodeConflict, "stale session version, reload and retry")
		}
		return UpdateResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist session")
	}

	s.metrics.IncrementFieldUpdate("accepted")
	return UpdateResult{Session: session, Outcome: outcome, Applied: true}, nil
}

// advanceOnEdit applies the edit-driven transitions: the first accepted update
// moves Draft to InProgress, and any edit to a ReadyForReview session demotes
// it until full-form validation passes again.
func (s *Service) advanceOnEdit(session *FormSession) {
	switch session.Status {
	case StatusDraft:
		session.Status = StatusInProgress
	case StatusReadyForReview:
		session.Status = StatusInProgress
	}
}

// ValidateForm runs full-form validation. When every required field holds a
// valid value the session is promoted to ReadyForReview; a session already
// ReadyForReview that no longer passes is demoted. Submitted sessions are
// validated read-only.
func (s *Service) ValidateForm(ctx context.Context, sessionID id.SessionID) (FormValidationResult, error) {
	session, form, err := s.load(ctx, sessionID)
	if err != nil {
		return FormValidationResult{}, err
	}

	result := FormValidationResult{
		Fields:   make(map[id.FieldID]Outcome),
		Progress: Progress(form, session),
	}
	allValid := true
	for _, fld := range form.Fields() {
		outcome := Validate(fld, session.Values[fld.ID])
		result.Fields[fld.ID] = outcome
		if !outcome.Valid {
			allValid = false
		}
	}
	result.Valid = allValid

	if session.Status.Closed() {
		return result, nil
	}

	var next SessionStatus
	switch {
	case allValid && session.Status != StatusReadyForReview:
		next = StatusReadyForReview
	case !allValid && session.Status == StatusReadyForReview:
		next = StatusInProgress
	default:
		return result, nil
	}

	prev := session.Version
	session.Status = next
	session.Outcomes = result.Fields
	session.Version++
	session.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, session, prev); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return FormValidationResult{}, dErrors.Wrap(err, dErrors.CodeConflict, "session changed during validation, reload and retry")
		}
		return FormValidationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist session")
	}
	return result, nil
}

// load fetches the session and the form definition it was started against.
func (s *Service) load(ctx context.Context, sessionID id.SessionID) (FormSession, *catalog.FormDefinition, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return FormSession{}, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
		}
		return FormSession{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	form, err := s.index.Snapshot().GetForm(session.ServiceID)
	if err != nil {
		return FormSession{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "form definition missing from catalog")
	}
	return session, form, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher != nil {
		s.publisher.Emit(ctx, event)
	}
}
