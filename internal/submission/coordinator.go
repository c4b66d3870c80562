package submission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"govnav/internal/audit"
	"govnav/internal/form"
	"govnav/internal/submission/metrics"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
	"govnav/pkg/platform/sentinel"
	"govnav/pkg/requestcontext"
)

// Gateway submits an accepted application to the external processing system
// and returns its reference. The call is treated as at-most-once per
// idempotency reservation; a failure releases the reservation so the caller
// can retry.
type Gateway interface {
	SubmitApplication(ctx context.Context, app Application, values map[id.FieldID]form.FieldValue) (string, error)
}

// Service coordinates submission: it owns the application records and drives
// the session's post-validation transitions.
type Service struct {
	sessions  form.SessionStore
	apps      ApplicationStore
	idem      IdempotencyStore
	gateway   Gateway
	publisher *audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	inTx           TxRunner
	reserveTTL     time.Duration
	gatewayTimeout time.Duration
}

// TxRunner runs fn, in postgres mode inside one database transaction that the
// stores pick up from the context. The default runner is a pass-through.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithReserveTTL(ttl time.Duration) Option {
	return func(s *Service) { s.reserveTTL = ttl }
}

func WithGatewayTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.gatewayTimeout = timeout }
}

func WithTxRunner(run TxRunner) Option {
	return func(s *Service) { s.inTx = run }
}

// NewService constructs the submission coordinator.
func NewService(sessions form.SessionStore, apps ApplicationStore, idem IdempotencyStore, gateway Gateway, opts ...Option) *Service {
	s := &Service{
		sessions:       sessions,
		apps:           apps,
		idem:           idem,
		gateway:        gateway,
		logger:         slog.Default(),
		tracer:         noop.NewTracerProvider().Tracer("submission"),
		inTx:           func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) },
		reserveTTL:     30 * time.Second,
		gatewayTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit turns a ReadyForReview session into an application exactly once.
//
// The idempotency key is the session id plus the content hash of its values.
// A repeat submit with unchanged values returns the original application and
// creates nothing; a submit after the content changed fails with
// session_closed, since a submitted session is immutable. Exactly one of any
// set of concurrent submits for the same key performs the gateway call. A
// session whose application is recorded but whose close never stuck is
// repaired in place; the gateway is not called a second time.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID) (Application, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveSubmit(time.Since(start)) }()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Application{}, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
		}
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}

	hash, err := ContentHash(session.Values)
	if err != nil {
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "fingerprint form values")
	}
	span.SetAttributes(attribute.String("submission.content_hash", hash))

	if session.Status.Closed() {
		return s.resolveClosed(ctx, session, hash)
	}
	if session.Status != form.StatusReadyForReview {
		s.metrics.IncrementSubmission("rejected_not_ready")
		return Application{}, dErrors.Newf(dErrors.CodeInvalidState,
			"session is %s, full-form validation must pass before submit", session.Status)
	}

	key := IdempotencyKey(sessionID, hash)
	reserved, err := s.idem.Reserve(ctx, key, s.reserveTTL)
	if err != nil {
		return Application{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "idempotency reservation failed")
	}
	if !reserved {
		if app, err := s.apps.GetBySession(ctx, sessionID); err == nil && app.ContentHash == hash {
			s.metrics.IncrementSubmission("duplicate")
			return app, nil
		}
		s.metrics.IncrementSubmission("conflict")
		return Application{}, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "submission already in progress")
	}

	now := requestcontext.Now(ctx)

	// An application already recorded for this content means an earlier submit
	// handed off to the gateway but its session close did not stick and the
	// reservation expired. Repair the close and return the original instead of
	// handing off again.
	if existing, lookupErr := s.apps.GetBySession(ctx, sessionID); lookupErr == nil && existing.ContentHash == hash {
		s.release(ctx, key)
		if err := s.closeSession(ctx, session, now); err != nil {
			s.logger.WarnContext(ctx, "session close repair failed",
				"session_id", session.ID,
				"application_id", existing.ID,
				"error", err,
			)
		}
		s.metrics.IncrementSubmission("duplicate")
		return existing, nil
	}

	app := Application{
		ID:          id.NewApplicationID(),
		SessionID:   session.ID,
		UserID:      session.UserID,
		ServiceID:   session.ServiceID,
		ContentHash: hash,
		Status:      StatusReceived,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	externalRef, err := s.callGateway(ctx, app, session.Values)
	if err != nil {
		s.release(ctx, key)
		s.metrics.IncrementSubmission("gateway_error")
		s.emit(ctx, audit.Event{
			Action:    audit.ActionSubmissionRejected,
			UserID:    session.UserID,
			SessionID: session.ID,
			ServiceID: session.ServiceID,
			Reason:    "gateway error",
		})
		return Application{}, err
	}
	app.ExternalRef = externalRef

	if err := s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.apps.Create(txCtx, app); err != nil {
			return err
		}
		if err := s.closeSession(txCtx, session, now); err != nil {
			// The application record wins; the close is repaired by the next
			// submit of the same content rather than unwound here.
			s.logger.WarnContext(ctx, "session close after submit failed",
				"session_id", session.ID,
				"application_id", app.ID,
				"error", err,
			)
		}
		return nil
	}); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if existing, lookupErr := s.apps.GetBySession(ctx, sessionID); lookupErr == nil && existing.ContentHash == hash {
				s.metrics.IncrementSubmission("duplicate")
				return existing, nil
			}
		}
		s.release(ctx, key)
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "record application")
	}

	s.metrics.IncrementSubmission("accepted")
	s.emit(ctx, audit.Event{
		Action:        audit.ActionFormSubmitted,
		UserID:        session.UserID,
		SessionID:     session.ID,
		ApplicationID: app.ID,
		ServiceID:     session.ServiceID,
	})
	s.logger.InfoContext(ctx, "application submitted",
		"session_id", session.ID,
		"application_id", app.ID,
		"external_ref", externalRef,
	)
	return app, nil
}

// resolveClosed handles submits against an already-closed session: the same
// content resolves to the original application, changed content is refused.
func (s *Service) resolveClosed(ctx context.Context, session form.FormSession, hash string) (Application, error) {
	app, err := s.apps.GetBySession(ctx, session.ID)
	if err == nil && app.ContentHash == hash {
		s.metrics.IncrementSubmission("duplicate")
		s.emit(ctx, audit.Event{
			Action:        audit.ActionSubmissionRetried,
			UserID:        session.UserID,
			SessionID:     session.ID,
			ApplicationID: app.ID,
			ServiceID:     session.ServiceID,
		})
		return app, nil
	}
	s.metrics.IncrementSubmission("rejected_closed")
	s.emit(ctx, audit.Event{
		Action:    audit.ActionSubmissionRejected,
		UserID:    session.UserID,
		SessionID: session.ID,
		ServiceID: session.ServiceID,
		Reason:    "session closed",
	})
	return Application{}, dErrors.Wrap(sentinel.ErrSessionClosed, dErrors.CodeSessionClosed,
		"session is already submitted and its content cannot change")
}

func (s *Service) callGateway(ctx context.Context, app Application, values map[id.FieldID]form.FieldValue) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	externalRef, err := s.gateway.SubmitApplication(ctx, app, values)
	s.metrics.ObserveGateway(time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "gateway call timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "gateway call failed")
	}
	return externalRef, nil
}

// closeSession moves the session to Submitted with the optimistic version
// check against the state observed at the start of Submit.
func (s *Service) closeSession(ctx context.Context, session form.FormSession, now time.Time) error {
	prev := session.Version
	session.Status = form.StatusSubmitted
	session.SubmittedAt = &now
	session.UpdatedAt = now
	session.Version++
	return s.sessions.Update(ctx, session, prev)
}

func (s *Service) release(ctx context.Context, key string) {
	if err := s.idem.Release(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "idempotency release failed", "key", key, "error", err)
	}
}

// GetApplication returns one application.
func (s *Service) GetApplication(ctx context.Context, applicationID id.ApplicationID) (Application, error) {
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Application{}, dErrors.Wrap(err, dErrors.CodeNotFound, "application not found")
		}
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "load application")
	}
	return app, nil
}

// ListApplications returns the user's applications, newest first.
func (s *Service) ListApplications(ctx context.Context, userID id.UserID) ([]Application, error) {
	apps, err := s.apps.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list applications")
	}
	return apps, nil
}

// Withdraw takes an application out of review at the applicant's request and
// mirrors the change onto its session.
func (s *Service) Withdraw(ctx context.Context, applicationID id.ApplicationID, reason string) (Application, error) {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return Application{}, err
	}
	if !app.Status.CanTransitionTo(StatusWithdrawn) {
		return Application{}, dErrors.Newf(dErrors.CodeInvalidState,
			"application is %s and cannot be withdrawn", app.Status)
	}

	now := requestcontext.Now(ctx)
	change := StatusChange{From: app.Status, To: StatusWithdrawn, At: now, Note: reason}
	if err := s.apps.UpdateStatus(ctx, applicationID, change); err != nil {
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "record withdrawal")
	}
	app.Status = StatusWithdrawn
	app.History = append(app.History, change)
	app.UpdatedAt = now

	s.mirrorToSession(ctx, app.SessionID, form.StatusWithdrawn, now)
	s.emit(ctx, audit.Event{
		Action:        audit.ActionSessionWithdrawn,
		UserID:        app.UserID,
		SessionID:     app.SessionID,
		ApplicationID: app.ID,
		ServiceID:     app.ServiceID,
		Reason:        reason,
	})
	return app, nil
}

// ApplyStatus applies an external status change to an application and mirrors
// it onto the session. Illegal transitions and terminal states are refused
// with invalid_state.
func (s *Service) ApplyStatus(ctx context.Context, applicationID id.ApplicationID, next ApplicationStatus, note string, at time.Time) error {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.Status == next {
		return nil
	}
	if !app.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"application cannot move from %s to %s", app.Status, next)
	}

	change := StatusChange{From: app.Status, To: next, At: at, Note: note}
	if err := s.apps.UpdateStatus(ctx, applicationID, change); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record status change")
	}

	s.mirrorToSession(ctx, app.SessionID, sessionStatusFor(next), at)
	s.emit(ctx, audit.Event{
		Action:        audit.ActionStatusChanged,
		UserID:        app.UserID,
		SessionID:     app.SessionID,
		ApplicationID: app.ID,
		ServiceID:     app.ServiceID,
		Reason:        string(next),
	})
	return nil
}

// sessionStatusFor maps an application status onto the session state machine.
func sessionStatusFor(status ApplicationStatus) form.SessionStatus {
	if status == StatusReceived {
		return form.StatusSubmitted
	}
	return form.SessionStatus(status)
}

// mirrorToSession applies a post-submission status to the session, skipping
// silently when the session state machine does not admit the move.
func (s *Service) mirrorToSession(ctx context.Context, sessionID id.SessionID, next form.SessionStatus, at time.Time) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "session lookup for status mirror failed",
			"session_id", sessionID, "error", err)
		return
	}
	if session.Status == next || !session.Status.CanTransitionTo(next) {
		return
	}
	prev := session.Version
	session.Status = next
	session.UpdatedAt = at
	session.Version++
	if err := s.sessions.Update(ctx, session, prev); err != nil {
		s.logger.WarnContext(ctx, "session status mirror failed",
			"session_id", sessionID, "status", next, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher != nil {
		s.publisher.Emit(ctx, event)
	}
}
