package form

import (
	"context"
	"errors"
	"sort"
	"time"

	"govnav/internal/audit"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
	"govnav/pkg/platform/sentinel"
	"govnav/pkg/requestcontext"
)

// AutoFillSource names where candidate values come from.
type AutoFillSource struct {
	// Type is "document" or "profile".
	Type string
	// DocumentID is required for the document source.
	DocumentID id.DocumentID
}

const (
	SourceDocument = "document"
	SourceProfile  = "profile"
)

// AutoFillResult reports what the merger did with each candidate.
type AutoFillResult struct {
	Session FormSession
	Applied []id.FieldID
	// Skipped maps field id to the reason the candidate was not applied:
	// "user_edited", "unknown_field", "low_confidence", or "invalid".
	Skipped map[id.FieldID]string
}

// AutoFill fetches candidate values from the named source and merges them
// into the session.
//
// A candidate is applied only if the field was never explicitly set by the
// user in this session; a prior auto-fill does not count as a user edit, so a
// better extraction may refine it, but a user correction is never clobbered.
// Every applied candidate passes the field validator exactly like a direct
// update.
//
// The collaborator call completes before any merge begins, so cancellation
// mid-call leaves the session untouched.
func (s *Service) AutoFill(ctx context.Context, sessionID id.SessionID, source AutoFillSource) (AutoFillResult, error) {
	session, form, err := s.load(ctx, sessionID)
	if err != nil {
		return AutoFillResult{}, err
	}
	if session.Status.Closed() {
		return AutoFillResult{}, dErrors.Wrap(sentinel.ErrSessionClosed, dErrors.CodeSessionClosed, "session is submitted and immutable")
	}

	candidates, err := s.fetchCandidates(ctx, session, source)
	if err != nil {
		return AutoFillResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return AutoFillResult{}, dErrors.Wrap(err, dErrors.CodeTimeout, "auto-fill cancelled before merge")
	}

	// Deterministic merge order regardless of collaborator ordering.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].FieldID < candidates[j].FieldID })

	result := AutoFillResult{Skipped: make(map[id.FieldID]string)}
	prev := session.Version
	for _, cand := range candidates {
		if session.UserEdited[cand.FieldID] {
			result.Skipped[cand.FieldID] = "user_edited"
			s.metrics.IncrementAutoFill("skipped_user_edited")
			continue
		}
		fld, ok := form.FieldByID(cand.FieldID)
		if !ok {
			result.Skipped[cand.FieldID] = "unknown_field"
			s.metrics.IncrementAutoFill("skipped_unknown_field")
			continue
		}
		if cand.Confidence < s.autoFillMinConfidence {
			result.Skipped[cand.FieldID] = "low_confidence"
			s.metrics.IncrementAutoFill("skipped_low_confidence")
			continue
		}
		outcome := Validate(fld, cand.Value)
		if !outcome.Valid {
			result.Skipped[cand.FieldID] = "invalid"
			s.metrics.IncrementAutoFill("skipped_invalid")
			continue
		}

		session.Values[cand.FieldID] = cand.Value
		session.Outcomes[cand.FieldID] = outcome
		session.Version++
		result.Applied = append(result.Applied, cand.FieldID)
		s.metrics.IncrementAutoFill("applied")
	}

	if len(result.Applied) == 0 {
		result.Session = session
		return result, nil
	}

	session.CurrentStep = CurrentStepIndex(form, session)
	session.UpdatedAt = requestcontext.Now(ctx)
	s.advanceOnEdit(&session)
	if err := s.store.Update(ctx, session, prev); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return AutoFillResult{}, dErrors.Wrap(err, dErrors.CodeConflict, "session changed during auto-fill, reload and retry")
		}
		return AutoFillResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist session")
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionAutoFillApplied,
		UserID:    session.UserID,
		SessionID: session.ID,
		ServiceID: session.ServiceID,
		Reason:    source.Type,
	})
	result.Session = session
	return result, nil
}

func (s *Service) fetchCandidates(ctx context.Context, session FormSession, source AutoFillSource) ([]ExtractedField, error) {
	switch source.Type {
	case SourceDocument:
		if s.extractor == nil {
			return nil, dErrors.New(dErrors.CodeUnavailable, "document extraction not configured")
		}
		if source.DocumentID.IsNil() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "document id is required")
		}
		start := time.Now()
		candidates, err := s.extractor.GetExtractedFields(ctx, source.DocumentID)
		s.metrics.ObserveExtraction(time.Since(start))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "document extraction timed out")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "document extraction failed")
		}
		return candidates, nil
	case SourceProfile:
		if s.profiles == nil {
			return nil, dErrors.New(dErrors.CodeUnavailable, "profile reader not configured")
		}
		fields, err := s.profiles.GetProfileFields(ctx, session.UserID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile lookup failed")
		}
		candidates := make([]ExtractedField, 0, len(fields))
		for fieldID, value := range fields {
			candidates = append(candidates, ExtractedField{FieldID: fieldID, Value: value, Confidence: 1})
		}
		return candidates, nil
	}
	return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown auto-fill source %q", source.Type)
}
