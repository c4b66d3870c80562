package eligibility

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"govnav/internal/catalog"
	"govnav/internal/eligibility/metrics"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
)

// ProfileProvider supplies the eligibility-relevant subset of a user profile.
// The engine treats the snapshot as a value; it never writes back.
type ProfileProvider interface {
	GetProfileSnapshot(ctx context.Context, userID id.UserID) (ProfileSnapshot, error)
}

// Service runs eligibility searches over the current catalog snapshot.
type Service struct {
	index    *catalog.Index
	profiles ProfileProvider
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

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

// NewService constructs the eligibility service. The profile provider may be
// nil when callers always pass profiles inline.
func NewService(index *catalog.Index, profiles ProfileProvider, opts ...Option) *Service {
	s := &Service{
		index:    index,
		profiles: profiles,
		tracer:   noop.NewTracerProvider().Tracer("eligibility"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search scores every candidate service in the current snapshot against the
// profile and returns results ranked by score descending, ties broken by
// catalog insertion order. Only eligible services are returned unless the
// caller sets filters.IncludeIneligible.
//
// Scoring is pure, so candidates are evaluated concurrently; the snapshot
// taken at entry guarantees one consistent view even if the catalog is
// republished mid-search.
func (s *Service) Search(ctx context.Context, profile ProfileSnapshot, filters SearchFilters) ([]EligibilityResult, error) {
	ctx, span := s.tracer.Start(ctx, "eligibility.search")
	defer span.End()
	start := time.Now()

	snapshot := s.index.Snapshot()
	candidates := snapshot.Services()
	if filters.Category != "" {
		candidates = snapshot.ListByCategory(filters.Category)
	}

	// Scored into a preallocated slice so the output keeps catalog order
	// regardless of goroutine completion order.
	scored := make([]EligibilityResult, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	for i, svc := range candidates {
		g.Go(func() error {
			scored[i] = Score(svc, profile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scoring failed")
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "search cancelled")
	}

	results := make([]EligibilityResult, 0, len(scored))
	for _, res := range scored {
		s.metrics.IncrementResult(string(res.Verdict))
		if res.Verdict == VerdictEligible || filters.IncludeIneligible {
			results = append(results, res)
		}
	}
	Rank(results)

	span.SetAttributes(
		attribute.Int("eligibility.candidates", len(candidates)),
		attribute.Int("eligibility.results", len(results)),
	)
	s.metrics.ObserveSearch(time.Since(start), len(candidates))
	return results, nil
}

// SearchForUser fetches the user's profile snapshot from the collaborator and
// runs Search with it.
func (s *Service) SearchForUser(ctx context.Context, userID id.UserID, filters SearchFilters) ([]EligibilityResult, error) {
	if s.profiles == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "profile provider not configured")
	}
	profile, err := s.profiles.GetProfileSnapshot(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "profile lookup failed")
	}
	return s.Search(ctx, profile, filters)
}
