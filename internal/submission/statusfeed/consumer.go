// Package statusfeed consumes application status updates published by the
// external processing system and applies them to local records.
package statusfeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"govnav/internal/submission"
	"govnav/internal/submission/metrics"
	id "govnav/pkg/domain"
	dErrors "govnav/pkg/domain-errors"
)

// StatusApplier applies one external status change.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, applicationID id.ApplicationID, next submission.ApplicationStatus, note string, at time.Time) error
}

// Record is the wire shape of one status feed message.
type Record struct {
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	Note          string    `json:"note,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Consumer polls the status topic and applies each record. Malformed records
// and illegal transitions are logged and skipped so one bad message cannot
// wedge the partition.
type Consumer struct {
	client  *kgo.Client
	applier StatusApplier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New wraps an existing franz-go client subscribed to the status topic.
func New(client *kgo.Client, applier StatusApplier, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{client: client, applier: applier, logger: logger, metrics: m}
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "status feed fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			c.handle(ctx, record)
		})
	}
}

func (c *Consumer) handle(ctx context.Context, raw *kgo.Record) {
	var record Record
	if err := json.Unmarshal(raw.Value, &record); err != nil {
		c.metrics.IncrementFeedRecord("malformed")
		c.logger.WarnContext(ctx, "malformed status feed record skipped",
			"offset", raw.Offset,
			"partition", raw.Partition,
			"error", err,
		)
		return
	}

	applicationID, err := id.ParseApplicationID(record.ApplicationID)
	if err != nil {
		c.metrics.IncrementFeedRecord("malformed")
		c.logger.WarnContext(ctx, "status feed record with bad application id skipped",
			"application_id", record.ApplicationID,
			"offset", raw.Offset,
		)
		return
	}
	status, ok := submission.ParseStatus(record.Status)
	if !ok {
		c.metrics.IncrementFeedRecord("malformed")
		c.logger.WarnContext(ctx, "status feed record with unknown status skipped",
			"application_id", record.ApplicationID,
			"status", record.Status,
		)
		return
	}
	at := record.OccurredAt
	if at.IsZero() {
		at = raw.Timestamp
	}

	err = c.applier.ApplyStatus(ctx, applicationID, status, record.Note, at)
	switch {
	case err == nil:
		c.metrics.IncrementFeedRecord("applied")
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		c.metrics.IncrementFeedRecord("unknown_application")
		c.logger.WarnContext(ctx, "status feed record for unknown application skipped",
			"application_id", record.ApplicationID,
			"status", record.Status,
		)
	case dErrors.HasCode(err, dErrors.CodeInvalidState):
		c.metrics.IncrementFeedRecord("illegal_transition")
		c.logger.WarnContext(ctx, "status feed record with illegal transition skipped",
			"application_id", record.ApplicationID,
			"status", record.Status,
			"error", err,
		)
	default:
		c.metrics.IncrementFeedRecord("error")
		c.logger.ErrorContext(ctx, "status feed record failed",
			"application_id", record.ApplicationID,
			"status", record.Status,
			"error", err,
		)
	}
}
