package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/closeboard/internal/jobs"
)

type materializer interface {
	MaterializeAll(ctx context.Context) (int, error)
}

// RolloverJob creates the missing closing records of every active company,
// which at the turn of a month means the new competency.
type RolloverJob struct {
	Engine  materializer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewRolloverJob initialises the rollover handler.
func NewRolloverJob(engine materializer, logger *slog.Logger, metrics *jobmetrics.Metrics) *RolloverJob {
	return &RolloverJob{
		Engine:  engine,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes TaskClosingRollover.
func (j *RolloverJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Engine == nil {
		return errors.New("rollover: handler not configured")
	}
	var payload RolloverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.clock()
	tracker := j.Metrics.Track(TaskClosingRollover)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	logger.Info("starting closing rollover")

	created, err := j.Engine.MaterializeAll(ctx)
	if err != nil {
		logger.Error("rollover failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddMaterialized(created)
	logger.Info("completed closing rollover",
		slog.Int("created", created),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *RolloverJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
