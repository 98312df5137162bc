package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// rolloverUniqueFor collapses repeated manual requests into one task.
const rolloverUniqueFor = time.Minute

// Client enqueues closing tasks for the worker.
type Client struct {
	client *asynq.Client
}

// NewClient connects to the queue's Redis.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueRollover asks the worker for an immediate rollover.
func (c *Client) EnqueueRollover(ctx context.Context, trigger string) (*asynq.TaskInfo, error) {
	task, err := NewRolloverTask(trigger)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, rolloverOptions(asynq.Unique(rolloverUniqueFor))...)
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
