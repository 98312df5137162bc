package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// rolloverMaxRetry bounds retries of a failed rollover; a later run creates
// the same records anyway.
const rolloverMaxRetry = 3

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskClosingRollover materializes the closing records of a new month.
	TaskClosingRollover = "closing:rollover"
)

// RolloverPayload describes why a rollover was requested.
type RolloverPayload struct {
	Trigger string `json:"trigger"`
}

// NewRolloverTask constructs an Asynq task.
func NewRolloverTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(RolloverPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClosingRollover, data), nil
}

// RolloverCron schedules the rollover at spec (UTC cron syntax).
func RolloverCron(spec string) (CronRegistration, error) {
	task, err := NewRolloverTask("cron")
	if err != nil {
		return CronRegistration{}, err
	}
	return CronRegistration{Spec: spec, Task: task, Options: rolloverOptions()}, nil
}

func rolloverOptions(extra ...asynq.Option) []asynq.Option {
	return append([]asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(rolloverMaxRetry)}, extra...)
}
