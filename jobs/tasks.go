package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/zaffran-mart/zaffran-mart/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyDispatch is the task type for delivering notifications
	// to external channels.
	TaskTypeNotifyDispatch = "notify:dispatch"
)

// NotifyDispatchPayload carries one notification event.
type NotifyDispatchPayload struct {
	Title    string          `json:"title"`
	Desc     string          `json:"desc"`
	Category notify.Category `json:"category"`
}

// NewNotifyDispatchTask constructs an Asynq task.
func NewNotifyDispatchTask(payload NotifyDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyDispatch, data), nil
}

// NewNotifyDispatchHandler returns the handler for TaskTypeNotifyDispatch
// tasks.
func NewNotifyDispatchHandler(logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyDispatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Placeholder: fan out to SMS/WhatsApp once a provider is wired.
		logger.InfoContext(ctx, "notify dispatch",
			slog.String("category", string(payload.Category)),
			slog.String("title", payload.Title))
		return nil
	}
}
