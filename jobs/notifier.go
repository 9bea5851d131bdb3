package jobs

import (
	"context"
	"log/slog"

	"github.com/zaffran-mart/zaffran-mart/internal/notify"
)

// QueueNotifier forwards notifications to the background queue for
// out-of-process delivery. Enqueue failures are logged and dropped.
type QueueNotifier struct {
	Client *Client
	Logger *slog.Logger
}

// Notify implements notify.Notifier.
func (q QueueNotifier) Notify(ctx context.Context, title, desc string, category notify.Category) {
	if q.Client == nil {
		return
	}
	_, err := q.Client.EnqueueNotifyDispatch(ctx, NotifyDispatchPayload{
		Title:    title,
		Desc:     desc,
		Category: category,
	})
	if err != nil && q.Logger != nil {
		q.Logger.Warn("enqueue notification", slog.Any("error", err))
	}
}
