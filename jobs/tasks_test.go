package jobs

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/zaffran-mart/zaffran-mart/internal/notify"
)

func TestNotifyDispatchHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := NewNotifyDispatchHandler(logger)

	task, err := NewNotifyDispatchTask(NotifyDispatchPayload{
		Title:    "Low Stock Alert",
		Desc:     "Toor Dal 1kg is running LOW (3 units remaining)",
		Category: notify.CategoryAlert,
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeNotifyDispatch, task.Type())

	require.NoError(t, handler(context.Background(), task))
	require.Contains(t, buf.String(), "notify dispatch")
	require.Contains(t, buf.String(), "Low Stock Alert")
	require.Contains(t, buf.String(), "alert")
}

func TestNotifyDispatchHandlerBadPayload(t *testing.T) {
	handler := NewNotifyDispatchHandler(slog.New(slog.DiscardHandler))

	err := handler(context.Background(), asynq.NewTask(TaskTypeNotifyDispatch, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
