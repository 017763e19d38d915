package services

import (
	"context"
	"fmt"
	"log/slog"

	"chapterhub/internal/amqp"
	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

// ActivityProcessor turns activity messages into notifications.
type ActivityProcessor struct {
	notifications datastore.NotificationStore
}

func NewActivityProcessor(notifications datastore.NotificationStore) *ActivityProcessor {
	return &ActivityProcessor{notifications: notifications}
}

// HandleTaskStatusChanged notifies the task's assignee. Tasks without an
// assignee are acknowledged without a notification.
func (p *ActivityProcessor) HandleTaskStatusChanged(ctx context.Context, msg *amqp.TaskStatusChangedMessage) error {
	if msg.AssigneeID == "" {
		slog.DebugContext(ctx, "Task has no assignee, nothing to notify", "task_id", msg.TaskID)
		return nil
	}

	n := core.Notification{
		UserID:    msg.AssigneeID,
		Message:   TaskStatusMessage(msg.Title, msg.To),
		Type:      "task",
		CreatedAt: msg.Timestamp,
	}
	id, err := p.notifications.CreateNotification(ctx, n)
	if err != nil {
		return fmt.Errorf("create notification for task %s: %w", msg.TaskID, err)
	}

	slog.InfoContext(ctx, "Created task notification",
		"notification_id", id,
		"task_id", msg.TaskID,
		"user_id", msg.AssigneeID)
	return nil
}

// TaskStatusMessage is the notification text for a task that moved to status.
func TaskStatusMessage(title string, status core.TaskStatus) string {
	switch status {
	case core.TaskCompleted:
		return fmt.Sprintf("Task %q was completed", title)
	case core.TaskInProgress:
		return fmt.Sprintf("Task %q is now in progress", title)
	default:
		return fmt.Sprintf("Task %q was reopened", title)
	}
}
