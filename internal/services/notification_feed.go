package services

import (
	"context"
	"fmt"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
	"chapterhub/internal/viewstate"
)

// NotificationFeed is one user's notification list. Local rows change only
// after the store accepted the write.
type NotificationFeed struct {
	store  datastore.NotificationStore
	userID string
	rows   viewstate.Tracker[[]core.Notification]
}

func NewNotificationFeed(store datastore.NotificationStore, userID string) *NotificationFeed {
	return &NotificationFeed{store: store, userID: userID}
}

// Load fetches the newest core.FeedLimit notifications.
func (f *NotificationFeed) Load(ctx context.Context) error {
	tok := f.rows.Begin()
	rows, err := f.store.ListNotifications(ctx, f.userID, core.FeedLimit)
	if err != nil {
		err = fmt.Errorf("%w: list notifications: %w", datastore.ErrTransient, err)
	}
	f.rows.Resolve(tok, rows, err)
	return err
}

func (f *NotificationFeed) State() viewstate.Snapshot[[]core.Notification] {
	return f.rows.Snapshot()
}

func (f *NotificationFeed) Notifications() []core.Notification {
	return f.rows.Snapshot().Value
}

// UnreadCount is recomputed from the local rows on every call.
func (f *NotificationFeed) UnreadCount() int {
	return core.UnreadCount(f.rows.Snapshot().Value)
}

// MarkRead flags one notification read remotely, then locally.
func (f *NotificationFeed) MarkRead(ctx context.Context, id string) error {
	if err := f.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("%w: mark notification %s read: %w", datastore.ErrTransient, id, err)
	}
	f.rows.Update(func(rows []core.Notification) []core.Notification {
		out, _ := core.MarkRead(rows, id)
		return out
	})
	return nil
}

// MarkAllRead flags every unread notification of the user in one write.
func (f *NotificationFeed) MarkAllRead(ctx context.Context) error {
	if err := f.store.MarkAllNotificationsRead(ctx, f.userID); err != nil {
		return fmt.Errorf("%w: mark all notifications read: %w", datastore.ErrTransient, err)
	}
	f.rows.Update(core.MarkAllRead)
	return nil
}
