package datastore

import (
	"context"
	"errors"
	"time"

	"chapterhub/internal/core"
)

// ErrNotFound is returned by single-row reads that matched nothing. Callers
// treat it as an empty state, not a failure.
var ErrNotFound = errors.New("not found")

// ErrTransient marks a failed read or write that the user may retry by hand.
// Nothing retries automatically.
var ErrTransient = errors.New("data store unavailable")

// Ports for the row store behind the dashboard.
type (
	IdentityReader interface {
		GetUser(ctx context.Context, id string) (core.User, error)
		GetChapter(ctx context.Context, id string) (core.Chapter, error)
		GetRole(ctx context.Context, id string) (core.Role, error)
		// Membership returns the chapter and role the user belongs to.
		Membership(ctx context.Context, userID string) (chapterID, roleID string, err error)
	}

	// BudgetReader returns the most recently created budget of a chapter.
	BudgetReader interface {
		LatestBudget(ctx context.Context, chapterID string) (core.Budget, error)
	}

	// ExpenseLister returns approved expenses, newest first.
	ExpenseLister interface {
		ListApprovedExpenses(ctx context.Context, chapterID, budgetID string) ([]core.Expense, error)
	}

	// EventLister returns events starting in [from, to), ordered by start time.
	// A zero window means every event of the chapter.
	EventLister interface {
		ListEvents(ctx context.Context, chapterID string, from, to time.Time) ([]core.Event, error)
	}

	TaskStore interface {
		ListTasks(ctx context.Context, chapterID string) ([]core.Task, error)
		GetTask(ctx context.Context, id string) (core.Task, error)
		UpdateTaskStatus(ctx context.Context, id string, status core.TaskStatus) error
	}

	NotificationStore interface {
		// ListNotifications returns up to limit rows for the user, newest first.
		ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error)
		MarkNotificationRead(ctx context.Context, id string) error
		// MarkAllNotificationsRead flags every unread row of the user in one write.
		MarkAllNotificationsRead(ctx context.Context, userID string) error
		CreateNotification(ctx context.Context, n core.Notification) (string, error)
	}

	// ChapterLister enumerates chapters for background jobs.
	ChapterLister interface {
		ListChapters(ctx context.Context) ([]core.Chapter, error)
	}
)

// Store is everything the dashboard reads and writes.
type Store interface {
	IdentityReader
	BudgetReader
	ExpenseLister
	EventLister
	TaskStore
	NotificationStore
	ChapterLister
}
