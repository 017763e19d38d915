package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

var t0 = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func TestLatestBudget(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.LatestBudget(ctx, "c1"); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s.Load(Seed{Budgets: []core.Budget{
		{ID: "old", ChapterID: "c1", CreatedAt: t0},
		{ID: "new", ChapterID: "c1", CreatedAt: t0.Add(time.Hour)},
		{ID: "other", ChapterID: "c2", CreatedAt: t0.Add(2 * time.Hour)},
	}})
	b, err := s.LatestBudget(ctx, "c1")
	if err != nil || b.ID != "new" {
		t.Fatalf("expected newest budget, got %+v err=%v", b, err)
	}
}

func TestListApprovedExpenses(t *testing.T) {
	s := New()
	s.Load(Seed{Expenses: []core.Expense{
		{ID: "a", ChapterID: "c1", BudgetID: "b1", Status: core.ExpenseApproved, CreatedAt: t0},
		{ID: "b", ChapterID: "c1", BudgetID: "b1", Status: core.ExpensePending, CreatedAt: t0},
		{ID: "c", ChapterID: "c1", BudgetID: "b1", Status: core.ExpenseApproved, CreatedAt: t0.Add(time.Hour)},
		{ID: "d", ChapterID: "c1", BudgetID: "b2", Status: core.ExpenseApproved, CreatedAt: t0},
		{ID: "e", ChapterID: "c2", BudgetID: "b1", Status: core.ExpenseApproved, CreatedAt: t0},
	}})
	got, err := s.ListApprovedExpenses(context.Background(), "c1", "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("unexpected expenses: %+v", got)
	}
}

func TestNotificationsLimitAndMarkAll(t *testing.T) {
	s := New().WithClock(func() time.Time { return t0 })
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		n := core.Notification{ID: fmt.Sprintf("n%02d", i), UserID: "u1", CreatedAt: t0.Add(time.Duration(i) * time.Minute)}
		if _, err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := s.CreateNotification(ctx, core.Notification{UserID: "u2"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.ListNotifications(ctx, "u1", core.FeedLimit)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 20 || got[0].ID != "n24" || got[19].ID != "n05" {
		t.Fatalf("unexpected feed: first=%s last=%s len=%d", got[0].ID, got[len(got)-1].ID, len(got))
	}

	if err := s.MarkAllNotificationsRead(ctx, "u1"); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	all, _ := s.ListNotifications(ctx, "u1", 0)
	if core.UnreadCount(all) != 0 {
		t.Fatalf("expected every u1 row read")
	}
	other, _ := s.ListNotifications(ctx, "u2", 0)
	if len(other) != 1 || other[0].IsRead || other[0].ID == "" || !other[0].CreatedAt.Equal(t0) {
		t.Fatalf("u2 row should be untouched and defaulted: %+v", other)
	}
	if err := s.MarkNotificationRead(ctx, "missing"); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	s := New()
	s.Load(Seed{Tasks: []core.Task{{ID: "t1", ChapterID: "c1", Title: "x", Status: core.TaskPending}}})
	ctx := context.Background()
	if err := s.UpdateTaskStatus(ctx, "t1", core.TaskInProgress); err != nil {
		t.Fatalf("update: %v", err)
	}
	task, _ := s.GetTask(ctx, "t1")
	if task.Status != core.TaskInProgress {
		t.Fatalf("expected in-progress, got %q", task.Status)
	}
	if err := s.UpdateTaskStatus(ctx, "t1", "archived"); !errors.Is(err, core.ErrUnknownTaskStatus) {
		t.Fatalf("expected ErrUnknownTaskStatus, got %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, "nope", core.TaskPending); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListEventsWindow(t *testing.T) {
	s := New()
	s.Load(Seed{Events: []core.Event{
		{ID: "late", ChapterID: "c1", StartTime: t0.Add(48 * time.Hour)},
		{ID: "early", ChapterID: "c1", StartTime: t0},
		{ID: "edge", ChapterID: "c1", StartTime: t0.Add(72 * time.Hour)},
	}})
	got, _ := s.ListEvents(context.Background(), "c1", t0, t0.Add(72*time.Hour))
	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("unexpected events: %+v", got)
	}
	all, _ := s.ListEvents(context.Background(), "c1", time.Time{}, time.Time{})
	if len(all) != 3 {
		t.Fatalf("expected all events with zero window, got %d", len(all))
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	if _, err := s.GetUser(context.Background(), DemoUserID); err != nil {
		t.Fatalf("expected demo seed when file missing: %v", err)
	}

	seed := `{"users":[{"ID":"u9","Name":"Pat","Tier":"free"}],"members":{"u9":{"chapter_id":"c9","role_id":"r9"}}}`
	if err := os.WriteFile(filepath.Join(dir, "seed.json"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	u, err := s.GetUser(context.Background(), "u9")
	if err != nil || u.Name != "Pat" {
		t.Fatalf("unexpected user: %+v err=%v", u, err)
	}
	ch, role, err := s.Membership(context.Background(), "u9")
	if err != nil || ch != "c9" || role != "r9" {
		t.Fatalf("unexpected membership: %s %s %v", ch, role, err)
	}
}
