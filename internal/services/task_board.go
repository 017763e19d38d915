package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chapterhub/internal/amqp"
	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
	"chapterhub/internal/identity"
	"chapterhub/internal/viewstate"
)

// TaskStatusHandler receives a requested status change. The board never
// applies the change itself; it only reflects it once the handler succeeds.
type TaskStatusHandler func(ctx context.Context, task core.Task, next core.TaskStatus) error

// TaskBoard is the task panel: a loaded list, a filter, and the status
// control that cycles one task.
type TaskBoard struct {
	store    datastore.TaskStore
	onChange TaskStatusHandler
	tasks    viewstate.Tracker[[]core.Task]

	mu        sync.Mutex
	chapterID string
}

func NewTaskBoard(store datastore.TaskStore, onChange TaskStatusHandler) *TaskBoard {
	return &TaskBoard{store: store, onChange: onChange}
}

// Load fetches the chapter's tasks. A response that arrives after a newer
// Load or a Reset is dropped.
func (b *TaskBoard) Load(ctx context.Context, chapterID string) error {
	b.mu.Lock()
	b.chapterID = chapterID
	b.mu.Unlock()

	tok := b.tasks.Begin()
	tasks, err := b.store.ListTasks(ctx, chapterID)
	if err != nil {
		err = fmt.Errorf("%w: list tasks: %w", datastore.ErrTransient, err)
	}
	b.tasks.Resolve(tok, tasks, err)
	return err
}

// Reset forgets loaded tasks, e.g. when the identity changes.
func (b *TaskBoard) Reset() {
	b.mu.Lock()
	b.chapterID = ""
	b.mu.Unlock()
	b.tasks.Reset()
}

func (b *TaskBoard) State() viewstate.Snapshot[[]core.Task] {
	return b.tasks.Snapshot()
}

// Visible returns the loaded tasks that pass f.
func (b *TaskBoard) Visible(f core.TaskFilter) []core.Task {
	return core.FilterTasks(b.tasks.Snapshot().Value, f)
}

// Cycle advances the task with the given id to its next status through the
// handler. The loaded list is replaced, not modified in place, and only
// when the handler succeeds.
func (b *TaskBoard) Cycle(ctx context.Context, taskID string) (core.Task, error) {
	task, ok := b.find(taskID)
	if !ok {
		t, err := b.store.GetTask(ctx, taskID)
		if err != nil {
			return core.Task{}, fmt.Errorf("get task %s: %w", taskID, err)
		}
		// Tasks of another chapter are invisible to this board.
		if scope := b.scope(); scope != "" && t.ChapterID != scope {
			return core.Task{}, fmt.Errorf("get task %s: %w", taskID, datastore.ErrNotFound)
		}
		task = t
	}

	next, err := core.NextTaskStatus(task.Status)
	if err != nil {
		return core.Task{}, err
	}

	if b.onChange != nil {
		if err := b.onChange(ctx, task, next); err != nil {
			return core.Task{}, err
		}
	}

	task.Status = next
	b.tasks.Update(func(cur []core.Task) []core.Task {
		out := make([]core.Task, len(cur))
		copy(out, cur)
		for i := range out {
			if out[i].ID == taskID {
				out[i].Status = next
			}
		}
		return out
	})
	return task, nil
}

func (b *TaskBoard) scope() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chapterID
}

func (b *TaskBoard) find(id string) (core.Task, bool) {
	for _, t := range b.tasks.Snapshot().Value {
		if t.ID == id {
			return t, true
		}
	}
	return core.Task{}, false
}

// ActivityPublisher is satisfied by *amqp.Client.
type ActivityPublisher interface {
	PublishTaskStatusChanged(ctx context.Context, msg *amqp.TaskStatusChangedMessage) error
}

// TaskStatusWriter persists a status change and announces it on the
// activity exchange. Publishing is best effort.
type TaskStatusWriter struct {
	store     datastore.TaskStore
	publisher ActivityPublisher
}

func NewTaskStatusWriter(store datastore.TaskStore, publisher ActivityPublisher) *TaskStatusWriter {
	return &TaskStatusWriter{store: store, publisher: publisher}
}

// Handle matches TaskStatusHandler.
func (w *TaskStatusWriter) Handle(ctx context.Context, task core.Task, next core.TaskStatus) error {
	if err := w.store.UpdateTaskStatus(ctx, task.ID, next); err != nil {
		return fmt.Errorf("%w: update task %s: %w", datastore.ErrTransient, task.ID, err)
	}

	if w.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping task status message", "task_id", task.ID)
		return nil
	}

	var actorID string
	if id := identity.FromContext(ctx); id.User != nil {
		actorID = id.User.ID
	}
	from := task.Status
	task.Status = next
	if err := w.publisher.PublishTaskStatusChanged(ctx, amqp.NewTaskStatusChangedMessage(task, from, actorID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish task status message", "task_id", task.ID, "error", err)
	}
	return nil
}
