package core

import (
	"fmt"
	"strings"
)

const (
	FilterAll        TaskFilter = "all"
	FilterPending    TaskFilter = "pending"
	FilterInProgress TaskFilter = "in-progress"
	FilterCompleted  TaskFilter = "completed"
)

// TaskFilter is the four-state selector above the task list.
type TaskFilter string

// ParseTaskFilter maps a query value to a filter; anything unknown means all.
func ParseTaskFilter(s string) TaskFilter {
	switch f := TaskFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterPending, FilterInProgress, FilterCompleted:
		return f
	}
	return FilterAll
}

// Matches reports whether a task with status s passes the filter.
func (f TaskFilter) Matches(s TaskStatus) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return TaskStatus(f) == s
}

// FilterTasks returns the tasks whose status passes f. The input slice is not modified.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// NextTaskStatus advances pending -> in-progress -> completed -> pending.
func NextTaskStatus(s TaskStatus) (TaskStatus, error) {
	switch s {
	case TaskPending:
		return TaskInProgress, nil
	case TaskInProgress:
		return TaskCompleted, nil
	case TaskCompleted:
		return TaskPending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTaskStatus, s)
}
