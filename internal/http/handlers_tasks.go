package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
	"chapterhub/internal/identity"
	"chapterhub/internal/log"
	"chapterhub/internal/viewstate"
)

func (s *Server) handleTasksPanel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	filter := taskFilterFrom(r)

	var p tasksPanel
	if id.User != nil {
		p = s.loadTasks(ctx, id, s.sessions.get(id), filter)
	} else {
		p = tasksPanel{Filter: filter}
	}

	var b *HTMXResponseBuilder
	if p.Failed {
		b = NewHTMXResponse().TriggerErrorNotification("Could not load tasks.")
	}
	s.render(w, r, "tasks_panel", p, b)
}

// handleCycleTask moves one task to its next status. The rendered list is
// the board's local state after the write, not a fresh read.
func (s *Server) handleCycleTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil || id.Chapter == nil {
		respondError(w, r, http.StatusUnauthorized, "Join a chapter to update tasks.")
		return
	}
	taskID, ok := pathID(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "Invalid task id.")
		return
	}
	filter := taskFilterFrom(r)

	sess := s.sessions.get(id)
	if sess.tasks.State().Phase == viewstate.NotRequested {
		// Scopes the board to the chapter; a failed read falls back to a single lookup.
		_ = sess.tasks.Load(ctx, id.Chapter.ID)
	}

	task, err := sess.tasks.Cycle(ctx, taskID)
	if err != nil {
		s.eventsFor(ctx).LogError(ctx, "Task status change failed", err,
			log.ComponentTasks, log.OpCycle,
			log.NewFields().WithIdentity(id.User.ID, id.Chapter.ID).WithTask(taskID, ""))

		msg := "Could not update the task. Please try again."
		if errors.Is(err, datastore.ErrNotFound) {
			msg = "Task not found."
		}
		respondError(w, r, statusForError(err), msg)
		return
	}

	s.eventsFor(ctx).LogTaskCycled(ctx, id.User.ID, id.Chapter.ID, task.ID, string(task.Status))

	if !isHTMX(r) {
		NewHTMXResponse().JSON(newTaskJSON(task)).Write(w)
		return
	}
	b := NewHTMXResponse().
		TriggerTasksChanged(string(filter)).
		TriggerSuccessNotification(fmt.Sprintf("%q is now %s.", task.Title, strings.ToLower(statusLabel(task.Status))))
	s.render(w, r, "tasks_panel", s.tasksView(sess, filter), b)
}

// loadTasks reads the chapter's tasks into the session board and renders
// the filtered view.
func (s *Server) loadTasks(ctx context.Context, id core.Identity, sess *session, filter core.TaskFilter) tasksPanel {
	if id.Chapter == nil {
		return tasksPanel{Filter: filter}
	}
	if err := sess.tasks.Load(ctx, id.Chapter.ID); err != nil {
		s.panelFailed(ctx, panelTasks, id, err)
	}
	return s.tasksView(sess, filter)
}

func (s *Server) tasksView(sess *session, filter core.TaskFilter) tasksPanel {
	snap := sess.tasks.State()
	return tasksPanel{
		Ready:  true,
		Failed: snap.Failed(),
		Filter: filter,
		Tabs:   buildTabs(snap.Value, filter),
		Tasks:  sess.tasks.Visible(filter),
	}
}
