package http

import (
	"net/http"

	"chapterhub/internal/core"
	"chapterhub/internal/identity"
)

// The /api reads are stateless except for tasks and notifications, which
// share the session lists so a later mutation sees the same rows.

func (s *Server) handleAPIBudget(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil {
		JSONError(http.StatusUnauthorized, "unknown user").Write(w)
		return
	}
	if id.Chapter == nil {
		NewHTMXResponse().JSON(newBudgetJSON(core.NoBudget())).Write(w)
		return
	}

	ov, err := s.budget.Overview(ctx, id.Chapter.ID)
	if err != nil {
		s.panelFailed(ctx, panelBudget, id, err)
		JSONError(statusForError(err), "budget unavailable").Write(w)
		return
	}
	NewHTMXResponse().JSON(newBudgetJSON(ov)).Write(w)
}

func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil {
		JSONError(http.StatusUnauthorized, "unknown user").Write(w)
		return
	}

	now := s.now()
	st := ParseCalendarParams(r.URL.Query(), s.loc).Apply(core.NewSchedulerState(now, s.weekStart), now)
	if id.Chapter == nil {
		NewHTMXResponse().JSON(eventsJSON{View: string(st.View), Cursor: st.Cursor.Format("2006-01-02")}).Write(w)
		return
	}

	view, err := s.scheduler.Load(ctx, id.Chapter.ID, st)
	if err != nil {
		s.panelFailed(ctx, panelCalendar, id, err)
		JSONError(statusForError(err), "events unavailable").Write(w)
		return
	}
	NewHTMXResponse().JSON(newEventsJSON(view)).Write(w)
}

func (s *Server) handleAPITasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil {
		JSONError(http.StatusUnauthorized, "unknown user").Write(w)
		return
	}

	out := []taskJSON{}
	if id.Chapter != nil {
		sess := s.sessions.get(id)
		if err := sess.tasks.Load(ctx, id.Chapter.ID); err != nil {
			s.panelFailed(ctx, panelTasks, id, err)
			JSONError(statusForError(err), "tasks unavailable").Write(w)
			return
		}
		for _, t := range sess.tasks.Visible(taskFilterFrom(r)) {
			out = append(out, newTaskJSON(t))
		}
	}
	NewHTMXResponse().JSON(out).Write(w)
}

func (s *Server) handleAPINotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	if id.User == nil {
		JSONError(http.StatusUnauthorized, "unknown user").Write(w)
		return
	}

	sess := s.sessions.get(id)
	if err := sess.feed.Load(ctx); err != nil {
		s.panelFailed(ctx, panelNotifications, id, err)
		JSONError(statusForError(err), "notifications unavailable").Write(w)
		return
	}
	NewHTMXResponse().JSON(newNotificationsJSON(sess.feed.Notifications())).Write(w)
}
