package http

import (
	"context"
	"net/http"

	"chapterhub/internal/core"
	"chapterhub/internal/identity"
)

// handleCalendarPanel applies view/date/nav to the user's scheduler state
// and renders the week grid or the flat list. Toggling the view keeps the
// week cursor.
func (s *Server) handleCalendarPanel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	params := ParseCalendarParams(r.URL.Query(), s.loc)

	var sess *session
	if id.User != nil {
		sess = s.sessions.get(id)
	}
	p := s.loadCalendar(ctx, id, sess, &params)

	var b *HTMXResponseBuilder
	if p.Failed {
		b = NewHTMXResponse().TriggerErrorNotification("Could not load events.")
	}
	s.render(w, r, "calendar_panel", p, b)
}

// loadCalendar moves the session's scheduler state by params (nil keeps it)
// and fetches the events it needs. Without a session the state starts at now.
func (s *Server) loadCalendar(ctx context.Context, id core.Identity, sess *session, params *CalendarParams) calendarPanel {
	now := s.now()
	move := func(st core.SchedulerState) core.SchedulerState {
		if params == nil {
			return st
		}
		return params.Apply(st, now)
	}

	var st core.SchedulerState
	if sess != nil {
		st = sess.Scheduler(move)
	} else {
		st = move(core.NewSchedulerState(now, s.weekStart))
	}

	p := calendarPanel{Today: now}
	p.View.State = st
	if id.Chapter == nil {
		return p
	}
	p.Ready = true

	if st.View == core.ViewList {
		p.Title = "All events"
	} else {
		p.Title = weekTitle(st.Window())
	}

	view, err := s.scheduler.Load(ctx, id.Chapter.ID, st)
	p.View = view
	if err != nil {
		s.panelFailed(ctx, panelCalendar, id, err)
		p.Failed = true
	}
	return p
}
