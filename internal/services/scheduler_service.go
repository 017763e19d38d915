package services

import (
	"context"
	"fmt"
	"time"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

// SchedulerView is what the calendar panel renders. Exactly one of Week and
// List is meaningful, depending on State.View.
type SchedulerView struct {
	State core.SchedulerState
	Week  core.CalendarWeek
	List  []core.EventItem
}

type SchedulerService struct {
	events datastore.EventLister
}

func NewSchedulerService(events datastore.EventLister) *SchedulerService {
	return &SchedulerService{events: events}
}

// Load fetches the events needed for state. Calendar mode reads only the
// week around the cursor; list mode reads every event of the chapter in
// start order.
func (s *SchedulerService) Load(ctx context.Context, chapterID string, state core.SchedulerState) (SchedulerView, error) {
	view := SchedulerView{State: state}

	if state.View == core.ViewList {
		events, err := s.events.ListEvents(ctx, chapterID, time.Time{}, time.Time{})
		if err != nil {
			return view, fmt.Errorf("%w: list events: %w", datastore.ErrTransient, err)
		}
		view.List = core.BuildEventList(events)
		return view, nil
	}

	from, to := state.Window()
	events, err := s.events.ListEvents(ctx, chapterID, from, to)
	if err != nil {
		return view, fmt.Errorf("%w: list events: %w", datastore.ErrTransient, err)
	}
	view.Week = core.BuildCalendar(events, state.Cursor, state.WeekStart)
	return view, nil
}
