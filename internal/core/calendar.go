package core

import (
	"strings"
	"time"
)

const (
	ViewCalendar ViewMode = "calendar"
	ViewList     ViewMode = "list"
)

// ViewMode selects how the scheduler panel lays out events.
type ViewMode string

// ParseViewMode maps a query value to a ViewMode, defaulting to calendar.
func ParseViewMode(s string) ViewMode {
	if ViewMode(strings.ToLower(strings.TrimSpace(s))) == ViewList {
		return ViewList
	}
	return ViewCalendar
}

// BadgeColor maps an event status to its badge color.
func BadgeColor(s EventStatus) string {
	switch s {
	case EventPlanning:
		return "yellow"
	case EventConfirmed:
		return "green"
	case EventCancelled:
		return "red"
	default:
		return "gray"
	}
}

type CalendarDay struct {
	Date   time.Time
	Events []Event
}

type CalendarWeek struct {
	Start time.Time // first day, midnight
	End   time.Time // exclusive: midnight after the last day
	Days  [7]CalendarDay
}

// SchedulerState is what survives a calendar/list toggle: only the cursor.
type SchedulerState struct {
	View      ViewMode
	Cursor    time.Time
	WeekStart time.Weekday
}

// NewSchedulerState starts in calendar mode with the cursor on now.
func NewSchedulerState(now time.Time, weekStart time.Weekday) SchedulerState {
	return SchedulerState{View: ViewCalendar, Cursor: now, WeekStart: weekStart}
}

// WithView switches modes without touching the cursor.
func (s SchedulerState) WithView(v ViewMode) SchedulerState {
	s.View = v
	return s
}

// Next moves the cursor one week forward.
func (s SchedulerState) Next() SchedulerState {
	s.Cursor = ShiftWeeks(s.Cursor, 1)
	return s
}

// Prev moves the cursor one week back.
func (s SchedulerState) Prev() SchedulerState {
	s.Cursor = ShiftWeeks(s.Cursor, -1)
	return s
}

// Window returns the [start, end) range of the week containing the cursor.
func (s SchedulerState) Window() (time.Time, time.Time) {
	start := WeekStart(s.Cursor, s.WeekStart)
	return start, addDays(start, 7)
}

// ShiftWeeks moves t by n*7 calendar days, keeping wall-clock time.
func ShiftWeeks(t time.Time, n int) time.Time {
	return addDays(t, 7*n)
}

// WeekStart returns midnight of the first day of the week containing t,
// in t's location.
func WeekStart(t time.Time, first time.Weekday) time.Time {
	day := midnight(t)
	offset := (int(day.Weekday()) - int(first) + 7) % 7
	return addDays(day, -offset)
}

// BuildCalendar buckets events into the seven days of the week that contains
// cursor. Events outside the window are dropped. Within a day, input order
// is preserved.
func BuildCalendar(events []Event, cursor time.Time, first time.Weekday) CalendarWeek {
	start := WeekStart(cursor, first)
	week := CalendarWeek{Start: start, End: addDays(start, 7)}
	for i := range week.Days {
		week.Days[i].Date = addDays(start, i)
	}

	loc := cursor.Location()
	for _, ev := range events {
		local := midnight(ev.StartTime.In(loc))
		for i := range week.Days {
			if sameDay(local, week.Days[i].Date) {
				week.Days[i].Events = append(week.Days[i].Events, ev)
				break
			}
		}
	}
	return week
}

// EventItem is one row of the flat list view.
type EventItem struct {
	Event      Event
	BadgeColor string
}

// BuildEventList renders events in the order provided; no re-sort.
func BuildEventList(events []Event) []EventItem {
	out := make([]EventItem, 0, len(events))
	for _, ev := range events {
		out = append(out, EventItem{Event: ev, BadgeColor: BadgeColor(ev.Status)})
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()
	return time.Date(y, m, d+n, h, min, sec, t.Nanosecond(), t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
