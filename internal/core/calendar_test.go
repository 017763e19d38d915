package core

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	// 2026-10-21 is a Wednesday
	wed := time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC)

	if got := WeekStart(wed, time.Sunday); !got.Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("sunday start: got %v", got)
	}
	if got := WeekStart(wed, time.Monday); !got.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monday start: got %v", got)
	}
	sun := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	if got := WeekStart(sun, time.Monday); !got.Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("sunday with monday start: got %v", got)
	}
}

func TestBuildCalendarBucketsByDay(t *testing.T) {
	cursor := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "a", StartTime: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)},
		{ID: "b", StartTime: time.Date(2026, 10, 21, 23, 59, 0, 0, time.UTC)},
		{ID: "c", StartTime: time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC)},
		{ID: "d", StartTime: time.Date(2026, 10, 24, 20, 0, 0, 0, time.UTC)},
		{ID: "out-before", StartTime: time.Date(2026, 10, 17, 23, 0, 0, 0, time.UTC)},
		{ID: "out-after", StartTime: time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)},
	}

	week := BuildCalendar(events, cursor, time.Sunday)
	if !week.Start.Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)) || !week.End.Equal(time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window %v - %v", week.Start, week.End)
	}
	if len(week.Days[0].Events) != 1 || week.Days[0].Events[0].ID != "a" {
		t.Fatalf("unexpected sunday: %+v", week.Days[0].Events)
	}
	wed := week.Days[3].Events
	if len(wed) != 2 || wed[0].ID != "b" || wed[1].ID != "c" {
		t.Fatalf("expected input order b,c on wednesday, got %+v", wed)
	}
	if len(week.Days[6].Events) != 1 || week.Days[6].Events[0].ID != "d" {
		t.Fatalf("unexpected saturday: %+v", week.Days[6].Events)
	}
	total := 0
	for _, d := range week.Days {
		total += len(d.Events)
	}
	if total != 4 {
		t.Fatalf("expected 4 events in window, got %d", total)
	}
}

func TestBuildCalendarUsesCursorLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	cursor := time.Date(2026, 10, 21, 12, 0, 0, 0, loc)
	// 02:00 UTC on the 22nd is 21:00 on the 21st in EST
	ev := Event{ID: "late", StartTime: time.Date(2026, 10, 22, 2, 0, 0, 0, time.UTC)}

	week := BuildCalendar([]Event{ev}, cursor, time.Sunday)
	if len(week.Days[3].Events) != 1 {
		t.Fatalf("expected event on local wednesday, got %+v", week.Days)
	}
}

func TestSchedulerStateNavigation(t *testing.T) {
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	s := NewSchedulerState(now, time.Sunday)
	if s.View != ViewCalendar {
		t.Fatalf("expected calendar default, got %q", s.View)
	}

	next := s.Next()
	if !next.Cursor.Equal(now.AddDate(0, 0, 7)) {
		t.Fatalf("next: got %v", next.Cursor)
	}
	if back := next.Prev(); !back.Cursor.Equal(now) {
		t.Fatalf("prev: got %v", back.Cursor)
	}

	listed := next.WithView(ViewList)
	if listed.View != ViewList || !listed.Cursor.Equal(next.Cursor) {
		t.Fatalf("switching view must keep cursor: %+v", listed)
	}
	start, end := listed.Window()
	if !start.Equal(time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window %v - %v", start, end)
	}
}

func TestBuildEventListKeepsOrder(t *testing.T) {
	events := []Event{
		{ID: "3", Status: EventCancelled, StartTime: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
		{ID: "1", Status: EventConfirmed, StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Status: EventPlanning, StartTime: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	items := BuildEventList(events)
	wantIDs := []string{"3", "1", "2"}
	wantColors := []string{"red", "green", "yellow"}
	for i, it := range items {
		if it.Event.ID != wantIDs[i] || it.BadgeColor != wantColors[i] {
			t.Fatalf("item %d: got %s/%s", i, it.Event.ID, it.BadgeColor)
		}
	}
}

func TestParseViewModeAndBadge(t *testing.T) {
	if ParseViewMode("LIST") != ViewList || ParseViewMode("") != ViewCalendar || ParseViewMode("grid") != ViewCalendar {
		t.Fatalf("unexpected view parsing")
	}
	if BadgeColor("postponed") != "gray" {
		t.Fatalf("unknown status should be gray")
	}
}
