package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

// statusForError maps domain and store errors to an HTTP status.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, datastore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownTaskStatus), errors.Is(err, core.ErrMissingChapter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datastore.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers with an HTML fragment and an error toast for htmx,
// or a JSON error body otherwise.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		ErrorResponse(status, message).TriggerErrorNotification(message).Write(w)
		return
	}
	JSONError(status, message).Write(w)
}

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// weekTitle renders "Oct 6 - 12, 2024", spanning months and years when needed.
func weekTitle(start, end time.Time) string {
	last := end.AddDate(0, 0, -1)
	switch {
	case start.Year() != last.Year():
		return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), last.Format("Jan 2, 2006"))
	case start.Month() != last.Month():
		return fmt.Sprintf("%s - %s", start.Format("Jan 2"), last.Format("Jan 2, 2006"))
	default:
		return fmt.Sprintf("%s - %d, %d", start.Format("Jan 2"), last.Day(), last.Year())
	}
}

func statusLabel(s core.TaskStatus) string {
	switch s {
	case core.TaskPending:
		return "Pending"
	case core.TaskInProgress:
		return "In progress"
	case core.TaskCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

func filterLabel(f core.TaskFilter) string {
	if f == core.FilterAll {
		return "All"
	}
	return statusLabel(core.TaskStatus(f))
}

// templateFuncs are available to every template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"pct":         func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"width":       func(v float64) string { return fmt.Sprintf("%.0f", v) },
		"badge":       func(s core.EventStatus) string { return core.BadgeColor(s) },
		"statusLabel": statusLabel,
		"day":         func(t time.Time) string { return t.Format("Mon 2") },
		"date":        func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"clock":       func(t time.Time) string { return t.Format("3:04 PM") },
		"datetime":    func(t time.Time) string { return t.Format("Jan 2, 3:04 PM") },
		"iso":         func(t time.Time) string { return t.Format("2006-01-02") },
		"due": func(t time.Time) string {
			if t.IsZero() {
				return "No due date"
			}
			return "Due " + t.Format("Jan 2")
		},
	}
}
