// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// calendar navigation, task filters, path ids and small POST bodies sent
// either by HTMX (form encoded) or by API clients (JSON).

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chapterhub/internal/core"
)

const (
	NavPrev  = "prev"
	NavNext  = "next"
	NavToday = "today"

	maxBodyBytes = 4 << 10
	maxIDLength  = 128
)

// CalendarParams is the scheduler query: view toggle, explicit date and
// week navigation. Absent values leave the current state alone.
type CalendarParams struct {
	View    core.ViewMode
	HasView bool
	Date    time.Time
	HasDate bool
	Nav     string
}

// ParseCalendarParams reads view, date (YYYY-MM-DD, in loc) and nav from
// query values. Invalid values are ignored.
func ParseCalendarParams(query url.Values, loc *time.Location) CalendarParams {
	var p CalendarParams

	if v := strings.TrimSpace(query.Get("view")); v != "" {
		p.View = core.ParseViewMode(v)
		p.HasView = true
	}
	if v := strings.TrimSpace(query.Get("date")); v != "" {
		if d, err := parseDate(v, loc); err == nil {
			p.Date = d
			p.HasDate = true
		}
	}
	switch nav := strings.ToLower(strings.TrimSpace(query.Get("nav"))); nav {
	case NavPrev, NavNext, NavToday:
		p.Nav = nav
	}
	return p
}

// Apply moves st according to the parameters: view first, then date, then nav.
func (p CalendarParams) Apply(st core.SchedulerState, now time.Time) core.SchedulerState {
	if p.HasView {
		st = st.WithView(p.View)
	}
	if p.HasDate {
		st.Cursor = p.Date
	}
	switch p.Nav {
	case NavPrev:
		st = st.Prev()
	case NavNext:
		st = st.Next()
	case NavToday:
		st.Cursor = now
	}
	return st
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

// pathID returns the {id} path value when it looks like an identifier.
func pathID(r *http.Request) (string, bool) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" || len(id) > maxIDLength || strings.ContainsAny(id, "/\\ ") {
		return "", false
	}
	return id, true
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most maxBodyBytes once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// taskFilterFrom reads the filter from the query, then from a POST body.
// Unknown or missing values mean all.
func taskFilterFrom(r *http.Request) core.TaskFilter {
	if v := r.URL.Query().Get("filter"); v != "" {
		return core.ParseTaskFilter(v)
	}
	if r.Method == http.MethodPost {
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err == nil {
			return core.ParseTaskFilter(p.Get("filter"))
		}
	}
	return core.FilterAll
}
