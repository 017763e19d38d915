package http

import (
	"time"

	"chapterhub/internal/core"
	"chapterhub/internal/services"
)

// Panel view models. Ready is false when the identity lacks what the panel
// needs; Failed is set when the data store could not be read.

type onboardingPanel struct {
	Ready   bool
	Summary core.OnboardingSummary
}

type budgetPanel struct {
	Ready    bool
	Failed   bool
	Overview core.BudgetOverview
}

type calendarPanel struct {
	Ready  bool
	Failed bool
	View   services.SchedulerView
	Title  string
	Today  time.Time
}

// IsList lets templates branch without comparing typed strings.
func (p calendarPanel) IsList() bool {
	return p.View.State.View == core.ViewList
}

type filterTab struct {
	Value  core.TaskFilter
	Label  string
	Active bool
	Count  int
}

type tasksPanel struct {
	Ready  bool
	Failed bool
	Filter core.TaskFilter
	Tabs   []filterTab
	Tasks  []core.Task
}

type notificationsPanel struct {
	Ready  bool
	Failed bool
	Items  []core.Notification
	Unread int
}

type dashboardPage struct {
	UserName      string
	ChapterName   string
	HasIdentity   bool
	Onboarding    onboardingPanel
	Budget        budgetPanel
	Calendar      calendarPanel
	Tasks         tasksPanel
	Notifications notificationsPanel
}

var filterOrder = []core.TaskFilter{core.FilterAll, core.FilterPending, core.FilterInProgress, core.FilterCompleted}

func buildTabs(all []core.Task, active core.TaskFilter) []filterTab {
	tabs := make([]filterTab, 0, len(filterOrder))
	for _, f := range filterOrder {
		tabs = append(tabs, filterTab{
			Value:  f,
			Label:  filterLabel(f),
			Active: f == active,
			Count:  len(core.FilterTasks(all, f)),
		})
	}
	return tabs
}

// JSON representations for the /api endpoints.

type categoryJSON struct {
	Category           string  `json:"category"`
	Name               string  `json:"name"`
	AmountCents        int64   `json:"amount_cents"`
	Count              int     `json:"count"`
	PercentageOfBudget float64 `json:"percentage_of_budget"`
}

type budgetJSON struct {
	HasBudget      bool           `json:"has_budget"`
	BudgetID       string         `json:"budget_id,omitempty"`
	PeriodLabel    string         `json:"period_label,omitempty"`
	TotalCents     int64          `json:"total_cents"`
	SpentCents     int64          `json:"spent_cents"`
	RemainingCents int64          `json:"remaining_cents"`
	Utilization    float64        `json:"utilization"`
	Categories     []categoryJSON `json:"categories"`
}

func newBudgetJSON(ov core.BudgetOverview) budgetJSON {
	out := budgetJSON{
		HasBudget:      ov.HasBudget,
		BudgetID:       ov.Budget.ID,
		PeriodLabel:    ov.Budget.PeriodLabel,
		TotalCents:     ov.Budget.Total.Cents,
		SpentCents:     ov.TotalSpent.Cents,
		RemainingCents: ov.Remaining.Cents,
		Utilization:    ov.Utilization,
		Categories:     make([]categoryJSON, 0, len(ov.ByCategory)),
	}
	for _, c := range ov.ByCategory {
		out.Categories = append(out.Categories, categoryJSON{
			Category:           string(c.Category),
			Name:               c.Name,
			AmountCents:        c.Amount.Cents,
			Count:              c.Count,
			PercentageOfBudget: c.PercentageOfBudget,
		})
	}
	return out
}

type eventJSON struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	Status     string    `json:"status"`
	BadgeColor string    `json:"badge_color"`
	Attendees  int       `json:"attendees"`
	Capacity   int       `json:"capacity"`
}

func newEventJSON(ev core.Event) eventJSON {
	return eventJSON{
		ID:         ev.ID,
		Title:      ev.Title,
		StartTime:  ev.StartTime,
		Status:     string(ev.Status),
		BadgeColor: core.BadgeColor(ev.Status),
		Attendees:  ev.Attendees,
		Capacity:   ev.Capacity,
	}
}

type dayJSON struct {
	Date   string      `json:"date"`
	Events []eventJSON `json:"events"`
}

type eventsJSON struct {
	View   string      `json:"view"`
	Cursor string      `json:"cursor"`
	Days   []dayJSON   `json:"days,omitempty"`
	Events []eventJSON `json:"events,omitempty"`
}

func newEventsJSON(v services.SchedulerView) eventsJSON {
	out := eventsJSON{View: string(v.State.View), Cursor: v.State.Cursor.Format("2006-01-02")}
	if v.State.View == core.ViewList {
		out.Events = make([]eventJSON, 0, len(v.List))
		for _, item := range v.List {
			out.Events = append(out.Events, newEventJSON(item.Event))
		}
		return out
	}
	for _, d := range v.Week.Days {
		day := dayJSON{Date: d.Date.Format("2006-01-02"), Events: make([]eventJSON, 0, len(d.Events))}
		for _, ev := range d.Events {
			day.Events = append(day.Events, newEventJSON(ev))
		}
		out.Days = append(out.Days, day)
	}
	return out
}

type taskJSON struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority,omitempty"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

func newTaskJSON(t core.Task) taskJSON {
	out := taskJSON{
		ID:         t.ID,
		Title:      t.Title,
		Status:     string(t.Status),
		Priority:   t.Priority,
		AssigneeID: t.AssigneeID,
	}
	if !t.DueDate.IsZero() {
		due := t.DueDate
		out.DueDate = &due
	}
	return out
}

type notificationJSON struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type notificationsJSON struct {
	Unread int                `json:"unread"`
	Items  []notificationJSON `json:"items"`
}

func newNotificationsJSON(items []core.Notification) notificationsJSON {
	out := notificationsJSON{Unread: core.UnreadCount(items), Items: make([]notificationJSON, 0, len(items))}
	for _, n := range items {
		out.Items = append(out.Items, notificationJSON{
			ID:        n.ID,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
