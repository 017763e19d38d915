package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"chapterhub/internal/core"
	"chapterhub/internal/identity"
)

const (
	panelOnboarding    = "onboarding"
	panelBudget        = "budget"
	panelCalendar      = "calendar"
	panelTasks         = "tasks"
	panelNotifications = "notifications"
)

// handleDashboard renders the full page. Panels load concurrently; one
// failing panel renders its error state without affecting the others.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	id := identity.FromContext(ctx)
	page := dashboardPage{HasIdentity: id.User != nil}
	if id.User == nil {
		s.render(w, r, "dashboard_page", page, nil)
		return
	}
	page.UserName = id.User.Name
	if id.Chapter != nil {
		page.ChapterName = id.Chapter.FraternityName + " " + id.Chapter.ChapterCode
	}
	page.Onboarding = s.onboardingView(id)

	sess := s.sessions.get(id)
	var g errgroup.Group
	g.Go(func() error {
		page.Budget = s.loadBudget(ctx, id)
		return nil
	})
	g.Go(func() error {
		page.Calendar = s.loadCalendar(ctx, id, sess, nil)
		return nil
	})
	g.Go(func() error {
		page.Tasks = s.loadTasks(ctx, id, sess, core.FilterAll)
		return nil
	})
	g.Go(func() error {
		page.Notifications = s.loadNotifications(ctx, id, sess)
		return nil
	})
	_ = g.Wait()

	s.render(w, r, "dashboard_page", page, nil)
}

func (s *Server) handleOnboardingPanel(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	p := s.onboardingView(id)
	var b *HTMXResponseBuilder
	if !p.Ready && id.User != nil {
		b = NewHTMXResponse().TriggerWarningNotification("Your account is still being set up.")
	}
	s.render(w, r, "onboarding_panel", p, b)
}

func (s *Server) handleBudgetPanel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	p := s.loadBudget(ctx, identity.FromContext(ctx))
	var b *HTMXResponseBuilder
	if p.Failed {
		b = NewHTMXResponse().TriggerErrorNotification("Could not load the budget.")
	}
	s.render(w, r, "budget_panel", p, b)
}

func (s *Server) onboardingView(id core.Identity) onboardingPanel {
	summary, ok := core.BuildOnboardingSummary(id)
	return onboardingPanel{Ready: ok, Summary: summary}
}

func (s *Server) loadBudget(ctx context.Context, id core.Identity) budgetPanel {
	if id.Chapter == nil {
		return budgetPanel{Overview: core.NoBudget()}
	}
	ov, err := s.budget.Overview(ctx, id.Chapter.ID)
	if err != nil {
		s.panelFailed(ctx, panelBudget, id, err)
		return budgetPanel{Ready: true, Failed: true, Overview: core.NoBudget()}
	}
	return budgetPanel{Ready: true, Overview: ov}
}

func (s *Server) panelFailed(ctx context.Context, panel string, id core.Identity, err error) {
	var userID, chapterID string
	if id.User != nil {
		userID = id.User.ID
	}
	if id.Chapter != nil {
		chapterID = id.Chapter.ID
	}
	s.eventsFor(ctx).LogPanelFailed(ctx, panel, userID, chapterID, err)
}
