package memory

import (
	"time"

	"chapterhub/internal/core"
)

// DemoUserID is the member the demo seed signs in as.
const DemoUserID = "demo-user"

func demoSeed(now time.Time) Seed {
	day := func(n int, hour int) time.Time {
		y, m, d := now.Date()
		return time.Date(y, m, d+n, hour, 0, 0, 0, now.Location())
	}
	return Seed{
		Users: []core.User{
			{ID: DemoUserID, Name: "Jordan Avery", Email: "jordan@example.edu", Tier: core.TierPremium, Status: "active"},
		},
		Chapters: []core.Chapter{
			{ID: "demo-chapter", SchoolName: "Westfield State", FraternityName: "Alpha Kappa", ChapterCode: "AK-WS"},
		},
		Roles: []core.Role{
			{ID: "treasurer", Name: "Treasurer", Permissions: map[string][]string{
				"budget":   {"read", "approve"},
				"events":   {"read"},
				"tasks":    {"read", "update"},
				"expenses": {"read", "create", "approve"},
			}},
		},
		Members: map[string]Member{
			DemoUserID: {ChapterID: "demo-chapter", RoleID: "treasurer"},
		},
		Budgets: []core.Budget{
			{ID: "fall-budget", ChapterID: "demo-chapter", PeriodLabel: "Fall semester", Total: core.Dollars(5000), CreatedAt: day(-60, 9)},
		},
		Expenses: []core.Expense{
			{ID: "e1", BudgetID: "fall-budget", ChapterID: "demo-chapter", Description: "Formal hall deposit", Amount: core.Dollars(1200), Category: core.CategoryVenue, Status: core.ExpenseApproved, CreatedAt: day(-20, 10)},
			{ID: "e2", BudgetID: "fall-budget", ChapterID: "demo-chapter", Description: "Catering", Amount: core.Dollars(450), Category: core.CategoryFood, Status: core.ExpenseApproved, CreatedAt: day(-10, 12)},
			{ID: "e3", BudgetID: "fall-budget", ChapterID: "demo-chapter", Description: "Bar service", Amount: core.Dollars(300), Category: core.CategoryAlcohol, Status: core.ExpensePending, CreatedAt: day(-3, 15)},
			{ID: "e4", BudgetID: "fall-budget", ChapterID: "demo-chapter", Description: "Banners", Amount: core.Dollars(80), Category: core.CategoryDecorations, Status: core.ExpenseApproved, CreatedAt: day(-2, 11)},
		},
		Events: []core.Event{
			{ID: "ev1", ChapterID: "demo-chapter", Title: "Chapter meeting", StartTime: day(1, 19), Status: core.EventConfirmed, Attendees: 42, Capacity: 60},
			{ID: "ev2", ChapterID: "demo-chapter", Title: "Fall formal", StartTime: day(9, 20), Status: core.EventPlanning, Attendees: 0, Capacity: 150},
			{ID: "ev3", ChapterID: "demo-chapter", Title: "Alumni mixer", StartTime: day(3, 18), Status: core.EventCancelled, Attendees: 12, Capacity: 40},
		},
		Tasks: []core.Task{
			{ID: "t1", ChapterID: "demo-chapter", AssigneeID: DemoUserID, Title: "Collect dues", Status: core.TaskInProgress, Priority: "high", DueDate: day(2, 17)},
			{ID: "t2", ChapterID: "demo-chapter", AssigneeID: DemoUserID, Title: "Book DJ for formal", Status: core.TaskPending, Priority: "medium", DueDate: day(5, 17)},
			{ID: "t3", ChapterID: "demo-chapter", Title: "Submit risk form", Status: core.TaskCompleted, Priority: "low", DueDate: day(-1, 17)},
		},
		Notifications: []core.Notification{
			{ID: "n1", UserID: DemoUserID, Message: "Catering expense approved", Type: "expense", CreatedAt: day(-10, 13)},
			{ID: "n2", UserID: DemoUserID, Message: "Welcome to your chapter dashboard", Type: "system", IsRead: true, CreatedAt: day(-30, 9)},
		},
	}
}
