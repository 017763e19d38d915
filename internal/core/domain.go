package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

const (
	CategoryVenue       ExpenseCategory = "venue"
	CategoryAlcohol     ExpenseCategory = "alcohol"
	CategoryFood        ExpenseCategory = "food"
	CategoryDecorations ExpenseCategory = "decorations"
	CategoryOther       ExpenseCategory = "other"
)

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
)

const (
	EventPlanning  EventStatus = "planning"
	EventConfirmed EventStatus = "confirmed"
	EventCancelled EventStatus = "cancelled"
)

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

type (
	Tier            string
	ExpenseCategory string
	ExpenseStatus   string
	EventStatus     string
	TaskStatus      string

	Money struct {
		Cents int64
	}

	User struct {
		ID     string
		Name   string
		Email  string
		Tier   Tier
		Status string
	}

	Chapter struct {
		ID             string
		SchoolName     string
		FraternityName string
		ChapterCode    string
	}

	// Role carries a resource -> allowed actions matrix. Display only.
	Role struct {
		ID          string
		Name        string
		Permissions map[string][]string
	}

	// Identity is the authenticated user/chapter/role triple shared by every view.
	Identity struct {
		User    *User
		Chapter *Chapter
		Role    *Role
	}

	Budget struct {
		ID          string
		ChapterID   string
		PeriodLabel string
		Total       Money
		CreatedAt   time.Time
	}

	Expense struct {
		ID          string
		BudgetID    string
		ChapterID   string
		Description string
		Amount      Money
		Category    ExpenseCategory
		Status      ExpenseStatus
		CreatedAt   time.Time
	}

	Event struct {
		ID        string
		ChapterID string
		Title     string
		StartTime time.Time
		Status    EventStatus
		Attendees int
		Capacity  int
	}

	Task struct {
		ID         string
		ChapterID  string
		AssigneeID string
		Title      string
		Status     TaskStatus
		Priority   string
		DueDate    time.Time
	}

	Notification struct {
		ID        string
		UserID    string
		Message   string
		Type      string
		IsRead    bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyTitle          = errors.New("empty title")
	ErrUnknownTaskStatus   = errors.New("unknown task status")
	ErrUnknownExpenseState = errors.New("unknown expense status")
	ErrMissingChapter      = errors.New("missing chapter id")
)

// Valid reports whether t is one of the subscription tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// Known reports whether c is one of the five fixed expense categories.
func (c ExpenseCategory) Known() bool {
	switch c {
	case CategoryVenue, CategoryAlcohol, CategoryFood, CategoryDecorations, CategoryOther:
		return true
	}
	return false
}

// Label returns the display label, falling back to "Other" for unmapped values.
func (c ExpenseCategory) Label() string {
	switch c {
	case CategoryVenue:
		return "Venue"
	case CategoryAlcohol:
		return "Alcohol"
	case CategoryFood:
		return "Food"
	case CategoryDecorations:
		return "Decorations"
	default:
		return "Other"
	}
}

// Normalize lowercases and trims a raw category, mapping anything unknown to CategoryOther.
func NormalizeCategory(raw string) ExpenseCategory {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Known() {
		return CategoryOther
	}
	return c
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpensePending, ExpenseApproved, ExpenseRejected:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ChapterID) == "" {
		return ErrMissingChapter
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return ErrUnknownExpenseState
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Status.Valid() {
		return ErrUnknownTaskStatus
	}
	return nil
}

// Complete reports whether every part of the identity triple is loaded.
func (id Identity) Complete() bool {
	return id.User != nil && id.Chapter != nil && id.Role != nil
}
