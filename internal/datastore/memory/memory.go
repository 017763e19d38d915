package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"
)

var _ datastore.Store = (*Store)(nil)

// Member links a user to a chapter and role in a seed file.
type Member struct {
	ChapterID string `json:"chapter_id"`
	RoleID    string `json:"role_id"`
}

// Store keeps every collection in process memory. It backs local runs and tests.
type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	users         map[string]core.User
	chapters      map[string]core.Chapter
	roles         map[string]core.Role
	members       map[string]Member
	budgets       []core.Budget
	expenses      []core.Expense
	events        []core.Event
	tasks         []core.Task
	notifications []core.Notification
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]core.User),
		chapters: make(map[string]core.Chapter),
		roles:    make(map[string]core.Role),
		members:  make(map[string]Member),
	}
}

// WithClock replaces the time source used for created_at defaults.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// Seed describes the JSON seed file layout.
type Seed struct {
	Users         []core.User         `json:"users"`
	Chapters      []core.Chapter      `json:"chapters"`
	Roles         []core.Role         `json:"roles"`
	Members       map[string]Member   `json:"members"`
	Budgets       []core.Budget       `json:"budgets"`
	Expenses      []core.Expense      `json:"expenses"`
	Events        []core.Event        `json:"events"`
	Tasks         []core.Task         `json:"tasks"`
	Notifications []core.Notification `json:"notifications"`
}

// ReadSeed returns base/seed.json when it exists and parses, otherwise the
// demo chapter anchored at now. The second result reports which one.
func ReadSeed(base string, now time.Time) (Seed, bool) {
	b, err := os.ReadFile(filepath.Join(base, "seed.json"))
	if err != nil {
		return demoSeed(now), false
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		slog.Warn("Ignoring unreadable seed file", "path", filepath.Join(base, "seed.json"), "error", err)
		return demoSeed(now), false
	}
	return seed, true
}

// NewFromFiles loads base/seed.json when present, otherwise a demo chapter.
func NewFromFiles(base string) *Store {
	s := New()
	seed, _ := ReadSeed(base, time.Now())
	s.Load(seed)
	return s
}

// Load merges seed rows into the store.
func (s *Store) Load(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range seed.Users {
		s.users[u.ID] = u
	}
	for _, c := range seed.Chapters {
		s.chapters[c.ID] = c
	}
	for _, r := range seed.Roles {
		s.roles[r.ID] = r
	}
	for uid, m := range seed.Members {
		s.members[uid] = m
	}
	s.budgets = append(s.budgets, seed.Budgets...)
	s.expenses = append(s.expenses, seed.Expenses...)
	s.events = append(s.events, seed.Events...)
	s.tasks = append(s.tasks, seed.Tasks...)
	s.notifications = append(s.notifications, seed.Notifications...)
}

// Ping always succeeds; it satisfies the readiness probe.
func (s *Store) Ping(context.Context) error { return nil }

// AddMember links a user to a chapter and role.
func (s *Store) AddMember(userID, chapterID, roleID string) {
	s.mu.Lock()
	s.members[userID] = Member{ChapterID: chapterID, RoleID: roleID}
	s.mu.Unlock()
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, datastore.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetChapter(_ context.Context, id string) (core.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chapters[id]
	if !ok {
		return core.Chapter{}, fmt.Errorf("chapter %s: %w", id, datastore.ErrNotFound)
	}
	return c, nil
}

func (s *Store) GetRole(_ context.Context, id string) (core.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return core.Role{}, fmt.Errorf("role %s: %w", id, datastore.ErrNotFound)
	}
	return r, nil
}

func (s *Store) Membership(_ context.Context, userID string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[userID]
	if !ok {
		return "", "", fmt.Errorf("membership of %s: %w", userID, datastore.ErrNotFound)
	}
	return m.ChapterID, m.RoleID, nil
}

func (s *Store) ListChapters(_ context.Context) ([]core.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Chapter, 0, len(s.chapters))
	for _, c := range s.chapters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) LatestBudget(_ context.Context, chapterID string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		latest core.Budget
		found  bool
	)
	for _, b := range s.budgets {
		if b.ChapterID != chapterID {
			continue
		}
		if !found || b.CreatedAt.After(latest.CreatedAt) {
			latest, found = b, true
		}
	}
	if !found {
		return core.Budget{}, fmt.Errorf("budget for chapter %s: %w", chapterID, datastore.ErrNotFound)
	}
	return latest, nil
}

func (s *Store) ListApprovedExpenses(_ context.Context, chapterID, budgetID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.ChapterID == chapterID && e.BudgetID == budgetID && e.Status == core.ExpenseApproved {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AddExpense appends an expense row, assigning an id when missing.
func (s *Store) AddExpense(e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) ListEvents(_ context.Context, chapterID string, from, to time.Time) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Event
	for _, ev := range s.events {
		if ev.ChapterID != chapterID {
			continue
		}
		if !from.IsZero() && ev.StartTime.Before(from) {
			continue
		}
		if !to.IsZero() && !ev.StartTime.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Store) ListTasks(_ context.Context, chapterID string) ([]core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Task
	for _, t := range s.tasks {
		if t.ChapterID == chapterID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) GetTask(_ context.Context, id string) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Task{}, fmt.Errorf("task %s: %w", id, datastore.ErrNotFound)
}

func (s *Store) UpdateTaskStatus(_ context.Context, id string, status core.TaskStatus) error {
	if !status.Valid() {
		return core.ErrUnknownTaskStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, datastore.ErrNotFound)
}

func (s *Store) ListNotifications(_ context.Context, userID string, limit int) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, datastore.ErrNotFound)
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (s *Store) CreateNotification(_ context.Context, n core.Notification) (string, error) {
	if n.UserID == "" {
		return "", fmt.Errorf("notification without user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, n)
	return n.ID, nil
}
