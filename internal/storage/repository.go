package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"chapterhub/internal/core"
	"chapterhub/internal/datastore"

	_ "modernc.org/sqlite"
)

var _ datastore.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// notFound maps sql.ErrNoRows to datastore.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, datastore.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Identity

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, tier, status) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, string(u.Tier), u.Status)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	var tier string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, tier, status FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &tier, &u.Status)
	if err != nil {
		return core.User{}, notFound(err, "get user "+id)
	}
	u.Tier = core.Tier(tier)
	return u, nil
}

func (r *SQLiteRepository) CreateChapter(ctx context.Context, c core.Chapter) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chapters (id, school_name, fraternity_name, chapter_code) VALUES (?, ?, ?, ?)`,
		c.ID, c.SchoolName, c.FraternityName, c.ChapterCode)
	if err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetChapter(ctx context.Context, id string) (core.Chapter, error) {
	var c core.Chapter
	err := r.db.QueryRowContext(ctx,
		`SELECT id, school_name, fraternity_name, chapter_code FROM chapters WHERE id = ?`, id).
		Scan(&c.ID, &c.SchoolName, &c.FraternityName, &c.ChapterCode)
	if err != nil {
		return core.Chapter{}, notFound(err, "get chapter "+id)
	}
	return c, nil
}

func (r *SQLiteRepository) ListChapters(ctx context.Context) ([]core.Chapter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, school_name, fraternity_name, chapter_code FROM chapters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var out []core.Chapter
	for rows.Next() {
		var c core.Chapter
		if err := rows.Scan(&c.ID, &c.SchoolName, &c.FraternityName, &c.ChapterCode); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateRole(ctx context.Context, role core.Role) error {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, permissions) VALUES (?, ?, ?)`, role.ID, role.Name, string(perms))
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRole(ctx context.Context, id string) (core.Role, error) {
	var role core.Role
	var perms string
	err := r.db.QueryRowContext(ctx, `SELECT id, name, permissions FROM roles WHERE id = ?`, id).
		Scan(&role.ID, &role.Name, &perms)
	if err != nil {
		return core.Role{}, notFound(err, "get role "+id)
	}
	if err := json.Unmarshal([]byte(perms), &role.Permissions); err != nil {
		return core.Role{}, fmt.Errorf("decode permissions of role %s: %w", id, err)
	}
	return role, nil
}

func (r *SQLiteRepository) AddMember(ctx context.Context, userID, chapterID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (user_id, chapter_id, role_id) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET chapter_id = excluded.chapter_id, role_id = excluded.role_id`,
		userID, chapterID, roleID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Membership(ctx context.Context, userID string) (string, string, error) {
	var chapterID, roleID string
	err := r.db.QueryRowContext(ctx, `SELECT chapter_id, role_id FROM members WHERE user_id = ?`, userID).
		Scan(&chapterID, &roleID)
	if err != nil {
		return "", "", notFound(err, "membership of "+userID)
	}
	return chapterID, roleID, nil
}

// Budget and expenses

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, chapter_id, period_label, total_budget_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.ChapterID, b.PeriodLabel, b.Total.Cents, toUnix(b.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("create budget: %w", err)
	}
	return b.ID, nil
}

func (r *SQLiteRepository) LatestBudget(ctx context.Context, chapterID string) (core.Budget, error) {
	var b core.Budget
	var created int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, chapter_id, period_label, total_budget_cents, created_at
		 FROM budgets WHERE chapter_id = ? ORDER BY created_at DESC LIMIT 1`, chapterID).
		Scan(&b.ID, &b.ChapterID, &b.PeriodLabel, &b.Total.Cents, &created)
	if err != nil {
		return core.Budget{}, notFound(err, "latest budget of chapter "+chapterID)
	}
	b.CreatedAt = fromUnix(created)
	return b, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, budget_id, chapter_id, description, amount_cents, category, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BudgetID, e.ChapterID, e.Description, e.Amount.Cents, string(e.Category), string(e.Status), toUnix(e.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"chapter_id", e.ChapterID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"status", e.Status)
	return e.ID, nil
}

func (r *SQLiteRepository) ListApprovedExpenses(ctx context.Context, chapterID, budgetID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, budget_id, chapter_id, description, amount_cents, category, status, created_at
		 FROM expenses
		 WHERE chapter_id = ? AND status = 'approved' AND budget_id = ?
		 ORDER BY created_at DESC`, chapterID, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list approved expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		var category, status string
		var created int64
		if err := rows.Scan(&e.ID, &e.BudgetID, &e.ChapterID, &e.Description, &e.Amount.Cents, &category, &status, &created); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Category = core.ExpenseCategory(category)
		e.Status = core.ExpenseStatus(status)
		e.CreatedAt = fromUnix(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Events

func (r *SQLiteRepository) CreateEvent(ctx context.Context, ev core.Event) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, chapter_id, title, start_time, status, attendees, capacity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ChapterID, ev.Title, toUnix(ev.StartTime), string(ev.Status), ev.Attendees, ev.Capacity)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return ev.ID, nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, chapterID string, from, to time.Time) ([]core.Event, error) {
	query := `SELECT id, chapter_id, title, start_time, status, attendees, capacity FROM events WHERE chapter_id = ?`
	args := []any{chapterID}
	if !from.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, toUnix(from))
	}
	if !to.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, toUnix(to))
	}
	query += ` ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var ev core.Event
		var start int64
		var status string
		if err := rows.Scan(&ev.ID, &ev.ChapterID, &ev.Title, &start, &status, &ev.Attendees, &ev.Capacity); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.StartTime = fromUnix(start)
		ev.Status = core.EventStatus(status)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Tasks

func (r *SQLiteRepository) CreateTask(ctx context.Context, t core.Task) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, chapter_id, assignee_id, title, status, priority, due_date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ChapterID, t.AssigneeID, t.Title, string(t.Status), t.Priority, toUnix(t.DueDate))
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return t.ID, nil
}

const taskColumns = `id, chapter_id, assignee_id, title, status, priority, due_date`

func scanTask(row interface{ Scan(...any) error }) (core.Task, error) {
	var t core.Task
	var status string
	var due int64
	if err := row.Scan(&t.ID, &t.ChapterID, &t.AssigneeID, &t.Title, &status, &t.Priority, &due); err != nil {
		return core.Task{}, err
	}
	t.Status = core.TaskStatus(status)
	t.DueDate = fromUnix(due)
	return t, nil
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, chapterID string) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE chapter_id = ? ORDER BY due_date, id`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (core.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return core.Task{}, notFound(err, "get task "+id)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTaskStatus(ctx context.Context, id string, status core.TaskStatus) error {
	if !status.Valid() {
		return core.ErrUnknownTaskStatus
	}
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s: %w", id, datastore.ErrNotFound)
	}
	slog.InfoContext(ctx, "Task status updated", "id", id, "status", status)
	return nil
}

// Notifications

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (string, error) {
	if n.UserID == "" {
		return "", errors.New("notification without user")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	if n.Type == "" {
		n.Type = "system"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, message, type, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Message, n.Type, n.IsRead, toUnix(n.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("create notification: %w", err)
	}
	return n.ID, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, message, type, is_read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		var created int64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &created); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.CreatedAt = fromUnix(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("notification %s: %w", id, datastore.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Notifications marked read", "user_id", userID, "rows", n)
	return nil
}
