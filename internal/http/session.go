package http

import (
	"sync"
	"time"

	"chapterhub/internal/cache"
	"chapterhub/internal/core"
	"chapterhub/internal/services"
)

// session is the per-user view state: the scheduler cursor and the loaded
// task and notification lists. It lives in an LRU cache, so an idle user
// starts over.
type session struct {
	mu        sync.Mutex
	chapterID string
	scheduler core.SchedulerState

	tasks *services.TaskBoard
	feed  *services.NotificationFeed
}

// Scheduler applies fn to the scheduler state and returns the result.
func (s *session) Scheduler(fn func(core.SchedulerState) core.SchedulerState) core.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.scheduler = fn(s.scheduler)
	}
	return s.scheduler
}

type sessionStore struct {
	mu        sync.Mutex
	cache     *cache.LRUCache[*session]
	newTasks  func() *services.TaskBoard
	newFeed   func(userID string) *services.NotificationFeed
	weekStart time.Weekday
	now       func() time.Time
}

func newSessionStore(size int, ttl time.Duration, weekStart time.Weekday, now func() time.Time,
	newTasks func() *services.TaskBoard, newFeed func(string) *services.NotificationFeed) *sessionStore {
	return &sessionStore{
		cache:     cache.NewLRUCache[*session](size, ttl),
		newTasks:  newTasks,
		newFeed:   newFeed,
		weekStart: weekStart,
		now:       now,
	}
}

// get returns the session of id's user, creating it on first use. A chapter
// change since the last request resets the task board and the calendar so
// in-flight loads for the old chapter are discarded. id.User must be set.
func (st *sessionStore) get(id core.Identity) *session {
	userID := id.User.ID

	st.mu.Lock()
	sess, ok := st.cache.Get(userID)
	if !ok {
		sess = &session{
			scheduler: core.NewSchedulerState(st.now(), st.weekStart),
			tasks:     st.newTasks(),
			feed:      st.newFeed(userID),
		}
		st.cache.Set(userID, sess)
	}
	st.mu.Unlock()

	var chapterID string
	if id.Chapter != nil {
		chapterID = id.Chapter.ID
	}

	sess.mu.Lock()
	if sess.chapterID != chapterID {
		sess.chapterID = chapterID
		sess.scheduler = core.NewSchedulerState(st.now(), st.weekStart)
		sess.tasks.Reset()
	}
	sess.mu.Unlock()
	return sess
}
