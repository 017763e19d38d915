package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"chapterhub/internal/cache"
	"chapterhub/internal/datastore"
	"chapterhub/internal/identity"
	"chapterhub/internal/log"
	"chapterhub/internal/middleware/ratelimit"
	"chapterhub/internal/middleware/security"
	"chapterhub/internal/middleware/trace"
	"chapterhub/internal/services"
	appweb "chapterhub/web"
)

const (
	defaultRequestTimeout = 7 * time.Second
	sessionCacheSize      = 1024
	sessionTTL            = 30 * time.Minute
	cacheCleanupInterval  = 10 * time.Minute
)

// Deps are the collaborators the server is built from. Store is required;
// everything else has a usable default.
type Deps struct {
	Store datastore.Store
	// Ready is probed by /readyz, e.g. a database ping.
	Ready     func(context.Context) error
	Resolver  *identity.Resolver
	Publisher services.ActivityPublisher

	DefaultUserID  string
	WeekStart      time.Weekday
	Location       *time.Location
	RequestTimeout time.Duration
	WriteRateLimit int
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	ready     func(context.Context) error
	resolver  *identity.Resolver
	budget    *services.BudgetService
	scheduler *services.SchedulerService
	sessions  *sessionStore

	caches  *cache.Manager
	limiter *ratelimit.Limiter
	trace   *trace.Middleware

	weekStart time.Weekday
	loc       *time.Location
	timeout   time.Duration
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = identity.NewResolver(deps.Store, 256, 5*time.Minute)
	}

	s := &Server{
		logger:    logger,
		ready:     deps.Ready,
		resolver:  resolver,
		budget:    services.NewBudgetService(deps.Store, deps.Store),
		scheduler: services.NewSchedulerService(deps.Store),
		caches:    cache.NewManager(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.WriteRateLimit}),
		trace:     trace.NewMiddleware(extractClientIP, logger.WithComponent(log.ComponentTrace)),
		weekStart: deps.WeekStart,
		loc:       loc,
		timeout:   timeout,
		started:   time.Now(),
	}

	writer := services.NewTaskStatusWriter(deps.Store, deps.Publisher)
	s.sessions = newSessionStore(sessionCacheSize, sessionTTL, deps.WeekStart, s.now,
		func() *services.TaskBoard { return services.NewTaskBoard(deps.Store, writer.Handle) },
		func(userID string) *services.NotificationFeed { return services.NewNotificationFeed(deps.Store, userID) },
	)

	s.caches.Register(resolver.Cache())
	s.caches.Register(s.sessions.cache)
	s.caches.StartCleanup(cacheCleanupInterval)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err, log.FieldComponent, log.ComponentTemplate)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /{$}", s.handleDashboard)

	// UI partials
	mux.HandleFunc("GET /ui/onboarding", s.handleOnboardingPanel)
	mux.HandleFunc("GET /ui/budget", s.handleBudgetPanel)
	mux.HandleFunc("GET /ui/calendar", s.handleCalendarPanel)
	mux.HandleFunc("GET /ui/tasks", s.handleTasksPanel)
	mux.HandleFunc("GET /ui/notifications", s.handleNotificationsPanel)

	// JSON reads
	mux.HandleFunc("GET /api/budget", s.handleAPIBudget)
	mux.HandleFunc("GET /api/events", s.handleAPIEvents)
	mux.HandleFunc("GET /api/tasks", s.handleAPITasks)
	mux.HandleFunc("GET /api/notifications", s.handleAPINotifications)

	// Mutations are rate limited per client.
	limit := s.limiter.Middleware(extractClientIP, s.onRateLimited)
	mux.Handle("POST /api/tasks/{id}/cycle", limit(http.HandlerFunc(s.handleCycleTask)))
	mux.Handle("POST /api/notifications/{id}/read", limit(http.HandlerFunc(s.handleMarkNotificationRead)))
	mux.Handle("POST /api/notifications/read-all", limit(http.HandlerFunc(s.handleMarkAllNotificationsRead)))

	var handler http.Handler = mux
	handler = identity.Middleware(resolver, deps.DefaultUserID)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()

		shutdownErr = s.Server.Shutdown(ctx)

		s.logger.Info("HTTP server stopped",
			log.FieldOperation, log.OpShutdown,
			"requests", s.trace.GetMetrics(),
			"rate_limited", s.limiter.GetMetrics().TotalHits)
	})

	return shutdownErr
}

// eventsFor logs through the request-scoped logger, so entries carry the request id.
func (s *Server) eventsFor(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx))
}

func (s *Server) now() time.Time {
	return time.Now().In(s.loc)
}

// withTimeout bounds every data-store call made while serving r.
func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r),
		log.FieldPath, r.URL.Path,
		log.FieldComponent, log.ComponentRateLimit)
	respondError(w, r, http.StatusTooManyRequests, "Too many changes. Please wait a moment.")
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["store"] = "not_checked"
	default:
		if err := s.ready(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	hits, misses := s.resolver.Cache().Stats()
	checks["identity_cache"] = map[string]any{
		"entries": s.resolver.Cache().Size(),
		"hits":    hits,
		"misses":  misses,
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
	}

	NewHTMXResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// render executes a named template into a buffer so a failure never leaves
// a half-written response. b carries status and triggers; nil means 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any, b *HTMXResponseBuilder) {
	if b == nil {
		b = NewHTMXResponse()
	}
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path, log.FieldComponent, log.ComponentTemplate)
		InternalServerError("Templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldComponent, log.ComponentTemplate)
		InternalServerError("Could not render this panel").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}
