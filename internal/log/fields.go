package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldReferer        = "referer"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldUserID         = "user_id"
	FieldChapterID      = "chapter_id"
	FieldPanel          = "panel"
	FieldTaskID         = "task_id"
	FieldTaskStatus     = "task_status"
	FieldNotificationID = "notification_id"
)

// Components defines standard component names
const (
	ComponentApp           = "app"
	ComponentHTTP          = "http"
	ComponentBudget        = "budget"
	ComponentScheduler     = "scheduler"
	ComponentTasks         = "tasks"
	ComponentNotifications = "notifications"
	ComponentIdentity      = "identity"
	ComponentStorage       = "storage"
	ComponentAMQP          = "amqp"
	ComponentWorker        = "worker"
	ComponentSheets        = "sheets"
	ComponentCache         = "cache"
	ComponentSecurity      = "security"
	ComponentRateLimit     = "rate_limit"
	ComponentTrace         = "trace"
	ComponentBackend       = "backend"
	ComponentTemplate      = "template"
)

// Operations defines standard operation names
const (
	OpRead     = "read"
	OpUpdate   = "update"
	OpList     = "list"
	OpCycle    = "cycle"
	OpMarkRead = "mark_read"
	OpExport   = "export"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; nil errors add nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithIdentity adds the user and chapter ids, skipping empty ones.
func (f LogFields) WithIdentity(userID, chapterID string) LogFields {
	if userID != "" {
		f[FieldUserID] = userID
	}
	if chapterID != "" {
		f[FieldChapterID] = chapterID
	}
	return f
}

func (f LogFields) WithPanel(panel string) LogFields {
	f[FieldPanel] = panel
	return f
}

func (f LogFields) WithTask(id, status string) LogFields {
	f[FieldTaskID] = id
	f[FieldTaskStatus] = status
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to key/value pairs for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
