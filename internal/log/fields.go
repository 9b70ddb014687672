package log

// Attribute keys shared by every component.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldOperation = "operation"
	FieldEvent     = "event"
)

// HTTP access log keys.
const (
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
)

// Domain keys. Descriptions and emails are never logged.
const (
	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldDate          = "date"
)

const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentAuth        = "auth"
	ComponentTransaction = "transaction"
	ComponentSettings    = "settings"
	ComponentExport      = "export"
	ComponentNotifier    = "notifier"
	ComponentSecurity    = "security"
	ComponentRateLimit   = "rate_limit"
	ComponentBackend     = "backend"
	ComponentTemplate    = "template"
)

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRegister = "register"
	OpExport   = "export"
	OpRender   = "render"
)

// Error type values for FieldErrorType.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeForbidden     = "forbidden_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields accumulates key/value pairs in insertion order. Setting a key
// twice keeps the first position and the last value.
type LogFields struct {
	keys   []string
	values map[string]any
}

func NewFields() *LogFields {
	return &LogFields{values: make(map[string]any)}
}

func (f *LogFields) set(key string, v any) *LogFields {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
	return f
}

func (f *LogFields) WithComponent(component string) *LogFields {
	return f.set(FieldComponent, component)
}

func (f *LogFields) WithClientIP(ip string) *LogFields {
	return f.set(FieldClientIP, ip)
}

// WithError adds the error message; nil is ignored.
func (f *LogFields) WithError(err error) *LogFields {
	if err == nil {
		return f
	}
	return f.set(FieldError, err.Error())
}

func (f *LogFields) WithErrorType(t string) *LogFields {
	return f.set(FieldErrorType, t)
}

func (f *LogFields) WithOperation(op string) *LogFields {
	return f.set(FieldOperation, op)
}

func (f *LogFields) WithUser(userID int64) *LogFields {
	return f.set(FieldUserID, userID)
}

func (f *LogFields) WithTransaction(id, userID, amountCents int64, category, date string) *LogFields {
	return f.set(FieldTransactionID, id).
		set(FieldUserID, userID).
		set(FieldAmountCents, amountCents).
		set(FieldCategory, category).
		set(FieldDate, date)
}

// WithRequest adds method, path and query. userAgent is skipped when empty.
func (f *LogFields) WithRequest(method, path, query, userAgent string) *LogFields {
	f.set(FieldMethod, method).set(FieldPath, path).set(FieldQuery, query)
	if userAgent != "" {
		f.set(FieldUserAgent, userAgent)
	}
	return f
}

func (f *LogFields) WithResponse(statusCode int, durationMs int64) *LogFields {
	return f.set(FieldStatusCode, statusCode).
		set(FieldDuration, durationMs).
		set(FieldSuccess, statusCode < 400)
}

// Args returns the pairs in insertion order for slog.
func (f *LogFields) Args() []any {
	out := make([]any, 0, len(f.keys)*2)
	for _, k := range f.keys {
		out = append(out, k, f.values[k])
	}
	return out
}
