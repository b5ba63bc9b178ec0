package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldCategoryID   = "category_id"
	FieldCategoryCode = "category_code"
	FieldParentID     = "parent_id"
	FieldAccountKind  = "account_kind"
	FieldReportKind   = "report_kind"
	FieldWindowStart  = "window_start"
	FieldWindowEnd    = "window_end"
	FieldMovements    = "movements"
	FieldTotal        = "total"
	FieldSource       = "source"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentCategory  = "category"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)
