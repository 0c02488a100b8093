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
	FieldOperation  = "operation"

	FieldUserID        = "user_id"
	FieldDate          = "date"
	FieldDays          = "days"
	FieldTimezone      = "timezone"
	FieldCurrency      = "currency_code"
	FieldAmountCents   = "amount_cents"
	FieldSpentCents    = "spent_cents"
	FieldRolloverCents = "rollover_cents"
	FieldTransactionID = "transaction_id"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentLedger = "ledger"
	ComponentWorker = "worker"
)

// Operations defines standard operation names
const (
	OpHistory  = "history"
	OpSnapshot = "snapshot"
	OpCloseDay = "close_day"
	OpRefresh  = "refresh"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
