package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionTimeLogSubmitted = "timelog.submitted"
	ActionTimeLogApproved  = "timelog.approved"
	ActionTimeLogRejected  = "timelog.rejected"

	// Task actions
	ActionTaskCompleted  = "task.completed"
	ActionTasksGenerated = "tasks.generated"

	// Invoice actions
	ActionInvoiceGenerated = "invoice.generated"
	ActionInvoiceSent      = "invoice.sent"
	ActionInvoicePaid      = "invoice.paid"
	ActionInvoiceOverdue   = "invoice.overdue"
	ActionInvoiceCancelled = "invoice.cancelled"

	// Budget actions
	ActionBudgetThreshold = "budget.threshold"
)

// Resource constants for audit events.
const (
	ResourceTimeLog  = "timelog"
	ResourceTask     = "task"
	ResourceTemplate = "recurrence_template"
	ResourceInvoice  = "invoice"
	ResourceBudget   = "budget"
)

// Category constants for audit events.
const (
	CategoryLedger     = "ledger"
	CategoryScheduling = "scheduling"
	CategoryBilling    = "billing"
	CategoryPayment    = "payment"
	CategoryBudget     = "budget"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
