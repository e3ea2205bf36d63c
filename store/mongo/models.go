package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/recurrence"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
	"github.com/xraph/steward/types"
)

// ==================== Domicile models ====================

type domicileModel struct {
	grove.BaseModel `grove:"table:steward_domiciles"`

	ID        string            `grove:"id,pk" bson:"_id"`
	Name      string            `grove:"name" bson:"name"`
	Address   string            `grove:"address" bson:"address"`
	OwnerID   string            `grove:"owner_id" bson:"owner_id"`
	Metadata  map[string]string `grove:"metadata" bson:"metadata,omitempty"`
	CreatedAt time.Time         `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at" bson:"updated_at"`
}

func toDomicileModel(d *domicile.Domicile) *domicileModel {
	return &domicileModel{
		ID:        d.ID.String(),
		Name:      d.Name,
		Address:   d.Address,
		OwnerID:   d.OwnerID,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func fromDomicileModel(m *domicileModel) (*domicile.Domicile, error) {
	domID, err := id.ParseDomicileID(m.ID)
	if err != nil {
		return nil, err
	}
	return &domicile.Domicile{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:       domID,
		Name:     m.Name,
		Address:  m.Address,
		OwnerID:  m.OwnerID,
		Metadata: m.Metadata,
	}, nil
}

type rateModel struct {
	grove.BaseModel `grove:"table:steward_executor_rates"`

	ID         string    `grove:"id,pk" bson:"_id"`
	DomicileID string    `grove:"domicile_id" bson:"domicile_id"`
	ExecutorID string    `grove:"executor_id" bson:"executor_id"`
	HourlyRate int64     `grove:"hourly_rate" bson:"hourly_rate"`
	Currency   string    `grove:"currency" bson:"currency"`
	CreatedAt  time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at" bson:"updated_at"`
}

func toRateModel(r *domicile.ExecutorRate) *rateModel {
	return &rateModel{
		ID:         r.ID.String(),
		DomicileID: r.DomicileID.String(),
		ExecutorID: r.ExecutorID,
		HourlyRate: r.HourlyRate.Amount,
		Currency:   r.HourlyRate.Currency,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromRateModel(m *rateModel) (*domicile.ExecutorRate, error) {
	rateID, err := id.ParseRateID(m.ID)
	if err != nil {
		return nil, err
	}
	domID, err := id.ParseDomicileID(m.DomicileID)
	if err != nil {
		return nil, err
	}
	return &domicile.ExecutorRate{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         rateID,
		DomicileID: domID,
		ExecutorID: m.ExecutorID,
		HourlyRate: types.New(m.HourlyRate, m.Currency),
	}, nil
}

// ==================== Budget models ====================

type budgetModel struct {
	grove.BaseModel `grove:"table:steward_monthly_budgets"`

	ID         string    `grove:"id,pk" bson:"_id"`
	DomicileID string    `grove:"domicile_id" bson:"domicile_id"`
	Year       int       `grove:"year" bson:"year"`
	Month      int       `grove:"month" bson:"month"`
	Amount     int64     `grove:"amount" bson:"amount"`
	Currency   string    `grove:"currency" bson:"currency"`
	SetBy      string    `grove:"set_by" bson:"set_by"`
	CreatedAt  time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at" bson:"updated_at"`
}

func toBudgetModel(b *budget.MonthlyBudget) *budgetModel {
	return &budgetModel{
		ID:         b.ID.String(),
		DomicileID: b.DomicileID.String(),
		Year:       b.Year,
		Month:      b.Month,
		Amount:     b.Amount.Amount,
		Currency:   b.Amount.Currency,
		SetBy:      b.SetBy,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func fromBudgetModel(m *budgetModel) (*budget.MonthlyBudget, error) {
	budgetID, err := id.ParseBudgetID(m.ID)
	if err != nil {
		return nil, err
	}
	domID, err := id.ParseDomicileID(m.DomicileID)
	if err != nil {
		return nil, err
	}
	return &budget.MonthlyBudget{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         budgetID,
		DomicileID: domID,
		Year:       m.Year,
		Month:      m.Month,
		Amount:     types.New(m.Amount, m.Currency),
		SetBy:      m.SetBy,
	}, nil
}

// ==================== Task models ====================

type taskModel struct {
	grove.BaseModel `grove:"table:steward_tasks"`

	ID                 string     `grove:"id,pk" bson:"_id"`
	Title              string     `grove:"title" bson:"title"`
	Description        string     `grove:"description" bson:"description"`
	DomicileID         string     `grove:"domicile_id" bson:"domicile_id"`
	AssignedExecutorID string     `grove:"assigned_executor_id" bson:"assigned_executor_id"`
	Status             string     `grove:"status" bson:"status"`
	PlannedStart       time.Time  `grove:"planned_start" bson:"planned_start"`
	PlannedEnd         time.Time  `grove:"planned_end" bson:"planned_end"`
	ActualStart        *time.Time `grove:"actual_start" bson:"actual_start,omitempty"`
	ActualEnd          *time.Time `grove:"actual_end" bson:"actual_end,omitempty"`
	TemplateID         string     `grove:"template_id" bson:"template_id"`
	CreatedBy          string     `grove:"created_by" bson:"created_by"`
	CreatedAt          time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `grove:"updated_at" bson:"updated_at"`
}

func toTaskModel(t *task.Task) *taskModel {
	return &taskModel{
		ID:                 t.ID.String(),
		Title:              t.Title,
		Description:        t.Description,
		DomicileID:         t.DomicileID.String(),
		AssignedExecutorID: t.AssignedExecutorID,
		Status:             string(t.Status),
		PlannedStart:       t.PlannedStart,
		PlannedEnd:         t.PlannedEnd,
		ActualStart:        t.ActualStart,
		ActualEnd:          t.ActualEnd,
		TemplateID:         t.TemplateID.String(),
		CreatedBy:          t.CreatedBy,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func fromTaskModel(m *taskModel) (*task.Task, error) {
	taskID, err := id.ParseTaskID(m.ID)
	if err != nil {
		return nil, err
	}
	domID, err := id.ParseDomicileID(m.DomicileID)
	if err != nil {
		return nil, err
	}
	tplID, err := id.ParseOptional(m.TemplateID, id.PrefixTemplate)
	if err != nil {
		return nil, err
	}
	return &task.Task{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 taskID,
		Title:              m.Title,
		Description:        m.Description,
		DomicileID:         domID,
		AssignedExecutorID: m.AssignedExecutorID,
		Status:             task.Status(m.Status),
		PlannedStart:       m.PlannedStart,
		PlannedEnd:         m.PlannedEnd,
		ActualStart:        m.ActualStart,
		ActualEnd:          m.ActualEnd,
		TemplateID:         tplID,
		CreatedBy:          m.CreatedBy,
	}, nil
}

// ==================== Time log models ====================

type timeLogModel struct {
	grove.BaseModel `grove:"table:steward_time_logs"`

	ID              string     `grove:"id,pk" bson:"_id"`
	TaskID          string     `grove:"task_id" bson:"task_id"`
	DomicileID      string     `grove:"domicile_id" bson:"domicile_id"`
	ExecutorID      string     `grove:"executor_id" bson:"executor_id"`
	StartTime       time.Time  `grove:"start_time" bson:"start_time"`
	EndTime         time.Time  `grove:"end_time" bson:"end_time"`
	DurationSeconds int64      `grove:"duration_seconds" bson:"duration_seconds"`
	HoursWorked     float64    `grove:"hours_worked" bson:"hours_worked"`
	Status          string     `grove:"status" bson:"status"`
	Notes           string     `grove:"notes" bson:"notes"`
	ValidatedBy     string     `grove:"validated_by" bson:"validated_by"`
	ValidatedAt     *time.Time `grove:"validated_at" bson:"validated_at,omitempty"`
	CreatedAt       time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at" bson:"updated_at"`
}

func toTimeLogModel(e *timelog.Entry) *timeLogModel {
	return &timeLogModel{
		ID:              e.ID.String(),
		TaskID:          e.TaskID.String(),
		DomicileID:      e.DomicileID.String(),
		ExecutorID:      e.ExecutorID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationSeconds: e.DurationSeconds,
		HoursWorked:     e.HoursWorked,
		Status:          string(e.Status),
		Notes:           e.Notes,
		ValidatedBy:     e.ValidatedBy,
		ValidatedAt:     e.ValidatedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func fromTimeLogModel(m *timeLogModel) (*timelog.Entry, error) {
	entryID, err := id.ParseTimeLogID(m.ID)
	if err != nil {
		return nil, err
	}
	taskID, err := id.ParseTaskID(m.TaskID)
	if err != nil {
		return nil, err
	}
	domID, err := id.ParseDomicileID(m.DomicileID)
	if err != nil {
		return nil, err
	}
	return &timelog.Entry{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              entryID,
		TaskID:          taskID,
		DomicileID:      domID,
		ExecutorID:      m.ExecutorID,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		DurationSeconds: m.DurationSeconds,
		HoursWorked:     m.HoursWorked,
		Status:          timelog.Status(m.Status),
		Notes:           m.Notes,
		ValidatedBy:     m.ValidatedBy,
		ValidatedAt:     m.ValidatedAt,
	}, nil
}

// aggregateRow is one $group result of approved time.
type aggregateRow struct {
	Group struct {
		DomicileID string `bson:"domicile_id"`
		ExecutorID string `bson:"executor_id"`
	} `bson:"_id"`
	Seconds int64 `bson:"seconds"`
	Entries int64 `bson:"entries"`
}

func fromAggregateRow(r *aggregateRow) (*timelog.Aggregate, error) {
	domID, err := id.ParseDomicileID(r.Group.DomicileID)
	if err != nil {
		return nil, err
	}
	return &timelog.Aggregate{
		DomicileID: domID,
		ExecutorID: r.Group.ExecutorID,
		Seconds:    r.Seconds,
		Entries:    r.Entries,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:steward_invoices"`

	ID           string     `grove:"id,pk" bson:"_id"`
	Number       string     `grove:"invoice_number" bson:"invoice_number"`
	Period       string     `grove:"period" bson:"period"`
	Sequence     int64      `grove:"sequence" bson:"sequence"`
	DomicileID   string     `grove:"domicile_id" bson:"domicile_id"`
	ExecutorID   string     `grove:"executor_id" bson:"executor_id"`
	PeriodStart  time.Time  `grove:"period_start" bson:"period_start"`
	PeriodEnd    time.Time  `grove:"period_end" bson:"period_end"`
	TotalSeconds int64      `grove:"total_seconds" bson:"total_seconds"`
	TotalHours   string     `grove:"total_hours" bson:"total_hours"`
	EntryCount   int64      `grove:"entry_count" bson:"entry_count"`
	Currency     string     `grove:"currency" bson:"currency"`
	HourlyRate   int64      `grove:"hourly_rate" bson:"hourly_rate"`
	TaxRate      string     `grove:"tax_rate" bson:"tax_rate"`
	Subtotal     int64      `grove:"subtotal" bson:"subtotal"`
	TaxAmount    int64      `grove:"tax_amount" bson:"tax_amount"`
	Total        int64      `grove:"total" bson:"total"`
	Status       string     `grove:"status" bson:"status"`
	DueDate      time.Time  `grove:"due_date" bson:"due_date"`
	SentAt       *time.Time `grove:"sent_at" bson:"sent_at,omitempty"`
	PaidDate     *time.Time `grove:"paid_date" bson:"paid_date,omitempty"`
	CancelledAt  *time.Time `grove:"cancelled_at" bson:"cancelled_at,omitempty"`
	Notes        string     `grove:"notes" bson:"notes"`
	CreatedBy    string     `grove:"created_by" bson:"created_by"`
	CreatedAt    time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at" bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:           inv.ID.String(),
		Number:       inv.Number,
		Period:       inv.Period,
		Sequence:     inv.Sequence,
		DomicileID:   inv.DomicileID.String(),
		ExecutorID:   inv.ExecutorID,
		PeriodStart:  inv.PeriodStart,
		PeriodEnd:    inv.PeriodEnd,
		TotalSeconds: inv.TotalSeconds,
		TotalHours:   inv.TotalHours.String(),
		EntryCount:   inv.EntryCount,
		Currency:     inv.Total.Currency,
		HourlyRate:   inv.HourlyRate.Amount,
		TaxRate:      inv.TaxRate.String(),
		Subtotal:     inv.Subtotal.Amount,
		TaxAmount:    inv.TaxAmount.Amount,
		Total:        inv.Total.Amount,
		Status:       string(inv.Status),
		DueDate:      inv.DueDate,
		SentAt:       inv.SentAt,
		PaidDate:     inv.PaidDate,
		CancelledAt:  inv.CancelledAt,
		Notes:        inv.Notes,
		CreatedBy:    inv.CreatedBy,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	domID, err := id.ParseDomicileID(m.DomicileID)
	if err != nil {
		return nil, err
	}
	hours, err := decimal.NewFromString(m.TotalHours)
	if err != nil {
		return nil, err
	}
	taxRate, err := decimal.NewFromString(m.TaxRate)
	if err != nil {
		return nil, err
	}
	return &invoice.Invoice{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           invID,
		Number:       m.Number,
		Period:       m.Period,
		Sequence:     m.Sequence,
		DomicileID:   domID,
		ExecutorID:   m.ExecutorID,
		PeriodStart:  m.PeriodStart,
		PeriodEnd:    m.PeriodEnd,
		TotalSeconds: m.TotalSeconds,
		TotalHours:   hours,
		EntryCount:   m.EntryCount,
		HourlyRate:   types.New(m.HourlyRate, m.Currency),
		TaxRate:      taxRate,
		Subtotal:     types.New(m.Subtotal, m.Currency),
		TaxAmount:    types.New(m.TaxAmount, m.Currency),
		Total:        types.New(m.Total, m.Currency),
		Status:       invoice.Status(m.Status),
		DueDate:      m.DueDate,
		SentAt:       m.SentAt,
		PaidDate:     m.PaidDate,
		CancelledAt:  m.CancelledAt,
		Notes:        m.Notes,
		CreatedBy:    m.CreatedBy,
	}, nil
}

// sequenceDoc is a per-period invoice counter.
type sequenceDoc struct {
	Period string `bson:"_id"`
	Value  int64  `bson:"value"`
}

// ==================== Recurrence models ====================

type templateModel struct {
	grove.BaseModel `grove:"table:steward_recurrence_templates"`

	ID                       string     `grove:"id,pk" bson:"_id"`
	OwnerID                  string     `grove:"owner_id" bson:"owner_id"`
	Title                    string     `grove:"title" bson:"title"`
	Description              string     `grove:"description" bson:"description"`
	DomicileID               string     `grove:"domicile_id" bson:"domicile_id"`
	AssignedExecutorID       string     `grove:"assigned_executor_id" bson:"assigned_executor_id"`
	Frequency                string     `grove:"frequency" bson:"frequency"`
	DaysOfWeek               []int      `grove:"days_of_week" bson:"days_of_week"`
	PreferredStartTime       string     `grove:"preferred_start_time" bson:"preferred_start_time"`
	EstimatedDurationMinutes *int       `grove:"estimated_duration_minutes" bson:"estimated_duration_minutes,omitempty"`
	StartDate                time.Time  `grove:"start_date" bson:"start_date"`
	EndDate                  *time.Time `grove:"end_date" bson:"end_date,omitempty"`
	IsActive                 bool       `grove:"is_active" bson:"is_active"`
	LastGeneratedAt          *time.Time `grove:"last_generated_at" bson:"last_generated_at,omitempty"`
	CreatedAt                time.Time  `grove:"created_at" bson:"created_at"`
	UpdatedAt                time.Time  `grove:"updated_at" bson:"updated_at"`
}

func toTemplateModel(t *recurrence.Template) *templateModel {
	return &templateModel{
		ID:                       t.ID.String(),
		OwnerID:                  t.OwnerID,
		Title:                    t.Title,
		Description:              t.Description,
		DomicileID:               t.DomicileID.String(),
		AssignedExecutorID:       t.AssignedExecutorID,
		Frequency:                string(t.Frequency),
		DaysOfWeek:               append([]int(nil), t.DaysOfWeek...),
		PreferredStartTime:       t.PreferredStartTime,
		EstimatedDurationMinutes: t.EstimatedDurationMinutes,
		StartDate:                t.StartDate,
		EndDate:                  t.EndDate,
		IsActive:                 t.IsActive,
		LastGeneratedAt:          t.LastGeneratedAt,
		CreatedAt:                t.CreatedAt,
		UpdatedAt:                t.UpdatedAt,
	}
}

func fromTemplateModel(m *templateModel) (*recurrence.Template, error) {
	tplID, err := id.ParseTemplateID(m.ID)
	if err != nil {
		return nil, err
	}
	domID, err := id.ParseDomicileID(m.DomicileID)
	if err != nil {
		return nil, err
	}

	return &recurrence.Template{
		Entity:                   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                       tplID,
		OwnerID:                  m.OwnerID,
		Title:                    m.Title,
		Description:              m.Description,
		DomicileID:               domID,
		AssignedExecutorID:       m.AssignedExecutorID,
		Frequency:                recurrence.Frequency(m.Frequency),
		DaysOfWeek:               m.DaysOfWeek,
		PreferredStartTime:       m.PreferredStartTime,
		EstimatedDurationMinutes: m.EstimatedDurationMinutes,
		StartDate:                m.StartDate,
		EndDate:                  m.EndDate,
		IsActive:                 m.IsActive,
		LastGeneratedAt:          m.LastGeneratedAt,
	}, nil
}

type generationModel struct {
	grove.BaseModel `grove:"table:steward_recurrence_generations"`

	Key        string    `grove:"generation_key,pk" bson:"_id"`
	TemplateID string    `grove:"template_id" bson:"template_id"`
	Date       string    `grove:"generation_date" bson:"generation_date"`
	TaskID     string    `grove:"task_id" bson:"task_id"`
	CreatedAt  time.Time `grove:"created_at" bson:"created_at"`
}

func toGenerationModel(g *recurrence.Generation) *generationModel {
	return &generationModel{
		Key:        g.Key.String(),
		TemplateID: g.Key.TemplateID.String(),
		Date:       g.Key.Date,
		TaskID:     g.TaskID.String(),
		CreatedAt:  g.CreatedAt,
	}
}
