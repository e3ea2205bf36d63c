package postgres

import (
	"encoding/json"
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

	ID        string            `grove:"id,pk"`
	Name      string            `grove:"name"`
	Address   string            `grove:"address"`
	OwnerID   string            `grove:"owner_id"`
	Metadata  map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt time.Time         `grove:"created_at"`
	UpdatedAt time.Time         `grove:"updated_at"`
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

	ID         string    `grove:"id,pk"`
	DomicileID string    `grove:"domicile_id"`
	ExecutorID string    `grove:"executor_id"`
	HourlyRate int64     `grove:"hourly_rate"`
	Currency   string    `grove:"currency"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
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

	ID         string    `grove:"id,pk"`
	DomicileID string    `grove:"domicile_id"`
	Year       int       `grove:"year"`
	Month      int       `grove:"month"`
	Amount     int64     `grove:"amount"`
	Currency   string    `grove:"currency"`
	SetBy      string    `grove:"set_by"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
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

	ID                 string     `grove:"id,pk"`
	Title              string     `grove:"title"`
	Description        string     `grove:"description"`
	DomicileID         string     `grove:"domicile_id"`
	AssignedExecutorID string     `grove:"assigned_executor_id"`
	Status             string     `grove:"status"`
	PlannedStart       time.Time  `grove:"planned_start"`
	PlannedEnd         time.Time  `grove:"planned_end"`
	ActualStart        *time.Time `grove:"actual_start"`
	ActualEnd          *time.Time `grove:"actual_end"`
	TemplateID         string     `grove:"template_id"`
	CreatedBy          string     `grove:"created_by"`
	CreatedAt          time.Time  `grove:"created_at"`
	UpdatedAt          time.Time  `grove:"updated_at"`
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

	ID              string     `grove:"id,pk"`
	TaskID          string     `grove:"task_id"`
	DomicileID      string     `grove:"domicile_id"`
	ExecutorID      string     `grove:"executor_id"`
	StartTime       time.Time  `grove:"start_time"`
	EndTime         time.Time  `grove:"end_time"`
	DurationSeconds int64      `grove:"duration_seconds"`
	HoursWorked     float64    `grove:"hours_worked"`
	Status          string     `grove:"status"`
	Notes           string     `grove:"notes"`
	ValidatedBy     string     `grove:"validated_by"`
	ValidatedAt     *time.Time `grove:"validated_at"`
	CreatedAt       time.Time  `grove:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"`
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

// aggregateRow is one GROUP BY row of approved time.
type aggregateRow struct {
	DomicileID string `grove:"domicile_id"`
	ExecutorID string `grove:"executor_id"`
	Seconds    int64  `grove:"seconds"`
	Entries    int64  `grove:"entries"`
}

func fromAggregateRow(r *aggregateRow) (*timelog.Aggregate, error) {
	domID, err := id.ParseDomicileID(r.DomicileID)
	if err != nil {
		return nil, err
	}
	return &timelog.Aggregate{
		DomicileID: domID,
		ExecutorID: r.ExecutorID,
		Seconds:    r.Seconds,
		Entries:    r.Entries,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:steward_invoices"`

	ID           string     `grove:"id,pk"`
	Number       string     `grove:"invoice_number"`
	Period       string     `grove:"period"`
	Sequence     int64      `grove:"sequence"`
	DomicileID   string     `grove:"domicile_id"`
	ExecutorID   string     `grove:"executor_id"`
	PeriodStart  time.Time  `grove:"period_start"`
	PeriodEnd    time.Time  `grove:"period_end"`
	TotalSeconds int64      `grove:"total_seconds"`
	TotalHours   string     `grove:"total_hours"`
	EntryCount   int64      `grove:"entry_count"`
	Currency     string     `grove:"currency"`
	HourlyRate   int64      `grove:"hourly_rate"`
	TaxRate      string     `grove:"tax_rate"`
	Subtotal     int64      `grove:"subtotal"`
	TaxAmount    int64      `grove:"tax_amount"`
	Total        int64      `grove:"total"`
	Status       string     `grove:"status"`
	DueDate      time.Time  `grove:"due_date"`
	SentAt       *time.Time `grove:"sent_at"`
	PaidDate     *time.Time `grove:"paid_date"`
	CancelledAt  *time.Time `grove:"cancelled_at"`
	Notes        string     `grove:"notes"`
	CreatedBy    string     `grove:"created_by"`
	CreatedAt    time.Time  `grove:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"`
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

// ==================== Recurrence models ====================

type templateModel struct {
	grove.BaseModel `grove:"table:steward_recurrence_templates"`

	ID                       string          `grove:"id,pk"`
	OwnerID                  string          `grove:"owner_id"`
	Title                    string          `grove:"title"`
	Description              string          `grove:"description"`
	DomicileID               string          `grove:"domicile_id"`
	AssignedExecutorID       string          `grove:"assigned_executor_id"`
	Frequency                string          `grove:"frequency"`
	DaysOfWeek               json.RawMessage `grove:"days_of_week,type:jsonb"`
	PreferredStartTime       string          `grove:"preferred_start_time"`
	EstimatedDurationMinutes *int            `grove:"estimated_duration_minutes"`
	StartDate                time.Time       `grove:"start_date"`
	EndDate                  *time.Time      `grove:"end_date"`
	IsActive                 bool            `grove:"is_active"`
	LastGeneratedAt          *time.Time      `grove:"last_generated_at"`
	CreatedAt                time.Time       `grove:"created_at"`
	UpdatedAt                time.Time       `grove:"updated_at"`
}

func toTemplateModel(t *recurrence.Template) *templateModel {
	days, _ := json.Marshal(t.DaysOfWeek) //nolint:errcheck // []int always marshals

	return &templateModel{
		ID:                       t.ID.String(),
		OwnerID:                  t.OwnerID,
		Title:                    t.Title,
		Description:              t.Description,
		DomicileID:               t.DomicileID.String(),
		AssignedExecutorID:       t.AssignedExecutorID,
		Frequency:                string(t.Frequency),
		DaysOfWeek:               days,
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

	var days []int
	if len(m.DaysOfWeek) > 0 && string(m.DaysOfWeek) != "null" {
		if err := json.Unmarshal(m.DaysOfWeek, &days); err != nil {
			return nil, err
		}
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
		DaysOfWeek:               days,
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

	Key        string    `grove:"generation_key,pk"`
	TemplateID string    `grove:"template_id"`
	Date       string    `grove:"generation_date"`
	TaskID     string    `grove:"task_id"`
	CreatedAt  time.Time `grove:"created_at"`
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
