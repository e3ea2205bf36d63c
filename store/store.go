// Package store defines the persistence gateway Steward runs on.
package store

import (
	"context"

	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/recurrence"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

// Store is the unified storage interface for all Steward entities.
// Methods are declared explicitly instead of embedding the per-entity
// interfaces, whose names collide.
type Store interface {
	// Domicile methods
	CreateDomicile(ctx context.Context, d *domicile.Domicile) error
	GetDomicile(ctx context.Context, domicileID id.DomicileID) (*domicile.Domicile, error)
	ListDomiciles(ctx context.Context, ownerID string) ([]*domicile.Domicile, error)
	SetExecutorRate(ctx context.Context, r *domicile.ExecutorRate) error
	GetExecutorRate(ctx context.Context, domicileID id.DomicileID, executorID string) (*domicile.ExecutorRate, error)

	// Budget methods
	UpsertBudget(ctx context.Context, b *budget.MonthlyBudget) error
	GetBudget(ctx context.Context, domicileID id.DomicileID, year, month int) (*budget.MonthlyBudget, error)

	// Task methods
	CreateTask(ctx context.Context, t *task.Task) error
	GetTask(ctx context.Context, taskID id.TaskID) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	ListTasks(ctx context.Context, opts task.ListOpts) ([]*task.Task, error)

	// Time log methods
	CreateTimeLog(ctx context.Context, e *timelog.Entry) error
	GetTimeLog(ctx context.Context, entryID id.TimeLogID) (*timelog.Entry, error)
	UpdateTimeLog(ctx context.Context, e *timelog.Entry) error
	DeleteTimeLog(ctx context.Context, entryID id.TimeLogID) error
	ListTimeLogs(ctx context.Context, opts timelog.ListOpts) ([]*timelog.Entry, error)
	SumTimeLogs(ctx context.Context, opts timelog.ListOpts) ([]*timelog.Aggregate, error)
	CountTimeLogTasks(ctx context.Context, opts timelog.ListOpts) (int64, error)

	// Invoice methods
	CreateInvoice(ctx context.Context, inv *invoice.Invoice) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error
	DeleteInvoice(ctx context.Context, invID id.InvoiceID) error
	ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error)
	NextInvoiceSequence(ctx context.Context, period string) (int64, error)

	// Recurrence methods
	CreateTemplate(ctx context.Context, t *recurrence.Template) error
	GetTemplate(ctx context.Context, templateID id.TemplateID) (*recurrence.Template, error)
	UpdateTemplate(ctx context.Context, t *recurrence.Template) error
	ListTemplates(ctx context.Context, opts recurrence.ListOpts) ([]*recurrence.Template, error)
	ClaimGeneration(ctx context.Context, g *recurrence.Generation) (bool, error)
	ReleaseGeneration(ctx context.Context, key recurrence.Key) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Transactor is implemented by stores that can run a unit of work
// atomically. The engine wraps every mutating operation in RunInTx when the
// store provides it.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
