package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Steward store (SQLite).
var Migrations = migrate.NewGroup("steward")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_steward_domiciles",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_domiciles (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    address     TEXT NOT NULL DEFAULT '',
    owner_id    TEXT NOT NULL,
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_steward_domiciles_owner ON steward_domiciles (owner_id, name);

CREATE TABLE IF NOT EXISTS steward_executor_rates (
    id           TEXT PRIMARY KEY,
    domicile_id  TEXT NOT NULL REFERENCES steward_domiciles (id) ON DELETE CASCADE,
    executor_id  TEXT NOT NULL,
    hourly_rate  INTEGER NOT NULL,
    currency     TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_steward_rates_pair ON steward_executor_rates (domicile_id, executor_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS steward_executor_rates;
DROP TABLE IF EXISTS steward_domiciles;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_steward_monthly_budgets",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_monthly_budgets (
    id           TEXT PRIMARY KEY,
    domicile_id  TEXT NOT NULL REFERENCES steward_domiciles (id) ON DELETE CASCADE,
    year         INTEGER NOT NULL,
    month        INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    amount       INTEGER NOT NULL CHECK (amount >= 0),
    currency     TEXT NOT NULL,
    set_by       TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_steward_budgets_month ON steward_monthly_budgets (domicile_id, year, month);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_monthly_budgets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_steward_tasks",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_tasks (
    id                    TEXT PRIMARY KEY,
    title                 TEXT NOT NULL,
    description           TEXT NOT NULL DEFAULT '',
    domicile_id           TEXT NOT NULL REFERENCES steward_domiciles (id),
    assigned_executor_id  TEXT NOT NULL,
    status                TEXT NOT NULL DEFAULT 'TODO',
    planned_start         TEXT NOT NULL,
    planned_end           TEXT NOT NULL,
    actual_start          TEXT,
    actual_end            TEXT,
    template_id           TEXT NOT NULL DEFAULT '',
    created_by            TEXT NOT NULL DEFAULT '',
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_steward_tasks_domicile ON steward_tasks (domicile_id, planned_start);
CREATE INDEX IF NOT EXISTS idx_steward_tasks_executor ON steward_tasks (assigned_executor_id, planned_start);
CREATE INDEX IF NOT EXISTS idx_steward_tasks_template ON steward_tasks (template_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_tasks`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_steward_time_logs",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_time_logs (
    id                TEXT PRIMARY KEY,
    task_id           TEXT NOT NULL REFERENCES steward_tasks (id),
    domicile_id       TEXT NOT NULL,
    executor_id       TEXT NOT NULL,
    start_time        TEXT NOT NULL,
    end_time          TEXT NOT NULL CHECK (end_time > start_time),
    duration_seconds  INTEGER NOT NULL,
    hours_worked      REAL NOT NULL,
    status            TEXT NOT NULL DEFAULT 'PENDING',
    notes             TEXT NOT NULL DEFAULT '',
    validated_by      TEXT NOT NULL DEFAULT '',
    validated_at      TEXT,
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_steward_time_logs_task ON steward_time_logs (task_id);
CREATE INDEX IF NOT EXISTS idx_steward_time_logs_status ON steward_time_logs (status, domicile_id, executor_id, start_time);
CREATE INDEX IF NOT EXISTS idx_steward_time_logs_executor ON steward_time_logs (executor_id, start_time);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS steward_time_logs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_steward_invoices",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_invoices (
    id              TEXT PRIMARY KEY,
    invoice_number  TEXT NOT NULL,
    period          TEXT NOT NULL,
    sequence        INTEGER NOT NULL,
    domicile_id     TEXT NOT NULL REFERENCES steward_domiciles (id),
    executor_id     TEXT NOT NULL,
    period_start    TEXT NOT NULL,
    period_end      TEXT NOT NULL,
    total_seconds   INTEGER NOT NULL DEFAULT 0,
    total_hours     TEXT NOT NULL DEFAULT '0',
    entry_count     INTEGER NOT NULL DEFAULT 0,
    currency        TEXT NOT NULL,
    hourly_rate     INTEGER NOT NULL,
    tax_rate        TEXT NOT NULL,
    subtotal        INTEGER NOT NULL,
    tax_amount      INTEGER NOT NULL,
    total           INTEGER NOT NULL,
    status          TEXT NOT NULL DEFAULT 'DRAFT',
    due_date        TEXT NOT NULL,
    sent_at         TEXT,
    paid_date       TEXT,
    cancelled_at    TEXT,
    notes           TEXT NOT NULL DEFAULT '',
    created_by      TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_steward_invoices_number ON steward_invoices (invoice_number);
CREATE INDEX IF NOT EXISTS idx_steward_invoices_domicile ON steward_invoices (domicile_id, status);
CREATE INDEX IF NOT EXISTS idx_steward_invoices_due ON steward_invoices (status, due_date);

CREATE TABLE IF NOT EXISTS steward_invoice_sequences (
    period  TEXT PRIMARY KEY,
    value   INTEGER NOT NULL
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS steward_invoice_sequences;
DROP TABLE IF EXISTS steward_invoices;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_steward_recurrence",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS steward_recurrence_templates (
    id                          TEXT PRIMARY KEY,
    owner_id                    TEXT NOT NULL,
    title                       TEXT NOT NULL,
    description                 TEXT NOT NULL DEFAULT '',
    domicile_id                 TEXT NOT NULL REFERENCES steward_domiciles (id),
    assigned_executor_id        TEXT NOT NULL,
    frequency                   TEXT NOT NULL,
    days_of_week                TEXT NOT NULL DEFAULT '[]',
    preferred_start_time        TEXT NOT NULL DEFAULT '',
    estimated_duration_minutes  INTEGER,
    start_date                  TEXT NOT NULL,
    end_date                    TEXT,
    is_active                   INTEGER NOT NULL DEFAULT 1,
    last_generated_at           TEXT,
    created_at                  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at                  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_steward_templates_owner ON steward_recurrence_templates (owner_id, is_active);

CREATE TABLE IF NOT EXISTS steward_recurrence_generations (
    generation_key   TEXT PRIMARY KEY,
    template_id      TEXT NOT NULL,
    generation_date  TEXT NOT NULL,
    task_id          TEXT NOT NULL,
    created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_steward_generations_template ON steward_recurrence_generations (template_id, generation_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS steward_recurrence_generations;
DROP TABLE IF EXISTS steward_recurrence_templates;
`)
				return err
			},
		},
	)
}
