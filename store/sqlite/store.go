package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	steward "github.com/xraph/steward"
	"github.com/xraph/steward/budget"
	"github.com/xraph/steward/domicile"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/recurrence"
	stewardstore "github.com/xraph/steward/store"
	"github.com/xraph/steward/task"
	"github.com/xraph/steward/timelog"
)

// compile-time interface check
var (
	_ stewardstore.Store      = (*Store)(nil)
	_ stewardstore.Transactor = (*Store)(nil)
)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("steward/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("steward/sqlite: migration failed: %w", err)
	}
	return nil
}

// queryer is the query-builder surface shared by the pool and a transaction.
type queryer interface {
	NewSelect(model ...any) *sqlitedriver.SelectQuery
	NewInsert(model any) *sqlitedriver.InsertQuery
	NewUpdate(model any) *sqlitedriver.UpdateQuery
	NewDelete(model any) *sqlitedriver.DeleteQuery
	NewRaw(query string, args ...any) *sqlitedriver.RawQuery
}

type txKey struct{}

// q returns the transaction bound to ctx, or the pool when there is none.
func (s *Store) q(ctx context.Context) queryer {
	if tx, ok := ctx.Value(txKey{}).(*sqlitedriver.SqliteTx); ok {
		return tx
	}
	return s.sdb
}

// RunInTx runs fn in a database transaction. Store calls made with the ctx
// passed to fn join it. The transaction commits when fn returns nil and
// rolls back otherwise. Nested calls join the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlitedriver.SqliteTx); ok {
		return fn(ctx)
	}

	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("steward/sqlite: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("steward/sqlite: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("steward/sqlite: commit: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Domicile Store ====================

func (s *Store) CreateDomicile(ctx context.Context, d *domicile.Domicile) error {
	_, err := s.q(ctx).NewInsert(toDomicileModel(d)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetDomicile(ctx context.Context, domicileID id.DomicileID) (*domicile.Domicile, error) {
	m := new(domicileModel)
	err := s.q(ctx).NewSelect(m).
		Where("id = ?", domicileID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrDomicileNotFound
		}
		return nil, err
	}
	return fromDomicileModel(m)
}

func (s *Store) ListDomiciles(ctx context.Context, ownerID string) ([]*domicile.Domicile, error) {
	var models []domicileModel
	q := s.q(ctx).NewSelect(&models)
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	q = q.OrderExpr("name ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*domicile.Domicile, len(models))
	for i := range models {
		d, err := fromDomicileModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

func (s *Store) SetExecutorRate(ctx context.Context, r *domicile.ExecutorRate) error {
	_, err := s.q(ctx).NewInsert(toRateModel(r)).
		OnConflict("(domicile_id, executor_id) DO UPDATE").
		Set("hourly_rate = EXCLUDED.hourly_rate").
		Set("currency = EXCLUDED.currency").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return err
	}

	stored, err := s.GetExecutorRate(ctx, r.DomicileID, r.ExecutorID)
	if err != nil {
		return err
	}
	r.ID = stored.ID
	r.CreatedAt = stored.CreatedAt
	return nil
}

func (s *Store) GetExecutorRate(ctx context.Context, domicileID id.DomicileID, executorID string) (*domicile.ExecutorRate, error) {
	m := new(rateModel)
	err := s.q(ctx).NewSelect(m).
		Where("domicile_id = ?", domicileID.String()).
		Where("executor_id = ?", executorID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrRateNotFound
		}
		return nil, err
	}
	return fromRateModel(m)
}

// ==================== Budget Store ====================

func (s *Store) UpsertBudget(ctx context.Context, b *budget.MonthlyBudget) error {
	_, err := s.q(ctx).NewInsert(toBudgetModel(b)).
		OnConflict("(domicile_id, year, month) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("currency = EXCLUDED.currency").
		Set("set_by = EXCLUDED.set_by").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return err
	}

	stored, err := s.GetBudget(ctx, b.DomicileID, b.Year, b.Month)
	if err != nil {
		return err
	}
	b.ID = stored.ID
	b.CreatedAt = stored.CreatedAt
	return nil
}

func (s *Store) GetBudget(ctx context.Context, domicileID id.DomicileID, year, month int) (*budget.MonthlyBudget, error) {
	m := new(budgetModel)
	err := s.q(ctx).NewSelect(m).
		Where("domicile_id = ?", domicileID.String()).
		Where("year = ?", year).
		Where("month = ?", month).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrBudgetNotFound
		}
		return nil, err
	}
	return fromBudgetModel(m)
}

// ==================== Task Store ====================

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	_, err := s.q(ctx).NewInsert(toTaskModel(t)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetTask(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	m := new(taskModel)
	err := s.q(ctx).NewSelect(m).
		Where("id = ?", taskID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrTaskNotFound
		}
		return nil, err
	}
	return fromTaskModel(m)
}

func (s *Store) UpdateTask(ctx context.Context, t *task.Task) error {
	res, err := s.q(ctx).NewUpdate(toTaskModel(t)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return steward.ErrTaskNotFound
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, opts task.ListOpts) ([]*task.Task, error) {
	var w clause
	if !opts.DomicileID.IsNil() {
		w.add("domicile_id = ?", opts.DomicileID.String())
	}
	if opts.ExecutorID != "" {
		w.add("assigned_executor_id = ?", opts.ExecutorID)
	}
	if opts.Status != "" {
		w.add("status = ?", string(opts.Status))
	}
	if !opts.TemplateID.IsNil() {
		w.add("template_id = ?", opts.TemplateID.String())
	}
	if !opts.PlannedFrom.IsZero() {
		w.add("planned_start >= ?", opts.PlannedFrom)
	}
	if !opts.PlannedTo.IsZero() {
		w.add("planned_start < ?", opts.PlannedTo)
	}

	var models []taskModel
	q := s.q(ctx).NewSelect(&models)
	if !w.empty() {
		q = q.Where(w.String(), w.args...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("planned_start ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*task.Task, len(models))
	for i := range models {
		t, err := fromTaskModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Time log Store ====================

func (s *Store) CreateTimeLog(ctx context.Context, e *timelog.Entry) error {
	_, err := s.q(ctx).NewInsert(toTimeLogModel(e)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetTimeLog(ctx context.Context, entryID id.TimeLogID) (*timelog.Entry, error) {
	m := new(timeLogModel)
	err := s.q(ctx).NewSelect(m).
		Where("id = ?", entryID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrTimeLogNotFound
		}
		return nil, err
	}
	return fromTimeLogModel(m)
}

// UpdateTimeLog writes e only while the stored row is pending or already in
// e's status, so a reviewed entry can never be moved to another status.
func (s *Store) UpdateTimeLog(ctx context.Context, e *timelog.Entry) error {
	m := toTimeLogModel(e)

	var updated string
	err := s.q(ctx).NewRaw(`
		UPDATE steward_time_logs SET
			start_time = ?, end_time = ?, duration_seconds = ?, hours_worked = ?,
			status = ?, notes = ?, validated_by = ?, validated_at = ?, updated_at = ?
		WHERE id = ? AND (status = ? OR status = ?)
		RETURNING id
	`, m.StartTime, m.EndTime, m.DurationSeconds, m.HoursWorked,
		m.Status, m.Notes, m.ValidatedBy, m.ValidatedAt, m.UpdatedAt,
		m.ID, m.Status, string(timelog.StatusPending)).Scan(ctx, &updated)
	if err == nil {
		return nil
	}
	if !isNoRows(err) {
		return err
	}
	if _, getErr := s.GetTimeLog(ctx, e.ID); getErr != nil {
		return getErr
	}
	return steward.ErrAlreadyFinal
}

func (s *Store) DeleteTimeLog(ctx context.Context, entryID id.TimeLogID) error {
	res, err := s.q(ctx).NewDelete((*timeLogModel)(nil)).
		Where("id = ?", entryID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return steward.ErrTimeLogNotFound
	}
	return nil
}

func (s *Store) ListTimeLogs(ctx context.Context, opts timelog.ListOpts) ([]*timelog.Entry, error) {
	w := timeLogClause(opts)

	var models []timeLogModel
	q := s.q(ctx).NewSelect(&models)
	if !w.empty() {
		q = q.Where(w.String(), w.args...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("start_time DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*timelog.Entry, len(models))
	for i := range models {
		e, err := fromTimeLogModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) SumTimeLogs(ctx context.Context, opts timelog.ListOpts) ([]*timelog.Aggregate, error) {
	w := timeLogClause(opts)

	var rows []aggregateRow
	err := s.q(ctx).NewRaw(`
		SELECT domicile_id, executor_id,
			COALESCE(SUM(duration_seconds), 0) AS seconds, COUNT(*) AS entries
		FROM steward_time_logs
		WHERE `+w.String()+`
		GROUP BY domicile_id, executor_id
		ORDER BY domicile_id, executor_id
	`, w.args...).Scan(ctx, &rows)
	if err != nil && !isNoRows(err) {
		return nil, err
	}

	result := make([]*timelog.Aggregate, len(rows))
	for i := range rows {
		a, err := fromAggregateRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) CountTimeLogTasks(ctx context.Context, opts timelog.ListOpts) (int64, error) {
	w := timeLogClause(opts)

	var count int64
	err := s.q(ctx).NewRaw(`
		SELECT COUNT(DISTINCT task_id) FROM steward_time_logs WHERE `+w.String(),
		w.args...).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func timeLogClause(opts timelog.ListOpts) *clause {
	w := new(clause)
	if !opts.TaskID.IsNil() {
		w.add("task_id = ?", opts.TaskID.String())
	}
	if opts.ExecutorID != "" {
		w.add("executor_id = ?", opts.ExecutorID)
	}
	if len(opts.DomicileIDs) > 0 {
		w.in("domicile_id", idStrings(opts.DomicileIDs))
	}
	if opts.Status != "" {
		w.add("status = ?", string(opts.Status))
	}
	if !opts.StartFrom.IsZero() {
		w.add("start_time >= ?", opts.StartFrom)
	}
	if !opts.StartBefore.IsZero() {
		w.add("start_time < ?", opts.StartBefore)
	}
	if !opts.EndBy.IsZero() {
		w.add("end_time <= ?", opts.EndBy)
	}
	return w
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.q(ctx).NewInsert(toInvoiceModel(inv)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.q(ctx).NewSelect(m).
		Where("id = ?", invID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	res, err := s.q(ctx).NewUpdate(toInvoiceModel(inv)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return steward.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	res, err := s.q(ctx).NewDelete((*invoiceModel)(nil)).
		Where("id = ?", invID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return steward.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var w clause
	if len(opts.DomicileIDs) > 0 {
		w.in("domicile_id", idStrings(opts.DomicileIDs))
	}
	if opts.ExecutorID != "" {
		w.add("executor_id = ?", opts.ExecutorID)
	}
	if opts.Status != "" {
		w.add("status = ?", string(opts.Status))
	}
	if opts.Period != "" {
		w.add("period = ?", opts.Period)
	}
	if !opts.DueBefore.IsZero() {
		w.add("due_date < ?", opts.DueBefore)
	}

	var models []invoiceModel
	q := s.q(ctx).NewSelect(&models)
	if !w.empty() {
		q = q.Where(w.String(), w.args...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("invoice_number DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

// NextInvoiceSequence increments the period counter in a single statement.
func (s *Store) NextInvoiceSequence(ctx context.Context, period string) (int64, error) {
	var next int64
	err := s.q(ctx).NewRaw(`
		INSERT INTO steward_invoice_sequences (period, value) VALUES (?, 1)
		ON CONFLICT (period) DO UPDATE SET value = steward_invoice_sequences.value + 1
		RETURNING value
	`, period).Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: next invoice sequence %s: %w", period, err)
	}
	return next, nil
}

// ==================== Recurrence Store ====================

func (s *Store) CreateTemplate(ctx context.Context, t *recurrence.Template) error {
	_, err := s.q(ctx).NewInsert(toTemplateModel(t)).Exec(ctx)
	return mapInsertErr(err)
}

func (s *Store) GetTemplate(ctx context.Context, templateID id.TemplateID) (*recurrence.Template, error) {
	m := new(templateModel)
	err := s.q(ctx).NewSelect(m).
		Where("id = ?", templateID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, steward.ErrTemplateNotFound
		}
		return nil, err
	}
	return fromTemplateModel(m)
}

func (s *Store) UpdateTemplate(ctx context.Context, t *recurrence.Template) error {
	res, err := s.q(ctx).NewUpdate(toTemplateModel(t)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return steward.ErrTemplateNotFound
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context, opts recurrence.ListOpts) ([]*recurrence.Template, error) {
	var w clause
	if opts.OwnerID != "" {
		w.add("owner_id = ?", opts.OwnerID)
	}
	if !opts.DomicileID.IsNil() {
		w.add("domicile_id = ?", opts.DomicileID.String())
	}
	if opts.ActiveOnly {
		w.add("is_active = ?", 1)
	}

	var models []templateModel
	q := s.q(ctx).NewSelect(&models)
	if !w.empty() {
		q = q.Where(w.String(), w.args...)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*recurrence.Template, len(models))
	for i := range models {
		t, err := fromTemplateModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ClaimGeneration inserts the claim row; a conflicting key means another
// run already owns the (template, date) pair.
func (s *Store) ClaimGeneration(ctx context.Context, g *recurrence.Generation) (bool, error) {
	res, err := s.q(ctx).NewInsert(toGenerationModel(g)).
		OnConflict("(generation_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *Store) ReleaseGeneration(ctx context.Context, key recurrence.Key) error {
	_, err := s.q(ctx).NewDelete((*generationModel)(nil)).
		Where("generation_key = ?", key.String()).
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

// clause accumulates AND-ed conditions written with ? markers.
type clause struct {
	conds []string
	args  []any
}

func (c *clause) add(cond string, args ...any) {
	c.args = append(c.args, args...)
	c.conds = append(c.conds, cond)
}

func (c *clause) in(column string, values []string) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	c.add(column+" IN ("+strings.Join(marks, ", ")+")", args...)
}

func (c *clause) empty() bool { return len(c.conds) == 0 }

func (c *clause) String() string {
	if c.empty() {
		return "1 = 1"
	}
	return strings.Join(c.conds, " AND ")
}

func idStrings(ids []id.DomicileID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// mapInsertErr translates unique constraint failures. The driver reports
// them only through the message text.
func mapInsertErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", steward.ErrAlreadyExists, err)
	}
	return err
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
