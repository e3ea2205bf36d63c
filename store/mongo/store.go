package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

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

// Collection name constants.
const (
	colDomiciles   = "steward_domiciles"
	colRates       = "steward_executor_rates"
	colBudgets     = "steward_monthly_budgets"
	colTasks       = "steward_tasks"
	colTimeLogs    = "steward_time_logs"
	colInvoices    = "steward_invoices"
	colSequences   = "steward_invoice_sequences"
	colTemplates   = "steward_recurrence_templates"
	colGenerations = "steward_recurrence_generations"
)

// compile-time interface check
var (
	_ stewardstore.Store      = (*Store)(nil)
	_ stewardstore.Transactor = (*Store)(nil)
)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all steward collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("steward/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// RunInTx runs fn inside a MongoDB session transaction. Store calls made
// with the ctx passed to fn carry the session and join the transaction. The
// driver retries fn on transient transaction errors, so fn must be safe to
// repeat. Transactions need a replica set or sharded cluster.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.mdb.Client().StartSession()
	if err != nil {
		return fmt.Errorf("steward/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
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
	_, err := s.mdb.NewInsert(toDomicileModel(d)).Exec(ctx)
	if err != nil {
		return mapInsertErr("create domicile", err)
	}
	return nil
}

func (s *Store) GetDomicile(ctx context.Context, domicileID id.DomicileID) (*domicile.Domicile, error) {
	var m domicileModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": domicileID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrDomicileNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get domicile: %w", err)
	}
	return fromDomicileModel(&m)
}

func (s *Store) ListDomiciles(ctx context.Context, ownerID string) ([]*domicile.Domicile, error) {
	var models []domicileModel

	filter := bson.M{}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}

	err := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("steward/mongo: list domiciles: %w", err)
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
	m := toRateModel(r)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"domicile_id": m.DomicileID, "executor_id": m.ExecutorID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"hourly_rate": m.HourlyRate,
				"currency":    m.Currency,
				"updated_at":  m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        m.ID,
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: set executor rate: %w", err)
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
	var m rateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"domicile_id": domicileID.String(), "executor_id": executorID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrRateNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get executor rate: %w", err)
	}
	return fromRateModel(&m)
}

// ==================== Budget Store ====================

func (s *Store) UpsertBudget(ctx context.Context, b *budget.MonthlyBudget) error {
	m := toBudgetModel(b)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"domicile_id": m.DomicileID, "year": m.Year, "month": m.Month}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"amount":     m.Amount,
				"currency":   m.Currency,
				"set_by":     m.SetBy,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        m.ID,
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: upsert budget: %w", err)
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
	var m budgetModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"domicile_id": domicileID.String(), "year": year, "month": month}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrBudgetNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get budget: %w", err)
	}
	return fromBudgetModel(&m)
}

// ==================== Task Store ====================

func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	_, err := s.mdb.NewInsert(toTaskModel(t)).Exec(ctx)
	if err != nil {
		return mapInsertErr("create task", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	var m taskModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": taskID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrTaskNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get task: %w", err)
	}
	return fromTaskModel(&m)
}

func (s *Store) UpdateTask(ctx context.Context, t *task.Task) error {
	m := toTaskModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: update task: %w", err)
	}
	if res.MatchedCount() == 0 {
		return steward.ErrTaskNotFound
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, opts task.ListOpts) ([]*task.Task, error) {
	var models []taskModel

	filter := bson.M{}
	if !opts.DomicileID.IsNil() {
		filter["domicile_id"] = opts.DomicileID.String()
	}
	if opts.ExecutorID != "" {
		filter["assigned_executor_id"] = opts.ExecutorID
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.TemplateID.IsNil() {
		filter["template_id"] = opts.TemplateID.String()
	}
	planned := bson.M{}
	if !opts.PlannedFrom.IsZero() {
		planned["$gte"] = opts.PlannedFrom
	}
	if !opts.PlannedTo.IsZero() {
		planned["$lt"] = opts.PlannedTo
	}
	if len(planned) > 0 {
		filter["planned_start"] = planned
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "planned_start", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/mongo: list tasks: %w", err)
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
	_, err := s.mdb.NewInsert(toTimeLogModel(e)).Exec(ctx)
	if err != nil {
		return mapInsertErr("create time log", err)
	}
	return nil
}

func (s *Store) GetTimeLog(ctx context.Context, entryID id.TimeLogID) (*timelog.Entry, error) {
	var m timeLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrTimeLogNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get time log: %w", err)
	}
	return fromTimeLogModel(&m)
}

// UpdateTimeLog matches only a pending entry or one already in e's status,
// so a reviewed entry can never be moved to another status.
func (s *Store) UpdateTimeLog(ctx context.Context, e *timelog.Entry) error {
	m := toTimeLogModel(e)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{
			"_id":    m.ID,
			"status": bson.M{"$in": []string{m.Status, string(timelog.StatusPending)}},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: update time log: %w", err)
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	if _, err := s.GetTimeLog(ctx, e.ID); err != nil {
		return err
	}
	return steward.ErrAlreadyFinal
}

func (s *Store) DeleteTimeLog(ctx context.Context, entryID id.TimeLogID) error {
	res, err := s.mdb.NewDelete((*timeLogModel)(nil)).
		Filter(bson.M{"_id": entryID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: delete time log: %w", err)
	}
	if res.DeletedCount() == 0 {
		return steward.ErrTimeLogNotFound
	}
	return nil
}

func (s *Store) ListTimeLogs(ctx context.Context, opts timelog.ListOpts) ([]*timelog.Entry, error) {
	var models []timeLogModel

	q := s.mdb.NewFind(&models).
		Filter(timeLogFilter(opts)).
		Sort(bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/mongo: list time logs: %w", err)
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
	pipeline := bson.A{
		bson.M{"$match": timeLogFilter(opts)},
		bson.M{
			"$group": bson.M{
				"_id": bson.M{
					"domicile_id": "$domicile_id",
					"executor_id": "$executor_id",
				},
				"seconds": bson.M{"$sum": "$duration_seconds"},
				"entries": bson.M{"$sum": 1},
			},
		},
		bson.M{"$sort": bson.D{{Key: "_id.domicile_id", Value: 1}, {Key: "_id.executor_id", Value: 1}}},
	}

	cursor, err := s.mdb.Collection(colTimeLogs).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("steward/mongo: sum time logs: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []aggregateRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("steward/mongo: sum time logs decode: %w", err)
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
	pipeline := bson.A{
		bson.M{"$match": timeLogFilter(opts)},
		bson.M{"$group": bson.M{"_id": "$task_id"}},
		bson.M{"$count": "tasks"},
	}

	cursor, err := s.mdb.Collection(colTimeLogs).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("steward/mongo: count time log tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Tasks int64 `bson:"tasks"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("steward/mongo: count time log tasks decode: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Tasks, nil
}

func timeLogFilter(opts timelog.ListOpts) bson.M {
	filter := bson.M{}
	if !opts.TaskID.IsNil() {
		filter["task_id"] = opts.TaskID.String()
	}
	if opts.ExecutorID != "" {
		filter["executor_id"] = opts.ExecutorID
	}
	if len(opts.DomicileIDs) > 0 {
		ids := make([]string, len(opts.DomicileIDs))
		for i, d := range opts.DomicileIDs {
			ids[i] = d.String()
		}
		filter["domicile_id"] = bson.M{"$in": ids}
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	start := bson.M{}
	if !opts.StartFrom.IsZero() {
		start["$gte"] = opts.StartFrom
	}
	if !opts.StartBefore.IsZero() {
		start["$lt"] = opts.StartBefore
	}
	if len(start) > 0 {
		filter["start_time"] = start
	}
	if !opts.EndBy.IsZero() {
		filter["end_time"] = bson.M{"$lte": opts.EndBy}
	}
	return filter
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.mdb.NewInsert(toInvoiceModel(inv)).Exec(ctx)
	if err != nil {
		return mapInsertErr("create invoice", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: update invoice: %w", err)
	}
	if res.MatchedCount() == 0 {
		return steward.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	res, err := s.mdb.NewDelete((*invoiceModel)(nil)).
		Filter(bson.M{"_id": invID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: delete invoice: %w", err)
	}
	if res.DeletedCount() == 0 {
		return steward.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{}
	if len(opts.DomicileIDs) > 0 {
		ids := make([]string, len(opts.DomicileIDs))
		for i, d := range opts.DomicileIDs {
			ids[i] = d.String()
		}
		filter["domicile_id"] = bson.M{"$in": ids}
	}
	if opts.ExecutorID != "" {
		filter["executor_id"] = opts.ExecutorID
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.Period != "" {
		filter["period"] = opts.Period
	}
	if !opts.DueBefore.IsZero() {
		filter["due_date"] = bson.M{"$lt": opts.DueBefore}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "invoice_number", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/mongo: list invoices: %w", err)
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

// NextInvoiceSequence atomically increments the period counter, creating
// it on first use.
func (s *Store) NextInvoiceSequence(ctx context.Context, period string) (int64, error) {
	var doc sequenceDoc
	err := s.mdb.Collection(colSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": period},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("steward/mongo: next invoice sequence %s: %w", period, err)
	}
	return doc.Value, nil
}

// ==================== Recurrence Store ====================

func (s *Store) CreateTemplate(ctx context.Context, t *recurrence.Template) error {
	_, err := s.mdb.NewInsert(toTemplateModel(t)).Exec(ctx)
	if err != nil {
		return mapInsertErr("create template", err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID id.TemplateID) (*recurrence.Template, error) {
	var m templateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": templateID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, steward.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("steward/mongo: get template: %w", err)
	}
	return fromTemplateModel(&m)
}

func (s *Store) UpdateTemplate(ctx context.Context, t *recurrence.Template) error {
	m := toTemplateModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: update template: %w", err)
	}
	if res.MatchedCount() == 0 {
		return steward.ErrTemplateNotFound
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context, opts recurrence.ListOpts) ([]*recurrence.Template, error) {
	var models []templateModel

	filter := bson.M{}
	if opts.OwnerID != "" {
		filter["owner_id"] = opts.OwnerID
	}
	if !opts.DomicileID.IsNil() {
		filter["domicile_id"] = opts.DomicileID.String()
	}
	if opts.ActiveOnly {
		filter["is_active"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/mongo: list templates: %w", err)
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

// ClaimGeneration inserts the claim document keyed by (template, date). A
// duplicate key means another run already owns it.
// ClaimGeneration inserts the key only when it is absent. It upserts with
// $setOnInsert rather than relying on a duplicate-key error, which would
// abort an enclosing transaction.
func (s *Store) ClaimGeneration(ctx context.Context, g *recurrence.Generation) (bool, error) {
	m := toGenerationModel(g)
	res, err := s.mdb.Collection(colGenerations).UpdateOne(ctx,
		bson.M{"_id": m.Key},
		bson.M{"$setOnInsert": bson.M{
			"template_id":     m.TemplateID,
			"generation_date": m.Date,
			"task_id":         m.TaskID,
			"created_at":      m.CreatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("steward/mongo: claim generation: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (s *Store) ReleaseGeneration(ctx context.Context, key recurrence.Key) error {
	_, err := s.mdb.NewDelete((*generationModel)(nil)).
		Filter(bson.M{"_id": key.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/mongo: release generation: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func mapInsertErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", steward.ErrAlreadyExists, op)
	}
	return fmt.Errorf("steward/mongo: %s: %w", op, err)
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all steward collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colDomiciles: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		colRates: {
			{
				Keys:    bson.D{{Key: "domicile_id", Value: 1}, {Key: "executor_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colBudgets: {
			{
				Keys:    bson.D{{Key: "domicile_id", Value: 1}, {Key: "year", Value: 1}, {Key: "month", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colTasks: {
			{Keys: bson.D{{Key: "domicile_id", Value: 1}, {Key: "planned_start", Value: 1}}},
			{Keys: bson.D{{Key: "assigned_executor_id", Value: 1}, {Key: "planned_start", Value: 1}}},
			{Keys: bson.D{{Key: "template_id", Value: 1}}},
		},
		colTimeLogs: {
			{Keys: bson.D{{Key: "task_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "domicile_id", Value: 1}, {Key: "executor_id", Value: 1}, {Key: "start_time", Value: 1}}},
			{Keys: bson.D{{Key: "executor_id", Value: 1}, {Key: "start_time", Value: -1}}},
		},
		colInvoices: {
			{
				Keys:    bson.D{{Key: "invoice_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "domicile_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		},
		colTemplates: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		colGenerations: {
			{Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "generation_date", Value: 1}}},
		},
	}
}
