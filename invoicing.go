package steward

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/invoice"
	"github.com/xraph/steward/timelog"
	"github.com/xraph/steward/types"
)

// GenerateInvoiceInput is the payload of GenerateInvoice. TaxRate defaults to
// the engine's configured rate; HourlyRate defaults to the executor's rate at
// the domicile.
type GenerateInvoiceInput struct {
	DomicileID  id.DomicileID
	ExecutorID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	TaxRate     *decimal.Decimal
	HourlyRate  *types.Money
	Notes       string
}

// GenerateInvoice bills the executor's approved time at a domicile over
// [PeriodStart, end of PeriodEnd's day] as a new DRAFT invoice.
func (e *Engine) GenerateInvoice(ctx context.Context, p authz.Principal, in GenerateInvoiceInput) (*invoice.Invoice, error) {
	g, err := e.authorize(ctx, p, authz.CapManageInvoices)
	if err != nil {
		return nil, err
	}

	periodEnd := invoice.EndOfDay(in.PeriodEnd)
	switch {
	case in.ExecutorID == "":
		return nil, invalid("executor_id", "is required")
	case in.PeriodStart.IsZero() || in.PeriodEnd.IsZero():
		return nil, invalid("period", "start and end are required")
	case periodEnd.Before(in.PeriodStart):
		return nil, ErrInvalidRange
	}

	taxRate := e.defaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	if taxRate.IsNegative() {
		return nil, ErrInvalidTaxRate
	}
	if in.HourlyRate != nil && !in.HourlyRate.IsPositive() {
		return nil, ErrInvalidRate
	}

	var inv *invoice.Invoice
	err = e.inTx(ctx, func(ctx context.Context) error {
		if _, err := e.ownedDomicile(ctx, g, in.DomicileID); err != nil {
			return err
		}

		rate, err := e.resolveRate(ctx, in.DomicileID, in.ExecutorID, in.HourlyRate)
		if err != nil {
			return err
		}

		groups, err := e.store.SumTimeLogs(ctx, timelog.ListOpts{
			DomicileIDs: []id.DomicileID{in.DomicileID},
			ExecutorID:  in.ExecutorID,
			Status:      timelog.StatusApproved,
			StartFrom:   in.PeriodStart,
			EndBy:       periodEnd,
		})
		if err != nil {
			return err
		}
		var seconds, entries int64
		for _, a := range groups {
			seconds += a.Seconds
			entries += a.Entries
		}
		amounts := invoice.Compute(seconds, rate, taxRate)

		now := e.clock.Now()
		period := invoice.PeriodKey(now)
		seq, err := e.sequencer.Next(ctx, period)
		if err != nil {
			return fmt.Errorf("steward: next invoice sequence: %w", err)
		}

		inv = &invoice.Invoice{
			Entity:       types.NewEntity(now),
			ID:           id.NewInvoiceID(),
			Number:       invoice.FormatNumber(period, seq),
			Period:       period,
			Sequence:     seq,
			DomicileID:   in.DomicileID,
			ExecutorID:   in.ExecutorID,
			PeriodStart:  in.PeriodStart,
			PeriodEnd:    periodEnd,
			TotalSeconds: seconds,
			TotalHours:   amounts.TotalHours,
			EntryCount:   entries,
			HourlyRate:   rate,
			TaxRate:      taxRate,
			Subtotal:     amounts.Subtotal,
			TaxAmount:    amounts.TaxAmount,
			Total:        amounts.Total,
			Status:       invoice.StatusDraft,
			DueDate:      now.UTC().AddDate(0, 0, e.dueDays),
			Notes:        in.Notes,
			CreatedBy:    g.UserID(),
		}
		return e.store.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitInvoiceGenerated(ctx, inv)
	e.logger.Info("invoice generated",
		"invoice_id", inv.ID.String(),
		"number", inv.Number,
		"entries", inv.EntryCount,
		"total", inv.Total.String(),
	)
	return inv, nil
}

// resolveRate returns the supplied rate or the configured executor rate.
func (e *Engine) resolveRate(ctx context.Context, domicileID id.DomicileID, executorID string, supplied *types.Money) (types.Money, error) {
	if supplied != nil {
		if supplied.Currency == "" {
			return e.money(supplied.Amount), nil
		}
		if err := e.billable(*supplied); err != nil {
			return types.Money{}, err
		}
		return *supplied, nil
	}
	r, err := e.store.GetExecutorRate(ctx, domicileID, executorID)
	if err != nil {
		if IsNotFound(err) {
			return types.Money{}, ErrRateNotConfigured
		}
		return types.Money{}, err
	}
	if !r.Configured() {
		return types.Money{}, ErrRateNotConfigured
	}
	if err := e.billable(r.HourlyRate); err != nil {
		return types.Money{}, err
	}
	return r.HourlyRate, nil
}

// SendInvoice moves a DRAFT invoice to SENT.
func (e *Engine) SendInvoice(ctx context.Context, p authz.Principal, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, err := e.transitionInvoice(ctx, p, invID, invoice.ActionSend, "")
	if err != nil {
		return nil, err
	}
	e.plugins.EmitInvoiceSent(ctx, inv)
	return inv, nil
}

// MarkInvoicePaid records payment of a sent or overdue invoice.
func (e *Engine) MarkInvoicePaid(ctx context.Context, p authz.Principal, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, err := e.transitionInvoice(ctx, p, invID, invoice.ActionPay, "")
	if err != nil {
		return nil, err
	}
	e.plugins.EmitInvoicePaid(ctx, inv)
	return inv, nil
}

// CancelInvoice cancels an unpaid invoice. A non-empty reason is appended to
// the notes.
func (e *Engine) CancelInvoice(ctx context.Context, p authz.Principal, invID id.InvoiceID, reason string) (*invoice.Invoice, error) {
	inv, err := e.transitionInvoice(ctx, p, invID, invoice.ActionCancel, reason)
	if err != nil {
		return nil, err
	}
	e.plugins.EmitInvoiceCancelled(ctx, inv, reason)
	return inv, nil
}

func (e *Engine) transitionInvoice(ctx context.Context, p authz.Principal, invID id.InvoiceID, a invoice.Action, reason string) (*invoice.Invoice, error) {
	g, err := e.authorize(ctx, p, authz.CapManageInvoices)
	if err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err = e.inTx(ctx, func(ctx context.Context) error {
		cur, err := e.store.GetInvoice(ctx, invID)
		if err != nil {
			return err
		}
		if _, err := e.ownedDomicile(ctx, g, cur.DomicileID); err != nil {
			return err
		}
		if err := e.applyInvoiceAction(ctx, cur, a, reason); err != nil {
			return err
		}
		inv = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// applyInvoiceAction advances inv through the state machine and persists it.
func (e *Engine) applyInvoiceAction(ctx context.Context, inv *invoice.Invoice, a invoice.Action, reason string) error {
	to, ok := invoice.Next(inv.Status, a)
	if !ok {
		switch inv.Status {
		case invoice.StatusPaid:
			return ErrInvoicePaid
		case invoice.StatusCancelled:
			return ErrInvoiceCancelled
		default:
			return fmt.Errorf("%w: cannot %s a %s invoice", ErrInvalidTransition, a, inv.Status)
		}
	}

	now := e.clock.Now().UTC()
	switch to {
	case invoice.StatusSent:
		inv.SentAt = &now
	case invoice.StatusPaid:
		inv.PaidDate = &now
	case invoice.StatusCancelled:
		inv.CancelledAt = &now
		if reason != "" {
			if inv.Notes != "" {
				inv.Notes += "\n"
			}
			inv.Notes += "Cancelled: " + reason
		}
	}
	from := inv.Status
	inv.Status = to
	inv.Touch(now)

	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return err
	}

	e.logger.Info("invoice transitioned",
		"invoice_id", inv.ID.String(),
		"number", inv.Number,
		"from", string(from),
		"to", string(to),
	)
	return nil
}

// SweepOverdueInvoices marks every SENT invoice whose due date has passed as
// OVERDUE. It runs without a caller identity and is meant to be triggered by
// a timer. Per-invoice failures are collected; the sweep continues past them.
func (e *Engine) SweepOverdueInvoices(ctx context.Context) ([]*invoice.Invoice, error) {
	now := e.clock.Now()
	due, err := e.store.ListInvoices(ctx, invoice.ListOpts{
		Status:    invoice.StatusSent,
		DueBefore: now,
	})
	if err != nil {
		return nil, err
	}

	var (
		marked []*invoice.Invoice
		errs   MultiError
	)
	for _, candidate := range due {
		var inv *invoice.Invoice
		err := e.inTx(ctx, func(ctx context.Context) error {
			cur, err := e.store.GetInvoice(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !cur.Overdue(now) {
				return nil
			}
			if err := e.applyInvoiceAction(ctx, cur, invoice.ActionOverdue, ""); err != nil {
				return err
			}
			inv = cur
			return nil
		})
		if err != nil {
			errs.Add(fmt.Errorf("invoice %s: %w", candidate.Number, err))
			continue
		}
		if inv != nil {
			marked = append(marked, inv)
			e.plugins.EmitInvoiceOverdue(ctx, inv)
		}
	}

	if len(marked) > 0 {
		e.logger.Info("overdue sweep", "marked", len(marked), "failed", len(errs.Errors))
	}
	return marked, errs.ErrOrNil()
}

// UpdateInvoiceNotes replaces an invoice's notes. Paid invoices are frozen.
func (e *Engine) UpdateInvoiceNotes(ctx context.Context, p authz.Principal, invID id.InvoiceID, notes string) (*invoice.Invoice, error) {
	g, err := e.authorize(ctx, p, authz.CapManageInvoices)
	if err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	err = e.inTx(ctx, func(ctx context.Context) error {
		cur, err := e.store.GetInvoice(ctx, invID)
		if err != nil {
			return err
		}
		if _, err := e.ownedDomicile(ctx, g, cur.DomicileID); err != nil {
			return err
		}
		if !invoice.CanModify(cur) {
			return ErrInvoicePaid
		}
		cur.Notes = notes
		cur.Touch(e.clock.Now())
		if err := e.store.UpdateInvoice(ctx, cur); err != nil {
			return err
		}
		inv = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteInvoice removes a DRAFT invoice. Its number is not reused.
func (e *Engine) DeleteInvoice(ctx context.Context, p authz.Principal, invID id.InvoiceID) error {
	g, err := e.authorize(ctx, p, authz.CapManageInvoices)
	if err != nil {
		return err
	}

	err = e.inTx(ctx, func(ctx context.Context) error {
		cur, err := e.store.GetInvoice(ctx, invID)
		if err != nil {
			return err
		}
		if _, err := e.ownedDomicile(ctx, g, cur.DomicileID); err != nil {
			return err
		}
		if !invoice.Deletable(cur) {
			return ErrInvoiceNotDraft
		}
		return e.store.DeleteInvoice(ctx, invID)
	})
	if err != nil {
		return err
	}

	e.logger.Info("invoice deleted", "invoice_id", invID.String())
	return nil
}

// GetInvoice returns an invoice. Executors only see invoices billing them;
// administrators only those of their own domiciles.
func (e *Engine) GetInvoice(ctx context.Context, p authz.Principal, invID id.InvoiceID) (*invoice.Invoice, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if g.Can(authz.CapManageInvoices) {
		if _, err := e.ownedDomicile(ctx, g, inv.DomicileID); err != nil {
			return nil, err
		}
		return inv, nil
	}
	if inv.ExecutorID != g.UserID() {
		return nil, ErrNotOwner
	}
	return inv, nil
}

// ListInvoices lists invoices visible to the caller, newest first.
func (e *Engine) ListInvoices(ctx context.Context, p authz.Principal, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	g, err := e.authorize(ctx, p)
	if err != nil {
		return nil, err
	}
	if !g.Can(authz.CapManageInvoices) {
		opts.ExecutorID = g.UserID()
		return e.store.ListInvoices(ctx, opts)
	}

	owned, err := e.ownedDomicileIDs(ctx, g)
	if err != nil {
		return nil, err
	}
	opts.DomicileIDs = intersect(opts.DomicileIDs, owned)
	if len(opts.DomicileIDs) == 0 {
		return []*invoice.Invoice{}, nil
	}
	return e.store.ListInvoices(ctx, opts)
}

// ownedDomicileIDs lists the ids of the caller's domiciles.
func (e *Engine) ownedDomicileIDs(ctx context.Context, g authz.Grants) ([]id.DomicileID, error) {
	doms, err := e.store.ListDomiciles(ctx, g.UserID())
	if err != nil {
		return nil, err
	}
	ids := make([]id.DomicileID, 0, len(doms))
	for _, d := range doms {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// intersect narrows requested to allowed. An empty request means all allowed.
func intersect(requested, allowed []id.DomicileID) []id.DomicileID {
	if len(requested) == 0 {
		return allowed
	}
	set := make(map[id.DomicileID]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	out := make([]id.DomicileID, 0, len(requested))
	for _, r := range requested {
		if _, ok := set[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
