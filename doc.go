// Package steward provides the workforce core of a home-service operation:
// executors log time against tasks at client domiciles, administrators
// review that time, and the approved ledger drives invoicing, budgets,
// scheduling and duration estimates.
//
// Steward is a library, not a service. It provides:
//
//   - A time-log ledger with a pending, approved and rejected review flow
//   - Task completion on the first approved entry
//   - Invoice generation with per-month numbering and half-up tax rounding
//   - Monthly budget projection per domicile with warning thresholds
//   - Idempotent generation of tasks from recurrence templates
//   - Duration estimates and overrun checks from approved history
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/steward"
//	    "github.com/xraph/steward/store/postgres"
//	)
//
//	s := postgres.New(groveDB)
//	eng := steward.New(s, steward.WithCurrency("EUR"))
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop(ctx)
//
// # Principals
//
// Every operation takes the caller as an authz.Principal. Administrators
// manage the domiciles they own; executors only see and log their own work:
//
//	admin := steward.Admin("user-1")
//	site, _ := eng.CreateDomicile(ctx, admin, "Villa Rosa", "Via Roma 1")
//	_, _ = eng.SetExecutorRate(ctx, admin, site.ID, "exec-7", 2500)
//
// # Scheduled work
//
// Overdue sweeps and recurrence runs are plain calls. Drive them from a
// scheduler of your choice:
//
//	_, err := eng.SweepOverdueInvoices(ctx)
//	res, err := eng.GenerateRecurringTasks(ctx, admin, time.Now())
//
// # Money
//
// Amounts are types.Money, an integer count of minor units in one currency.
// Intermediate arithmetic uses shopspring/decimal and every stored amount is
// rounded half-up exactly once.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers
// such as dom_01h2xcejqtf2nbrexx3vqjhp41 or inv_01h455vb4pex5vsknk084sn02q.
package steward
