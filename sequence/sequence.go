// Package sequence hands out invoice-number sequences.
//
// Numbers are drawn from an atomic per-period counter rather than derived
// from the highest existing invoice, so concurrent generators in the same
// month never collide and a number is never reused.
package sequence

import "context"

// Sequencer returns the next value of the counter for period, starting at 1.
type Sequencer interface {
	Next(ctx context.Context, period string) (int64, error)
}

// Func adapts a function to the Sequencer interface.
type Func func(ctx context.Context, period string) (int64, error)

// Next calls f.
func (f Func) Next(ctx context.Context, period string) (int64, error) {
	return f(ctx, period)
}
