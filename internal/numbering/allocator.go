// Package numbering allocates sequential invoice numbers per financial year.
//
// The counter lives in a Store that increments atomically, so concurrent
// allocations for the same year never share a number. Numbers are never
// recycled: deleting an invoice leaves a gap.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gstbook-dev/gstbook/internal/id"
)

// Store is a per-key counter.
type Store interface {
	// Next increments the counter for key and returns the new value.
	// The first call for a key returns 1.
	Next(ctx context.Context, key string) (int64, error)
}

// Recorder keeps provisional allocations for later reconciliation.
type Recorder interface {
	RecordProvisional(a Allocation) error
}

// CounterUnavailableError reports that the counter store could not be used.
type CounterUnavailableError struct {
	FinancialYear string
	Err           error
}

func (e *CounterUnavailableError) Error() string {
	return fmt.Sprintf("invoice counter for %s unavailable: %v", e.FinancialYear, e.Err)
}

func (e *CounterUnavailableError) Unwrap() error { return e.Err }

// Allocation is an issued invoice number.
type Allocation struct {
	Number        string
	FinancialYear string
	Seq           int64
	IssuedAt      time.Time
	Provisional   bool  // issued without the counter store
	Err           error // *CounterUnavailableError when Provisional
}

// Allocator issues invoice numbers.
type Allocator struct {
	store    Store
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewAllocator creates an Allocator. recorder may be nil.
func NewAllocator(store Store, recorder Recorder, log zerolog.Logger) *Allocator {
	return &Allocator{store: store, recorder: recorder, log: log, now: time.Now}
}

// FinancialYear returns the financial year allocations are currently made in.
func (a *Allocator) FinancialYear() string {
	return id.FinancialYear(a.now())
}

// Allocate returns the next invoice number for the current financial year.
// If the store fails it returns a provisional "01-<year>" number instead of
// an error; the caller must reconcile it once the store is back.
func (a *Allocator) Allocate(ctx context.Context) Allocation {
	issuedAt := a.now()
	fy := id.FinancialYear(issuedAt)

	seq, err := a.store.Next(ctx, fy)
	if err == nil && seq < 1 {
		err = fmt.Errorf("counter returned %d", seq)
	}
	if err != nil {
		return a.provisional(fy, issuedAt, err)
	}

	a.log.Debug().Str("financial_year", fy).Int64("seq", seq).Msg("allocated invoice number")
	return Allocation{
		Number:        id.FormatInvoiceNumber(seq, fy),
		FinancialYear: fy,
		Seq:           seq,
		IssuedAt:      issuedAt,
	}
}

func (a *Allocator) provisional(fy string, issuedAt time.Time, cause error) Allocation {
	alloc := Allocation{
		Number:        id.FormatInvoiceNumber(1, fy),
		FinancialYear: fy,
		Seq:           1,
		IssuedAt:      issuedAt,
		Provisional:   true,
		Err:           &CounterUnavailableError{FinancialYear: fy, Err: cause},
	}

	a.log.Warn().
		Err(alloc.Err).
		Str("financial_year", fy).
		Str("number", alloc.Number).
		Msg("issued provisional invoice number")

	if a.recorder != nil {
		if err := a.recorder.RecordProvisional(alloc); err != nil {
			a.log.Error().Err(err).Str("number", alloc.Number).Msg("recording provisional invoice number")
		}
	}
	return alloc
}
