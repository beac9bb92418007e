// Package ecan implements economic attention allocation over an atomspace
// store: a two-currency bank, the per-tick decay/rent/spread/forgetting
// cycle, and the derived attention tensor with gradient-based reallocation.
package ecan

import "sync"

// Currency selects which importance fund a bank operation touches.
type Currency int

const (
	STI Currency = iota
	LTI
)

func (c Currency) String() string {
	if c == LTI {
		return "LTI"
	}
	return "STI"
}

// Bank is the closed-currency ledger for short-term and long-term
// importance. It is the sole gatekeeper for STI/LTI spending: no entity's
// attention may be increased without a successful Allocate. The invariant
// 0 <= available <= total holds for both funds at all times.
//
// Bank methods are safe for concurrent use on their own; the surrounding
// Space serializes whole-cycle access.
type Bank struct {
	mu sync.Mutex

	totalSTI     float64
	availableSTI float64
	minimumSTI   float64

	totalLTI     float64
	availableLTI float64
	minimumLTI   float64
}

// BankSnapshot is a consistent read of the ledger.
type BankSnapshot struct {
	TotalSTI     float64
	AvailableSTI float64
	MinimumSTI   float64
	TotalLTI     float64
	AvailableLTI float64
	MinimumLTI   float64
}

// NewBank creates a ledger with both funds fully available. Minimums are
// reserve floors: Allocate never lets a fund drop below its minimum.
func NewBank(totalSTI, totalLTI, minSTI, minLTI float64) *Bank {
	if totalSTI < 0 {
		totalSTI = 0
	}
	if totalLTI < 0 {
		totalLTI = 0
	}
	return &Bank{
		totalSTI:     totalSTI,
		availableSTI: totalSTI,
		minimumSTI:   minSTI,
		totalLTI:     totalLTI,
		availableLTI: totalLTI,
		minimumLTI:   minLTI,
	}
}

// Allocate debits amount from the fund's available balance. It succeeds
// iff the full amount fits above the reserve floor; on failure nothing
// changes and there is no partial spend. Zero amounts succeed trivially,
// negative amounts are rejected.
func (b *Bank) Allocate(c Currency, amount float64) bool {
	if amount < 0 {
		return false
	}
	if amount == 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch c {
	case LTI:
		if b.availableLTI-amount < b.minimumLTI {
			return false
		}
		b.availableLTI -= amount
	default:
		if b.availableSTI-amount < b.minimumSTI {
			return false
		}
		b.availableSTI -= amount
	}
	return true
}

// Return credits amount back to the fund, clamped so available never
// exceeds total. Over-returning is absorbed, not an error: rent collected
// can slightly exceed what was originally lent when entities were
// stimulated independently.
func (b *Bank) Return(c Currency, amount float64) {
	if amount <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch c {
	case LTI:
		b.availableLTI += amount
		if b.availableLTI > b.totalLTI {
			b.availableLTI = b.totalLTI
		}
	default:
		b.availableSTI += amount
		if b.availableSTI > b.totalSTI {
			b.availableSTI = b.totalSTI
		}
	}
}

// Snapshot returns a consistent copy of the ledger state.
func (b *Bank) Snapshot() BankSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BankSnapshot{
		TotalSTI:     b.totalSTI,
		AvailableSTI: b.availableSTI,
		MinimumSTI:   b.minimumSTI,
		TotalLTI:     b.totalLTI,
		AvailableLTI: b.availableLTI,
		MinimumLTI:   b.minimumLTI,
	}
}
