package geometry

import "sync/atomic"

// Ledger counts geometry allocations and releases. A ledger is passed explicitly to whatever
// creates geometries (usually the boolean evaluator) so leak checks stay local to one composition.
type Ledger struct {
	allocated atomic.Int64
	released  atomic.Int64
}

// NewLedger creates an empty ledger.
//
// Returns:
//   - *Ledger: the ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) allocate() { l.allocated.Add(1) }
func (l *Ledger) release()  { l.released.Add(1) }

// Allocated returns the number of geometries created against this ledger.
func (l *Ledger) Allocated() int64 { return l.allocated.Load() }

// Released returns the number of those geometries that have been disposed.
func (l *Ledger) Released() int64 { return l.released.Load() }

// Live returns Allocated - Released.
func (l *Ledger) Live() int64 { return l.allocated.Load() - l.released.Load() }
