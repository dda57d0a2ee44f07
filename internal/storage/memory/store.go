// Package memory is an in-process fulfillment.Store. Write transactions are
// serialized by a mutex and run against a private copy of the state that
// replaces the committed state only when the transaction succeeds.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/fulfillment"
)

var errReadOnly = errors.New("memory: write in read-only transaction")

type state struct {
	batches       table[batches.Batch]
	documents     table[batches.ComplianceDocument]
	requests      table[materials.Request]
	supplierBids  table[materials.Bid]
	logisticsBids table[logistics.Bid]
	shipments     table[logistics.Shipment]
}

func newState() *state {
	return &state{
		batches:       newTable[batches.Batch](),
		documents:     newTable[batches.ComplianceDocument](),
		requests:      newTable[materials.Request](),
		supplierBids:  newTable[materials.Bid](),
		logisticsBids: newTable[logistics.Bid](),
		shipments:     newTable[logistics.Shipment](),
	}
}

func (s *state) clone() *state {
	return &state{
		batches:       s.batches.clone(),
		documents:     s.documents.clone(),
		requests:      s.requests.clone(),
		supplierBids:  s.supplierBids.clone(),
		logisticsBids: s.logisticsBids.clone(),
		shipments:     s.shipments.clone(),
	}
}

type Store struct {
	mu    sync.RWMutex
	state *state

	faultMu   sync.Mutex
	faults    map[string]error
	conflicts int
	commits   int
}

func New() *Store {
	return &Store{state: newState(), faults: map[string]error{}}
}

var _ fulfillment.Store = (*Store)(nil)

// InjectFault makes every later call of the named Tx write method (e.g.
// "InsertShipment") fail with err. A nil err clears the fault.
func (s *Store) InjectFault(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// InjectConflicts makes the next n write transactions fail at commit with a
// serialization error, after running fn and discarding its writes.
func (s *Store) InjectConflicts(n int) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.conflicts = n
}

// Commits reports how many write transactions have committed.
func (s *Store) Commits() int {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.commits
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("memory: %s: %w", op, err)
	}
	return nil
}

func (s *Store) takeConflict() bool {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return true
	}
	return false
}

func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &tx{store: s, st: work, writable: true}); err != nil {
		return err
	}
	if s.takeConflict() {
		return fmt.Errorf("memory: %w", fulfillment.ErrSerialization)
	}
	s.state = work
	s.faultMu.Lock()
	s.commits++
	s.faultMu.Unlock()
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &tx{store: s, st: s.state})
}
