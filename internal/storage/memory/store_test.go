package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/fulfillment"
)

func seedBatch(t *testing.T, s *Store) *batches.Batch {
	t.Helper()
	b := &batches.Batch{ID: uuid.New(), BatchNumber: "BT-1", ManufacturerID: "m1", Status: batches.StatusCreated, CreatedAt: time.Now()}
	err := s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		return tx.InsertBatch(ctx, b)
	})
	if err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return b
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		if err := tx.UpdateBatchStatus(ctx, b.ID, batches.StatusCompleted); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got := mustBatch(t, s, b.ID)
	if got.Status != batches.StatusCreated {
		t.Errorf("status leaked from rolled back tx: %s", got.Status)
	}
	if s.Commits() != 1 {
		t.Errorf("commits = %d, want 1", s.Commits())
	}
}

func TestStore_InjectFault(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	boom := errors.New("disk full")
	s.InjectFault("UpdateBatchStatus", boom)

	err := s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		return tx.UpdateBatchStatus(ctx, b.ID, batches.StatusCompleted)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected fault, got %v", err)
	}

	s.InjectFault("UpdateBatchStatus", nil)
	err = s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		return tx.UpdateBatchStatus(ctx, b.ID, batches.StatusCompleted)
	})
	if err != nil {
		t.Fatalf("after clearing fault: %v", err)
	}
	if got := mustBatch(t, s, b.ID); got.Status != batches.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
}

func TestStore_InjectConflicts(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	s.InjectConflicts(1)

	write := func(ctx context.Context, tx fulfillment.Tx) error {
		return tx.UpdateBatchStatus(ctx, b.ID, batches.StatusInProduction)
	}
	if err := s.Update(context.Background(), write); !errors.Is(err, fulfillment.ErrSerialization) {
		t.Fatalf("expected serialization failure, got %v", err)
	}
	if got := mustBatch(t, s, b.ID); got.Status != batches.StatusCreated {
		t.Fatalf("conflicting tx was committed: %s", got.Status)
	}
	if err := s.Update(context.Background(), write); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	err := s.View(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		return tx.UpdateBatchStatus(ctx, b.ID, batches.StatusCompleted)
	})
	if !errors.Is(err, errReadOnly) {
		t.Fatalf("expected errReadOnly, got %v", err)
	}
}

func TestTx_UniqueConstraints(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	req := &materials.Request{ID: uuid.New(), BatchID: b.ID, Status: materials.RequestOpen}
	first := &materials.Bid{ID: uuid.New(), RequestID: req.ID, SupplierID: "s1", Status: bidding.StatusPending}
	second := &materials.Bid{ID: uuid.New(), RequestID: req.ID, SupplierID: "s2", Status: bidding.StatusPending}

	err := s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}
		if err := tx.InsertSupplierBid(ctx, first); err != nil {
			return err
		}
		return tx.InsertSupplierBid(ctx, second)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name string
		fn   func(ctx context.Context, tx fulfillment.Tx) error
	}{
		{"same supplier twice", func(ctx context.Context, tx fulfillment.Tx) error {
			dup := *first
			dup.ID = uuid.New()
			return tx.InsertSupplierBid(ctx, &dup)
		}},
		{"two accepted bids", func(ctx context.Context, tx fulfillment.Tx) error {
			if err := tx.UpdateSupplierBidStatus(ctx, first.ID, bidding.StatusAccepted); err != nil {
				return err
			}
			return tx.UpdateSupplierBidStatus(ctx, second.ID, bidding.StatusAccepted)
		}},
	}
	for _, c := range cases {
		err := s.Update(context.Background(), c.fn)
		if !errors.Is(err, fulfillment.ErrUniqueViolation) {
			t.Errorf("%s: expected ErrUniqueViolation, got %v", c.name, err)
		}
	}
}

func TestTx_CloseRequestOnlyOnce(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	req := &materials.Request{ID: uuid.New(), BatchID: b.ID, Status: materials.RequestOpen}
	err := s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}
		return tx.CloseRequest(ctx, req.ID, uuid.New())
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	err = s.Update(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		return tx.CloseRequest(ctx, req.ID, uuid.New())
	})
	if err == nil {
		t.Fatal("closing a closed request must fail")
	}
}

func mustBatch(t *testing.T, s *Store, id uuid.UUID) *batches.Batch {
	t.Helper()
	var b *batches.Batch
	err := s.View(context.Background(), func(ctx context.Context, tx fulfillment.Tx) error {
		var err error
		b, err = tx.GetBatch(ctx, id)
		return err
	})
	if err != nil || b == nil {
		t.Fatalf("get batch %s: %v", id, err)
	}
	return b
}

func TestTx_PartyListings(t *testing.T) {
	s := New()
	b := seedBatch(t, s)
	other := seedBatch(t, s)
	ctx := context.Background()
	err := s.Update(ctx, func(ctx context.Context, tx fulfillment.Tx) error {
		if err := tx.UpdateBatchStatus(ctx, other.ID, batches.StatusCompleted); err != nil {
			return err
		}
		for _, l := range []*logistics.Bid{
			{ID: uuid.New(), BatchID: b.ID, LogisticsID: "l1", Status: bidding.StatusPending},
			{ID: uuid.New(), BatchID: other.ID, LogisticsID: "l1", Status: bidding.StatusAccepted},
			{ID: uuid.New(), BatchID: b.ID, LogisticsID: "l2", Status: bidding.StatusPending},
		} {
			if err := tx.InsertLogisticsBid(ctx, l); err != nil {
				return err
			}
		}
		r := &materials.Request{ID: uuid.New(), BatchID: b.ID, Status: materials.RequestOpen}
		if err := tx.InsertRequest(ctx, r); err != nil {
			return err
		}
		return tx.InsertSupplierBid(ctx, &materials.Bid{ID: uuid.New(), RequestID: r.ID, SupplierID: "s1", Status: bidding.StatusPending})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = s.View(ctx, func(ctx context.Context, tx fulfillment.Tx) error {
		for _, c := range []struct {
			status bidding.Status
			want   int
		}{{"", 2}, {bidding.StatusAccepted, 1}, {bidding.StatusRejected, 0}} {
			got, err := tx.ListLogisticsBidsByProvider(ctx, "l1", c.status)
			if err != nil {
				return err
			}
			if len(got) != c.want {
				t.Errorf("l1 bids with status %q = %d, want %d", c.status, len(got), c.want)
			}
		}
		sb, err := tx.ListSupplierBidsBySupplier(ctx, "s1")
		if err != nil {
			return err
		}
		if len(sb) != 1 {
			t.Errorf("s1 bids = %d, want 1", len(sb))
		}
		all, err := tx.ListBatches(ctx, "")
		if err != nil {
			return err
		}
		none, err := tx.ListBatches(ctx, "m2")
		if err != nil {
			return err
		}
		if len(all) != 2 || len(none) != 0 {
			t.Errorf("batches = %d all, %d for m2", len(all), len(none))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
