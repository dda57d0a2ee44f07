package fulfillment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/fulfillment"
	"github.com/Spok95/batchflow/internal/storage/memory"
)

var clock = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	notes []fulfillment.Notification
}

func (r *recorder) Notify(_ context.Context, n fulfillment.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) kinds() []fulfillment.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fulfillment.NotificationKind, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Kind)
	}
	return out
}

type fixture struct {
	store *memory.Store
	eng   *fulfillment.Engine
	notes *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	rec := &recorder{}
	eng := fulfillment.New(s, slog.New(slog.NewTextHandler(io.Discard, nil)), fulfillment.Options{
		MaxAttempts: 3,
		RetryBase:   time.Millisecond,
		Notifier:    rec,
		Now:         func() time.Time { return clock },
	})
	return &fixture{store: s, eng: eng, notes: rec}
}

func requestSpec(name string) fulfillment.RequestSpec {
	return fulfillment.RequestSpec{
		MaterialName: name,
		Quantity:     100,
		Unit:         "kg",
		ClosingDate:  clock.Add(7 * 24 * time.Hour),
	}
}

// register creates a batch owned by "m1" with one request per material name.
func (f *fixture) register(t *testing.T, names ...string) *fulfillment.Registration {
	t.Helper()
	spec := fulfillment.BatchSpec{
		ManufacturerID:     "m1",
		ProductName:        "Paracetamol 500mg",
		Quantity:           1000,
		Unit:               "boxes",
		OriginAddress:      "Plant 4",
		DestinationAddress: "Central Warehouse",
	}
	for _, n := range names {
		spec.MaterialRequests = append(spec.MaterialRequests, requestSpec(n))
	}
	reg, err := f.eng.Registry.CreateBatch(context.Background(), spec)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return reg
}

func supplierTerms(price string) fulfillment.SupplierTerms {
	return fulfillment.SupplierTerms{
		Price:        decimal.RequireFromString(price),
		DeliveryDays: 5,
		ProposedDate: clock.Add(5 * 24 * time.Hour),
		ValidUntil:   clock.Add(30 * 24 * time.Hour),
	}
}

func logisticsTerms(price string) fulfillment.LogisticsTerms {
	return fulfillment.LogisticsTerms{
		Price:           decimal.RequireFromString(price),
		EstimatedHours:  36,
		PickupDate:      clock.Add(24 * time.Hour),
		DeliveryDate:    clock.Add(72 * time.Hour),
		VehicleType:     "Reefer Truck",
		SpecialHandling: "2-8C",
		Remarks:         "fragile",
		ValidUntil:      clock.Add(10 * 24 * time.Hour),
	}
}

func (f *fixture) supplierBid(t *testing.T, reqID uuid.UUID, supplier, price string) *materials.Bid {
	t.Helper()
	b, err := f.eng.SupplierBidding.SubmitBid(context.Background(), reqID, supplier, supplierTerms(price))
	if err != nil {
		t.Fatalf("SubmitBid(%s): %v", supplier, err)
	}
	return b
}

func (f *fixture) batch(t *testing.T, id uuid.UUID) *batches.Batch {
	t.Helper()
	b, err := f.eng.Registry.GetBatch(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	return b
}

func (f *fixture) detail(t *testing.T, id uuid.UUID) *fulfillment.BatchDetail {
	t.Helper()
	d, err := f.eng.Queries.BatchDetail(context.Background(), id)
	if err != nil {
		t.Fatalf("BatchDetail: %v", err)
	}
	return d
}

func wantKind(t *testing.T, err error, kind fulfillment.Kind, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var e *fulfillment.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *fulfillment.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", e.Kind, kind, err)
	}
	if reason != "" && e.Reason != reason {
		t.Fatalf("reason = %q, want %q", e.Reason, reason)
	}
}
