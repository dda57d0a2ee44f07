package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/fulfillment"
)

type tx struct {
	store    *Store
	st       *state
	writable bool
}

var _ fulfillment.Tx = (*tx)(nil)

func (t *tx) write(op string) error {
	if !t.writable {
		return errReadOnly
	}
	return t.store.fault(op)
}

func missing(kind string, id uuid.UUID) error {
	return fmt.Errorf("memory: %s %s does not exist", kind, id)
}

func unique(what string) error {
	return fmt.Errorf("%w: %s", fulfillment.ErrUniqueViolation, what)
}

/* batches */

func (t *tx) LockBatch(ctx context.Context, id uuid.UUID) (*batches.Batch, error) {
	return t.GetBatch(ctx, id)
}

func (t *tx) GetBatch(_ context.Context, id uuid.UUID) (*batches.Batch, error) {
	b, ok := t.st.batches.get(id)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *tx) ListBatches(_ context.Context, manufacturerID string) ([]batches.Batch, error) {
	return t.st.batches.filter(func(b batches.Batch) bool {
		return manufacturerID == "" || b.ManufacturerID == manufacturerID
	}), nil
}

func (t *tx) InsertBatch(_ context.Context, b *batches.Batch) error {
	if err := t.write("InsertBatch"); err != nil {
		return err
	}
	if _, ok := t.st.batches.get(b.ID); ok {
		return unique("batch id")
	}
	t.st.batches.insert(b.ID, *b)
	return nil
}

func (t *tx) UpdateBatchStatus(_ context.Context, id uuid.UUID, status batches.Status) error {
	if err := t.write("UpdateBatchStatus"); err != nil {
		return err
	}
	b, ok := t.st.batches.get(id)
	if !ok {
		return missing("batch", id)
	}
	b.Status = status
	t.st.batches.replace(id, b)
	return nil
}

func (t *tx) SetSelectedLogisticsBid(_ context.Context, batchID, bidID uuid.UUID) error {
	if err := t.write("SetSelectedLogisticsBid"); err != nil {
		return err
	}
	b, ok := t.st.batches.get(batchID)
	if !ok {
		return missing("batch", batchID)
	}
	if b.SelectedLogisticsBidID != nil {
		return fmt.Errorf("memory: batch %s already has a logistics bid", batchID)
	}
	id := bidID
	b.SelectedLogisticsBidID = &id
	t.st.batches.replace(batchID, b)
	return nil
}

func (t *tx) ListLogisticsReadyBatches(_ context.Context) ([]batches.Batch, error) {
	return t.st.batches.filter(func(b batches.Batch) bool {
		if b.LogisticsAwarded() {
			return false
		}
		switch b.Status {
		case batches.StatusRecalled, batches.StatusInTransit, batches.StatusShipped, batches.StatusDelivered:
			return false
		}
		open := t.st.requests.filter(func(r materials.Request) bool {
			return r.BatchID == b.ID && r.Status == materials.RequestOpen
		})
		return len(open) == 0
	}), nil
}

func (t *tx) InsertComplianceDocument(_ context.Context, d *batches.ComplianceDocument) error {
	if err := t.write("InsertComplianceDocument"); err != nil {
		return err
	}
	if _, ok := t.st.batches.get(d.BatchID); !ok {
		return missing("batch", d.BatchID)
	}
	t.st.documents.insert(d.ID, *d)
	return nil
}

func (t *tx) ListComplianceDocuments(_ context.Context, batchID uuid.UUID) ([]batches.ComplianceDocument, error) {
	return t.st.documents.filter(func(d batches.ComplianceDocument) bool { return d.BatchID == batchID }), nil
}

/* material requests */

func (t *tx) InsertRequest(_ context.Context, r *materials.Request) error {
	if err := t.write("InsertRequest"); err != nil {
		return err
	}
	if _, ok := t.st.batches.get(r.BatchID); !ok {
		return missing("batch", r.BatchID)
	}
	t.st.requests.insert(r.ID, *r)
	return nil
}

func (t *tx) GetRequest(_ context.Context, id uuid.UUID) (*materials.Request, error) {
	r, ok := t.st.requests.get(id)
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *tx) ListRequests(_ context.Context, batchID uuid.UUID) ([]materials.Request, error) {
	return t.st.requests.filter(func(r materials.Request) bool { return r.BatchID == batchID }), nil
}

func (t *tx) CloseRequest(_ context.Context, id, selectedBidID uuid.UUID) error {
	if err := t.write("CloseRequest"); err != nil {
		return err
	}
	r, ok := t.st.requests.get(id)
	if !ok {
		return missing("material request", id)
	}
	if r.Status != materials.RequestOpen || r.SelectedBidID != nil {
		return fmt.Errorf("memory: material request %s is not open", id)
	}
	bid := selectedBidID
	r.Status, r.SelectedBidID = materials.RequestClosed, &bid
	t.st.requests.replace(id, r)
	return nil
}

/* supplier bids */

func (t *tx) InsertSupplierBid(_ context.Context, b *materials.Bid) error {
	if err := t.write("InsertSupplierBid"); err != nil {
		return err
	}
	if _, ok := t.st.requests.get(b.RequestID); !ok {
		return missing("material request", b.RequestID)
	}
	dup := t.st.supplierBids.filter(func(x materials.Bid) bool {
		return x.RequestID == b.RequestID && x.SupplierID == b.SupplierID
	})
	if len(dup) > 0 {
		return unique("supplier_bids (material_request_id, supplier_id)")
	}
	t.st.supplierBids.insert(b.ID, *b)
	return nil
}

func (t *tx) GetSupplierBid(_ context.Context, id uuid.UUID) (*materials.Bid, error) {
	b, ok := t.st.supplierBids.get(id)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *tx) FindSupplierBid(_ context.Context, requestID uuid.UUID, supplierID string) (*materials.Bid, error) {
	found := t.st.supplierBids.filter(func(x materials.Bid) bool {
		return x.RequestID == requestID && x.SupplierID == supplierID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (t *tx) ListSupplierBids(_ context.Context, requestID uuid.UUID) ([]materials.Bid, error) {
	return t.st.supplierBids.filter(func(x materials.Bid) bool { return x.RequestID == requestID }), nil
}

func (t *tx) ListSupplierBidsBySupplier(_ context.Context, supplierID string) ([]materials.Bid, error) {
	return t.st.supplierBids.filter(func(x materials.Bid) bool { return x.SupplierID == supplierID }), nil
}

func (t *tx) UpdateSupplierBidStatus(_ context.Context, id uuid.UUID, status bidding.Status) error {
	if err := t.write("UpdateSupplierBidStatus"); err != nil {
		return err
	}
	b, ok := t.st.supplierBids.get(id)
	if !ok {
		return missing("supplier bid", id)
	}
	if status == bidding.StatusAccepted {
		winners := t.st.supplierBids.filter(func(x materials.Bid) bool {
			return x.RequestID == b.RequestID && x.ID != id && x.Status == bidding.StatusAccepted
		})
		if len(winners) > 0 {
			return unique("supplier_bids_one_accepted")
		}
	}
	b.Status = status
	t.st.supplierBids.replace(id, b)
	return nil
}

/* logistics bids and shipments */

func (t *tx) InsertLogisticsBid(_ context.Context, b *logistics.Bid) error {
	if err := t.write("InsertLogisticsBid"); err != nil {
		return err
	}
	if _, ok := t.st.batches.get(b.BatchID); !ok {
		return missing("batch", b.BatchID)
	}
	dup := t.st.logisticsBids.filter(func(x logistics.Bid) bool {
		return x.BatchID == b.BatchID && x.LogisticsID == b.LogisticsID
	})
	if len(dup) > 0 {
		return unique("logistics_bids (batch_id, logistics_id)")
	}
	t.st.logisticsBids.insert(b.ID, *b)
	return nil
}

func (t *tx) GetLogisticsBid(_ context.Context, id uuid.UUID) (*logistics.Bid, error) {
	b, ok := t.st.logisticsBids.get(id)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *tx) FindLogisticsBid(_ context.Context, batchID uuid.UUID, logisticsID string) (*logistics.Bid, error) {
	found := t.st.logisticsBids.filter(func(x logistics.Bid) bool {
		return x.BatchID == batchID && x.LogisticsID == logisticsID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (t *tx) ListLogisticsBids(_ context.Context, batchID uuid.UUID) ([]logistics.Bid, error) {
	return t.st.logisticsBids.filter(func(x logistics.Bid) bool { return x.BatchID == batchID }), nil
}

func (t *tx) ListLogisticsBidsByProvider(_ context.Context, logisticsID string, status bidding.Status) ([]logistics.Bid, error) {
	return t.st.logisticsBids.filter(func(x logistics.Bid) bool {
		return x.LogisticsID == logisticsID && (status == "" || x.Status == status)
	}), nil
}

func (t *tx) UpdateLogisticsBidStatus(_ context.Context, id uuid.UUID, status bidding.Status) error {
	if err := t.write("UpdateLogisticsBidStatus"); err != nil {
		return err
	}
	b, ok := t.st.logisticsBids.get(id)
	if !ok {
		return missing("logistics bid", id)
	}
	if status == bidding.StatusAccepted {
		winners := t.st.logisticsBids.filter(func(x logistics.Bid) bool {
			return x.BatchID == b.BatchID && x.ID != id && x.Status == bidding.StatusAccepted
		})
		if len(winners) > 0 {
			return unique("logistics_bids_one_accepted")
		}
	}
	b.Status = status
	t.st.logisticsBids.replace(id, b)
	return nil
}

func (t *tx) InsertShipment(_ context.Context, s *logistics.Shipment) error {
	if err := t.write("InsertShipment"); err != nil {
		return err
	}
	if _, ok := t.st.batches.get(s.BatchID); !ok {
		return missing("batch", s.BatchID)
	}
	if existing := t.st.shipments.filter(func(x logistics.Shipment) bool { return x.BatchID == s.BatchID }); len(existing) > 0 {
		return unique("shipments (batch_id)")
	}
	t.st.shipments.insert(s.ID, *s)
	return nil
}

func (t *tx) GetShipmentByBatch(_ context.Context, batchID uuid.UUID) (*logistics.Shipment, error) {
	found := t.st.shipments.filter(func(x logistics.Shipment) bool { return x.BatchID == batchID })
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}
