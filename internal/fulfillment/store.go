package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
)

// ErrSerialization must be returned (wrapped) by a Store when a transaction
// lost a serialization race and may be retried as a whole.
var ErrSerialization = errors.New("fulfillment: serialization failure")

// ErrUniqueViolation must be returned (wrapped) by a Store when an insert hit
// a uniqueness constraint, e.g. a second bid from the same party.
var ErrUniqueViolation = errors.New("fulfillment: unique violation")

// Store is the unit-of-work boundary. Update runs fn in one serializable
// read-write transaction that commits only if fn returns nil; View runs fn
// read-only. Getters return (nil, nil) when the row does not exist.
type Store interface {
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// LockBatch loads the batch and holds a write lock on it until the
	// transaction ends. Every mutation of a batch's subtree takes it first.
	LockBatch(ctx context.Context, id uuid.UUID) (*batches.Batch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*batches.Batch, error)
	// ListBatches lists every batch, or only manufacturerID's when it is
	// not empty.
	ListBatches(ctx context.Context, manufacturerID string) ([]batches.Batch, error)
	InsertBatch(ctx context.Context, b *batches.Batch) error
	UpdateBatchStatus(ctx context.Context, id uuid.UUID, status batches.Status) error
	SetSelectedLogisticsBid(ctx context.Context, batchID, bidID uuid.UUID) error
	ListLogisticsReadyBatches(ctx context.Context) ([]batches.Batch, error)
	InsertComplianceDocument(ctx context.Context, d *batches.ComplianceDocument) error
	ListComplianceDocuments(ctx context.Context, batchID uuid.UUID) ([]batches.ComplianceDocument, error)

	InsertRequest(ctx context.Context, r *materials.Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*materials.Request, error)
	ListRequests(ctx context.Context, batchID uuid.UUID) ([]materials.Request, error)
	CloseRequest(ctx context.Context, id, selectedBidID uuid.UUID) error

	InsertSupplierBid(ctx context.Context, b *materials.Bid) error
	GetSupplierBid(ctx context.Context, id uuid.UUID) (*materials.Bid, error)
	FindSupplierBid(ctx context.Context, requestID uuid.UUID, supplierID string) (*materials.Bid, error)
	ListSupplierBids(ctx context.Context, requestID uuid.UUID) ([]materials.Bid, error)
	ListSupplierBidsBySupplier(ctx context.Context, supplierID string) ([]materials.Bid, error)
	UpdateSupplierBidStatus(ctx context.Context, id uuid.UUID, status bidding.Status) error

	InsertLogisticsBid(ctx context.Context, b *logistics.Bid) error
	GetLogisticsBid(ctx context.Context, id uuid.UUID) (*logistics.Bid, error)
	FindLogisticsBid(ctx context.Context, batchID uuid.UUID, logisticsID string) (*logistics.Bid, error)
	ListLogisticsBids(ctx context.Context, batchID uuid.UUID) ([]logistics.Bid, error)
	// ListLogisticsBidsByProvider filters on status unless it is empty.
	ListLogisticsBidsByProvider(ctx context.Context, logisticsID string, status bidding.Status) ([]logistics.Bid, error)
	UpdateLogisticsBidStatus(ctx context.Context, id uuid.UUID, status bidding.Status) error

	InsertShipment(ctx context.Context, s *logistics.Shipment) error
	GetShipmentByBatch(ctx context.Context, batchID uuid.UUID) (*logistics.Shipment, error)
}
