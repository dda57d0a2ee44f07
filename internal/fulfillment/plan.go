package fulfillment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
)

// Change is one state transition of a resolution. Orchestrators compute the
// full list first and only then apply it inside the open transaction.
type Change interface {
	Apply(ctx context.Context, tx Tx) error
	String() string
}

type Plan struct {
	Changes []Change
}

func (p *Plan) add(c Change) { p.Changes = append(p.Changes, c) }

// Apply writes every change in order and stops at the first failure; the
// caller's transaction rolls the rest back.
func (p *Plan) Apply(ctx context.Context, tx Tx) error {
	for _, c := range p.Changes {
		if err := c.Apply(ctx, tx); err != nil {
			return fmt.Errorf("apply %s: %w", c, err)
		}
	}
	return nil
}

type SetSupplierBidStatus struct {
	BidID    uuid.UUID
	From, To bidding.Status
}

func (c SetSupplierBidStatus) Apply(ctx context.Context, tx Tx) error {
	return tx.UpdateSupplierBidStatus(ctx, c.BidID, c.To)
}

func (c SetSupplierBidStatus) String() string {
	return fmt.Sprintf("supplier bid %s %s->%s", c.BidID, c.From, c.To)
}

type CloseRequest struct {
	RequestID     uuid.UUID
	SelectedBidID uuid.UUID
}

func (c CloseRequest) Apply(ctx context.Context, tx Tx) error {
	return tx.CloseRequest(ctx, c.RequestID, c.SelectedBidID)
}

func (c CloseRequest) String() string {
	return fmt.Sprintf("close request %s with bid %s", c.RequestID, c.SelectedBidID)
}

type SetBatchStatus struct {
	BatchID  uuid.UUID
	From, To batches.Status
}

func (c SetBatchStatus) Apply(ctx context.Context, tx Tx) error {
	return tx.UpdateBatchStatus(ctx, c.BatchID, c.To)
}

func (c SetBatchStatus) String() string {
	return fmt.Sprintf("batch %s %s->%s", c.BatchID, c.From, c.To)
}

type SelectLogisticsBid struct {
	BatchID uuid.UUID
	BidID   uuid.UUID
}

func (c SelectLogisticsBid) Apply(ctx context.Context, tx Tx) error {
	return tx.SetSelectedLogisticsBid(ctx, c.BatchID, c.BidID)
}

func (c SelectLogisticsBid) String() string {
	return fmt.Sprintf("batch %s selects logistics bid %s", c.BatchID, c.BidID)
}

type SetLogisticsBidStatus struct {
	BidID    uuid.UUID
	From, To bidding.Status
}

func (c SetLogisticsBidStatus) Apply(ctx context.Context, tx Tx) error {
	return tx.UpdateLogisticsBidStatus(ctx, c.BidID, c.To)
}

func (c SetLogisticsBidStatus) String() string {
	return fmt.Sprintf("logistics bid %s %s->%s", c.BidID, c.From, c.To)
}

type CreateShipment struct {
	Shipment *logistics.Shipment
}

func (c CreateShipment) Apply(ctx context.Context, tx Tx) error {
	return tx.InsertShipment(ctx, c.Shipment)
}

func (c CreateShipment) String() string {
	return fmt.Sprintf("create shipment %s for batch %s", c.Shipment.ShipmentNumber, c.Shipment.BatchID)
}
