package fulfillment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
)

// Queries are read projections; nothing here feeds a decision.
type Queries struct{ r *runner }

type BatchDetail struct {
	Batch     batches.Batch
	Requests  []materials.Request
	Documents []batches.ComplianceDocument
	Shipment  *logistics.Shipment
	Emissions Emissions
}

// Emissions is the batch's transport footprint in kg CO2e. Only the awarded
// carrier's declared figure counts.
type Emissions struct {
	Logistics       decimal.Decimal
	HasLogisticsBid bool
}

// SupplierBidListing is a supplier bid with the request and batch it targets.
type SupplierBidListing struct {
	Bid         materials.Bid
	Request     materials.Request
	BatchNumber string
	ProductName string
}

type RequestBids struct {
	Request materials.Request
	Bids    []materials.Bid
}

func (q *Queries) BatchDetail(ctx context.Context, id uuid.UUID) (*BatchDetail, error) {
	var out *BatchDetail
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.GetBatch(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("batch %s not found", id)
		}
		d := &BatchDetail{Batch: *b}
		if d.Requests, err = tx.ListRequests(ctx, id); err != nil {
			return err
		}
		if d.Documents, err = tx.ListComplianceDocuments(ctx, id); err != nil {
			return err
		}
		if d.Shipment, err = tx.GetShipmentByBatch(ctx, id); err != nil {
			return err
		}
		if b.SelectedLogisticsBidID != nil {
			bid, err := tx.GetLogisticsBid(ctx, *b.SelectedLogisticsBidID)
			if err != nil {
				return err
			}
			d.Emissions.HasLogisticsBid = true
			if bid != nil && bid.Emission.Valid {
				d.Emissions.Logistics = bid.Emission.Decimal
			}
		}
		out = d
		return nil
	})
	return out, err
}

// MaterialBids returns the batch's supplier bids grouped by request.
func (q *Queries) MaterialBids(ctx context.Context, batchID uuid.UUID) ([]RequestBids, error) {
	var out []RequestBids
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("batch %s not found", batchID)
		}
		reqs, err := tx.ListRequests(ctx, batchID)
		if err != nil {
			return err
		}
		out = make([]RequestBids, 0, len(reqs))
		for _, r := range reqs {
			bids, err := tx.ListSupplierBids(ctx, r.ID)
			if err != nil {
				return err
			}
			out = append(out, RequestBids{Request: r, Bids: bids})
		}
		return nil
	})
	return out, err
}

func (q *Queries) LogisticsBids(ctx context.Context, batchID uuid.UUID) ([]logistics.Bid, error) {
	var out []logistics.Bid
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("batch %s not found", batchID)
		}
		out, err = tx.ListLogisticsBids(ctx, batchID)
		return err
	})
	return out, err
}

func (q *Queries) Shipment(ctx context.Context, batchID uuid.UUID) (*logistics.Shipment, error) {
	var out *logistics.Shipment
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.GetShipmentByBatch(ctx, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, notFound("no shipment for batch %s", batchID)
	}
	return out, nil
}

// LogisticsReady lists batches with no open material request and no awarded
// carrier, i.e. the ones carriers may bid on.
func (q *Queries) LogisticsReady(ctx context.Context) ([]batches.Batch, error) {
	var out []batches.Batch
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListLogisticsReadyBatches(ctx)
		return err
	})
	return out, err
}

// Batches lists every batch, newest first in Postgres, or only those of
// manufacturerID when it is set.
func (q *Queries) Batches(ctx context.Context, manufacturerID string) ([]batches.Batch, error) {
	var out []batches.Batch
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListBatches(ctx, strings.TrimSpace(manufacturerID))
		return err
	})
	return out, err
}

func (q *Queries) SupplierBidsBySupplier(ctx context.Context, supplierID string) ([]SupplierBidListing, error) {
	if strings.TrimSpace(supplierID) == "" {
		return nil, invalidArgument("supplierId is required")
	}
	var out []SupplierBidListing
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		bids, err := tx.ListSupplierBidsBySupplier(ctx, supplierID)
		if err != nil {
			return err
		}
		requests := make(map[uuid.UUID]*materials.Request)
		owners := make(map[uuid.UUID]*batches.Batch)
		out = make([]SupplierBidListing, 0, len(bids))
		for _, bid := range bids {
			req, ok := requests[bid.RequestID]
			if !ok {
				if req, err = tx.GetRequest(ctx, bid.RequestID); err != nil {
					return err
				}
				if req == nil {
					return notFound("material request %s not found", bid.RequestID)
				}
				requests[bid.RequestID] = req
			}
			b, ok := owners[req.BatchID]
			if !ok {
				if b, err = tx.GetBatch(ctx, req.BatchID); err != nil {
					return err
				}
				if b == nil {
					return notFound("batch %s not found", req.BatchID)
				}
				owners[req.BatchID] = b
			}
			out = append(out, SupplierBidListing{
				Bid:         bid,
				Request:     *req,
				BatchNumber: b.BatchNumber,
				ProductName: b.ProductName,
			})
		}
		return nil
	})
	return out, err
}

// LogisticsBidsByProvider lists a carrier's bids. An empty status matches
// every status; anything else must name one.
func (q *Queries) LogisticsBidsByProvider(ctx context.Context, logisticsID, status string) ([]logistics.Bid, error) {
	if strings.TrimSpace(logisticsID) == "" {
		return nil, invalidArgument("logisticsId is required")
	}
	var st bidding.Status
	if strings.TrimSpace(status) != "" {
		var err error
		if st, err = bidding.ParseStatus(status); err != nil {
			return nil, invalidArgument("unknown bid status %q", status)
		}
	}
	var out []logistics.Bid
	err := q.r.view(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListLogisticsBidsByProvider(ctx, logisticsID, st)
		return err
	})
	return out, err
}
