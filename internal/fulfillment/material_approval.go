package fulfillment

import (
	"context"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/infra/metrics"
)

// MaterialApproval resolves supplier bids and advances the batch to the
// logistics stage once every material request is closed.
type MaterialApproval struct{ r *runner }

type MaterialDecision struct {
	Plan   Plan
	Bid    materials.Bid
	Outbid []materials.Bid
	// Advanced is set when this decision closed the batch's last open request
	// and moved the batch to COMPLETED.
	Advanced bool
	// Stalled is set when all requests are closed but the batch status (e.g.
	// after a manual override) does not accept the materials-sourced step.
	Stalled bool
}

// PlanMaterialResolution computes every transition of a supplier bid
// decision from a consistent snapshot without writing anything.
//
// requests must hold all material requests of the batch; siblings all bids
// of req, including bid itself.
func PlanMaterialResolution(
	batch *batches.Batch,
	req *materials.Request,
	bid *materials.Bid,
	siblings []materials.Bid,
	requests []materials.Request,
	manufacturerID string,
	action bidding.Action,
) (*MaterialDecision, error) {
	if batch.ManufacturerID != manufacturerID {
		return nil, newError(KindUnauthorized, ReasonNotOwner)
	}
	if bid.Status != bidding.StatusPending {
		return nil, invalidState(ReasonAlreadyProcessed)
	}
	next, err := bid.Status.Transition(action.Event())
	if err != nil {
		return nil, invalidState(ReasonAlreadyProcessed)
	}

	d := &MaterialDecision{Bid: *bid}
	d.Bid.Status = next
	d.Plan.add(SetSupplierBidStatus{BidID: bid.ID, From: bid.Status, To: next})
	if action != bidding.ActionAccept {
		return d, nil
	}

	closed, err := req.Status.Transition(materials.EventAwarded)
	if err != nil {
		return nil, invalidState(ReasonRequestClosed)
	}
	d.Plan.add(CloseRequest{RequestID: req.ID, SelectedBidID: bid.ID})

	for _, sib := range siblings {
		if sib.ID == bid.ID || sib.Status != bidding.StatusPending {
			continue
		}
		lost, err := sib.Status.Transition(bidding.EventOutbid)
		if err != nil {
			return nil, err
		}
		d.Plan.add(SetSupplierBidStatus{BidID: sib.ID, From: sib.Status, To: lost})
		sib.Status = lost
		d.Outbid = append(d.Outbid, sib)
	}

	after := make([]materials.Request, len(requests))
	copy(after, requests)
	for i := range after {
		if after[i].ID == req.ID {
			after[i].Status = closed
		}
	}
	if materials.AllClosed(after) {
		completed, err := batch.Status.Transition(batches.EventMaterialsSourced)
		if err != nil {
			d.Stalled = true
			return d, nil
		}
		d.Plan.add(SetBatchStatus{BatchID: batch.ID, From: batch.Status, To: completed})
		d.Advanced = true
	}
	return d, nil
}

// ResolveBid accepts or rejects a supplier bid atomically. A second call on
// the same bid fails with INVALID_STATE and changes nothing.
func (m *MaterialApproval) ResolveBid(ctx context.Context, bidID uuid.UUID, manufacturerID string, action bidding.Action) (*materials.Bid, error) {
	var (
		d     *MaterialDecision
		batch *batches.Batch
	)
	err := m.r.update(ctx, "resolve_supplier_bid", func(ctx context.Context, tx Tx) error {
		bid, req, b, err := lockSupplierBid(ctx, tx, bidID)
		if err != nil {
			return err
		}
		siblings, err := tx.ListSupplierBids(ctx, req.ID)
		if err != nil {
			return err
		}
		requests, err := tx.ListRequests(ctx, b.ID)
		if err != nil {
			return err
		}
		dec, err := PlanMaterialResolution(b, req, bid, siblings, requests, manufacturerID, action)
		if err != nil {
			return err
		}
		if err := dec.Plan.Apply(ctx, tx); err != nil {
			return err
		}
		d, batch = dec, b
		return nil
	})
	metrics.BidsResolved.WithLabelValues(string(StageMaterial), string(action), outcome(err)).Inc()
	if err != nil {
		m.r.log.Info("supplier bid resolution refused", "bid_id", bidID, "action", action, "err", err)
		return nil, err
	}

	m.r.log.Info("supplier bid resolved",
		"bid_id", bidID,
		"batch_id", batch.ID,
		"action", action,
		"outbid", len(d.Outbid),
		"batch_advanced", d.Advanced,
	)
	if d.Stalled {
		m.r.log.Warn("all material requests closed but batch status blocks stage advance",
			"batch_id", batch.ID, "status", batch.Status)
	}
	m.announce(ctx, batch, d)
	return &d.Bid, nil
}

func (m *MaterialApproval) announce(ctx context.Context, batch *batches.Batch, d *MaterialDecision) {
	base := Notification{
		Stage:          StageMaterial,
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ManufacturerID: batch.ManufacturerID,
	}
	n := base
	n.Kind, n.BidID, n.Party, n.Outcome = NoteBidResolved, d.Bid.ID, d.Bid.SupplierID, string(d.Bid.Status)
	m.r.notify(ctx, n)
	if len(d.Outbid) > 0 {
		n = base
		n.Kind, n.BidID = NoteBidsOutbid, d.Bid.ID
		for _, b := range d.Outbid {
			n.Outbid = append(n.Outbid, b.SupplierID)
		}
		m.r.notify(ctx, n)
	}
	if d.Advanced {
		metrics.StageAdvances.Inc()
		n = base
		n.Kind, n.Stage = NoteLogisticsOpen, StageLogistics
		m.r.notify(ctx, n)
	}
}
