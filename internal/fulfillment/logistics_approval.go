package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/infra/metrics"
)

const (
	defaultFromAddress = "Manufacturer Location"
	defaultToAddress   = "Destination Address"
)

// LogisticsApproval resolves logistics bids; acceptance locks the batch to
// the winning carrier and materializes its Shipment.
type LogisticsApproval struct{ r *runner }

type LogisticsDecision struct {
	Plan     Plan
	Bid      logistics.Bid
	Outbid   []logistics.Bid
	Shipment *logistics.Shipment
}

// PlanLogisticsResolution computes every transition of a logistics bid
// decision without writing. siblings holds all bids of the batch.
func PlanLogisticsResolution(
	batch *batches.Batch,
	bid *logistics.Bid,
	siblings []logistics.Bid,
	requests []materials.Request,
	manufacturerID string,
	action bidding.Action,
	now time.Time,
) (*LogisticsDecision, error) {
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

	d := &LogisticsDecision{Bid: *bid}
	d.Bid.Status = next
	d.Plan.add(SetLogisticsBidStatus{BidID: bid.ID, From: bid.Status, To: next})
	if action != bidding.ActionAccept {
		return d, nil
	}

	if batch.LogisticsAwarded() {
		return nil, invalidState(ReasonLogisticsAwarded)
	}
	if !materials.AllClosed(requests) {
		return nil, invalidState(ReasonMaterialsPending)
	}
	inTransit, err := batch.Status.Transition(batches.EventLogisticsAwarded)
	if err != nil {
		return nil, invalidState(fmt.Sprintf("batch status %s does not allow a logistics award", batch.Status))
	}
	d.Plan.add(SelectLogisticsBid{BatchID: batch.ID, BidID: bid.ID})
	d.Plan.add(SetBatchStatus{BatchID: batch.ID, From: batch.Status, To: inTransit})

	for _, sib := range siblings {
		if sib.ID == bid.ID || sib.Status != bidding.StatusPending {
			continue
		}
		lost, err := sib.Status.Transition(bidding.EventOutbid)
		if err != nil {
			return nil, err
		}
		d.Plan.add(SetLogisticsBidStatus{BidID: sib.ID, From: sib.Status, To: lost})
		sib.Status = lost
		d.Outbid = append(d.Outbid, sib)
	}

	d.Shipment = newShipment(batch, bid, now)
	d.Plan.add(CreateShipment{Shipment: d.Shipment})
	return d, nil
}

func newShipment(batch *batches.Batch, bid *logistics.Bid, now time.Time) *logistics.Shipment {
	from, to := batch.OriginAddress, batch.DestinationAddress
	if from == "" {
		from = defaultFromAddress
	}
	if to == "" {
		to = defaultToAddress
	}
	var modes []string
	if bid.VehicleType != "" {
		modes = []string{strings.ToLower(bid.VehicleType)}
	}
	return &logistics.Shipment{
		ID:                uuid.New(),
		ShipmentNumber:    fmt.Sprintf("SH-%d-%s", now.UnixMilli(), batch.BatchNumber),
		BatchID:           batch.ID,
		LogisticsID:       bid.LogisticsID,
		BidID:             bid.ID,
		FromAddress:       from,
		ToAddress:         to,
		EstimatedDelivery: bid.DeliveryDate,
		Status:            logistics.ShipmentPending,
		Temperature:       bid.SpecialHandling,
		SpecialNotes:      bid.Remarks,
		TransportModes:    modes,
		CreatedAt:         now,
	}
}

// ResolveBid accepts or rejects a logistics bid. Acceptance is all or
// nothing: if any write fails, the bid stays PENDING and the batch unchanged.
func (l *LogisticsApproval) ResolveBid(ctx context.Context, bidID uuid.UUID, manufacturerID string, action bidding.Action) (*logistics.Bid, *logistics.Shipment, error) {
	var (
		d     *LogisticsDecision
		batch *batches.Batch
	)
	err := l.r.update(ctx, "resolve_logistics_bid", func(ctx context.Context, tx Tx) error {
		bid, b, err := lockLogisticsBid(ctx, tx, bidID)
		if err != nil {
			return err
		}
		siblings, err := tx.ListLogisticsBids(ctx, b.ID)
		if err != nil {
			return err
		}
		requests, err := tx.ListRequests(ctx, b.ID)
		if err != nil {
			return err
		}
		dec, err := PlanLogisticsResolution(b, bid, siblings, requests, manufacturerID, action, l.r.now())
		if err != nil {
			return err
		}
		if err := dec.Plan.Apply(ctx, tx); err != nil {
			return err
		}
		d, batch = dec, b
		return nil
	})
	metrics.BidsResolved.WithLabelValues(string(StageLogistics), string(action), outcome(err)).Inc()
	if err != nil {
		l.r.log.Info("logistics bid resolution refused", "bid_id", bidID, "action", action, "err", err)
		return nil, nil, err
	}

	l.r.log.Info("logistics bid resolved",
		"bid_id", bidID,
		"batch_id", batch.ID,
		"action", action,
		"outbid", len(d.Outbid),
		"shipment_created", d.Shipment != nil,
	)
	l.announce(ctx, batch, d)
	return &d.Bid, d.Shipment, nil
}

func (l *LogisticsApproval) announce(ctx context.Context, batch *batches.Batch, d *LogisticsDecision) {
	base := Notification{
		Stage:          StageLogistics,
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ManufacturerID: batch.ManufacturerID,
		BidID:          d.Bid.ID,
	}
	n := base
	n.Kind, n.Party, n.Outcome = NoteBidResolved, d.Bid.LogisticsID, string(d.Bid.Status)
	l.r.notify(ctx, n)
	if len(d.Outbid) > 0 {
		n = base
		n.Kind = NoteBidsOutbid
		for _, b := range d.Outbid {
			n.Outbid = append(n.Outbid, b.LogisticsID)
		}
		l.r.notify(ctx, n)
	}
	if d.Shipment != nil {
		metrics.ShipmentsCreated.Inc()
		n = base
		n.Kind, n.Party, n.ShipmentNumber = NoteShipmentCreated, d.Shipment.LogisticsID, d.Shipment.ShipmentNumber
		l.r.notify(ctx, n)
	}
}
