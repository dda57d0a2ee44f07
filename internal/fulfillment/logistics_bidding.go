package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/infra/metrics"
)

type LogisticsTerms struct {
	Price           decimal.Decimal
	EstimatedHours  int
	PickupDate      time.Time
	DeliveryDate    time.Time
	VehicleType     string
	Capacity        string
	Route           string
	SpecialHandling string
	Insurance       bool
	Remarks         string
	Emission        decimal.NullDecimal
	ValidUntil      time.Time
}

func (t LogisticsTerms) validate() error {
	switch {
	case !t.Price.IsPositive():
		return invalidArgument("bidPrice must be > 0")
	case t.EstimatedHours <= 0:
		return invalidArgument("estimatedTime must be > 0")
	case t.PickupDate.IsZero():
		return invalidArgument("pickupDate is required")
	case t.DeliveryDate.IsZero():
		return invalidArgument("deliveryDate is required")
	case t.DeliveryDate.Before(t.PickupDate):
		return invalidArgument("deliveryDate must not precede pickupDate")
	case t.ValidUntil.IsZero():
		return invalidArgument("validUntil is required")
	case t.Emission.Valid && t.Emission.Decimal.IsNegative():
		return invalidArgument("emission must be >= 0")
	}
	return nil
}

// LogisticsBidding accepts carrier bids on logistics-ready batches.
type LogisticsBidding struct{ r *runner }

// SubmitBid records a PENDING logistics bid. Checks run in order: the batch
// exists, none of its material requests is OPEN, no carrier has been
// awarded yet, and this provider has no bid on the batch.
func (s *LogisticsBidding) SubmitBid(ctx context.Context, batchID uuid.UUID, logisticsID string, terms LogisticsTerms) (*logistics.Bid, error) {
	if strings.TrimSpace(logisticsID) == "" {
		return nil, invalidArgument("logisticsId is required")
	}
	if err := terms.validate(); err != nil {
		return nil, err
	}
	var (
		out   *logistics.Bid
		batch *batches.Batch
	)
	err := s.r.update(ctx, "submit_logistics_bid", func(ctx context.Context, tx Tx) error {
		b, err := tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("batch %s not found", batchID)
		}
		requests, err := tx.ListRequests(ctx, batchID)
		if err != nil {
			return err
		}
		if !materials.AllClosed(requests) {
			return invalidState(ReasonMaterialsPending)
		}
		if b.LogisticsAwarded() {
			return invalidState(ReasonLogisticsAwarded)
		}
		existing, err := tx.FindLogisticsBid(ctx, batchID, logisticsID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict(ReasonDuplicateBid)
		}
		now := s.r.now()
		bid := &logistics.Bid{
			ID:              uuid.New(),
			BatchID:         batchID,
			LogisticsID:     logisticsID,
			Price:           terms.Price,
			EstimatedHours:  terms.EstimatedHours,
			PickupDate:      terms.PickupDate,
			DeliveryDate:    terms.DeliveryDate,
			VehicleType:     terms.VehicleType,
			Capacity:        terms.Capacity,
			Route:           terms.Route,
			SpecialHandling: terms.SpecialHandling,
			Insurance:       terms.Insurance,
			Remarks:         terms.Remarks,
			Emission:        terms.Emission,
			ValidUntil:      terms.ValidUntil,
			Status:          bidding.StatusPending,
			SubmittedAt:     now,
			UpdatedAt:       now,
		}
		if err := tx.InsertLogisticsBid(ctx, bid); err != nil {
			if errors.Is(err, ErrUniqueViolation) {
				return conflict(ReasonDuplicateBid)
			}
			return fmt.Errorf("insert logistics bid: %w", err)
		}
		out, batch = bid, b
		return nil
	})
	metrics.BidsSubmitted.WithLabelValues(string(StageLogistics), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.r.log.Info("logistics bid submitted", "bid_id", out.ID, "batch_id", batchID, "logistics_id", logisticsID)
	s.r.notify(ctx, Notification{
		Kind:           NoteBidSubmitted,
		Stage:          StageLogistics,
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ManufacturerID: batch.ManufacturerID,
		BidID:          out.ID,
		Party:          logisticsID,
	})
	return out, nil
}

// WithdrawBid lets a logistics provider pull its own PENDING bid.
func (s *LogisticsBidding) WithdrawBid(ctx context.Context, bidID uuid.UUID, logisticsID string) (*logistics.Bid, error) {
	var (
		out   *logistics.Bid
		batch *batches.Batch
	)
	err := s.r.update(ctx, "withdraw_logistics_bid", func(ctx context.Context, tx Tx) error {
		bid, b, err := lockLogisticsBid(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if bid.LogisticsID != logisticsID {
			return newError(KindUnauthorized, ReasonNotBidder)
		}
		next, err := bid.Status.Transition(bidding.EventWithdraw)
		if err != nil {
			return invalidState(ReasonAlreadyProcessed)
		}
		if err := tx.UpdateLogisticsBidStatus(ctx, bid.ID, next); err != nil {
			return err
		}
		bid.Status = next
		out, batch = bid, b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.r.log.Info("logistics bid withdrawn", "bid_id", bidID, "logistics_id", logisticsID)
	s.r.notify(ctx, Notification{
		Kind:           NoteBidWithdrawn,
		Stage:          StageLogistics,
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ManufacturerID: batch.ManufacturerID,
		BidID:          out.ID,
		Party:          logisticsID,
	})
	return out, nil
}

func lockLogisticsBid(ctx context.Context, tx Tx, bidID uuid.UUID) (*logistics.Bid, *batches.Batch, error) {
	bid, err := tx.GetLogisticsBid(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}
	if bid == nil {
		return nil, nil, notFound("logistics bid %s not found", bidID)
	}
	b, err := tx.LockBatch(ctx, bid.BatchID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, notFound("batch %s not found", bid.BatchID)
	}
	// Same re-read as lockSupplierBid.
	bid, err = tx.GetLogisticsBid(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}
	if bid == nil {
		return nil, nil, notFound("logistics bid %s not found", bidID)
	}
	return bid, b, nil
}
