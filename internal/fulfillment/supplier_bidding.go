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
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/infra/metrics"
)

type SupplierTerms struct {
	Price             decimal.Decimal
	DeliveryDays      int
	ProposedDate      time.Time
	ValidUntil        time.Time
	Remarks           string
	Certifications    []string
	ComplianceDocURLs []string
	PaymentTerms      string
	WarrantyMonths    *int
}

func (t SupplierTerms) validate() error {
	switch {
	case !t.Price.IsPositive():
		return invalidArgument("bidPrice must be > 0")
	case t.DeliveryDays <= 0:
		return invalidArgument("deliveryTimeline must be > 0")
	case t.ProposedDate.IsZero():
		return invalidArgument("proposedDate is required")
	case t.ValidUntil.IsZero():
		return invalidArgument("validUntil is required")
	}
	return nil
}

// SupplierBidding accepts supplier bids on open material requests.
type SupplierBidding struct{ r *runner }

// SubmitBid records a PENDING bid. Checks run in order: the request exists,
// it is OPEN, and the supplier has no bid on it yet.
func (s *SupplierBidding) SubmitBid(ctx context.Context, requestID uuid.UUID, supplierID string, terms SupplierTerms) (*materials.Bid, error) {
	if strings.TrimSpace(supplierID) == "" {
		return nil, invalidArgument("supplierId is required")
	}
	if err := terms.validate(); err != nil {
		return nil, err
	}
	var (
		out   *materials.Bid
		batch *batches.Batch
	)
	err := s.r.update(ctx, "submit_supplier_bid", func(ctx context.Context, tx Tx) error {
		req, b, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != materials.RequestOpen {
			return invalidState(ReasonRequestClosed)
		}
		existing, err := tx.FindSupplierBid(ctx, requestID, supplierID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict(ReasonDuplicateBid)
		}
		now := s.r.now()
		bid := &materials.Bid{
			ID:                uuid.New(),
			RequestID:         requestID,
			SupplierID:        supplierID,
			Price:             terms.Price,
			DeliveryDays:      terms.DeliveryDays,
			ProposedDate:      terms.ProposedDate,
			ValidUntil:        terms.ValidUntil,
			Remarks:           terms.Remarks,
			Certifications:    terms.Certifications,
			ComplianceDocURLs: terms.ComplianceDocURLs,
			PaymentTerms:      terms.PaymentTerms,
			WarrantyMonths:    terms.WarrantyMonths,
			Status:            bidding.StatusPending,
			SubmittedAt:       now,
			UpdatedAt:         now,
		}
		if err := tx.InsertSupplierBid(ctx, bid); err != nil {
			if errors.Is(err, ErrUniqueViolation) {
				return conflict(ReasonDuplicateBid)
			}
			return fmt.Errorf("insert supplier bid: %w", err)
		}
		out, batch = bid, b
		return nil
	})
	metrics.BidsSubmitted.WithLabelValues(string(StageMaterial), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.r.log.Info("supplier bid submitted", "bid_id", out.ID, "request_id", requestID, "supplier_id", supplierID)
	s.r.notify(ctx, Notification{
		Kind:           NoteBidSubmitted,
		Stage:          StageMaterial,
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ManufacturerID: batch.ManufacturerID,
		BidID:          out.ID,
		Party:          supplierID,
	})
	return out, nil
}

// WithdrawBid lets a supplier pull its own PENDING bid.
func (s *SupplierBidding) WithdrawBid(ctx context.Context, bidID uuid.UUID, supplierID string) (*materials.Bid, error) {
	var (
		out   *materials.Bid
		batch *batches.Batch
	)
	err := s.r.update(ctx, "withdraw_supplier_bid", func(ctx context.Context, tx Tx) error {
		bid, _, b, err := lockSupplierBid(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if bid.SupplierID != supplierID {
			return newError(KindUnauthorized, ReasonNotBidder)
		}
		next, err := bid.Status.Transition(bidding.EventWithdraw)
		if err != nil {
			return invalidState(ReasonAlreadyProcessed)
		}
		if err := tx.UpdateSupplierBidStatus(ctx, bid.ID, next); err != nil {
			return err
		}
		bid.Status = next
		out, batch = bid, b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.r.log.Info("supplier bid withdrawn", "bid_id", bidID, "supplier_id", supplierID)
	s.r.notify(ctx, Notification{
		Kind:           NoteBidWithdrawn,
		Stage:          StageMaterial,
		BatchID:        batch.ID,
		BatchNumber:    batch.BatchNumber,
		ManufacturerID: batch.ManufacturerID,
		BidID:          out.ID,
		Party:          supplierID,
	})
	return out, nil
}

// lockRequest locks the owning batch before re-reading the request, so
// writers on one batch queue behind each other. A queued Postgres writer
// still reads its original snapshot and is rerun once its first write on a
// row changed since then fails with a serialization error.
func lockRequest(ctx context.Context, tx Tx, requestID uuid.UUID) (*materials.Request, *batches.Batch, error) {
	req, err := tx.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, notFound("material request %s not found", requestID)
	}
	b, err := tx.LockBatch(ctx, req.BatchID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, notFound("batch %s not found", req.BatchID)
	}
	req, err = tx.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, notFound("material request %s not found", requestID)
	}
	return req, b, nil
}

func lockSupplierBid(ctx context.Context, tx Tx, bidID uuid.UUID) (*materials.Bid, *materials.Request, *batches.Batch, error) {
	bid, err := tx.GetSupplierBid(ctx, bidID)
	if err != nil {
		return nil, nil, nil, err
	}
	if bid == nil {
		return nil, nil, nil, notFound("supplier bid %s not found", bidID)
	}
	req, b, err := lockRequest(ctx, tx, bid.RequestID)
	if err != nil {
		return nil, nil, nil, err
	}
	// Re-read after the batch lock. The memory store sees the latest commit
	// here. Postgres keeps the first snapshot, so a racing writer instead
	// fails the later status UPDATE with 40001 and runner.update reruns fn.
	bid, err = tx.GetSupplierBid(ctx, bidID)
	if err != nil {
		return nil, nil, nil, err
	}
	if bid == nil {
		return nil, nil, nil, notFound("supplier bid %s not found", bidID)
	}
	return bid, req, b, nil
}
