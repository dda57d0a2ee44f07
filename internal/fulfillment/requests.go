package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/materials"
)

type RequestSpec struct {
	MaterialName     string
	Description      string
	Quantity         int
	Unit             string
	BudgetRange      string
	Specifications   string
	QualityStandards []string
	CertificationReq []string
	ClosingDate      time.Time
}

func (s RequestSpec) validate() error {
	switch {
	case strings.TrimSpace(s.MaterialName) == "":
		return invalidArgument("materialName is required")
	case s.Quantity <= 0:
		return invalidArgument("quantity must be > 0")
	case strings.TrimSpace(s.Unit) == "":
		return invalidArgument("unit is required")
	case s.ClosingDate.IsZero():
		return invalidArgument("closingDate is required")
	}
	return nil
}

func (s RequestSpec) build(b *batches.Batch, now time.Time) *materials.Request {
	return &materials.Request{
		ID:               uuid.New(),
		BatchID:          b.ID,
		ManufacturerID:   b.ManufacturerID,
		MaterialName:     strings.TrimSpace(s.MaterialName),
		Description:      s.Description,
		Quantity:         s.Quantity,
		Unit:             s.Unit,
		BudgetRange:      s.BudgetRange,
		Specifications:   s.Specifications,
		QualityStandards: s.QualityStandards,
		CertificationReq: s.CertificationReq,
		ClosingDate:      s.ClosingDate,
		Status:           materials.RequestOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Requests manages the material requests of a batch.
type Requests struct{ r *runner }

// OpenRequest attaches a new OPEN request to a batch that is still sourcing.
func (m *Requests) OpenRequest(ctx context.Context, batchID uuid.UUID, spec RequestSpec) (*materials.Request, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	var out *materials.Request
	err := m.r.update(ctx, "open_request", func(ctx context.Context, tx Tx) error {
		b, err := tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b == nil {
			return invalidState(ReasonUnknownBatch)
		}
		if !sourcing(b.Status) || b.LogisticsAwarded() {
			return invalidState(ReasonBatchPastSourcing)
		}
		bids, err := tx.ListLogisticsBids(ctx, batchID)
		if err != nil {
			return err
		}
		if len(bids) > 0 {
			return invalidState(ReasonBatchPastSourcing)
		}
		req := spec.build(b, m.r.now())
		if err := tx.InsertRequest(ctx, req); err != nil {
			return fmt.Errorf("insert material request: %w", err)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.r.log.Info("material request opened", "batch_id", batchID, "request_id", out.ID, "material", out.MaterialName)
	return out, nil
}

func (m *Requests) GetRequest(ctx context.Context, id uuid.UUID) (*materials.Request, error) {
	var req *materials.Request
	err := m.r.view(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		req, err = tx.GetRequest(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, notFound("material request %s not found", id)
	}
	return req, nil
}

// sourcing reports whether a batch can still gain material requests.
func sourcing(s batches.Status) bool {
	switch s {
	case batches.StatusCreated, batches.StatusInProduction, batches.StatusQualityCheck:
		return true
	}
	return false
}
