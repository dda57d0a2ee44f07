package fulfillment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/infra/metrics"
)

type BatchSpec struct {
	ManufacturerID      string
	ProductName         string
	ProductCode         string
	Description         string
	Quantity            int
	Unit                string
	QualityGrade        string
	ExpiryDate          *time.Time
	StorageTemp         string
	HandlingNotes       string
	OriginAddress       string
	DestinationAddress  string
	MaterialRequests    []RequestSpec
	ComplianceDocuments []DocumentSpec
}

// DocumentSpec references a compliance document that already lives in
// document storage.
type DocumentSpec struct {
	Type              string
	URL               string
	Issuer            string
	CertificateNumber string
	ExpiryDate        *time.Time
}

type Registration struct {
	Batch     *batches.Batch
	Requests  []materials.Request
	Documents []batches.ComplianceDocument
}

// Registry owns batch creation and the batch status field.
type Registry struct{ r *runner }

func (s BatchSpec) validate() error {
	if strings.TrimSpace(s.ManufacturerID) == "" {
		return invalidArgument("manufacturerId is required")
	}
	if strings.TrimSpace(s.ProductName) == "" {
		return invalidArgument("productName is required")
	}
	if s.Quantity <= 0 {
		return invalidArgument("quantity must be > 0")
	}
	for i, rs := range s.MaterialRequests {
		if err := rs.validate(); err != nil {
			return invalidArgument("materialRequests[%d]: %s", i, err.(*Error).Reason)
		}
	}
	for i, d := range s.ComplianceDocuments {
		if strings.TrimSpace(d.Type) == "" || strings.TrimSpace(d.URL) == "" {
			return invalidArgument("complianceDocuments[%d]: type and url are required", i)
		}
	}
	return nil
}

// CreateBatch registers a batch together with its material requests and
// compliance documents. A batch without requests is logistics-ready at once.
func (g *Registry) CreateBatch(ctx context.Context, spec BatchSpec) (*Registration, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	now := g.r.now()
	b := &batches.Batch{
		ID:                 uuid.New(),
		BatchNumber:        newBatchNumber(now),
		ManufacturerID:     spec.ManufacturerID,
		ProductName:        strings.TrimSpace(spec.ProductName),
		ProductCode:        spec.ProductCode,
		Description:        spec.Description,
		Quantity:           spec.Quantity,
		Unit:               spec.Unit,
		QualityGrade:       spec.QualityGrade,
		ExpiryDate:         spec.ExpiryDate,
		StorageTemp:        spec.StorageTemp,
		HandlingNotes:      spec.HandlingNotes,
		OriginAddress:      spec.OriginAddress,
		DestinationAddress: spec.DestinationAddress,
		Status:             batches.StatusCreated,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var out *Registration
	err := g.r.update(ctx, "create_batch", func(ctx context.Context, tx Tx) error {
		reg := &Registration{}
		batch := *b
		if err := tx.InsertBatch(ctx, &batch); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		for _, d := range spec.ComplianceDocuments {
			doc := batches.ComplianceDocument{
				ID:                uuid.New(),
				BatchID:           batch.ID,
				Type:              d.Type,
				URL:               d.URL,
				Issuer:            d.Issuer,
				CertificateNumber: d.CertificateNumber,
				ExpiryDate:        d.ExpiryDate,
				CreatedAt:         now,
			}
			if err := tx.InsertComplianceDocument(ctx, &doc); err != nil {
				return fmt.Errorf("insert compliance document: %w", err)
			}
			reg.Documents = append(reg.Documents, doc)
		}
		for _, rs := range spec.MaterialRequests {
			req := rs.build(&batch, now)
			if err := tx.InsertRequest(ctx, req); err != nil {
				return fmt.Errorf("insert material request: %w", err)
			}
			reg.Requests = append(reg.Requests, *req)
		}
		if len(reg.Requests) == 0 {
			next, err := batch.Status.Transition(batches.EventMaterialsSourced)
			if err != nil {
				return err
			}
			if err := tx.UpdateBatchStatus(ctx, batch.ID, next); err != nil {
				return fmt.Errorf("advance batch: %w", err)
			}
			batch.Status = next
		}
		reg.Batch = &batch
		out = reg
		return nil
	})
	metrics.BatchesCreated.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	g.r.log.Info("batch registered",
		"batch_id", out.Batch.ID,
		"batch_number", out.Batch.BatchNumber,
		"requests", len(out.Requests),
		"status", out.Batch.Status,
	)
	if out.Batch.Status == batches.StatusCompleted {
		g.r.notify(ctx, Notification{
			Kind:           NoteLogisticsOpen,
			Stage:          StageLogistics,
			BatchID:        out.Batch.ID,
			BatchNumber:    out.Batch.BatchNumber,
			ManufacturerID: out.Batch.ManufacturerID,
		})
	}
	return out, nil
}

func (g *Registry) GetBatch(ctx context.Context, id uuid.UUID) (*batches.Batch, error) {
	var b *batches.Batch
	err := g.r.view(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		b, err = tx.GetBatch(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, notFound("batch %s not found", id)
	}
	return b, nil
}

// OverrideStatus is the manual, out-of-band status edit. It only rewrites
// the batch status: requests, bids, the selected logistics bid and any
// shipment are left untouched.
func (g *Registry) OverrideStatus(ctx context.Context, id uuid.UUID, manufacturerID string, status batches.Status) (*batches.Batch, error) {
	var out *batches.Batch
	err := g.r.update(ctx, "override_status", func(ctx context.Context, tx Tx) error {
		b, err := tx.LockBatch(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound("batch %s not found", id)
		}
		if b.ManufacturerID != manufacturerID {
			return newError(KindUnauthorized, ReasonNotOwner)
		}
		if err := tx.UpdateBatchStatus(ctx, id, status); err != nil {
			return err
		}
		b.Status = status
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.r.log.Warn("batch status overridden", "batch_id", id, "status", status, "manufacturer_id", manufacturerID)
	return out, nil
}

const batchSuffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newBatchNumber formats BT-<year>-<4 random chars>-<last 4 digits of unix ms>.
func newBatchNumber(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = batchSuffixAlphabet[rand.IntN(len(batchSuffixAlphabet))]
	}
	ms := fmt.Sprintf("%04d", now.UnixMilli()%10000)
	return fmt.Sprintf("BT-%d-%s-%s", now.Year(), suffix, ms)
}
