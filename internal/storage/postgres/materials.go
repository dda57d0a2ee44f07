package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/materials"
)

const requestColumns = `
	id, batch_id, manufacturer_id, material_name, description, quantity, unit,
	budget_range, specifications, quality_standards, certification_req,
	closing_date, status, selected_bid_id, created_at, updated_at`

func scanRequest(row pgx.Row) (*materials.Request, error) {
	var r materials.Request
	if err := row.Scan(
		&r.ID,
		&r.BatchID,
		&r.ManufacturerID,
		&r.MaterialName,
		&r.Description,
		&r.Quantity,
		&r.Unit,
		&r.BudgetRange,
		&r.Specifications,
		&r.QualityStandards,
		&r.CertificationReq,
		&r.ClosingDate,
		&r.Status,
		&r.SelectedBidID,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (t *tx) InsertRequest(ctx context.Context, r *materials.Request) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO material_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, r.ID, r.BatchID, r.ManufacturerID, r.MaterialName, r.Description, r.Quantity, r.Unit,
		r.BudgetRange, r.Specifications, nonNil(r.QualityStandards), nonNil(r.CertificationReq),
		r.ClosingDate, string(r.Status), r.SelectedBidID, r.CreatedAt, r.UpdatedAt)
	return classify(err)
}

func (t *tx) GetRequest(ctx context.Context, id uuid.UUID) (*materials.Request, error) {
	return scanRequest(t.q.QueryRow(ctx, `SELECT`+requestColumns+` FROM material_requests WHERE id = $1`, id))
}

func (t *tx) ListRequests(ctx context.Context, batchID uuid.UUID) ([]materials.Request, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+requestColumns+`
		FROM material_requests
		WHERE batch_id = $1
		ORDER BY created_at, material_name
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []materials.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CloseRequest only closes an OPEN request.
func (t *tx) CloseRequest(ctx context.Context, id, selectedBidID uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE material_requests
		SET status = 'CLOSED', selected_bid_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'OPEN' AND selected_bid_id IS NULL
	`, id, selectedBidID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("postgres: material request is not open")
	}
	return nil
}

const supplierBidColumns = `
	id, material_request_id, supplier_id, bid_price::text, delivery_days,
	proposed_date, valid_until, remarks, certifications, compliance_doc_urls,
	payment_terms, warranty_months, status, submitted_at, updated_at`

func scanSupplierBid(row pgx.Row) (*materials.Bid, error) {
	var (
		b     materials.Bid
		price string
	)
	if err := row.Scan(
		&b.ID,
		&b.RequestID,
		&b.SupplierID,
		&price,
		&b.DeliveryDays,
		&b.ProposedDate,
		&b.ValidUntil,
		&b.Remarks,
		&b.Certifications,
		&b.ComplianceDocURLs,
		&b.PaymentTerms,
		&b.WarrantyMonths,
		&b.Status,
		&b.SubmittedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	b.Price = p
	return &b, nil
}

func (t *tx) InsertSupplierBid(ctx context.Context, b *materials.Bid) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO supplier_bids (
			id, material_request_id, supplier_id, bid_price, delivery_days,
			proposed_date, valid_until, remarks, certifications, compliance_doc_urls,
			payment_terms, warranty_months, status, submitted_at, updated_at)
		VALUES ($1,$2,$3,$4::numeric,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, b.ID, b.RequestID, b.SupplierID, b.Price.String(), b.DeliveryDays,
		b.ProposedDate, b.ValidUntil, b.Remarks, nonNil(b.Certifications), nonNil(b.ComplianceDocURLs),
		b.PaymentTerms, b.WarrantyMonths, string(b.Status), b.SubmittedAt, b.UpdatedAt)
	return classify(err)
}

func (t *tx) GetSupplierBid(ctx context.Context, id uuid.UUID) (*materials.Bid, error) {
	return scanSupplierBid(t.q.QueryRow(ctx, `SELECT`+supplierBidColumns+` FROM supplier_bids WHERE id = $1`, id))
}

func (t *tx) FindSupplierBid(ctx context.Context, requestID uuid.UUID, supplierID string) (*materials.Bid, error) {
	return scanSupplierBid(t.q.QueryRow(ctx, `
		SELECT`+supplierBidColumns+`
		FROM supplier_bids
		WHERE material_request_id = $1 AND supplier_id = $2
	`, requestID, supplierID))
}

func (t *tx) ListSupplierBids(ctx context.Context, requestID uuid.UUID) ([]materials.Bid, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+supplierBidColumns+`
		FROM supplier_bids
		WHERE material_request_id = $1
		ORDER BY submitted_at DESC
	`, requestID)
	if err != nil {
		return nil, err
	}
	return collectSupplierBids(rows)
}

func (t *tx) ListSupplierBidsBySupplier(ctx context.Context, supplierID string) ([]materials.Bid, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+supplierBidColumns+`
		FROM supplier_bids
		WHERE supplier_id = $1
		ORDER BY submitted_at DESC
	`, supplierID)
	if err != nil {
		return nil, err
	}
	return collectSupplierBids(rows)
}

func collectSupplierBids(rows pgx.Rows) ([]materials.Bid, error) {
	defer rows.Close()

	var out []materials.Bid
	for rows.Next() {
		b, err := scanSupplierBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (t *tx) UpdateSupplierBidStatus(ctx context.Context, id uuid.UUID, status bidding.Status) error {
	_, err := t.q.Exec(ctx, `
		UPDATE supplier_bids SET status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	return classify(err)
}
