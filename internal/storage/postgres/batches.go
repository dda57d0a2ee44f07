package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Spok95/batchflow/internal/domain/batches"
)

const batchColumns = `
	id, batch_number, manufacturer_id, product_name, product_code, description,
	quantity, unit, quality_grade, expiry_date, storage_temp, handling_notes,
	origin_address, destination_address, status, selected_logistics_bid_id,
	created_at, updated_at`

func scanBatch(row pgx.Row) (*batches.Batch, error) {
	var b batches.Batch
	if err := row.Scan(
		&b.ID,
		&b.BatchNumber,
		&b.ManufacturerID,
		&b.ProductName,
		&b.ProductCode,
		&b.Description,
		&b.Quantity,
		&b.Unit,
		&b.QualityGrade,
		&b.ExpiryDate,
		&b.StorageTemp,
		&b.HandlingNotes,
		&b.OriginAddress,
		&b.DestinationAddress,
		&b.Status,
		&b.SelectedLogisticsBidID,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (t *tx) LockBatch(ctx context.Context, id uuid.UUID) (*batches.Batch, error) {
	return scanBatch(t.q.QueryRow(ctx, `SELECT`+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) GetBatch(ctx context.Context, id uuid.UUID) (*batches.Batch, error) {
	return scanBatch(t.q.QueryRow(ctx, `SELECT`+batchColumns+` FROM batches WHERE id = $1`, id))
}

func (t *tx) InsertBatch(ctx context.Context, b *batches.Batch) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO batches (`+batchColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, b.ID, b.BatchNumber, b.ManufacturerID, b.ProductName, b.ProductCode, b.Description,
		b.Quantity, b.Unit, b.QualityGrade, b.ExpiryDate, b.StorageTemp, b.HandlingNotes,
		b.OriginAddress, b.DestinationAddress, string(b.Status), b.SelectedLogisticsBidID,
		b.CreatedAt, b.UpdatedAt)
	return classify(err)
}

func (t *tx) UpdateBatchStatus(ctx context.Context, id uuid.UUID, status batches.Status) error {
	_, err := t.q.Exec(ctx, `UPDATE batches SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	return err
}

// SetSelectedLogisticsBid only writes a NULL column, so the award can
// never be overwritten.
func (t *tx) SetSelectedLogisticsBid(ctx context.Context, batchID, bidID uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE batches SET selected_logistics_bid_id = $2, updated_at = now()
		WHERE id = $1 AND selected_logistics_bid_id IS NULL
	`, batchID, bidID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("postgres: logistics bid already selected")
	}
	return nil
}

func (t *tx) ListLogisticsReadyBatches(ctx context.Context) ([]batches.Batch, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+batchColumns+`
		FROM batches b
		WHERE b.selected_logistics_bid_id IS NULL
		  AND b.status NOT IN ('RECALLED','IN_TRANSIT','SHIPPED','DELIVERED')
		  AND NOT EXISTS (
			SELECT 1 FROM material_requests r WHERE r.batch_id = b.id AND r.status = 'OPEN'
		  )
		ORDER BY b.created_at
	`)
	if err != nil {
		return nil, err
	}
	return collectBatches(rows)
}

func (t *tx) ListBatches(ctx context.Context, manufacturerID string) ([]batches.Batch, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+batchColumns+`
		FROM batches
		WHERE $1::text = '' OR manufacturer_id = $1
		ORDER BY created_at DESC
	`, manufacturerID)
	if err != nil {
		return nil, err
	}
	return collectBatches(rows)
}

func collectBatches(rows pgx.Rows) ([]batches.Batch, error) {
	defer rows.Close()

	var out []batches.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (t *tx) InsertComplianceDocument(ctx context.Context, d *batches.ComplianceDocument) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO compliance_documents (id, batch_id, type, url, issuer, certificate_number, expiry_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, d.ID, d.BatchID, d.Type, d.URL, d.Issuer, d.CertificateNumber, d.ExpiryDate, d.CreatedAt)
	return classify(err)
}

func (t *tx) ListComplianceDocuments(ctx context.Context, batchID uuid.UUID) ([]batches.ComplianceDocument, error) {
	rows, err := t.q.Query(ctx, `
		SELECT id, batch_id, type, url, issuer, certificate_number, expiry_date, created_at
		FROM compliance_documents
		WHERE batch_id = $1
		ORDER BY created_at, type
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []batches.ComplianceDocument
	for rows.Next() {
		var d batches.ComplianceDocument
		if err := rows.Scan(&d.ID, &d.BatchID, &d.Type, &d.URL, &d.Issuer, &d.CertificateNumber, &d.ExpiryDate, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
