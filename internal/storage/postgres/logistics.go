package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
)

const logisticsBidColumns = `
	id, batch_id, logistics_id, bid_price::text, estimated_hours, pickup_date,
	delivery_date, vehicle_type, capacity, route, special_handling, insurance,
	remarks, emission::text, valid_until, status, submitted_at, updated_at`

func scanLogisticsBid(row pgx.Row) (*logistics.Bid, error) {
	var (
		b        logistics.Bid
		price    string
		emission *string
	)
	if err := row.Scan(
		&b.ID,
		&b.BatchID,
		&b.LogisticsID,
		&price,
		&b.EstimatedHours,
		&b.PickupDate,
		&b.DeliveryDate,
		&b.VehicleType,
		&b.Capacity,
		&b.Route,
		&b.SpecialHandling,
		&b.Insurance,
		&b.Remarks,
		&emission,
		&b.ValidUntil,
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
	if emission != nil {
		e, err := decimal.NewFromString(*emission)
		if err != nil {
			return nil, err
		}
		b.Emission = decimal.NewNullDecimal(e)
	}
	return &b, nil
}

func collectLogisticsBids(rows pgx.Rows) ([]logistics.Bid, error) {
	defer rows.Close()

	var out []logistics.Bid
	for rows.Next() {
		b, err := scanLogisticsBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (t *tx) InsertLogisticsBid(ctx context.Context, b *logistics.Bid) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO logistics_bids (
			id, batch_id, logistics_id, bid_price, estimated_hours, pickup_date,
			delivery_date, vehicle_type, capacity, route, special_handling, insurance,
			remarks, emission, valid_until, status, submitted_at, updated_at)
		VALUES ($1,$2,$3,$4::numeric,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14::numeric,$15,$16,$17,$18)
	`, b.ID, b.BatchID, b.LogisticsID, b.Price.String(), b.EstimatedHours, b.PickupDate,
		b.DeliveryDate, b.VehicleType, b.Capacity, b.Route, b.SpecialHandling, b.Insurance,
		b.Remarks, nullDecimal(b.Emission), b.ValidUntil, string(b.Status), b.SubmittedAt, b.UpdatedAt)
	return classify(err)
}

func (t *tx) GetLogisticsBid(ctx context.Context, id uuid.UUID) (*logistics.Bid, error) {
	return scanLogisticsBid(t.q.QueryRow(ctx, `SELECT`+logisticsBidColumns+` FROM logistics_bids WHERE id = $1`, id))
}

func (t *tx) FindLogisticsBid(ctx context.Context, batchID uuid.UUID, logisticsID string) (*logistics.Bid, error) {
	return scanLogisticsBid(t.q.QueryRow(ctx, `
		SELECT`+logisticsBidColumns+`
		FROM logistics_bids
		WHERE batch_id = $1 AND logistics_id = $2
	`, batchID, logisticsID))
}

func (t *tx) ListLogisticsBids(ctx context.Context, batchID uuid.UUID) ([]logistics.Bid, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+logisticsBidColumns+`
		FROM logistics_bids
		WHERE batch_id = $1
		ORDER BY submitted_at DESC
	`, batchID)
	if err != nil {
		return nil, err
	}
	return collectLogisticsBids(rows)
}

func (t *tx) ListLogisticsBidsByProvider(ctx context.Context, logisticsID string, status bidding.Status) ([]logistics.Bid, error) {
	rows, err := t.q.Query(ctx, `
		SELECT`+logisticsBidColumns+`
		FROM logistics_bids
		WHERE logistics_id = $1 AND ($2::text = '' OR status = $2)
		ORDER BY submitted_at DESC
	`, logisticsID, string(status))
	if err != nil {
		return nil, err
	}
	return collectLogisticsBids(rows)
}

func (t *tx) UpdateLogisticsBidStatus(ctx context.Context, id uuid.UUID, status bidding.Status) error {
	_, err := t.q.Exec(ctx, `
		UPDATE logistics_bids SET status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	return classify(err)
}

func (t *tx) InsertShipment(ctx context.Context, s *logistics.Shipment) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO shipments (
			id, shipment_number, batch_id, logistics_id, logistics_bid_id, from_address,
			to_address, estimated_delivery, status, temperature, special_notes,
			transport_modes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, s.ID, s.ShipmentNumber, s.BatchID, s.LogisticsID, s.BidID, s.FromAddress,
		s.ToAddress, s.EstimatedDelivery, string(s.Status), s.Temperature, s.SpecialNotes,
		nonNil(s.TransportModes), s.CreatedAt)
	return classify(err)
}

func (t *tx) GetShipmentByBatch(ctx context.Context, batchID uuid.UUID) (*logistics.Shipment, error) {
	row := t.q.QueryRow(ctx, `
		SELECT id, shipment_number, batch_id, logistics_id, logistics_bid_id, from_address,
		       to_address, estimated_delivery, status, temperature, special_notes,
		       transport_modes, created_at
		FROM shipments
		WHERE batch_id = $1
	`, batchID)
	var s logistics.Shipment
	if err := row.Scan(
		&s.ID, &s.ShipmentNumber, &s.BatchID, &s.LogisticsID, &s.BidID, &s.FromAddress,
		&s.ToAddress, &s.EstimatedDelivery, &s.Status, &s.Temperature, &s.SpecialNotes,
		&s.TransportModes, &s.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
