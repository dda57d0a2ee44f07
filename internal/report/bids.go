// Package report renders batch bid sheets as Excel workbooks.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/fulfillment"
)

const (
	SheetMaterial  = "Material bids"
	SheetLogistics = "Logistics bids"
)

const dateLayout = "2006-01-02"

var (
	materialHeader = []interface{}{
		"request_id", "material_name", "quantity", "unit", "request_status",
		"bid_id", "supplier_id", "price", "delivery_days", "proposed_date", "valid_until", "bid_status",
	}
	logisticsHeader = []interface{}{
		"bid_id", "logistics_id", "price", "estimated_hours", "pickup_date", "delivery_date",
		"vehicle_type", "insurance", "valid_until", "bid_status", "selected",
		"emission_kg",
	}
)

// FileName is the download name of a batch's bid workbook.
func FileName(b *batches.Batch, now time.Time) string {
	return fmt.Sprintf("bids_%s_%s.xlsx", b.BatchNumber, now.Format("20060102_150405"))
}

// BidsWorkbook writes one sheet with the supplier bids of every material
// request and one with the batch's logistics bids.
func BidsWorkbook(b *batches.Batch, material []fulfillment.RequestBids, carriers []logistics.Bid) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(first, SheetMaterial); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLogistics); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	var rows [][]interface{}
	for _, g := range material {
		r := g.Request
		if len(g.Bids) == 0 {
			rows = append(rows, []interface{}{
				r.ID.String(), r.MaterialName, r.Quantity, r.Unit, string(r.Status),
			})
			continue
		}
		for _, bid := range g.Bids {
			rows = append(rows, []interface{}{
				r.ID.String(), r.MaterialName, r.Quantity, r.Unit, string(r.Status),
				bid.ID.String(), bid.SupplierID, bid.Price.InexactFloat64(), bid.DeliveryDays,
				bid.ProposedDate.Format(dateLayout), bid.ValidUntil.Format(dateLayout), string(bid.Status),
			})
		}
	}
	if err := writeSheet(f, SheetMaterial, materialHeader, rows); err != nil {
		return nil, err
	}

	rows = rows[:0]
	for _, bid := range carriers {
		selected := b.SelectedLogisticsBidID != nil && *b.SelectedLogisticsBidID == bid.ID
		var emission interface{}
		if bid.Emission.Valid {
			emission = bid.Emission.Decimal.InexactFloat64()
		}
		rows = append(rows, []interface{}{
			bid.ID.String(), bid.LogisticsID, bid.Price.InexactFloat64(), bid.EstimatedHours,
			bid.PickupDate.Format(dateLayout), bid.DeliveryDate.Format(dateLayout),
			bid.VehicleType, bid.Insurance, bid.ValidUntil.Format(dateLayout), string(bid.Status), selected,
			emission,
		})
	}
	if err := writeSheet(f, SheetLogistics, logisticsHeader, rows); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
