package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/fulfillment"
)

func TestBidsWorkbook(t *testing.T) {
	day := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	winner := uuid.New()
	b := &batches.Batch{ID: uuid.New(), BatchNumber: "BT-2025-AB12-0042", SelectedLogisticsBidID: &winner}
	req := materials.Request{ID: uuid.New(), MaterialName: "Lactose", Quantity: 40, Unit: "kg", Status: materials.RequestOpen}
	empty := materials.Request{ID: uuid.New(), MaterialName: "Starch", Quantity: 5, Unit: "kg", Status: materials.RequestOpen}
	material := []fulfillment.RequestBids{
		{Request: req, Bids: []materials.Bid{
			{ID: uuid.New(), SupplierID: "s1", Price: decimal.RequireFromString("12.5"), DeliveryDays: 3, ProposedDate: day, ValidUntil: day, Status: bidding.StatusPending},
			{ID: uuid.New(), SupplierID: "s2", Price: decimal.RequireFromString("11"), DeliveryDays: 4, ProposedDate: day, ValidUntil: day, Status: bidding.StatusPending},
		}},
		{Request: empty},
	}
	carriers := []logistics.Bid{
		{ID: winner, LogisticsID: "l1", Price: decimal.RequireFromString("800"), PickupDate: day, DeliveryDate: day, ValidUntil: day, Status: bidding.StatusAccepted,
			Emission: decimal.NewNullDecimal(decimal.RequireFromString("312.5"))},
		{ID: uuid.New(), LogisticsID: "l2", Price: decimal.RequireFromString("950"), PickupDate: day, DeliveryDate: day, ValidUntil: day, Status: bidding.StatusRejected},
	}

	data, err := BidsWorkbook(b, material, carriers)
	if err != nil {
		t.Fatalf("BidsWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetMaterial)
	if err != nil {
		t.Fatalf("material rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("material sheet has %d rows, want header + 3", len(rows))
	}
	if rows[1][6] != "s1" || rows[1][7] != "12.5" || rows[1][9] != "2025-04-02" {
		t.Errorf("first bid row = %v", rows[1])
	}
	if rows[3][1] != "Starch" || len(rows[3]) != 5 {
		t.Errorf("request without bids = %v", rows[3])
	}

	rows, err = f.GetRows(SheetLogistics)
	if err != nil {
		t.Fatalf("logistics rows: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "l1" || rows[1][10] != "TRUE" || rows[1][11] != "312.5" {
		t.Errorf("logistics rows = %v", rows)
	}
	if rows[2][10] != "FALSE" || (len(rows[2]) > 11 && rows[2][11] != "") {
		t.Errorf("carrier without emission = %v", rows[2])
	}
}

func TestFileName(t *testing.T) {
	b := &batches.Batch{BatchNumber: "BT-2025-AB12-0042"}
	got := FileName(b, time.Date(2025, 4, 2, 15, 4, 5, 0, time.UTC))
	if got != "bids_BT-2025-AB12-0042_20250402_150405.xlsx" {
		t.Errorf("FileName = %s", got)
	}
}
