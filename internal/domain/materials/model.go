package materials

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/bidding"
)

// Request is a manufacturer's call for quotes on one raw material of a batch.
type Request struct {
	ID               uuid.UUID
	BatchID          uuid.UUID
	ManufacturerID   string
	MaterialName     string
	Description      string
	Quantity         int
	Unit             string
	BudgetRange      string
	Specifications   string
	QualityStandards []string
	CertificationReq []string
	ClosingDate      time.Time
	Status           RequestStatus
	SelectedBidID    *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Bid is a supplier's sealed offer against a Request.
type Bid struct {
	ID                uuid.UUID
	RequestID         uuid.UUID
	SupplierID        string
	Price             decimal.Decimal
	DeliveryDays      int
	ProposedDate      time.Time
	ValidUntil        time.Time
	Remarks           string
	Certifications    []string
	ComplianceDocURLs []string
	PaymentTerms      string
	WarrantyMonths    *int
	Status            bidding.Status
	SubmittedAt       time.Time
	UpdatedAt         time.Time
}
