package batches

import (
	"time"

	"github.com/google/uuid"
)

type Batch struct {
	ID                     uuid.UUID
	BatchNumber            string
	ManufacturerID         string
	ProductName            string
	ProductCode            string
	Description            string
	Quantity               int
	Unit                   string
	QualityGrade           string
	ExpiryDate             *time.Time
	StorageTemp            string
	HandlingNotes          string
	OriginAddress          string
	DestinationAddress     string
	Status                 Status
	SelectedLogisticsBidID *uuid.UUID // set once, by logistics award
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// LogisticsAwarded reports whether a carrier has already been locked in.
func (b *Batch) LogisticsAwarded() bool { return b.SelectedLogisticsBidID != nil }

type ComplianceDocument struct {
	ID                uuid.UUID
	BatchID           uuid.UUID
	Type              string
	URL               string
	Issuer            string
	CertificateNumber string
	ExpiryDate        *time.Time
	CreatedAt         time.Time
}
