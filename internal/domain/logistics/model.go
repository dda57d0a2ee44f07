package logistics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/bidding"
)

// Bid is a logistics provider's offer to ship a whole batch.
type Bid struct {
	ID              uuid.UUID
	BatchID         uuid.UUID
	LogisticsID     string
	Price           decimal.Decimal
	EstimatedHours  int
	PickupDate      time.Time
	DeliveryDate    time.Time
	VehicleType     string
	Capacity        string
	Route           string
	SpecialHandling string
	Insurance       bool
	Remarks         string
	// Emission is the carrier's declared CO2e for the route, in kg. Invalid
	// when the carrier did not declare one.
	Emission    decimal.NullDecimal
	ValidUntil  time.Time
	Status      bidding.Status
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

type ShipmentStatus string

const ShipmentPending ShipmentStatus = "PENDING"

// Shipment is the committed carrier assignment created on award.
type Shipment struct {
	ID                uuid.UUID
	ShipmentNumber    string
	BatchID           uuid.UUID
	LogisticsID       string
	BidID             uuid.UUID
	FromAddress       string
	ToAddress         string
	EstimatedDelivery time.Time
	Status            ShipmentStatus
	Temperature       string
	SpecialNotes      string
	TransportModes    []string
	CreatedAt         time.Time
}
