package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/logistics"
	"github.com/Spok95/batchflow/internal/domain/materials"
	"github.com/Spok95/batchflow/internal/fulfillment"
)

// Date accepts both RFC 3339 timestamps and plain YYYY-MM-DD dates.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (d *Date) value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

/* requests */

type productSpecJSON struct {
	ProductName        string `json:"productName"`
	ProductCode        string `json:"productCode"`
	Description        string `json:"description"`
	Quantity           int    `json:"quantity"`
	Unit               string `json:"unit"`
	QualityGrade       string `json:"qualityGrade"`
	ExpiryDate         *Date  `json:"expiryDate"`
	StorageTemp        string `json:"storageTemp"`
	HandlingNotes      string `json:"handlingNotes"`
	OriginAddress      string `json:"originAddress"`
	DestinationAddress string `json:"destinationAddress"`
}

type requestSpecJSON struct {
	MaterialName     string   `json:"materialName"`
	Description      string   `json:"description"`
	Quantity         int      `json:"quantity"`
	Unit             string   `json:"unit"`
	BudgetRange      string   `json:"budgetRange"`
	Specifications   string   `json:"specifications"`
	QualityStandards []string `json:"qualityStandards"`
	CertificationReq []string `json:"certificationReq"`
	ClosingDate      *Date    `json:"closingDate"`
}

func (r requestSpecJSON) spec() fulfillment.RequestSpec {
	return fulfillment.RequestSpec{
		MaterialName:     r.MaterialName,
		Description:      r.Description,
		Quantity:         r.Quantity,
		Unit:             r.Unit,
		BudgetRange:      r.BudgetRange,
		Specifications:   r.Specifications,
		QualityStandards: r.QualityStandards,
		CertificationReq: r.CertificationReq,
		ClosingDate:      r.ClosingDate.value(),
	}
}

type documentJSON struct {
	Type              string `json:"type"`
	URL               string `json:"url"`
	FileName          string `json:"fileName"`
	Issuer            string `json:"issuer"`
	CertificateNumber string `json:"certificateNumber"`
	ExpiryDate        *Date  `json:"expiryDate"`
}

type createBatchRequest struct {
	ManufacturerID      string            `json:"manufacturerId"`
	ProductSpec         productSpecJSON   `json:"productSpec"`
	MaterialRequests    []requestSpecJSON `json:"materialRequests"`
	ComplianceDocuments []documentJSON    `json:"complianceDocuments"`
}

type supplierTermsJSON struct {
	BidPrice          decimal.Decimal `json:"bidPrice"`
	DeliveryTimeline  int             `json:"deliveryTimeline"`
	ProposedDate      *Date           `json:"proposedDate"`
	ValidUntil        *Date           `json:"validUntil"`
	Remarks           string          `json:"remarks"`
	Certifications    []string        `json:"certifications"`
	ComplianceDocURLs []string        `json:"complianceDocs"`
	PaymentTerms      string          `json:"paymentTerms"`
	WarrantyMonths    *int            `json:"warrantyPeriod"`
}

type submitSupplierBidRequest struct {
	SupplierID string            `json:"supplierId"`
	Terms      supplierTermsJSON `json:"terms"`
}

func (t supplierTermsJSON) terms() fulfillment.SupplierTerms {
	return fulfillment.SupplierTerms{
		Price:             t.BidPrice,
		DeliveryDays:      t.DeliveryTimeline,
		ProposedDate:      t.ProposedDate.value(),
		ValidUntil:        t.ValidUntil.value(),
		Remarks:           t.Remarks,
		Certifications:    t.Certifications,
		ComplianceDocURLs: t.ComplianceDocURLs,
		PaymentTerms:      t.PaymentTerms,
		WarrantyMonths:    t.WarrantyMonths,
	}
}

type logisticsTermsJSON struct {
	BidPrice        decimal.Decimal     `json:"bidPrice"`
	EstimatedTime   int                 `json:"estimatedTime"`
	PickupDate      *Date               `json:"pickupDate"`
	DeliveryDate    *Date               `json:"deliveryDate"`
	VehicleType     string              `json:"vehicleType"`
	Capacity        string              `json:"capacity"`
	Route           string              `json:"route"`
	SpecialHandling string              `json:"specialHandling"`
	Insurance       bool                `json:"insurance"`
	Remarks         string              `json:"remarks"`
	Emission        decimal.NullDecimal `json:"emission"`
	ValidUntil      *Date               `json:"validUntil"`
}

type submitLogisticsBidRequest struct {
	LogisticsID string             `json:"logisticsId"`
	Terms       logisticsTermsJSON `json:"terms"`
}

func (t logisticsTermsJSON) terms() fulfillment.LogisticsTerms {
	return fulfillment.LogisticsTerms{
		Price:           t.BidPrice,
		EstimatedHours:  t.EstimatedTime,
		PickupDate:      t.PickupDate.value(),
		DeliveryDate:    t.DeliveryDate.value(),
		VehicleType:     t.VehicleType,
		Capacity:        t.Capacity,
		Route:           t.Route,
		SpecialHandling: t.SpecialHandling,
		Insurance:       t.Insurance,
		Remarks:         t.Remarks,
		Emission:        t.Emission,
		ValidUntil:      t.ValidUntil.value(),
	}
}

type resolveRequest struct {
	ManufacturerID string `json:"manufacturerId"`
	Action         string `json:"action"`
}

type overrideStatusRequest struct {
	ManufacturerID string `json:"manufacturerId"`
	Status         string `json:"status"`
}

type withdrawRequest struct {
	SupplierID  string `json:"supplierId"`
	LogisticsID string `json:"logisticsId"`
}

/* responses */

type batchJSON struct {
	ID                     uuid.UUID      `json:"id"`
	BatchNumber            string         `json:"batchNumber"`
	ManufacturerID         string         `json:"manufacturerId"`
	ProductName            string         `json:"productName"`
	ProductCode            string         `json:"productCode,omitempty"`
	Description            string         `json:"description,omitempty"`
	Quantity               int            `json:"quantity"`
	Unit                   string         `json:"unit,omitempty"`
	QualityGrade           string         `json:"qualityGrade,omitempty"`
	ExpiryDate             *time.Time     `json:"expiryDate,omitempty"`
	StorageTemp            string         `json:"storageTemp,omitempty"`
	HandlingNotes          string         `json:"handlingNotes,omitempty"`
	OriginAddress          string         `json:"originAddress,omitempty"`
	DestinationAddress     string         `json:"destinationAddress,omitempty"`
	Status                 batches.Status `json:"status"`
	SelectedLogisticsBidID *uuid.UUID     `json:"selectedLogisticsBidId"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

func toBatch(b *batches.Batch) batchJSON {
	return batchJSON{
		ID:                     b.ID,
		BatchNumber:            b.BatchNumber,
		ManufacturerID:         b.ManufacturerID,
		ProductName:            b.ProductName,
		ProductCode:            b.ProductCode,
		Description:            b.Description,
		Quantity:               b.Quantity,
		Unit:                   b.Unit,
		QualityGrade:           b.QualityGrade,
		ExpiryDate:             b.ExpiryDate,
		StorageTemp:            b.StorageTemp,
		HandlingNotes:          b.HandlingNotes,
		OriginAddress:          b.OriginAddress,
		DestinationAddress:     b.DestinationAddress,
		Status:                 b.Status,
		SelectedLogisticsBidID: b.SelectedLogisticsBidID,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}

func toBatches(bs []batches.Batch) []batchJSON {
	out := make([]batchJSON, 0, len(bs))
	for i := range bs {
		out = append(out, toBatch(&bs[i]))
	}
	return out
}

type requestJSON struct {
	ID               uuid.UUID               `json:"id"`
	BatchID          uuid.UUID               `json:"batchId"`
	ManufacturerID   string                  `json:"manufacturerId"`
	MaterialName     string                  `json:"materialName"`
	Description      string                  `json:"description,omitempty"`
	Quantity         int                     `json:"quantity"`
	Unit             string                  `json:"unit"`
	BudgetRange      string                  `json:"budgetRange,omitempty"`
	Specifications   string                  `json:"specifications,omitempty"`
	QualityStandards []string                `json:"qualityStandards"`
	CertificationReq []string                `json:"certificationReq"`
	ClosingDate      time.Time               `json:"closingDate"`
	Status           materials.RequestStatus `json:"status"`
	SelectedBidID    *uuid.UUID              `json:"selectedBidId"`
	CreatedAt        time.Time               `json:"createdAt"`
}

func toRequest(r materials.Request) requestJSON {
	return requestJSON{
		ID:               r.ID,
		BatchID:          r.BatchID,
		ManufacturerID:   r.ManufacturerID,
		MaterialName:     r.MaterialName,
		Description:      r.Description,
		Quantity:         r.Quantity,
		Unit:             r.Unit,
		BudgetRange:      r.BudgetRange,
		Specifications:   r.Specifications,
		QualityStandards: nonNil(r.QualityStandards),
		CertificationReq: nonNil(r.CertificationReq),
		ClosingDate:      r.ClosingDate,
		Status:           r.Status,
		SelectedBidID:    r.SelectedBidID,
		CreatedAt:        r.CreatedAt,
	}
}

func toRequests(rs []materials.Request) []requestJSON {
	out := make([]requestJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequest(r))
	}
	return out
}

type supplierBidJSON struct {
	ID                uuid.UUID       `json:"id"`
	MaterialRequestID uuid.UUID       `json:"materialRequestId"`
	SupplierID        string          `json:"supplierId"`
	BidPrice          decimal.Decimal `json:"bidPrice"`
	DeliveryTimeline  int             `json:"deliveryTimeline"`
	ProposedDate      time.Time       `json:"proposedDate"`
	ValidUntil        time.Time       `json:"validUntil"`
	Remarks           string          `json:"remarks,omitempty"`
	Certifications    []string        `json:"certifications"`
	ComplianceDocs    []string        `json:"complianceDocs"`
	PaymentTerms      string          `json:"paymentTerms,omitempty"`
	WarrantyPeriod    *int            `json:"warrantyPeriod,omitempty"`
	Status            string          `json:"status"`
	SubmittedAt       time.Time       `json:"submittedAt"`
}

func toSupplierBid(b materials.Bid) supplierBidJSON {
	return supplierBidJSON{
		ID:                b.ID,
		MaterialRequestID: b.RequestID,
		SupplierID:        b.SupplierID,
		BidPrice:          b.Price,
		DeliveryTimeline:  b.DeliveryDays,
		ProposedDate:      b.ProposedDate,
		ValidUntil:        b.ValidUntil,
		Remarks:           b.Remarks,
		Certifications:    nonNil(b.Certifications),
		ComplianceDocs:    nonNil(b.ComplianceDocURLs),
		PaymentTerms:      b.PaymentTerms,
		WarrantyPeriod:    b.WarrantyMonths,
		Status:            string(b.Status),
		SubmittedAt:       b.SubmittedAt,
	}
}

type logisticsBidJSON struct {
	ID              uuid.UUID           `json:"id"`
	BatchID         uuid.UUID           `json:"batchId"`
	LogisticsID     string              `json:"logisticsId"`
	BidPrice        decimal.Decimal     `json:"bidPrice"`
	EstimatedTime   int                 `json:"estimatedTime"`
	PickupDate      time.Time           `json:"pickupDate"`
	DeliveryDate    time.Time           `json:"deliveryDate"`
	VehicleType     string              `json:"vehicleType,omitempty"`
	Capacity        string              `json:"capacity,omitempty"`
	Route           string              `json:"route,omitempty"`
	SpecialHandling string              `json:"specialHandling,omitempty"`
	Insurance       bool                `json:"insurance"`
	Remarks         string              `json:"remarks,omitempty"`
	Emission        decimal.NullDecimal `json:"emission"`
	ValidUntil      time.Time           `json:"validUntil"`
	Status          string              `json:"status"`
	SubmittedAt     time.Time           `json:"submittedAt"`
}

func toLogisticsBid(b logistics.Bid) logisticsBidJSON {
	return logisticsBidJSON{
		ID:              b.ID,
		BatchID:         b.BatchID,
		LogisticsID:     b.LogisticsID,
		BidPrice:        b.Price,
		EstimatedTime:   b.EstimatedHours,
		PickupDate:      b.PickupDate,
		DeliveryDate:    b.DeliveryDate,
		VehicleType:     b.VehicleType,
		Capacity:        b.Capacity,
		Route:           b.Route,
		SpecialHandling: b.SpecialHandling,
		Insurance:       b.Insurance,
		Remarks:         b.Remarks,
		Emission:        b.Emission,
		ValidUntil:      b.ValidUntil,
		Status:          string(b.Status),
		SubmittedAt:     b.SubmittedAt,
	}
}

func toLogisticsBids(bs []logistics.Bid) []logisticsBidJSON {
	out := make([]logisticsBidJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, toLogisticsBid(b))
	}
	return out
}

type supplierBidListingJSON struct {
	supplierBidJSON
	MaterialName string `json:"materialName"`
	BatchID      string `json:"batchId"`
	BatchNumber  string `json:"batchNumber"`
	ProductName  string `json:"productName"`
}

func toSupplierBidListings(ls []fulfillment.SupplierBidListing) []supplierBidListingJSON {
	out := make([]supplierBidListingJSON, 0, len(ls))
	for _, l := range ls {
		out = append(out, supplierBidListingJSON{
			supplierBidJSON: toSupplierBid(l.Bid),
			MaterialName:    l.Request.MaterialName,
			BatchID:         l.Request.BatchID.String(),
			BatchNumber:     l.BatchNumber,
			ProductName:     l.ProductName,
		})
	}
	return out
}

type emissionsJSON struct {
	Logistics       decimal.Decimal `json:"logistics"`
	Total           decimal.Decimal `json:"total"`
	HasLogisticsBid bool            `json:"hasLogisticsBid"`
}

func toEmissions(e fulfillment.Emissions) emissionsJSON {
	return emissionsJSON{Logistics: e.Logistics, Total: e.Logistics, HasLogisticsBid: e.HasLogisticsBid}
}

type shipmentJSON struct {
	ID                uuid.UUID `json:"id"`
	ShipmentNumber    string    `json:"shipmentNumber"`
	BatchID           uuid.UUID `json:"batchId"`
	LogisticsID       string    `json:"logisticsId"`
	BidID             uuid.UUID `json:"bidId"`
	FromAddress       string    `json:"fromAddress"`
	ToAddress         string    `json:"toAddress"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
	Status            string    `json:"status"`
	Temperature       string    `json:"temperature,omitempty"`
	SpecialNotes      string    `json:"specialNotes,omitempty"`
	TransportModes    []string  `json:"transportModes"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toShipment(s *logistics.Shipment) *shipmentJSON {
	if s == nil {
		return nil
	}
	return &shipmentJSON{
		ID:                s.ID,
		ShipmentNumber:    s.ShipmentNumber,
		BatchID:           s.BatchID,
		LogisticsID:       s.LogisticsID,
		BidID:             s.BidID,
		FromAddress:       s.FromAddress,
		ToAddress:         s.ToAddress,
		EstimatedDelivery: s.EstimatedDelivery,
		Status:            string(s.Status),
		Temperature:       s.Temperature,
		SpecialNotes:      s.SpecialNotes,
		TransportModes:    nonNil(s.TransportModes),
		CreatedAt:         s.CreatedAt,
	}
}

type documentOutJSON struct {
	ID                uuid.UUID  `json:"id"`
	Type              string     `json:"type"`
	URL               string     `json:"url"`
	Issuer            string     `json:"issuer,omitempty"`
	CertificateNumber string     `json:"certificateNumber,omitempty"`
	ExpiryDate        *time.Time `json:"expiryDate,omitempty"`
}

func toDocuments(ds []batches.ComplianceDocument) []documentOutJSON {
	out := make([]documentOutJSON, 0, len(ds))
	for _, d := range ds {
		out = append(out, documentOutJSON{
			ID:                d.ID,
			Type:              d.Type,
			URL:               d.URL,
			Issuer:            d.Issuer,
			CertificateNumber: d.CertificateNumber,
			ExpiryDate:        d.ExpiryDate,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
