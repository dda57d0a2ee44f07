package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/batchflow/internal/domain/batches"
	"github.com/Spok95/batchflow/internal/domain/bidding"
	"github.com/Spok95/batchflow/internal/fulfillment"
	"github.com/Spok95/batchflow/internal/report"
)

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	p := req.ProductSpec
	spec := fulfillment.BatchSpec{
		ManufacturerID:     req.ManufacturerID,
		ProductName:        p.ProductName,
		ProductCode:        p.ProductCode,
		Description:        p.Description,
		Quantity:           p.Quantity,
		Unit:               p.Unit,
		QualityGrade:       p.QualityGrade,
		ExpiryDate:         p.ExpiryDate.ptr(),
		StorageTemp:        p.StorageTemp,
		HandlingNotes:      p.HandlingNotes,
		OriginAddress:      p.OriginAddress,
		DestinationAddress: p.DestinationAddress,
	}
	for _, m := range req.MaterialRequests {
		spec.MaterialRequests = append(spec.MaterialRequests, m.spec())
	}
	for i, d := range req.ComplianceDocuments {
		link := strings.TrimSpace(d.URL)
		if link == "" && strings.TrimSpace(d.FileName) != "" {
			u, err := h.docs.URL(r.Context(), d.Type, req.ManufacturerID, d.FileName)
			if err != nil {
				badRequest(w, fmt.Sprintf("complianceDocuments[%d]: %v", i, err))
				return
			}
			link = u
		}
		spec.ComplianceDocuments = append(spec.ComplianceDocuments, fulfillment.DocumentSpec{
			Type:              d.Type,
			URL:               link,
			Issuer:            d.Issuer,
			CertificateNumber: d.CertificateNumber,
			ExpiryDate:        d.ExpiryDate.ptr(),
		})
	}

	reg, err := h.eng.Registry.CreateBatch(r.Context(), spec)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"batch":               toBatch(reg.Batch),
		"materialRequests":    toRequests(reg.Requests),
		"complianceDocuments": toDocuments(reg.Documents),
	})
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	d, err := h.eng.Queries.BatchDetail(r.Context(), id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch":               toBatch(&d.Batch),
		"materialRequests":    toRequests(d.Requests),
		"complianceDocuments": toDocuments(d.Documents),
		"shipment":            toShipment(d.Shipment),
		"emissions":           toEmissions(d.Emissions),
	})
}

func (h *Handler) listBatches(w http.ResponseWriter, r *http.Request) {
	bs, err := h.eng.Queries.Batches(r.Context(), r.URL.Query().Get("manufacturerId"))
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": toBatches(bs)})
}

func (h *Handler) overrideStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req overrideStatusRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	status, err := batches.ParseStatus(req.Status)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := h.eng.Registry.OverrideStatus(r.Context(), id, req.ManufacturerID, status)
	if err != nil {
		fail(w, h.log, err, onResolve)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batch": toBatch(b)})
}

func (h *Handler) openRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req requestSpecJSON
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	mr, err := h.eng.Requests.OpenRequest(r.Context(), id, req.spec())
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"materialRequest": toRequest(*mr)})
}

func (h *Handler) listMaterialBids(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	groups, err := h.eng.Queries.MaterialBids(r.Context(), id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	type group struct {
		Request requestJSON       `json:"materialRequest"`
		Bids    []supplierBidJSON `json:"bids"`
	}
	out := make([]group, 0, len(groups))
	for _, g := range groups {
		bids := make([]supplierBidJSON, 0, len(g.Bids))
		for _, b := range g.Bids {
			bids = append(bids, toSupplierBid(b))
		}
		out = append(out, group{Request: toRequest(g.Request), Bids: bids})
	}
	writeJSON(w, http.StatusOK, map[string]any{"materialBids": out})
}

func (h *Handler) listLogisticsBids(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	bids, err := h.eng.Queries.LogisticsBids(r.Context(), id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logisticsBids": toLogisticsBids(bids)})
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s, err := h.eng.Queries.Shipment(r.Context(), id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shipment": toShipment(s)})
}

func (h *Handler) exportBids(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	b, err := h.eng.Registry.GetBatch(ctx, id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	groups, err := h.eng.Queries.MaterialBids(ctx, id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	carriers, err := h.eng.Queries.LogisticsBids(ctx, id)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	data, err := report.BidsWorkbook(b, groups, carriers)
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(b, h.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) submitSupplierBid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req submitSupplierBidRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	bid, err := h.eng.SupplierBidding.SubmitBid(r.Context(), id, req.SupplierID, req.Terms.terms())
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bid": toSupplierBid(*bid)})
}

func (h *Handler) resolveSupplierBid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	action, err := bidding.ParseAction(req.Action)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	bid, err := h.eng.MaterialApproval.ResolveBid(r.Context(), id, req.ManufacturerID, action)
	if err != nil {
		fail(w, h.log, err, onResolve)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bid": toSupplierBid(*bid)})
}

func (h *Handler) withdrawSupplierBid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	bid, err := h.eng.SupplierBidding.WithdrawBid(r.Context(), id, req.SupplierID)
	if err != nil {
		fail(w, h.log, err, onResolve)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bid": toSupplierBid(*bid)})
}

func (h *Handler) submitLogisticsBid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req submitLogisticsBidRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	bid, err := h.eng.LogisticsBidding.SubmitBid(r.Context(), id, req.LogisticsID, req.Terms.terms())
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bid": toLogisticsBid(*bid)})
}

func (h *Handler) resolveLogisticsBid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	action, err := bidding.ParseAction(req.Action)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	bid, shipment, err := h.eng.LogisticsApproval.ResolveBid(r.Context(), id, req.ManufacturerID, action)
	if err != nil {
		fail(w, h.log, err, onResolve)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bid":             toLogisticsBid(*bid),
		"shipmentCreated": shipment != nil,
		"shipment":        toShipment(shipment),
	})
}

func (h *Handler) withdrawLogisticsBid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	bid, err := h.eng.LogisticsBidding.WithdrawBid(r.Context(), id, req.LogisticsID)
	if err != nil {
		fail(w, h.log, err, onResolve)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bid": toLogisticsBid(*bid)})
}

func (h *Handler) listLogisticsReady(w http.ResponseWriter, r *http.Request) {
	bs, err := h.eng.Queries.LogisticsReady(r.Context())
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": toBatches(bs)})
}

func (h *Handler) listSupplierBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.eng.Queries.SupplierBidsBySupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bids": toSupplierBidListings(bids)})
}

func (h *Handler) listCarrierBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.eng.Queries.LogisticsBidsByProvider(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		fail(w, h.log, err, onSubmit)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bids": toLogisticsBids(bids)})
}
