package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/batchflow/internal/fulfillment"
	"github.com/Spok95/batchflow/internal/infra/documents"
	"github.com/Spok95/batchflow/internal/storage/memory"
)

type env struct {
	t     *testing.T
	h     http.Handler
	store *memory.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := fulfillment.New(store, log, fulfillment.Options{RetryBase: time.Millisecond})
	return &env{t: t, h: NewRouter(eng, documents.NewService("https://docs.test"), log), store: store}
}

func (e *env) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			e.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func (e *env) expect(method, path string, body any, status int) map[string]any {
	e.t.Helper()
	rec, out := e.do(method, path, body)
	if rec.Code != status {
		e.t.Fatalf("%s %s = %d %s, want %d", method, path, rec.Code, rec.Body.String(), status)
	}
	return out
}

func field(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

func batchBody(materials ...string) map[string]any {
	reqs := []map[string]any{}
	for _, m := range materials {
		reqs = append(reqs, map[string]any{
			"materialName": m, "quantity": 10, "unit": "kg", "closingDate": "2025-05-01",
		})
	}
	return map[string]any{
		"manufacturerId":   "m1",
		"productSpec":      map[string]any{"productName": "Ibuprofen 200mg", "quantity": 500, "unit": "boxes"},
		"materialRequests": reqs,
		"complianceDocuments": []map[string]any{
			{"type": "GMP", "fileName": "gmp.pdf", "issuer": "FDA"},
		},
	}
}

var supplierTerms = map[string]any{
	"bidPrice": "42.10", "deliveryTimeline": 4, "proposedDate": "2025-04-20", "validUntil": "2025-05-20",
}

var logisticsTerms = map[string]any{
	"bidPrice": 900, "estimatedTime": 48, "pickupDate": "2025-05-02", "deliveryDate": "2025-05-04",
	"vehicleType": "Truck", "validUntil": "2025-05-10",
}

func TestAPI_FullFlow(t *testing.T) {
	e := newEnv(t)

	created := e.expect(http.MethodPost, "/batches", batchBody("Cellulose"), http.StatusCreated)
	batchID := field(created, "batch", "id").(string)
	if field(created, "batch", "status") != "CREATED" {
		t.Fatalf("batch = %v", created["batch"])
	}
	docs := created["complianceDocuments"].([]any)
	if url := docs[0].(map[string]any)["url"]; url != "https://docs.test/compliance/m1/gmp/gmp.pdf" {
		t.Errorf("document url = %v", url)
	}
	reqID := created["materialRequests"].([]any)[0].(map[string]any)["id"].(string)

	bid := e.expect(http.MethodPost, "/material-requests/"+reqID+"/bids",
		map[string]any{"supplierId": "s1", "terms": supplierTerms}, http.StatusOK)
	bidID := field(bid, "bid", "id").(string)
	if field(bid, "bid", "bidPrice") != "42.1" {
		t.Errorf("bidPrice = %v", field(bid, "bid", "bidPrice"))
	}

	e.expect(http.MethodPost, "/material-requests/"+reqID+"/bids",
		map[string]any{"supplierId": "s1", "terms": supplierTerms}, http.StatusConflict)
	e.expect(http.MethodPost, "/batches/"+batchID+"/logistics-bids",
		map[string]any{"logisticsId": "l1", "terms": logisticsTerms}, http.StatusBadRequest)

	e.expect(http.MethodPost, "/material-bids/"+bidID+"/resolve",
		map[string]any{"manufacturerId": "intruder", "action": "ACCEPT"}, http.StatusUnauthorized)
	res := e.expect(http.MethodPost, "/material-bids/"+bidID+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "ACCEPT"}, http.StatusOK)
	if field(res, "bid", "status") != "ACCEPTED" {
		t.Fatalf("resolve = %v", res)
	}
	out := e.expect(http.MethodPost, "/material-bids/"+bidID+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "ACCEPT"}, http.StatusConflict)
	if out["error"] != "INVALID_STATE" || out["reason"] != "already processed" {
		t.Errorf("second resolve = %v", out)
	}

	ready := e.expect(http.MethodGet, "/logistics/available-batches", nil, http.StatusOK)
	if n := len(ready["batches"].([]any)); n != 1 {
		t.Errorf("%d logistics-ready batches, want 1", n)
	}

	lbid := e.expect(http.MethodPost, "/batches/"+batchID+"/logistics-bids",
		map[string]any{"logisticsId": "l1", "terms": logisticsTerms}, http.StatusOK)
	lbidID := field(lbid, "bid", "id").(string)

	awarded := e.expect(http.MethodPost, "/logistics-bids/"+lbidID+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "accept"}, http.StatusOK)
	if awarded["shipmentCreated"] != true {
		t.Fatalf("resolve logistics = %v", awarded)
	}

	detail := e.expect(http.MethodGet, "/batches/"+batchID, nil, http.StatusOK)
	if field(detail, "batch", "status") != "IN_TRANSIT" || field(detail, "batch", "selectedLogisticsBidId") != lbidID {
		t.Errorf("batch after award = %v", detail["batch"])
	}
	ship := e.expect(http.MethodGet, "/batches/"+batchID+"/shipment", nil, http.StatusOK)
	if field(ship, "shipment", "bidId") != lbidID {
		t.Errorf("shipment = %v", ship)
	}

	groups := e.expect(http.MethodGet, "/batches/"+batchID+"/material-bids", nil, http.StatusOK)
	if n := len(groups["materialBids"].([]any)); n != 1 {
		t.Errorf("%d material bid groups, want 1", n)
	}
	lbids := e.expect(http.MethodGet, "/batches/"+batchID+"/logistics-bids", nil, http.StatusOK)
	if n := len(lbids["logisticsBids"].([]any)); n != 1 {
		t.Errorf("%d logistics bids, want 1", n)
	}

	rec, _ := e.do(http.MethodGet, "/batches/"+batchID+"/bids.xlsx", nil)
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("export = %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("export content type = %s", ct)
	}
}

func TestAPI_CreateBatchValidation(t *testing.T) {
	e := newEnv(t)
	body := batchBody()
	body["productSpec"] = map[string]any{"quantity": 1}
	out := e.expect(http.MethodPost, "/batches", body, http.StatusBadRequest)
	if out["error"] != "INVALID_ARGUMENT" {
		t.Errorf("error = %v", out)
	}

	rec, _ := e.do(http.MethodPost, "/batches", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body = %d, want 400", rec.Code)
	}
}

func TestAPI_NotFound(t *testing.T) {
	e := newEnv(t)
	unknown := uuid.NewString()
	e.expect(http.MethodGet, "/batches/"+unknown, nil, http.StatusNotFound)
	e.expect(http.MethodGet, "/batches/not-a-uuid", nil, http.StatusNotFound)
	e.expect(http.MethodGet, "/batches/"+unknown+"/shipment", nil, http.StatusNotFound)
	e.expect(http.MethodPost, "/material-requests/"+unknown+"/bids",
		map[string]any{"supplierId": "s1", "terms": supplierTerms}, http.StatusNotFound)
	e.expect(http.MethodPost, "/material-bids/"+unknown+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "REJECT"}, http.StatusNotFound)
	e.expect(http.MethodPost, "/logistics-bids/"+unknown+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "REJECT"}, http.StatusNotFound)
}

func TestAPI_ResolveRejectsUnknownAction(t *testing.T) {
	e := newEnv(t)
	e.expect(http.MethodPost, "/material-bids/"+uuid.NewString()+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "MAYBE"}, http.StatusBadRequest)
}

func TestAPI_OverrideStatusAndWithdraw(t *testing.T) {
	e := newEnv(t)
	created := e.expect(http.MethodPost, "/batches", batchBody("Talc"), http.StatusCreated)
	batchID := field(created, "batch", "id").(string)
	reqID := created["materialRequests"].([]any)[0].(map[string]any)["id"].(string)

	e.expect(http.MethodPatch, "/batches/"+batchID+"/status",
		map[string]any{"manufacturerId": "m1", "status": "BOGUS"}, http.StatusBadRequest)
	out := e.expect(http.MethodPatch, "/batches/"+batchID+"/status",
		map[string]any{"manufacturerId": "m1", "status": "in_production"}, http.StatusOK)
	if field(out, "batch", "status") != "IN_PRODUCTION" {
		t.Errorf("override = %v", out)
	}

	more := e.expect(http.MethodPost, "/batches/"+batchID+"/material-requests",
		map[string]any{"materialName": "Magnesium stearate", "quantity": 2, "unit": "kg", "closingDate": "2025-05-01T00:00:00Z"},
		http.StatusCreated)
	if field(more, "materialRequest", "status") != "OPEN" {
		t.Errorf("open request = %v", more)
	}

	bid := e.expect(http.MethodPost, "/material-requests/"+reqID+"/bids",
		map[string]any{"supplierId": "s1", "terms": supplierTerms}, http.StatusOK)
	bidID := field(bid, "bid", "id").(string)
	e.expect(http.MethodPost, "/material-bids/"+bidID+"/withdraw", map[string]any{"supplierId": "s2"}, http.StatusUnauthorized)
	w := e.expect(http.MethodPost, "/material-bids/"+bidID+"/withdraw", map[string]any{"supplierId": "s1"}, http.StatusOK)
	if field(w, "bid", "status") != "WITHDRAWN" {
		t.Errorf("withdraw = %v", w)
	}
	e.expect(http.MethodPost, "/material-bids/"+bidID+"/withdraw", map[string]any{"supplierId": "s1"}, http.StatusConflict)
}

func TestFail_TransactionConflictIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &fulfillment.Error{Kind: fulfillment.KindTransactionConflict, Reason: fulfillment.ReasonRetryLater, Cause: fulfillment.ErrSerialization}
	fail(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), err, onResolve)
	if rec.Code != http.StatusServiceUnavailable || rec.Header().Get("Retry-After") == "" {
		t.Errorf("got %d, Retry-After=%q", rec.Code, rec.Header().Get("Retry-After"))
	}

	rec = httptest.NewRecorder()
	fail(rec, slog.New(slog.NewTextHandler(io.Discard, nil)), errors.New("db down"), onSubmit)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("unclassified error = %d, want 500", rec.Code)
	}
}

func TestAPI_StoreFailureIsInternal(t *testing.T) {
	e := newEnv(t)
	e.store.InjectFault("InsertBatch", errors.New("disk full"))
	rec, out := e.do(http.MethodPost, "/batches", batchBody())
	if rec.Code != http.StatusInternalServerError || out["error"] != "INTERNAL" {
		t.Errorf("got %d %v", rec.Code, out)
	}
}

func TestAPI_PartyListings(t *testing.T) {
	e := newEnv(t)
	created := e.expect(http.MethodPost, "/batches", batchBody("Cellulose", "Talc"), http.StatusCreated)
	batchID := field(created, "batch", "id").(string)
	reqs := created["materialRequests"].([]any)
	for _, r := range reqs {
		reqID := r.(map[string]any)["id"].(string)
		e.expect(http.MethodPost, "/material-requests/"+reqID+"/bids",
			map[string]any{"supplierId": "s1", "terms": supplierTerms}, http.StatusOK)
	}
	other := batchBody()
	other["manufacturerId"] = "m2"
	ready := e.expect(http.MethodPost, "/batches", other, http.StatusCreated)
	readyID := field(ready, "batch", "id").(string)

	all := e.expect(http.MethodGet, "/batches", nil, http.StatusOK)
	if n := len(all["batches"].([]any)); n != 2 {
		t.Errorf("%d batches, want 2", n)
	}
	mine := e.expect(http.MethodGet, "/batches?manufacturerId=m2", nil, http.StatusOK)
	if bs := mine["batches"].([]any); len(bs) != 1 || bs[0].(map[string]any)["id"] != readyID {
		t.Errorf("m2 batches = %v", bs)
	}

	sb := e.expect(http.MethodGet, "/suppliers/s1/bids", nil, http.StatusOK)
	bids := sb["bids"].([]any)
	if len(bids) != 2 {
		t.Fatalf("%d supplier bids, want 2", len(bids))
	}
	first := bids[0].(map[string]any)
	if first["batchId"] != batchID || first["productName"] != "Ibuprofen 200mg" || first["supplierId"] != "s1" || first["materialName"] == "" {
		t.Errorf("supplier bid listing = %v", first)
	}
	if n := len(e.expect(http.MethodGet, "/suppliers/s2/bids", nil, http.StatusOK)["bids"].([]any)); n != 0 {
		t.Errorf("s2 has %d bids, want 0", n)
	}

	lb := e.expect(http.MethodPost, "/batches/"+readyID+"/logistics-bids",
		map[string]any{"logisticsId": "l1", "terms": logisticsTerms}, http.StatusOK)
	lbID := field(lb, "bid", "id").(string)
	pending := e.expect(http.MethodGet, "/logistics/l1/bids?status=pending", nil, http.StatusOK)
	if bs := pending["bids"].([]any); len(bs) != 1 || bs[0].(map[string]any)["id"] != lbID {
		t.Errorf("pending carrier bids = %v", bs)
	}
	accepted := e.expect(http.MethodGet, "/logistics/l1/bids?status=ACCEPTED", nil, http.StatusOK)
	if n := len(accepted["bids"].([]any)); n != 0 {
		t.Errorf("%d accepted carrier bids, want 0", n)
	}
	out := e.expect(http.MethodGet, "/logistics/l1/bids?status=WON", nil, http.StatusBadRequest)
	if out["error"] != "INVALID_ARGUMENT" {
		t.Errorf("bad status = %v", out)
	}

	e.expect(http.MethodGet, "/logistics/available-batches", nil, http.StatusOK)
}

func TestAPI_LogisticsEmission(t *testing.T) {
	e := newEnv(t)
	created := e.expect(http.MethodPost, "/batches", batchBody(), http.StatusCreated)
	batchID := field(created, "batch", "id").(string)

	terms := map[string]any{}
	for k, v := range logisticsTerms {
		terms[k] = v
	}
	terms["emission"] = "312.5"
	lb := e.expect(http.MethodPost, "/batches/"+batchID+"/logistics-bids",
		map[string]any{"logisticsId": "l1", "terms": terms}, http.StatusOK)
	if field(lb, "bid", "emission") != "312.5" {
		t.Errorf("bid emission = %v", field(lb, "bid", "emission"))
	}
	plain := e.expect(http.MethodPost, "/batches/"+batchID+"/logistics-bids",
		map[string]any{"logisticsId": "l2", "terms": logisticsTerms}, http.StatusOK)
	if v, ok := field(plain, "bid").(map[string]any)["emission"]; !ok || v != nil {
		t.Errorf("undeclared emission = %v", v)
	}

	before := e.expect(http.MethodGet, "/batches/"+batchID, nil, http.StatusOK)
	if field(before, "emissions", "hasLogisticsBid") != false || field(before, "emissions", "logistics") != "0" {
		t.Errorf("emissions before award = %v", before["emissions"])
	}
	e.expect(http.MethodPost, "/logistics-bids/"+field(lb, "bid", "id").(string)+"/resolve",
		map[string]any{"manufacturerId": "m1", "action": "ACCEPT"}, http.StatusOK)
	after := e.expect(http.MethodGet, "/batches/"+batchID, nil, http.StatusOK)
	if field(after, "emissions", "hasLogisticsBid") != true || field(after, "emissions", "total") != "312.5" {
		t.Errorf("emissions after award = %v", after["emissions"])
	}
}
