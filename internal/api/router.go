// Package api exposes the fulfillment engine over HTTP/JSON. Caller
// identities (manufacturerId, supplierId, logisticsId) arrive in request
// bodies and are trusted as supplied by the authentication layer in front.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Spok95/batchflow/internal/fulfillment"
)

// DocumentLinker resolves a stored compliance file to its durable URL.
type DocumentLinker interface {
	URL(ctx context.Context, docType, ownerID, fileName string) (string, error)
}

type Handler struct {
	eng  *fulfillment.Engine
	docs DocumentLinker
	log  *slog.Logger
	now  func() time.Time
}

func NewRouter(eng *fulfillment.Engine, docs DocumentLinker, log *slog.Logger) http.Handler {
	h := &Handler{eng: eng, docs: docs, log: log, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe(log))

	r.Route("/batches", func(r chi.Router) {
		r.Get("/", h.listBatches)
		r.Post("/", h.createBatch)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getBatch)
			r.Patch("/status", h.overrideStatus)
			r.Post("/material-requests", h.openRequest)
			r.Get("/material-bids", h.listMaterialBids)
			r.Get("/logistics-bids", h.listLogisticsBids)
			r.Post("/logistics-bids", h.submitLogisticsBid)
			r.Get("/shipment", h.getShipment)
			r.Get("/bids.xlsx", h.exportBids)
		})
	})
	r.Post("/material-requests/{id}/bids", h.submitSupplierBid)
	r.Post("/material-bids/{id}/resolve", h.resolveSupplierBid)
	r.Post("/material-bids/{id}/withdraw", h.withdrawSupplierBid)
	r.Post("/logistics-bids/{id}/resolve", h.resolveLogisticsBid)
	r.Post("/logistics-bids/{id}/withdraw", h.withdrawLogisticsBid)
	r.Get("/logistics/available-batches", h.listLogisticsReady)
	r.Get("/logistics/{id}/bids", h.listCarrierBids)
	r.Get("/suppliers/{id}/bids", h.listSupplierBids)

	return r
}
