package logistichttp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
)

const rateWindow = time.Minute

// MountRoutes registers the logistics endpoints. Reads are unlimited;
// mutations share one limiter keyed by actor, falling back to client IP.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(withActor)

		r.Get("/numbers/{docType}/next", h.handleNextNumber)
		r.Get("/quotations", h.handleListQuotations)
		r.Get("/quotations/{id}", h.handleGetQuotation)
		r.Get("/orders", h.handleListOrders)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Get("/orders/by-no/{no}", h.handleGetOrderByNo)
		r.Get("/delivery-notes", h.handleListDeliveryNotes)
		r.Get("/delivery-notes/{id}", h.handleGetDeliveryNote)
		r.Get("/receipts", h.handleListReceipts)
		r.Get("/receipts/{id}", h.handleGetReceipt)
		r.Get("/transports", h.handleListTransports)
		r.Get("/transports/{id}", h.handleGetTransport)
		r.Get("/driver-jobs", h.handleListDriverJobs)
		r.Get("/driver-jobs/{id}", h.handleGetDriverJob)
		r.Get("/oil-receipts", h.handleListOilReceipts)
		r.Get("/oil-receipts/{id}", h.handleGetOilReceipt)
		r.Get("/oil-receipts/{id}/reconciliation", h.handleOilReceiptReconciliation)
		r.Get("/tank-entries", h.handleListTankEntries)
		r.Get("/tank-entries/{id}", h.handleGetTankEntry)
		r.Get("/trucks", h.handleListTrucks)
		r.Get("/trucks/{id}", h.handleGetTruck)
		r.Get("/trailers", h.handleListTrailers)
		r.Get("/trailers/{id}", h.handleGetTrailer)
		r.Get("/branches", h.handleListBranches)
		r.Get("/branches/{id}", h.handleGetBranch)
		r.Get("/legal-entities", h.handleListLegalEntities)
		r.Get("/reconciliation", h.handleReconciliationReport)
		r.Get("/reconciliation/driver-jobs", h.handleDriverJobDivergences)

		r.Group(func(gr chi.Router) {
			if h.rateLimit > 0 {
				gr.Use(httprate.Limit(h.rateLimit, rateWindow,
					httprate.WithKeyFuncs(rateLimitKey),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests",
							"more than "+strconv.Itoa(h.rateLimit)+" writes per minute; retry later")
					}),
				))
			}
			gr.Post("/quotations", h.handleCreateQuotation)
			gr.Patch("/quotations/{id}", h.handleUpdateQuotation)
			gr.Post("/quotations/{id}/confirm", h.handleConfirmQuotation)
			gr.Post("/orders", h.handleCreateOrder)
			gr.Patch("/orders/{id}", h.handleUpdateOrder)
			gr.Post("/orders/{id}/{action}", h.handleOrderAction)
			gr.Post("/delivery-notes", h.handleCreateDeliveryNote)
			gr.Patch("/delivery-notes/{id}", h.handleUpdateDeliveryNote)
			gr.Post("/delivery-notes/{id}/sign", h.handleSignDeliveryNote)
			gr.Delete("/delivery-notes/{id}", h.handleDeleteDeliveryNote)
			gr.Post("/receipts", h.handleCreateReceipt)
			gr.Patch("/receipts/{id}", h.handleUpdateReceipt)
			gr.Post("/receipts/{id}/issue", h.handleIssueReceipt)
			gr.Delete("/receipts/{id}", h.handleDeleteReceipt)
			gr.Post("/transports", h.handleCreateTransport)
			gr.Patch("/transports/{id}", h.handleUpdateTransport)
			gr.Post("/transports/{id}/start", h.handleStartTransport)
			gr.Post("/transports/{id}/complete", h.handleCompleteTransport)
			gr.Post("/driver-jobs", h.handleCreateDriverJob)
			gr.Post("/driver-jobs/{id}/advance", h.handleAdvanceDriverJob)
			gr.Post("/oil-receipts", h.handleCreateOilReceipt)
			gr.Delete("/oil-receipts/{id}", h.handleDeleteOilReceipt)
			gr.Post("/tank-entries", h.handleCreateTankEntry)
			gr.Post("/trucks", h.handleCreateTruck)
			gr.Patch("/trucks/{id}", h.handleUpdateTruck)
			gr.Post("/trailers", h.handleCreateTrailer)
			gr.Patch("/trailers/{id}", h.handleUpdateTrailer)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if name := strings.TrimSpace(actor(r)); name != "" {
		return "actor:" + name, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
