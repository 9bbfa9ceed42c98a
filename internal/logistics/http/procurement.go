package logistichttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/logistics/numbering"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
)

func (h *Handler) handleNextNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.store.NextNumber(numbering.DocType(chi.URLParam(r, "docType")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": number})
}

func (h *Handler) handleListQuotations(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListQuotations()))
}

func (h *Handler) handleCreateQuotation(w http.ResponseWriter, r *http.Request) {
	var req quotationRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.store.CreateQuotation(r.Context(), logistics.Quotation{
		QuotationNo: req.QuotationNo,
		Supplier:    req.Supplier,
		Items:       toLineItems(req.Items),
		Notes:       req.Notes,
		CreatedBy:   actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) handleGetQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.GetQuotation(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) handleUpdateQuotation(w http.ResponseWriter, r *http.Request) {
	var req quotationPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := logistics.QuotationPatch{
		Supplier:     req.Supplier,
		Notes:        req.Notes,
		SupersededBy: req.SupersededBy,
		Actor:        actor(r),
	}
	if req.Items != nil {
		items := toLineItems(*req.Items)
		patch.Items = &items
	}
	if req.Status != nil {
		status := logistics.QuotationStatus(*req.Status)
		patch.Status = &status
	}
	q, err := h.store.UpdateQuotation(r.Context(), idParam(r), patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) handleConfirmQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.ConfirmQuotation(r.Context(), idParam(r), actor(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var orders []logistics.PurchaseOrder
	switch status := r.URL.Query().Get("status"); {
	case branch != nil:
		orders = h.store.ListOrdersByBranch(*branch)
		if status != "" {
			orders = filter(orders, func(o logistics.PurchaseOrder) bool { return string(o.Status) == status })
		}
	case status != "":
		orders = h.store.ListOrdersByStatus(logistics.OrderStatus(status))
	default:
		orders = h.store.ListOrders()
	}
	httpx.JSON(w, http.StatusOK, paginate(r, orders))
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.store.CreateOrder(r.Context(), logistics.PurchaseOrder{
		OrderNo:       req.OrderNo,
		QuotationID:   req.QuotationID,
		LegalEntityID: req.LegalEntityID,
		Supplier:      req.Supplier,
		BranchIDs:     req.BranchIDs,
		Items:         toLineItems(req.Items),
		CreatedBy:     actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOrder(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleGetOrderByNo(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOrderByNo(chi.URLParam(r, "no"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := logistics.OrderPatch{
		Supplier:      req.Supplier,
		LegalEntityID: req.LegalEntityID,
		BranchIDs:     req.BranchIDs,
		CancelReason:  req.CancelReason,
		Actor:         actor(r),
	}
	if req.Items != nil {
		items := toLineItems(*req.Items)
		patch.Items = &items
	}
	if req.Status != nil {
		status := logistics.OrderStatus(*req.Status)
		patch.Status = &status
	}
	o, err := h.store.UpdateOrder(r.Context(), idParam(r), patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// handleOrderAction runs one of the named order transitions.
func (h *Handler) handleOrderAction(w http.ResponseWriter, r *http.Request) {
	var (
		o   logistics.PurchaseOrder
		err error
	)
	id, who := idParam(r), actor(r)
	switch chi.URLParam(r, "action") {
	case "send":
		o, err = h.store.SendOrder(r.Context(), id, who)
	case "approve":
		o, err = h.store.ApproveOrder(r.Context(), id, who)
	case "receive":
		o, err = h.store.StartReceiving(r.Context(), id, who)
	case "complete":
		o, err = h.store.CompleteOrder(r.Context(), id, who)
	case "cancel":
		var req cancelRequest
		if !h.decode(w, r, &req) {
			return
		}
		o, err = h.store.CancelOrder(r.Context(), id, who, req.Reason)
	default:
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown order action")
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
