package logistichttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
)

func (h *Handler) handleListDeliveryNotes(w http.ResponseWriter, r *http.Request) {
	if orderID := r.URL.Query().Get("order"); orderID != "" {
		httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListDeliveryNotesByOrder(orderID)))
		return
	}
	httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListDeliveryNotes()))
}

func (h *Handler) handleCreateDeliveryNote(w http.ResponseWriter, r *http.Request) {
	var req deliveryNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.store.CreateDeliveryNote(r.Context(), logistics.DeliveryNote{
		DeliveryNoteNo: req.DeliveryNoteNo,
		OrderID:        req.OrderID,
		TransportID:    req.TransportID,
		Remarks:        req.Remarks,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) handleGetDeliveryNote(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.GetDeliveryNote(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) handleUpdateDeliveryNote(w http.ResponseWriter, r *http.Request) {
	var req deliveryNotePatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.store.UpdateDeliveryNote(r.Context(), idParam(r), logistics.DeliveryNotePatch{
		Remarks:     req.Remarks,
		TransportID: req.TransportID,
		Actor:       actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) handleSignDeliveryNote(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.store.SignDeliveryNote(r.Context(), idParam(r), logistics.SignatureParty(req.Party), req.Payload, actor(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) handleDeleteDeliveryNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteDeliveryNote(r.Context(), idParam(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	if orderID := r.URL.Query().Get("order"); orderID != "" {
		httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListReceiptsByOrder(orderID)))
		return
	}
	httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListReceipts()))
}

func (h *Handler) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	rc, err := h.store.CreateReceipt(r.Context(), logistics.Receipt{
		ReceiptNo:      req.ReceiptNo,
		OrderID:        req.OrderID,
		DeliveryNoteID: req.DeliveryNoteID,
		Amount:         req.Amount,
		Remarks:        req.Remarks,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rc)
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.store.GetReceipt(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rc)
}

func (h *Handler) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	rc, err := h.store.UpdateReceipt(r.Context(), idParam(r), logistics.ReceiptPatch{
		Amount:  req.Amount,
		Remarks: req.Remarks,
		Actor:   actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rc)
}

func (h *Handler) handleIssueReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.store.IssueReceipt(r.Context(), idParam(r), actor(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rc)
}

func (h *Handler) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteReceipt(r.Context(), idParam(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
