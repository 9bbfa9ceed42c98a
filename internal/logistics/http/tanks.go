package logistichttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
)

func (h *Handler) handleListOilReceipts(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var list []logistics.OilReceipt
	switch transportID := r.URL.Query().Get("transport"); {
	case transportID != "":
		list = h.store.ListOilReceiptsByTransport(transportID)
	case branch != nil:
		list = h.store.ListOilReceiptsByBranch(*branch)
	default:
		list = h.store.ListOilReceipts()
	}
	httpx.JSON(w, http.StatusOK, paginate(r, list))
}

func (h *Handler) handleCreateOilReceipt(w http.ResponseWriter, r *http.Request) {
	var req oilReceiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	rc, err := h.store.CreateOilReceipt(r.Context(), logistics.OilReceipt{
		ReceiptNo:        req.ReceiptNo,
		TransportID:      req.TransportID,
		BranchID:         req.BranchID,
		QuantityOrdered:  req.QuantityOrdered,
		QuantityReceived: req.QuantityReceived,
		ReceivedBy:       actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rc)
}

func (h *Handler) handleGetOilReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.store.GetOilReceipt(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rc)
}

func (h *Handler) handleDeleteOilReceipt(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteOilReceipt(r.Context(), idParam(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleOilReceiptReconciliation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Reconcile(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListTankEntries(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var list []logistics.TankEntryRecord
	switch receiptID := r.URL.Query().Get("oilReceipt"); {
	case receiptID != "":
		list = h.store.ListTankEntriesByOilReceipt(receiptID)
	case branch != nil:
		list = h.store.ListTankEntriesByBranch(*branch)
	default:
		list = h.store.ListTankEntries()
	}
	httpx.JSON(w, http.StatusOK, paginate(r, list))
}

func (h *Handler) handleCreateTankEntry(w http.ResponseWriter, r *http.Request) {
	var req tankEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.store.CreateTankEntry(r.Context(), logistics.TankEntryRecord{
		EntryNo:      req.EntryNo,
		OilReceiptID: req.OilReceiptID,
		TankID:       req.TankID,
		Volume:       req.Volume,
		EnteredBy:    actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) handleGetTankEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.GetTankEntry(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) handleReconciliationReport(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report := h.store.ReconciliationReport(branch)
	logistics.SortReconciliations(report)
	httpx.JSON(w, http.StatusOK, paginate(r, report))
}

func (h *Handler) handleDriverJobDivergences(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.store.DriverJobDivergences(branch)})
}
