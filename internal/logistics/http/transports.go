package logistichttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
)

func (h *Handler) handleListTransports(w http.ResponseWriter, r *http.Request) {
	branch, err := branchFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var list []logistics.TransportDelivery
	switch orderID := r.URL.Query().Get("order"); {
	case orderID != "":
		list = h.store.ListTransportsByOrder(orderID)
	case branch != nil:
		list = h.store.ListTransportsByBranch(*branch)
	default:
		list = h.store.ListTransports()
	}
	views := make([]transportView, 0, len(list))
	for _, t := range list {
		views = append(views, newTransportView(t))
	}
	httpx.JSON(w, http.StatusOK, paginate(r, views))
}

func (h *Handler) handleCreateTransport(w http.ResponseWriter, r *http.Request) {
	var req transportRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.CreateTransport(r.Context(), logistics.TransportDelivery{
		TransportNo:  req.TransportNo,
		OrderID:      req.OrderID,
		TruckID:      req.TruckID,
		TrailerID:    req.TrailerID,
		DriverName:   req.DriverName,
		BranchIDs:    req.BranchIDs,
		Quantity:     req.Quantity,
		FueledLiters: req.FueledLiters,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newTransportView(t))
}

func (h *Handler) handleGetTransport(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTransport(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTransportView(t))
}

func (h *Handler) handleUpdateTransport(w http.ResponseWriter, r *http.Request) {
	var req transportPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := logistics.TransportPatch{
		TruckID:      req.TruckID,
		TrailerID:    req.TrailerID,
		DriverName:   req.DriverName,
		BranchIDs:    req.BranchIDs,
		Quantity:     req.Quantity,
		FueledLiters: req.FueledLiters,
		Odometer:     req.Odometer,
		Actor:        actor(r),
	}
	if req.Status != nil {
		status := logistics.TransportStatus(*req.Status)
		patch.Status = &status
	}
	t, err := h.store.UpdateTransport(r.Context(), idParam(r), patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTransportView(t))
}

func (h *Handler) handleStartTransport(w http.ResponseWriter, r *http.Request) {
	var req startTransportRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.StartTransport(r.Context(), idParam(r), req.Odometer, actor(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTransportView(t))
}

func (h *Handler) handleCompleteTransport(w http.ResponseWriter, r *http.Request) {
	var req completeTransportRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.CompleteTransport(r.Context(), idParam(r), logistics.CompleteTransportInput{
		EndOdometer:  req.Odometer,
		FueledLiters: req.FueledLiters,
		Actor:        actor(r),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTransportView(t))
}

func (h *Handler) handleListDriverJobs(w http.ResponseWriter, r *http.Request) {
	if driver := r.URL.Query().Get("driver"); driver != "" {
		httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListDriverJobsByDriver(driver)))
		return
	}
	httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListDriverJobs()))
}

func (h *Handler) handleCreateDriverJob(w http.ResponseWriter, r *http.Request) {
	var req driverJobRequest
	if !h.decode(w, r, &req) {
		return
	}
	j, err := h.store.CreateDriverJob(r.Context(), logistics.DriverJob{
		ID:          req.ID,
		TransportNo: req.TransportNo,
		DriverName:  req.DriverName,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, j)
}

func (h *Handler) handleGetDriverJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.store.GetDriverJob(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, j)
}

func (h *Handler) handleAdvanceDriverJob(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	j, err := h.store.AdvanceDriverJob(r.Context(), idParam(r), logistics.DriverJobStatus(req.Status), actor(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, j)
}
