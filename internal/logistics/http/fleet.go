package logistichttp

import (
	"net/http"
	"strconv"

	"github.com/odyssey-erp/odyssey-logistics/internal/logistics"
	"github.com/odyssey-erp/odyssey-logistics/internal/platform/httpx"
)

func (h *Handler) handleListTrucks(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListTrucks()))
}

func (h *Handler) handleCreateTruck(w http.ResponseWriter, r *http.Request) {
	var req truckRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.CreateTruck(r.Context(), logistics.TruckProfile{
		ID:           req.ID,
		PlateNo:      req.PlateNo,
		Capacity:     req.Capacity,
		Active:       req.Active,
		LastOdometer: req.LastOdometer,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleGetTruck(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTruck(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleUpdateTruck(w http.ResponseWriter, r *http.Request) {
	var req truckPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.UpdateTruck(r.Context(), idParam(r), logistics.TruckPatch{
		PlateNo:      req.PlateNo,
		Capacity:     req.Capacity,
		Active:       req.Active,
		LastOdometer: req.LastOdometer,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleListTrailers(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, paginate(r, h.store.ListTrailers()))
}

func (h *Handler) handleCreateTrailer(w http.ResponseWriter, r *http.Request) {
	var req trailerRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.CreateTrailer(r.Context(), logistics.Trailer{
		ID:       req.ID,
		PlateNo:  req.PlateNo,
		Capacity: req.Capacity,
		Active:   req.Active,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleGetTrailer(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTrailer(idParam(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleUpdateTrailer(w http.ResponseWriter, r *http.Request) {
	var req trailerPatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.store.UpdateTrailer(r.Context(), idParam(r), logistics.TrailerPatch{
		PlateNo:  req.PlateNo,
		Capacity: req.Capacity,
		Active:   req.Active,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleListBranches(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.store.ListBranches()})
}

func (h *Handler) handleGetBranch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(idParam(r), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Branch", "branch id must be an integer")
		return
	}
	b, err := h.store.GetBranch(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) handleListLegalEntities(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.store.ListLegalEntities()})
}
