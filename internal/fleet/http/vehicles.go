package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/pkg/httpx"
	"github.com/fleetyard/fleetyard/pkg/slogx"
)

// VehiclesHandler serves the vehicle endpoints under /v1/vehicles.
type VehiclesHandler struct {
	VehicleService *service.VehicleService
}

// HandleList godoc
//
//	@Summary		List vehicles
//	@Description	Lists all vehicles. Use available=true to restrict to available ones, or brand/model to search.
//	@Tags			Vehicles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			available	query		bool	false	"Only available vehicles"
//	@Param			brand		query		string	false	"Brand substring filter"
//	@Param			model		query		string	false	"Model substring filter"
//	@Success		200			{array}		VehicleResponse
//	@Failure		401			{object}	ErrorResponse
//	@Router			/v1/vehicles [get]
func (h *VehiclesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	q := r.URL.Query()

	var onlyAvailable bool
	if raw := q.Get("available"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "available must be a boolean")
			return
		}
		onlyAvailable = parsed
	}

	var (
		found []domain.Vehicle
		err   error
	)
	switch {
	case q.Get("brand") != "" || q.Get("model") != "":
		found, err = h.VehicleService.SearchVehicles(ctx, q.Get("brand"), q.Get("model"))
	case onlyAvailable:
		found, err = h.VehicleService.ListAvailableVehicles(ctx)
	default:
		found, err = h.VehicleService.ListVehicles(ctx)
	}
	if err != nil {
		log.Error("list vehicles failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toVehicleResponses(found))
}

// HandleGet godoc
//
//	@Summary	Get vehicle
//	@Tags		Vehicles
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Vehicle ID"
//	@Success	200	{object}	VehicleResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/v1/vehicles/{id} [get]
func (h *VehiclesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	vehicle, err := h.VehicleService.GetVehicle(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "vehicle not found")
			return
		}
		log.Error("get vehicle failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toVehicleResponse(vehicle))
}

// HandleCreate godoc
//
//	@Summary	Create vehicle
//	@Tags		Vehicles
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		VehicleRequest	true	"Vehicle"
//	@Success	201		{object}	VehicleResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/v1/vehicles [post]
func (h *VehiclesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	principal, _ := PrincipalFrom(ctx)
	vehicle, err := h.VehicleService.CreateVehicle(ctx, principal.ID, vehicleInput(req))
	if err != nil {
		if errors.Is(err, service.ErrDuplicatePlate) {
			writeError(w, http.StatusConflict, "duplicate_license_plate", "license plate already registered")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toVehicleResponse(vehicle))
}

// HandleUpdate godoc
//
//	@Summary	Update vehicle
//	@Tags		Vehicles
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string			true	"Vehicle ID"
//	@Param		request	body		VehicleRequest	true	"Vehicle"
//	@Success	200		{object}	VehicleResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/v1/vehicles/{id} [put]
func (h *VehiclesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	vehicle, err := h.VehicleService.UpdateVehicle(ctx, r.PathValue("id"), vehicleInput(req))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "vehicle not found")
		case errors.Is(err, service.ErrDuplicatePlate):
			writeError(w, http.StatusConflict, "duplicate_license_plate", "license plate already registered")
		default:
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toVehicleResponse(vehicle))
}

// HandleDelete godoc
//
//	@Summary	Delete vehicle
//	@Tags		Vehicles
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Vehicle ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/v1/vehicles/{id} [delete]
func (h *VehiclesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.VehicleService.DeleteVehicle(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "vehicle not found")
			return
		}
		log.Error("delete vehicle failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func vehicleInput(req VehicleRequest) service.VehicleInput {
	return service.VehicleInput{
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		Color:        req.Color,
		LicensePlate: req.LicensePlate,
		PriceCents:   req.PriceCents,
		Available:    req.Available,
	}
}
