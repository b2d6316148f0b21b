package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/pkg/httpx"
	"github.com/fleetyard/fleetyard/pkg/slogx"
)

// ClientsHandler serves the admin client endpoints under /v1/clients.
type ClientsHandler struct {
	ClientService *service.ClientService
}

// HandleList godoc
//
//	@Summary	List clients
//	@Tags		Clients
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		ClientResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	403	{object}	ErrorResponse
//	@Router		/v1/clients [get]
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clients, err := h.ClientService.ListClients(ctx)
	if err != nil {
		log.Error("list clients failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet godoc
//
//	@Summary	Get client
//	@Tags		Clients
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Client ID"
//	@Success	200	{object}	ClientResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/v1/clients/{id} [get]
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	client, err := h.ClientService.GetClient(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "client not found")
			return
		}
		log.Error("get client failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toClientResponse(client))
}

// HandleUpdate godoc
//
//	@Summary		Update client
//	@Description	Partially updates a client. Setting a new password revokes every refresh token the client holds.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Client ID"
//	@Param			request	body		UpdateClientRequest	true	"Fields to change"
//	@Success		200		{object}	ClientResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/v1/clients/{id} [patch]
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	upd := service.ClientUpdate{
		Name:     req.Name,
		Password: req.Password,
		Active:   req.Active,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_request", "unknown role")
			return
		}
		upd.Role = &role
	}
	if req.Password != nil && len(*req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	client, err := h.ClientService.UpdateClient(ctx, r.PathValue("id"), upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "client not found")
			return
		}
		log.Error("update client failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toClientResponse(client))
}

// HandleDeactivate godoc
//
//	@Summary		Deactivate client
//	@Description	Marks the client inactive and revokes its refresh tokens. The record is kept.
//	@Tags			Clients
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Client ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/v1/clients/{id}/deactivate [post]
func (h *ClientsHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.ClientService.DeactivateClient(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "client not found")
			return
		}
		log.Error("deactivate client failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete godoc
//
//	@Summary	Delete client
//	@Tags		Clients
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Client ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/v1/clients/{id} [delete]
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.ClientService.DeleteClient(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "client not found")
			return
		}
		log.Error("delete client failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
