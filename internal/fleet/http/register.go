package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
	"github.com/fleetyard/fleetyard/pkg/httpx"
	"github.com/fleetyard/fleetyard/pkg/slogx"
)

const minPasswordLength = 8

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Register
//	@Description	Creates a new client account. Role defaults to NORMAL_USER when omitted.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"New account"
//	@Success		201		{object}	ClientResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/v1/auth/register [post]
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}

	role := domain.Role(req.Role)
	if req.Role != "" && !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown role")
		return
	}

	client, err := h.AuthService.Register(ctx, req.Name, req.Email, req.Password, role)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "duplicate_email", "email already registered")
			return
		}
		log.Error("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toClientResponse(client))
}
