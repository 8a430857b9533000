package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coregatekit/microservices/internal/domain"
	"github.com/coregatekit/microservices/internal/service"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
	"github.com/coregatekit/microservices/pkg/httputil"
	"github.com/coregatekit/microservices/pkg/validator"
)

// AddressHandler handles the address endpoints. The owning user always comes
// from the gate's identity, never from the payload or path.
type AddressHandler struct {
	addresses *service.AddressService
	logger    *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(addresses *service.AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, logger: logger}
}

// CreateAddressRequest is the JSON request body for creating an address.
type CreateAddressRequest struct {
	Type         string `json:"type" validate:"required,oneof=BILLING SHIPPING"`
	AddressLine1 string `json:"addressLine1" validate:"required,min=1,max=500"`
	AddressLine2 string `json:"addressLine2" validate:"omitempty,max=500"`
	City         string `json:"city" validate:"required,min=1,max=100"`
	State        string `json:"state" validate:"omitempty,max=100"`
	PostalCode   string `json:"postalCode" validate:"required,min=1,max=20"`
	Country      string `json:"country" validate:"required,min=2,max=100"`
	IsDefault    bool   `json:"isDefault"`
}

// UpdateAddressRequest is the JSON request body for a partial address update.
type UpdateAddressRequest struct {
	Type         *string `json:"type" validate:"omitempty,oneof=BILLING SHIPPING"`
	AddressLine1 *string `json:"addressLine1" validate:"omitempty,min=1,max=500"`
	AddressLine2 *string `json:"addressLine2" validate:"omitempty,max=500"`
	City         *string `json:"city" validate:"omitempty,min=1,max=100"`
	State        *string `json:"state" validate:"omitempty,max=100"`
	PostalCode   *string `json:"postalCode" validate:"omitempty,min=1,max=20"`
	Country      *string `json:"country" validate:"omitempty,min=2,max=100"`
	IsDefault    *bool   `json:"isDefault"`
}

// SetDefaultRequest is the JSON request body for changing the default address
// of a type.
type SetDefaultRequest struct {
	Type string `json:"type" validate:"required,oneof=BILLING SHIPPING"`
}

func (h *AddressHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity := IdentityFromContext(r.Context())
	if identity == nil || identity.UID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return "", false
	}
	return identity.UID, true
}

// Create handles POST /api/v1/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req CreateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	a, err := h.addresses.Create(r.Context(), userID, service.CreateAddressInput{
		Type:         domain.AddressType(req.Type),
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "address created", a)
}

// List handles GET /api/v1/addresses?type=
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	typ := domain.AddressType(r.URL.Query().Get("type"))

	addresses, err := h.addresses.List(r.Context(), userID, typ)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "addresses retrieved", addresses)
}

// GetDefaults handles GET /api/v1/addresses/defaults
func (h *AddressHandler) GetDefaults(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	addresses, err := h.addresses.GetDefaults(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "default addresses retrieved", addresses)
}

// Get handles GET /api/v1/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	a, err := h.addresses.Get(r.Context(), userID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "address retrieved", a)
}

// Update handles PATCH /api/v1/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	in := service.UpdateAddressInput{
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
	}
	if req.Type != nil {
		t := domain.AddressType(*req.Type)
		in.Type = &t
	}

	a, err := h.addresses.Update(r.Context(), userID, id.String(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "address updated", a)
}

// SetDefault handles PATCH /api/v1/addresses/{id}/default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SetDefaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	a, err := h.addresses.SetDefault(r.Context(), userID, id.String(), domain.AddressType(req.Type))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "default address changed", a)
}

// Clear handles DELETE /api/v1/addresses. Test teardown only; the service
// refuses it in production.
func (h *AddressHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	n, err := h.addresses.ClearAll(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "addresses cleared", map[string]int64{"deleted": n})
}
