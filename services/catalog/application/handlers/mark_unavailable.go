package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
)

// MarkUnavailableRequest is the request body for POST /catalog/markUnavailable.
type MarkUnavailableRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,dive,uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
} // @name MarkUnavailableRequest

// MarkUnavailableHandler handles POST /catalog/markUnavailable requests.
type MarkUnavailableHandler struct{ handler }

func NewMarkUnavailableHandler(svc *appsvcs.Services, log logger.Logger) *MarkUnavailableHandler {
	return &MarkUnavailableHandler{handler{svc: svc, log: log}}
}

// Execute marks the listed items as sold. Unknown and deleted ids are ignored.
//
//	@Summary		Mark items unavailable
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MarkUnavailableRequest	true	"Item ids"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/catalog/markUnavailable [post]
func (h *MarkUnavailableHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[MarkUnavailableRequest](w, r)
	if !ok {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			errhttp.WriteError(w, r, h.log, fmt.Errorf("%w: malformed item id %q", catalogdomain.ErrInvalidItem, raw))
			return
		}
		ids = append(ids, id)
	}

	if _, err := h.svc.Catalog.MarkUnavailable(r.Context(), ids); err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONMessage(w, http.StatusOK, "Items marked as unavailable")
}
