package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
)

// DeleteItemHandler handles DELETE /catalog/deleteItem/{id} requests.
type DeleteItemHandler struct{ handler }

func NewDeleteItemHandler(svc *appsvcs.Services, log logger.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{handler{svc: svc, log: log}}
}

// Execute soft-deletes an item and removes its image.
//
//	@Summary		Delete item
//	@Tags			catalog
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"
//	@Success		200	{object}	MessageResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/catalog/deleteItem/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	if err := h.svc.Catalog.SoftDelete(r.Context(), id); err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSONMessage(w, http.StatusOK, "Item deleted successfully")
}
