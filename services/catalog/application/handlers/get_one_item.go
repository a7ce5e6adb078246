package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
)

// GetOneItemHandler handles GET /catalog/getOneItem/{id} requests.
type GetOneItemHandler struct{ handler }

func NewGetOneItemHandler(svc *appsvcs.Services, log logger.Logger) *GetOneItemHandler {
	return &GetOneItemHandler{handler{svc: svc, log: log}}
}

// Execute returns a single item. Deleted items are returned with deleted=true.
//
//	@Summary		Get item
//	@Tags			catalog
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"
//	@Success		200	{object}	ItemResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/catalog/getOneItem/{id} [get]
func (h *GetOneItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	item, err := h.svc.Catalog.GetOne(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}
