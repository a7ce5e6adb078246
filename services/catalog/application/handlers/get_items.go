package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
)

// GetItemsHandler serves both catalog listings.
type GetItemsHandler struct{ handler }

// NewGetItemsHandler returns a GetItemsHandler backed by the given services.
func NewGetItemsHandler(svc *appsvcs.Services, log logger.Logger) *GetItemsHandler {
	return &GetItemsHandler{handler{svc: svc, log: log}}
}

// Admin lists every item that has not been deleted, sold ones included.
//
//	@Summary		List items (admin)
//	@Description	Non-deleted items, newest first
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/catalog/getItems [get]
func (h *GetItemsHandler) Admin(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Catalog.ListAdmin(r.Context())
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponses(items))
}

// Users lists the items shoppers can still buy.
//
//	@Summary		List items (shoppers)
//	@Description	Non-deleted, available items, newest first
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/catalog/getItemsForUsers [get]
func (h *GetItemsHandler) Users(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Catalog.ListForUsers(r.Context())
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponses(items))
}
