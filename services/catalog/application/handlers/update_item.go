package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
)

// UpdateItemHandler handles PUT /catalog/updateItem/{id} requests.
type UpdateItemHandler struct{ handler }

func NewUpdateItemHandler(svc *appsvcs.Services, log logger.Logger) *UpdateItemHandler {
	return &UpdateItemHandler{handler{svc: svc, log: log}}
}

// Execute applies a partial update. Every form field is optional; blank
// fields keep their stored value.
//
//	@Summary		Update item
//	@Tags			catalog
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Item ID"
//	@Param			name	formData	string	false	"New name"
//	@Param			price	formData	string	false	"New price"
//	@Param			size	formData	string	false	"New size"
//	@Param			file	formData	file	false	"Replacement image"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/catalog/updateItem/{id} [put]
func (h *UpdateItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}

	image, closeForm, err := parseItemForm(r)
	defer closeForm()
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}

	item, err := h.svc.Catalog.Update(r.Context(), id, appsvcs.UpdateInput{
		Name:  r.FormValue("name"),
		Price: r.FormValue("price"),
		Size:  r.FormValue("size"),
		Image: image,
	})
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}
