package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
)

// SaveItemHandler handles POST /catalog/saveItem requests.
type SaveItemHandler struct{ handler }

// NewSaveItemHandler returns a SaveItemHandler backed by the given services.
func NewSaveItemHandler(svc *appsvcs.Services, log logger.Logger) *SaveItemHandler {
	return &SaveItemHandler{handler{svc: svc, log: log}}
}

// Execute creates a new catalog item from a multipart form.
//
//	@Summary		Create item
//	@Description	Uploads the image and creates an available catalog item. Duplicates of a live item's name, price and size are rejected.
//	@Tags			catalog
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name	formData	string	true	"Item name"
//	@Param			price	formData	string	true	"Price, e.g. 500 or 499.99"
//	@Param			size	formData	string	true	"Size label"
//	@Param			file	formData	file	true	"JPEG or PNG image"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/catalog/saveItem [post]
func (h *SaveItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	image, closeForm, err := parseItemForm(r)
	defer closeForm()
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}

	item, err := h.svc.Catalog.Create(r.Context(), appsvcs.CreateInput{
		Name:  r.FormValue("name"),
		Price: r.FormValue("price"),
		Size:  r.FormValue("size"),
		Image: image,
	})
	if err != nil {
		errhttp.WriteError(w, r, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}
