package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/logger"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const multipartMemory = 10 << 20

// ItemResponse is the wire shape of a catalog item.
type ItemResponse struct {
	ID        uuid.UUID `json:"id"        example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string    `json:"name"      example:"Denim Jacket"`
	Price     string    `json:"price"     example:"500"`
	Size      string    `json:"size"      example:"M"`
	Image     string    `json:"image"     example:"https://storage.googleapis.com/storefront-catalog/catalog/3f2a.jpg"`
	Available bool      `json:"available" example:"true"`
	Deleted   bool      `json:"deleted"   example:"false"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-15T10:30:00Z"`
} // @name Item

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"item not found"`
} // @name ErrorResponse

// MessageResponse is returned by endpoints without a resource body.
type MessageResponse struct {
	Message string `json:"message" example:"Item deleted successfully"`
} // @name MessageResponse

// handler holds what every catalog endpoint needs.
type handler struct {
	svc *appsvcs.Services
	log logger.Logger
}

func toItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name.String(),
		Price:     item.Price.String(),
		Size:      item.Size.String(),
		Image:     item.Image,
		Available: item.Available,
		Deleted:   item.Deleted,
		CreatedAt: item.CreatedAt,
	}
}

func toItemResponses(items []*models.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = toItemResponse(item)
	}
	return out
}

// itemIDParam reads the {id} path value. A malformed id cannot name an
// existing item, so it is reported as not found.
func itemIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", catalogdomain.ErrItemNotFound, chi.URLParam(r, "id"))
	}
	return id, nil
}

// parseItemForm parses a multipart item form. The returned reader is nil
// when no file was sent; close must always be called.
func parseItemForm(r *http.Request) (image io.Reader, closeFn func(), err error) {
	closeFn = func() {}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, closeFn, err
		}
		return nil, closeFn, fmt.Errorf("%w: expected a multipart form", catalogdomain.ErrInvalidItem)
	}
	closeFn = func() { _ = r.MultipartForm.RemoveAll() }

	file, _, err := r.FormFile("file")
	switch {
	case err == nil:
		prev := closeFn
		closeFn = func() { _ = file.Close(); prev() }
		return file, closeFn, nil
	case errors.Is(err, http.ErrMissingFile):
		return nil, closeFn, nil
	default:
		return nil, closeFn, fmt.Errorf("%w: unreadable file", catalogdomain.ErrInvalidItem)
	}
}
