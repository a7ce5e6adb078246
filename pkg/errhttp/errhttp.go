// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/ghuser/storefront/pkg/httpx"
	"github.com/ghuser/storefront/pkg/logger"
	catalogdomain "github.com/ghuser/storefront/services/catalog/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Unrecognized errors become 500 with the generic status text only; the
// real error is logged and reported to Sentry when a hub is on the request.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	}
	httpx.JSONError(w, status, httpx.SafeError(err, status))
}

func mapErrorToStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, catalogdomain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrNoItemsAvailable):
		return http.StatusNotFound // 404
	case errors.Is(err, catalogdomain.ErrItemAlreadyExists),
		errors.Is(err, catalogdomain.ErrInvalidItem):
		return http.StatusBadRequest // 400
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge // 413
	default:
		return http.StatusInternalServerError // 500
	}
}
