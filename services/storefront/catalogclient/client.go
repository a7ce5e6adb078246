// Package catalogclient is the storefront's HTTP client for the catalog API.
package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNotFound is returned when the catalog has no item with the requested id.
var ErrNotFound = errors.New("catalog: item not found")

// Item is a catalog item as the storefront sees it.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Image     string    `json:"image"`
	Available bool      `json:"available"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
}

// Purchasable reports whether the item can still be ordered.
func (i Item) Purchasable() bool {
	return i.Available && !i.Deleted
}

// emptyCatalogMessage is the error the list endpoints send with their 404
// when nothing matches.
const emptyCatalogMessage = "no items available"

// APIError is a non-2xx response. Catalog is set when the body was the
// catalog's own {"error": ...} envelope; a 404 without it comes from a wrong
// base URL or an intermediary, not from the catalog.
type APIError struct {
	Status  int
	Message string
	Catalog bool
}

func catalogNotFound(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound && apiErr.Catalog {
		return apiErr, true
	}
	return nil, false
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: %d %s", e.Status, e.Message)
}

// Client talks to the catalog API mounted at baseURL (e.g. http://localhost:8080/api).
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client whose requests are traced through otelhttp.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ListForUsers returns the purchasable items, newest first. An empty catalog
// is not an error; any other failure, including a 404 that did not come from
// the catalog, is.
func (c *Client) ListForUsers(ctx context.Context) ([]Item, error) {
	return c.list(ctx, "/catalog/getItemsForUsers")
}

// ListAll returns every non-deleted item, sold ones included.
func (c *Client) ListAll(ctx context.Context) ([]Item, error) {
	return c.list(ctx, "/catalog/getItems")
}

func (c *Client) list(ctx context.Context, path string) ([]Item, error) {
	var items []Item
	err := c.do(ctx, http.MethodGet, path, nil, "", &items)
	if apiErr, ok := catalogNotFound(err); ok && apiErr.Message == emptyCatalogMessage {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetOne fetches a single item. Deleted items are returned with Deleted set.
func (c *Client) GetOne(ctx context.Context, id uuid.UUID) (*Item, error) {
	var item Item
	err := c.do(ctx, http.MethodGet, "/catalog/getOneItem/"+id.String(), nil, "", &item)
	if _, ok := catalogNotFound(err); ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MarkUnavailable flags every id as sold. It is idempotent.
func (c *Client) MarkUnavailable(ctx context.Context, ids []uuid.UUID) error {
	body, err := json.Marshal(map[string][]uuid.UUID{"itemIds": ids})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/catalog/markUnavailable", bytes.NewReader(body), "application/json", nil)
}

// NewItem is the input of Create.
type NewItem struct {
	Name     string
	Price    string
	Size     string
	Filename string
	Image    io.Reader
}

// Create uploads a new item with its image.
func (c *Client) Create(ctx context.Context, in NewItem) (*Item, error) {
	body, contentType, err := itemForm(in)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := c.do(ctx, http.MethodPost, "/catalog/saveItem", body, contentType, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemChanges is the input of Update. Blank fields and a nil Image are left
// unchanged by the catalog.
type ItemChanges = NewItem

// Update changes the non-blank fields of an item and, when Image is set,
// replaces its picture.
func (c *Client) Update(ctx context.Context, id uuid.UUID, in ItemChanges) (*Item, error) {
	body, contentType, err := itemForm(in)
	if err != nil {
		return nil, err
	}
	var item Item
	err = c.do(ctx, http.MethodPut, "/catalog/updateItem/"+id.String(), body, contentType, &item)
	if _, ok := catalogNotFound(err); ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// itemForm encodes in as multipart/form-data. Blank fields are omitted and
// the file part is only written when in.Image is set.
func itemForm(in NewItem) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range [][2]string{{"name", in.Name}, {"price", in.Price}, {"size", in.Size}} {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if in.Image != nil {
		fw, err := mw.CreateFormFile("file", in.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, in.Image); err != nil {
			return nil, "", fmt.Errorf("catalog: read image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// Delete soft-deletes an item.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	err := c.do(ctx, http.MethodDelete, "/catalog/deleteItem/"+id.String(), nil, "", nil)
	if _, ok := catalogNotFound(err); ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Catalog = e.Error, true
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode %s response: %w", path, err)
	}
	return nil
}
