package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/pkg/media"
	"github.com/ghuser/storefront/services/catalog/application/handlers"
	appsvcs "github.com/ghuser/storefront/services/catalog/application/services"
	"github.com/ghuser/storefront/services/catalog/infrastructure/persistence/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := media.NewDiskStore(t.TempDir(), "http://localhost:8080/media")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	svcs := &appsvcs.Services{
		Catalog: appsvcs.NewCatalogService(memory.NewItemRepository(), store, nil, nil, nil, logger.Nop()),
	}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { Mount(r, svcs, logger.Nop()) })
	return r
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// itemForm builds a multipart body. A nil file omits the file part.
func itemForm(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "photo.jpg")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		_, _ = fw.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func saveItem(t *testing.T, h http.Handler, name, price, size string) handlers.ItemResponse {
	t.Helper()
	body, ct := itemForm(t, map[string]string{"name": name, "price": price, "size": size}, jpegBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/catalog/saveItem", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, h, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("saveItem: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item handlers.ItemResponse
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	return item
}

func TestSaveItem(t *testing.T) {
	h := newTestRouter(t)

	item := saveItem(t, h, "Denim Jacket", "500", "M")
	if item.Name != "Denim Jacket" || item.Price != "500" || !item.Available || item.Deleted {
		t.Fatalf("unexpected item %+v", item)
	}

	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
		want   int
	}{
		{"duplicate", map[string]string{"name": "Denim Jacket", "price": "500", "size": "M"}, jpegBytes(t), http.StatusBadRequest},
		{"missing file", map[string]string{"name": "Cap", "price": "5", "size": "M"}, nil, http.StatusBadRequest},
		{"missing price", map[string]string{"name": "Cap", "size": "M"}, jpegBytes(t), http.StatusBadRequest},
		{"not an image", map[string]string{"name": "Cap", "price": "5", "size": "M"}, []byte("hello"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := itemForm(t, tt.fields, tt.file)
			req := httptest.NewRequest(http.MethodPost, "/api/catalog/saveItem", body)
			req.Header.Set("Content-Type", ct)
			rec := do(t, h, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("json body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/catalog/saveItem", strings.NewReader(`{"name":"Cap"}`))
		req.Header.Set("Content-Type", "application/json")
		if rec := do(t, h, req); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestListings(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/api/catalog/getItems", "/api/catalog/getItemsForUsers"} {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s on empty catalog: expected 404, got %d", path, rec.Code)
		}
	}

	kept := saveItem(t, h, "Scarf", "150", "One size")
	sold := saveItem(t, h, "Boots", "1200", "42")

	body := `{"itemIds":["` + sold.ID.String() + `"]}`
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/catalog/markUnavailable", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("markUnavailable: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var admin, users []handlers.ItemResponse
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/catalog/getItems", nil))
	_ = json.NewDecoder(rec.Body).Decode(&admin)
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/catalog/getItemsForUsers", nil))
	_ = json.NewDecoder(rec.Body).Decode(&users)

	if len(admin) != 2 {
		t.Fatalf("admin listing: expected 2 items, got %d", len(admin))
	}
	if len(users) != 1 || users[0].ID != kept.ID {
		t.Fatalf("user listing: expected only %s, got %+v", kept.ID, users)
	}
}

func TestGetOneItem(t *testing.T) {
	h := newTestRouter(t)
	item := saveItem(t, h, "Cap", "5", "M")

	tests := []struct {
		name string
		path string
		want int
	}{
		{"existing", "/api/catalog/getOneItem/" + item.ID.String(), http.StatusOK},
		{"unknown", "/api/catalog/getOneItem/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", "/api/catalog/getOneItem/not-a-uuid", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestUpdateItem(t *testing.T) {
	h := newTestRouter(t)
	item := saveItem(t, h, "Cap", "5", "M")

	t.Run("partial update", func(t *testing.T) {
		body, ct := itemForm(t, map[string]string{"price": " 7.50 ", "name": ""}, nil)
		req := httptest.NewRequest(http.MethodPut, "/api/catalog/updateItem/"+item.ID.String(), body)
		req.Header.Set("Content-Type", ct)
		rec := do(t, h, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got handlers.ItemResponse
		_ = json.NewDecoder(rec.Body).Decode(&got)
		if got.Name != "Cap" || got.Price != "7.5" || got.Image != item.Image {
			t.Fatalf("unexpected item %+v", got)
		}
	})

	t.Run("invalid price", func(t *testing.T) {
		body, ct := itemForm(t, map[string]string{"price": "cheap"}, nil)
		req := httptest.NewRequest(http.MethodPut, "/api/catalog/updateItem/"+item.ID.String(), body)
		req.Header.Set("Content-Type", ct)
		if rec := do(t, h, req); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		body, ct := itemForm(t, map[string]string{"name": "x"}, nil)
		req := httptest.NewRequest(http.MethodPut, "/api/catalog/updateItem/"+uuid.NewString(), body)
		req.Header.Set("Content-Type", ct)
		if rec := do(t, h, req); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestMarkUnavailable_Validation(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty list", `{"itemIds":[]}`, http.StatusOK},
		{"unknown id ignored", `{"itemIds":["` + uuid.NewString() + `"]}`, http.StatusOK},
		{"missing field", `{}`, http.StatusBadRequest},
		{"not a list", `{"itemIds":"abc"}`, http.StatusBadRequest},
		{"malformed id", `{"itemIds":["abc"]}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/catalog/markUnavailable", strings.NewReader(tt.body))
			if rec := do(t, h, req); rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeleteItem(t *testing.T) {
	h := newTestRouter(t)
	item := saveItem(t, h, "Cap", "5", "M")
	path := "/api/catalog/deleteItem/" + item.ID.String()

	if rec := do(t, h, httptest.NewRequest(http.MethodDelete, path, nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/catalog/getItems", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted item still listed: %d", rec.Code)
	}

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/catalog/getOneItem/"+item.ID.String(), nil))
	var got handlers.ItemResponse
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || !got.Deleted {
		t.Fatalf("expected deleted item by id, got %d %+v", rec.Code, got)
	}

	if rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/catalog/deleteItem/"+uuid.NewString(), nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}
