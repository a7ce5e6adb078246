package validator_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
)

type sampleStruct struct {
	ItemID string `validate:"required,uuid"`
	Name   string `validate:"required,min=1,max=10"`
	Price  string `validate:"omitempty,price"`
}

func TestValidate_valid(t *testing.T) {
	s := sampleStruct{
		ItemID: "550e8400-e29b-41d4-a716-446655440000",
		Name:   "hello",
	}
	if err := pkgvalidator.Validate(&s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestValidate_missingRequired(t *testing.T) {
	s := sampleStruct{}
	if err := pkgvalidator.Validate(&s); err == nil {
		t.Fatal("expected validation error for empty struct")
	}
}

func TestFormatValidationErrors_required(t *testing.T) {
	s := sampleStruct{}
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	if m["ItemID"] != "This field is required" {
		t.Errorf("unexpected ItemID message: %q", m["ItemID"])
	}
	if m["Name"] != "This field is required" {
		t.Errorf("unexpected Name message: %q", m["Name"])
	}
}

func TestFormatValidationErrors_uuid(t *testing.T) {
	s := sampleStruct{ItemID: "not-a-uuid", Name: "ok"}
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	if m["ItemID"] != "Must be a valid UUID" {
		t.Errorf("unexpected ItemID message: %q", m["ItemID"])
	}
}

func TestFormatValidationErrors_min(t *testing.T) {
	s := sampleStruct{ItemID: "550e8400-e29b-41d4-a716-446655440000", Name: ""}
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	// empty string fails "required" before "min"
	if _, ok := m["Name"]; !ok {
		t.Error("expected Name validation error")
	}
}

func TestFormatValidationErrors_max(t *testing.T) {
	s := sampleStruct{ItemID: "550e8400-e29b-41d4-a716-446655440000", Name: "12345678901"} // 11 chars > max=10
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	if m["Name"] != "Maximum length is 10" {
		t.Errorf("unexpected Name message: %q", m["Name"])
	}
}

func TestFormatValidationErrors_price(t *testing.T) {
	s := sampleStruct{ItemID: "550e8400-e29b-41d4-a716-446655440000", Name: "ok", Price: "-5"}
	m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&s))
	if m["Price"] != "Must be a non-negative amount with at most two decimals" {
		t.Errorf("unexpected Price message: %q", m["Price"])
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- custom tags ---

func TestPriceTag(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"500", false},
		{"499.99", false},
		{" 0 ", false},
		{"-1", true},
		{"1.001", true},
		{"five", true},
		{"", true},
	}
	for _, tt := range tests {
		err := pkgvalidator.Var(tt.in, "required,price")
		if (err != nil) != tt.wantErr {
			t.Errorf("price %q: err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestPhoneTag(t *testing.T) {
	for in, ok := range map[string]bool{
		"0712345678":      true,
		"+254 114 303482": true,
		"0712-345-678":    true,
		"12345":           false,
		"call me":         false,
	} {
		if err := pkgvalidator.Var(in, "phone"); (err == nil) != ok {
			t.Errorf("phone %q: err = %v, want ok=%v", in, err, ok)
		}
	}
}

// --- ValidateRequest ---

type markReq struct {
	ItemIDs []string `json:"itemIds" validate:"required,dive,uuid"`
}

func TestValidateRequest_valid(t *testing.T) {
	body := `{"itemIds":["550e8400-e29b-41d4-a716-446655440000"]}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[markReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if len(req.ItemIDs) != 1 {
		t.Errorf("unexpected ItemIDs: %v", req.ItemIDs)
	}
}

func TestValidateRequest_invalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad json"))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[markReq](w, r)
	if ok {
		t.Fatal("expected ok=false for malformed JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid JSON") {
		t.Errorf("expected 'Invalid JSON' in body, got: %s", w.Body.String())
	}
}

func TestValidateRequest_wrongShape(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"itemIds":"550e8400-e29b-41d4-a716-446655440000"}`))
	w := httptest.NewRecorder()

	if _, ok := pkgvalidator.ValidateRequest[markReq](w, r); ok {
		t.Fatal("expected ok=false when itemIds is not an array")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestValidateRequest_missingField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[markReq](w, r)
	if ok {
		t.Fatal("expected ok=false for missing itemIds")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Validation failed") {
		t.Errorf("expected 'Validation failed' in body, got: %s", w.Body.String())
	}
}

func TestValidateRequest_invalidUUID(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"itemIds":["not-uuid"]}`))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[markReq](w, r)
	if ok {
		t.Fatal("expected ok=false for invalid UUID")
	}
	if !strings.Contains(w.Body.String(), "UUID") {
		t.Errorf("expected UUID error in body, got: %s", w.Body.String())
	}
}

func TestValidateRequest_bodyTooLarge(t *testing.T) {
	body := `{"itemIds":["550e8400-e29b-41d4-a716-446655440000","550e8400-e29b-41d4-a716-446655440001"]}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	if _, ok := pkgvalidator.ValidateRequest[markReq](w, r); ok {
		t.Fatal("expected ok=false for oversized body")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestFormatValidationErrors_jsonFieldNames(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&markReq{}))
	if m["itemIds"] != "This field is required" {
		t.Errorf("expected itemIds keyed by JSON name, got %v", m)
	}
}
