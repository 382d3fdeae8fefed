package validators

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/go-chi/chi/v5"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","quantity":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["name"] != "is required" {
		t.Fatalf("unexpected name detail %q", details["name"])
	}
	if details["quantity"] != "must be at least 1" {
		t.Fatalf("unexpected quantity detail %q", details["quantity"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","quantity":1,"extra":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type listBody struct {
	Amounts []float64 `json:"amounts" validate:"required,min=1,max=2,dive,gte=0"`
	Code    string    `json:"code" validate:"omitempty,oneof=USD EUR"`
}

func TestDecodeJSONBodyDescribesListAndItemErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amounts":[1,-2],"code":"GBP"}`))
	var body listBody
	err := DecodeJSONBody(req, &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", err)
	}
	if details["amounts[1]"] != "must be at least 0" {
		t.Fatalf("unexpected item detail %q", details["amounts[1]"])
	}
	if details["code"] != "must be one of: USD, EUR" {
		t.Fatalf("unexpected code detail %q", details["code"])
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amounts":[]}`))
	err = DecodeJSONBody(req, &listBody{})
	details, _ = pkgerrors.As(err).Details().(map[string]string)
	if details["amounts"] != "must contain at least 1 item(s)" {
		t.Fatalf("unexpected list detail %q", details["amounts"])
	}
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]io.Reader{
		"empty":     http.NoBody,
		"eof":       strings.NewReader(""),
		"syntax":    strings.NewReader(`{"name":`),
		"type":      strings.NewReader(`{"name":"a","quantity":"two"}`),
		"trailing":  strings.NewReader(`{"name":"a","quantity":1}{"name":"b"}`),
		"too large": strings.NewReader(`{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`),
	}
	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", body)
		if err := DecodeJSONBody(req, &sampleBody{}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
		ok    bool
	}{
		{"", 20, true},
		{"limit=5", 5, true},
		{"limit=abc", 0, false},
		{"limit=500", 0, false},
		{"limit=0", 0, false},
		{"limit=%20", 20, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		got, err := ParseQueryInt(req, "limit", 20, 1, 100)
		if (err == nil) != tt.ok {
			t.Fatalf("%q: unexpected error %v", tt.query, err)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("%q: expected %d got %d", tt.query, tt.want, got)
		}
	}
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productID", " p-1 ")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := PathID(req, "productID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "p-1" {
		t.Fatalf("expected trimmed id, got %q", got)
	}
	if _, err := PathID(req, "variantID"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing param")
	}
}

func TestPathIDRejectsDotSegments(t *testing.T) {
	for _, raw := range []string{"..", ".", "a/b"} {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("variantID", raw)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

		if _, err := PathID(req, "variantID"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%q: expected validation error, got %v", raw, err)
		}
	}
}
