package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/steamtools/price-service/pkg/pricing"
	"github.com/steamtools/price-service/pkg/steamapis"
)

type stubFetcher struct {
	record *pricing.PriceRecord
	err    error
}

func (s *stubFetcher) GetMarketData(ctx context.Context, appID, marketHashName string) (*pricing.PriceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func doRequest(t *testing.T, f marketDataFetcher, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	marketItemHandler(f, zerolog.Nop()).ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response body is not JSON: %v", err)
	}
	return body
}

func TestMarketItemHandler_Success(t *testing.T) {
	f := &stubFetcher{record: &pricing.PriceRecord{
		AppID:           "730",
		MarketHashName:  "AK-47 | Redline (Field-Tested)",
		HighestBuyOrder: decimal.RequireFromString("12.34"),
		LowestSellOrder: decimal.RequireFromString("15.6"),
	}}

	rec := doRequest(t, f, "/market/item/730/AK-47%20%7C%20Redline%20(Field-Tested)")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["app_id"] != "730" {
		t.Errorf("app_id = %v, want 730", body["app_id"])
	}
	if body["market_hash_name"] != "AK-47 | Redline (Field-Tested)" {
		t.Errorf("market_hash_name = %v", body["market_hash_name"])
	}
	if body["highest_buy_order"] != 12.34 {
		t.Errorf("highest_buy_order = %v, want 12.34", body["highest_buy_order"])
	}
	if body["lowest_sell_order"] != 15.6 {
		t.Errorf("lowest_sell_order = %v, want 15.6", body["lowest_sell_order"])
	}
}

func TestMarketItemHandler_ZeroPriceIsNotNull(t *testing.T) {
	f := &stubFetcher{record: &pricing.PriceRecord{
		AppID:           "730",
		MarketHashName:  "cheap-item",
		HighestBuyOrder: decimal.Zero,
		LowestSellOrder: decimal.RequireFromString("0.03"),
	}}

	rec := doRequest(t, f, "/market/item/730/cheap-item")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	got, ok := body["highest_buy_order"]
	if !ok {
		t.Fatal("highest_buy_order missing from response")
	}
	if got != float64(0) {
		t.Errorf("highest_buy_order = %v (%T), want the number 0, not null", got, got)
	}
}

func TestMarketItemHandler_MissingParameters(t *testing.T) {
	paths := []string{
		"/market/item/",
		"/market/item/730",
		"/market/item/730/",
		"/market/item//name",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := doRequest(t, &stubFetcher{}, path)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["error"] != "bad_request" {
				t.Errorf("error = %v, want bad_request", body["error"])
			}
		})
	}
}

func TestMarketItemHandler_TypedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *steamapis.Error
		wantStatus int
		wantKind   string
	}{
		{
			name: "item not found keeps upstream status",
			err: &steamapis.Error{
				Kind:       steamapis.KindItemNotFound,
				StatusCode: 404,
				Message:    "Item not found on Steam market",
			},
			wantStatus: 404,
			wantKind:   "item_not_found",
		},
		{
			name: "rate limit",
			err: &steamapis.Error{
				Kind:       steamapis.KindRateLimitExceeded,
				StatusCode: 429,
				Message:    "Rate limit exceeded",
				Details: &steamapis.Details{
					Type:             "api",
					Requests:         json.RawMessage(`{"current": 101, "limit": 100}`),
					UpstreamResponse: json.RawMessage(`{"error": "Rate limit exceeded"}`),
				},
			},
			wantStatus: 429,
			wantKind:   "rate_limit_exceeded",
		},
		{
			name: "timeout",
			err: &steamapis.Error{
				Kind:       steamapis.KindRequestTimeout,
				StatusCode: 504,
				Message:    "SteamApis request timeout",
			},
			wantStatus: 504,
			wantKind:   "request_timeout",
		},
		{
			name: "missing status defaults to 500",
			err: &steamapis.Error{
				Kind:    steamapis.KindNetworkError,
				Message: "Network error calling SteamApis",
			},
			wantStatus: 500,
			wantKind:   "network_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, &stubFetcher{err: tt.err}, "/market/item/730/item")

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["error"] != tt.wantKind {
				t.Errorf("error = %v, want %s", body["error"], tt.wantKind)
			}
			if body["message"] != tt.err.Message {
				t.Errorf("message = %v, want %q", body["message"], tt.err.Message)
			}

			if tt.err.Details != nil {
				if body["type"] != tt.err.Details.Type {
					t.Errorf("type = %v, want %q", body["type"], tt.err.Details.Type)
				}
				if _, ok := body["requests"]; !ok {
					t.Error("requests should be present")
				}
				if _, ok := body["steamapis_response"]; !ok {
					t.Error("steamapis_response should be present")
				}
			} else {
				if _, ok := body["type"]; ok {
					t.Error("type should be omitted when the error has no details")
				}
			}
		})
	}
}

func TestMarketItemHandler_UnclassifiedError(t *testing.T) {
	rec := doRequest(t, &stubFetcher{err: errors.New("pointer dereference gone wrong")}, "/market/item/730/item")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["error"] != "internal_server_error" {
		t.Errorf("error = %v, want internal_server_error", body["error"])
	}
	if body["message"] != "An unexpected error occurred" {
		t.Errorf("message = %v, want the generic message", body["message"])
	}
	if len(body) != 2 {
		t.Errorf("Unclassified errors must not leak details, got %v", body)
	}
}

func TestParseItemPath(t *testing.T) {
	tests := []struct {
		path  string
		appID string
		name  string
		ok    bool
	}{
		{path: "/market/item/730/AK-47", appID: "730", name: "AK-47", ok: true},
		{path: "/market/item/440/The Team Captain", appID: "440", name: "The Team Captain", ok: true},
		{path: "/market/item/730", ok: false},
		{path: "/market/item/", ok: false},
		{path: "/market/item//x", ok: false},
		{path: "/market/item/730/", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			appID, name, ok := parseItemPath(tt.path)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if appID != tt.appID || name != tt.name {
				t.Errorf("parsed (%q, %q), want (%q, %q)", appID, name, tt.appID, tt.name)
			}
		})
	}
}

func TestWithRequestID(t *testing.T) {
	handler := withRequestID(zerolog.Nop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set")
	}

	// A caller-provided id is echoed back.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "caller-id" {
		t.Errorf("X-Request-ID = %q, want caller-id", got)
	}
}
