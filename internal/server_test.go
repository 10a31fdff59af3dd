package internal

import (
	"checkout/config"
	"checkout/entity"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(conf *config.Config) http.Handler {
	server := NewServer(conf)
	server.SetCheckout(newTestCheckout(conf))
	return server.Handler()
}

func TestHostedInitJSON(t *testing.T) {
	handler := newTestServer(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/payment/jazzcash/hosted/init",
		strings.NewReader(`{"amount":110,"reference":"abc-123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var payload entity.SignedPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Endpoint != "https://sandbox.example/merchantform" {
		t.Errorf("endpoint = %s", payload.Endpoint)
	}
	if payload.Fields.Value("pp_Amount") != "11000" || len(payload.Fields.Value("pp_SecureHash")) != 64 {
		t.Errorf("fields = %s", payload.Fields)
	}
	if names := payload.Fields.Names(); names[0] != "pp_Version" || names[len(names)-1] != "pp_SecureHash" {
		t.Errorf("field order = %v", names)
	}
}

func TestHostedInitForm(t *testing.T) {
	handler := newTestServer(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/payment/easypaisa/hosted/init",
		strings.NewReader(`{"amount":"100.5","reference":"ord-1","redirect":"manual"}`))
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`action="https://easypaystg.example/Index.jsf"`,
		`name="amount" value="100.5"`,
		`name="autoRedirect" value="0"`,
		`name="merchantHashedReq"`,
		"document.forms[0].submit()",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form is missing %s", want)
		}
	}
}

func TestHostedInitErrors(t *testing.T) {
	handler := newTestServer(testConfig())
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad json", "/api/payment/jazzcash/hosted/init", `{"amount":`, http.StatusBadRequest, "invalid_field"},
		{"empty body", "/api/payment/jazzcash/hosted/init", ``, http.StatusBadRequest, "invalid_field"},
		{"amount", "/api/payment/jazzcash/hosted/init", `{"amount":1.005,"reference":"r"}`, http.StatusBadRequest, "invalid_amount"},
		{"reference", "/api/payment/easypaisa/hosted/init", `{"amount":1,"reference":"123456789012345678901"}`, http.StatusBadRequest, "field_too_long"},
		{"gateway", "/api/payment/paypal/hosted/init", `{"amount":1,"reference":"r"}`, http.StatusNotFound, "unknown_gateway"},
		{"account gateway", "/api/payment/easypaisa_ma/hosted/init", `{"amount":1,"reference":"r"}`, http.StatusNotFound, "unknown_gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			var response errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatal(err)
			}
			if response.OK || response.Error != tt.code || response.Retryable {
				t.Errorf("response = %+v", response)
			}
		})
	}
}

func TestHostedInitMissingConfiguration(t *testing.T) {
	conf := testConfig()
	conf.JazzCash.IntegritySalt = ""
	rec := httptest.NewRecorder()
	newTestServer(conf).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payment/jazzcash/hosted/init",
		strings.NewReader(`{"amount":1,"reference":"r"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jazzcash.integrity_salt") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func postReturn(t *testing.T, handler http.Handler, gatewayName string, fields *entity.FieldSet, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payment/"+gatewayName+"/hosted/return",
		strings.NewReader(fields.Values().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHostedReturnPages(t *testing.T) {
	conf := testConfig()
	handler := newTestServer(conf)

	approved := postReturn(t, handler, "jazzcash", signedCallback(t, conf, "jazzcash", "abc-123", "000"), "")
	if body := approved.Body.String(); !strings.Contains(body, "Payment Successful") || !strings.Contains(body, "110.00 PKR") {
		t.Errorf("approved page = %s", body)
	}

	declined := postReturn(t, handler, "jazzcash", signedCallback(t, conf, "jazzcash", "abc-124", "124"), "")
	if body := declined.Body.String(); !strings.Contains(body, "Payment Failed") || !strings.Contains(body, "124") {
		t.Errorf("declined page = %s", body)
	}

	forged := signedCallback(t, conf, "jazzcash", "abc-125", "124").With("pp_ResponseCode", "000")
	failed := postReturn(t, handler, "jazzcash", forged, "")
	if body := failed.Body.String(); !strings.Contains(body, "Verification Failed") || strings.Contains(body, "Payment Successful") {
		t.Errorf("forged page = %s", body)
	}
}

func TestHostedReturnJSON(t *testing.T) {
	conf := testConfig()
	rec := postReturn(t, newTestServer(conf), "jazzcash", signedCallback(t, conf, "jazzcash", "abc-123", "000"), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var outcome struct {
		Authentic bool              `json:"authentic"`
		Approved  bool              `json:"approved"`
		Reference string            `json:"reference"`
		Raw       map[string]string `json:"raw_response"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatal(err)
	}
	if !outcome.Authentic || !outcome.Approved || outcome.Reference != "abc-123" {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Raw["pp_Amount"] != "11000" {
		t.Errorf("raw = %v", outcome.Raw)
	}
}

func TestHostedReturnQuery(t *testing.T) {
	conf := testConfig()
	fields := signedCallback(t, conf, "jazzcash", "abc-123", "000")
	req := httptest.NewRequest(http.MethodGet, "/api/payment/jazzcash/hosted/return?"+fields.Values().Encode(), nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	newTestServer(conf).ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"approved":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestWalletInitiateRoute(t *testing.T) {
	conf := testConfig()
	upstream := walletUpstream(t, conf, "000")
	defer upstream.Close()
	conf.JazzCash.WalletEndpointSandbox = upstream.URL

	req := httptest.NewRequest(http.MethodPost, walletInitiate,
		strings.NewReader(`{"amount":110,"reference":"wal-1","mobile_number":"03123456789","cnic_last6":"345678"}`))
	rec := httptest.NewRecorder()
	newTestServer(conf).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var result entity.InitiateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.OK || !result.Authentic {
		t.Errorf("result = %+v", result)
	}
}

func TestWalletInitiateTimeoutRoute(t *testing.T) {
	conf := testConfig()
	conf.Upstream.Timeout = 50 * time.Millisecond
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer upstream.Close()
	conf.JazzCash.WalletEndpointSandbox = upstream.URL

	req := httptest.NewRequest(http.MethodPost, walletInitiate,
		strings.NewReader(`{"amount":110,"reference":"wal-1","mobile_number":"03123456789","cnic_last6":"345678"}`))
	rec := httptest.NewRecorder()
	newTestServer(conf).ServeHTTP(rec, req)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var response errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Error != "upstream_timeout" || !response.Retryable {
		t.Errorf("response = %+v", response)
	}
}

func TestHealthAndCORS(t *testing.T) {
	handler := newTestServer(testConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/payment/jazzcash/hosted/init", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/payment/jazzcash/hosted/init", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("foreign origin allowed")
	}
}
