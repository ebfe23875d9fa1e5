package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/UTP-Network/payment_gateway/internal/app"
	"github.com/UTP-Network/payment_gateway/internal/config"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	application, err := app.New(config.Default(), app.Stores{}, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	return NewHandler(application)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func registerMerchant(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/merchants", map[string]any{
		"name":  "Chai Point",
		"email": "ops@chaipoint.in",
		"settlement_account": map[string]any{
			"vpa":            "chaipoint@upi",
			"bank_account":   "1234567890",
			"ifsc":           "HDFC0000001",
			"wallet_address": "0xabc",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register merchant: status %d body %s", rr.Code, rr.Body.String())
	}
	var m struct {
		ID string `json:"merchant_id"`
	}
	decode(t, rr, &m)
	if m.ID == "" {
		t.Fatalf("missing merchant id in %s", rr.Body.String())
	}
	return m.ID
}

func TestHealthz(t *testing.T) {
	rr := doJSON(t, newTestHandler(t), http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestGetPrice(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/prices/BGT", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var quote struct {
		Asset      string  `json:"asset_type"`
		Price      float64 `json:"price"`
		Currency   string  `json:"currency"`
		Source     string  `json:"source"`
		Confidence float64 `json:"confidence"`
	}
	decode(t, rr, &quote)
	if quote.Asset != "bgt" || quote.Price <= 0 || quote.Currency != "INR" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestGetPriceUnknownAssetErrorEnvelope(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/prices/doge", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
	var envelope struct {
		Error     string `json:"error"`
		ErrorCode string `json:"error_code"`
		Timestamp string `json:"timestamp"`
	}
	decode(t, rr, &envelope)
	if envelope.ErrorCode != "INVALID_ASSET" || envelope.Error == "" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if _, err := time.Parse(time.RFC3339, envelope.Timestamp); err != nil {
		t.Fatalf("bad timestamp %q: %v", envelope.Timestamp, err)
	}
}

func TestListMethods(t *testing.T) {
	rr := doJSON(t, newTestHandler(t), http.MethodGet, "/methods", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var methods []struct {
		Code    string  `json:"code"`
		FeeRate float64 `json:"fee_rate"`
	}
	decode(t, rr, &methods)
	if len(methods) != 5 {
		t.Fatalf("expected 5 methods, got %d", len(methods))
	}
	if methods[0].Code != "inr_upi" || methods[0].FeeRate != 0.001 {
		t.Fatalf("unexpected first method: %+v", methods[0])
	}
}

func TestConvertEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/conversions", map[string]any{
		"from_asset": "BGT",
		"to_asset":   "binr",
		"amount":     1000,
		"options":    map[string]any{"disable_slippage_protection": true},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var res struct {
		ID         string  `json:"conversion_id"`
		FromAsset  string  `json:"from_asset"`
		ToAsset    string  `json:"to_asset"`
		FromAmount float64 `json:"from_amount"`
		ToAmount   float64 `json:"to_amount"`
		Rate       float64 `json:"conversion_rate"`
	}
	decode(t, rr, &res)
	if res.ID == "" || res.FromAsset != "bgt" || res.ToAsset != "binr" {
		t.Fatalf("unexpected conversion: %+v", res)
	}
	if res.ToAmount <= 0 || res.Rate <= 0 {
		t.Fatalf("unexpected amounts: %+v", res)
	}

	history := doJSON(t, h, http.MethodGet, "/conversions?limit=10", nil)
	if history.Code != http.StatusOK {
		t.Fatalf("history status %d", history.Code)
	}
	var list []json.RawMessage
	decode(t, history, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(list))
	}
}

func TestConvertRejectsUnknownField(t *testing.T) {
	rr := doJSON(t, newTestHandler(t), http.MethodPost, "/conversions", map[string]any{
		"from_asset": "bgt",
		"to_asset":   "binr",
		"amount":     100,
		"surprise":   true,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var envelope struct {
		ErrorCode string `json:"error_code"`
	}
	decode(t, rr, &envelope)
	if envelope.ErrorCode != "VALIDATION_FAILED" {
		t.Fatalf("unexpected code %s", envelope.ErrorCode)
	}
}

func TestSettlementFlow(t *testing.T) {
	h := newTestHandler(t)
	merchantID := registerMerchant(t, h)

	rr := doJSON(t, h, http.MethodPost, "/settlements/execute", map[string]any{
		"payment_id":        "pay-1",
		"merchant_id":       merchantID,
		"amount":            1000,
		"settlement_method": "INR_UPI",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("execute status %d body %s", rr.Code, rr.Body.String())
	}
	var rec struct {
		ID        string  `json:"settlement_id"`
		Status    string  `json:"status"`
		NetAmount float64 `json:"net_amount"`
		Fees      struct {
			SettlementFee float64 `json:"settlement_fee"`
			Tax           float64 `json:"tax"`
			TotalFee      float64 `json:"total_fee"`
		} `json:"fees"`
	}
	decode(t, rr, &rec)
	if rec.Status != "completed" {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if rec.Fees.TotalFee != rec.Fees.SettlementFee+rec.Fees.Tax {
		t.Fatalf("fee breakdown inconsistent: %+v", rec.Fees)
	}

	get := doJSON(t, h, http.MethodGet, "/settlements/"+rec.ID, nil)
	if get.Code != http.StatusOK {
		t.Fatalf("get status %d", get.Code)
	}

	list := doJSON(t, h, http.MethodGet, "/settlements?merchant_id="+merchantID, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list status %d", list.Code)
	}
	var records []json.RawMessage
	decode(t, list, &records)
	if len(records) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(records))
	}
}

func TestSettlementUnknownMerchant(t *testing.T) {
	rr := doJSON(t, newTestHandler(t), http.MethodPost, "/settlements/execute", map[string]any{
		"payment_id":        "pay-1",
		"merchant_id":       "missing",
		"amount":            1000,
		"settlement_method": "inr_upi",
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var envelope struct {
		ErrorCode string `json:"error_code"`
	}
	decode(t, rr, &envelope)
	if envelope.ErrorCode != "MERCHANT_NOT_FOUND" {
		t.Fatalf("unexpected code %s", envelope.ErrorCode)
	}
}

func TestSettlementNotFound(t *testing.T) {
	rr := doJSON(t, newTestHandler(t), http.MethodGet, "/settlements/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestMerchantLookup(t *testing.T) {
	h := newTestHandler(t)
	id := registerMerchant(t, h)

	rr := doJSON(t, h, http.MethodGet, "/merchants/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}

	list := doJSON(t, h, http.MethodGet, "/merchants", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list status %d", list.Code)
	}
	var merchantsList []json.RawMessage
	decode(t, list, &merchantsList)
	if len(merchantsList) != 1 {
		t.Fatalf("expected 1 merchant, got %d", len(merchantsList))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/conversions"},
		{http.MethodPost, "/methods"},
		{http.MethodPut, "/settlements"},
	} {
		rr := doJSON(t, h, tc.method, tc.path, nil)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status %d", tc.method, tc.path, rr.Code)
		}
	}
}
