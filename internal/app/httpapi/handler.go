// Package httpapi exposes the gateway core over REST. Error responses carry a
// stable error_code, a human-readable message and a timestamp; clients match
// on the code.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	app "github.com/UTP-Network/payment_gateway/internal/app"
	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
	conversionsvc "github.com/UTP-Network/payment_gateway/internal/app/services/conversion"
	settlementsvc "github.com/UTP-Network/payment_gateway/internal/app/services/settlement"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.health)
	mux.HandleFunc("/prices/", h.price)
	mux.HandleFunc("/methods", h.methods)
	mux.HandleFunc("/conversions", h.conversions)
	mux.HandleFunc("/settlements", h.settlements)
	mux.HandleFunc("/settlements/", h.settlementResources)
	mux.HandleFunc("/merchants", h.merchants)
	mux.HandleFunc("/merchants/", h.merchantResources)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) price(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/prices"), "/")
	if code == "" {
		writeError(w, apierror.Validation("asset code is required"))
		return
	}

	quote, err := h.app.Oracle.GetPrice(r.Context(), asset.Code(strings.ToLower(code)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handler) methods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, settlement.Methods())
}

func (h *handler) conversions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			FromAsset string   `json:"from_asset"`
			ToAsset   string   `json:"to_asset"`
			Amount    float64  `json:"amount"`
			Options   *options `json:"options"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apierror.Validation(err.Error()))
			return
		}

		var opts *conversionsvc.Options
		if payload.Options != nil {
			opts = &conversionsvc.Options{
				FeeRate:                   payload.Options.FeeRate,
				DisableSlippageProtection: payload.Options.DisableSlippageProtection,
			}
		}

		res, err := h.app.Conversions.Convert(r.Context(),
			asset.Code(strings.ToLower(payload.FromAsset)),
			asset.Code(strings.ToLower(payload.ToAsset)),
			payload.Amount, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)

	case http.MethodGet:
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeError(w, apierror.Validation("limit must be a non-negative integer"))
				return
			}
			limit = parsed
		}
		history, err := h.app.Conversions.History(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type options struct {
	FeeRate                   *float64 `json:"fee_rate"`
	DisableSlippageProtection bool     `json:"disable_slippage_protection"`
}

func (h *handler) settlements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	records, err := h.app.Settlements.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("merchant_id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) settlementResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/settlements"), "/")
	if trimmed == "execute" {
		h.executeSettlement(w, r)
		return
	}
	if trimmed == "" || strings.Contains(trimmed, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rec, err := h.app.Settlements.Get(r.Context(), trimmed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) executeSettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		PaymentID  string            `json:"payment_id"`
		MerchantID string            `json:"merchant_id"`
		Amount     float64           `json:"amount"`
		Currency   string            `json:"currency"`
		Method     string            `json:"settlement_method"`
		Account    *merchant.Account `json:"merchant_account_details"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apierror.Validation(err.Error()))
		return
	}

	rec, err := h.app.Settlements.Execute(r.Context(), settlementsvc.ExecuteRequest{
		PaymentID:  payload.PaymentID,
		MerchantID: payload.MerchantID,
		Amount:     payload.Amount,
		Currency:   payload.Currency,
		Method:     settlement.Method(strings.ToLower(payload.Method)),
		Account:    payload.Account,
	})
	if err != nil {
		// Execution failures still carry the failed record for audit.
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handler) merchants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Name    string           `json:"name"`
			Email   string           `json:"email"`
			Account merchant.Account `json:"settlement_account"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apierror.Validation(err.Error()))
			return
		}
		m, err := h.app.Merchants.Register(r.Context(), payload.Name, payload.Email, payload.Account)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)

	case http.MethodGet:
		list, err := h.app.Merchants.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) merchantResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/merchants"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	m, err := h.app.Merchants.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	coded := apierror.From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(coded.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":      coded.Message,
		"error_code": coded.Code,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
