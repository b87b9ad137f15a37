package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"skinvault-api/internal/model"
	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// PriceHandler handles price lookup HTTP requests.
type PriceHandler struct {
	prices   *service.PriceService
	currency int
	appID    int
}

// NewPriceHandler creates a new price handler.
func NewPriceHandler(prices *service.PriceService, currency, appID int) *PriceHandler {
	return &PriceHandler{prices: prices, currency: currency, appID: appID}
}

// GetPrice handles GET /api/v1/price/{market_hash_name}
//
// Optional query parameters: currency and appid override the server
// defaults for this lookup.
func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "market_hash_name")
	if name == "" {
		response.Error(w, apierror.BadRequest("market_hash_name is required"))
		return
	}

	currency := h.currency
	if raw := r.URL.Query().Get("currency"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			response.Error(w, apierror.ValidationError("invalid currency",
				apierror.FieldError{Field: "currency", Message: "must be a positive integer"}))
			return
		}
		currency = v
	}
	appID := h.appID
	if raw := r.URL.Query().Get("appid"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			response.Error(w, apierror.ValidationError("invalid appid",
				apierror.FieldError{Field: "appid", Message: "must be a positive integer"}))
			return
		}
		appID = v
	}

	key := model.ItemKey{MarketHashName: name, Currency: currency, AppID: appID}
	price, err := h.prices.Resolve(r.Context(), key)
	if err != nil {
		response.Error(w, mapError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"market_hash_name": name,
		"currency":         currency,
		"appid":            appID,
		"price":            price,
		"degraded":         h.prices.Degraded(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
