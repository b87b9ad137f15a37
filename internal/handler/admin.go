package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"skinvault-api/internal/config"
	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// BudgetReporter reports upstream request budget usage.
type BudgetReporter interface {
	BudgetUsage() (used, limit int)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	prices    *service.PriceService
	refresher *service.RefreshService
	budget    BudgetReporter
	steam     config.SteamConfig
	dbType    string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler. budget may be nil.
func NewAdminHandler(prices *service.PriceService, refresher *service.RefreshService, budget BudgetReporter, steam config.SteamConfig, dbType string) *AdminHandler {
	return &AdminHandler{
		prices:    prices,
		refresher: refresher,
		budget:    budget,
		steam:     steam,
		dbType:    dbType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType
	stats["degraded"] = h.prices.Degraded()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.budget != nil {
		used, limit := h.budget.BudgetUsage()
		stats["market_budget"] = map[string]interface{}{
			"requests_today": used,
			"daily_limit":    limit,
		}
	}
	stats["market_config"] = map[string]interface{}{
		"request_delay":  h.steam.RequestDelay.String(),
		"request_jitter": h.steam.RequestJitter.String(),
		"page_delay":     h.steam.PageDelay.String(),
		"daily_limit":    h.steam.DailyLimit,
		"currency":       h.steam.Currency,
		"app_id":         h.steam.AppID,
	}

	if storeStats, err := h.prices.Stats(ctx); err == nil {
		stats["store"] = storeStats
	}

	response.OK(w, stats)
}

// refreshRequest is the optional POST body for a manual refresh.
type refreshRequest struct {
	MaxItems int `json:"max_items"`
}

// TriggerRefresh handles POST /api/v1/admin/refresh
func (h *AdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid JSON"))
			return
		}
	}
	if req.MaxItems < 0 {
		response.Error(w, apierror.ValidationError("invalid max_items",
			apierror.FieldError{Field: "max_items", Message: "must not be negative"}))
		return
	}

	stats, err := h.refresher.RunNow(r.Context(), req.MaxItems)
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable(err.Error()))
		return
	}

	response.OK(w, stats)
}

// GetScheduler handles GET /api/v1/admin/scheduler
func (h *AdminHandler) GetScheduler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.refresher.Status(r.Context()))
}
