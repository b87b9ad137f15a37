package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// InventoryHandler handles inventory valuation HTTP requests.
type InventoryHandler struct {
	inventory *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// GetInventoryValue handles GET /api/v1/inventory/{steam_id}
//
// The categorize query parameter adds a per-category breakdown to the
// report.
func (h *InventoryHandler) GetInventoryValue(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steam_id")
	if steamID == "" {
		response.Error(w, apierror.BadRequest("steam_id is required"))
		return
	}

	categorize := r.URL.Query().Get("categorize") == "1"

	report, err := h.inventory.GetInventoryValue(r.Context(), steamID, categorize)
	if err != nil {
		response.Error(w, mapError(err))
		return
	}

	response.OK(w, report)
}
