package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"skinvault-api/internal/cases"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// CaseHandler handles case catalog HTTP requests.
type CaseHandler struct {
	evaluator *cases.Evaluator
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(evaluator *cases.Evaluator) *CaseHandler {
	return &CaseHandler{evaluator: evaluator}
}

// ListCases handles GET /api/v1/cases
func (h *CaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]interface{}{
		"cases": h.evaluator.List(),
	})
}

// EvaluateCase handles GET /api/v1/cases/{case_id}
func (h *CaseHandler) EvaluateCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")
	if caseID == "" {
		response.Error(w, apierror.BadRequest("case_id is required"))
		return
	}

	eval, err := h.evaluator.Evaluate(r.Context(), caseID)
	if err != nil {
		response.Error(w, mapError(err))
		return
	}

	response.OK(w, eval)
}
