package web

import (
	"net/http"

	"bom-engine/internal/core"
)

// aiInterpret handles POST /api/companies/{code}/ai/interpret.
// It returns either a structured change proposal or a clarification request.
// Nothing is applied until the client confirms via /ai/apply.
func (h *Handler) aiInterpret(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		BOMRef string `json:"bom_ref"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" || req.BOMRef == "" {
		writeError(w, r, "text and bom_ref are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.InterpretChange(r.Context(), req.Text, req.BOMRef, companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		IsClarification bool                 `json:"is_clarification"`
		Clarification   string               `json:"clarification,omitempty"`
		Proposal        *core.ChangeProposal `json:"proposal,omitempty"`
	}
	writeJSON(w, response{
		IsClarification: result.IsClarification,
		Clarification:   result.ClarificationMessage,
		Proposal:        result.Proposal,
	})
}

// aiApply handles POST /api/companies/{code}/ai/apply.
// The client sends back the proposal it received from /ai/interpret after the
// user confirmed it. The company code from the URL wins over whatever the
// client put in the body.
func (h *Handler) aiApply(w http.ResponseWriter, r *http.Request) {
	var proposal core.ChangeProposal
	if !decodeJSON(w, r, &proposal) {
		return
	}
	proposal.CompanyCode = companyCode(r)

	result, err := h.svc.ApplyChangeProposal(r.Context(), proposal)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
