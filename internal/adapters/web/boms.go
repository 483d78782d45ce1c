package web

import (
	"net/http"
	"strconv"

	"bom-engine/internal/app"

	"github.com/go-chi/chi/v5"
)

func bomRef(r *http.Request) string {
	return chi.URLParam(r, "ref")
}

func componentRef(w http.ResponseWriter, r *http.Request) (int, bool) {
	ref, err := strconv.Atoi(chi.URLParam(r, "cref"))
	if err != nil {
		writeError(w, r, "invalid component ref", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return ref, true
}

func alternativeIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		writeError(w, r, "invalid alternative index", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}

// GET /api/companies/{code}/boms?status=DRAFT
func (h *Handler) apiListBOMs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListBOMs(r.Context(), companyCode(r), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms
func (h *Handler) apiCreateBOM(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		ProductSKU string `json:"product_sku"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateBOM(r.Context(), app.CreateBOMRequest{
		CompanyCode: companyCode(r),
		Name:        req.Name,
		ProductSKU:  req.ProductSKU,
		CreatedBy:   usernameFromContext(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// GET /api/companies/{code}/boms/{ref}
func (h *Handler) apiGetBOM(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetBOM(r.Context(), bomRef(r), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/components
func (h *Handler) apiAddComponent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAssembly bool `json:"is_assembly"`
		Version    int  `json:"version"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.AddComponent(r.Context(), app.AddComponentRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		IsAssembly:  req.IsAssembly,
		Version:     req.Version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/components/{cref}/children
func (h *Handler) apiAddSubComponent(w http.ResponseWriter, r *http.Request) {
	ref, ok := componentRef(w, r)
	if !ok {
		return
	}
	var req struct {
		Version int `json:"version"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.AddSubComponent(r.Context(), app.AddSubComponentRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		ParentRef:   ref,
		Version:     req.Version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// PATCH /api/companies/{code}/boms/{ref}/components/{cref}
func (h *Handler) apiUpdateComponent(w http.ResponseWriter, r *http.Request) {
	ref, ok := componentRef(w, r)
	if !ok {
		return
	}
	var req struct {
		ItemSKU  *string `json:"item_sku"`
		Quantity *string `json:"quantity"`
		UnitCost *string `json:"unit_cost"`
		Unit     *string `json:"unit"`
		ChildBOM *string `json:"child_bom"`
		Version  int     `json:"version"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateComponent(r.Context(), app.UpdateComponentRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		Ref:         ref,
		ItemSKU:     req.ItemSKU,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Unit:        req.Unit,
		ChildBOM:    req.ChildBOM,
		Version:     req.Version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// DELETE /api/companies/{code}/boms/{ref}/components/{cref}
func (h *Handler) apiRemoveComponent(w http.ResponseWriter, r *http.Request) {
	ref, ok := componentRef(w, r)
	if !ok {
		return
	}
	version, _ := strconv.Atoi(r.URL.Query().Get("version"))

	result, err := h.svc.RemoveComponent(r.Context(), app.RemoveComponentRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		Ref:         ref,
		Version:     version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/components/{cref}/alternatives
func (h *Handler) apiAddAlternative(w http.ResponseWriter, r *http.Request) {
	ref, ok := componentRef(w, r)
	if !ok {
		return
	}
	var req struct {
		Version int `json:"version"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.AddAlternative(r.Context(), app.AddAlternativeRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		Ref:         ref,
		Version:     req.Version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// PATCH /api/companies/{code}/boms/{ref}/components/{cref}/alternatives/{idx}
func (h *Handler) apiUpdateAlternative(w http.ResponseWriter, r *http.Request) {
	ref, ok := componentRef(w, r)
	if !ok {
		return
	}
	idx, ok := alternativeIndex(w, r)
	if !ok {
		return
	}
	var req struct {
		ItemSKU *string `json:"item_sku"`
		Cost    *string `json:"cost"`
		Notes   *string `json:"notes"`
		Version int     `json:"version"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateAlternative(r.Context(), app.UpdateAlternativeRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		Ref:         ref,
		Index:       idx,
		ItemSKU:     req.ItemSKU,
		Cost:        req.Cost,
		Notes:       req.Notes,
		Version:     req.Version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// DELETE /api/companies/{code}/boms/{ref}/components/{cref}/alternatives/{idx}
func (h *Handler) apiRemoveAlternative(w http.ResponseWriter, r *http.Request) {
	ref, ok := componentRef(w, r)
	if !ok {
		return
	}
	idx, ok := alternativeIndex(w, r)
	if !ok {
		return
	}
	version, _ := strconv.Atoi(r.URL.Query().Get("version"))

	result, err := h.svc.RemoveAlternative(r.Context(), app.RemoveAlternativeRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		Ref:         ref,
		Index:       idx,
		Version:     version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// PATCH /api/companies/{code}/boms/{ref}/costs
func (h *Handler) apiSetCosts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LaborCost            *string `json:"labor_cost"`
		OverheadCost         *string `json:"overhead_cost"`
		MaterialCostOverride *string `json:"material_cost_override"`
		ClearOverride        bool    `json:"clear_override"`
		Version              int     `json:"version"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.SetCosts(r.Context(), app.SetCostsRequest{
		CompanyCode:          companyCode(r),
		BOMRef:               bomRef(r),
		LaborCost:            req.LaborCost,
		OverheadCost:         req.OverheadCost,
		MaterialCostOverride: req.MaterialCostOverride,
		ClearOverride:        req.ClearOverride,
		Version:              req.Version,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/submit
func (h *Handler) apiSubmitForReview(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SubmitForReview(r.Context(), bomRef(r), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/release
func (h *Handler) apiReleaseBOM(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ReleaseBOM(r.Context(), bomRef(r), companyCode(r), usernameFromContext(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/obsolete
func (h *Handler) apiMarkObsolete(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.MarkObsolete(r.Context(), bomRef(r), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/boms/{ref}/revisions
func (h *Handler) apiCreateRevision(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateRevision(r.Context(), app.CreateRevisionRequest{
		CompanyCode: companyCode(r),
		BOMRef:      bomRef(r),
		RevisedBy:   usernameFromContext(r),
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// GET /api/companies/{code}/boms/{ref}/cost-breakdown
func (h *Handler) apiCostBreakdown(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetCostBreakdown(r.Context(), bomRef(r), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// GET /api/companies/{code}/ecos
func (h *Handler) apiListECOs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListECOs(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
