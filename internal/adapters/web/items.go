package web

import (
	"net/http"

	"bom-engine/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func itemSKU(r *http.Request) string {
	return chi.URLParam(r, "sku")
}

// GET /api/companies/{code}/items
func (h *Handler) apiListItems(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListItems(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// GET /api/companies/{code}/items/{sku}
func (h *Handler) apiGetItem(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetItem(r.Context(), companyCode(r), itemSKU(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{code}/items
func (h *Handler) apiCreateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU         string `json:"sku"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Unit        string `json:"unit"`
		UnitCost    string `json:"unit_cost"`
		QtyOnHand   string `json:"qty_on_hand"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	unitCost, err := decimal.NewFromString(req.UnitCost)
	if err != nil && req.UnitCost != "" {
		writeError(w, r, "invalid unit_cost: "+req.UnitCost, "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	qtyOnHand := decimal.Zero
	if req.QtyOnHand != "" {
		qtyOnHand, err = decimal.NewFromString(req.QtyOnHand)
		if err != nil {
			writeError(w, r, "invalid qty_on_hand: "+req.QtyOnHand, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	result, err := h.svc.CreateItem(r.Context(), app.CreateItemRequest{
		CompanyCode: companyCode(r),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Unit:        req.Unit,
		UnitCost:    unitCost,
		QtyOnHand:   qtyOnHand,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// POST /api/companies/{code}/items/{sku}/receive
func (h *Handler) apiReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Qty      string `json:"qty"`
		UnitCost string `json:"unit_cost"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	qty, err := decimal.NewFromString(req.Qty)
	if err != nil {
		writeError(w, r, "invalid qty: "+req.Qty, "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	unitCost, err := decimal.NewFromString(req.UnitCost)
	if err != nil {
		writeError(w, r, "invalid unit_cost: "+req.UnitCost, "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ReceiveStock(r.Context(), app.ReceiveStockRequest{
		CompanyCode: companyCode(r),
		SKU:         itemSKU(r),
		Qty:         qty,
		UnitCost:    unitCost,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// GET /api/companies/{code}/items/{sku}/where-used
func (h *Handler) apiWhereUsed(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.WhereUsed(r.Context(), companyCode(r), itemSKU(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
