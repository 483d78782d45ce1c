package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"bom-engine/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Auth
		r.Get("/api/auth/me", h.me)

		// Item master
		r.Get("/api/companies/{code}/items", h.apiListItems)
		r.Post("/api/companies/{code}/items", h.apiCreateItem)
		r.Get("/api/companies/{code}/items/{sku}", h.apiGetItem)
		r.Post("/api/companies/{code}/items/{sku}/receive", h.apiReceiveStock)
		r.Get("/api/companies/{code}/items/{sku}/where-used", h.apiWhereUsed)

		// Bills of materials
		r.Get("/api/companies/{code}/boms", h.apiListBOMs)
		r.Post("/api/companies/{code}/boms", h.apiCreateBOM)
		r.Get("/api/companies/{code}/boms/{ref}", h.apiGetBOM)

		// Structure editing
		r.Post("/api/companies/{code}/boms/{ref}/components", h.apiAddComponent)
		r.Post("/api/companies/{code}/boms/{ref}/components/{cref}/children", h.apiAddSubComponent)
		r.Patch("/api/companies/{code}/boms/{ref}/components/{cref}", h.apiUpdateComponent)
		r.Delete("/api/companies/{code}/boms/{ref}/components/{cref}", h.apiRemoveComponent)
		r.Post("/api/companies/{code}/boms/{ref}/components/{cref}/alternatives", h.apiAddAlternative)
		r.Patch("/api/companies/{code}/boms/{ref}/components/{cref}/alternatives/{idx}", h.apiUpdateAlternative)
		r.Delete("/api/companies/{code}/boms/{ref}/components/{cref}/alternatives/{idx}", h.apiRemoveAlternative)
		r.Patch("/api/companies/{code}/boms/{ref}/costs", h.apiSetCosts)

		// Lifecycle
		r.Post("/api/companies/{code}/boms/{ref}/submit", h.apiSubmitForReview)
		r.Post("/api/companies/{code}/boms/{ref}/release", h.apiReleaseBOM)
		r.Post("/api/companies/{code}/boms/{ref}/obsolete", h.apiMarkObsolete)
		r.Post("/api/companies/{code}/boms/{ref}/revisions", h.apiCreateRevision)

		// Reports
		r.Get("/api/companies/{code}/boms/{ref}/cost-breakdown", h.apiCostBreakdown)
		r.Get("/api/companies/{code}/ecos", h.apiListECOs)

		// AI change assistant
		r.Post("/api/companies/{code}/ai/interpret", h.aiInterpret)
		r.Post("/api/companies/{code}/ai/apply", h.aiApply)
	})

	h.router = r
	return r
}

// health returns service status and the loaded company code.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.LoadDefaultCompany(r.Context())
	companyCode := ""
	if err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company"`
	}

	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
