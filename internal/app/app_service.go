package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bom-engine/internal/ai"
	"bom-engine/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool       *pgxpool.Pool
	bomService core.BOMService
	items      core.ItemService
	ecoService core.ECOService
	reports    core.ReportService
	users      core.UserService
	agent      *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	bomService core.BOMService,
	items core.ItemService,
	ecoService core.ECOService,
	reports core.ReportService,
	users core.UserService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		pool:       pool,
		bomService: bomService,
		items:      items,
		ecoService: ecoService,
		reports:    reports,
		users:      users,
		agent:      agent,
	}
}

// LoadDefaultCompany loads the active company, using COMPANY_CODE env var if set.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if code := os.Getenv("COMPANY_CODE"); code != "" {
		return s.fetchCompany(ctx, code)
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple companies found; set COMPANY_CODE env var (e.g. COMPANY_CODE=1000)")
	}

	c := &core.Company{}
	if err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency FROM companies LIMIT 1",
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency); err != nil {
		return nil, fmt.Errorf("no default company found, have migrations run?: %w", err)
	}
	return c, nil
}

// AuthenticateUser verifies credentials and returns a session on success.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !u.CheckPassword(password) {
		return nil, fmt.Errorf("invalid credentials")
	}

	var companyCode string
	if err := s.pool.QueryRow(ctx,
		"SELECT company_code FROM companies WHERE id = $1", u.CompanyID,
	).Scan(&companyCode); err != nil {
		return nil, fmt.Errorf("resolve user's company: %w", err)
	}

	return &UserSession{
		UserID:      u.ID,
		CompanyID:   u.CompanyID,
		Username:    u.Username,
		Role:        u.Role,
		CompanyCode: companyCode,
	}, nil
}

// GetUser returns user profile by ID.
func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: u}, nil
}

// ListItems returns the active item catalog for a company.
func (s *appService) ListItems(ctx context.Context, companyCode string) (*ItemListResult, error) {
	items, err := s.items.GetItems(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items, CompanyCode: companyCode}, nil
}

// GetItem returns one catalog entry by SKU.
func (s *appService) GetItem(ctx context.Context, companyCode, sku string) (*ItemResult, error) {
	item, err := s.items.GetItemBySKU(ctx, companyCode, sku)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// CreateItem adds an entry to the item master.
func (s *appService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResult, error) {
	item, err := s.items.CreateItem(ctx, req.CompanyCode, core.Item{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    core.ItemCategory(req.Category),
		Unit:        req.Unit,
		UnitCost:    req.UnitCost,
		QtyOnHand:   req.QtyOnHand,
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// ReceiveStock records a goods receipt against an item.
func (s *appService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*ItemResult, error) {
	item, err := s.items.ReceiveStock(ctx, req.CompanyCode, req.SKU, req.Qty, req.UnitCost)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// ListBOMs returns BOM headers for a company, optionally filtered by status.
func (s *appService) ListBOMs(ctx context.Context, companyCode, status string) (*BOMListResult, error) {
	boms, err := s.bomService.ListBOMs(ctx, companyCode, status)
	if err != nil {
		return nil, err
	}
	return &BOMListResult{BOMs: boms, CompanyCode: companyCode}, nil
}

// GetBOM returns a full BOM by numeric ID or BOM number string.
func (s *appService) GetBOM(ctx context.Context, ref, companyCode string) (*BOMResult, error) {
	b, err := s.resolveBOM(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// CreateBOM creates a new DRAFT bill of materials at revision A.
func (s *appService) CreateBOM(ctx context.Context, req CreateBOMRequest) (*BOMResult, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("BOM name is required")
	}
	b, err := s.bomService.CreateBOM(ctx, req.CompanyCode, req.Name, req.ProductSKU, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// AddComponent appends a blank top-level row.
func (s *appService) AddComponent(ctx context.Context, req AddComponentRequest) (*BOMResult, error) {
	var newRef int
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		ref, err := b.AddComponent(req.IsAssembly)
		newRef = ref
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b, NewRef: newRef}, nil
}

// AddSubComponent appends a blank child row under a sub-assembly.
func (s *appService) AddSubComponent(ctx context.Context, req AddSubComponentRequest) (*BOMResult, error) {
	var newRef int
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		ref, err := b.AddSubComponent(req.ParentRef)
		newRef = ref
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b, NewRef: newRef}, nil
}

// UpdateComponent patches a component row and re-runs the cost roll-up.
func (s *appService) UpdateComponent(ctx context.Context, req UpdateComponentRequest) (*BOMResult, error) {
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		return b.UpdateComponent(ctx, req.Ref, core.ComponentPatch{
			ItemSKU:  req.ItemSKU,
			Quantity: req.Quantity,
			UnitCost: req.UnitCost,
			Unit:     req.Unit,
			ChildBOM: req.ChildBOM,
		}, s.items)
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// RemoveComponent deletes a component row and its alternative group.
func (s *appService) RemoveComponent(ctx context.Context, req RemoveComponentRequest) (*BOMResult, error) {
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		return b.RemoveComponent(req.Ref)
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// AddAlternative appends a blank substitute to a component's group.
func (s *appService) AddAlternative(ctx context.Context, req AddAlternativeRequest) (*BOMResult, error) {
	var newIdx int
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		idx, err := b.AddAlternative(req.Ref)
		newIdx = idx
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b, NewRef: newIdx}, nil
}

// UpdateAlternative patches one substitute.
func (s *appService) UpdateAlternative(ctx context.Context, req UpdateAlternativeRequest) (*BOMResult, error) {
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		return b.UpdateAlternative(ctx, req.Ref, req.Index, req.ItemSKU, req.Cost, req.Notes, s.items)
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// RemoveAlternative deletes one substitute; empty groups are pruned.
func (s *appService) RemoveAlternative(ctx context.Context, req RemoveAlternativeRequest) (*BOMResult, error) {
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		return b.RemoveAlternative(req.Ref, req.Index)
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// SetCosts updates document-level labor, overhead and material override figures.
func (s *appService) SetCosts(ctx context.Context, req SetCostsRequest) (*BOMResult, error) {
	b, err := s.editBOM(ctx, req.BOMRef, req.CompanyCode, req.Version, func(b *core.BillOfMaterials) error {
		if req.LaborCost != nil {
			if err := b.SetLaborCost(*req.LaborCost); err != nil {
				return err
			}
		}
		if req.OverheadCost != nil {
			if err := b.SetOverheadCost(*req.OverheadCost); err != nil {
				return err
			}
		}
		if req.ClearOverride {
			return b.ClearMaterialCostOverride()
		}
		if req.MaterialCostOverride != nil {
			return b.SetMaterialCostOverride(*req.MaterialCostOverride)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// SubmitForReview transitions a DRAFT BOM to UNDER_REVIEW.
func (s *appService) SubmitForReview(ctx context.Context, ref, companyCode string) (*BOMResult, error) {
	b, err := s.resolveBOM(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	b, err = s.bomService.SubmitForReview(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// ReleaseBOM transitions an UNDER_REVIEW BOM to RELEASED.
func (s *appService) ReleaseBOM(ctx context.Context, ref, companyCode, approvedBy string) (*BOMResult, error) {
	b, err := s.resolveBOM(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	b, err = s.bomService.Release(ctx, b.ID, approvedBy)
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// MarkObsolete transitions a RELEASED BOM to OBSOLETE.
func (s *appService) MarkObsolete(ctx context.Context, ref, companyCode string) (*BOMResult, error) {
	b, err := s.resolveBOM(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	b, err = s.bomService.MarkObsolete(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// CreateRevision advances a RELEASED BOM to its next revision label.
func (s *appService) CreateRevision(ctx context.Context, req CreateRevisionRequest) (*BOMResult, error) {
	b, err := s.resolveBOM(ctx, req.BOMRef, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	b, err = s.bomService.CreateRevision(ctx, b.ID, req.RevisedBy, req.Notes, s.ecoService)
	if err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

// GetCostBreakdown itemizes a BOM's material cost by component.
func (s *appService) GetCostBreakdown(ctx context.Context, ref, companyCode string) (*core.CostBreakdown, error) {
	b, err := s.resolveBOM(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	return s.reports.CostBreakdown(ctx, b.ID)
}

// WhereUsed lists every BOM referencing a SKU.
func (s *appService) WhereUsed(ctx context.Context, companyCode, sku string) (*WhereUsedResult, error) {
	entries, err := s.reports.WhereUsed(ctx, companyCode, sku)
	if err != nil {
		return nil, err
	}
	return &WhereUsedResult{SKU: sku, Entries: entries}, nil
}

// ListECOs returns engineering change orders for a company, newest first.
func (s *appService) ListECOs(ctx context.Context, companyCode string) (*ECOListResult, error) {
	company, err := s.fetchCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	ecos, err := s.ecoService.GetECOs(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	return &ECOListResult{ECOs: ecos, CompanyCode: companyCode}, nil
}

// InterpretChange sends a natural-language change request to the AI agent.
// The current BOM and item catalog are serialized into the prompt so refs and
// SKUs in the returned proposal are grounded in real data.
func (s *appService) InterpretChange(ctx context.Context, text, bomRef, companyCode string) (*AIChangeResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("AI agent not configured (set OPENAI_API_KEY)")
	}

	b, err := s.resolveBOM(ctx, bomRef, companyCode)
	if err != nil {
		return nil, err
	}
	bomJSON, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize BOM for agent: %w", err)
	}

	items, err := s.items.GetItems(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	var catalog strings.Builder
	for _, it := range items {
		fmt.Fprintf(&catalog, "%s | %s | %s | %s %s @ %s\n",
			it.SKU, it.Name, it.Category, it.QtyAvailable().String(), it.Unit, it.UnitCost.String())
	}

	resp, err := s.agent.InterpretChangeWithTools(ctx, text, string(bomJSON), catalog.String(), s.readTools(companyCode))
	if err != nil {
		return nil, err
	}

	if resp.IsClarificationRequest {
		return &AIChangeResult{
			IsClarification:      true,
			ClarificationMessage: resp.Clarification.Message,
		}, nil
	}

	resp.Proposal.CompanyCode = companyCode
	resp.Proposal.BOMNumber = b.BOMNumber
	return &AIChangeResult{Proposal: resp.Proposal}, nil
}

// readTools builds the company-scoped read tools the agent may call while
// interpreting a change: inspecting other BOMs and usage data. Write access
// stays behind the human-confirmed proposal flow.
func (s *appService) readTools(companyCode string) *ai.ToolRegistry {
	registry := ai.NewToolRegistry()

	registry.Register(ai.ToolDefinition{
		Name:        "get_bom",
		Description: "Fetch the full structure and costs of another BOM in this company by its BOM number.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"bom_number": map[string]any{"type": "string", "description": "The BOM number, e.g. BOM-2026-000123"},
			},
			"required":             []string{"bom_number"},
			"additionalProperties": false,
		},
		IsReadTool: true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			number, _ := params["bom_number"].(string)
			b, err := s.bomService.GetBOMByNumber(ctx, companyCode, strings.ToUpper(strings.TrimSpace(number)))
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(b)
			return string(out), err
		},
	})

	registry.Register(ai.ToolDefinition{
		Name:        "list_boms",
		Description: "List the BOM headers in this company, optionally filtered by status (DRAFT, UNDER_REVIEW, RELEASED, OBSOLETE).",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "description": "Optional status filter; empty returns all"},
			},
			"required":             []string{},
			"additionalProperties": false,
		},
		IsReadTool: true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			status, _ := params["status"].(string)
			boms, err := s.bomService.ListBOMs(ctx, companyCode, strings.ToUpper(strings.TrimSpace(status)))
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(boms)
			return string(out), err
		},
	})

	registry.Register(ai.ToolDefinition{
		Name:        "lookup_item",
		Description: "Look up one item master entry by SKU: name, unit, category, unit cost, and stock on hand.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sku": map[string]any{"type": "string", "description": "The item SKU to look up"},
			},
			"required":             []string{"sku"},
			"additionalProperties": false,
		},
		IsReadTool: true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			sku, _ := params["sku"].(string)
			item, err := s.items.GetItemBySKU(ctx, companyCode, strings.ToUpper(strings.TrimSpace(sku)))
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(item)
			return string(out), err
		},
	})

	registry.Register(ai.ToolDefinition{
		Name:        "where_used",
		Description: "List every BOM in this company that references a SKU, either on a component row or as an alternative.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sku": map[string]any{"type": "string", "description": "The item SKU to look up"},
			},
			"required":             []string{"sku"},
			"additionalProperties": false,
		},
		IsReadTool: true,
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			sku, _ := params["sku"].(string)
			entries, err := s.reports.WhereUsed(ctx, companyCode, strings.ToUpper(strings.TrimSpace(sku)))
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(entries)
			return string(out), err
		},
	})

	return registry
}

// ApplyChangeProposal applies an approved proposal's steps in order against
// the live BOM, then saves once. A create_revision step is deferred to the
// end because it only applies to a RELEASED document.
func (s *appService) ApplyChangeProposal(ctx context.Context, proposal core.ChangeProposal) (*BOMResult, error) {
	proposal.Normalize()
	if err := proposal.Validate(); err != nil {
		return nil, err
	}

	b, err := s.bomService.GetBOMByNumber(ctx, proposal.CompanyCode, proposal.BOMNumber)
	if err != nil {
		return nil, err
	}

	// A create_revision step runs first: it reopens a RELEASED document as a
	// DRAFT so the remaining edits are legal.
	edits := 0
	for _, step := range proposal.Steps {
		if step.Action != "create_revision" {
			edits++
			continue
		}
		notes := step.Notes
		if notes == "" {
			notes = proposal.Summary
		}
		b, err = s.bomService.CreateRevision(ctx, b.ID, "ai-agent", notes, s.ecoService)
		if err != nil {
			return nil, err
		}
	}

	for i, step := range proposal.Steps {
		switch step.Action {
		case "add_component", "add_sub_assembly":
			ref, err := b.AddComponent(step.Action == "add_sub_assembly")
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			patch := stepPatch(step)
			if err := b.UpdateComponent(ctx, ref, patch, s.items); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case "update_component":
			if err := b.UpdateComponent(ctx, step.Ref, stepPatch(step), s.items); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case "remove_component":
			if err := b.RemoveComponent(step.Ref); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case "add_alternative":
			idx, err := b.AddAlternative(step.Ref)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			var sku, cost, notes *string
			if step.ItemSKU != "" {
				sku = &step.ItemSKU
			}
			if step.UnitCost != "" {
				cost = &step.UnitCost
			}
			if step.Notes != "" {
				notes = &step.Notes
			}
			if err := b.UpdateAlternative(ctx, step.Ref, idx, sku, cost, notes, s.items); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case "set_labor_cost":
			if err := b.SetLaborCost(step.UnitCost); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case "set_overhead_cost":
			if err := b.SetOverheadCost(step.UnitCost); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case "create_revision":
			// applied before the loop
		default:
			return nil, fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
	}

	if edits == 0 {
		return &BOMResult{BOM: b}, nil
	}
	if err := s.bomService.SaveBOM(ctx, b); err != nil {
		return nil, err
	}
	return &BOMResult{BOM: b}, nil
}

func stepPatch(step core.ChangeStep) core.ComponentPatch {
	var patch core.ComponentPatch
	if step.ItemSKU != "" {
		patch.ItemSKU = &step.ItemSKU
	}
	if step.Quantity != "" {
		patch.Quantity = &step.Quantity
	}
	if step.UnitCost != "" {
		patch.UnitCost = &step.UnitCost
	}
	if step.ChildBOM != "" {
		patch.ChildBOM = &step.ChildBOM
	}
	return patch
}

// editBOM loads a BOM, applies the mutation, and saves it back under the
// optimistic version check. A non-zero expectedVersion asserts the caller's
// view is still current before anything is applied.
func (s *appService) editBOM(ctx context.Context, ref, companyCode string, expectedVersion int,
	mutate func(*core.BillOfMaterials) error) (*core.BillOfMaterials, error) {

	b, err := s.resolveBOM(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && b.Version != expectedVersion {
		return nil, fmt.Errorf("BOM %s: expected version %d, found %d: %w",
			b.BOMNumber, expectedVersion, b.Version, core.ErrVersionConflict)
	}
	if err := mutate(b); err != nil {
		return nil, err
	}
	if err := s.bomService.SaveBOM(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// resolveBOM accepts either a numeric internal ID or a BOM number and returns
// the full aggregate, asserting company ownership.
func (s *appService) resolveBOM(ctx context.Context, ref, companyCode string) (*core.BillOfMaterials, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		b, err := s.bomService.GetBOM(ctx, id)
		if err != nil {
			return nil, err
		}
		company, err := s.fetchCompany(ctx, companyCode)
		if err != nil {
			return nil, err
		}
		if b.CompanyID != company.ID {
			return nil, fmt.Errorf("BOM %d not found", id)
		}
		return b, nil
	}
	return s.bomService.GetBOMByNumber(ctx, companyCode, ref)
}

func (s *appService) fetchCompany(ctx context.Context, companyCode string) (*core.Company, error) {
	c := &core.Company{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, base_currency FROM companies WHERE company_code = $1", companyCode,
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency)
	if err != nil {
		return nil, fmt.Errorf("company %s not found: %w", companyCode, err)
	}
	return c, nil
}
