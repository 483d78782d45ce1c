package app

import (
	"context"

	"bom-engine/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web)
// call. It decouples presentation from business logic. Implementations must
// contain no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// LoadDefaultCompany loads the active company. Uses COMPANY_CODE env var
	// if set; otherwise expects exactly one company in the database.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// ListItems returns the active item catalog for a company.
	ListItems(ctx context.Context, companyCode string) (*ItemListResult, error)

	// GetItem returns one catalog entry by SKU.
	GetItem(ctx context.Context, companyCode, sku string) (*ItemResult, error)

	// CreateItem adds an entry to the item master.
	CreateItem(ctx context.Context, req CreateItemRequest) (*ItemResult, error)

	// ReceiveStock records a goods receipt against an item, recomputing its
	// unit cost as a weighted average.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*ItemResult, error)

	// ListBOMs returns BOM headers for a company, optionally filtered by status.
	ListBOMs(ctx context.Context, companyCode, status string) (*BOMListResult, error)

	// GetBOM returns a full BOM by numeric ID or BOM number string.
	GetBOM(ctx context.Context, ref, companyCode string) (*BOMResult, error)

	// CreateBOM creates a new DRAFT bill of materials at revision A.
	CreateBOM(ctx context.Context, req CreateBOMRequest) (*BOMResult, error)

	// AddComponent appends a blank top-level component (or sub-assembly) row.
	AddComponent(ctx context.Context, req AddComponentRequest) (*BOMResult, error)

	// AddSubComponent appends a blank child row under a sub-assembly.
	AddSubComponent(ctx context.Context, req AddSubComponentRequest) (*BOMResult, error)

	// UpdateComponent patches a component row. SKU lookups are soft; numeric
	// fields are coerced, never rejected. The cost roll-up runs before the
	// save.
	UpdateComponent(ctx context.Context, req UpdateComponentRequest) (*BOMResult, error)

	// RemoveComponent deletes a component row and its alternative group.
	RemoveComponent(ctx context.Context, req RemoveComponentRequest) (*BOMResult, error)

	// AddAlternative appends a blank substitute to a component's group.
	AddAlternative(ctx context.Context, req AddAlternativeRequest) (*BOMResult, error)

	// UpdateAlternative patches one substitute.
	UpdateAlternative(ctx context.Context, req UpdateAlternativeRequest) (*BOMResult, error)

	// RemoveAlternative deletes one substitute; empty groups are pruned.
	RemoveAlternative(ctx context.Context, req RemoveAlternativeRequest) (*BOMResult, error)

	// SetCosts updates the document-level labor, overhead and material
	// override figures. Nil fields are left untouched.
	SetCosts(ctx context.Context, req SetCostsRequest) (*BOMResult, error)

	// SubmitForReview transitions a DRAFT BOM to UNDER_REVIEW.
	SubmitForReview(ctx context.Context, ref, companyCode string) (*BOMResult, error)

	// ReleaseBOM transitions an UNDER_REVIEW BOM to RELEASED, stamping
	// approval. Releasing twice is a no-op.
	ReleaseBOM(ctx context.Context, ref, companyCode, approvedBy string) (*BOMResult, error)

	// MarkObsolete transitions a RELEASED BOM to OBSOLETE.
	MarkObsolete(ctx context.Context, ref, companyCode string) (*BOMResult, error)

	// CreateRevision advances a RELEASED BOM to its next revision label,
	// reopens it as DRAFT, and raises a posted ECO.
	CreateRevision(ctx context.Context, req CreateRevisionRequest) (*BOMResult, error)

	// GetCostBreakdown itemizes a BOM's material cost by component.
	GetCostBreakdown(ctx context.Context, ref, companyCode string) (*core.CostBreakdown, error)

	// WhereUsed lists every BOM referencing a SKU.
	WhereUsed(ctx context.Context, companyCode, sku string) (*WhereUsedResult, error)

	// ListECOs returns engineering change orders for a company, newest first.
	ListECOs(ctx context.Context, companyCode string) (*ECOListResult, error)

	// InterpretChange sends a natural-language change request to the AI agent
	// and returns either a structured ChangeProposal or a clarification
	// request. Nothing is applied.
	InterpretChange(ctx context.Context, text, bomRef, companyCode string) (*AIChangeResult, error)

	// ApplyChangeProposal applies a previously returned proposal to its BOM.
	// Must only be called after explicit user approval.
	ApplyChangeProposal(ctx context.Context, proposal core.ChangeProposal) (*BOMResult, error)
}
