package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BillOfMaterials is the root aggregate: an ordered component tree, parallel
// alternative-component groups, roll-up costs, and an append-only revision
// trail. All mutation goes through the methods in bom_document.go, costing.go
// and revision.go; persistence is BOMService's concern.
type BillOfMaterials struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"company_id"`
	BOMNumber string    `json:"bom_number"`
	Name      string    `json:"name"`
	ProdSKU   string    `json:"product_sku,omitempty"`
	Revision  string    `json:"revision"`
	Status    BOMStatus `json:"status"`
	Currency  string    `json:"currency"`

	Components []Component `json:"components"`
	// Alternatives maps an original component's Ref to its ordered
	// alternative group. Invariant: no key ever holds an empty slice.
	Alternatives map[int][]AlternativeComponent `json:"alternatives,omitempty"`

	MaterialCost decimal.Decimal `json:"material_cost"`
	// MaterialCostOverride, when non-nil, replaces the computed component sum
	// in the roll-up until explicitly cleared.
	MaterialCostOverride *decimal.Decimal `json:"material_cost_override,omitempty"`
	LaborCost            decimal.Decimal  `json:"labor_cost"`
	OverheadCost         decimal.Decimal  `json:"overhead_cost"`
	TotalCost            decimal.Decimal  `json:"total_cost"`

	RevisionHistory []RevisionEntry `json:"revision_history,omitempty"`

	CreatedBy  string     `json:"created_by"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Version is the optimistic-concurrency token checked by SaveBOM.
	Version int `json:"version"`

	// nextRef is the next component identity to hand out. Refs are never
	// reused, even after removal.
	nextRef int
}

// Component is one row of the BOM. A sub-assembly row (IsAssembly) may
// reference another BOM by number and may carry nested children one level
// deeper; everything else references the item master by SKU.
type Component struct {
	Ref          int             `json:"ref"`
	ItemSKU      string          `json:"item_sku"`
	ItemName     string          `json:"item_name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	QtyAvailable decimal.Decimal `json:"qty_available"`
	IsAssembly   bool            `json:"is_assembly"`
	ChildBOM     string          `json:"child_bom,omitempty"`
	Level        int             `json:"level"`
	Children     []Component     `json:"children,omitempty"`
}

// DisplayName resolves the row label: an unresolved sub-assembly shows as
// "Sub-Assembly", an unresolved plain row as "-".
func (c Component) DisplayName() string {
	if c.ItemName != "" {
		return c.ItemName
	}
	if c.IsAssembly {
		return "Sub-Assembly"
	}
	return "-"
}

// AlternativeComponent is a substitute for one original component. It has no
// quantity of its own — it inherits the original's when substituted.
type AlternativeComponent struct {
	ItemSKU  string          `json:"item_sku"`
	ItemName string          `json:"item_name"`
	Cost     decimal.Decimal `json:"cost"`
	Notes    string          `json:"notes"`
}

// RevisionEntry records one superseded revision. Entries are append-only.
type RevisionEntry struct {
	Revision  string    `json:"revision"`
	RevisedAt time.Time `json:"revised_at"`
	RevisedBy string    `json:"revised_by"`
	Notes     string    `json:"notes"`
}

// ItemInfo is the item-master view the engine consumes when a SKU is set on
// a component or alternative row.
type ItemInfo struct {
	Name         string
	Unit         string
	Category     string
	UnitCost     decimal.Decimal
	QtyAvailable decimal.Decimal
}

/// ItemResolver looks a SKU up in the item master. A miss is soft: (nil, nil).
type ItemResolver interface {
	Resolve(ctx context.Context, companyID int, sku string) (*ItemInfo, error)
}

// ECO is an engineering change order raised when a released BOM is revised.
type ECO struct {
	ID        int        `json:"id"`
	CompanyID int        `json:"company_id"`
	BOMID     int        `json:"bom_id"`
	ECONumber string     `json:"eco_number,omitempty"`
	Status    ECOStatus  `json:"status"`
	Summary   string     `json:"summary"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
}

// BOMService provides persisted bill-of-materials lifecycle operations.
type BOMService interface {
	// CreateBOM creates a new DRAFT document at revision "A" with an empty
	// component list and a generated BOM number.
	CreateBOM(ctx context.Context, companyCode, name, productSKU, createdBy string) (*BillOfMaterials, error)

	// GetBOM loads the full aggregate by internal ID.
	GetBOM(ctx context.Context, bomID int) (*BillOfMaterials, error)

	// GetBOMByNumber loads the full aggregate by its BOM number, scoped to
	// the company.
	GetBOMByNumber(ctx context.Context, companyCode, bomNumber string) (*BillOfMaterials, error)

	// ListBOMs returns document headers (no components) for a company,
	// optionally filtered by status. An empty status returns all.
	ListBOMs(ctx context.Context, companyCode string, status string) ([]BillOfMaterials, error)

	// SaveBOM writes the aggregate back. The stored row must still be at
	// b.Version; otherwise ErrVersionConflict. Sub-assembly references are
	// walked for cycles before anything is written. On success b.Version is
	// incremented.
	SaveBOM(ctx context.Context, b *BillOfMaterials) error

	// SubmitForReview transitions DRAFT → UNDER_REVIEW.
	SubmitForReview(ctx context.Context, bomID int) (*BillOfMaterials, error)

	// Release transitions UNDER_REVIEW → RELEASED and stamps approval
	// exactly once. Releasing an already-RELEASED document is a no-op.
	Release(ctx context.Context, bomID int, approvedBy string) (*BillOfMaterials, error)

	// MarkObsolete transitions RELEASED → OBSOLETE.
	MarkObsolete(ctx context.Context, bomID int) (*BillOfMaterials, error)

	// CreateRevision advances the revision label of a RELEASED document,
	// appends the audit entry, reopens it as DRAFT with approval cleared,
	// and raises a posted ECO for the change.
	CreateRevision(ctx context.Context, bomID int, by, notes string, ecoSvc ECOService) (*BillOfMaterials, error)
}

// GenerateBOMNumber builds the document number for a new BOM:
// BOM-<year>-<6-digit suffix derived from the creation timestamp>.
func GenerateBOMNumber(now time.Time) string {
	return fmt.Sprintf("BOM-%d-%06d", now.Year(), now.UnixMilli()%1_000_000)
}

// NewBillOfMaterials constructs an in-memory DRAFT document at revision "A".
func NewBillOfMaterials(companyID int, name, productSKU, createdBy, currency string, now time.Time) *BillOfMaterials {
	if currency == "" {
		currency = "USD"
	}
	return &BillOfMaterials{
		CompanyID:    companyID,
		BOMNumber:    GenerateBOMNumber(now),
		Name:         name,
		ProdSKU:      productSKU,
		Revision:     "A",
		Status:       BOMStatusDraft,
		Currency:     currency,
		Alternatives: make(map[int][]AlternativeComponent),
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
		nextRef:      1,
	}
}
