package app

import "github.com/shopspring/decimal"

// CreateItemRequest is the input for adding an entry to the item master.
type CreateItemRequest struct {
	CompanyCode string
	SKU         string
	Name        string
	Description string
	Category    string
	Unit        string
	UnitCost    decimal.Decimal
	QtyOnHand   decimal.Decimal
}

// ReceiveStockRequest is the input for recording a goods receipt against an item.
type ReceiveStockRequest struct {
	CompanyCode string
	SKU         string
	Qty         decimal.Decimal
	UnitCost    decimal.Decimal
}

// CreateBOMRequest is the input for creating a new bill of materials.
type CreateBOMRequest struct {
	CompanyCode string
	Name        string
	ProductSKU  string
	CreatedBy   string
}

// AddComponentRequest is the input for appending a top-level component row.
type AddComponentRequest struct {
	CompanyCode string
	BOMRef      string // numeric ID or BOM number
	IsAssembly  bool
	Version     int // last version the caller saw; 0 skips the client-side check
}

// AddSubComponentRequest is the input for appending a child row under a sub-assembly.
type AddSubComponentRequest struct {
	CompanyCode string
	BOMRef      string
	ParentRef   int
	Version     int
}

// UpdateComponentRequest patches one component row. Nil fields keep their
// current value. Quantity and UnitCost are raw strings: the engine coerces
// garbage to its documented defaults instead of rejecting the edit.
type UpdateComponentRequest struct {
	CompanyCode string
	BOMRef      string
	Ref         int
	ItemSKU     *string
	Quantity    *string
	UnitCost    *string
	Unit        *string
	ChildBOM    *string
	Version     int
}

// RemoveComponentRequest deletes one component row.
type RemoveComponentRequest struct {
	CompanyCode string
	BOMRef      string
	Ref         int
	Version     int
}

// AddAlternativeRequest appends a blank substitute to a component's group.
type AddAlternativeRequest struct {
	CompanyCode string
	BOMRef      string
	Ref         int
	Version     int
}

// UpdateAlternativeRequest patches one substitute in a group.
type UpdateAlternativeRequest struct {
	CompanyCode string
	BOMRef      string
	Ref         int
	Index       int
	ItemSKU     *string
	Cost        *string
	Notes       *string
	Version     int
}

// RemoveAlternativeRequest deletes one substitute.
type RemoveAlternativeRequest struct {
	CompanyCode string
	BOMRef      string
	Ref         int
	Index       int
	Version     int
}

// SetCostsRequest updates document-level cost figures. Nil fields are left
// untouched; ClearOverride drops the material override regardless of the
// MaterialCostOverride field.
type SetCostsRequest struct {
	CompanyCode          string
	BOMRef               string
	LaborCost            *string
	OverheadCost         *string
	MaterialCostOverride *string
	ClearOverride        bool
	Version              int
}

// CreateRevisionRequest advances a RELEASED BOM to its next revision.
type CreateRevisionRequest struct {
	CompanyCode string
	BOMRef      string
	RevisedBy   string
	Notes       string
}
