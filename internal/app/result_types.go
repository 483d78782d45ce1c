package app

import "bom-engine/internal/core"

// BOMResult is returned by BOM lifecycle and editing operations.
type BOMResult struct {
	BOM *core.BillOfMaterials
	// NewRef carries the ref of a freshly added component, or the index of a
	// freshly added alternative. Zero otherwise.
	NewRef int
}

// BOMListResult is returned by ListBOMs.
type BOMListResult struct {
	BOMs        []core.BillOfMaterials
	CompanyCode string
}

// ItemResult is returned by single-item operations.
type ItemResult struct {
	Item *core.Item
}

// ItemListResult is returned by ListItems.
type ItemListResult struct {
	Items       []core.Item
	CompanyCode string
}

// WhereUsedResult is returned by WhereUsed.
type WhereUsedResult struct {
	SKU     string
	Entries []core.WhereUsedEntry
}

// ECOListResult is returned by ListECOs.
type ECOListResult struct {
	ECOs        []core.ECO
	CompanyCode string
}

// AIChangeResult is returned by InterpretChange.
type AIChangeResult struct {
	Proposal             *core.ChangeProposal
	ClarificationMessage string
	IsClarification      bool
}

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID      int
	CompanyID   int
	Username    string
	Role        string
	CompanyCode string
}

// UserResult is returned by GetUser.
type UserResult struct {
	User *core.User
}
