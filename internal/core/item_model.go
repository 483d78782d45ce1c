package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one entry in the item master: the catalog of raw materials,
// purchased parts and sub-assemblies that BOM components reference by SKU.
type Item struct {
	ID          int             `json:"id"`
	CompanyID   int             `json:"company_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    ItemCategory    `json:"category"`
	Unit        string          `json:"unit"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	QtyOnHand   decimal.Decimal `json:"qty_on_hand"`
	QtyReserved decimal.Decimal `json:"qty_reserved"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// QtyAvailable is on-hand stock minus reservations.
func (i Item) QtyAvailable() decimal.Decimal {
	return i.QtyOnHand.Sub(i.QtyReserved)
}

// ItemService manages the item master. It doubles as the ItemResolver the
// BOM engine uses for soft SKU lookups.
type ItemService interface {
	// CreateItem adds a catalog entry. SKUs are unique per company.
	CreateItem(ctx context.Context, companyCode string, item Item) (*Item, error)
	// GetItems returns the active catalog for a company, ordered by SKU.
	GetItems(ctx context.Context, companyCode string) ([]Item, error)
	// GetItemBySKU returns one catalog entry. Missing SKUs are an error here,
	// unlike Resolve.
	GetItemBySKU(ctx context.Context, companyCode, sku string) (*Item, error)
	// ReceiveStock records a goods receipt, updating the unit cost as a
	// weighted average of existing stock and the received lot.
	ReceiveStock(ctx context.Context, companyCode, sku string, qty, unitCost decimal.Decimal) (*Item, error)
	// Resolve implements ItemResolver: a lookup miss returns (nil, nil) so
	// callers can keep unresolved SKUs on BOM rows.
	Resolve(ctx context.Context, companyID int, sku string) (*ItemInfo, error)
}
