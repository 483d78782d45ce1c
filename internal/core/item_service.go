package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type itemService struct {
	pool *pgxpool.Pool
}

// NewItemService constructs an ItemService backed by PostgreSQL.
func NewItemService(pool *pgxpool.Pool) ItemService {
	return &itemService{pool: pool}
}

const itemColumns = `
	id, company_id, sku, name, description, category, unit,
	unit_cost, qty_on_hand, qty_reserved, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID, &it.CompanyID, &it.SKU, &it.Name, &it.Description, &it.Category, &it.Unit,
		&it.UnitCost, &it.QtyOnHand, &it.QtyReserved, &it.IsActive, &it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *itemService) CreateItem(ctx context.Context, companyCode string, item Item) (*Item, error) {
	var companyID int
	if err := s.pool.QueryRow(ctx,
		"SELECT id FROM companies WHERE company_code = $1", companyCode,
	).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s not found", companyCode)
		}
		return nil, fmt.Errorf("resolve company %s: %w", companyCode, err)
	}

	if item.SKU == "" || item.Name == "" {
		return nil, fmt.Errorf("item SKU and name are required")
	}
	if item.Category == "" {
		item.Category = CategoryRawMaterial
	}
	if item.Unit == "" {
		item.Unit = "pieces"
	}
	if item.UnitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", item.UnitCost)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO items (company_id, sku, name, description, category, unit, unit_cost, qty_on_hand)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+itemColumns,
		companyID, item.SKU, item.Name, item.Description, string(item.Category),
		item.Unit, item.UnitCost, item.QtyOnHand,
	)
	created, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("insert item %s: %w", item.SKU, err)
	}
	return created, nil
}

func (s *itemService) GetItems(ctx context.Context, companyCode string) ([]Item, error) {
	var companyID int
	if err := s.pool.QueryRow(ctx,
		"SELECT id FROM companies WHERE company_code = $1", companyCode,
	).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s not found", companyCode)
		}
		return nil, fmt.Errorf("resolve company %s: %w", companyCode, err)
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+itemColumns+" FROM items WHERE company_id = $1 AND is_active = true ORDER BY sku",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *itemService) GetItemBySKU(ctx context.Context, companyCode, sku string) (*Item, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE company_id = (SELECT id FROM companies WHERE company_code = $1)
		  AND sku = $2 AND is_active = true`,
		companyCode, sku,
	)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s not found for company %s", sku, companyCode)
		}
		return nil, fmt.Errorf("get item %s: %w", sku, err)
	}
	return it, nil
}

// ReceiveStock records a goods receipt against the item master. The stored
// unit cost becomes the weighted average of existing stock and the received
// lot: (old_qty * old_cost + qty * unit_cost) / (old_qty + qty).
func (s *itemService) ReceiveStock(ctx context.Context, companyCode, sku string, qty, unitCost decimal.Decimal) (*Item, error) {
	if qty.IsNegative() || qty.IsZero() {
		return nil, fmt.Errorf("receive quantity must be positive, got %s", qty)
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", unitCost)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var itemID int
	var oldQty, oldCost decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT i.id, i.qty_on_hand, i.unit_cost
		FROM items i
		JOIN companies c ON c.id = i.company_id
		WHERE c.company_code = $1 AND i.sku = $2 AND i.is_active = true
		FOR UPDATE OF i`,
		companyCode, sku,
	).Scan(&itemID, &oldQty, &oldCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s not found for company %s", sku, companyCode)
		}
		return nil, fmt.Errorf("lock item %s: %w", sku, err)
	}

	newQty := oldQty.Add(qty)
	var newCost decimal.Decimal
	if newQty.IsZero() {
		newCost = unitCost
	} else {
		newCost = oldQty.Mul(oldCost).Add(qty.Mul(unitCost)).Div(newQty)
	}

	row := tx.QueryRow(ctx, `
		UPDATE items
		SET qty_on_hand = $1, unit_cost = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+itemColumns,
		newQty, newCost, itemID,
	)
	updated, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", sku, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit goods receipt: %w", err)
	}
	return updated, nil
}

// Resolve is the soft lookup the BOM engine uses when a SKU lands on a
// component row. A miss is not an error: the row keeps the typed SKU and the
// caller carries on.
func (s *itemService) Resolve(ctx context.Context, companyID int, sku string) (*ItemInfo, error) {
	var info ItemInfo
	err := s.pool.QueryRow(ctx, `
		SELECT name, unit, category, unit_cost, qty_on_hand - qty_reserved
		FROM items
		WHERE company_id = $1 AND sku = $2 AND is_active = true`,
		companyID, sku,
	).Scan(&info.Name, &info.Unit, &info.Category, &info.UnitCost, &info.QtyAvailable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve item %s: %w", sku, err)
	}
	return &info, nil
}
