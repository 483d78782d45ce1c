package core_test

import (
	"context"
	"testing"

	"bom-engine/internal/core"

	"github.com/shopspring/decimal"
)

func TestItemService_CreateAndList(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewItemService(pool)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, "1000", core.Item{
		SKU:      "PC-MTR-020",
		Name:     "Stepper Motor NEMA 23",
		UnitCost: decimal.RequireFromString("28.90"),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if created.Category != core.CategoryRawMaterial || created.Unit != "pieces" {
		t.Errorf("defaults not applied: category=%s unit=%s", created.Category, created.Unit)
	}

	if _, err := svc.CreateItem(ctx, "1000", core.Item{
		SKU:      "BAD-COST",
		Name:     "Bad",
		UnitCost: decimal.RequireFromString("-1"),
	}); err == nil {
		t.Error("expected negative cost to be rejected")
	}

	items, err := svc.GetItems(ctx, "1000")
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	// Two seeded + one created.
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
}

func TestItemService_ReceiveStock_WeightedAverage(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewItemService(pool)
	ctx := context.Background()

	// Seed: 1200 pieces @ 3.40. Receive 800 @ 4.00.
	// New cost = (1200×3.40 + 800×4.00) / 2000 = (4080 + 3200) / 2000 = 3.64
	item, err := svc.ReceiveStock(ctx, "1000", "PC-BRG-010",
		decimal.NewFromInt(800), decimal.RequireFromString("4.00"))
	if err != nil {
		t.Fatalf("ReceiveStock: %v", err)
	}
	if !item.QtyOnHand.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected 2000 on hand, got %s", item.QtyOnHand)
	}
	if !item.UnitCost.Equal(decimal.RequireFromString("3.64")) {
		t.Errorf("expected weighted cost 3.64, got %s", item.UnitCost)
	}

	if _, err := svc.ReceiveStock(ctx, "1000", "NO-SUCH-SKU",
		decimal.NewFromInt(1), decimal.NewFromInt(1)); err == nil {
		t.Error("expected error receiving against unknown SKU")
	}
}

func TestItemService_Resolve_SoftMiss(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewItemService(pool)
	ctx := context.Background()

	info, err := svc.Resolve(ctx, 1, "RM-STL-001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info == nil {
		t.Fatal("expected a hit for seeded SKU")
	}
	if info.Name != "Cold Rolled Steel Sheet 2mm" || info.Unit != "kg" {
		t.Errorf("wrong item info: %+v", info)
	}
	if !info.UnitCost.Equal(decimal.RequireFromString("95.25")) {
		t.Errorf("wrong unit cost: %s", info.UnitCost)
	}

	// A miss is (nil, nil): the caller keeps the unresolved SKU on the row.
	info, err = svc.Resolve(ctx, 1, "NO-SUCH-SKU")
	if err != nil {
		t.Fatalf("soft miss must not error: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil info on miss, got %+v", info)
	}
}
