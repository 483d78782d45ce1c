package core_test

import (
	"context"
	"testing"

	"bom-engine/internal/core"

	"github.com/shopspring/decimal"
)

func TestReportService_CostBreakdown(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	bomSvc := core.NewBOMService(pool)
	items := core.NewItemService(pool)
	reports := core.NewReportService(pool, bomSvc)
	ctx := context.Background()

	b, err := bomSvc.CreateBOM(ctx, "1000", "Breakdown Target", "", "alice")
	if err != nil {
		t.Fatal(err)
	}
	frame, _ := b.AddComponent(false)
	if err := b.UpdateComponent(ctx, frame, core.ComponentPatch{ItemSKU: strPtr("RM-STL-001")}, items); err != nil {
		t.Fatal(err)
	}
	bearing, _ := b.AddComponent(false)
	if err := b.UpdateComponent(ctx, bearing, core.ComponentPatch{ItemSKU: strPtr("PC-BRG-010"), Quantity: strPtr("5")}, items); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLaborCost("10"); err != nil {
		t.Fatal(err)
	}
	if err := bomSvc.SaveBOM(ctx, b); err != nil {
		t.Fatal(err)
	}

	cb, err := reports.CostBreakdown(ctx, b.ID)
	if err != nil {
		t.Fatalf("CostBreakdown: %v", err)
	}
	if len(cb.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cb.Lines))
	}

	// material = 95.25 + 5×3.40 = 112.25, total = 122.25
	if !cb.MaterialCost.Equal(decimal.RequireFromString("112.25")) {
		t.Errorf("expected material 112.25, got %s", cb.MaterialCost)
	}
	if !cb.TotalCost.Equal(decimal.RequireFromString("122.25")) {
		t.Errorf("expected total 122.25, got %s", cb.TotalCost)
	}

	// Shares of the computed sum: 95.25/112.25 ≈ 84.86%, 17/112.25 ≈ 15.14%
	if !cb.Lines[0].SharePercent.Equal(decimal.RequireFromString("84.86")) {
		t.Errorf("expected share 84.86, got %s", cb.Lines[0].SharePercent)
	}
	if !cb.Lines[1].SharePercent.Equal(decimal.RequireFromString("15.14")) {
		t.Errorf("expected share 15.14, got %s", cb.Lines[1].SharePercent)
	}
}

func TestReportService_WhereUsed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	bomSvc := core.NewBOMService(pool)
	items := core.NewItemService(pool)
	reports := core.NewReportService(pool, bomSvc)
	ctx := context.Background()

	// First BOM uses the bearing on a component row.
	b1, err := bomSvc.CreateBOM(ctx, "1000", "Gearbox", "", "alice")
	if err != nil {
		t.Fatal(err)
	}
	ref, _ := b1.AddComponent(false)
	if err := b1.UpdateComponent(ctx, ref, core.ComponentPatch{ItemSKU: strPtr("PC-BRG-010"), Quantity: strPtr("2")}, items); err != nil {
		t.Fatal(err)
	}
	if err := bomSvc.SaveBOM(ctx, b1); err != nil {
		t.Fatal(err)
	}

	// Second BOM carries it only as an alternative.
	b2, err := bomSvc.CreateBOM(ctx, "1000", "Spindle", "", "alice")
	if err != nil {
		t.Fatal(err)
	}
	ref2, _ := b2.AddComponent(false)
	if err := b2.UpdateComponent(ctx, ref2, core.ComponentPatch{ItemSKU: strPtr("RM-STL-001")}, items); err != nil {
		t.Fatal(err)
	}
	if _, err := b2.AddAlternative(ref2); err != nil {
		t.Fatal(err)
	}
	if err := b2.UpdateAlternative(ctx, ref2, 0, strPtr("PC-BRG-010"), nil, nil, items); err != nil {
		t.Fatal(err)
	}
	if err := bomSvc.SaveBOM(ctx, b2); err != nil {
		t.Fatal(err)
	}

	entries, err := reports.WhereUsed(ctx, "1000", "PC-BRG-010")
	if err != nil {
		t.Fatalf("WhereUsed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	byBOM := map[string]core.WhereUsedEntry{}
	for _, e := range entries {
		byBOM[e.BOMName] = e
	}
	if e := byBOM["Gearbox"]; e.AsAlternative || !e.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("component usage wrong: %+v", e)
	}
	if e := byBOM["Spindle"]; !e.AsAlternative {
		t.Errorf("alternative usage wrong: %+v", e)
	}

	if entries, err := reports.WhereUsed(ctx, "1000", "UNUSED-SKU"); err != nil || len(entries) != 0 {
		t.Errorf("expected empty result for unused SKU, got %v entries, err %v", len(entries), err)
	}
}
