package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bom-engine/internal/core"

	"github.com/shopspring/decimal"
)

// stubResolver serves a fixed catalog; unknown SKUs miss softly.
type stubResolver struct {
	catalog map[string]core.ItemInfo
}

func (r stubResolver) Resolve(_ context.Context, _ int, sku string) (*core.ItemInfo, error) {
	info, ok := r.catalog[sku]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func testResolver() stubResolver {
	return stubResolver{catalog: map[string]core.ItemInfo{
		"RM-STL-001": {
			Name:         "Cold Rolled Steel Sheet 2mm",
			Unit:         "kg",
			Category:     "raw_material",
			UnitCost:     decimal.RequireFromString("95.25"),
			QtyAvailable: decimal.NewFromInt(500),
		},
		"PC-BRG-010": {
			Name:         "Ball Bearing 6204-2RS",
			Unit:         "pieces",
			Category:     "purchased_component",
			UnitCost:     decimal.RequireFromString("3.40"),
			QtyAvailable: decimal.NewFromInt(1200),
		},
	}}
}

func newTestBOM(t *testing.T) *core.BillOfMaterials {
	t.Helper()
	b := core.NewBillOfMaterials(1, "Steel Workbench", "WB-100", "alice", "USD", time.Now())
	b.BOMNumber = "BOM-2026-000123"
	return b
}

func TestAddComponent_RefsAreMonotonic(t *testing.T) {
	b := newTestBOM(t)

	r1, err := b.AddComponent(false)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := b.AddComponent(true)
	if err != nil {
		t.Fatal(err)
	}
	if r1 != 1 || r2 != 2 {
		t.Errorf("expected refs 1, 2; got %d, %d", r1, r2)
	}

	// Removing a row never frees its ref.
	if err := b.RemoveComponent(r2); err != nil {
		t.Fatal(err)
	}
	r3, err := b.AddComponent(false)
	if err != nil {
		t.Fatal(err)
	}
	if r3 != 3 {
		t.Errorf("ref reused after removal: got %d, want 3", r3)
	}

	c := b.FindComponent(r1)
	if c == nil {
		t.Fatal("component 1 missing")
	}
	if c.Unit != "pieces" || !c.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("new row defaults wrong: unit=%q qty=%s", c.Unit, c.Quantity)
	}
}

func TestAddSubComponent(t *testing.T) {
	b := newTestBOM(t)

	plain, _ := b.AddComponent(false)
	asm, _ := b.AddComponent(true)

	// Children only attach to sub-assembly rows.
	if _, err := b.AddSubComponent(plain); !errors.Is(err, core.ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent for non-assembly parent, got %v", err)
	}
	if _, err := b.AddSubComponent(99); !errors.Is(err, core.ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent for missing parent, got %v", err)
	}

	child, err := b.AddSubComponent(asm)
	if err != nil {
		t.Fatalf("AddSubComponent: %v", err)
	}
	c := b.FindComponent(child)
	if c == nil {
		t.Fatal("child not reachable via FindComponent")
	}
	if c.Level != 1 {
		t.Errorf("expected child level 1, got %d", c.Level)
	}
}

func TestUpdateComponent_SKUResolution(t *testing.T) {
	b := newTestBOM(t)
	ctx := context.Background()
	resolver := testResolver()

	ref, _ := b.AddComponent(false)

	// A catalog hit copies the item master fields onto the row.
	if err := b.UpdateComponent(ctx, ref, core.ComponentPatch{ItemSKU: strPtr("RM-STL-001")}, resolver); err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}
	c := b.FindComponent(ref)
	if c.ItemName != "Cold Rolled Steel Sheet 2mm" || c.Unit != "kg" {
		t.Errorf("resolver hit not copied: name=%q unit=%q", c.ItemName, c.Unit)
	}
	if !c.UnitCost.Equal(decimal.RequireFromString("95.25")) {
		t.Errorf("cost not copied from item master: %s", c.UnitCost)
	}

	// A miss keeps the typed SKU and touches nothing else.
	if err := b.UpdateComponent(ctx, ref, core.ComponentPatch{ItemSKU: strPtr("NO-SUCH-SKU")}, resolver); err != nil {
		t.Fatalf("soft miss must not error: %v", err)
	}
	c = b.FindComponent(ref)
	if c.ItemSKU != "NO-SUCH-SKU" {
		t.Errorf("typed SKU lost on miss: %q", c.ItemSKU)
	}
	if c.ItemName != "Cold Rolled Steel Sheet 2mm" {
		t.Errorf("miss must leave previous fields alone, name=%q", c.ItemName)
	}
}

func TestUpdateComponent_ChildBOMRules(t *testing.T) {
	b := newTestBOM(t)
	ctx := context.Background()

	plain, _ := b.AddComponent(false)
	asm, _ := b.AddComponent(true)

	// Child links belong to assembly rows only.
	err := b.UpdateComponent(ctx, plain, core.ComponentPatch{ChildBOM: strPtr("BOM-2026-000999")}, nil)
	if !errors.Is(err, core.ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent, got %v", err)
	}

	// A document can never be its own child.
	err = b.UpdateComponent(ctx, asm, core.ComponentPatch{ChildBOM: strPtr("BOM-2026-000123")}, nil)
	if !errors.Is(err, core.ErrCyclicReference) {
		t.Errorf("expected ErrCyclicReference, got %v", err)
	}

	if err := b.UpdateComponent(ctx, asm, core.ComponentPatch{ChildBOM: strPtr("BOM-2026-000999")}, nil); err != nil {
		t.Fatalf("valid child link rejected: %v", err)
	}
}

func TestAlternatives(t *testing.T) {
	b := newTestBOM(t)
	ctx := context.Background()
	resolver := testResolver()

	ref, _ := b.AddComponent(false)

	if _, err := b.AddAlternative(42); err == nil {
		t.Error("expected error for alternative on missing component")
	}

	i0, err := b.AddAlternative(ref)
	if err != nil {
		t.Fatal(err)
	}
	i1, err := b.AddAlternative(ref)
	if err != nil {
		t.Fatal(err)
	}
	if i0 != 0 || i1 != 1 {
		t.Errorf("expected indices 0, 1; got %d, %d", i0, i1)
	}

	// Resolution fills name and cost; alternatives never carry a quantity.
	if err := b.UpdateAlternative(ctx, ref, i0, strPtr("PC-BRG-010"), nil, strPtr("cheaper vendor"), resolver); err != nil {
		t.Fatalf("UpdateAlternative: %v", err)
	}
	alt := b.Alternatives[ref][i0]
	if alt.ItemName != "Ball Bearing 6204-2RS" || !alt.Cost.Equal(decimal.RequireFromString("3.40")) {
		t.Errorf("resolver hit not applied: %+v", alt)
	}
	if alt.Notes != "cheaper vendor" {
		t.Errorf("notes lost: %q", alt.Notes)
	}

	// An explicit cost wins over the resolved one.
	if err := b.UpdateAlternative(ctx, ref, i0, nil, strPtr("2.95"), nil, resolver); err != nil {
		t.Fatal(err)
	}
	if !b.Alternatives[ref][i0].Cost.Equal(decimal.RequireFromString("2.95")) {
		t.Errorf("explicit cost not applied: %s", b.Alternatives[ref][i0].Cost)
	}

	// Removing the last member prunes the whole group.
	if err := b.RemoveAlternative(ref, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.RemoveAlternative(ref, 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Alternatives[ref]; ok {
		t.Error("empty alternative group must be pruned from the map")
	}
}

func TestRemoveComponent_DropsAlternativeGroup(t *testing.T) {
	b := newTestBOM(t)

	ref, _ := b.AddComponent(false)
	if _, err := b.AddAlternative(ref); err != nil {
		t.Fatal(err)
	}

	if err := b.RemoveComponent(ref); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Alternatives[ref]; ok {
		t.Error("removing the original must drop its alternative group")
	}
	if err := b.RemoveComponent(ref); err == nil {
		t.Error("expected error removing an already-removed ref")
	}
}

func TestReleasedDocumentIsImmutable(t *testing.T) {
	b := newTestBOM(t)
	ctx := context.Background()

	ref, _ := b.AddComponent(false)
	if _, err := b.AddAlternative(ref); err != nil {
		t.Fatal(err)
	}
	if err := b.SubmitForReview(); err != nil {
		t.Fatal(err)
	}

	// UNDER_REVIEW still edits.
	if _, err := b.AddComponent(false); err != nil {
		t.Fatalf("UNDER_REVIEW must stay editable: %v", err)
	}

	if err := b.Release("carol", time.Now()); err != nil {
		t.Fatal(err)
	}

	mutations := map[string]error{
		"AddComponent": func() error { _, err := b.AddComponent(false); return err }(),
		"AddSubComponent": func() error {
			_, err := b.AddSubComponent(ref)
			return err
		}(),
		"UpdateComponent": b.UpdateComponent(ctx, ref, core.ComponentPatch{Quantity: strPtr("5")}, nil),
		"RemoveComponent": b.RemoveComponent(ref),
		"AddAlternative": func() error {
			_, err := b.AddAlternative(ref)
			return err
		}(),
		"UpdateAlternative": b.UpdateAlternative(ctx, ref, 0, nil, strPtr("1"), nil, nil),
		"RemoveAlternative": b.RemoveAlternative(ref, 0),
		"SetLaborCost":      b.SetLaborCost("10"),
		"SetOverheadCost":   b.SetOverheadCost("10"),
		"SetOverride":       b.SetMaterialCostOverride("10"),
		"ClearOverride":     b.ClearMaterialCostOverride(),
	}
	for name, err := range mutations {
		if !errors.Is(err, core.ErrReleased) {
			t.Errorf("%s on RELEASED doc: expected ErrReleased, got %v", name, err)
		}
	}
}

func TestGenerateBOMNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	n := core.GenerateBOMNumber(now)
	if len(n) != len("BOM-2026-000000") {
		t.Errorf("unexpected format: %q", n)
	}
	if n[:9] != "BOM-2026-" {
		t.Errorf("expected BOM-2026- prefix, got %q", n)
	}
}
