package core_test

import (
	"context"
	"testing"
	"time"

	"bom-engine/internal/core"

	"github.com/shopspring/decimal"
)

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2.5", "2.5"},
		{" 10 ", "10"},
		{"abc", "1"},
		{"", "1"},
		{"0", "1"},
		{"-5", "1"},
	}
	for _, tt := range tests {
		got := core.CoerceQuantity(tt.raw)
		if got.String() != tt.want {
			t.Errorf("CoerceQuantity(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestCoerceCost(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"3.40", "3.4"},
		{"0", "0"},
		{"garbage", "0"},
		{"", "0"},
		{"-12.50", "0"},
	}
	for _, tt := range tests {
		got := core.CoerceCost(tt.raw)
		if got.String() != tt.want {
			t.Errorf("CoerceCost(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

// Builds a two-row BOM: steel frame 1 × 95.25 and oak tops 2 × 12.85.
func buildCostedBOM(t *testing.T) *core.BillOfMaterials {
	t.Helper()
	b := core.NewBillOfMaterials(1, "Steel Workbench", "WB-100", "alice", "USD", time.Now())

	ref1, err := b.AddComponent(false)
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := b.UpdateComponent(context.Background(), ref1, core.ComponentPatch{
		UnitCost: strPtr("95.25"),
	}, nil); err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}

	ref2, err := b.AddComponent(false)
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := b.UpdateComponent(context.Background(), ref2, core.ComponentPatch{
		Quantity: strPtr("2"),
		UnitCost: strPtr("12.85"),
	}, nil); err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}
	return b
}

func strPtr(s string) *string { return &s }

func TestRollUp(t *testing.T) {
	b := buildCostedBOM(t)

	// 95.25 + 12.85 × 2 = 120.95
	if !b.MaterialCost.Equal(decimal.RequireFromString("120.95")) {
		t.Errorf("expected material 120.95, got %s", b.MaterialCost)
	}

	if err := b.SetLaborCost("45"); err != nil {
		t.Fatalf("SetLaborCost: %v", err)
	}
	if err := b.SetOverheadCost("28.5"); err != nil {
		t.Fatalf("SetOverheadCost: %v", err)
	}

	// 120.95 + 45 + 28.5 = 194.45
	if !b.TotalCost.Equal(decimal.RequireFromString("194.45")) {
		t.Errorf("expected total 194.45, got %s", b.TotalCost)
	}
}

func TestRollUp_Idempotent(t *testing.T) {
	b := buildCostedBOM(t)
	if err := b.SetLaborCost("45"); err != nil {
		t.Fatal(err)
	}

	before := b.TotalCost
	b.Recalculate()
	b.Recalculate()
	if !b.TotalCost.Equal(before) {
		t.Errorf("repeated roll-up drifted: %s -> %s", before, b.TotalCost)
	}
	if !b.MaterialCost.Equal(decimal.RequireFromString("120.95")) {
		t.Errorf("material drifted to %s", b.MaterialCost)
	}
}

func TestRollUp_SubComponentsAreReferenceOnly(t *testing.T) {
	b := buildCostedBOM(t)

	asmRef, err := b.AddComponent(true)
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := b.UpdateComponent(context.Background(), asmRef, core.ComponentPatch{
		UnitCost: strPtr("50"),
	}, nil); err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}
	childRef, err := b.AddSubComponent(asmRef)
	if err != nil {
		t.Fatalf("AddSubComponent: %v", err)
	}
	if err := b.UpdateComponent(context.Background(), childRef, core.ComponentPatch{
		UnitCost: strPtr("999"),
	}, nil); err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}

	// The child's 999 must not enter the sum: only the assembly's own row does.
	// 120.95 + 50 = 170.95
	if !b.MaterialCost.Equal(decimal.RequireFromString("170.95")) {
		t.Errorf("expected material 170.95, got %s", b.MaterialCost)
	}
}

func TestMaterialCostOverride(t *testing.T) {
	b := buildCostedBOM(t)

	if err := b.SetMaterialCostOverride("200"); err != nil {
		t.Fatalf("SetMaterialCostOverride: %v", err)
	}
	if !b.MaterialCost.Equal(decimal.RequireFromString("200")) {
		t.Errorf("override not applied, material = %s", b.MaterialCost)
	}

	// The override is sticky: component edits do not dislodge it.
	ref, err := b.AddComponent(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateComponent(context.Background(), ref, core.ComponentPatch{UnitCost: strPtr("10")}, nil); err != nil {
		t.Fatal(err)
	}
	if !b.MaterialCost.Equal(decimal.RequireFromString("200")) {
		t.Errorf("override lost after edit, material = %s", b.MaterialCost)
	}

	if err := b.ClearMaterialCostOverride(); err != nil {
		t.Fatalf("ClearMaterialCostOverride: %v", err)
	}
	// 120.95 + 10 = 130.95 once the computed sum is back in charge.
	if !b.MaterialCost.Equal(decimal.RequireFromString("130.95")) {
		t.Errorf("expected computed 130.95 after clear, got %s", b.MaterialCost)
	}
}
