package core_test

import (
	"testing"

	"bom-engine/internal/core"
)

func TestChangeProposal_Normalize(t *testing.T) {
	p := core.ChangeProposal{
		CompanyCode: " 1000 ",
		BOMNumber:   " bom-2026-000123 ",
		Steps: []core.ChangeStep{
			{Action: " Update_Component ", Ref: 1, ItemSKU: "rm-stl-001", Quantity: "null", UnitCost: "NULL"},
		},
	}

	p.Normalize()

	if p.CompanyCode != "1000" || p.BOMNumber != "BOM-2026-000123" {
		t.Errorf("header not normalized: %q %q", p.CompanyCode, p.BOMNumber)
	}
	step := p.Steps[0]
	if step.Action != "update_component" {
		t.Errorf("action not normalized: %q", step.Action)
	}
	if step.ItemSKU != "RM-STL-001" {
		t.Errorf("SKU not uppercased: %q", step.ItemSKU)
	}
	if step.Quantity != "" || step.UnitCost != "" {
		t.Errorf("literal null not blanked: qty=%q cost=%q", step.Quantity, step.UnitCost)
	}
}

func TestChangeProposal_Validate(t *testing.T) {
	valid := func() core.ChangeProposal {
		return core.ChangeProposal{
			CompanyCode: "1000",
			BOMNumber:   "BOM-2026-000123",
			Steps: []core.ChangeStep{
				{Action: "add_component", ItemSKU: "RM-STL-001", Quantity: "2", UnitCost: "95.25"},
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(p *core.ChangeProposal)
		expectErr bool
	}{
		{"happy path", func(p *core.ChangeProposal) {}, false},
		{"missing company", func(p *core.ChangeProposal) { p.CompanyCode = "" }, true},
		{"missing bom number", func(p *core.ChangeProposal) { p.BOMNumber = "" }, true},
		{"no steps", func(p *core.ChangeProposal) { p.Steps = nil }, true},
		{"unknown action", func(p *core.ChangeProposal) { p.Steps[0].Action = "delete_everything" }, true},
		{"update without ref", func(p *core.ChangeProposal) {
			p.Steps[0] = core.ChangeStep{Action: "update_component", Quantity: "3"}
		}, true},
		{"remove without ref", func(p *core.ChangeProposal) {
			p.Steps[0] = core.ChangeStep{Action: "remove_component"}
		}, true},
		{"alternative without ref", func(p *core.ChangeProposal) {
			p.Steps[0] = core.ChangeStep{Action: "add_alternative", ItemSKU: "PC-BRG-010"}
		}, true},
		{"labor without amount", func(p *core.ChangeProposal) {
			p.Steps[0] = core.ChangeStep{Action: "set_labor_cost"}
		}, true},
		{"labor with amount", func(p *core.ChangeProposal) {
			p.Steps[0] = core.ChangeStep{Action: "set_labor_cost", UnitCost: "45"}
		}, false},
		{"revision step needs nothing extra", func(p *core.ChangeProposal) {
			p.Steps[0] = core.ChangeStep{Action: "create_revision", Notes: "tolerance change"}
		}, false},
		// Bad numbers pass validation: they are coerced at apply time,
		// the same as manual edits.
		{"garbage quantity", func(p *core.ChangeProposal) { p.Steps[0].Quantity = "a lot" }, false},
		{"negative cost", func(p *core.ChangeProposal) { p.Steps[0].UnitCost = "-4" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
