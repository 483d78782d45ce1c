package core

import (
	"errors"
	"fmt"
	"strings"
)

// changeActions is the closed set of step actions the engine can apply.
var changeActions = map[string]bool{
	"add_component":     true,
	"add_sub_assembly":  true,
	"update_component":  true,
	"remove_component":  true,
	"add_alternative":   true,
	"set_labor_cost":    true,
	"set_overhead_cost": true,
	"create_revision":   true,
}

// Normalize cleans up user input (LLM output) dealing with common formatting issues.
func (p *ChangeProposal) Normalize() {
	p.CompanyCode = strings.TrimSpace(p.CompanyCode)
	p.BOMNumber = strings.ToUpper(strings.TrimSpace(p.BOMNumber))

	for i := range p.Steps {
		step := &p.Steps[i]
		step.Action = strings.ToLower(strings.TrimSpace(step.Action))
		step.ItemSKU = strings.ToUpper(strings.TrimSpace(step.ItemSKU))
		step.ChildBOM = strings.ToUpper(strings.TrimSpace(step.ChildBOM))

		// Models sometimes emit literal "null" for fields they mean to omit.
		if strings.ToLower(strings.TrimSpace(step.Quantity)) == "null" {
			step.Quantity = ""
		}
		if strings.ToLower(strings.TrimSpace(step.UnitCost)) == "null" {
			step.UnitCost = ""
		}
	}
}

// Validate enforces the structural rules on a proposal before any step is
// applied. Numeric field values are not validated here: quantities and costs
// go through the same coercion as manual edits.
func (p *ChangeProposal) Validate() error {
	if p.CompanyCode == "" {
		return errors.New("change proposal must specify a company code")
	}
	if p.BOMNumber == "" {
		return errors.New("change proposal must specify a BOM number")
	}
	if len(p.Steps) == 0 {
		return errors.New("change proposal must have at least one step")
	}

	for i, step := range p.Steps {
		if !changeActions[step.Action] {
			return fmt.Errorf("step %d: unknown action %q", i+1, step.Action)
		}
		switch step.Action {
		case "update_component", "remove_component", "add_alternative":
			if step.Ref <= 0 {
				return fmt.Errorf("step %d: action %s requires a component ref", i+1, step.Action)
			}
		case "set_labor_cost", "set_overhead_cost":
			if strings.TrimSpace(step.UnitCost) == "" {
				return fmt.Errorf("step %d: action %s requires unit_cost", i+1, step.Action)
			}
		}
	}
	return nil
}
