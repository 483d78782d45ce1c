package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoerceQuantity parses a quantity from free-form input. Anything that fails
// to parse, or parses non-positive, becomes 1. Quantities are never rejected
// at this boundary.
func CoerceQuantity(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return d
}

// CoerceCost parses a monetary amount from free-form input. Anything that
// fails to parse, or parses negative, becomes 0.
func CoerceCost(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ComputedMaterialCost is the sum of unit cost times quantity over the
// top-level components. Nested sub-component rows are reference detail; a
// sub-assembly's cost enters through its own row's unit cost.
func (b *BillOfMaterials) ComputedMaterialCost() decimal.Decimal {
	sum := decimal.Zero
	for i := range b.Components {
		c := &b.Components[i]
		sum = sum.Add(c.UnitCost.Mul(c.Quantity))
	}
	return sum
}

// Recalculate re-derives the cost roll-up from current state. It is
// idempotent: running it twice in a row changes nothing. An active material
// override wins over the computed sum.
func (b *BillOfMaterials) Recalculate() {
	if b.MaterialCostOverride != nil {
		b.MaterialCost = *b.MaterialCostOverride
	} else {
		b.MaterialCost = b.ComputedMaterialCost()
	}
	b.TotalCost = b.MaterialCost.Add(b.LaborCost).Add(b.OverheadCost)
}

// ExtendedCost is the line total for one component row.
func (c Component) ExtendedCost() decimal.Decimal {
	return c.UnitCost.Mul(c.Quantity)
}
