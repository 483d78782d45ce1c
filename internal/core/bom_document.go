package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ComponentPatch carries the fields of a component update. Nil pointers leave
// the current value untouched. Setting ItemSKU triggers item-master
// resolution; setting ChildBOM re-links a sub-assembly row.
type ComponentPatch struct {
	ItemSKU  *string
	Quantity *string
	UnitCost *string
	Unit     *string
	ChildBOM *string
}

// Editable reports whether structural or cost mutations are allowed in the
// document's current status.
func (b *BillOfMaterials) Editable() bool {
	return b.Status == BOMStatusDraft || b.Status == BOMStatusUnderReview
}

func (b *BillOfMaterials) guardEditable() error {
	if !b.Editable() {
		return ErrReleased
	}
	return nil
}

// takeRef hands out the next component identity. Refs are monotonic and never
// reused within a document.
func (b *BillOfMaterials) takeRef() int {
	if b.nextRef < 1 {
		b.nextRef = b.maxRef() + 1
	}
	ref := b.nextRef
	b.nextRef++
	return ref
}

func (b *BillOfMaterials) maxRef() int {
	max := 0
	b.walk(func(c *Component) {
		if c.Ref > max {
			max = c.Ref
		}
	})
	return max
}

// walk visits every component in document order, parents before children.
func (b *BillOfMaterials) walk(fn func(c *Component)) {
	for i := range b.Components {
		fn(&b.Components[i])
		for j := range b.Components[i].Children {
			fn(&b.Components[i].Children[j])
		}
	}
}

// FindComponent returns the component with the given ref, or nil.
func (b *BillOfMaterials) FindComponent(ref int) *Component {
	var found *Component
	b.walk(func(c *Component) {
		if c.Ref == ref {
			found = c
		}
	})
	return found
}

// AddComponent appends a blank top-level row and returns its ref. The row
// starts at quantity 1, zero cost, unit "pieces".
func (b *BillOfMaterials) AddComponent(isAssembly bool) (int, error) {
	if err := b.guardEditable(); err != nil {
		return 0, err
	}
	ref := b.takeRef()
	b.Components = append(b.Components, Component{
		Ref:        ref,
		Unit:       "pieces",
		Quantity:   decimal.NewFromInt(1),
		IsAssembly: isAssembly,
		Level:      0,
	})
	b.Recalculate()
	return ref, nil
}

// AddSubComponent appends a blank child row under the sub-assembly with the
// given ref. Only sub-assembly rows accept children.
func (b *BillOfMaterials) AddSubComponent(parentRef int) (int, error) {
	if err := b.guardEditable(); err != nil {
		return 0, err
	}
	var parent *Component
	for i := range b.Components {
		if b.Components[i].Ref == parentRef {
			parent = &b.Components[i]
			break
		}
	}
	if parent == nil {
		return 0, fmt.Errorf("component %d: %w", parentRef, ErrInvalidParent)
	}
	if !parent.IsAssembly {
		return 0, fmt.Errorf("component %d: %w", parentRef, ErrInvalidParent)
	}
	ref := b.takeRef()
	parent.Children = append(parent.Children, Component{
		Ref:      ref,
		Unit:     "pieces",
		Quantity: decimal.NewFromInt(1),
		Level:    parent.Level + 1,
	})
	b.Recalculate()
	return ref, nil
}

// UpdateComponent applies a patch to the component with the given ref. A SKU
// change resolves the item master through the resolver: a hit copies name,
// unit, category, cost and availability onto the row; a miss leaves the row's
// SKU set and the rest untouched. Quantity and cost strings are coerced, not
// rejected. The roll-up runs before returning.
func (b *BillOfMaterials) UpdateComponent(ctx context.Context, ref int, patch ComponentPatch, resolver ItemResolver) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	comp := b.FindComponent(ref)
	if comp == nil {
		return fmt.Errorf("component %d not found", ref)
	}
	if patch.ItemSKU != nil {
		comp.ItemSKU = *patch.ItemSKU
		if resolver != nil && comp.ItemSKU != "" {
			info, err := resolver.Resolve(ctx, b.CompanyID, comp.ItemSKU)
			if err != nil {
				return fmt.Errorf("resolve item %q: %w", comp.ItemSKU, err)
			}
			if info != nil {
				comp.ItemName = info.Name
				comp.Unit = info.Unit
				comp.Category = info.Category
				comp.UnitCost = info.UnitCost
				comp.QtyAvailable = info.QtyAvailable
			}
		}
	}
	if patch.Quantity != nil {
		comp.Quantity = CoerceQuantity(*patch.Quantity)
	}
	if patch.UnitCost != nil {
		comp.UnitCost = CoerceCost(*patch.UnitCost)
	}
	if patch.Unit != nil {
		comp.Unit = *patch.Unit
	}
	if patch.ChildBOM != nil {
		if !comp.IsAssembly {
			return fmt.Errorf("component %d: %w", ref, ErrInvalidParent)
		}
		if *patch.ChildBOM == b.BOMNumber {
			return fmt.Errorf("%s cannot contain itself: %w", b.BOMNumber, ErrCyclicReference)
		}
		comp.ChildBOM = *patch.ChildBOM
	}
	b.Recalculate()
	return nil
}

// RemoveComponent deletes the row with the given ref, wherever it sits in the
// tree. Removing an original also drops its alternative group.
func (b *BillOfMaterials) RemoveComponent(ref int) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	removed := false
	for i := range b.Components {
		if b.Components[i].Ref == ref {
			b.Components = append(b.Components[:i], b.Components[i+1:]...)
			removed = true
			break
		}
		kids := b.Components[i].Children
		for j := range kids {
			if kids[j].Ref == ref {
				b.Components[i].Children = append(kids[:j], kids[j+1:]...)
				removed = true
				break
			}
		}
		if removed {
			break
		}
	}
	if !removed {
		return fmt.Errorf("component %d not found", ref)
	}
	delete(b.Alternatives, ref)
	b.Recalculate()
	return nil
}

// AddAlternative appends a blank substitute to the group of the given
// original component.
func (b *BillOfMaterials) AddAlternative(ref int) (int, error) {
	if err := b.guardEditable(); err != nil {
		return 0, err
	}
	if b.FindComponent(ref) == nil {
		return 0, fmt.Errorf("component %d not found", ref)
	}
	if b.Alternatives == nil {
		b.Alternatives = make(map[int][]AlternativeComponent)
	}
	b.Alternatives[ref] = append(b.Alternatives[ref], AlternativeComponent{})
	return len(b.Alternatives[ref]) - 1, nil
}

// UpdateAlternative patches one substitute in a group. A SKU change resolves
// the item master the same soft way component updates do; an alternative only
// carries its own cost, never a quantity.
func (b *BillOfMaterials) UpdateAlternative(ctx context.Context, ref, idx int, sku, cost, notes *string, resolver ItemResolver) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	group, ok := b.Alternatives[ref]
	if !ok || idx < 0 || idx >= len(group) {
		return fmt.Errorf("alternative %d/%d not found", ref, idx)
	}
	alt := &group[idx]
	if sku != nil {
		alt.ItemSKU = *sku
		if resolver != nil && alt.ItemSKU != "" {
			info, err := resolver.Resolve(ctx, b.CompanyID, alt.ItemSKU)
			if err != nil {
				return fmt.Errorf("resolve item %q: %w", alt.ItemSKU, err)
			}
			if info != nil {
				alt.ItemName = info.Name
				alt.Cost = info.UnitCost
			}
		}
	}
	if cost != nil {
		alt.Cost = CoerceCost(*cost)
	}
	if notes != nil {
		alt.Notes = *notes
	}
	return nil
}

// RemoveAlternative deletes one substitute. A group that ends up empty is
// dropped from the map entirely.
func (b *BillOfMaterials) RemoveAlternative(ref, idx int) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	group, ok := b.Alternatives[ref]
	if !ok || idx < 0 || idx >= len(group) {
		return fmt.Errorf("alternative %d/%d not found", ref, idx)
	}
	group = append(group[:idx], group[idx+1:]...)
	if len(group) == 0 {
		delete(b.Alternatives, ref)
	} else {
		b.Alternatives[ref] = group
	}
	return nil
}

// SetLaborCost sets the document-level labor figure and re-runs the roll-up.
func (b *BillOfMaterials) SetLaborCost(raw string) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	b.LaborCost = CoerceCost(raw)
	b.Recalculate()
	return nil
}

// SetOverheadCost sets the document-level overhead figure and re-runs the
// roll-up.
func (b *BillOfMaterials) SetOverheadCost(raw string) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	b.OverheadCost = CoerceCost(raw)
	b.Recalculate()
	return nil
}

// SetMaterialCostOverride pins the material figure to an explicit value. The
// override survives later component edits until cleared.
func (b *BillOfMaterials) SetMaterialCostOverride(raw string) error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	v := CoerceCost(raw)
	b.MaterialCostOverride = &v
	b.Recalculate()
	return nil
}

// ClearMaterialCostOverride returns the material figure to the computed sum.
func (b *BillOfMaterials) ClearMaterialCostOverride() error {
	if err := b.guardEditable(); err != nil {
		return err
	}
	b.MaterialCostOverride = nil
	b.Recalculate()
	return nil
}

// Touch stamps the modification time. Services call it before saving.
func (b *BillOfMaterials) Touch(now time.Time) {
	b.UpdatedAt = now
}

// NextComponentRef exposes the ref counter for persistence.
func (b *BillOfMaterials) NextComponentRef() int {
	if b.nextRef < 1 {
		return b.maxRef() + 1
	}
	return b.nextRef
}

// SetNextComponentRef restores the ref counter when loading from storage.
func (b *BillOfMaterials) SetNextComponentRef(n int) {
	b.nextRef = n
}
