package repl

import (
	"fmt"
	"strings"

	"bom-engine/internal/app"
	"bom-engine/internal/core"
)

func printBOMList(result *app.BOMListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 84))
	fmt.Printf("  BILLS OF MATERIALS — Company %s\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 84))
	if len(result.BOMs) == 0 {
		fmt.Println("  No BOMs found.")
		fmt.Println(strings.Repeat("=", 84))
		return
	}
	fmt.Printf("  %-5s %-18s %-26s %-5s %-13s %12s\n", "ID", "NUMBER", "NAME", "REV", "STATUS", "TOTAL")
	fmt.Println(strings.Repeat("-", 84))
	for _, b := range result.BOMs {
		fmt.Printf("  %-5d %-18s %-26s %-5s %-13s %12s\n",
			b.ID, b.BOMNumber, clip(b.Name, 26), b.Revision, b.Status, b.TotalCost.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 84))
}

func printBOMDetail(b *core.BillOfMaterials) {
	fmt.Println()
	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("  BOM:       %s (ID: %d)\n", b.BOMNumber, b.ID)
	fmt.Printf("  Name:      %s\n", b.Name)
	fmt.Printf("  Product:   %s\n", b.ProdSKU)
	fmt.Printf("  Revision:  %s\n", b.Revision)
	fmt.Printf("  Status:    %s\n", b.Status)
	fmt.Printf("  Version:   %d\n", b.Version)
	if b.ApprovedBy != nil {
		fmt.Printf("  Approved:  %s (%s)\n", *b.ApprovedBy, b.ApprovedAt.Format("2006-01-02"))
	}
	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("  %-5s %-14s %-26s %10s %12s %12s\n", "REF", "SKU", "NAME", "QTY", "UNIT COST", "EXTENDED")
	fmt.Println(strings.Repeat("-", 84))
	for _, c := range b.Components {
		fmt.Printf("  %-5d %-14s %-26s %10s %12s %12s\n",
			c.Ref, c.ItemSKU, clip(c.DisplayName(), 26),
			c.Quantity.String(), c.UnitCost.StringFixed(2), c.ExtendedCost().StringFixed(2))
		if c.IsAssembly && c.ChildBOM != "" {
			fmt.Printf("          child BOM: %s\n", c.ChildBOM)
		}
		for _, ch := range c.Children {
			fmt.Printf("  %-5d   └ %-12s %-24s %10s %12s\n",
				ch.Ref, ch.ItemSKU, clip(ch.DisplayName(), 24), ch.Quantity.String(), ch.UnitCost.StringFixed(2))
		}
		for i, alt := range b.Alternatives[c.Ref] {
			fmt.Printf("        alt %d: %-14s %-22s @ %s\n",
				i, alt.ItemSKU, clip(alt.ItemName, 22), alt.Cost.StringFixed(2))
		}
	}
	fmt.Println(strings.Repeat("-", 84))
	material := b.MaterialCost.StringFixed(2)
	if b.MaterialCostOverride != nil {
		material += " (override)"
	}
	fmt.Printf("  Material %s  Labor %s  Overhead %s  TOTAL %s %s\n",
		material, b.LaborCost.StringFixed(2), b.OverheadCost.StringFixed(2),
		b.TotalCost.StringFixed(2), b.Currency)
	if len(b.RevisionHistory) > 0 {
		fmt.Println(strings.Repeat("-", 84))
		fmt.Println("  REVISION HISTORY")
		for _, e := range b.RevisionHistory {
			fmt.Printf("  rev %-5s %s  %s — %s\n",
				e.Revision, e.RevisedAt.Format("2006-01-02"), e.RevisedBy, e.Notes)
		}
	}
	fmt.Println(strings.Repeat("-", 84))
}

func printBreakdown(cb *core.CostBreakdown) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 76))
	fmt.Printf("  COST BREAKDOWN — %s rev %s (%s)\n", cb.BOMNumber, cb.Revision, cb.Currency)
	fmt.Println(strings.Repeat("=", 76))
	if len(cb.Lines) == 0 {
		fmt.Println("  No components.")
		fmt.Println(strings.Repeat("=", 76))
		return
	}
	fmt.Printf("  %-5s %-14s %-24s %12s %8s\n", "REF", "SKU", "NAME", "EXTENDED", "SHARE")
	fmt.Println(strings.Repeat("-", 76))
	for _, l := range cb.Lines {
		fmt.Printf("  %-5d %-14s %-24s %12s %7s%%\n",
			l.Ref, l.ItemSKU, clip(l.ItemName, 24), l.ExtendedCost.StringFixed(2), l.SharePercent.StringFixed(1))
	}
	fmt.Println(strings.Repeat("-", 76))
	override := ""
	if cb.Overridden {
		override = " (override)"
	}
	fmt.Printf("  Material%s %s  Labor %s  Overhead %s  TOTAL %s\n",
		override, cb.MaterialCost.StringFixed(2), cb.LaborCost.StringFixed(2),
		cb.OverheadCost.StringFixed(2), cb.TotalCost.StringFixed(2))
	fmt.Println(strings.Repeat("=", 76))
}

func printItemList(result *app.ItemListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("  ITEM MASTER — Company %s\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 80))
	if len(result.Items) == 0 {
		fmt.Println("  No items found.")
		fmt.Println(strings.Repeat("=", 80))
		return
	}
	fmt.Printf("  %-14s %-28s %-20s %10s %10s\n", "SKU", "NAME", "CATEGORY", "COST", "AVAIL")
	fmt.Println(strings.Repeat("-", 80))
	for _, it := range result.Items {
		fmt.Printf("  %-14s %-28s %-20s %10s %10s\n",
			it.SKU, clip(it.Name, 28), it.Category, it.UnitCost.StringFixed(2), it.QtyAvailable().String())
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printWhereUsedList(result *app.WhereUsedResult) {
	fmt.Println()
	fmt.Printf("  WHERE USED — %s\n", result.SKU)
	fmt.Println(strings.Repeat("-", 70))
	if len(result.Entries) == 0 {
		fmt.Println("  (not referenced by any BOM)")
		return
	}
	for _, e := range result.Entries {
		role := "component"
		if e.AsAlternative {
			role = "alternative"
		}
		fmt.Printf("  %-18s rev %-5s %-13s %-11s qty %s\n",
			e.BOMNumber, e.Revision, e.Status, role, e.Quantity.String())
	}
}

func printECOList(result *app.ECOListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("  ENGINEERING CHANGE ORDERS — Company %s\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 80))
	if len(result.ECOs) == 0 {
		fmt.Println("  No ECOs found.")
		fmt.Println(strings.Repeat("=", 80))
		return
	}
	fmt.Printf("  %-5s %-16s %-8s %-40s\n", "ID", "NUMBER", "STATUS", "SUMMARY")
	fmt.Println(strings.Repeat("-", 80))
	for _, e := range result.ECOs {
		number := e.ECONumber
		if number == "" {
			number = "(draft)"
		}
		fmt.Printf("  %-5d %-16s %-8s %-40s\n", e.ID, number, e.Status, clip(e.Summary, 40))
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printChangeProposal(p *core.ChangeProposal) {
	fmt.Printf("\nSUMMARY:    %s\n", p.Summary)
	fmt.Printf("BOM:        %s (company %s)\n", p.BOMNumber, p.CompanyCode)
	fmt.Printf("REASONING:  %s\n", p.Reasoning)
	fmt.Printf("CONFIDENCE: %.2f\n", p.Confidence)
	fmt.Println("STEPS:")
	for i, s := range p.Steps {
		detail := ""
		if s.ItemSKU != "" {
			detail += " sku=" + s.ItemSKU
		}
		if s.Quantity != "" {
			detail += " qty=" + s.Quantity
		}
		if s.UnitCost != "" {
			detail += " cost=" + s.UnitCost
		}
		if s.ChildBOM != "" {
			detail += " child=" + s.ChildBOM
		}
		if s.Ref > 0 {
			detail = fmt.Sprintf(" ref=%d%s", s.Ref, detail)
		}
		fmt.Printf("  %d. %s%s\n", i+1, s.Action, detail)
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("BOM ENGINE — COMMANDS")
	fmt.Println(strings.Repeat("=", 66))
	fmt.Println()
	fmt.Println("  BOMS")
	fmt.Println("  /boms [status]                   List BOMs (DRAFT, UNDER_REVIEW, RELEASED, OBSOLETE)")
	fmt.Println("  /new                             Create a BOM (interactive)")
	fmt.Println("  /open <bom-ref>                  Open a BOM by ID or number")
	fmt.Println("  /show                            Show the open BOM")
	fmt.Println("  /cost                            Cost breakdown for the open BOM")
	fmt.Println()
	fmt.Println("  STRUCTURE  (open BOM, DRAFT or UNDER_REVIEW only)")
	fmt.Println("  /add                             Add a component row")
	fmt.Println("  /addasm                          Add a sub-assembly row")
	fmt.Println("  /addsub <ref>                    Add a child row under an assembly")
	fmt.Println("  /set <ref> <field> <value>       Set sku, qty, cost, unit or child")
	fmt.Println("  /alt <ref> <sku> <cost> [notes]  Add an alternative component")
	fmt.Println("  /rm <ref>[.idx]                  Remove a component, or an alternative by index")
	fmt.Println("  /labor <amount>                  Set labor cost")
	fmt.Println("  /overhead <amount>               Set overhead cost")
	fmt.Println()
	fmt.Println("  LIFECYCLE")
	fmt.Println("  /submit                          DRAFT → UNDER_REVIEW")
	fmt.Println("  /release                         UNDER_REVIEW → RELEASED")
	fmt.Println("  /obsolete                        RELEASED → OBSOLETE")
	fmt.Println("  /revise [notes]                  Bump revision, reopen as DRAFT, raise ECO")
	fmt.Println("  /ecos                            List engineering change orders")
	fmt.Println()
	fmt.Println("  ITEMS")
	fmt.Println("  /items                           List item master")
	fmt.Println("  /receive <sku> <qty> <cost>      Receive stock (weighted-average cost)")
	fmt.Println("  /wu <sku>                        Where-used lookup")
	fmt.Println()
	fmt.Println("  SESSION")
	fmt.Println("  /help                            Show this help")
	fmt.Println("  /exit                            Exit")
	fmt.Println()
	fmt.Println("  AGENT MODE  (no / prefix, BOM open)")
	fmt.Println("  Describe the change in natural language.")
	fmt.Println("  Example: \"double the steel bracket quantity and add a fastener at 0.12\"")
	fmt.Println(strings.Repeat("=", 66))
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
