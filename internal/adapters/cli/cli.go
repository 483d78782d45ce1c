package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"bom-engine/internal/app"
	"bom-engine/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}

	switch args[0] {
	case "boms", "list":
		status := ""
		if len(args) > 1 {
			status = strings.ToUpper(args[1])
		}
		result, err := svc.ListBOMs(ctx, company.CompanyCode, status)
		if err != nil {
			log.Fatalf("Failed to list BOMs: %v", err)
		}
		printBOMList(result)

	case "show", "bom":
		if len(args) < 2 {
			log.Fatal("Usage: app show <bom-id|bom-number>")
		}
		result, err := svc.GetBOM(ctx, args[1], company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get BOM: %v", err)
		}
		printBOM(result.BOM)

	case "cost", "breakdown":
		if len(args) < 2 {
			log.Fatal("Usage: app cost <bom-id|bom-number>")
		}
		breakdown, err := svc.GetCostBreakdown(ctx, args[1], company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to get cost breakdown: %v", err)
		}
		printCostBreakdown(breakdown)

	case "items":
		result, err := svc.ListItems(ctx, company.CompanyCode)
		if err != nil {
			log.Fatalf("Failed to list items: %v", err)
		}
		printItems(result)

	case "where-used", "wu":
		if len(args) < 2 {
			log.Fatal("Usage: app where-used <sku>")
		}
		result, err := svc.WhereUsed(ctx, company.CompanyCode, args[1])
		if err != nil {
			log.Fatalf("Failed to run where-used: %v", err)
		}
		printWhereUsed(result)

	case "propose", "prop", "p":
		if len(args) < 3 {
			log.Fatal("Usage: app propose <bom-id|bom-number> \"<change description>\"")
		}
		result, err := svc.InterpretChange(ctx, args[2], args[1], company.CompanyCode)
		if err != nil {
			log.Fatalf("Agent error: %v", err)
		}
		if result.IsClarification {
			fmt.Fprintln(os.Stderr, "AI needs clarification:", result.ClarificationMessage)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result.Proposal)

	case "apply", "a":
		var proposal core.ChangeProposal
		if err := json.NewDecoder(os.Stdin).Decode(&proposal); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		if proposal.CompanyCode == "" {
			proposal.CompanyCode = company.CompanyCode
		}
		result, err := svc.ApplyChangeProposal(ctx, proposal)
		if err != nil {
			log.Fatalf("Apply failed: %v", err)
		}
		fmt.Printf("Applied. %s is now revision %s, total cost %s %s.\n",
			result.BOM.BOMNumber, result.BOM.Revision, result.BOM.TotalCost.StringFixed(2), result.BOM.Currency)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: boms, show, cost, items, where-used, propose, apply", args[0])
	}
}

func printBOMList(result *app.BOMListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 84))
	fmt.Printf("  BILLS OF MATERIALS — company %s\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 84))
	fmt.Printf("  %-5s %-18s %-24s %-5s %-13s %12s\n", "ID", "NUMBER", "NAME", "REV", "STATUS", "TOTAL")
	fmt.Println(strings.Repeat("-", 84))
	for _, b := range result.BOMs {
		fmt.Printf("  %-5d %-18s %-24s %-5s %-13s %12s\n",
			b.ID, b.BOMNumber, truncate(b.Name, 24), b.Revision, b.Status, b.TotalCost.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 84))
}

func printBOM(b *core.BillOfMaterials) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 84))
	fmt.Printf("  %s — %s (rev %s, %s)\n", b.BOMNumber, b.Name, b.Revision, b.Status)
	fmt.Println(strings.Repeat("=", 84))
	fmt.Printf("  %-5s %-14s %-26s %10s %12s %12s\n", "REF", "SKU", "NAME", "QTY", "UNIT COST", "EXTENDED")
	fmt.Println(strings.Repeat("-", 84))
	for _, c := range b.Components {
		fmt.Printf("  %-5d %-14s %-26s %10s %12s %12s\n",
			c.Ref, c.ItemSKU, truncate(c.DisplayName(), 26),
			c.Quantity.String(), c.UnitCost.StringFixed(2), c.ExtendedCost().StringFixed(2))
		for _, ch := range c.Children {
			fmt.Printf("  %-5d   └ %-12s %-24s %10s %12s\n",
				ch.Ref, ch.ItemSKU, truncate(ch.DisplayName(), 24), ch.Quantity.String(), ch.UnitCost.StringFixed(2))
		}
		for i, alt := range b.Alternatives[c.Ref] {
			fmt.Printf("        alt %d: %-14s %-22s @ %s\n", i, alt.ItemSKU, truncate(alt.ItemName, 22), alt.Cost.StringFixed(2))
		}
	}
	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("  Material %s  Labor %s  Overhead %s  TOTAL %s %s\n",
		b.MaterialCost.StringFixed(2), b.LaborCost.StringFixed(2), b.OverheadCost.StringFixed(2),
		b.TotalCost.StringFixed(2), b.Currency)
	if len(b.RevisionHistory) > 0 {
		fmt.Println(strings.Repeat("-", 84))
		for _, e := range b.RevisionHistory {
			fmt.Printf("  rev %-5s %s  %s — %s\n", e.Revision, e.RevisedAt.Format("2006-01-02"), e.RevisedBy, e.Notes)
		}
	}
	fmt.Println(strings.Repeat("=", 84))
}

func printCostBreakdown(cb *core.CostBreakdown) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 76))
	fmt.Printf("  COST BREAKDOWN — %s rev %s (%s)\n", cb.BOMNumber, cb.Revision, cb.Currency)
	fmt.Println(strings.Repeat("=", 76))
	fmt.Printf("  %-5s %-14s %-24s %12s %8s\n", "REF", "SKU", "NAME", "EXTENDED", "SHARE")
	fmt.Println(strings.Repeat("-", 76))
	for _, l := range cb.Lines {
		fmt.Printf("  %-5d %-14s %-24s %12s %7s%%\n",
			l.Ref, l.ItemSKU, truncate(l.ItemName, 24), l.ExtendedCost.StringFixed(2), l.SharePercent.StringFixed(1))
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

func printItems(result *app.ItemListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("  ITEM MASTER — company %s\n", result.CompanyCode)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("  %-14s %-28s %-20s %10s %10s\n", "SKU", "NAME", "CATEGORY", "COST", "AVAIL")
	fmt.Println(strings.Repeat("-", 80))
	for _, it := range result.Items {
		fmt.Printf("  %-14s %-28s %-20s %10s %10s\n",
			it.SKU, truncate(it.Name, 28), it.Category, it.UnitCost.StringFixed(2), it.QtyAvailable().String())
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printWhereUsed(result *app.WhereUsedResult) {
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

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
