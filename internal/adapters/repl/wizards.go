package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"bom-engine/internal/app"

	"github.com/shopspring/decimal"
)

// handleNewBOM runs an interactive BOM creation session.
// Returns the new BOM number, or empty string if cancelled.
func handleNewBOM(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService, companyCode string) (string, error) {
	fmt.Println("Creating a new bill of materials. Leave name blank to cancel.")

	fmt.Print("  Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Cancelled.")
		return "", nil
	}

	fmt.Print("  Product SKU (optional): ")
	productSKU, _ := reader.ReadString('\n')
	productSKU = strings.ToUpper(strings.TrimSpace(productSKU))

	result, err := svc.CreateBOM(ctx, app.CreateBOMRequest{
		CompanyCode: companyCode,
		Name:        name,
		ProductSKU:  productSKU,
		CreatedBy:   "repl",
	})
	if err != nil {
		return "", err
	}

	fmt.Printf("\nCreated %s (rev %s, DRAFT). It is now the open BOM.\n", result.BOM.BOMNumber, result.BOM.Revision)
	fmt.Println("Use /add to add component rows, or describe the structure in plain language.")
	return result.BOM.BOMNumber, nil
}

// handleSetField applies /set <ref> <field> <value> to the open BOM.
// Unknown numeric values pass through as typed; the engine coerces them.
func handleSetField(ctx context.Context, svc app.ApplicationService, companyCode, bomRef string, args []string) error {
	ref, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid component ref: %s\n", args[0])
		return nil
	}
	field := strings.ToLower(args[1])
	value := strings.Join(args[2:], " ")

	req := app.UpdateComponentRequest{
		CompanyCode: companyCode,
		BOMRef:      bomRef,
		Ref:         ref,
	}
	switch field {
	case "sku", "item":
		upper := strings.ToUpper(value)
		req.ItemSKU = &upper
	case "qty", "quantity":
		req.Quantity = &value
	case "cost", "unitcost", "price":
		req.UnitCost = &value
	case "unit", "uom":
		req.Unit = &value
	case "child", "childbom":
		req.ChildBOM = &value
	default:
		fmt.Printf("Unknown field: %s (use sku, qty, cost, unit or child)\n", field)
		return nil
	}

	result, err := svc.UpdateComponent(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Updated ref %d. Total cost is now %s %s.\n",
		ref, result.BOM.TotalCost.StringFixed(2), result.BOM.Currency)
	return nil
}

// handleRemove applies /rm <ref> or /rm <ref>.<idx> (alternative) to the open BOM.
func handleRemove(ctx context.Context, svc app.ApplicationService, companyCode, bomRef, target string) error {
	if refPart, idxPart, found := strings.Cut(target, "."); found {
		ref, err1 := strconv.Atoi(refPart)
		idx, err2 := strconv.Atoi(idxPart)
		if err1 != nil || err2 != nil {
			fmt.Printf("Invalid target: %s (use <ref> or <ref>.<alt-index>)\n", target)
			return nil
		}
		result, err := svc.RemoveAlternative(ctx, app.RemoveAlternativeRequest{
			CompanyCode: companyCode,
			BOMRef:      bomRef,
			Ref:         ref,
			Index:       idx,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Removed alternative %d from ref %d (%d remaining).\n",
			idx, ref, len(result.BOM.Alternatives[ref]))
		return nil
	}

	ref, err := strconv.Atoi(target)
	if err != nil {
		fmt.Printf("Invalid component ref: %s\n", target)
		return nil
	}
	result, err := svc.RemoveComponent(ctx, app.RemoveComponentRequest{
		CompanyCode: companyCode,
		BOMRef:      bomRef,
		Ref:         ref,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Removed ref %d. Total cost is now %s %s.\n",
		ref, result.BOM.TotalCost.StringFixed(2), result.BOM.Currency)
	return nil
}

// handleAddAlternative applies /alt <ref> <sku> <cost> [notes] to the open BOM.
func handleAddAlternative(ctx context.Context, svc app.ApplicationService, companyCode, bomRef string, args []string) error {
	if len(args) < 3 {
		fmt.Println("Usage: /alt <ref> <sku> <cost> [notes]")
		return nil
	}
	ref, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Printf("Invalid component ref: %s\n", args[0])
		return nil
	}

	added, err := svc.AddAlternative(ctx, app.AddAlternativeRequest{
		CompanyCode: companyCode,
		BOMRef:      bomRef,
		Ref:         ref,
	})
	if err != nil {
		return err
	}

	sku := strings.ToUpper(args[1])
	cost := args[2]
	notes := strings.Join(args[3:], " ")
	upd := app.UpdateAlternativeRequest{
		CompanyCode: companyCode,
		BOMRef:      bomRef,
		Ref:         ref,
		Index:       added.NewRef,
		ItemSKU:     &sku,
		Cost:        &cost,
	}
	if notes != "" {
		upd.Notes = &notes
	}
	if _, err := svc.UpdateAlternative(ctx, upd); err != nil {
		return err
	}
	fmt.Printf("Added alternative %d (%s) to ref %d.\n", added.NewRef, sku, ref)
	return nil
}

// handleReceive applies /receive <sku> <qty> <cost> against the item master.
func handleReceive(ctx context.Context, svc app.ApplicationService, companyCode string, args []string) error {
	if len(args) < 3 {
		fmt.Println("Usage: /receive <sku> <qty> <cost>")
		return nil
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil || !qty.IsPositive() {
		fmt.Printf("Invalid quantity: %s\n", args[1])
		return nil
	}
	unitCost, err := decimal.NewFromString(args[2])
	if err != nil || unitCost.IsNegative() {
		fmt.Printf("Invalid cost: %s\n", args[2])
		return nil
	}

	result, err := svc.ReceiveStock(ctx, app.ReceiveStockRequest{
		CompanyCode: companyCode,
		SKU:         strings.ToUpper(args[0]),
		Qty:         qty,
		UnitCost:    unitCost,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Received %s × %s. On hand %s, weighted-average cost %s.\n",
		qty.String(), result.Item.SKU,
		result.Item.QtyOnHand.String(), result.Item.UnitCost.StringFixed(4))
	return nil
}
