package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"bom-engine/internal/ai"

	"github.com/joho/godotenv"
)

// Smoke test for the change agent: feeds a canned BOM and item catalog,
// no database required.
func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	agent := ai.NewAgent(apiKey)
	ctx := context.Background()

	bomContext := `{
  "bom_number": "BOM-2026-000123",
  "name": "Steel Workbench",
  "revision": "B",
  "status": "DRAFT",
  "currency": "USD",
  "components": [
    {"ref": 1, "item_sku": "FRAME-STL", "item_name": "Steel Frame", "quantity": "1", "unit_cost": "95.25"},
    {"ref": 2, "item_sku": "TOP-OAK", "item_name": "Oak Top Panel", "quantity": "2", "unit_cost": "12.85"}
  ],
  "labor_cost": "45",
  "overhead_cost": "28.5"
}`

	itemCatalog := `FRAME-STL | Steel Frame | raw_material | pieces @ 95.25
TOP-OAK | Oak Top Panel | raw_material | pieces @ 12.85
BOLT-M8 | M8 Hex Bolt | purchased_component | pieces @ 0.12`

	request := "Double the oak top quantity and add four M8 bolts."

	fmt.Printf("INTERPRETING: %s\n", request)
	response, err := agent.InterpretChange(ctx, request, bomContext, itemCatalog)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if response.IsClarificationRequest {
		fmt.Printf("\nCLARIFICATION: %s\n", response.Clarification.Message)
		return
	}

	p := response.Proposal
	fmt.Printf("\n--- PROPOSAL ---\n")
	fmt.Printf("Summary:    %s\n", p.Summary)
	fmt.Printf("Confidence: %.2f\n", p.Confidence)
	fmt.Printf("Reasoning:  %s\n", p.Reasoning)
	fmt.Println("Steps:")
	for i, s := range p.Steps {
		fmt.Printf("  %d. %s ref=%d sku=%s qty=%s cost=%s\n",
			i+1, s.Action, s.Ref, s.ItemSKU, s.Quantity, s.UnitCost)
	}
}
