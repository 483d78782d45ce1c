package repl

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"bom-engine/internal/app"
)

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the AI change agent against the
// currently opened BOM.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	company, err := svc.LoadDefaultCompany(ctx)
	if err != nil {
		log.Fatalf("Failed to load company: %v", err)
	}

	fmt.Println("BOM Engine")
	fmt.Printf("Company: %s — %s (%s)\n", company.CompanyCode, company.Name, company.BaseCurrency)
	fmt.Println("Open a BOM with /open, then describe a change in plain language, or use /help.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")

	// currentBOM is the ref the AI flow and short-form edit commands target.
	currentBOM := ""

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "boms", "list":
			status := ""
			if len(args) > 0 {
				status = strings.ToUpper(args[0])
			}
			result, err := svc.ListBOMs(ctx, company.CompanyCode, status)
			if err != nil {
				return err
			}
			printBOMList(result)

		case "new":
			ref, err := handleNewBOM(ctx, reader, svc, company.CompanyCode)
			if err != nil {
				return err
			}
			if ref != "" {
				currentBOM = ref
			}

		case "open", "o":
			if len(args) < 1 {
				fmt.Println("Usage: /open <bom-id|bom-number>")
				return nil
			}
			result, err := svc.GetBOM(ctx, args[0], company.CompanyCode)
			if err != nil {
				return err
			}
			currentBOM = result.BOM.BOMNumber
			printBOMDetail(result.BOM)

		case "show", "s":
			if currentBOM == "" {
				fmt.Println("No BOM open. Use /open <bom-number> first.")
				return nil
			}
			result, err := svc.GetBOM(ctx, currentBOM, company.CompanyCode)
			if err != nil {
				return err
			}
			printBOMDetail(result.BOM)

		case "add", "addasm":
			if currentBOM == "" {
				fmt.Println("No BOM open. Use /open <bom-number> first.")
				return nil
			}
			result, err := svc.AddComponent(ctx, app.AddComponentRequest{
				CompanyCode: company.CompanyCode,
				BOMRef:      currentBOM,
				IsAssembly:  cmd == "addasm",
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added component ref %d.\n", result.NewRef)

		case "addsub":
			if currentBOM == "" || len(args) < 1 {
				fmt.Println("Usage: /addsub <parent-ref>  (with a BOM open)")
				return nil
			}
			parentRef, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("Invalid component ref: %s\n", args[0])
				return nil
			}
			result, err := svc.AddSubComponent(ctx, app.AddSubComponentRequest{
				CompanyCode: company.CompanyCode,
				BOMRef:      currentBOM,
				ParentRef:   parentRef,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added child ref %d under ref %d.\n", result.NewRef, parentRef)

		case "alt":
			if currentBOM == "" {
				fmt.Println("No BOM open. Use /open <bom-number> first.")
				return nil
			}
			return handleAddAlternative(ctx, svc, company.CompanyCode, currentBOM, args)

		case "set":
			// Usage: /set <ref> <sku|qty|cost|unit|child> <value>
			if currentBOM == "" {
				fmt.Println("No BOM open. Use /open <bom-number> first.")
				return nil
			}
			if len(args) < 3 {
				fmt.Println("Usage: /set <ref> <sku|qty|cost|unit|child> <value>")
				return nil
			}
			return handleSetField(ctx, svc, company.CompanyCode, currentBOM, args)

		case "rm", "remove":
			if currentBOM == "" || len(args) < 1 {
				fmt.Println("Usage: /rm <ref>  (with a BOM open)")
				return nil
			}
			return handleRemove(ctx, svc, company.CompanyCode, currentBOM, args[0])

		case "labor", "overhead":
			if currentBOM == "" || len(args) < 1 {
				fmt.Printf("Usage: /%s <amount>  (with a BOM open)\n", cmd)
				return nil
			}
			req := app.SetCostsRequest{CompanyCode: company.CompanyCode, BOMRef: currentBOM}
			if cmd == "labor" {
				req.LaborCost = &args[0]
			} else {
				req.OverheadCost = &args[0]
			}
			result, err := svc.SetCosts(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("Total cost is now %s %s.\n", result.BOM.TotalCost.StringFixed(2), result.BOM.Currency)

		case "submit":
			return lifecycle(ctx, svc, currentBOM, company.CompanyCode, "submit")
		case "release":
			return lifecycle(ctx, svc, currentBOM, company.CompanyCode, "release")
		case "obsolete":
			return lifecycle(ctx, svc, currentBOM, company.CompanyCode, "obsolete")

		case "revise":
			if currentBOM == "" {
				fmt.Println("No BOM open. Use /open <bom-number> first.")
				return nil
			}
			notes := strings.Join(args, " ")
			result, err := svc.CreateRevision(ctx, app.CreateRevisionRequest{
				CompanyCode: company.CompanyCode,
				BOMRef:      currentBOM,
				RevisedBy:   "repl",
				Notes:       notes,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Revised to %s. Document reopened as DRAFT.\n", result.BOM.Revision)

		case "cost", "breakdown":
			if currentBOM == "" {
				fmt.Println("No BOM open. Use /open <bom-number> first.")
				return nil
			}
			breakdown, err := svc.GetCostBreakdown(ctx, currentBOM, company.CompanyCode)
			if err != nil {
				return err
			}
			printBreakdown(breakdown)

		case "items":
			result, err := svc.ListItems(ctx, company.CompanyCode)
			if err != nil {
				return err
			}
			printItemList(result)

		case "wu", "where-used":
			if len(args) < 1 {
				fmt.Println("Usage: /wu <sku>")
				return nil
			}
			result, err := svc.WhereUsed(ctx, company.CompanyCode, strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			printWhereUsedList(result)

		case "receive":
			return handleReceive(ctx, svc, company.CompanyCode, args)

		case "ecos":
			result, err := svc.ListECOs(ctx, company.CompanyCode)
			if err != nil {
				return err
			}
			printECOList(result)

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		// No slash prefix → route to the AI change agent.
		if currentBOM == "" {
			fmt.Println("Open a BOM first (/open <bom-number>) so the agent knows what to change.")
			continue
		}
		fmt.Println("[AI] Processing...")
		accumulatedInput := input

		rounds := 0
		for {
			rounds++
			if rounds > 3 {
				fmt.Println("Could not produce a proposal. Try a slash command instead — type /help.")
				break
			}

			result, err := svc.InterpretChange(ctx, accumulatedInput, currentBOM, company.CompanyCode)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				break
			}

			if result.IsClarification {
				fmt.Printf("\n[AI]: %s\n", result.ClarificationMessage)
				fmt.Print("> ")
				userFollowUp, _ := reader.ReadString('\n')
				userFollowUp = strings.TrimSpace(userFollowUp)

				// Slash command during clarification — cancel AI flow and execute it.
				if strings.HasPrefix(userFollowUp, "/") {
					fmt.Println("(AI session cancelled)")
					if dispErr := dispatchSlash(userFollowUp); dispErr != nil {
						if dispErr == errExit {
							fmt.Println("Goodbye!")
							return
						}
						fmt.Printf("Error: %v\n", dispErr)
					}
					break
				}

				if userFollowUp == "" || strings.ToLower(userFollowUp) == "cancel" {
					fmt.Println("Cancelled.")
					break
				}
				accumulatedInput = fmt.Sprintf("Original request: %s\nClarification requested: %s\nUser response: %s",
					accumulatedInput, result.ClarificationMessage, userFollowUp)
				fmt.Println("[AI] Thinking...")
				continue
			}

			proposal := result.Proposal
			printChangeProposal(proposal)

			if proposal.Confidence < 0.6 {
				fmt.Println("\nWARNING: Low confidence proposal.")
			}

			fmt.Print("\nApply these changes? (y/n): ")
			choice, _ := reader.ReadString('\n')
			choice = strings.TrimSpace(strings.ToLower(choice))

			if choice == "y" || choice == "yes" {
				applied, err := svc.ApplyChangeProposal(ctx, *proposal)
				if err != nil {
					fmt.Printf("Change FAILED: %v\n", err)
				} else {
					fmt.Printf("Change APPLIED. %s rev %s, total cost %s %s.\n",
						applied.BOM.BOMNumber, applied.BOM.Revision,
						applied.BOM.TotalCost.StringFixed(2), applied.BOM.Currency)
				}
			} else {
				fmt.Println("Change Cancelled.")
			}
			break
		}
	}
}

// lifecycle runs one of the status transitions against the open BOM.
func lifecycle(ctx context.Context, svc app.ApplicationService, bomRef, companyCode, action string) error {
	if bomRef == "" {
		fmt.Println("No BOM open. Use /open <bom-number> first.")
		return nil
	}
	var result *app.BOMResult
	var err error
	switch action {
	case "submit":
		result, err = svc.SubmitForReview(ctx, bomRef, companyCode)
	case "release":
		result, err = svc.ReleaseBOM(ctx, bomRef, companyCode, "repl")
	case "obsolete":
		result, err = svc.MarkObsolete(ctx, bomRef, companyCode)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s.\n", result.BOM.BOMNumber, result.BOM.Status)
	return nil
}
