package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"bom-engine/internal/adapters/cli"
	"bom-engine/internal/adapters/repl"
	"bom-engine/internal/ai"
	"bom-engine/internal/app"
	"bom-engine/internal/core"
	"bom-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	bomService := core.NewBOMService(pool)
	itemService := core.NewItemService(pool)
	ecoService := core.NewECOService(pool)
	reportService := core.NewReportService(pool, bomService)
	userService := core.NewUserService(pool)

	apiKey := os.Getenv("OPENAI_API_KEY")
	var agent *ai.Agent
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set, AI change proposals disabled")
	} else {
		agent = ai.NewAgent(apiKey)
	}

	svc := app.NewAppService(pool, bomService, itemService, ecoService, reportService, userService, agent)

	if len(os.Args) > 1 {
		cli.Run(ctx, svc, os.Args[1:])
		return
	}

	repl.Run(ctx, svc, bufio.NewReader(os.Stdin))
}
