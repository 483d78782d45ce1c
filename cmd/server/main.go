package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "bom-engine/internal/adapters/web"
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
		log.Fatalf("database: %v", err)
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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
