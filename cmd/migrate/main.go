package main

import (
	"fmt"
	"os"

	"github.com/bindisa/agritech-api/internal/config"
	"github.com/bindisa/agritech-api/internal/repository/postgres"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	sourceURL := "file://migrations"
	if len(os.Args) > 1 {
		sourceURL = os.Args[1]
	}

	fmt.Printf("Migrating database at %s:%d...\n", cfg.Database.Host, cfg.Database.Port)

	if err := postgres.RunMigrations(cfg.Database.DSN(), sourceURL); err != nil {
		panic(fmt.Sprintf("Migration failed: %v", err))
	}

	fmt.Println("Migrations applied")
}
