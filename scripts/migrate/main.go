package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/mroshb/skill_swap/internal/config"
	"github.com/mroshb/skill_swap/internal/database"
	"github.com/mroshb/skill_swap/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		log.Fatal("migrations need STORAGE_DRIVER=postgres")
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	defer logger.Sync()

	fmt.Println("🚀 Starting migration...")

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	fmt.Println("✅ users and swap_offers are up to date, pending offer index present.")
}
