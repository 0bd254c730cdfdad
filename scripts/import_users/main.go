package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/skill_swap/internal/config"
	"github.com/mroshb/skill_swap/internal/database"
	"github.com/mroshb/skill_swap/internal/repositories"
	"github.com/mroshb/skill_swap/pkg/logger"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <users.xlsx>", os.Args[0])
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		log.Fatal("user import needs STORAGE_DRIVER=postgres")
	}

	logger.Init(cfg.LogLevel, cfg.IsDevelopment())
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	result, err := database.ImportUsers(context.Background(), f, repositories.NewUserRepository(db))
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	for _, e := range result.Errors {
		fmt.Println("⚠️", e)
	}
	fmt.Printf("✅ Imported %d users, skipped %d existing, %d rows rejected.\n", result.Created, result.Skipped, len(result.Errors))
}
