package database

import (
	"fmt"
	"time"

	"github.com/mroshb/skill_swap/internal/config"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return db, nil
}

// AutoMigrate creates the users and swap_offers tables, including the
// partial unique index over pending offers.
func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(&models.User{}, &models.SwapOffer{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !db.Migrator().HasIndex(&models.SwapOffer{}, "idx_swap_offers_pending_tuple") {
		return fmt.Errorf("migration failed: pending offer index missing")
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
