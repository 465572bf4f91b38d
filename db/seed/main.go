package main

import (
	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/pkg/database"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

func main() {
	cfg, err := environments.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Warnf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedTestData(db); err != nil {
		logger.Fatalf("Failed to seed test data: %v", err)
	}

	logger.Infof("Seed completed successfully")
}
