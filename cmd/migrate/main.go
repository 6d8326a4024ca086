package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"leaddesk/backend/config"
	"leaddesk/backend/database"
	"leaddesk/backend/logger"
	"leaddesk/backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Initialize database connection and run migrations
	if err := database.InitDB(cfg.DBPath); err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	applied, err := migrations.Applied(database.DB)
	if err != nil {
		logrus.Fatalf("Failed to list migrations: %v", err)
	}
	for _, name := range applied {
		fmt.Println(name)
	}

	fmt.Println("Migrations completed successfully!")
	os.Exit(0)
}
