package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/config"
	"github.com/taskflow-dev/taskflow/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := config.Init(); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := auth.InitJWTSecret(config.App.JWTSecret); err != nil {
		log.Fatalf("Error initializing JWT: %v", err)
	}

	if err := db.ConnectDatabase(config.App.DatabaseURL); err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	r := router.NewRouter()

	if err := r.Run(":" + config.App.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
