package main

import (
	"flag"
	"log"

	"github.com/pageza/recipehome/config"
	"github.com/pageza/recipehome/internal/database"
	"github.com/pageza/recipehome/internal/stubapi"
)

func main() {
	username := flag.String("username", "demo", "demo account username")
	email := flag.String("email", "demo@example.com", "demo account email")
	password := flag.String("password", "demo1234", "demo account password")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	auth := stubapi.NewAuthService(db, cfg.JWTSecret)
	created, err := stubapi.Seed(db, auth, stubapi.DemoUser{
		Username: *username,
		Email:    *email,
		Password: *password,
	}, stubapi.SampleRecipes())
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	log.Printf("Seeding complete: %d recipes created, sign in as %s", created, *email)
}
