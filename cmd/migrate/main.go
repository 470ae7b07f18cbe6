package main

import (
	"context"
	"flag"
	"log"

	"github.com/travelbooks/backend/internal/config"
	"github.com/travelbooks/backend/internal/database"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down, status, reset, version")
	flag.Parse()

	config.InitViper()

	db := database.InitDatabase()
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db, *command); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")
}
