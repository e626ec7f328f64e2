package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"stoneyard/factory/login"
	"stoneyard/infrastructure/config"
	"stoneyard/infrastructure/sqlite"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sqlite.OpenDB(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	pin := os.Getenv("STONEYARD_ADMIN_PIN")
	if pin == "" {
		log.Fatalf("STONEYARD_ADMIN_PIN must be set")
	}
	if err := login.UpsertStaffPIN(context.Background(), db, "ADMIN", pin); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	fmt.Println("seeded admin operator (name=ADMIN)")
}
