package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stoneyard/infrastructure/audit"
	"stoneyard/infrastructure/cache"
	"stoneyard/infrastructure/config"
	httpserver "stoneyard/infrastructure/http"
	"stoneyard/infrastructure/notify"
	"stoneyard/infrastructure/sqlite"
	"stoneyard/infrastructure/sweeper"
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

	sessionCache := cache.NewSessionCache()
	auditSvc := audit.NewService()
	hub := notify.NewHub()

	sessionSweeper := sweeper.New(db, sessionCache)
	if err := sessionSweeper.Start(cfg.Sessions.SweepSchedule); err != nil {
		log.Fatalf("start session sweeper: %v", err)
	}
	defer sessionSweeper.Stop()

	server := httpserver.NewServer(cfg.Server.Addr, db, sessionCache, auditSvc, hub, cfg.Sessions.TTLHours)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("stoneyard listening on %s", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}
