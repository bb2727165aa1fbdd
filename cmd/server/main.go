package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"hrms/internal/app/server"
	"hrms/internal/platform/config"
)

func main() {
	// a missing .env file is fine; env vars win either way
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := server.New(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	log.Printf("HR server listening on %s (data dir %s)", cfg.Addr, app.Store.Dir())
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
