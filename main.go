package main

import (
	"log"

	"github.com/contactbook/backend/config"
	"github.com/contactbook/backend/internal/api"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	api.StartServer(cfg)
}
