package main

import (
	"fmt"
	"log"
	"os"

	"github.com/optiprice/backend/config"
	"github.com/optiprice/backend/internal/bootstrap"
	httpDelivery "github.com/optiprice/backend/internal/delivery/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting OptiPrice Backend v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Marketplace: %s (%s)", cfg.Rainforest.BaseURL, cfg.Rainforest.AmazonDomain)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	handler := httpDelivery.NewHandler(app.Service, app.Embedder.Name())
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
