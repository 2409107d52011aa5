package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zevar-co/zevargo/internal/config"
	"github.com/zevar-co/zevargo/internal/database"
	"github.com/zevar-co/zevargo/internal/handlers"
	"github.com/zevar-co/zevargo/internal/models"
	"github.com/zevar-co/zevargo/internal/negotiation"
	"github.com/zevar-co/zevargo/internal/rates"
	ws "github.com/zevar-co/zevargo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema (Critical for Zero-Config)
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Product{},
		&models.MetalRate{},
		&models.Order{},
		&models.OrderItem{},
		&models.NegotiationAudit{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Start the rate sync scheduler
	log.Println("🔄 Initializing rate sync scheduler...")
	source := rates.NewHTTPSource(cfg.Rates.SpotAPIURL, cfg.Rates.SpotAPIKey)
	scheduler := rates.NewScheduler(db, source, rates.SyncConfig{
		IntervalHours:    cfg.Rates.SyncIntervalHours,
		RetailPremiumPct: cfg.Rates.RetailPremiumPct,
	})
	scheduler.Start()

	// 5. Wire up the negotiation engine
	var arbiter negotiation.Arbiter
	if cfg.Gemini.APIKey != "" {
		timeout := time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second
		arbiter, err = negotiation.NewGeminiArbiter(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, timeout)
		if err != nil {
			log.Printf("⚠️ Gemini arbiter unavailable, negotiation falls back to rules: %v", err)
			arbiter = nil
		} else {
			log.Printf("✅ Gemini arbiter ready (model: %s)", cfg.Gemini.Model)
		}
	} else {
		log.Println("⚠️ GEMINI_API_KEY not set, negotiation runs on the rule-based fallback only")
	}
	engine := negotiation.NewEngine(db, arbiter)

	// 6. Negotiation hub + HTTP router
	hub := ws.NewHub()
	go hub.Run()

	router := handlers.NewRouter(db, cfg, scheduler, engine, hub)

	// 7. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	// Create context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Stop the rate scheduler
	scheduler.Stop()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
