package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nibog/config"
	"nibog/internal/database"
	"nibog/internal/repository"
	"nibog/internal/router"
	"nibog/pkg/payment"
)

func main() {
	cfg := config.Load()

	cfg.PhonePe.LogSummary()
	if status := cfg.PhonePe.Validate(); !status.IsValid {
		if cfg.PhonePe.Environment == "production" {
			log.Fatalf("phonepe config invalid for production: %v", status.Errors)
		}
		log.Printf("[PHONEPE config] running on sandbox defaults: %v", status.Errors)
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var provider payment.Provider = payment.NewPhonePeProvider(cfg.PhonePe)
	if os.Getenv("PAYMENT_PROVIDER") == "stub" {
		log.Println("[PAYMENT] using stub provider, no real gateway calls")
		provider = &payment.StubProvider{}
	}

	// Garbage-collect staged bookings whose expiry is long past. Reads
	// already treat them as gone; this just reclaims rows.
	pendingRepo := repository.NewPendingBookingRepository(db)
	go func() {
		tick := time.NewTicker(10 * time.Minute)
		for range tick.C {
			n, err := pendingRepo.DeleteExpired(time.Now().Add(-24 * time.Hour))
			if err != nil {
				log.Printf("[PENDING sweep] %v", err)
			} else if n > 0 {
				log.Printf("[PENDING sweep] removed %d expired staged bookings", n)
			}
		}
	}()

	engine := router.Setup(cfg, db, provider)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}
