package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/config"
	"github.com/ndlovu/church-venue-hire/internal/database"
	"github.com/ndlovu/church-venue-hire/internal/handler"
	"github.com/ndlovu/church-venue-hire/internal/middleware"
	"github.com/ndlovu/church-venue-hire/internal/queue"
	"github.com/ndlovu/church-venue-hire/internal/repository"
	"github.com/ndlovu/church-venue-hire/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	migCtx, cancelMig := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migCtx, db); err != nil {
		cancelMig()
		log.Fatalf("migrate: %v", err)
	}
	cancelMig()

	// Redis powers the browse cache and the rate limiter; both degrade to
	// no-ops when the client is nil.
	rdb := config.NewRedisClient()

	churches := repository.NewChurchRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	equipment := repository.NewEquipmentRepo(db)
	bookings := repository.NewBookingRepo(db)
	stats := repository.NewStatsRepo(db)

	authH := handler.NewAuthHandler(cfg, churches, tokens)
	listingH := handler.NewListingHandler(venues, equipment)
	publicH := handler.NewPublicHandler(venues, equipment, churches)
	bookingH := handler.NewBookingHandler(bookings, venues, equipment)
	adminH := handler.NewAdminHandler(stats)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterListings(e, listingH, cfg.JWTSecret)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartNotificationConsumer(); err != nil {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Block until interrupted, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server stopped")
}
