package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/mealhub-reservation/internal/config"
	"github.com/iliyamo/mealhub-reservation/internal/database"
	"github.com/iliyamo/mealhub-reservation/internal/gate"
	"github.com/iliyamo/mealhub-reservation/internal/handler"
	"github.com/iliyamo/mealhub-reservation/internal/queue"
	"github.com/iliyamo/mealhub-reservation/internal/repository"
	"github.com/iliyamo/mealhub-reservation/internal/router"
	"github.com/iliyamo/mealhub-reservation/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var slotGate gate.Gate = gate.Noop{}
	if rdb != nil {
		defer rdb.Close()
		slotGate = gate.NewRedisGate(rdb, cfg.GateTTL, cfg.GatePrefix)
	} else {
		log.Printf("gate: redis unavailable, booking relies on row locks only")
	}

	restaurants := repository.NewRestaurantRepo(db)
	users := repository.NewUserRepo(db)
	svc := service.NewReservationService(
		repository.NewMySQLStore(db),
		restaurants,
		service.WithGate(slotGate),
		service.WithNotifications(users, queue.NewPublisher(cfg.AMQPURL), cfg.PublicBaseURL, cfg.NotifyTimeout),
		service.WithLocation(cfg.Location),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Validator = handler.NewRequestValidator()

	router.RegisterAll(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		Redis:        rdb,
		RateLimit:    config.LoadRateLimitConfig(),
		Cache:        config.LoadCacheConfig(),
		Reservations: handler.NewReservationHandler(svc),
		Restaurants:  handler.NewRestaurantHandler(restaurants, svc),
		Admins:       restaurants,
	})

	if cfg.MailLogConsumer {
		go queue.NewMailLogConsumer(cfg.AMQPURL).Run()
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// let in-flight notifications finish before the broker connection goes away
	svc.Wait()
}
