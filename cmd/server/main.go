package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/flight-booking/internal/config"
	"github.com/iliyamo/flight-booking/internal/database"
	"github.com/iliyamo/flight-booking/internal/handler"
	"github.com/iliyamo/flight-booking/internal/middleware"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/router"
	"github.com/iliyamo/flight-booking/internal/service"
)

func main() {
	// a missing .env is fine; the environment may already be populated
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetLevel(log.DEBUG)
	}

	db, err := database.Open(context.Background(), cfg.Database())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(context.Background(), db, database.DialectMySQL); err != nil {
			log.Fatalf("database: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	flights := repository.NewFlightRepo(db)
	seats := repository.NewSeatRepo(db)
	passengers := repository.NewPassengerRepo(db)
	tickets := repository.NewTicketRepo(db)
	transactions := repository.NewTransactionRepo(db)

	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartTicketEventConsumer(ctx, cfg.AMQPURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("ticket-consumer stopped: %v", err)
			}
		}()
	} else {
		log.Info("AMQP_URL not set; ticket events disabled")
	}

	go purgeRefreshTokens(ctx, tokens, time.Hour)

	inventory := service.NewInventory(flights, seats)
	flightSvc := &service.FlightService{Flights: flights, Tickets: tickets, Inventory: inventory}
	bookingSvc := &service.BookingService{
		Flights:      flights,
		Inventory:    inventory,
		Passengers:   passengers,
		Tickets:      tickets,
		Transactions: transactions,
		Refs:         service.NewReferences(),
		Events:       events,
	}
	ticketSvc := &service.TicketService{
		Tickets:       tickets,
		Flights:       flights,
		Seats:         seats,
		Inventory:     inventory,
		Transactions:  transactions,
		Events:        events,
		CheckInWindow: cfg.CheckInWindow,
	}
	passengerSvc := &service.PassengerService{Passengers: passengers, Tickets: tickets}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.Validator{}
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewFlightHandler(flightSvc, inventory),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	tickH := handler.NewTicketHandler(ticketSvc)
	router.RegisterCustomer(e, handler.NewBookingHandler(bookingSvc, ticketSvc), tickH, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterEmployee(e, handler.NewEmployeeHandler(passengerSvc, flightSvc), tickH, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

// purgeRefreshTokens deletes expired refresh tokens every interval until
// ctx is cancelled.
func purgeRefreshTokens(ctx context.Context, tokens *repository.TokenRepo, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokens.DeleteExpired(ctx, now)
			if err != nil {
				log.Warnf("refresh token purge: %v", err)
				continue
			}
			if n > 0 {
				log.Debugf("purged %d expired refresh tokens", n)
			}
		}
	}
}
