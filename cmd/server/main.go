package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/theatre-reservation/internal/booking"
	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/database"
	"github.com/iliyamo/theatre-reservation/internal/handler"
	"github.com/iliyamo/theatre-reservation/internal/logging"
	"github.com/iliyamo/theatre-reservation/internal/middleware"
	"github.com/iliyamo/theatre-reservation/internal/queue"
	"github.com/iliyamo/theatre-reservation/internal/repository"
	"github.com/iliyamo/theatre-reservation/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("error", false).Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		Wait: time.Duration(cfg.DBWaitSeconds) * time.Second,
	}, logger.Named("db"))
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.RunMigrations(ctx, db, logger.Named("db")); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureStaff(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			logger.Error("ensure admin user", "error", err)
			os.Exit(1)
		}
		logger.Info("admin user ready", "email", cfg.AdminEmail, "created", created)
	}

	// Redis is optional: a nil client turns the limiter and cache into pass-throughs.
	rdb := config.NewRedisClient(logger.Named("redis"))
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger.Named("ratelimit"))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger.Named("cache"))

	queueCfg := config.LoadQueueConfig()
	var events booking.Publisher
	if queueCfg.Enabled {
		events = queue.NewPublisher(queueCfg.URL, logger.Named("queue"))
		consumer := queue.NewConsumer(queueCfg, logger.Named("queue"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("booking consumer stopped", "error", err)
			}
		}()
	}
	alloc := booking.NewAllocator(repository.NewBookingStore(db), events, logger)

	media := config.LoadMediaConfig()
	halls := repository.NewHallRepo(db)
	plays := repository.NewPlayRepo(db)
	catalog := handler.NewCatalogHandler(halls, repository.NewGenreRepo(db), repository.NewActorRepo(db), plays, media, logger)
	perfRepo := repository.NewPerformanceRepo(db)
	perfs := handler.NewPerformanceHandler(perfRepo, plays, halls, media, logger)
	bookings := handler.NewBookingHandler(perfRepo, repository.NewTicketRepo(db), repository.NewReservationRepo(db), alloc, media, logger)
	auth := handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), logger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger.Named("http")))

	router.RegisterRoutes(e, db, media)
	router.RegisterAuth(e, auth, cfg.JWTSecret, limiter)
	router.RegisterCatalog(e, catalog, perfs, cfg.JWTSecret, limiter, cache)
	router.RegisterBooking(e, bookings, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}
