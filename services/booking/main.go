package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/config"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/database"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/events"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
	mw "github.com/DRBagency/travel-agency-next-sub000/pkg/middleware"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/handlers"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/repository"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/service"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/submission"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Booking service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Session store and start rate limit
	var (
		sessions    repository.SessionStore
		startLimits []func(http.Handler) http.Handler
		opts        []service.Option
	)
	if cfg.Redis.Enabled {
		rdb, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = repository.NewRedisSessionStore(rdb, cfg.Booking.SessionTTL)
		opts = append(opts, service.WithSubmissionGuard(repository.NewRedisSubmissionGuard(rdb)))
		if cfg.Server.StartLimit > 0 {
			limiter := mw.NewRateLimiter(rdb, mw.RateLimitConfig{
				Requests: cfg.Server.StartLimit,
				Window:   cfg.Server.StartWindow,
				Prefix:   "booking:ratelimit:start",
			})
			startLimits = append(startLimits, limiter.Middleware)
		}
	} else {
		logger.Warn("Redis disabled, booking sessions are kept in memory")
		sessions = repository.NewMemorySessionStore(cfg.Booking.SessionTTL)
	}

	// Connect to event bus
	var eventBus events.EventBus = events.NopBus{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer bus.Close()
		eventBus = bus
	}

	client := submission.NewHTTPClient(cfg.Booking.APIBaseURL, cfg.Booking.CheckoutPath, cfg.Booking.RequestPath, cfg.Booking.APITimeout)
	bookingService := service.NewBookingService(repository.NewCatalogRepository(pool), sessions, client, eventBus, cfg, opts...)
	h := handlers.New(bookingService, cfg)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("booking"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	r.Mount("/v1/booking/sessions", h.Routes(startLimits...))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting booking service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down booking service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
