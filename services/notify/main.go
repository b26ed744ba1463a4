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
	"golang.org/x/sync/errgroup"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/config"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/events"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
	mw "github.com/DRBagency/travel-agency-next-sub000/pkg/middleware"
	"github.com/DRBagency/travel-agency-next-sub000/services/notify/internal/mailer"
	"github.com/DRBagency/travel-agency-next-sub000/services/notify/internal/notifier"
)

const queueGroup = "notify"

func main() {
	if err := run(); err != nil {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m mailer.Service = mailer.NewDevMailer()
	if !cfg.Email.DevMode {
		m = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	n := notifier.New(m, cfg.Email.Locale, cfg.Email.Currency)

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer bus.Close()

	subscribe := func(subject string, handle func(context.Context, []byte) error) error {
		return bus.QueueSubscribe(subject, queueGroup, func(msg *events.Message) {
			hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := handle(hctx, msg.Data); err != nil {
				logger.ErrorContext(hctx, "Failed to handle event", "error", err, "subject", msg.Subject, "event_id", msg.ID)
			}
		})
	}
	if err := subscribe(events.RequestSent, n.HandleRequestSent); err != nil {
		return err
	}
	if err := subscribe(events.SubmissionFailed, n.HandleSubmissionFailed); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health)

	port := cfg.Server.NotifyPort
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting notify service", "port", port, "subjects", []string{events.RequestSent, events.SubmissionFailed})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down notify service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
