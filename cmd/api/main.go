// @title Spartano Furioso API
// @version 1.0
// @description Storefront, course, trial and newsletter backend for Spartano Furioso.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spartanofurioso/platform/internal/app"
	"github.com/spartanofurioso/platform/internal/cache"
	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/payments"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/services"
	"github.com/spartanofurioso/platform/internal/storage"
	"github.com/spartanofurioso/platform/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{Level: "info", Format: "json"}).Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
		Service:    "spartano-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	fsys, err := migrations.FS(cfg.Database.Driver)
	if err != nil {
		log.Fatalf("Failed to load migrations: %v", err)
	}
	applied, err := postgres.RunMigrations(db, fsys)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.With("applied", applied).Info("Database ready")

	// Cache
	var c cache.Cache = cache.NewNoop()
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.WarnWithErr(err, "Redis unavailable, caching disabled")
		} else {
			c = rc
			log.With("addr", cfg.Redis.Addr()).Info("Redis cache connected")
		}
	}
	defer c.Close()

	// Events
	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.RabbitMQ.Enabled {
		p, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.WarnWithErr(err, "RabbitMQ unavailable, events will only be logged")
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	// Mail
	var m mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.Mail.Enabled {
		m = mailer.NewSMTPMailer(cfg.Mail, log)
	}

	// Storage
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialise storage: %v", err)
	}

	// Payments
	stripeGateway := payments.NewStripe(cfg.Payments)
	gateways := []payments.Gateway{
		stripeGateway,
		payments.NewManual("paypal"),
		payments.NewManual("crypto"),
	}

	infra := app.Infra{
		DB:        db,
		Cache:     c,
		Publisher: publisher,
		Mailer:    m,
		Storage:   store,
		Gateways:  gateways,
		Webhooks:  stripeGateway,
	}
	if _, ok := publisher.(*events.AMQPPublisher); ok {
		infra.Dispatcher = services.NewQueueDispatcher(publisher)
	}

	a := app.New(ctx, cfg, log, infra)

	// Newsletter delivery consumer
	if infra.Dispatcher != nil {
		consumer, err := events.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatalf("Failed to start newsletter consumer: %v", err)
		}
		defer consumer.Close()
		go func() {
			err := consumer.Consume(ctx, cfg.RabbitMQ.NewsletterQueue, events.NewsletterDeliver, services.NewsletterDeliveryHandler(a.Newsletter))
			if err != nil {
				log.ErrorWithErr(err, "Newsletter consumer stopped")
			}
		}()
	}

	// Background jobs
	if err := a.Scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        server.Addr,
			"environment": cfg.Server.Environment,
		}).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorWithErr(err, "HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "HTTP server shutdown failed")
	}
	a.Scheduler.Stop(shutdownCtx)
	a.Wait()

	log.Info("Server stopped")
}
