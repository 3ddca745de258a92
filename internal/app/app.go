package app

import (
	"context"
	"database/sql"
	"io"
	"net/http"

	"github.com/spartanofurioso/platform/internal/api/handlers"
	"github.com/spartanofurioso/platform/internal/api/router"
	"github.com/spartanofurioso/platform/internal/cache"
	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/domain/order"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/domain/upload"
	"github.com/spartanofurioso/platform/internal/domain/user"
	"github.com/spartanofurioso/platform/internal/events"
	"github.com/spartanofurioso/platform/internal/mailer"
	"github.com/spartanofurioso/platform/internal/payments"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/services"
	"github.com/spartanofurioso/platform/internal/storage"
	"github.com/spartanofurioso/platform/internal/worker"
)

// Infra holds the external systems the application talks to
type Infra struct {
	DB        *sql.DB
	Cache     cache.Cache
	Publisher events.Publisher
	Mailer    mailer.Mailer
	Storage   storage.Storage
	Gateways  []payments.Gateway
	Webhooks  payments.WebhookVerifier

	// Dispatcher overrides newsletter delivery; nil delivers in process
	Dispatcher newsletter.Dispatcher
}

// App is the wired application
type App struct {
	Handler   http.Handler
	Scheduler *worker.Scheduler

	Users         user.Service
	Products      product.Service
	Orders        order.Service
	Subscriptions subscription.Service
	Trials        trial.Service
	Newsletter    newsletter.Service

	inProcess *services.InProcessDispatcher
}

// New wires repositories, services and handlers on top of infra
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, infra Infra) *App {
	if infra.Cache == nil {
		infra.Cache = cache.NewNoop()
	}
	if infra.Publisher == nil {
		infra.Publisher = events.NewLogPublisher(log)
	}
	if infra.Mailer == nil {
		infra.Mailer = mailer.NewLogMailer(log)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(infra.DB)
	productRepo := postgres.NewProductRepository(infra.DB)
	courseRepo := postgres.NewCourseRepository(infra.DB)
	orderRepo := postgres.NewOrderRepository(infra.DB)
	subRepo := postgres.NewSubscriptionRepository(infra.DB)
	trialRepo := postgres.NewTrialRepository(infra.DB)
	newsletterRepo := postgres.NewNewsletterRepository(infra.DB)
	analyticsRepo := postgres.NewAnalyticsRepository(infra.DB)

	// Services
	checker := services.NewAccessService(userRepo, orderRepo, subRepo, trialRepo)
	userService := services.NewUserService(userRepo, infra.Mailer, infra.Publisher, services.UserServiceConfig{
		BCryptCost:       cfg.Auth.BCryptCost,
		ResetTokenExpiry: cfg.Auth.ResetTokenExpiry,
		FrontendURL:      cfg.Server.FrontendURL,
	}, log)
	productService := services.NewProductService(productRepo, infra.Cache, cfg.Redis.CacheTTL, log)
	courseService := services.NewCourseService(courseRepo, productRepo, checker, log)
	subService := services.NewSubscriptionService(subRepo, productRepo, infra.Publisher, log)
	trialService := services.NewTrialService(trialRepo, productRepo, checker, infra.Mailer, infra.Publisher,
		services.TrialServiceConfig{DurationDays: cfg.Trials.DurationDays, ReminderDays: cfg.Trials.ReminderDays}, log)
	orderService := services.NewOrderService(services.OrderServiceDeps{
		Orders:        orderRepo,
		Products:      productRepo,
		Users:         userRepo,
		Subscriptions: subService,
		Trials:        trialService,
		Gateways:      infra.Gateways,
		Webhooks:      infra.Webhooks,
		Mailer:        infra.Mailer,
		Publisher:     infra.Publisher,
	}, log)

	a := &App{}
	dispatcher := infra.Dispatcher
	var newsletterService newsletter.Service
	if dispatcher == nil {
		// the in-process dispatcher needs the service it dispatches to
		lazy := &lazyDispatcher{}
		newsletterService = services.NewNewsletterService(newsletterRepo, infra.Mailer, lazy, cfg.Server.FrontendURL, log)
		a.inProcess = services.NewInProcessDispatcher(newsletterService, log)
		lazy.target = a.inProcess
	} else {
		newsletterService = services.NewNewsletterService(newsletterRepo, infra.Mailer, dispatcher, cfg.Server.FrontendURL, log)
	}

	analyticsService := services.NewAnalyticsService(services.AnalyticsServiceDeps{
		Events:        analyticsRepo,
		Users:         userRepo,
		Orders:        orderRepo,
		Subscriptions: subRepo,
		Trials:        trialRepo,
		Newsletter:    newsletterRepo,
		Cache:         infra.Cache,
	}, log)

	val := validator.New()
	h := &router.Handlers{
		Health:       handlers.NewHealthHandler(infra.DB, infra.Cache, log),
		Auth:         handlers.NewAuthHandler(userService, cfg, log, val),
		User:         handlers.NewUserHandler(userService, log, val),
		Product:      handlers.NewProductHandler(productService, log, val),
		Course:       handlers.NewCourseHandler(courseService, log, val),
		Order:        handlers.NewOrderHandler(orderService, log, val),
		Subscription: handlers.NewSubscriptionHandler(subService, log, val),
		Trial:        handlers.NewTrialHandler(trialService, log, val),
		Newsletter:   handlers.NewNewsletterHandler(newsletterService, log, val),
		Analytics:    handlers.NewAnalyticsHandler(analyticsService, log, val),
		Accounts:     userService.GetByID,
	}
	if infra.Storage != nil {
		h.Upload = handlers.NewUploadHandler(services.NewUploadService(infra.Storage, cfg.Storage.MaxUploadSize, log), cfg.Storage.MaxUploadSize, log)
	} else {
		h.Upload = handlers.NewUploadHandler(unavailableUploads{}, cfg.Storage.MaxUploadSize, log)
	}

	a.Handler = router.New(ctx, cfg, log, h)
	a.Scheduler = worker.NewScheduler(trialService, subService, cfg.Trials, log)
	a.Users = userService
	a.Products = productService
	a.Orders = orderService
	a.Subscriptions = subService
	a.Trials = trialService
	a.Newsletter = newsletterService
	return a
}

// Wait blocks until in-process newsletter deliveries finish
func (a *App) Wait() {
	if a.inProcess != nil {
		a.inProcess.Wait()
	}
}

type lazyDispatcher struct {
	target newsletter.Dispatcher
}

func (d *lazyDispatcher) Dispatch(ctx context.Context, messageID int64) error {
	return d.target.Dispatch(ctx, messageID)
}

type unavailableUploads struct{}

func (unavailableUploads) Upload(context.Context, io.Reader, int64) (*upload.Result, error) {
	return nil, errors.ServiceUnavailable("File storage is not configured")
}
