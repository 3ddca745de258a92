package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/spartanofurioso/platform/docs"

	"github.com/spartanofurioso/platform/internal/api/handlers"
	"github.com/spartanofurioso/platform/internal/api/middleware"
	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Product      *handlers.ProductHandler
	Course       *handlers.CourseHandler
	Order        *handlers.OrderHandler
	Subscription *handlers.SubscriptionHandler
	Trial        *handlers.TrialHandler
	Newsletter   *handlers.NewsletterHandler
	Analytics    *handlers.AnalyticsHandler
	Upload       *handlers.UploadHandler

	// Accounts re-reads the caller on admin routes
	Accounts middleware.AccountLoader
}

// New builds the HTTP router; rate limiter cleanup stops when ctx is done
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL, cfg.Server.AllowedOrigins))
	r.Use(metrics.Middleware)
	r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	// Credential endpoints get a much tighter budget
	strict := middleware.RateLimit(ctx, 1, 5)

	requireAuth := middleware.AuthMiddleware(cfg.Auth.JWTSecret)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		// Health checks
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
			r.Handle("/uploads/*", http.FileServer(http.Dir(cfg.Storage.LocalDir)))
		}

		// Auth
		r.With(strict).Post("/api/auth/register", h.Auth.Register)
		r.With(strict).Post("/api/auth/login", h.Auth.Login)
		r.With(strict).Post("/api/auth/admin/login", h.Auth.AdminLogin)
		r.With(strict).Post("/api/auth/forgot-password", h.Auth.ForgotPassword)
		r.With(strict).Post("/api/auth/reset-password", h.Auth.ResetPassword)
		r.Post("/api/auth/verify-token", h.Auth.VerifyToken)
		r.Post("/api/auth/refresh", h.Auth.RefreshToken)
		r.Post("/api/auth/logout", h.Auth.Logout)

		// Catalog
		r.Get("/api/products", h.Product.List)
		r.Get("/api/products/slug/{slug}", h.Product.GetBySlug)
		r.Get("/api/products/{id}", h.Product.Get)
		r.Get("/api/courses/{id}/outline", h.Course.Outline)

		// Newsletter
		r.Post("/api/newsletter/subscribe", h.Newsletter.Subscribe)
		r.Post("/api/newsletter/unsubscribe", h.Newsletter.Unsubscribe)

		// Analytics, attributed to the user when a token is present
		r.With(middleware.OptionalAuthMiddleware(cfg.Auth.JWTSecret)).Post("/api/analytics/track", h.Analytics.Track)

		// Payment gateway callbacks
		r.Post("/api/payments/stripe/webhook", h.Order.StripeWebhook)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		// Account
		r.Get("/api/auth/me", h.Auth.Me)
		r.Put("/api/auth/update-profile", h.Auth.UpdateProfile)
		r.Post("/api/auth/change-password", h.Auth.ChangePassword)

		// Courses
		r.Get("/api/courses/{id}/content", h.Course.Content)
		r.Get("/api/courses/{id}/lessons/{lessonId}/playback", h.Course.Playback)

		// Orders
		r.Get("/api/orders", h.Order.ListMine)
		r.Post("/api/orders", h.Order.Create)
		r.Get("/api/orders/{id}", h.Order.Get)
		r.Post("/api/orders/{id}/cancel", h.Order.Cancel)

		// Subscriptions
		r.Get("/api/subscriptions", h.Subscription.ListMine)
		r.Post("/api/subscriptions/{id}/cancel", h.Subscription.Cancel)

		// Trials
		r.Post("/api/trials/start", h.Trial.Start)
		r.Get("/api/trials/my-trials", h.Trial.MyTrials)
		r.Get("/api/trials/product/{productId}", h.Trial.GetByProduct)
		r.Get("/api/trials/access/{productId}", h.Trial.Access)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin(h.Accounts))

		// Users
		r.Get("/api/admin/users", h.User.List)
		r.Post("/api/admin/users", h.User.Create)
		r.Get("/api/admin/users/{id}", h.User.Get)
		r.Put("/api/admin/users/{id}", h.User.Update)
		r.Delete("/api/admin/users/{id}", h.User.Delete)

		// Products
		r.Get("/api/admin/products", h.Product.AdminList)
		r.Post("/api/admin/products", h.Product.Create)
		r.Put("/api/admin/products/{id}", h.Product.Update)
		r.Delete("/api/admin/products/{id}", h.Product.Delete)

		// Course content
		r.Put("/api/courses/{id}/content", h.Course.ReplaceContent)
		r.Post("/api/courses/{id}/module", h.Course.AddModule)
		r.Put("/api/courses/{id}/module/{moduleId}", h.Course.UpdateModule)
		r.Delete("/api/courses/{id}/module/{moduleId}", h.Course.DeleteModule)
		r.Post("/api/courses/{id}/module/{moduleId}/lesson", h.Course.AddLesson)
		r.Put("/api/courses/{id}/module/{moduleId}/lesson/{lessonId}", h.Course.UpdateLesson)
		r.Delete("/api/courses/{id}/module/{moduleId}/lesson/{lessonId}", h.Course.DeleteLesson)

		// Orders
		r.Get("/api/orders/admin/all", h.Order.ListAll)
		r.Get("/api/orders/stats", h.Order.Stats)
		r.Post("/api/orders/{id}/confirm", h.Order.Confirm)
		r.Post("/api/orders/{id}/refund", h.Order.Refund)

		// Subscriptions
		r.Get("/api/admin/subscriptions", h.Subscription.ListAll)
		r.Post("/api/admin/subscriptions", h.Subscription.Create)
		r.Post("/api/admin/subscriptions/{id}/cancel", h.Subscription.Cancel)
		r.Post("/api/admin/subscriptions/{id}/pause", h.Subscription.Pause)
		r.Post("/api/admin/subscriptions/{id}/resume", h.Subscription.Resume)

		// Trials
		r.Get("/api/trials/admin/all", h.Trial.ListAll)
		r.Get("/api/trials/admin/stats", h.Trial.Stats)
		r.Post("/api/trials/admin/{id}/extend", h.Trial.Extend)
		r.Post("/api/trials/admin/{id}/cancel", h.Trial.Cancel)

		// Newsletter
		r.Get("/api/newsletter/admin/subscribers", h.Newsletter.ListSubscribers)
		r.Delete("/api/newsletter/admin/subscribers/{id}", h.Newsletter.DeleteSubscriber)
		r.Get("/api/newsletter/admin/messages", h.Newsletter.ListMessages)
		r.Post("/api/newsletter/admin/messages", h.Newsletter.CreateMessage)
		r.Get("/api/newsletter/admin/messages/{id}", h.Newsletter.GetMessage)
		r.Put("/api/newsletter/admin/messages/{id}", h.Newsletter.UpdateMessage)
		r.Delete("/api/newsletter/admin/messages/{id}", h.Newsletter.DeleteMessage)
		r.Post("/api/newsletter/admin/messages/{id}/send", h.Newsletter.Send)

		// Uploads and reporting
		r.Post("/api/upload", h.Upload.Upload)
		r.Get("/api/analytics/stats", h.Analytics.Stats)
		r.Get("/api/admin/dashboard", h.Analytics.Dashboard)
	})

	return r
}
