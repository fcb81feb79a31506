package http

import (
	"context"
	"encoding/json"

	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ReminderRunner triggers one dispatch run.
type ReminderRunner interface {
	Run(ctx context.Context) (*usecases.RunSummary, error)
}

// WebhookTracker applies provider connection callbacks.
type WebhookTracker interface {
	Handle(ctx context.Context, ev usecases.WebhookEvent) (usecases.Transition, error)
}

type MessagingService interface {
	Send(ctx context.Context, callerID uuid.UUID, phone, message string) (json.RawMessage, error)
	LinkInstance(ctx context.Context, callerID uuid.UUID, key, token string) (*entities.MessagingInstance, error)
	UnlinkInstance(ctx context.Context, callerID uuid.UUID) error
	PairingCode(ctx context.Context, callerID uuid.UUID) (string, error)
}

// Services bundles the usecases behind the routes.
type Services struct {
	Auth       *usecases.AuthUsecase
	Accounts   *usecases.AccountUsecase
	Clients    *usecases.ClientUsecase
	Quota      *usecases.QuotaEnforcer
	Templates  *usecases.TemplateResolver
	Inbox      *usecases.InboxUsecase
	Messaging  MessagingService
	Tracker    WebhookTracker
	Dispatcher ReminderRunner
}

type RouteConfig struct {
	CronSecret       string
	APIRatePerSecond float64
	APIBurst         int
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

func SetupRoutes(r *gin.Engine, svc Services, middleware *Middleware, cfg RouteConfig) {
	h := NewHandler(svc)

	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(MaxBodyBytes))
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider and scheduler callbacks
	r.POST("/api/uazapi-webhook", h.UazapiWebhook)
	r.POST("/api/cron-whatsapp-reminders", CronSecretRequired(cfg.CronSecret), h.CronReminders)

	r.POST("/api/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(rate.Limit(cfg.APIRatePerSecond), cfg.APIBurst))
	{
		// Accounts
		api.POST("/create-user", h.CreateUser)
		api.POST("/self-register", h.SelfRegister)
		api.POST("/get-user-profiles", h.GetUserProfiles)

		// Clients and quota
		api.GET("/quota", h.GetQuota)
		api.POST("/clients", h.CreateClient)
		api.POST("/clients/:id/renew", h.RenewClient)
		api.POST("/clients/:id/suspend", h.SuspendClient)

		// Templates
		api.GET("/templates", h.ListTemplates)
		api.PUT("/templates/:status", h.SaveTemplate)
		api.DELETE("/templates/:status", h.ResetTemplate)

		// WhatsApp
		api.POST("/send-whatsapp", h.SendWhatsApp)
		api.POST("/whatsapp/instance", h.LinkInstance)
		api.DELETE("/whatsapp/instance", h.UnlinkInstance)
		api.GET("/whatsapp/qr", h.GetQRCode)

		// Alerts and preferences
		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
		api.GET("/preferences/:key", h.GetPreference)
		api.PUT("/preferences/:key", h.SetPreference)
	}
}
