package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whistleinn/internal/infra/config"
	"whistleinn/internal/infra/obs"
)

type Handlers struct {
	Quote          QuoteHTTP
	Checkout       CheckoutHTTP
	Availability   AvailabilityHTTP
	Calendar       CalendarHTTP
	Webhook        WebhookHTTP
	Auth           AuthHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
	RequireAdmin   gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, registry *prometheus.Registry, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	if h.Quote != nil {
		api.POST("/quote", h.Quote.Quote)
	}
	if h.Checkout != nil {
		api.POST("/checkout", h.Checkout.Start)
	}
	if h.Availability != nil {
		api.GET("/availability", h.Availability.BlockedRanges)
	}
	if h.Calendar != nil {
		api.GET("/calendar.ics", h.Calendar.Export)
	}
	if h.Webhook != nil {
		api.POST("/webhooks/payment", h.Webhook.PaymentWebhook)
		api.POST("/checkout/confirm", h.Webhook.ConfirmMockPayment)
	}
	if h.Auth != nil {
		api.POST("/admin/login", h.Auth.Login)
		api.POST("/admin/logout", h.Auth.Logout)
		api.GET("/admin/me", h.Auth.Me)
	}
	if h.Admin != nil {
		admin := api.Group("/admin")
		if h.RequireAdmin != nil {
			admin.Use(h.RequireAdmin)
		}
		admin.GET("/bookings", h.Admin.ListBookings)
		admin.GET("/bookings/:id", h.Admin.GetBooking)
		admin.PATCH("/bookings/:id", h.Admin.UpdateBookingStatus)

		admin.GET("/rates", h.Admin.ListRates)
		admin.POST("/rates", h.Admin.CreateRate)
		admin.GET("/rates/:id", h.Admin.GetRate)
		admin.PUT("/rates/:id", h.Admin.UpdateRate)
		admin.DELETE("/rates/:id", h.Admin.DeleteRate)

		admin.GET("/coupons", h.Admin.ListCoupons)
		admin.POST("/coupons", h.Admin.CreateCoupon)
		admin.GET("/coupons/:id", h.Admin.GetCoupon)
		admin.PUT("/coupons/:id", h.Admin.UpdateCoupon)
		admin.DELETE("/coupons/:id", h.Admin.DeleteCoupon)

		admin.GET("/external-bookings", h.Admin.ListExternalBookings)
		admin.POST("/external-bookings", h.Admin.CreateExternalBooking)
		admin.GET("/external-bookings/:id", h.Admin.GetExternalBooking)
		admin.PUT("/external-bookings/:id", h.Admin.UpdateExternalBooking)
		admin.DELETE("/external-bookings/:id", h.Admin.DeleteExternalBooking)

		admin.GET("/ical-feeds", h.Admin.ListFeeds)
		admin.POST("/ical-feeds", h.Admin.CreateFeed)
		admin.POST("/ical-feeds/sync", h.Admin.SyncFeeds)
		admin.GET("/ical-feeds/scheduler", h.Admin.SchedulerStatus)
		admin.GET("/ical-feeds/:id", h.Admin.GetFeed)
		admin.PUT("/ical-feeds/:id", h.Admin.UpdateFeed)
		admin.DELETE("/ical-feeds/:id", h.Admin.DeleteFeed)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
