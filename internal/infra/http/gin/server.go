package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Resolve(c *gin.Context)
}

type PricingHTTP interface {
	StayQuote(c *gin.Context)
}

type CalendarHTTP interface {
	Get(c *gin.Context)
	Upsert(c *gin.Context)
}

type QuoteHTTP interface {
	Issue(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
}

type ListingHTTP interface {
	SetPricing(c *gin.Context)
}

type Handlers struct {
	Availability     AvailabilityHTTP
	Pricing          PricingHTTP
	Calendar         CalendarHTTP
	Quote            QuoteHTTP
	Booking          BookingHTTP
	Listing          ListingHTTP
	TenantMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Tenant", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.TenantMiddleware != nil {
		api.Use(h.TenantMiddleware)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Resolve)
	}
	if h.Pricing != nil {
		api.GET("/listings/:id/pricing-quote", h.Pricing.StayQuote)
	}
	if h.Calendar != nil {
		api.GET("/listings/:id/calendar", h.Calendar.Get)
		api.PUT("/listings/:id/calendar", h.Calendar.Upsert)
	}
	if h.Listing != nil {
		api.PUT("/listings/:id/pricing", h.Listing.SetPricing)
	}
	if h.Quote != nil {
		api.POST("/quotes", h.Quote.Issue)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
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
