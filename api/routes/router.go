// api/routes/router.go
package routes

import (
	"net/http"
	"strings"
	"time"

	"ticketpoint/internal/bookings"
	"ticketpoint/internal/checkin"
	"ticketpoint/internal/shared/config"
	"ticketpoint/internal/shared/database"
	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/tiers"
	"ticketpoint/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Services are the domain services exposed over HTTP
type Services struct {
	Tiers    tiers.Service
	Bookings bookings.Service
	Checkin  checkin.Service
}

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	services Services
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, services Services) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		services: services,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)
	r.setupTicketFiles(engine)

	auth := middleware.JWTAuth(r.config)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupTierRoutes(api, auth)
		r.setupBookingRoutes(api, auth)
		r.setupCheckinRoutes(api, auth)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if r.db != nil {
			if err := r.db.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"error":     err.Error(),
					"timestamp": time.Now(),
					"service":   "ticketpoint-backend",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketpoint-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "operational",
			"api_version":     r.config.APIVersion,
			"delivery":        r.config.Delivery.Backend,
			"ticket_storage":  r.config.Storage.Backend,
			"redis_available": r.db != nil && r.db.Redis != nil,
			"timestamp":       time.Now(),
		})
	})

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// setupTicketFiles serves archived ticket PDFs when they are kept on local disk
func (r *Router) setupTicketFiles(engine *gin.Engine) {
	storage := r.config.Storage
	if storage.Backend != "local" || !strings.HasPrefix(storage.PublicBaseURL, "/") {
		return
	}
	engine.Static(storage.PublicBaseURL, storage.LocalPath)
}

// setupTierRoutes configures tier availability and management routes
func (r *Router) setupTierRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	tierController := tiers.NewController(r.services.Tiers)
	tiers.SetupTierRoutes(rg, tierController, auth)
}

// setupBookingRoutes configures purchase, payment webhook and booking management routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	gateway, err := time.LoadLocation(r.config.Issuance.DefaultTimezone)
	if err != nil {
		gateway = time.UTC
	}
	bookingController := bookings.NewController(r.services.Bookings, gateway)
	bookings.SetupBookingRoutes(rg, bookingController, auth)
}

// setupCheckinRoutes configures operator scanning routes
func (r *Router) setupCheckinRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	checkinController := checkin.NewController(r.services.Checkin)
	checkin.SetupCheckinRoutes(rg, checkinController, auth)
}
