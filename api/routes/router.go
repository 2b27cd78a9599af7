package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gigbook/internal/artists"
	"gigbook/internal/availability"
	"gigbook/internal/bookings"
	"gigbook/internal/equipment"
	"gigbook/internal/jobs"
	"gigbook/internal/payments"
	"gigbook/internal/shared/config"
	"gigbook/internal/shared/constants"
	"gigbook/internal/shared/database"
	"gigbook/internal/units"
	"gigbook/pkg/cache"
	"gigbook/pkg/logger"
	"gigbook/pkg/ratelimit"
)

// Router wires repositories, services and controllers and mounts every
// route group.
type Router struct {
	config  *config.Config
	db      *database.DB
	limiter *ratelimit.RateLimiter
	log     *logger.Logger

	// Services shared with the background workers.
	ArtistService       artists.Service
	EquipmentService    equipment.Service
	UnitService         units.Service
	AvailabilityService availability.Service
	BookingService      bookings.Service
	PaymentService      payments.Service
}

// NewRouter builds the dependency graph. The scheduler publishes the
// deferred status jobs that expire unpaid holds.
func NewRouter(cfg *config.Config, db *database.DB, limiter *ratelimit.RateLimiter, scheduler bookings.ExpiryScheduler) *Router {
	appLogger := logger.GetDefault()

	artistRepo := artists.NewRepository(db.PostgreSQL)
	artistService := artists.NewService(artistRepo)

	equipmentRepo := equipment.NewRepository(db.PostgreSQL)
	equipmentService := equipment.NewService(equipmentRepo)

	holds := units.NewHoldCache(db.Redis)
	unitRepo := units.NewRepository(db.PostgreSQL)
	unitService := units.NewService(unitRepo, holds)

	cacheService := cache.NewService(db.Redis)
	availabilityService := availability.NewService(
		artistService, equipmentService, unitService,
		cacheService, constants.TTL_AVAILABILITY_CHECK,
	)

	bookingRepo := bookings.NewRepository(db.PostgreSQL)
	bookingService := bookings.NewService(
		bookingRepo, artistService, equipmentService, unitService,
		availabilityService, scheduler, cfg.Reservation, appLogger,
	)

	paymentRepo := payments.NewRepository(db.PostgreSQL)
	paymentService := payments.NewService(paymentRepo, bookingService, bookingRepo, scheduler, appLogger)

	return &Router{
		config:  cfg,
		db:      db,
		limiter: limiter,
		log:     appLogger,

		ArtistService:       artistService,
		EquipmentService:    equipmentService,
		UnitService:         unitService,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		PaymentService:      paymentService,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		availability.SetupAvailabilityRoutes(api, availability.NewController(r.AvailabilityService))
		artists.SetupArtistRoutes(api, artists.NewController(r.ArtistService))
		equipment.SetupEquipmentRoutes(api, equipment.NewController(r.EquipmentService))
		units.SetupUnitRoutes(api, units.NewController(r.UnitService))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.BookingService), r.limiter)
		payments.SetupPaymentRoutes(api, payments.NewController(r.PaymentService))
	}
}

// Sweeper builds the periodic reconciliation worker over the wired services.
func (r *Router) Sweeper() *jobs.Sweeper {
	return jobs.NewSweeper(r.UnitService, r.BookingService, r.EquipmentService, r.ArtistService, &jobs.SweeperConfig{
		Interval:  r.config.Reservation.SweepInterval,
		BatchSize: 100,
	}, r.log)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "gigbook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "gigbook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}
