package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/restaurant-reservations/config"
	"github.com/yeremiapane/restaurant-reservations/controllers"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/metrics"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/queue"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by the HTTP layer and the background workers.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Hub       *hub.Hub
	Locker    services.AdmissionLocker
	Publisher queue.Publisher
}

// Services builds the reservation and settings services from deps.
func Services(deps Deps) (*services.ReservationService, *services.SettingsService) {
	cfg := deps.Config
	capacity := services.NewGormCapacityStore(deps.DB)

	var broadcaster services.Broadcaster
	if deps.Hub != nil {
		broadcaster = deps.Hub
	}

	reservations := services.NewReservationService(services.ReservationDeps{
		Ledger:      services.NewGormLedger(deps.DB),
		Capacity:    capacity,
		Transactor:  database.NewTransactionManager(deps.DB),
		Locker:      deps.Locker,
		Publisher:   deps.Publisher,
		Broadcaster: broadcaster,
		Location:    cfg.Location(),
		AutoConfirm: cfg.AutoConfirm,
		MaxGuests:   cfg.MaxGuests,
	})
	return reservations, services.NewSettingsService(capacity, broadcaster)
}

func SetupRouter(deps Deps) *gin.Engine {
	if deps.Hub == nil {
		deps.Hub = hub.NewHub()
	}
	reservationService, settingsService := Services(deps)
	return Routes(deps, reservationService, settingsService)
}

// Routes mounts every endpoint on a new engine.
func Routes(deps Deps, reservationService *services.ReservationService, settingsService *services.SettingsService) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders(cfg.Env == "production"))
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(metrics.Middleware)

	reservationCtrl := controllers.NewReservationController(reservationService)
	settingsCtrl := controllers.NewSettingsController(settingsService)
	liveCtrl := controllers.NewLiveController(deps.Hub, cfg.CORSOrigin)

	secret := []byte(cfg.JWTSecret)
	if cfg.AdminAuthEnabled && len(secret) == 0 {
		utils.ErrorLogger.Warn("ADMIN_AUTH_ENABLED is set but JWT_SECRET is empty; admin routes will reject every token")
	}

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	r.POST("/reservations", limiter.RateLimit(), reservationCtrl.CreateReservation)
	r.GET("/reservations/availability", reservationCtrl.Availability)

	r.GET("/live/ws",
		middlewares.WebSocketAuthMiddleware(secret, cfg.AdminAuthEnabled),
		middlewares.RoleCheck(utils.RoleAdmin),
		liveCtrl.LiveHandler,
	)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(secret, cfg.AdminAuthEnabled), middlewares.RoleCheck(utils.RoleAdmin))
	{
		admin.GET("/reservations", reservationCtrl.ListReservations)
		admin.GET("/reservations/today", reservationCtrl.TodayReservations)
		admin.GET("/reservations/:id", reservationCtrl.GetReservation)
		admin.POST("/reservations", reservationCtrl.AdminCreateReservation)
		admin.PATCH("/reservations/:id", reservationCtrl.UpdateReservation)
		admin.PATCH("/reservations/:id/status", reservationCtrl.UpdateReservationStatus)
		admin.DELETE("/reservations/:id", reservationCtrl.DeleteReservation)

		admin.GET("/settings", settingsCtrl.GetSettings)
		admin.PUT("/settings", settingsCtrl.UpdateSettings)
	}

	return r
}
