package router

import (
	"time"

	"nibog/config"
	"nibog/internal/handler"
	"nibog/internal/middleware"
	"nibog/internal/repository"
	"nibog/internal/service"
	"nibog/pkg/cache"
	"nibog/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	pendingRepo := repository.NewPendingBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	bookingSvc := service.NewBookingService(db)

	statusCache := cache.New(512, time.Minute)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventRepo)
	bookingHandler := handler.NewBookingHandler(bookingRepo)
	paymentHandler := handler.NewPaymentHandler(cfg, provider, pendingRepo, paymentRepo, statusCache)
	webhookHandler := handler.NewPhonePeWebhookHandler(provider, pendingRepo, paymentRepo, bookingSvc)
	pendingHandler := handler.NewPendingBookingHandler(pendingRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		api.GET("/events", eventHandler.List)
		api.GET("/events/:id/eligible-games", eventHandler.EligibleGames)

		payments := api.Group("/payments")
		{
			payments.POST("/phonepe/initiate", authMw, paymentHandler.Initiate)
			// Gateway server-to-server callback; authenticated by X-VERIFY,
			// not by a user token.
			payments.POST("/phonepe/callback", webhookHandler.Handle)
			payments.GET("/phonepe/status/:transactionId", paymentHandler.Status)
		}

		pending := api.Group("/pending-bookings")
		pending.Use(authMw)
		{
			pending.POST("/get", pendingHandler.Get)
			pending.DELETE("/:transactionId", pendingHandler.Delete)
		}

		bookings := api.Group("/bookings")
		bookings.Use(authMw)
		{
			bookings.GET("", bookingHandler.ListMine)
			bookings.GET("/:ref", bookingHandler.GetByRef)
		}
	}

	return r
}
