package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rafflehub/raffle-backend/internal/config"
	"github.com/rafflehub/raffle-backend/internal/handlers"
	"github.com/rafflehub/raffle-backend/internal/middleware"
)

// HandlerDependencies holds the handlers the router wires up
type HandlerDependencies struct {
	AuthHandler   *handlers.AuthHandler
	RaffleHandler *handlers.RaffleHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		public.POST("/admin/login", deps.AuthHandler.Login)

		raffles := public.Group("/raffles")
		{
			raffles.GET("", deps.RaffleHandler.GetAllRaffles)
			// The webhook route is registered before the :id routes on
			// purpose; it is authenticated by its payload signature, not a
			// session.
			raffles.POST("/webhook", deps.RaffleHandler.Webhook)
			raffles.GET("/:id", deps.RaffleHandler.GetRaffle)
			raffles.GET("/:id/tickets/:ticketNumber", deps.RaffleHandler.GetTicket)
			raffles.POST("/:id/participants/init-payment", deps.RaffleHandler.InitPayment)
			raffles.POST("/:id/participants/verify-payment", deps.RaffleHandler.VerifyPayment)
			raffles.POST("/:id/close/:secret", deps.RaffleHandler.CloseRaffle)
			raffles.DELETE("/:id/:secret", deps.RaffleHandler.DeleteRaffle)
		}
	}

	// Protected routes: raffle creation requires an organizer session
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		protected.POST("/raffles", deps.RaffleHandler.CreateRaffle)
	}

	return router
}
