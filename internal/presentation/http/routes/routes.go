package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grillwerk/printgate/internal/config"
	"github.com/grillwerk/printgate/internal/presentation/http/handler"
	"github.com/grillwerk/printgate/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Print *handler.PrintHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg *config.Config
	Log *zap.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		printerGroup := v1.Group("/printer")

		// One physical printer serves everyone; rate-limit per producer so a
		// single runaway client cannot monopolize it.
		rateLimiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		printerGroup.Use(rateLimiter.Middleware())

		registerPrinterRoutes(printerGroup, h)
	}

	return router
}

func registerPrinterRoutes(g *gin.RouterGroup, h *Handlers) {
	g.GET("/status", h.Print.GetStatus)
	g.POST("/test", h.Print.TestPrint)
	g.POST("/lines", h.Print.PrintLines)
	g.POST("/ticket", h.Print.PrintTicket)
	g.POST("/ticket/remote", h.Print.PrintRemoteTicket)
	g.POST("/barcode", h.Print.PrintBarcode)
}
