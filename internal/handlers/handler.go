package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/service"
)

// Handler wires HTTP layer to services, the websocket hub and logging.
type Handler struct {
	services *service.Service
	hub      *Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket card stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerTimerRoutes(api)
		h.registerLogRoutes(api)
		api.POST("/commands", h.processCommand)
	}
}

func (h *Handler) registerTimerRoutes(api *gin.RouterGroup) {
	timers := api.Group("/timers")
	{
		timers.POST("", h.createTimer)
		timers.GET("", h.listTimers)
		timers.DELETE("", h.clearTimers)

		timers.POST("/start-all", h.startAll)
		timers.POST("/pause-all", h.pauseAll)
		timers.POST("/reset-all", h.resetAll)

		timers.GET("/:id", h.getTimer)
		timers.DELETE("/:id", h.removeTimer)
		timers.POST("/:id/start", h.startTimer)
		timers.POST("/:id/pause", h.pauseTimer)
		timers.POST("/:id/reset", h.resetTimer)
		timers.PUT("/:id/name", h.renameTimer)
		timers.PUT("/:id/metadata", h.updateMetadata)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
