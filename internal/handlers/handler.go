package handlers

import (
	"heating_curve/internal/logger"
	"heating_curve/internal/metrics"
	"heating_curve/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services    *service.Service
	hub         *Hub
	log         *logger.Logger
	requireAuth bool
}

// NewHandler constructs a new HTTP handler with dependencies. With
// requireAuth false the /api/v1 group is served without a bearer token.
func NewHandler(services *service.Service, hub *Hub, log *logger.Logger, requireAuth bool) *Handler {
	if hub == nil {
		hub = NewHub(log)
	}
	return &Handler{services: services, hub: hub, log: log, requireAuth: requireAuth}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// tile push channel; same port
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
	api := r.Group("/api/v1")
	if h.requireAuth {
		api.Use(h.operatorMiddleware)
	}
	{
		h.registerCurveRoutes(api)
		h.registerVariableRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerCurveRoutes(api *gin.RouterGroup) {
	curve := api.Group("/curve")
	{
		// Body example: {"ident":"MinVL","value":1}
		curve.POST("/action", h.curveAction)
		curve.GET("/state", h.curveState)
		curve.GET("/tile", h.curveTile)
		curve.GET("/parameters", h.curveParameters)
		curve.GET("/evaluate", h.curveEvaluate)
	}
}

func (h *Handler) registerVariableRoutes(api *gin.RouterGroup) {
	vars := api.Group("/variables")
	{
		vars.GET("/:id", h.getVariable)
		vars.PUT("/:id", h.defineVariable)
		vars.POST("/:id/value", h.writeVariable)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
