package handlers

import (
	"net/http"
	"slices"

	"clinic_queue/internal/auth"
	"clinic_queue/internal/logger"
	"clinic_queue/internal/models"
	"clinic_queue/internal/response"
	"clinic_queue/internal/storage"
	"clinic_queue/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterOptions struct {
	CORSOrigins []string
	// Gatherer backs /metrics; prometheus.DefaultGatherer when nil.
	Gatherer prometheus.Gatherer
}

func NewRouter(h *Handler, hub *ws.Hub, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(logger.Middleware(h.log), gin.Recovery())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", h.Health)

	clerk := auth.RequireRole(models.RoleClerk)
	staff := auth.RequireRole(models.RoleClerk, models.RoleDoctor)

	// Accounts are provisioned by a signed-in clerk or with clinicctl.
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", auth.AuthMiddleware(h.issuer), clerk, h.Register)
		authGroup.POST("/refresh", h.RefreshToken)
	}

	api := r.Group("/api", auth.AuthMiddleware(h.issuer))

	queues := api.Group("/queues")
	{
		queues.GET("/active", h.GetActiveQueueHandler)
		queues.GET("/:id/entries", h.ListEntriesHandler)
		queues.POST("/:id/entries", clerk, h.AddToQueueHandler)
		queues.PUT("/:id/order", clerk, h.ReorderQueueHandler)
		queues.POST("/:id/advance", staff, h.NextPatientHandler)
		queues.GET("/:id/state", h.QueueStateHandler)
		queues.GET("/:id/ws", ws.QueueWebSocketHandler(hub))
	}

	patients := api.Group("/patients")
	{
		patients.POST("", clerk, h.CreatePatientHandler)
		patients.GET("/search", h.SearchPatientsHandler)
		patients.GET("/:id", h.GetPatientHandler)
	}

	return r
}

// Health godoc
// @Summary	Health check
// @Tags		system
// @Produce	json
// @Success	200	{object}	response.SuccessResponse
// @Failure	503	{object}	response.ErrorResponse	"DB_UNAVAILABLE"
// @Router		/healthz [get]
func (h *Handler) Health(c *gin.Context) {
	if err := storage.Ping(c.Request.Context(), h.db); err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{
			Code:    "DB_UNAVAILABLE",
			Message: "Database unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "ok"})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", logger.RequestIDHeader},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
