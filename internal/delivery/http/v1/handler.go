package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/retos/internal/services"
)

type Handler interface {
	HandleRequestID(c *gin.Context)
	HandleRequestLogger(c *gin.Context)

	HandleHealth(c *gin.Context)
	HandleReady(c *gin.Context)

	HandleListChallenges(c *gin.Context)
	HandleCreateChallenge(c *gin.Context)
	HandleUpdateChallengeStatus(c *gin.Context)
	HandleDeleteChallenge(c *gin.Context)
}

type handlerImpl struct {
	logger     zerolog.Logger
	challenges services.ChallengeService
}

func New(
	logger zerolog.Logger,
	challengeService services.ChallengeService,
) Handler {
	return &handlerImpl{
		logger:     logger,
		challenges: challengeService,
	}
}

func RegisterRoutes(router gin.IRouter, h Handler) {
	router.Use(h.HandleRequestID, h.HandleRequestLogger)

	router.GET("/health", h.HandleHealth)
	router.GET("/ready", h.HandleReady)

	retosRouter := router.Group("/retos")
	retosRouter.GET("", h.HandleListChallenges)
	retosRouter.POST("", h.HandleCreateChallenge)
	retosRouter.PUT("/:id", h.HandleUpdateChallengeStatus)
	retosRouter.DELETE("/:id", h.HandleDeleteChallenge)
}
