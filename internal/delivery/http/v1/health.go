package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlerImpl) HandleReady(c *gin.Context) {
	logger := h.requestLogger(c)

	err := h.challenges.Ready(c.Request.Context())
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("store is not ready")
		abort(c, newAPIError(http.StatusServiceUnavailable, errDatabaseUnavailable.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
