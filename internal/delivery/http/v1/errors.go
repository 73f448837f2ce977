package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/retos/internal/db"
	"github.com/adanyl0v/retos/internal/services"
)

var (
	errInvalidRequestBody  = errors.New("invalid request body")
	errMissingFields       = errors.New("missing fields")
	errMissingStatus       = errors.New("missing status")
	errInvalidDifficulty   = errors.New("invalid difficulty (low|medium|high)")
	errInvalidStatus       = errors.New("invalid status (pending|in-progress|completed)")
	errDatabaseUnavailable = errors.New("database unavailable")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

// newServiceError hides data-access details from the client. Only the
// not-found condition keeps its message.
func newServiceError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrChallengeNotFound):
		return newNotFoundError(services.ErrChallengeNotFound.Error())
	case db.Classify(err) == db.KindTransient:
		return newStatusTextError(http.StatusServiceUnavailable)
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
