package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/retos/internal/models"
	"github.com/adanyl0v/retos/internal/services"
)

type getChallengeResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Difficulty  string    `json:"difficulty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func newGetChallengeResponse(challenge *models.Challenge) getChallengeResponse {
	return getChallengeResponse{
		ID:          challenge.ID,
		Title:       challenge.Title,
		Description: challenge.Description,
		Category:    challenge.Category,
		Difficulty:  string(challenge.Difficulty),
		Status:      string(challenge.Status),
		CreatedAt:   challenge.CreatedAt,
	}
}

type listChallengesResponse struct {
	Retos []getChallengeResponse `json:"retos"`
}

type deleteChallengeResponse struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

type createChallengeRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Difficulty  string  `json:"difficulty"`
	Status      *string `json:"status,omitempty"`
}

// params trims every field, lowercases the enumerated ones and validates
// them in a fixed order: missing fields, difficulty, status.
func (r createChallengeRequest) params() (services.CreateChallengeParams, error) {
	params := services.CreateChallengeParams{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
		Difficulty:  models.Difficulty(normalizeEnum(r.Difficulty)),
		Status:      models.StatusPending,
	}
	if r.Status != nil {
		params.Status = models.Status(normalizeEnum(*r.Status))
	}

	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"title", params.Title},
		{"description", params.Description},
		{"category", params.Category},
		{"difficulty", string(params.Difficulty)},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return params, fmt.Errorf("%w: %s", errMissingFields, strings.Join(missing, ", "))
	}

	if !params.Difficulty.IsValid() {
		return params, errInvalidDifficulty
	}
	if !params.Status.IsValid() {
		return params, errInvalidStatus
	}
	return params, nil
}

type updateChallengeStatusRequest struct {
	Status string `json:"status"`
}

func (r updateChallengeStatusRequest) status() (models.Status, error) {
	status := models.Status(normalizeEnum(r.Status))
	if status == "" {
		return "", errMissingStatus
	}
	if !status.IsValid() {
		return "", errInvalidStatus
	}
	return status, nil
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var errTrailingData = errors.New("unexpected data after json body")

// bindJSON decodes exactly one JSON object into req, rejecting unknown fields
// and anything that follows it. An empty body leaves req at its zero value so
// that required fields are reported as missing.
func bindJSON(c *gin.Context, req any) error {
	if c.Request.Body == nil {
		return nil
	}

	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(req)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = decoder.Token()
	if !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// challengeID parses the path id. Ids that are not non-negative integers
// can never match a challenge.
func challengeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func (h *handlerImpl) HandleListChallenges(c *gin.Context) {
	logger := h.requestLogger(c)

	params := services.ListChallengesParams{
		Category:   c.Query("categoria"),
		Difficulty: c.Query("dificultad"),
	}
	if params.Category == "" {
		params.Category = c.Query("category")
	}
	if params.Difficulty == "" {
		params.Difficulty = c.Query("difficulty")
	}

	challenges, err := h.challenges.ListChallenges(c.Request.Context(), params)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to list challenges")
		abort(c, newServiceError(err))
		return
	}

	response := listChallengesResponse{
		Retos: make([]getChallengeResponse, len(challenges)),
	}
	for i, challenge := range challenges {
		response.Retos[i] = newGetChallengeResponse(challenge)
	}

	logger.Debug().
		Int("count", len(challenges)).
		Msg("fetched challenges")
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleCreateChallenge(c *gin.Context) {
	logger := h.requestLogger(c)

	var req createChallengeRequest
	err := bindJSON(c, &req)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params, err := req.params()
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("invalid challenge")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	challenge, err := h.challenges.CreateChallenge(c.Request.Context(), params)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to create challenge")
		abort(c, newServiceError(err))
		return
	}

	logger.Info().
		Int64("challenge_id", challenge.ID).
		Msg("created challenge")
	c.JSON(http.StatusCreated, newGetChallengeResponse(challenge))
}

func (h *handlerImpl) HandleUpdateChallengeStatus(c *gin.Context) {
	logger := h.requestLogger(c)

	id, ok := challengeID(c)
	if !ok {
		logger.Warn().
			Str("id", c.Param("id")).
			Msg("invalid challenge id")
		abort(c, newNotFoundError(services.ErrChallengeNotFound.Error()))
		return
	}

	var req updateChallengeStatusRequest
	err := bindJSON(c, &req)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	status, err := req.status()
	if err != nil {
		logger.Warn().
			Err(err).
			Int64("challenge_id", id).
			Msg("invalid status")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	challenge, err := h.challenges.UpdateChallengeStatus(c.Request.Context(), services.UpdateChallengeStatusParams{
		ID:     id,
		Status: status,
	})
	if err != nil {
		if errors.Is(err, services.ErrChallengeNotFound) {
			logger.Warn().
				Int64("challenge_id", id).
				Msg("challenge not found")
		} else {
			logger.Error().
				Err(err).
				Int64("challenge_id", id).
				Msg("failed to update challenge status")
		}
		abort(c, newServiceError(err))
		return
	}

	logger.Info().
		Int64("challenge_id", challenge.ID).
		Str("status", string(challenge.Status)).
		Msg("updated challenge status")
	c.JSON(http.StatusOK, newGetChallengeResponse(challenge))
}

func (h *handlerImpl) HandleDeleteChallenge(c *gin.Context) {
	logger := h.requestLogger(c)

	id, ok := challengeID(c)
	if !ok {
		logger.Warn().
			Str("id", c.Param("id")).
			Msg("invalid challenge id")
		abort(c, newNotFoundError(services.ErrChallengeNotFound.Error()))
		return
	}

	deletedID, err := h.challenges.DeleteChallenge(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrChallengeNotFound) {
			logger.Warn().
				Int64("challenge_id", id).
				Msg("challenge not found")
		} else {
			logger.Error().
				Err(err).
				Int64("challenge_id", id).
				Msg("failed to delete challenge")
		}
		abort(c, newServiceError(err))
		return
	}

	logger.Info().
		Int64("challenge_id", deletedID).
		Msg("deleted challenge")
	c.JSON(http.StatusOK, deleteChallengeResponse{OK: true, ID: deletedID})
}
