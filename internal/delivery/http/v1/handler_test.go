package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/retos/internal/db"
	"github.com/adanyl0v/retos/internal/models"
	"github.com/adanyl0v/retos/internal/services"
)

type fakeChallengeService struct {
	listParams   services.ListChallengesParams
	createParams *services.CreateChallengeParams
	updateParams *services.UpdateChallengeStatusParams
	deleteID     *int64

	challenges []*models.Challenge
	challenge  *models.Challenge
	err        error
	readyErr   error
}

func (f *fakeChallengeService) ListChallenges(_ context.Context, params services.ListChallengesParams) ([]*models.Challenge, error) {
	f.listParams = params
	return f.challenges, f.err
}

func (f *fakeChallengeService) CreateChallenge(_ context.Context, params services.CreateChallengeParams) (*models.Challenge, error) {
	f.createParams = &params
	if f.err != nil {
		return nil, f.err
	}
	return &models.Challenge{
		ID:          1,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Difficulty:  params.Difficulty,
		Status:      params.Status,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeChallengeService) UpdateChallengeStatus(_ context.Context, params services.UpdateChallengeStatusParams) (*models.Challenge, error) {
	f.updateParams = &params
	if f.err != nil {
		return nil, f.err
	}
	challenge := *f.challenge
	challenge.Status = params.Status
	return &challenge, nil
}

func (f *fakeChallengeService) DeleteChallenge(_ context.Context, id int64) (int64, error) {
	f.deleteID = &id
	if f.err != nil {
		return 0, f.err
	}
	return id, nil
}

func (f *fakeChallengeService) Ready(context.Context) error {
	return f.readyErr
}

func newTestRouter(t *testing.T, svc services.ChallengeService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	RegisterRoutes(router, New(zerolog.Nop(), svc))
	return router
}

func doRequest(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleChallenge() *models.Challenge {
	return &models.Challenge{
		ID:          7,
		Title:       "Run 5k",
		Description: "Before breakfast",
		Category:    "fitness",
		Difficulty:  models.DifficultyMedium,
		Status:      models.StatusPending,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewLeavesGinBindingUntouched(t *testing.T) {
	before := binding.EnableDecoderDisallowUnknownFields
	t.Cleanup(func() { binding.EnableDecoderDisallowUnknownFields = before })
	binding.EnableDecoderDisallowUnknownFields = false

	newTestRouter(t, &fakeChallengeService{})

	assert.False(t, binding.EnableDecoderDisallowUnknownFields)
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, &fakeChallengeService{})

	w := doRequest(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleReady(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{})

		w := doRequest(router, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("unavailable", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{readyErr: db.ErrPoolTimeout})

		w := doRequest(router, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"database unavailable"}`, w.Body.String())
	})
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t, &fakeChallengeService{})

	w := doRequest(router, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestHandleListChallenges(t *testing.T) {
	t.Run("returns records", func(t *testing.T) {
		svc := &fakeChallengeService{challenges: []*models.Challenge{sampleChallenge()}}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodGet, "/retos?categoria=fitness&dificultad=medium", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, services.ListChallengesParams{Category: "fitness", Difficulty: "medium"}, svc.listParams)
		assert.JSONEq(t, `{"retos":[{
			"id": 7,
			"title": "Run 5k",
			"description": "Before breakfast",
			"category": "fitness",
			"difficulty": "medium",
			"status": "pending",
			"created_at": "2024-05-01T10:00:00Z"
		}]}`, w.Body.String())
	})

	t.Run("english aliases", func(t *testing.T) {
		svc := &fakeChallengeService{}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodGet, "/retos?category=work&difficulty=low", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, services.ListChallengesParams{Category: "work", Difficulty: "low"}, svc.listParams)
	})

	t.Run("empty list is not null", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{})

		w := doRequest(router, http.MethodGet, "/retos", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"retos":[]}`, w.Body.String())
	})

	t.Run("store failure hides details", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{
			err: fmt.Errorf("fetch all: %w", errors.New("relation \"retos\" does not exist")),
		})

		w := doRequest(router, http.MethodGet, "/retos", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	})

	t.Run("pool timeout", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{
			err: fmt.Errorf("fetch all: %w", db.ErrPoolTimeout),
		})

		w := doRequest(router, http.MethodGet, "/retos", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"Service Unavailable"}`, w.Body.String())
	})
}

func TestHandleCreateChallenge(t *testing.T) {
	t.Run("normalizes and defaults status", func(t *testing.T) {
		svc := &fakeChallengeService{}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodPost, "/retos", `{
			"title": "  Read a book ",
			"description": "Any book",
			"category": " leisure ",
			"difficulty": " LOW "
		}`)

		require.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, svc.createParams)
		assert.Equal(t, services.CreateChallengeParams{
			Title:       "Read a book",
			Description: "Any book",
			Category:    "leisure",
			Difficulty:  models.DifficultyLow,
			Status:      models.StatusPending,
		}, *svc.createParams)

		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["id"])
		assert.Equal(t, "pending", body["status"])
		assert.Equal(t, "low", body["difficulty"])
	})

	t.Run("explicit status", func(t *testing.T) {
		svc := &fakeChallengeService{}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodPost, "/retos",
			`{"title":"a","description":"b","category":"c","difficulty":"high","status":"In-Progress"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, models.StatusInProgress, svc.createParams.Status)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "empty body",
			body: "",
			want: "missing fields: title, description, category, difficulty",
		},
		{
			name: "empty object",
			body: `{}`,
			want: "missing fields: title, description, category, difficulty",
		},
		{
			name: "blank fields",
			body: `{"title":"  ","description":"","category":"c","difficulty":"low"}`,
			want: "missing fields: title, description",
		},
		{
			name: "missing fields before invalid difficulty",
			body: `{"title":"a","description":"b","difficulty":"extreme"}`,
			want: "missing fields: category",
		},
		{
			name: "invalid difficulty",
			body: `{"title":"a","description":"b","category":"c","difficulty":"extreme"}`,
			want: "invalid difficulty (low|medium|high)",
		},
		{
			name: "invalid status",
			body: `{"title":"a","description":"b","category":"c","difficulty":"low","status":"done"}`,
			want: "invalid status (pending|in-progress|completed)",
		},
		{
			name: "empty status",
			body: `{"title":"a","description":"b","category":"c","difficulty":"low","status":""}`,
			want: "invalid status (pending|in-progress|completed)",
		},
		{
			name: "unknown field",
			body: `{"title":"a","description":"b","category":"c","difficulty":"low","owner":"x"}`,
			want: "invalid request body",
		},
		{
			name: "trailing data",
			body: `{"title":"a","description":"b","category":"c","difficulty":"low"} garbage`,
			want: "invalid request body",
		},
		{
			name: "second object",
			body: `{"title":"a","description":"b","category":"c","difficulty":"low"}{}`,
			want: "invalid request body",
		},
		{
			name: "malformed json",
			body: `{"title":`,
			want: "invalid request body",
		},
		{
			name: "wrong type",
			body: `{"title":1,"description":"b","category":"c","difficulty":"low"}`,
			want: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChallengeService{}
			router := newTestRouter(t, svc)

			w := doRequest(router, http.MethodPost, "/retos", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decodeBody(t, w)["error"])
			assert.Nil(t, svc.createParams)
		})
	}

	t.Run("trailing whitespace is accepted", func(t *testing.T) {
		svc := &fakeChallengeService{}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodPost, "/retos",
			"{\"title\":\"a\",\"description\":\"b\",\"category\":\"c\",\"difficulty\":\"low\"}\n  ")

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("constraint violation", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{
			err: fmt.Errorf("execute: %w", &pgconn.PgError{Code: "23514", Message: "violates check constraint"}),
		})

		w := doRequest(router, http.MethodPost, "/retos",
			`{"title":"a","description":"b","category":"c","difficulty":"low"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "constraint")
	})
}

func TestHandleUpdateChallengeStatus(t *testing.T) {
	t.Run("updates status", func(t *testing.T) {
		svc := &fakeChallengeService{challenge: sampleChallenge()}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodPut, "/retos/7", `{"status":" COMPLETED "}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, &services.UpdateChallengeStatusParams{ID: 7, Status: models.StatusCompleted}, svc.updateParams)

		body := decodeBody(t, w)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "Run 5k", body["title"])
	})

	t.Run("not found", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{err: services.ErrChallengeNotFound})

		w := doRequest(router, http.MethodPut, "/retos/99", `{"status":"completed"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"challenge not found"}`, w.Body.String())
	})

	for _, id := range []string{"abc", "-1", "1.5", "99999999999999999999"} {
		t.Run("unmatchable id "+id, func(t *testing.T) {
			svc := &fakeChallengeService{}
			router := newTestRouter(t, svc)

			w := doRequest(router, http.MethodPut, "/retos/"+id, `{"status":"completed"}`)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Nil(t, svc.updateParams)
		})
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing status", body: `{}`, want: "missing status"},
		{name: "empty body", body: "", want: "missing status"},
		{name: "invalid status", body: `{"status":"archived"}`, want: "invalid status (pending|in-progress|completed)"},
		{name: "unknown field", body: `{"status":"pending","title":"x"}`, want: "invalid request body"},
		{name: "trailing data", body: `{"status":"pending"} x`, want: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChallengeService{}
			router := newTestRouter(t, svc)

			w := doRequest(router, http.MethodPut, "/retos/7", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decodeBody(t, w)["error"])
			assert.Nil(t, svc.updateParams)
		})
	}
}

func TestHandleDeleteChallenge(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		svc := &fakeChallengeService{}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodDelete, "/retos/7", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"id":7}`, w.Body.String())
		require.NotNil(t, svc.deleteID)
		assert.Equal(t, int64(7), *svc.deleteID)
	})

	t.Run("not found", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{err: services.ErrChallengeNotFound})

		w := doRequest(router, http.MethodDelete, "/retos/7", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"challenge not found"}`, w.Body.String())
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := &fakeChallengeService{}
		router := newTestRouter(t, svc)

		w := doRequest(router, http.MethodDelete, "/retos/abc", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Nil(t, svc.deleteID)
	})

	t.Run("pool timeout", func(t *testing.T) {
		router := newTestRouter(t, &fakeChallengeService{err: fmt.Errorf("execute: %w", db.ErrPoolTimeout)})

		w := doRequest(router, http.MethodDelete, "/retos/7", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
